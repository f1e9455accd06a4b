package tensor

import (
	"math"
	"testing"
)

// mockBackend satisfies Backend for tests that never dispatch compute.
type mockBackend struct{}

func (mockBackend) Add(_, _ *RawTensor) *RawTensor                  { panic("not implemented") }
func (mockBackend) Sub(_, _ *RawTensor) *RawTensor                  { panic("not implemented") }
func (mockBackend) Mul(_, _ *RawTensor) *RawTensor                  { panic("not implemented") }
func (mockBackend) Div(_, _ *RawTensor) *RawTensor                  { panic("not implemented") }
func (mockBackend) AddScalar(_ *RawTensor, _ any) *RawTensor        { panic("not implemented") }
func (mockBackend) SubScalar(_ *RawTensor, _ any) *RawTensor        { panic("not implemented") }
func (mockBackend) MulScalar(_ *RawTensor, _ any) *RawTensor        { panic("not implemented") }
func (mockBackend) DivScalar(_ *RawTensor, _ any) *RawTensor        { panic("not implemented") }
func (mockBackend) Conv2D(_, _ *RawTensor, _, _, _ int) *RawTensor  { panic("not implemented") }
func (mockBackend) PadReflect(_ *RawTensor, _ int) *RawTensor       { panic("not implemented") }
func (mockBackend) Roll(_ *RawTensor, _, _ []int) *RawTensor        { panic("not implemented") }
func (mockBackend) ClampChannels(_ *RawTensor, _, _ []float32) *RawTensor {
	panic("not implemented")
}
func (mockBackend) Reshape(_ *RawTensor, _ Shape) *RawTensor      { panic("not implemented") }
func (mockBackend) Unsqueeze(_ *RawTensor, _ int) *RawTensor      { panic("not implemented") }
func (mockBackend) Squeeze(_ *RawTensor, _ int) *RawTensor        { panic("not implemented") }
func (mockBackend) Transpose(_ *RawTensor, _ ...int) *RawTensor   { panic("not implemented") }
func (mockBackend) Sum(_ *RawTensor) *RawTensor                   { panic("not implemented") }
func (mockBackend) Name() string                                  { return "mock" }
func (mockBackend) Device() Device                                { return CPU }

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Uint8, 1},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{1, 3, 600, 600}, 1080000},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestComputeStrides(t *testing.T) {
	strides := Shape{1, 3, 4, 5}.ComputeStrides()
	want := []int{60, 20, 5, 1}
	for i, s := range want {
		if strides[i] != s {
			t.Errorf("strides[%d] = %d, want %d", i, strides[i], s)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	// The codec's stat tensors broadcast against full image tensors.
	result, needs, err := BroadcastShapes(Shape{1, 3, 1, 1}, Shape{1, 3, 600, 600})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !needs {
		t.Error("expected broadcasting to be needed")
	}
	assertEqualShape(t, Shape{1, 3, 600, 600}, result, "broadcast result")

	_, _, err = BroadcastShapes(Shape{2, 3}, Shape{4, 3})
	if err == nil {
		t.Error("expected error for incompatible shapes")
	}
}

func TestNewRawZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestCloneSharesBuffer(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float32, CPU)
	raw.AsFloat32()[0] = 42

	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("original should not be unique after clone")
	}
	if clone.AsFloat32()[0] != 42 {
		t.Error("clone should see original's data")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("original should be unique again after clone release")
	}
}

func TestWithShapeView(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32, CPU)
	raw.AsFloat32()[5] = 7

	view := raw.WithShape(Shape{6})
	assertEqualShape(t, Shape{6}, view.Shape(), "view shape")
	if view.AsFloat32()[5] != 7 {
		t.Error("view should share the underlying buffer")
	}
}

func TestForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("tensor should not be unique while pinned")
	}
	restore()
	if !raw.IsUnique() {
		t.Error("tensor should be unique after restore")
	}
}

func TestFromSlice(t *testing.T) {
	b := mockBackend{}

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if got := x.At(1, 2); got != 6 {
		t.Errorf("At(1,2) = %v, want 6", got)
	}

	_, err = FromSlice([]float32{1, 2}, Shape{2, 3}, b)
	if err == nil {
		t.Error("expected error for mismatched slice length")
	}
}

func TestAtSet(t *testing.T) {
	x := Zeros[float32](Shape{2, 2}, mockBackend{})
	x.Set(3.5, 1, 0)
	if got := x.At(1, 0); got != 3.5 {
		t.Errorf("At(1,0) = %v, want 3.5", got)
	}
}

func TestRandRange(t *testing.T) {
	x := Rand[float32](Shape{100}, mockBackend{})
	for i, v := range x.Data() {
		if v < 0 || v >= 1 {
			t.Errorf("element %d = %v, outside [0, 1)", i, v)
		}
	}
}

func TestDetachSharesData(t *testing.T) {
	x := Zeros[float32](Shape{3}, mockBackend{}).RequireGrad()
	d := x.Detach()

	if d.RequiresGrad() {
		t.Error("detached tensor should not require grad")
	}
	if !x.RequiresGrad() {
		t.Error("original should still require grad")
	}

	d.Data()[0] = 9
	if x.Data()[0] != 9 {
		t.Error("detach should share data, not copy")
	}
}

func TestItem(t *testing.T) {
	x := Full(Shape{}, float64(math.Pi), mockBackend{})
	if got := x.Item(); got != math.Pi {
		t.Errorf("Item() = %v, want %v", got, math.Pi)
	}
}
