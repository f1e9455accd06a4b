package cpu

import (
	"math"
	"testing"

	"github.com/reverie-ml/reverie/internal/tensor"
)

func newFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func assertFloat32Slice(t *testing.T, want, got []float32, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > tol {
			t.Errorf("element %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestAddSameShape(t *testing.T) {
	backend := New()

	a := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := newFloat32(t, tensor.Shape{2, 2}, []float32{10, 20, 30, 40})

	result := backend.Add(a, b)
	assertFloat32Slice(t, []float32{11, 22, 33, 44}, result.AsFloat32(), 0)
}

func TestSubBroadcastChannelStats(t *testing.T) {
	backend := New()

	// [1, 2, 2, 2] image minus [1, 2, 1, 1] per-channel means.
	img := newFloat32(t, tensor.Shape{1, 2, 2, 2},
		[]float32{1, 2, 3, 4, 10, 20, 30, 40})
	mean := newFloat32(t, tensor.Shape{1, 2, 1, 1}, []float32{1, 10})

	result := backend.Sub(img, mean)
	assertFloat32Slice(t, []float32{0, 1, 2, 3, 0, 10, 20, 30}, result.AsFloat32(), 0)
}

func TestDivBroadcast(t *testing.T) {
	backend := New()

	img := newFloat32(t, tensor.Shape{1, 2, 1, 2}, []float32{2, 4, 9, 12})
	std := newFloat32(t, tensor.Shape{1, 2, 1, 1}, []float32{2, 3})

	result := backend.Div(img, std)
	assertFloat32Slice(t, []float32{1, 2, 3, 4}, result.AsFloat32(), 1e-6)
}

func TestScalarOps(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})

	assertFloat32Slice(t, []float32{3, 4, 5}, backend.AddScalar(x, float32(2)).AsFloat32(), 0)
	assertFloat32Slice(t, []float32{2, 4, 6}, backend.MulScalar(x, float32(2)).AsFloat32(), 0)
	assertFloat32Slice(t, []float32{0.5, 1, 1.5}, backend.DivScalar(x, float32(2)).AsFloat32(), 1e-6)
}

func TestScalarTypeMismatchPanics(t *testing.T) {
	backend := New()
	x := newFloat32(t, tensor.Shape{1}, []float32{1})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for float64 scalar on float32 tensor")
		}
	}()
	backend.AddScalar(x, float64(2))
}

func TestConv2DDepthwise(t *testing.T) {
	backend := New()

	// Two channels, 1x1 kernels scaling each channel independently.
	input := newFloat32(t, tensor.Shape{1, 2, 2, 2},
		[]float32{1, 2, 3, 4, 5, 6, 7, 8})
	kernel := newFloat32(t, tensor.Shape{2, 1, 1, 1}, []float32{2, 3})

	out := backend.Conv2D(input, kernel, 1, 0, 2)

	if !out.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("unexpected output shape %v", out.Shape())
	}
	assertFloat32Slice(t, []float32{2, 4, 6, 8, 15, 18, 21, 24}, out.AsFloat32(), 1e-6)
}

func TestConv2DBoxFilter(t *testing.T) {
	backend := New()

	// 3x3 box kernel over a constant image keeps the constant.
	input := newFloat32(t, tensor.Shape{1, 1, 5, 5}, make([]float32, 25))
	for i := range input.AsFloat32() {
		input.AsFloat32()[i] = 2
	}
	kernel := newFloat32(t, tensor.Shape{1, 1, 3, 3}, make([]float32, 9))
	for i := range kernel.AsFloat32() {
		kernel.AsFloat32()[i] = 1.0 / 9.0
	}

	out := backend.Conv2D(input, kernel, 1, 0, 1)

	if !out.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("unexpected output shape %v", out.Shape())
	}
	for i, v := range out.AsFloat32() {
		if math.Abs(float64(v-2)) > 1e-5 {
			t.Errorf("element %d: want 2, got %v", i, v)
		}
	}
}

func TestPadReflect(t *testing.T) {
	backend := New()

	input := newFloat32(t, tensor.Shape{1, 1, 3, 3},
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})

	out := backend.PadReflect(input, 1)

	if !out.Shape().Equal(tensor.Shape{1, 1, 5, 5}) {
		t.Fatalf("unexpected output shape %v", out.Shape())
	}

	// Mirror without repeating the edge row/column.
	want := []float32{
		5, 4, 5, 6, 5,
		2, 1, 2, 3, 2,
		5, 4, 5, 6, 5,
		8, 7, 8, 9, 8,
		5, 4, 5, 6, 5,
	}
	assertFloat32Slice(t, want, out.AsFloat32(), 0)
}

func TestPadReflectZeroIsCopy(t *testing.T) {
	backend := New()

	input := newFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	out := backend.PadReflect(input, 0)

	if !out.Shape().Equal(input.Shape()) {
		t.Fatalf("unexpected output shape %v", out.Shape())
	}
	assertFloat32Slice(t, input.AsFloat32(), out.AsFloat32(), 0)
}

func TestRoll(t *testing.T) {
	backend := New()

	input := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out := backend.Roll(input, []int{1, 2}, []int{0, 1})

	assertFloat32Slice(t, []float32{5, 6, 4, 2, 3, 1}, out.AsFloat32(), 0)
}

func TestRollInvertible(t *testing.T) {
	backend := New()

	input := newFloat32(t, tensor.Shape{1, 1, 4, 5}, make([]float32, 20))
	for i := range input.AsFloat32() {
		input.AsFloat32()[i] = float32(i)
	}

	// Shifts exceeding the dimension sizes must wrap correctly.
	shifts := [][2]int{{3, 5}, {-2, 7}, {13, -11}, {0, 0}}
	for _, s := range shifts {
		rolled := backend.Roll(input, []int{s[0], s[1]}, []int{-2, -1})
		back := backend.Roll(rolled, []int{-s[0], -s[1]}, []int{-2, -1})
		assertFloat32Slice(t, input.AsFloat32(), back.AsFloat32(), 0)
	}
}

func TestClampChannels(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{1, 2, 1, 2}, []float32{-5, 0.5, 3, -3})
	lo := []float32{-1, -2}
	hi := []float32{1, 2}

	result := backend.ClampChannels(x, lo, hi)

	if result != x {
		t.Error("ClampChannels should mutate in place and return its input")
	}
	assertFloat32Slice(t, []float32{-1, 0.5, 2, -2}, x.AsFloat32(), 0)
}

func TestClampChannelsIdempotent(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{1, 3, 2, 2}, make([]float32, 12))
	for i := range x.AsFloat32() {
		x.AsFloat32()[i] = float32(i)*3 - 15
	}
	lo := []float32{-2, -1, 0}
	hi := []float32{2, 1, 5}

	backend.ClampChannels(x, lo, hi)
	once := append([]float32(nil), x.AsFloat32()...)

	backend.ClampChannels(x, lo, hi)
	assertFloat32Slice(t, once, x.AsFloat32(), 0)
}

func TestTranspose2D(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out := backend.Transpose(x)

	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("unexpected output shape %v", out.Shape())
	}
	assertFloat32Slice(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32(), 0)
}

func TestTransposeHWCtoCHW(t *testing.T) {
	backend := New()

	// [2, 2, 3] channel-last to [3, 2, 2] channel-first and back.
	x := newFloat32(t, tensor.Shape{2, 2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		10, 11, 12,
	})

	chw := backend.Transpose(x, 2, 0, 1)
	if !chw.Shape().Equal(tensor.Shape{3, 2, 2}) {
		t.Fatalf("unexpected CHW shape %v", chw.Shape())
	}
	assertFloat32Slice(t, []float32{1, 4, 7, 10, 2, 5, 8, 11, 3, 6, 9, 12}, chw.AsFloat32(), 0)

	hwc := backend.Transpose(chw, 1, 2, 0)
	assertFloat32Slice(t, x.AsFloat32(), hwc.AsFloat32(), 0)
}

func TestShapeViews(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3, 4}, make([]float32, 12))

	batched := backend.Unsqueeze(x, 0)
	if !batched.Shape().Equal(tensor.Shape{1, 3, 4}) {
		t.Errorf("unsqueeze shape %v", batched.Shape())
	}

	squeezed := backend.Squeeze(batched, 0)
	if !squeezed.Shape().Equal(tensor.Shape{3, 4}) {
		t.Errorf("squeeze shape %v", squeezed.Shape())
	}

	flat := backend.Reshape(x, tensor.Shape{12})
	if !flat.Shape().Equal(tensor.Shape{12}) {
		t.Errorf("reshape shape %v", flat.Shape())
	}
}

func TestSum(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out := backend.Sum(x)

	if len(out.Shape()) != 0 {
		t.Fatalf("expected scalar shape, got %v", out.Shape())
	}
	if got := out.AsFloat32()[0]; got != 21 {
		t.Errorf("Sum = %v, want 21", got)
	}
}
