package autodiff

import (
	"math"
	"testing"

	"github.com/reverie-ml/reverie/internal/backend/cpu"
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

func scalarSeed(t *testing.T, v float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	raw.AsFloat32()[0] = v
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

func TestSumOfSquaresBackward(t *testing.T) {
	backend := New(cpu.New())

	// d/dx sum(x*x) = 2x.
	x := newFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
	prod := backend.Mul(x, x)
	backend.Sum(prod)

	grads := backend.Tape().Backward(scalarSeed(t, 1), backend.Inner())

	grad, ok := grads[x]
	if !ok {
		t.Fatal("no gradient for x")
	}
	assertFloat32Slice(t, []float32{2, 4, 6}, grad.AsFloat32(), 1e-6)
}

func TestBroadcastGradientReduction(t *testing.T) {
	backend := New(cpu.New())

	// Subtracting [1, 2, 1, 1] stats from a [1, 2, 2, 2] image must reduce
	// the stat gradient back to the stat shape.
	img := newFloat32(t, tensor.Shape{1, 2, 2, 2},
		[]float32{1, 2, 3, 4, 5, 6, 7, 8})
	mean := newFloat32(t, tensor.Shape{1, 2, 1, 1}, []float32{1, 2})

	diff := backend.Sub(img, mean)
	backend.Sum(diff)

	grads := backend.Tape().Backward(scalarSeed(t, 1), backend.Inner())

	imgGrad, ok := grads[img]
	if !ok {
		t.Fatal("no gradient for image")
	}
	assertFloat32Slice(t, []float32{1, 1, 1, 1, 1, 1, 1, 1}, imgGrad.AsFloat32(), 1e-6)

	meanGrad, ok := grads[mean]
	if !ok {
		t.Fatal("no gradient for mean")
	}
	if !meanGrad.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Fatalf("mean gradient shape %v, want [1 2 1 1]", meanGrad.Shape())
	}
	// Each channel stat feeds 4 spatial positions through a negation.
	assertFloat32Slice(t, []float32{-4, -4}, meanGrad.AsFloat32(), 1e-6)
}

func TestScalarOpsBackward(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})
	y := backend.MulScalar(x, float32(3))
	backend.Sum(y)

	grads := backend.Tape().Backward(scalarSeed(t, 1), backend.Inner())
	assertFloat32Slice(t, []float32{3, 3}, grads[x].AsFloat32(), 1e-6)

	backend.Tape().Clear()
	y = backend.DivScalar(x, float32(2))
	backend.Sum(y)

	grads = backend.Tape().Backward(scalarSeed(t, 1), backend.Inner())
	assertFloat32Slice(t, []float32{0.5, 0.5}, grads[x].AsFloat32(), 1e-6)
}

func TestRollBackwardIsInverseRoll(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	rolled := backend.Roll(x, []int{1, 2}, []int{0, 1})

	seed := newFloat32(t, tensor.Shape{2, 3}, []float32{10, 20, 30, 40, 50, 60})
	grads := backend.Tape().Backward(seed, backend.Inner())

	grad, ok := grads[x]
	if !ok {
		t.Fatal("no gradient for x")
	}
	// The gradient of a circular shift is the opposite shift.
	want := backend.Inner().Roll(seed, []int{-1, -2}, []int{0, 1})
	assertFloat32Slice(t, want.AsFloat32(), grad.AsFloat32(), 0)
	_ = rolled
}

func TestTransposeBackward(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	backend.Transpose(x)

	seed := newFloat32(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	grads := backend.Tape().Backward(seed, backend.Inner())

	want := backend.Inner().Transpose(seed)
	assertFloat32Slice(t, want.AsFloat32(), grads[x].AsFloat32(), 0)
}

func TestReshapeBackward(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	backend.Reshape(x, tensor.Shape{6})

	seed := newFloat32(t, tensor.Shape{6}, []float32{1, 2, 3, 4, 5, 6})
	grads := backend.Tape().Backward(seed, backend.Inner())

	grad := grads[x]
	if !grad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("gradient shape %v, want [2 3]", grad.Shape())
	}
	assertFloat32Slice(t, seed.AsFloat32(), grad.AsFloat32(), 0)
}

func TestConv2DInputGradient(t *testing.T) {
	backend := New(cpu.New())

	// 3x3 valid convolution to a single output: the input gradient is the
	// kernel scaled by the seed.
	x := newFloat32(t, tensor.Shape{1, 1, 3, 3}, make([]float32, 9))
	kernel := newFloat32(t, tensor.Shape{1, 1, 3, 3},
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})

	backend.Conv2D(x, kernel, 1, 0, 1)

	seed := newFloat32(t, tensor.Shape{1, 1, 1, 1}, []float32{2})
	grads := backend.Tape().Backward(seed, backend.Inner())

	grad, ok := grads[x]
	if !ok {
		t.Fatal("no gradient for input")
	}
	assertFloat32Slice(t, []float32{2, 4, 6, 8, 10, 12, 14, 16, 18}, grad.AsFloat32(), 1e-6)

	if _, ok := grads[kernel]; ok {
		t.Error("kernel should not receive a gradient")
	}
}

func TestConv2DDepthwiseGradient(t *testing.T) {
	backend := New(cpu.New())

	// Two-channel depthwise 1x1 kernels route each channel's gradient
	// through its own filter.
	x := newFloat32(t, tensor.Shape{1, 2, 2, 2}, make([]float32, 8))
	kernel := newFloat32(t, tensor.Shape{2, 1, 1, 1}, []float32{2, 5})

	backend.Conv2D(x, kernel, 1, 0, 2)

	seed := newFloat32(t, tensor.Shape{1, 2, 2, 2},
		[]float32{1, 1, 1, 1, 1, 1, 1, 1})
	grads := backend.Tape().Backward(seed, backend.Inner())

	assertFloat32Slice(t, []float32{2, 2, 2, 2, 5, 5, 5, 5}, grads[x].AsFloat32(), 1e-6)
}

func TestPadReflectBackward(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{1, 1, 3, 3}, make([]float32, 9))
	backend.PadReflect(x, 1)

	seed := newFloat32(t, tensor.Shape{1, 1, 5, 5}, make([]float32, 25))
	for i := range seed.AsFloat32() {
		seed.AsFloat32()[i] = 1
	}
	grads := backend.Tape().Backward(seed, backend.Inner())

	grad := grads[x]
	if !grad.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("gradient shape %v, want [1 1 3 3]", grad.Shape())
	}

	// Each padded cell scatters onto its mirror source. Rows -1, 1 and 3 all
	// mirror to row 1, so the center collects 3x3 cells.
	want := []float32{
		1, 3, 1,
		3, 9, 3,
		1, 3, 1,
	}
	assertFloat32Slice(t, want, grad.AsFloat32(), 0)
}

func TestClampChannelsNotRecorded(t *testing.T) {
	backend := New(cpu.New())

	x := newFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{-5, 0, 5, 10})
	backend.ClampChannels(x, []float32{-1}, []float32{1})

	if backend.Tape().NumOps() != 0 {
		t.Errorf("tape has %d ops, want 0", backend.Tape().NumOps())
	}
	assertFloat32Slice(t, []float32{-1, 0, 1, 1}, x.AsFloat32(), 0)
}

func TestTapeRecordingControl(t *testing.T) {
	backend := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})

	backend.Tape().StopRecording()
	backend.Add(x, x)
	if backend.Tape().NumOps() != 0 {
		t.Error("operation recorded while tape was stopped")
	}

	backend.Tape().StartRecording()
	backend.Add(x, x)
	if backend.Tape().NumOps() != 1 {
		t.Errorf("tape has %d ops, want 1", backend.Tape().NumOps())
	}

	backend.Tape().Clear()
	if backend.Tape().NumOps() != 0 {
		t.Error("Clear should drop all recorded operations")
	}
}

func TestBackwardRestoresRecording(t *testing.T) {
	backend := New(cpu.New())
	x := newFloat32(t, tensor.Shape{2}, []float32{1, 2})

	backend.Sum(x)
	backend.Tape().Backward(scalarSeed(t, 1), backend.Inner())

	if !backend.Tape().IsRecording() {
		t.Error("tape should resume recording after Backward")
	}
	// Backward itself must not have grown the tape.
	if backend.Tape().NumOps() != 1 {
		t.Errorf("tape has %d ops, want 1", backend.Tape().NumOps())
	}
}
