package autodiff

import (
	"github.com/reverie-ml/reverie/internal/autodiff/ops"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// GradientTape records operations during the forward pass and replays them
// in reverse to compute gradients.
//
// The tape identifies tensors by RawTensor pointer. The Backward result maps
// every tensor that participated in the recorded graph to its accumulated
// gradient; callers look up the tensors they care about (the image being
// optimized) and ignore the rest.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a tape that starts recording immediately.
func NewGradientTape() *GradientTape {
	return &GradientTape{recording: true}
}

// StartRecording resumes recording operations.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording pauses recording. Forward passes still execute, they just
// leave no trace on the tape.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are being recorded.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation to the tape.
func (t *GradientTape) Record(op ops.Operation) {
	t.operations = append(t.operations, op)
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int { return len(t.operations) }

// Clear drops all recorded operations. Call between ascent steps so each
// step differentiates only its own forward pass.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward runs reverse-mode differentiation from the last recorded
// operation, seeding its output with outputGrad, and returns the gradient of
// every tensor reached by the chain rule.
//
// Recording is suspended for the duration so the backward computations do
// not append to the tape they are replaying.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	last := t.operations[len(t.operations)-1]
	grads[last.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		outGrad, ok := grads[op.Output()]
		if !ok {
			// Output not on any path to the seed; nothing to propagate.
			continue
		}

		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			grad := inputGrads[j]
			if grad == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, grad)
			} else {
				grads[input] = grad
			}
		}
	}

	return grads
}
