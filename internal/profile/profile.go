// Package profile maps model identifiers to the normalization statistics and
// target resize dimension their feature extractors were trained with.
//
// The registry is fixed at process start and read-only afterwards, so lookups
// are safe from any goroutine.
package profile

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is returned when a model identifier has no registered profile.
var ErrUnknown = errors.New("profile: unknown model identifier")

// Profile holds per-channel RGB normalization statistics and the resize
// target applied when loading source images.
type Profile struct {
	Mean       [3]float32
	Std        [3]float32
	TargetSize int
}

// ClampBounds returns the normalized-space images of pixel values 0 and 1:
// lo[c] = -mean[c]/std[c], hi[c] = (1-mean[c])/std[c]. A tensor clamped into
// these bounds always denormalizes into displayable [0,1] pixels.
func (p Profile) ClampBounds() (lo, hi [3]float32) {
	for c := 0; c < 3; c++ {
		lo[c] = -p.Mean[c] / p.Std[c]
		hi[c] = (1 - p.Mean[c]) / p.Std[c]
	}
	return lo, hi
}

// registry is populated once and never mutated after init.
var registry = map[string]Profile{
	"vgg19": {
		Mean:       [3]float32{0.485, 0.456, 0.406},
		Std:        [3]float32{0.229, 0.224, 0.225},
		TargetSize: 600,
	},
}

// Resolve returns the profile registered for modelID.
// Returns ErrUnknown when no profile exists for the identifier.
func Resolve(modelID string) (Profile, error) {
	p, ok := registry[modelID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknown, modelID)
	}
	return p, nil
}

// Names returns the registered model identifiers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
