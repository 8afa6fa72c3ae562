package dictionary

import (
	"fmt"
	"math"

	"chroma-reco/internal/fingerprint"
)

// Outcome reports what MaybeAdd decided and the nearest distance it saw.
type Outcome struct {
	Added       bool
	MinDistance float64
}

// MaybeAdd appends candidate to prototypes when it lies strictly farther than
// threshold from every existing prototype. An empty set always accepts.
// The result depends on the order candidates are presented.
func MaybeAdd(candidate fingerprint.Descriptor, prototypes []fingerprint.Descriptor, threshold float64) (Outcome, []fingerprint.Descriptor) {
	if len(prototypes) == 0 {
		return Outcome{Added: true, MinDistance: math.Inf(1)}, append(prototypes, candidate)
	}

	// Non-empty, so the search cannot fail.
	dist, _ := fingerprint.NearestDistance(&candidate, prototypes)
	if dist > threshold {
		return Outcome{Added: true, MinDistance: dist}, append(prototypes, candidate)
	}
	return Outcome{Added: false, MinDistance: dist}, prototypes
}

// ThresholdFromPercent maps a 0..100 slider position onto [0, 1].
func ThresholdFromPercent(percent int) float64 {
	percent = max(0, min(percent, 100))
	return float64(percent) / 100
}

// ValidateThreshold rejects thresholds outside [0, 1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return nil
}
