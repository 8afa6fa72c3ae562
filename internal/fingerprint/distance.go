package fingerprint

import (
	"math"
)

// Distance is the symmetric chi-square divergence between two finalized
// descriptors: 0.5 * sum((a-b)^2 / (a+b)) over bins where a+b is non-zero.
// For normalized inputs the result lies in [0, 1].
func Distance(a, b *Descriptor) float64 {
	var sum float64
	for i := range a.bins {
		den := a.bins[i] + b.bins[i]
		if den == 0 {
			continue
		}
		diff := a.bins[i] - b.bins[i]
		sum += diff * diff / den
	}
	return 0.5 * sum
}

// Nearest returns the index of the closest prototype and its distance. Ties
// keep the earliest prototype.
func Nearest(query *Descriptor, prototypes []Descriptor) (int, float64, error) {
	if len(prototypes) == 0 {
		return -1, math.Inf(1), ErrEmptyPrototypeSet
	}

	best, bestDist := -1, math.Inf(1)
	for i := range prototypes {
		if dist := Distance(query, &prototypes[i]); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, bestDist, nil
}

// NearestDistance returns the minimum distance from query to any prototype.
func NearestDistance(query *Descriptor, prototypes []Descriptor) (float64, error) {
	_, dist, err := Nearest(query, prototypes)
	return dist, err
}
