// Package mitigation provides measurement-error mitigation helpers applied
// to distributions returned by the runtime service.
package mitigation

import (
	"sort"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
)

// Median returns the median of values; an even count averages the middle
// pair. A zero-length input returns 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// HeavyProjector keeps only the heavy outputs of a distribution: entries
// whose probability is strictly above the median. The returned distribution
// is renormalized; the second return is the heavy-output probability, the
// total mass above the median before renormalizing.
//
// An empty distribution yields an empty result, and a flat distribution
// (every entry equal to the median) keeps nothing.
func HeavyProjector(dist quantum.QuasiDistribution) (quantum.QuasiDistribution, float64) {
	if len(dist) == 0 {
		return quantum.QuasiDistribution{}, 0
	}

	probs := make([]float64, 0, len(dist))
	for _, p := range dist {
		probs = append(probs, p)
	}
	threshold := Median(probs)

	heavy := make(quantum.QuasiDistribution)
	var mass float64
	for bits, p := range dist {
		if p > threshold {
			heavy[bits] = p
			mass += p
		}
	}
	return heavy.Normalize(), mass
}
