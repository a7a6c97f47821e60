package quantum

import "sort"

// QuasiDistribution maps measured bitstrings to quasi-probabilities.
// Entries may be negative after error mitigation; use NearestProbability
// to recover a true distribution.
type QuasiDistribution map[string]float64

// FromCounts converts raw shot counts into a probability distribution.
func FromCounts(counts map[string]int) QuasiDistribution {
	total := 0
	for _, c := range counts {
		total += c
	}
	dist := make(QuasiDistribution, len(counts))
	if total == 0 {
		return dist
	}
	for bits, c := range counts {
		dist[bits] = float64(c) / float64(total)
	}
	return dist
}

func (d QuasiDistribution) Sum() float64 {
	var sum float64
	for _, p := range d {
		sum += p
	}
	return sum
}

// Normalize rescales the distribution to unit mass in place and returns it.
// A zero-mass distribution is left untouched.
func (d QuasiDistribution) Normalize() QuasiDistribution {
	sum := d.Sum()
	if sum == 0 {
		return d
	}
	for bits := range d {
		d[bits] /= sum
	}
	return d
}

// NearestProbability projects the quasi-distribution onto the closest true
// probability distribution: walk entries in ascending order, clip any whose
// value cannot survive the accumulated negative mass, and spread that mass
// evenly over the survivors.
func (d QuasiDistribution) NearestProbability() QuasiDistribution {
	n := len(d)
	if n == 0 {
		return QuasiDistribution{}
	}

	type entry struct {
		bits string
		prob float64
	}
	sorted := make([]entry, 0, n)
	// Spread any missing mass evenly so the input sums to 1.
	shift := (1.0 - d.Sum()) / float64(n)
	for bits, p := range d {
		sorted = append(sorted, entry{bits, p + shift})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].prob < sorted[j].prob })

	deficit := 0.0
	kept := 0
	for i, e := range sorted {
		if e.prob+deficit/float64(n-i) < 0 {
			deficit += e.prob
			continue
		}
		kept = i
		break
	}

	out := make(QuasiDistribution, n-kept)
	for _, e := range sorted[kept:] {
		out[e.bits] = e.prob + deficit/float64(n-kept)
	}
	return out
}

// ExpectationValue averages a diagonal observable over the distribution.
func (d QuasiDistribution) ExpectationValue(diagonal func(bitstring string) float64) float64 {
	var value float64
	for bits, p := range d {
		value += p * diagonal(bits)
	}
	return value
}
