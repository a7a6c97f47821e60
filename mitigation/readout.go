package mitigation

import (
	"fmt"
	"sort"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
)

// ApplyReadoutCorrection reweights a measured distribution by a per-outcome
// confusion matrix. Row i of the matrix gives, for prepared outcome i, the
// probability of reading each outcome; outcomes are indexed by sorting the
// distribution's bitstrings lexicographically. The correction divides each
// outcome's mass by its diagonal confusion entry and subtracts the leakage
// attributed to the other outcomes, so the result is a quasi-distribution
// that may carry negative entries. Chain with NearestProbability to recover
// a true distribution.
func ApplyReadoutCorrection(dist quantum.QuasiDistribution, confusion [][]float64) (quantum.QuasiDistribution, error) {
	n := len(dist)
	if len(confusion) != n {
		return nil, fmt.Errorf("confusion matrix has %d rows for %d outcomes", len(confusion), n)
	}

	bits := sortedKeys(dist)
	for i, row := range confusion {
		if len(row) != n {
			return nil, fmt.Errorf("confusion matrix row %d has %d columns, want %d", i, len(row), n)
		}
		if row[i] == 0 {
			return nil, fmt.Errorf("confusion matrix has zero diagonal for outcome %q", bits[i])
		}
	}

	out := make(quantum.QuasiDistribution, n)
	for i, b := range bits {
		corrected := dist[b]
		for j, other := range bits {
			if j == i {
				continue
			}
			// Mass read as outcome i but prepared as outcome j.
			corrected -= confusion[j][i] * dist[other]
		}
		out[b] = corrected / confusion[i][i]
	}
	return out, nil
}

func sortedKeys(dist quantum.QuasiDistribution) []string {
	keys := make([]string, 0, len(dist))
	for b := range dist {
		keys = append(keys, b)
	}
	sort.Strings(keys)
	return keys
}
