package quantum

import (
	"fmt"
	"strings"
)

// PauliTerm is a weighted Pauli string, e.g. 1.5 * "ZIZ".
type PauliTerm struct {
	Label       string  `json:"label"`
	Coefficient float64 `json:"coefficient"`
}

// Observable is a weighted sum of Pauli terms over a fixed register width.
type Observable struct {
	NumQubits int         `json:"num_qubits"`
	Terms     []PauliTerm `json:"terms"`
}

func NewObservable(numQubits int) *Observable {
	return &Observable{NumQubits: numQubits}
}

// Add appends a term and returns the observable for chaining.
func (o *Observable) Add(label string, coefficient float64) *Observable {
	o.Terms = append(o.Terms, PauliTerm{Label: label, Coefficient: coefficient})
	return o
}

func (o *Observable) Validate() error {
	if o.NumQubits < 1 {
		return fmt.Errorf("observable has invalid qubit count %d", o.NumQubits)
	}
	if len(o.Terms) == 0 {
		return fmt.Errorf("observable has no terms")
	}
	for _, t := range o.Terms {
		if len(t.Label) != o.NumQubits {
			return fmt.Errorf("term %q has width %d, observable is %d qubits",
				t.Label, len(t.Label), o.NumQubits)
		}
		if i := strings.IndexFunc(t.Label, func(r rune) bool {
			return r != 'I' && r != 'X' && r != 'Y' && r != 'Z'
		}); i >= 0 {
			return fmt.Errorf("term %q has invalid Pauli %q at position %d",
				t.Label, t.Label[i], i)
		}
	}
	return nil
}

// Diagonal evaluates the Z-diagonal part of the observable on a bitstring:
// each Z flips the sign on a set bit, X and Y terms contribute nothing.
// Bitstring index 0 is the leftmost character, matching the term labels.
func (o *Observable) Diagonal(bitstring string) float64 {
	var total float64
	for _, t := range o.Terms {
		if strings.ContainsAny(t.Label, "XY") {
			continue
		}
		sign := 1.0
		for i := 0; i < len(t.Label) && i < len(bitstring); i++ {
			if t.Label[i] == 'Z' && bitstring[i] == '1' {
				sign = -sign
			}
		}
		total += t.Coefficient * sign
	}
	return total
}
