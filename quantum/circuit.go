package quantum

import "fmt"

// Circuit is a parameterized quantum circuit carried as OPENQASM source.
// The runtime service compiles and executes it; the client only validates
// shape and binds parameter values.
type Circuit struct {
	Name       string   `json:"name"`
	QASM       string   `json:"qasm"`
	NumQubits  int      `json:"num_qubits"`
	Parameters []string `json:"parameters,omitempty"`
}

func (c *Circuit) Validate() error {
	if c.QASM == "" {
		return fmt.Errorf("circuit %q has no source", c.Name)
	}
	if c.NumQubits < 1 {
		return fmt.Errorf("circuit %q has invalid qubit count %d", c.Name, c.NumQubits)
	}
	seen := make(map[string]bool, len(c.Parameters))
	for _, p := range c.Parameters {
		if p == "" {
			return fmt.Errorf("circuit %q has an unnamed parameter", c.Name)
		}
		if seen[p] {
			return fmt.Errorf("circuit %q declares parameter %q twice", c.Name, p)
		}
		seen[p] = true
	}
	return nil
}

// Bind pairs parameter values with the circuit's free parameters in
// declaration order. It does not substitute into the QASM text; binding
// happens service-side.
func (c *Circuit) Bind(values []float64) (map[string]float64, error) {
	if len(values) != len(c.Parameters) {
		return nil, fmt.Errorf("circuit %q expects %d parameter values, got %d",
			c.Name, len(c.Parameters), len(values))
	}
	bound := make(map[string]float64, len(values))
	for i, p := range c.Parameters {
		bound[p] = values[i]
	}
	return bound, nil
}
