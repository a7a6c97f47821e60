// Package primitives provides the Estimator and Sampler sessions, thin
// wrappers over the built-in runtime programs of the same names.
package primitives

import (
	"context"
	"errors"
	"fmt"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

// ErrLengthMismatch is returned when the supplied circuit and observable
// lists have different lengths.
var ErrLengthMismatch = errors.New("circuit/observable count mismatch")

// DefaultShots is used when options leave the shot count unset.
const DefaultShots = 1024

// ResultMetadata accompanies each value or distribution in a primitive
// result.
type ResultMetadata struct {
	Variance float64 `json:"variance"`
	Shots    int     `json:"shots"`
}

// EstimatorResult carries one expectation value per submitted
// circuit/observable pair.
type EstimatorResult struct {
	Values   []float64        `json:"values"`
	Metadata []ResultMetadata `json:"metadata"`
}

// EstimatorOptions tunes an estimator session.
type EstimatorOptions struct {
	// Shots per circuit execution; DefaultShots when zero.
	Shots int
	// Resilience selects the mitigation level applied service-side
	// (0 none, 1 readout mitigation).
	Resilience int
}

// EstimatorParams is the input payload of the built-in estimator program.
type EstimatorParams struct {
	Circuits        []quantum.Circuit    `json:"circuits"`
	Observables     []quantum.Observable `json:"observables"`
	ParameterValues [][]float64          `json:"parameter_values,omitempty"`
	Shots           int                  `json:"shots"`
	Resilience      int                  `json:"resilience_level"`
}

// Estimator estimates expectation values of observables over circuits on
// one backend.
type Estimator struct {
	service *runtime.Service
	backend string
	options EstimatorOptions
}

func NewEstimator(service *runtime.Service, backend string, options EstimatorOptions) *Estimator {
	if options.Shots == 0 {
		options.Shots = DefaultShots
	}
	return &Estimator{service: service, backend: backend, options: options}
}

// Run submits circuit/observable pairs and blocks until the expectation
// values are available. parameterValues may be nil when no circuit has
// free parameters; otherwise it must hold one row per circuit.
func (e *Estimator) Run(ctx context.Context, circuits []quantum.Circuit, observables []quantum.Observable, parameterValues [][]float64) (*EstimatorResult, error) {
	if len(circuits) != len(observables) {
		return nil, fmt.Errorf("%w: %d circuits, %d observables",
			ErrLengthMismatch, len(circuits), len(observables))
	}
	if len(circuits) == 0 {
		return nil, fmt.Errorf("no circuits supplied")
	}
	if parameterValues != nil && len(parameterValues) != len(circuits) {
		return nil, fmt.Errorf("got %d parameter value rows for %d circuits",
			len(parameterValues), len(circuits))
	}

	for i := range circuits {
		if err := circuits[i].Validate(); err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
		if err := observables[i].Validate(); err != nil {
			return nil, fmt.Errorf("observable %d: %w", i, err)
		}
		if observables[i].NumQubits != circuits[i].NumQubits {
			return nil, fmt.Errorf("observable %d is %d qubits, circuit %d is %d",
				i, observables[i].NumQubits, i, circuits[i].NumQubits)
		}
		values := []float64(nil)
		if parameterValues != nil {
			values = parameterValues[i]
		}
		if _, err := circuits[i].Bind(values); err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
	}

	job, err := e.service.Run(ctx, "estimator", runtime.RunOptions{
		Backend: e.backend,
		Inputs: EstimatorParams{
			Circuits:        circuits,
			Observables:     observables,
			ParameterValues: parameterValues,
			Shots:           e.options.Shots,
			Resilience:      e.options.Resilience,
		},
	})
	if err != nil {
		return nil, err
	}

	var result EstimatorResult
	if err := job.ResultInto(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close exists for session symmetry; the estimator holds no remote state.
func (e *Estimator) Close() error { return nil }
