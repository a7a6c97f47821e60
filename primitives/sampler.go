package primitives

import (
	"context"
	"fmt"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

// SamplerResult carries one quasi-distribution per submitted circuit.
type SamplerResult struct {
	QuasiDists []quantum.QuasiDistribution `json:"quasi_dists"`
	Metadata   []ResultMetadata            `json:"metadata"`
}

// SamplerOptions tunes a sampler session.
type SamplerOptions struct {
	Shots      int
	Resilience int
}

// SamplerParams is the input payload of the built-in sampler program.
type SamplerParams struct {
	Circuits        []quantum.Circuit `json:"circuits"`
	ParameterValues [][]float64       `json:"parameter_values,omitempty"`
	Shots           int               `json:"shots"`
	Resilience      int               `json:"resilience_level"`
}

// Sampler samples output distributions of circuits on one backend.
type Sampler struct {
	service *runtime.Service
	backend string
	options SamplerOptions
}

func NewSampler(service *runtime.Service, backend string, options SamplerOptions) *Sampler {
	if options.Shots == 0 {
		options.Shots = DefaultShots
	}
	return &Sampler{service: service, backend: backend, options: options}
}

// Run submits circuits and blocks until their distributions are available.
func (s *Sampler) Run(ctx context.Context, circuits []quantum.Circuit, parameterValues [][]float64) (*SamplerResult, error) {
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
		values := []float64(nil)
		if parameterValues != nil {
			values = parameterValues[i]
		}
		if _, err := circuits[i].Bind(values); err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
	}

	job, err := s.service.Run(ctx, "sampler", runtime.RunOptions{
		Backend: s.backend,
		Inputs: SamplerParams{
			Circuits:        circuits,
			ParameterValues: parameterValues,
			Shots:           s.options.Shots,
			Resilience:      s.options.Resilience,
		},
	})
	if err != nil {
		return nil, err
	}

	var result SamplerResult
	if err := job.ResultInto(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close exists for session symmetry; the sampler holds no remote state.
func (s *Sampler) Close() error { return nil }
