package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
	"github.com/SooluThomas/qiskit-ibm-runtime/mitigation"
	"github.com/SooluThomas/qiskit-ibm-runtime/primitives"
	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
)

// Runner executes program payloads against the fake measurement model.
type Runner struct {
	seed  int64
	noise float64
}

func NewRunner(seed int64, noise float64) *Runner {
	return &Runner{seed: seed, noise: noise}
}

// Run dispatches on program ID: the built-in estimator and sampler are
// interpreted; uploaded programs fall through to the echo executor.
func (r *Runner) Run(ctx context.Context, programID string, backend api.Backend, params json.RawMessage) (json.RawMessage, error) {
	switch programID {
	case "estimator":
		return r.runEstimator(ctx, backend, params)
	case "sampler":
		return r.runSampler(ctx, backend, params)
	default:
		return r.runEcho(ctx, params)
	}
}

func (r *Runner) backendNoise(backend api.Backend) float64 {
	if backend.Simulator {
		return 0
	}
	return r.noise
}

// sampleDistribution measures one circuit and optionally applies
// readout-error mitigation, which yields a quasi-distribution projected
// back onto the probability simplex.
func (r *Runner) sampleDistribution(backend api.Backend, circ *quantum.Circuit, values []float64, shots, resilience int) (quantum.QuasiDistribution, error) {
	noise := r.backendNoise(backend)
	counts := measure(r.seed, circ, values, shots, noise)
	dist := quantum.FromCounts(counts)

	if resilience >= 1 && noise > 0 {
		corrected, err := mitigation.ApplyReadoutCorrection(dist, confusionMatrix(len(dist), noise))
		if err != nil {
			return nil, fmt.Errorf("readout correction: %w", err)
		}
		dist = corrected.NearestProbability()
	}
	return dist, nil
}

func (r *Runner) runEstimator(ctx context.Context, backend api.Backend, raw json.RawMessage) (json.RawMessage, error) {
	var params primitives.EstimatorParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid estimator inputs: %w", err)
	}
	if len(params.Circuits) != len(params.Observables) {
		return nil, fmt.Errorf("estimator inputs have %d circuits and %d observables",
			len(params.Circuits), len(params.Observables))
	}
	if params.ParameterValues != nil && len(params.ParameterValues) != len(params.Circuits) {
		return nil, fmt.Errorf("estimator inputs have %d parameter value rows for %d circuits",
			len(params.ParameterValues), len(params.Circuits))
	}
	shots := params.Shots
	if shots <= 0 {
		shots = primitives.DefaultShots
	}

	result := primitives.EstimatorResult{
		Values:   make([]float64, len(params.Circuits)),
		Metadata: make([]primitives.ResultMetadata, len(params.Circuits)),
	}
	for i := range params.Circuits {
		// Wide batches stay cancellable between circuits.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := []float64(nil)
		if params.ParameterValues != nil {
			values = params.ParameterValues[i]
		}
		dist, err := r.sampleDistribution(backend, &params.Circuits[i], values, shots, params.Resilience)
		if err != nil {
			return nil, err
		}

		obs := &params.Observables[i]
		value := dist.ExpectationValue(obs.Diagonal)
		second := dist.ExpectationValue(func(bits string) float64 {
			d := obs.Diagonal(bits)
			return d * d
		})
		variance := second - value*value
		if variance < 0 {
			variance = 0
		}
		result.Values[i] = value
		result.Metadata[i] = primitives.ResultMetadata{Variance: variance, Shots: shots}
	}
	return json.Marshal(result)
}

func (r *Runner) runSampler(ctx context.Context, backend api.Backend, raw json.RawMessage) (json.RawMessage, error) {
	var params primitives.SamplerParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid sampler inputs: %w", err)
	}
	if params.ParameterValues != nil && len(params.ParameterValues) != len(params.Circuits) {
		return nil, fmt.Errorf("sampler inputs have %d parameter value rows for %d circuits",
			len(params.ParameterValues), len(params.Circuits))
	}
	shots := params.Shots
	if shots <= 0 {
		shots = primitives.DefaultShots
	}

	result := primitives.SamplerResult{
		QuasiDists: make([]quantum.QuasiDistribution, len(params.Circuits)),
		Metadata:   make([]primitives.ResultMetadata, len(params.Circuits)),
	}
	for i := range params.Circuits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := []float64(nil)
		if params.ParameterValues != nil {
			values = params.ParameterValues[i]
		}
		dist, err := r.sampleDistribution(backend, &params.Circuits[i], values, shots, params.Resilience)
		if err != nil {
			return nil, err
		}
		result.QuasiDists[i] = dist
		result.Metadata[i] = primitives.ResultMetadata{Shots: shots}
	}
	return json.Marshal(result)
}

// runEcho is the executor for uploaded programs: it honours an optional
// delay_ms input so tests can exercise cancellation and time limits, then
// returns the inputs untouched.
func (r *Runner) runEcho(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var params struct {
		DelayMS int `json:"delay_ms"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &params)
	}
	if params.DelayMS > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(params.DelayMS) * time.Millisecond):
		}
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`null`)
	}
	return json.Marshal(map[string]json.RawMessage{"echo": raw})
}
