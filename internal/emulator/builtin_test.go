package emulator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
	"github.com/SooluThomas/qiskit-ibm-runtime/primitives"
	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
)

var (
	simBackend   = api.Backend{Name: "sim", NumQubits: 32, Simulator: true, Operational: true}
	noisyBackend = api.Backend{Name: "dev", NumQubits: 5, Simulator: false, Operational: true}
)

func runEstimator(t *testing.T, r *Runner, backend api.Backend, params primitives.EstimatorParams) primitives.EstimatorResult {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), "estimator", backend, raw)
	require.NoError(t, err)
	var result primitives.EstimatorResult
	require.NoError(t, json.Unmarshal(out, &result))
	return result
}

func TestRunner_Estimator(t *testing.T) {
	r := NewRunner(42, 0.05)
	params := primitives.EstimatorParams{
		Circuits:    []quantum.Circuit{{Name: "bell", QASM: "OPENQASM 2.0;", NumQubits: 2}},
		Observables: []quantum.Observable{*quantum.NewObservable(2).Add("ZZ", 1.0)},
		Shots:       2048,
	}
	result := runEstimator(t, r, simBackend, params)

	require.Len(t, result.Values, 1)
	require.Len(t, result.Metadata, 1)
	// A single ZZ term is bounded by its coefficient.
	assert.LessOrEqual(t, result.Values[0], 1.0)
	assert.GreaterOrEqual(t, result.Values[0], -1.0)
	assert.GreaterOrEqual(t, result.Metadata[0].Variance, 0.0)
	assert.Equal(t, 2048, result.Metadata[0].Shots)

	// Same submission, same value.
	again := runEstimator(t, r, simBackend, params)
	assert.Equal(t, result.Values[0], again.Values[0])
}

func TestRunner_Estimator_DefaultShots(t *testing.T) {
	r := NewRunner(42, 0)
	params := primitives.EstimatorParams{
		Circuits:    []quantum.Circuit{{Name: "c", QASM: "OPENQASM 2.0;", NumQubits: 1}},
		Observables: []quantum.Observable{*quantum.NewObservable(1).Add("Z", 1.0)},
	}
	result := runEstimator(t, r, simBackend, params)
	assert.Equal(t, primitives.DefaultShots, result.Metadata[0].Shots)
}

func TestRunner_Estimator_CountMismatch(t *testing.T) {
	r := NewRunner(42, 0)
	raw, _ := json.Marshal(primitives.EstimatorParams{
		Circuits:    []quantum.Circuit{{Name: "c", QASM: "x", NumQubits: 1}},
		Observables: nil,
	})
	_, err := r.Run(context.Background(), "estimator", simBackend, raw)
	assert.Error(t, err)
}

func TestRunner_Estimator_BadPayload(t *testing.T) {
	r := NewRunner(42, 0)
	_, err := r.Run(context.Background(), "estimator", simBackend, json.RawMessage(`"nope"`))
	assert.Error(t, err)
}

func TestRunner_Sampler(t *testing.T) {
	r := NewRunner(42, 0.05)
	raw, err := json.Marshal(primitives.SamplerParams{
		Circuits: []quantum.Circuit{{Name: "bell", QASM: "OPENQASM 2.0;", NumQubits: 2}},
		Shots:    1024,
	})
	require.NoError(t, err)

	out, err := r.Run(context.Background(), "sampler", simBackend, raw)
	require.NoError(t, err)
	var result primitives.SamplerResult
	require.NoError(t, json.Unmarshal(out, &result))

	require.Len(t, result.QuasiDists, 1)
	assert.InDelta(t, 1.0, result.QuasiDists[0].Sum(), 1e-9)
	assert.Equal(t, 1024, result.Metadata[0].Shots)
}

func TestRunner_Sampler_MitigatedOnNoisyBackend(t *testing.T) {
	r := NewRunner(42, 0.1)
	params := primitives.SamplerParams{
		Circuits:   []quantum.Circuit{{Name: "bell", QASM: "OPENQASM 2.0;", NumQubits: 2}},
		Shots:      4096,
		Resilience: 1,
	}
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	out, err := r.Run(context.Background(), "sampler", noisyBackend, raw)
	require.NoError(t, err)
	var result primitives.SamplerResult
	require.NoError(t, json.Unmarshal(out, &result))

	// Mitigation projects back onto the simplex: valid distribution out.
	dist := result.QuasiDists[0]
	assert.InDelta(t, 1.0, dist.Sum(), 1e-9)
	for _, p := range dist {
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestRunner_BuiltinsHonourCancellation(t *testing.T) {
	r := NewRunner(42, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	estRaw, err := json.Marshal(primitives.EstimatorParams{
		Circuits:    []quantum.Circuit{{Name: "c", QASM: "OPENQASM 2.0;", NumQubits: 1}},
		Observables: []quantum.Observable{*quantum.NewObservable(1).Add("Z", 1.0)},
	})
	require.NoError(t, err)
	_, err = r.Run(ctx, "estimator", simBackend, estRaw)
	assert.ErrorIs(t, err, context.Canceled)

	samplerRaw, err := json.Marshal(primitives.SamplerParams{
		Circuits: []quantum.Circuit{{Name: "c", QASM: "OPENQASM 2.0;", NumQubits: 1}},
	})
	require.NoError(t, err)
	_, err = r.Run(ctx, "sampler", simBackend, samplerRaw)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Echo(t *testing.T) {
	r := NewRunner(42, 0)
	out, err := r.Run(context.Background(), "custom-prog", simBackend, json.RawMessage(`{"x":1}`))
	require.NoError(t, err)

	var echoed struct {
		Echo json.RawMessage `json:"echo"`
	}
	require.NoError(t, json.Unmarshal(out, &echoed))
	assert.JSONEq(t, `{"x":1}`, string(echoed.Echo))
}

func TestRunner_Echo_Cancellation(t *testing.T) {
	r := NewRunner(42, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, "custom-prog", simBackend, json.RawMessage(`{"delay_ms":5000}`))
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("echo program ignored cancellation")
	}
}
