package primitives

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q -> c;`

func bellCircuit() quantum.Circuit {
	return quantum.Circuit{Name: "bell", QASM: bellQASM, NumQubits: 2}
}

func zzObservable() quantum.Observable {
	return *quantum.NewObservable(2).Add("ZZ", 1.0)
}

// fakeService wires a Service to an in-test estimator program that records
// the submitted payload and returns canned values.
func fakeService(t *testing.T, result any, submitted *EstimatorParams) *runtime.Service {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ProgramID string          `json:"program_id"`
			Params    json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "estimator", req.ProgramID)
		if submitted != nil {
			require.NoError(t, json.Unmarshal(req.Params, submitted))
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "QUEUED"})
	})
	mux.HandleFunc("/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "COMPLETED"})
	})
	mux.HandleFunc("/jobs/job-1/results", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(result)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	svc, err := runtime.New(
		runtime.WithAccount(runtime.Account{Token: "t", URL: srv.URL}),
		runtime.WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)
	return svc
}

func TestEstimatorRun_LengthMismatch(t *testing.T) {
	est := NewEstimator(nil, "sim", EstimatorOptions{})

	_, err := est.Run(context.Background(),
		[]quantum.Circuit{bellCircuit(), bellCircuit()},
		[]quantum.Observable{zzObservable()},
		nil)
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "2 circuits")
	assert.Contains(t, err.Error(), "1 observables")
}

func TestEstimatorRun_RejectsBadInputs(t *testing.T) {
	est := NewEstimator(nil, "sim", EstimatorOptions{})
	ctx := context.Background()

	_, err := est.Run(ctx, nil, nil, nil)
	assert.Error(t, err, "no circuits")

	_, err = est.Run(ctx,
		[]quantum.Circuit{bellCircuit()},
		[]quantum.Observable{*quantum.NewObservable(3).Add("ZZZ", 1.0)},
		nil)
	assert.Error(t, err, "qubit count mismatch")

	_, err = est.Run(ctx,
		[]quantum.Circuit{bellCircuit()},
		[]quantum.Observable{zzObservable()},
		[][]float64{{1.0}, {2.0}})
	assert.Error(t, err, "parameter row count mismatch")

	_, err = est.Run(ctx,
		[]quantum.Circuit{bellCircuit()},
		[]quantum.Observable{zzObservable()},
		[][]float64{{1.0}})
	assert.Error(t, err, "values for a parameterless circuit")
}

func TestEstimatorRun(t *testing.T) {
	var submitted EstimatorParams
	svc := fakeService(t, EstimatorResult{
		Values:   []float64{0.97},
		Metadata: []ResultMetadata{{Variance: 0.059, Shots: 2048}},
	}, &submitted)

	est := NewEstimator(svc, "sim", EstimatorOptions{Shots: 2048, Resilience: 1})
	result, err := est.Run(context.Background(),
		[]quantum.Circuit{bellCircuit()},
		[]quantum.Observable{zzObservable()},
		nil)
	require.NoError(t, err)

	require.Len(t, result.Values, 1)
	assert.InDelta(t, 0.97, result.Values[0], 1e-12)
	require.Len(t, result.Metadata, 1)
	assert.InDelta(t, 0.059, result.Metadata[0].Variance, 1e-12)
	assert.Equal(t, 2048, result.Metadata[0].Shots)

	// The session forwarded its options with the payload.
	assert.Equal(t, 2048, submitted.Shots)
	assert.Equal(t, 1, submitted.Resilience)
	require.Len(t, submitted.Circuits, 1)
	assert.Equal(t, "bell", submitted.Circuits[0].Name)
}

func TestEstimatorDefaults(t *testing.T) {
	est := NewEstimator(nil, "sim", EstimatorOptions{})
	assert.Equal(t, DefaultShots, est.options.Shots)
	assert.NoError(t, est.Close())
}
