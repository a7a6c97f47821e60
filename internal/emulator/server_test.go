package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
	"github.com/SooluThomas/qiskit-ibm-runtime/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Executor.QueueDelayMS = 0

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.SetupRouter())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown()
		cancel()
	})
	return ts
}

func request(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServer_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/backends")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_ListBackends(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodGet, "/backends", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Backends []api.Backend `json:"backends"`
	}
	decode(t, resp, &body)
	assert.Len(t, body.Backends, len(defaultBackends))
}

func TestServer_GetBackend(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodGet, "/backends/fake_manila", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var b api.Backend
	decode(t, resp, &b)
	assert.Equal(t, 5, b.NumQubits)
	assert.False(t, b.Simulator)

	resp = request(t, ts, http.MethodGet, "/backends/nonexistent", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ProgramLifecycle(t *testing.T) {
	ts := newTestServer(t)

	upload := api.UploadProgramRequest{
		Name:             "vqe",
		Description:      "variational eigensolver",
		MaxExecutionTime: 600,
	}
	resp := request(t, ts, http.MethodPost, "/programs", upload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.Program
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "vqe", created.Name)

	resp = request(t, ts, http.MethodGet, "/programs/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	upload.Description = "updated"
	resp = request(t, ts, http.MethodPatch, "/programs/"+created.ID, upload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated api.Program
	decode(t, resp, &updated)
	assert.Equal(t, "updated", updated.Description)

	resp = request(t, ts, http.MethodDelete, "/programs/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = request(t, ts, http.MethodGet, "/programs/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_BuiltinsAreProtected(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodDelete, "/programs/estimator", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = request(t, ts, http.MethodPatch, "/programs/sampler", api.UploadProgramRequest{
		Name: "sampler", MaxExecutionTime: 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_RejectsBadUpload(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodPost, "/programs", api.UploadProgramRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_CreateJobChecksReferences(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodPost, "/jobs", api.CreateJobRequest{
		ProgramID: "no-such-program", Backend: "emulator_statevector",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = request(t, ts, http.MethodPost, "/jobs", api.CreateJobRequest{
		ProgramID: "estimator", Backend: "no-such-backend",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// fake_auckland is seeded non-operational.
	resp = request(t, ts, http.MethodPost, "/jobs", api.CreateJobRequest{
		ProgramID: "estimator", Backend: "fake_auckland",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_JobTightensExecutionLimit(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, ts, http.MethodPost, "/programs", api.UploadProgramRequest{
		Name: "sleeper", MaxExecutionTime: 600,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prog api.Program
	decode(t, resp, &prog)

	// The job's own limit undercuts the program's 600s.
	resp = request(t, ts, http.MethodPost, "/jobs", api.CreateJobRequest{
		ProgramID:        prog.ID,
		Backend:          "emulator_statevector",
		MaxExecutionTime: 1,
		Params:           json.RawMessage(`{"delay_ms":30000}`),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var job api.Job
	decode(t, resp, &job)

	deadline := time.Now().Add(5 * time.Second)
	for !job.Status.Terminal() {
		require.True(t, time.Now().Before(deadline), "job never finished")
		time.Sleep(20 * time.Millisecond)
		resp = request(t, ts, http.MethodGet, "/jobs/"+job.ID, nil)
		decode(t, resp, &job)
	}
	assert.Equal(t, api.JobFailed, job.Status)
	assert.Contains(t, job.Reason, "max execution time")
}

func TestServer_ResultBeforeCompletionConflicts(t *testing.T) {
	ts := newTestServer(t)

	// The garbage payload makes the job fail; results stay unavailable
	// whether it is still pending or already failed.
	resp := request(t, ts, http.MethodPost, "/jobs", api.CreateJobRequest{
		ProgramID: "estimator",
		Backend:   "emulator_statevector",
		Params:    json.RawMessage(`"garbage"`),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var job api.Job
	decode(t, resp, &job)

	resp = request(t, ts, http.MethodGet, "/jobs/"+job.ID+"/results", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
