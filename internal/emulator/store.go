package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
)

// builtinPrograms are always present and cannot be modified or deleted.
var builtinPrograms = []api.Program{
	{
		ID:               "estimator",
		Name:             "estimator",
		Description:      "Expectation values of observables over circuits",
		MaxExecutionTime: 300,
		IsPublic:         true,
	},
	{
		ID:               "sampler",
		Name:             "sampler",
		Description:      "Output quasi-distributions of circuits",
		MaxExecutionTime: 300,
		IsPublic:         true,
	},
}

// defaultBackends is the emulator's device catalog: two clean simulators
// and two noisy fake devices.
var defaultBackends = []api.Backend{
	{
		Name:        "emulator_statevector",
		Description: "Noise-free general purpose simulator",
		NumQubits:   32,
		BasisGates:  []string{"id", "rz", "sx", "x", "cx"},
		Simulator:   true,
		Operational: true,
		MaxShots:    100000,
	},
	{
		Name:        "emulator_stabilizer",
		Description: "Noise-free Clifford simulator",
		NumQubits:   5000,
		BasisGates:  []string{"id", "h", "s", "cx"},
		Simulator:   true,
		Operational: true,
		MaxShots:    100000,
	},
	{
		Name:        "fake_manila",
		Description: "Fake 5-qubit device with readout noise",
		NumQubits:   5,
		BasisGates:  []string{"id", "rz", "sx", "x", "cx"},
		Simulator:   false,
		Operational: true,
		MaxShots:    8192,
	},
	{
		Name:        "fake_auckland",
		Description: "Fake 27-qubit device, currently offline",
		NumQubits:   27,
		BasisGates:  []string{"id", "rz", "sx", "x", "cx"},
		Simulator:   false,
		Operational: false,
		MaxShots:    4096,
	},
}

type jobRecord struct {
	info    api.Job
	params  json.RawMessage
	maxExec time.Duration
	result  json.RawMessage
	logs    []string
	cancel  context.CancelFunc
}

// Store holds the emulator's in-memory state.
type Store struct {
	mu       sync.RWMutex
	backends map[string]*api.Backend
	programs map[string]*api.Program
	jobs     map[string]*jobRecord
}

func NewStore() *Store {
	s := &Store{
		backends: make(map[string]*api.Backend),
		programs: make(map[string]*api.Program),
		jobs:     make(map[string]*jobRecord),
	}
	for i := range defaultBackends {
		b := defaultBackends[i]
		s.backends[b.Name] = &b
	}
	for i := range builtinPrograms {
		p := builtinPrograms[i]
		p.CreatedAt = time.Now().UTC()
		s.programs[p.ID] = &p
	}
	return s
}

func (s *Store) Backends() []api.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Backend, 0, len(s.backends))
	for _, b := range s.backends {
		out = append(out, *b)
	}
	return out
}

func (s *Store) Backend(name string) (api.Backend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.backends[name]
	if !ok {
		return api.Backend{}, false
	}
	return *b, true
}

func (s *Store) adjustPending(name string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.backends[name]; ok {
		b.PendingJobs += delta
		if b.PendingJobs < 0 {
			b.PendingJobs = 0
		}
	}
}

func (s *Store) Programs() []api.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Program, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, *p)
	}
	return out
}

func (s *Store) Program(id string) (api.Program, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[id]
	if !ok {
		return api.Program{}, false
	}
	return *p, true
}

func (s *Store) AddProgram(req *api.UploadProgramRequest) api.Program {
	p := api.Program{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		MaxExecutionTime: req.MaxExecutionTime,
		IsPublic:         req.IsPublic,
		Spec:             req.Spec,
		CreatedAt:        time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ID] = &p
	return p
}

var errBuiltinProgram = fmt.Errorf("built-in programs cannot be modified")

func (s *Store) UpdateProgram(id string, req *api.UploadProgramRequest) (api.Program, error) {
	if isBuiltin(id) {
		return api.Program{}, errBuiltinProgram
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok {
		return api.Program{}, fmt.Errorf("program %q not found", id)
	}
	p.Name = req.Name
	p.Description = req.Description
	p.MaxExecutionTime = req.MaxExecutionTime
	p.IsPublic = req.IsPublic
	p.Spec = req.Spec
	return *p, nil
}

func (s *Store) DeleteProgram(id string) error {
	if isBuiltin(id) {
		return errBuiltinProgram
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[id]; !ok {
		return fmt.Errorf("program %q not found", id)
	}
	delete(s.programs, id)
	return nil
}

func isBuiltin(id string) bool {
	for _, p := range builtinPrograms {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) CreateJob(req *api.CreateJobRequest, maxExec time.Duration) api.Job {
	job := api.Job{
		ID:        uuid.NewString(),
		ProgramID: req.ProgramID,
		Backend:   req.Backend,
		Status:    api.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = &jobRecord{info: job, params: req.Params, maxExec: maxExec}
	s.mu.Unlock()
	s.adjustPending(req.Backend, 1)
	return job
}

func (s *Store) Job(id string) (api.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return api.Job{}, false
	}
	return rec.info, true
}

func (s *Store) JobResult(id string) (json.RawMessage, api.JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, "", false
	}
	return rec.result, rec.info.Status, true
}

func (s *Store) JobLogs(id string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	logs := make([]string, len(rec.logs))
	copy(logs, rec.logs)
	return logs, true
}

// claimJob moves a queued job to RUNNING and registers its cancel func.
// It reports false when the job is gone or already cancelled.
func (s *Store) claimJob(id string, cancel context.CancelFunc) (api.Job, json.RawMessage, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok || rec.info.Status != api.JobQueued {
		return api.Job{}, nil, 0, false
	}
	rec.info.Status = api.JobRunning
	rec.cancel = cancel
	return rec.info, rec.params, rec.maxExec, true
}

func (s *Store) appendLog(id, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.jobs[id]; ok {
		rec.logs = append(rec.logs, line)
	}
}

func (s *Store) finishJob(id string, status api.JobStatus, result json.RawMessage, reason string) {
	s.mu.Lock()
	rec, ok := s.jobs[id]
	var backend string
	if ok {
		rec.info.Status = status
		rec.info.Reason = reason
		rec.result = result
		rec.cancel = nil
		backend = rec.info.Backend
	}
	s.mu.Unlock()
	if ok {
		s.adjustPending(backend, -1)
	}
}

// CancelJob cancels a queued or running job. Queued jobs flip directly to
// CANCELLED; running jobs get their context cancelled and the executor
// finishes them.
func (s *Store) CancelJob(id string) error {
	s.mu.Lock()
	rec, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job %q not found", id)
	}
	switch rec.info.Status {
	case api.JobQueued:
		rec.info.Status = api.JobCancelled
		backend := rec.info.Backend
		s.mu.Unlock()
		s.adjustPending(backend, -1)
		return nil
	case api.JobRunning:
		cancel := rec.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	default:
		s.mu.Unlock()
		return fmt.Errorf("job %q already finished", id)
	}
}
