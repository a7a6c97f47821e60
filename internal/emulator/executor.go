package emulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("job queue full")

// Executor runs queued jobs on a fixed pool of workers.
type Executor struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	jobs       chan string
	store      *Store
	runner     *Runner
	logger     *zap.Logger
	queueDelay time.Duration
}

func NewExecutor(ctx context.Context, workers int, queueDelay time.Duration, store *Store, runner *Runner, logger *zap.Logger) *Executor {
	ctx, cancel := context.WithCancel(ctx)
	e := &Executor{
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(chan string, workers*16),
		store:      store,
		runner:     runner,
		logger:     logger,
		queueDelay: queueDelay,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.work()
		}()
	}
	return e
}

// Submit queues a job for execution without blocking.
func (e *Executor) Submit(jobID string) error {
	select {
	case e.jobs <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops the workers and waits for in-flight jobs to settle.
func (e *Executor) Shutdown() {
	e.cancel()
	e.wg.Wait()
}

func (e *Executor) work() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case id := <-e.jobs:
			e.run(id)
		}
	}
}

func (e *Executor) run(id string) {
	// Simulated queue time before the backend picks the job up.
	if e.queueDelay > 0 {
		select {
		case <-e.ctx.Done():
			return
		case <-time.After(e.queueDelay):
		}
	}

	jobCtx, cancel := context.WithCancel(e.ctx)
	defer cancel()

	info, params, maxExec, ok := e.store.claimJob(id, cancel)
	if !ok {
		// Cancelled while queued, or unknown.
		return
	}

	if maxExec > 0 {
		var timeoutCancel context.CancelFunc
		jobCtx, timeoutCancel = context.WithTimeout(jobCtx, maxExec)
		defer timeoutCancel()
	}

	e.store.appendLog(id, fmt.Sprintf("job %s started on %s", id, info.Backend))
	e.logger.Info("job started",
		zap.String("job_id", id),
		zap.String("program_id", info.ProgramID),
		zap.String("backend", info.Backend))

	backend, ok := e.store.Backend(info.Backend)
	if !ok {
		e.store.appendLog(id, "backend disappeared")
		e.store.finishJob(id, api.JobFailed, nil, fmt.Sprintf("backend %q not found", info.Backend))
		return
	}

	result, err := e.runner.Run(jobCtx, info.ProgramID, backend, params)
	switch {
	case err == nil:
		e.store.appendLog(id, "job completed")
		e.store.finishJob(id, api.JobCompleted, result, "")
	case errors.Is(err, context.DeadlineExceeded):
		e.store.appendLog(id, "job exceeded max execution time")
		e.store.finishJob(id, api.JobFailed, nil, "max execution time exceeded")
	case errors.Is(err, context.Canceled):
		e.store.appendLog(id, "job cancelled")
		e.store.finishJob(id, api.JobCancelled, nil, "cancelled by user")
	default:
		e.store.appendLog(id, "job failed: "+err.Error())
		e.logger.Warn("job failed", zap.String("job_id", id), zap.Error(err))
		e.store.finishJob(id, api.JobFailed, nil, err.Error())
	}
}
