package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
)

// ErrJobCancelled is returned by Result when the job was cancelled before
// completing.
var ErrJobCancelled = errors.New("job cancelled")

// JobError reports a job that reached the FAILED state, carrying the
// service's reason.
type JobError struct {
	JobID  string
	Reason string
}

func (e *JobError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Reason)
}

// Job is a handle to a submitted runtime job.
type Job struct {
	id           string
	client       *api.Client
	logger       *zap.Logger
	pollInterval time.Duration
	info         api.Job
}

// RunOptions configures a job submission.
type RunOptions struct {
	// Backend names the execution target. Required.
	Backend string
	// Inputs is the program's parameter payload, marshalled to JSON.
	Inputs any
	// LogLevel requests a job log verbosity (e.g. "DEBUG").
	LogLevel string
	// MaxExecutionTime caps this job's wall clock time in seconds. The
	// effective limit is the smaller of this and the program's own limit;
	// zero means the program limit applies unchanged.
	MaxExecutionTime int
}

// Run submits a program for execution and returns a job handle.
func (s *Service) Run(ctx context.Context, programID string, opts RunOptions) (*Job, error) {
	if opts.Backend == "" {
		return nil, fmt.Errorf("no backend specified for program %q", programID)
	}
	var params json.RawMessage
	if opts.Inputs != nil {
		data, err := json.Marshal(opts.Inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode program inputs: %w", err)
		}
		params = data
	}

	created, err := s.client.CreateJob(ctx, &api.CreateJobRequest{
		ProgramID:        programID,
		Backend:          opts.Backend,
		LogLevel:         opts.LogLevel,
		MaxExecutionTime: opts.MaxExecutionTime,
		Params:           params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit program %q: %w", programID, err)
	}
	s.logger.Info("job submitted",
		zap.String("job_id", created.ID),
		zap.String("program_id", programID),
		zap.String("backend", opts.Backend))

	return &Job{
		id:           created.ID,
		client:       s.client,
		logger:       s.logger,
		pollInterval: s.pollInterval,
		info:         *created,
	}, nil
}

// Job reattaches to an existing job by ID.
func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	info, err := s.client.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %q: %w", id, err)
	}
	return &Job{
		id:           id,
		client:       s.client,
		logger:       s.logger,
		pollInterval: s.pollInterval,
		info:         *info,
	}, nil
}

func (j *Job) ID() string      { return j.id }
func (j *Job) Backend() string { return j.info.Backend }

// Status refreshes and returns the job's current status.
func (j *Job) Status(ctx context.Context) (JobStatus, error) {
	info, err := j.client.GetJob(ctx, j.id)
	if err != nil {
		return "", fmt.Errorf("failed to get job %q: %w", j.id, err)
	}
	j.info = *info
	return info.Status, nil
}

// Result blocks until the job reaches a terminal state and returns the raw
// result payload. Polling starts at the service's poll interval and backs
// off to a 5 second ceiling. Cancelling the context abandons the wait; the
// job keeps running remotely.
func (j *Job) Result(ctx context.Context) (json.RawMessage, error) {
	interval := j.pollInterval
	const maxInterval = 5 * time.Second

	for {
		status, err := j.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.Terminal() {
			break
		}
		j.logger.Debug("waiting for job",
			zap.String("job_id", j.id),
			zap.String("status", string(status)))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		if interval *= 2; interval > maxInterval {
			interval = maxInterval
		}
	}

	switch j.info.Status {
	case api.JobFailed:
		return nil, &JobError{JobID: j.id, Reason: j.info.Reason}
	case api.JobCancelled:
		return nil, fmt.Errorf("job %s: %w", j.id, ErrJobCancelled)
	}

	raw, err := j.client.GetJobResult(ctx, j.id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch result for job %q: %w", j.id, err)
	}
	return raw, nil
}

// ResultInto decodes the blocking result into out.
func (j *Job) ResultInto(ctx context.Context, out any) error {
	raw, err := j.Result(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode result for job %q: %w", j.id, err)
	}
	return nil
}

// Cancel asks the service to stop the job.
func (j *Job) Cancel(ctx context.Context) error {
	if err := j.client.CancelJob(ctx, j.id); err != nil {
		return fmt.Errorf("failed to cancel job %q: %w", j.id, err)
	}
	return nil
}

// Logs fetches the job's execution log.
func (j *Job) Logs(ctx context.Context) (string, error) {
	logs, err := j.client.GetJobLogs(ctx, j.id)
	if err != nil {
		return "", fmt.Errorf("failed to fetch logs for job %q: %w", j.id, err)
	}
	return logs, nil
}
