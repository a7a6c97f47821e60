package api

import (
	"encoding/json"
	"time"
)

// Backend describes a remote execution target, simulator or device.
type Backend struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	NumQubits   int      `json:"num_qubits"`
	BasisGates  []string `json:"basis_gates,omitempty"`
	Simulator   bool     `json:"simulator"`
	Operational bool     `json:"operational"`
	PendingJobs int      `json:"pending_jobs"`
	MaxShots    int      `json:"max_shots"`
}

// ProgramSpec carries the JSON Schemas describing a program's input
// parameters and return value.
type ProgramSpec struct {
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	ReturnValues json.RawMessage `json:"return_values,omitempty"`
}

// Program is a runtime program: a named payload the service executes on
// behalf of the caller.
type Program struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	MaxExecutionTime int         `json:"max_execution_time"`
	IsPublic         bool        `json:"is_public"`
	Spec             ProgramSpec `json:"spec"`
	CreatedAt        time.Time   `json:"created_at,omitempty"`
}

// UploadProgramRequest is the payload for program upload and update.
type UploadProgramRequest struct {
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	MaxExecutionTime int         `json:"max_execution_time"`
	IsPublic         bool        `json:"is_public"`
	Spec             ProgramSpec `json:"spec"`
	Data             string      `json:"data,omitempty"`
}

// JobStatus is the lifecycle state of a submitted job.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Job is the service's view of a submitted execution.
type Job struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	Backend   string    `json:"backend"`
	Status    JobStatus `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateJobRequest submits a program for execution. MaxExecutionTime, in
// seconds, can only tighten the program's own limit, never extend it.
type CreateJobRequest struct {
	ProgramID        string          `json:"program_id"`
	Backend          string          `json:"backend"`
	LogLevel         string          `json:"log_level,omitempty"`
	MaxExecutionTime int             `json:"max_execution_time,omitempty"`
	Params           json.RawMessage `json:"params,omitempty"`
}
