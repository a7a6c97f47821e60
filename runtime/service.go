// Package runtime is a Go client for the cloud quantum runtime service:
// account management, backend discovery, runtime program CRUD and job
// submission with blocking result retrieval.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
)

// Re-exported wire types; the api package owns their JSON shape.
type (
	Backend     = api.Backend
	Program     = api.Program
	ProgramSpec = api.ProgramSpec
	JobStatus   = api.JobStatus

	APIError           = api.APIError
	RetryPolicy        = api.RetryPolicy
	RetryStrategy      = api.RetryStrategy
	ExponentialBackoff = api.ExponentialBackoff
)

const (
	JobQueued    = api.JobQueued
	JobRunning   = api.JobRunning
	JobCompleted = api.JobCompleted
	JobFailed    = api.JobFailed
	JobCancelled = api.JobCancelled
)

// Sentinels surfaced from the wire client.
var (
	ErrNotFound     = api.ErrNotFound
	ErrUnauthorized = api.ErrUnauthorized
	ErrCircuitOpen  = api.ErrCircuitOpen
)

// Service is the entry point to the runtime: one handle per account.
type Service struct {
	client       *api.Client
	logger       *zap.Logger
	pollInterval time.Duration
}

type serviceOptions struct {
	account      *Account
	accountName  string
	httpClient   *http.Client
	logger       *zap.Logger
	pollInterval time.Duration
	retry        *api.RetryPolicy
}

type Option func(*serviceOptions)

// WithAccount supplies credentials directly, bypassing the env/file chain.
func WithAccount(acct Account) Option {
	return func(o *serviceOptions) { o.account = &acct }
}

// WithAccountName selects a named entry from the account file.
func WithAccountName(name string) Option {
	return func(o *serviceOptions) { o.accountName = name }
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *serviceOptions) { o.httpClient = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithPollInterval sets the base interval for job status polling.
func WithPollInterval(d time.Duration) Option {
	return func(o *serviceOptions) { o.pollInterval = d }
}

func WithRetryPolicy(p *RetryPolicy) Option {
	return func(o *serviceOptions) { o.retry = p }
}

// New builds a Service. Credentials resolve from an explicit WithAccount,
// then environment variables, then the account file.
func New(opts ...Option) (*Service, error) {
	o := serviceOptions{
		logger:       zap.NewNop(),
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	acct := o.account
	if acct == nil {
		loaded, err := LoadAccount(o.accountName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve account: %w", err)
		}
		acct = loaded
	}
	if acct.Token == "" {
		return nil, fmt.Errorf("no API token configured")
	}
	url := acct.URL
	if url == "" {
		url = DefaultURL
	}

	clientOpts := []api.ClientOption{api.WithLogger(o.logger)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	if o.retry != nil {
		clientOpts = append(clientOpts, api.WithRetryPolicy(o.retry))
	}

	return &Service{
		client:       api.NewClient(url, acct.Token, clientOpts...),
		logger:       o.logger,
		pollInterval: o.pollInterval,
	}, nil
}

// BackendFilter narrows the backend list client-side.
type BackendFilter func(*Backend) bool

// OperationalOnly keeps backends currently accepting jobs.
func OperationalOnly() BackendFilter {
	return func(b *Backend) bool { return b.Operational }
}

// Simulators keeps simulators when true, physical devices when false.
func Simulators(simulator bool) BackendFilter {
	return func(b *Backend) bool { return b.Simulator == simulator }
}

// MinQubits keeps backends with at least n qubits.
func MinQubits(n int) BackendFilter {
	return func(b *Backend) bool { return b.NumQubits >= n }
}

// Backends lists available execution targets, applying any filters.
func (s *Service) Backends(ctx context.Context, filters ...BackendFilter) ([]Backend, error) {
	backends, err := s.client.GetBackends(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backends: %w", err)
	}
	if len(filters) == 0 {
		return backends, nil
	}
	matched := make([]Backend, 0, len(backends))
	for _, b := range backends {
		keep := true
		for _, f := range filters {
			if !f(&b) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

// Backend fetches a single backend by name.
func (s *Service) Backend(ctx context.Context, name string) (*Backend, error) {
	b, err := s.client.GetBackend(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get backend %q: %w", name, err)
	}
	return b, nil
}

// LeastBusy returns the matching backend with the fewest pending jobs.
func (s *Service) LeastBusy(ctx context.Context, filters ...BackendFilter) (*Backend, error) {
	backends, err := s.Backends(ctx, filters...)
	if err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no backend matches the given filters: %w", ErrNotFound)
	}
	best := backends[0]
	for _, b := range backends[1:] {
		if b.PendingJobs < best.PendingJobs {
			best = b
		}
	}
	return &best, nil
}
