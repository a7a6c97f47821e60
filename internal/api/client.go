// Package api implements the wire-level REST client for the runtime
// service. It owns authentication, retries and the error taxonomy; the
// public runtime package builds the user-facing surface on top of it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the runtime service's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
	retry   *RetryPolicy
	breaker *CircuitBreaker
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func WithRetryPolicy(p *RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

func WithCircuitBreaker(cb *CircuitBreaker) ClientOption {
	return func(c *Client) { c.breaker = cb }
}

func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
		retry:   DefaultRetryPolicy(),
		breaker: NewCircuitBreaker(5, 10*time.Second, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do runs one API call with retry, backoff and circuit breaking. body and
// out may be nil; out is decoded from the response JSON.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.Strategy.NextDelay(attempt - 1)
			c.logger.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if !c.breaker.Allow() {
			return fmt.Errorf("%s %s: %w", method, path, ErrCircuitOpen)
		}

		retry, err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			c.breaker.RecordSuccess()
			return nil
		}
		lastErr = err
		if !retry {
			return lastErr
		}
		if c.retry.Filter != nil && !c.retry.Filter(err) {
			return lastErr
		}
		c.breaker.RecordFailure()
	}
	return lastErr
}

// attempt performs a single HTTP exchange. The first return reports
// whether the failure is retryable.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		return retryable(resp.StatusCode), fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return false, nil
}

func (c *Client) GetBackends(ctx context.Context) ([]Backend, error) {
	var resp struct {
		Backends []Backend `json:"backends"`
	}
	if err := c.do(ctx, http.MethodGet, "/backends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Backends, nil
}

func (c *Client) GetBackend(ctx context.Context, name string) (*Backend, error) {
	var b Backend
	if err := c.do(ctx, http.MethodGet, "/backends/"+name, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) ListPrograms(ctx context.Context) ([]Program, error) {
	var resp struct {
		Programs []Program `json:"programs"`
	}
	if err := c.do(ctx, http.MethodGet, "/programs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Programs, nil
}

func (c *Client) GetProgram(ctx context.Context, id string) (*Program, error) {
	var p Program
	if err := c.do(ctx, http.MethodGet, "/programs/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UploadProgram(ctx context.Context, req *UploadProgramRequest) (*Program, error) {
	var p Program
	if err := c.do(ctx, http.MethodPost, "/programs", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProgram(ctx context.Context, id string, req *UploadProgramRequest) (*Program, error) {
	var p Program
	if err := c.do(ctx, http.MethodPatch, "/programs/"+id, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/programs/"+id, nil, nil)
}

func (c *Client) CreateJob(ctx context.Context, req *CreateJobRequest) (*Job, error) {
	var j Job
	if err := c.do(ctx, http.MethodPost, "/jobs", req, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *Client) GetJobResult(ctx context.Context, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id+"/results", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/jobs/"+id+"/cancel", nil, nil)
}

func (c *Client) GetJobLogs(ctx context.Context, id string) (string, error) {
	var resp struct {
		Logs string `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id+"/logs", nil, &resp); err != nil {
		return "", err
	}
	return resp.Logs, nil
}
