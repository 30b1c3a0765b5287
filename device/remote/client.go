package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/segmentio/ksuid"

	"github.com/quantafoundry/quantum-devices-framework/datastore"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// Job lifecycle states reported by the execution service.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// GateOp is one gate in wire format.
type GateOp struct {
	Name   string    `json:"name"`
	Wires  []int     `json:"wires"`
	Params []float64 `json:"params,omitempty"`
}

// Circuit is the gate program submitted for one job.
type Circuit struct {
	Wires int      `json:"wires"`
	Gates []GateOp `json:"gates"`
}

// Measurement describes the statistic a job computes.
type Measurement struct {
	Kind       string `json:"kind"`
	Observable string `json:"observable"`
	Wires      []int  `json:"wires"`
	Samples    int    `json:"samples,omitempty"`
}

// JobRequest is the submission payload. The ID is generated client-side so
// retried submissions are idempotent.
type JobRequest struct {
	ID      string      `json:"id"`
	Target  string      `json:"target"`
	Shots   int         `json:"shots"`
	Circuit Circuit     `json:"circuit"`
	Measure Measurement `json:"measure"`
}

// JobStatus is the service's view of a submitted job.
type JobStatus struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Position    int        `json:"position,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobResult carries the computed statistic values. Services that do not
// compute statistics server-side return raw measurement counts instead,
// keyed by basis-state bitstring with wire 0 leftmost.
type JobResult struct {
	JobID  string         `json:"job_id"`
	Values []float64      `json:"values,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
}

// Client talks to a remote quantum execution service over its HTTP job API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	lggr       logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, lggr logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		lggr:       lggr.Named("RemoteClient"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewJobID generates a client-side job ID.
func NewJobID() string {
	return ksuid.New().String()
}

// SubmitJob submits a job and returns the service-assigned job ID.
func (c *Client) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", req, &out); err != nil {
		return "", fmt.Errorf("submitting job: %w", err)
	}

	return out.ID, nil
}

// JobStatus fetches the current status of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var out JobStatus
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+jobID, nil, &out); err != nil {
		return JobStatus{}, fmt.Errorf("fetching job %s: %w", jobID, err)
	}

	return out, nil
}

// Result fetches the values of a completed job.
func (c *Client) Result(ctx context.Context, jobID string) (JobResult, error) {
	var out JobResult
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+jobID+"/result", nil, &out); err != nil {
		return JobResult{}, fmt.Errorf("fetching result of job %s: %w", jobID, err)
	}

	return out, nil
}

// WaitForResult polls a job until it completes, then returns its result. A
// failed or cancelled job surfaces the service's error message.
func (c *Client) WaitForResult(ctx context.Context, jobID string, pollInterval time.Duration) (JobResult, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return JobResult{}, err
		}

		switch status.Status {
		case StatusCompleted:
			return c.Result(ctx, jobID)
		case StatusFailed, StatusCancelled:
			return JobResult{}, fmt.Errorf("job %s %s: %s", jobID, status.Status, status.Error)
		}

		select {
		case <-ctx.Done():
			return JobResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cancel asks the service to cancel a job.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	if err := c.do(ctx, http.MethodDelete, "/v1/jobs/"+jobID, nil, nil); err != nil {
		return fmt.Errorf("cancelling job %s: %w", jobID, err)
	}

	return nil
}

// Calibration fetches the device's current calibration snapshot.
func (c *Client) Calibration(ctx context.Context) (datastore.CalibrationRecord, error) {
	var out datastore.CalibrationRecord
	if err := c.do(ctx, http.MethodGet, "/v1/calibration", nil, &out); err != nil {
		return datastore.CalibrationRecord{}, fmt.Errorf("fetching calibration: %w", err)
	}

	return out, nil
}

// do performs one authenticated request with retries on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if c.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+c.apiKey)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("service error: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

				return retry.Unrecoverable(fmt.Errorf("request failed: %s: %s", resp.Status, bytes.TrimSpace(msg)))
			}

			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("decoding response: %w", err))
				}
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.lggr.Warnw("Retrying request", "attempt", n+1, "method", method, "path", path, "err", err)
		}),
	)
}
