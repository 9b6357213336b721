// Package lockapi is the HTTP client for the scheduler's lock and
// schedule endpoints. It owns the wire shapes only; retry, rollback,
// and user feedback live in lockstate.
package lockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/signalsfoundry/tasking-workspace/internal/lockstate"
	"github.com/signalsfoundry/tasking-workspace/internal/logging"
	"github.com/signalsfoundry/tasking-workspace/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/tasking-workspace/internal/lockapi"

// LatencyRecorder observes lock API round-trip latencies.
type LatencyRecorder interface {
	ObserveLockAPILatency(op string, seconds float64)
}

// APIError is a non-2xx response from the scheduler. Its message is the
// server's error text so callers can classify on substrings.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("scheduler API returned status %d", e.StatusCode)
}

// Client talks JSON over HTTP to the scheduler API. The zero value is
// not usable; construct with NewClient.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
	tracer  trace.Tracer
	latency LatencyRecorder
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. for tests
// or custom transports. Timeouts are the transport's concern; this
// layer adds none of its own.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLatencyRecorder attaches an optional latency observer.
func WithLatencyRecorder(r LatencyRecorder) ClientOption {
	return func(c *Client) {
		c.latency = r
	}
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, log logging.Logger, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler base URL: %w", err)
	}
	if log == nil {
		log = logging.Noop()
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		log:     log,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type updateLockRequest struct {
	LockLevel model.LockLevel `json:"lock_level"`
}

type updateLockResponse struct {
	Success       bool            `json:"success"`
	AcquisitionID string          `json:"acquisition_id"`
	LockLevel     model.LockLevel `json:"lock_level"`
}

// UpdateLock sets the lock level of a single acquisition. Any rejection
// comes back as an *APIError carrying the server's message text.
func (c *Client) UpdateLock(ctx context.Context, acquisitionID string, level model.LockLevel) error {
	ctx, span := c.tracer.Start(ctx, "lockapi.UpdateLock",
		trace.WithAttributes(
			attribute.String("acquisition_id", acquisitionID),
			attribute.String("lock_level", string(level)),
		),
	)
	defer span.End()

	var resp updateLockResponse
	path := fmt.Sprintf("/api/acquisitions/%s/lock", url.PathEscape(acquisitionID))
	err := c.do(ctx, "update_lock", http.MethodPatch, path, updateLockRequest{LockLevel: level}, &resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !resp.Success {
		err := &APIError{StatusCode: http.StatusOK, Message: "scheduler declined lock update"}
		span.SetStatus(codes.Error, err.Message)
		return err
	}
	return nil
}

type bulkUpdateRequest struct {
	AcquisitionIDs []string        `json:"acquisition_ids"`
	LockLevel      model.LockLevel `json:"lock_level"`
}

type bulkUpdateResponse struct {
	Updated   int             `json:"updated"`
	Failed    []string        `json:"failed"`
	LockLevel model.LockLevel `json:"lock_level"`
}

// BulkUpdateLocks sets the lock level for many acquisitions in one
// request. Per-id failures are reported in the result, not as an error;
// the returned error is reserved for transport or whole-request
// rejections.
func (c *Client) BulkUpdateLocks(ctx context.Context, acquisitionIDs []string, level model.LockLevel) (lockstate.BulkResult, error) {
	ctx, span := c.tracer.Start(ctx, "lockapi.BulkUpdateLocks",
		trace.WithAttributes(
			attribute.Int("acquisition_count", len(acquisitionIDs)),
			attribute.String("lock_level", string(level)),
		),
	)
	defer span.End()

	var resp bulkUpdateResponse
	req := bulkUpdateRequest{AcquisitionIDs: acquisitionIDs, LockLevel: level}
	if err := c.do(ctx, "bulk_update_locks", http.MethodPost, "/api/acquisitions/locks", req, &resp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return lockstate.BulkResult{}, err
	}
	span.SetAttributes(
		attribute.Int("updated", resp.Updated),
		attribute.Int("failed", len(resp.Failed)),
	)
	return lockstate.BulkResult{Updated: resp.Updated, Failed: resp.Failed}, nil
}

type acquisitionSummaryWire struct {
	ID            string          `json:"id"`
	TargetID      string          `json:"target_id"`
	SatelliteID   string          `json:"satellite_id"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	LookSide      string          `json:"look_side"`
	PassDirection string          `json:"pass_direction"`
	Value         float64         `json:"value"`
	LockLevel     model.LockLevel `json:"lock_level"`
	Executed      bool            `json:"executed"`
}

type listAcquisitionsResponse struct {
	Acquisitions []acquisitionSummaryWire `json:"acquisitions"`
}

// ListAcquisitions fetches the acquisition summaries of a schedule,
// including server-side lock levels; used to seed the lock store.
func (c *Client) ListAcquisitions(ctx context.Context, scheduleID string) ([]model.AcquisitionSummary, error) {
	ctx, span := c.tracer.Start(ctx, "lockapi.ListAcquisitions",
		trace.WithAttributes(attribute.String("schedule_id", scheduleID)),
	)
	defer span.End()

	var resp listAcquisitionsResponse
	path := fmt.Sprintf("/api/schedules/%s/acquisitions", url.PathEscape(scheduleID))
	if err := c.do(ctx, "list_acquisitions", http.MethodGet, path, nil, &resp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]model.AcquisitionSummary, 0, len(resp.Acquisitions))
	for _, a := range resp.Acquisitions {
		out = append(out, model.AcquisitionSummary{
			ID:            a.ID,
			TargetID:      a.TargetID,
			SatelliteID:   a.SatelliteID,
			Window:        model.TimeWindow{Start: a.StartTime, End: a.EndTime},
			LookSide:      model.LookSide(a.LookSide),
			PassDirection: model.PassDirection(a.PassDirection),
			Value:         a.Value,
			LockLevel:     a.LockLevel,
			Executed:      a.Executed,
		})
	}
	span.SetAttributes(attribute.Int("acquisition_count", len(out)))
	return out, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	defer func() {
		if c.latency != nil {
			c.latency.ObserveLockAPILatency(op, time.Since(start).Seconds())
		}
	}()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	u := *c.baseURL
	u.Path, _ = url.JoinPath(u.Path, path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		c.log.Debug(ctx, "scheduler API rejection",
			logging.String("op", op),
			logging.Int("status", resp.StatusCode),
			logging.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
