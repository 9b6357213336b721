package lockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signalsfoundry/tasking-workspace/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, nil, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestUpdateLockSendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"acquisition_id": "A1",
			"lock_level":     "hard",
		})
	}))

	if err := c.UpdateLock(context.Background(), "A1", model.LockHard); err != nil {
		t.Fatalf("UpdateLock error: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %s, want PATCH", gotMethod)
	}
	if gotPath != "/api/acquisitions/A1/lock" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotBody["lock_level"] != "hard" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestUpdateLockSurfacesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Cannot unlock acquisition in EXECUTED state",
		})
	}))

	err := c.UpdateLock(context.Background(), "A1", model.LockNone)
	if err == nil {
		t.Fatalf("expected error")
	}
	// The raw server text must survive so lockstate can classify on
	// substrings.
	if !strings.Contains(err.Error(), "Cannot unlock") {
		t.Fatalf("error = %q, want server message preserved", err)
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("error = %#v, want *APIError with 409", err)
	}
}

func TestUpdateLockDeclinedWithoutError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))

	if err := c.UpdateLock(context.Background(), "A1", model.LockHard); err == nil {
		t.Fatalf("expected error when success=false")
	}
}

func TestBulkUpdateLocks(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/acquisitions/locks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updated":    2,
			"failed":     []string{"B"},
			"lock_level": "hard",
		})
	}))

	res, err := c.BulkUpdateLocks(context.Background(), []string{"A", "B", "C"}, model.LockHard)
	if err != nil {
		t.Fatalf("BulkUpdateLocks error: %v", err)
	}
	if res.Updated != 2 {
		t.Fatalf("updated = %d, want 2", res.Updated)
	}
	if diff := cmp.Diff([]string{"B"}, res.Failed); diff != "" {
		t.Fatalf("failed mismatch (-want +got):\n%s", diff)
	}
	ids, _ := gotBody["acquisition_ids"].([]any)
	if len(ids) != 3 {
		t.Fatalf("request ids = %v, want 3 entries", gotBody["acquisition_ids"])
	}
}

func TestListAcquisitions(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/schedules/sched-1/acquisitions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"acquisitions": []map[string]any{{
				"id":           "A1",
				"target_id":    "T1",
				"satellite_id": "SAT-7",
				"start_time":   start,
				"end_time":     start.Add(90 * time.Second),
				"lock_level":   "hard",
				"value":        42.5,
			}},
		})
	}))

	acqs, err := c.ListAcquisitions(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("ListAcquisitions error: %v", err)
	}
	if len(acqs) != 1 {
		t.Fatalf("len = %d, want 1", len(acqs))
	}
	got := acqs[0]
	if got.ID != "A1" || got.LockLevel != model.LockHard || got.SatelliteID != "SAT-7" {
		t.Fatalf("summary = %+v", got)
	}
	if !got.Window.Start.Equal(start) {
		t.Fatalf("window start = %v, want %v", got.Window.Start, start)
	}
}

type latencyCapture struct {
	ops []string
}

func (l *latencyCapture) ObserveLockAPILatency(op string, _ float64) {
	l.ops = append(l.ops, op)
}

func TestLatencyRecorderObservesEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(srv.Close)

	rec := &latencyCapture{}
	c, err := NewClient(srv.URL, nil, WithHTTPClient(srv.Client()), WithLatencyRecorder(rec))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	_ = c.UpdateLock(context.Background(), "A1", model.LockHard)
	if diff := cmp.Diff([]string{"update_lock"}, rec.ops); diff != "" {
		t.Fatalf("latency ops mismatch (-want +got):\n%s", diff)
	}
}
