package lockstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/signalsfoundry/tasking-workspace/internal/notify"
	"github.com/signalsfoundry/tasking-workspace/model"
)

// fakeLockAPI is a scriptable LockAPI with call accounting.
type fakeLockAPI struct {
	mu          sync.Mutex
	updateCalls []string
	bulkCalls   [][]string

	updateErr error
	bulkRes   BulkResult
	bulkErr   error

	// block, when non-nil, is received from before UpdateLock returns,
	// letting tests hold a mutation in flight.
	block chan struct{}
	// started is closed once the first UpdateLock call begins.
	started chan struct{}
}

func (f *fakeLockAPI) UpdateLock(ctx context.Context, id string, level model.LockLevel) error {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, id)
	started := f.started
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.updateErr
}

func (f *fakeLockAPI) BulkUpdateLocks(ctx context.Context, ids []string, level model.LockLevel) (BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls = append(f.bulkCalls, append([]string(nil), ids...))
	return f.bulkRes, f.bulkErr
}

func (f *fakeLockAPI) updateCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updateCalls)
}

func TestSetLevelSuccess(t *testing.T) {
	api := &fakeLockAPI{}
	rec := notify.NewRecorder()
	mgr := NewManager(api, rec, nil)

	mgr.SetLevel(context.Background(), "A1", model.LockHard)

	if got := mgr.GetLevel("A1"); got != model.LockHard {
		t.Fatalf("GetLevel = %q, want hard", got)
	}
	if mgr.Pending("A1") {
		t.Fatalf("A1 still pending after confirmation")
	}
	if got := len(rec.BySeverity(notify.SeveritySuccess)); got != 1 {
		t.Fatalf("success notifications = %d, want exactly 1", got)
	}
}

func TestSetLevelRollbackExactness(t *testing.T) {
	api := &fakeLockAPI{updateErr: errors.New("boom")}
	rec := notify.NewRecorder()
	mgr := NewManager(api, rec, nil)

	before := mgr.GetLevel("A1")
	mgr.SetLevel(context.Background(), "A1", model.LockHard)

	if got := mgr.GetLevel("A1"); got != before {
		t.Fatalf("GetLevel after rejected mutation = %q, want %q", got, before)
	}
	// Rollback to the implicit default restores absence, not an
	// explicit none entry.
	if snap := mgr.Snapshot(); len(snap) != 0 {
		t.Fatalf("Snapshot after rollback = %v, want empty", snap)
	}
	if got := len(rec.BySeverity(notify.SeverityError)); got != 1 {
		t.Fatalf("error notifications = %d, want exactly 1", got)
	}
}

func TestSetLevelRollbackRestoresPreviousOverride(t *testing.T) {
	api := &fakeLockAPI{}
	mgr := NewManager(api, nil, nil)
	mgr.Seed([]model.AcquisitionSummary{{ID: "A1", LockLevel: model.LockHard}})

	api.updateErr = errors.New("boom")
	mgr.SetLevel(context.Background(), "A1", model.LockNone)

	if got := mgr.GetLevel("A1"); got != model.LockHard {
		t.Fatalf("GetLevel after rollback = %q, want hard", got)
	}
}

func TestSetLevelPendingExclusivity(t *testing.T) {
	api := &fakeLockAPI{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := api.started
	mgr := NewManager(api, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		mgr.SetLevel(context.Background(), "A1", model.LockHard)
	}()

	<-started
	// Second mutation for the same id while the first is in flight:
	// silently dropped, not queued.
	mgr.SetLevel(context.Background(), "A1", model.LockHard)
	close(api.block)
	<-done

	if got := api.updateCallCount(); got != 1 {
		t.Fatalf("transport calls = %d, want exactly 1", got)
	}
	if got := mgr.GetLevel("A1"); got != model.LockHard {
		t.Fatalf("GetLevel = %q, want hard", got)
	}
}

func TestSetLevelNoopWhenAlreadyAtLevel(t *testing.T) {
	api := &fakeLockAPI{}
	mgr := NewManager(api, nil, nil)
	mgr.Seed([]model.AcquisitionSummary{{ID: "A1", LockLevel: model.LockHard}})

	mgr.SetLevel(context.Background(), "A1", model.LockHard)

	if got := api.updateCallCount(); got != 0 {
		t.Fatalf("transport calls = %d, want 0", got)
	}
}

func TestToggle(t *testing.T) {
	api := &fakeLockAPI{}
	mgr := NewManager(api, nil, nil)

	mgr.Toggle(context.Background(), "A1")
	if got := mgr.GetLevel("A1"); got != model.LockHard {
		t.Fatalf("after first toggle = %q, want hard", got)
	}
	mgr.Toggle(context.Background(), "A1")
	if got := mgr.GetLevel("A1"); got != model.LockNone {
		t.Fatalf("after second toggle = %q, want none", got)
	}
}

func TestBulkPartialRollback(t *testing.T) {
	api := &fakeLockAPI{bulkRes: BulkResult{Updated: 2, Failed: []string{"B"}}}
	rec := notify.NewRecorder()
	mgr := NewManager(api, rec, nil)

	mgr.BulkSetLevel(context.Background(), []string{"A", "B", "C"}, model.LockHard)

	if got := mgr.GetLevel("A"); got != model.LockHard {
		t.Fatalf("A = %q, want hard", got)
	}
	if got := mgr.GetLevel("B"); got != model.LockNone {
		t.Fatalf("B = %q, want pre-call none", got)
	}
	if got := mgr.GetLevel("C"); got != model.LockHard {
		t.Fatalf("C = %q, want hard", got)
	}
	for _, id := range []string{"A", "B", "C"} {
		if mgr.Pending(id) {
			t.Fatalf("%s still pending after bulk settles", id)
		}
	}

	// Aggregated counts: one success notification, one failure
	// notification, never one per id.
	if got := len(rec.BySeverity(notify.SeveritySuccess)); got != 1 {
		t.Fatalf("success notifications = %d, want 1", got)
	}
	if got := len(rec.BySeverity(notify.SeverityError)); got != 1 {
		t.Fatalf("error notifications = %d, want 1", got)
	}
}

func TestBulkTransportFailureRollsBackEverything(t *testing.T) {
	api := &fakeLockAPI{bulkErr: errors.New("connection reset")}
	rec := notify.NewRecorder()
	mgr := NewManager(api, rec, nil)
	mgr.Seed([]model.AcquisitionSummary{{ID: "B", LockLevel: model.LockHard}})

	mgr.BulkSetLevel(context.Background(), []string{"A", "B"}, model.LockNone)

	if got := mgr.GetLevel("A"); got != model.LockNone {
		t.Fatalf("A = %q, want none", got)
	}
	if got := mgr.GetLevel("B"); got != model.LockHard {
		t.Fatalf("B = %q, want restored hard", got)
	}
	if got := len(rec.All()); got != 1 {
		t.Fatalf("notifications = %d, want a single generic failure", got)
	}
}

func TestBulkFiltersPendingAndCurrentLevel(t *testing.T) {
	api := &fakeLockAPI{}
	mgr := NewManager(api, nil, nil)
	mgr.Seed([]model.AcquisitionSummary{{ID: "B", LockLevel: model.LockHard}})

	mgr.BulkSetLevel(context.Background(), []string{"A", "B"}, model.LockHard)

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.bulkCalls) != 1 || len(api.bulkCalls[0]) != 1 || api.bulkCalls[0][0] != "A" {
		t.Fatalf("bulk calls = %v, want one call for [A]", api.bulkCalls)
	}
}

func TestBulkNoEligibleIDsSkipsTransport(t *testing.T) {
	api := &fakeLockAPI{}
	rec := notify.NewRecorder()
	mgr := NewManager(api, rec, nil)
	mgr.Seed([]model.AcquisitionSummary{{ID: "A", LockLevel: model.LockHard}})

	mgr.BulkSetLevel(context.Background(), []string{"A"}, model.LockHard)

	api.mu.Lock()
	calls := len(api.bulkCalls)
	api.mu.Unlock()
	if calls != 0 {
		t.Fatalf("bulk transport calls = %d, want 0", calls)
	}
	if got := len(rec.All()); got != 0 {
		t.Fatalf("notifications = %d, want 0", got)
	}
}

func TestSeedSkipsDefaultAndEmptyIDs(t *testing.T) {
	mgr := NewManager(&fakeLockAPI{}, nil, nil)
	mgr.Seed([]model.AcquisitionSummary{
		{ID: "A", LockLevel: model.LockHard},
		{ID: "B", LockLevel: model.LockNone},
		{ID: "", LockLevel: model.LockHard},
	})

	snap := mgr.Snapshot()
	if len(snap) != 1 || snap["A"] != model.LockHard {
		t.Fatalf("Snapshot = %v, want only A=hard", snap)
	}
}

func TestClassifyLockError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"executed", errors.New("409: Cannot unlock acquisition in EXECUTED state"), msgCannotUnlockExecuted},
		{"missing", errors.New("acquisition A1 not found"), msgAcquisitionNotFound},
		{"generic", errors.New("upstream timeout"), msgLockUpdateFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyLockError(tc.err); got != tc.want {
				t.Fatalf("classifyLockError = %q, want %q", got, tc.want)
			}
		})
	}
}
