// Package lockstate owns the client-side mapping of acquisition ID to
// lock level. Mutations are applied optimistically, confirmed against
// the scheduler lock API, and rolled back on rejection; outcomes are
// surfaced as user notifications, never as returned errors.
package lockstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalsfoundry/tasking-workspace/internal/logging"
	"github.com/signalsfoundry/tasking-workspace/internal/notify"
	"github.com/signalsfoundry/tasking-workspace/model"
)

// User-facing messages for classified lock API rejections.
const (
	msgCannotUnlockExecuted = "cannot unlock an executed acquisition"
	msgAcquisitionNotFound  = "acquisition not found; refresh the schedule"
	msgLockUpdateFailed     = "lock update failed; try again"
	msgBulkUpdateFailed     = "lock update failed for all acquisitions; try again"
)

// BulkResult is the scheduler's response to a bulk lock update:
// how many acquisitions were updated and which IDs were refused.
type BulkResult struct {
	Updated int
	Failed  []string
}

// LockAPI is the transport consumed by the Manager. Implementations
// return an error for any rejection, timeout included; the Manager
// treats them all identically via the rollback path.
type LockAPI interface {
	UpdateLock(ctx context.Context, acquisitionID string, level model.LockLevel) error
	BulkUpdateLocks(ctx context.Context, acquisitionIDs []string, level model.LockLevel) (BulkResult, error)
}

// MetricsRecorder receives lock mutation outcomes and store gauges.
type MetricsRecorder interface {
	RecordLockMutation(op, outcome string)
	SetLockCounts(hard, pending int)
}

// Manager is the lock-level store. All reads and writes go through its
// methods; views never touch the underlying map.
type Manager struct {
	locks   *Guarded[string, model.LockLevel]
	api     LockAPI
	notify  notify.Publisher
	log     logging.Logger
	metrics MetricsRecorder
}

// ManagerOption customises Manager construction.
type ManagerOption func(*Manager)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ManagerOption {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager constructs a Manager over the given lock API. A nil
// publisher or logger is replaced with a no-op.
func NewManager(api LockAPI, pub notify.Publisher, log logging.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logging.Noop()
	}
	if pub == nil {
		pub = noopPublisher{}
	}
	mgr := &Manager{
		locks:  NewGuarded[string, model.LockLevel](model.LockNone),
		api:    api,
		notify: pub,
		log:    log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(mgr)
		}
	}
	return mgr
}

// GetLevel returns the lock level for an acquisition, defaulting to
// LockNone when no override is present.
func (m *Manager) GetLevel(id string) model.LockLevel {
	return m.locks.Get(id)
}

// Pending reports whether a lock mutation for id is awaiting server
// confirmation.
func (m *Manager) Pending(id string) bool {
	return m.locks.Pending(id)
}

// Toggle flips the lock level for an acquisition: hard becomes none,
// anything else becomes hard.
func (m *Manager) Toggle(ctx context.Context, id string) {
	m.SetLevel(ctx, id, m.locks.Get(id).Toggled())
}

// SetLevel optimistically applies level for id and confirms it against
// the lock API, rolling back on rejection. Calls for a pending id, or
// for an id already at level, are no-ops: fast double-clicks are
// expected and must not stack rollbacks.
func (m *Manager) SetLevel(ctx context.Context, id string, level model.LockLevel) {
	ctx, log := logging.WithRequestLogger(ctx, m.log)

	prev, ok := m.locks.Begin(id, level)
	if !ok {
		log.Debug(ctx, "lock mutation skipped",
			logging.String("acquisition_id", id),
			logging.String("lock_level", string(level)),
		)
		return
	}
	m.updateGauges()

	err := m.api.UpdateLock(ctx, id, level)
	if err != nil {
		m.locks.Rollback(id, prev)
		m.updateGauges()
		m.recordMutation("set", "rollback")
		msg := classifyLockError(err)
		log.Warn(ctx, "lock update rejected",
			logging.String("acquisition_id", id),
			logging.String("lock_level", string(level)),
			logging.Err(err),
		)
		m.notify.Publish(notify.SeverityError, msg)
		return
	}

	m.locks.Commit(id)
	m.updateGauges()
	m.recordMutation("set", "success")
	log.Debug(ctx, "lock update confirmed",
		logging.String("acquisition_id", id),
		logging.String("lock_level", string(level)),
	)
	m.notify.Publish(notify.SeveritySuccess, singleSuccessMessage(id, level))
}

// BulkSetLevel applies level to every eligible id in one optimistic
// sweep and confirms the batch with a single API call. IDs already
// pending or already at level are filtered out before the snapshot is
// taken. Server-reported failures are rolled back individually;
// confirmed ids are never rolled back. A transport failure rolls back
// the whole filtered batch.
func (m *Manager) BulkSetLevel(ctx context.Context, ids []string, level model.LockLevel) {
	ctx, log := logging.WithRequestLogger(ctx, m.log)

	begun, prev := m.locks.BeginBatch(ids, level)
	if len(begun) == 0 {
		log.Debug(ctx, "bulk lock mutation skipped; no eligible acquisitions",
			logging.Int("requested", len(ids)),
		)
		return
	}
	m.updateGauges()

	result, err := m.api.BulkUpdateLocks(ctx, begun, level)
	if err != nil {
		for _, id := range begun {
			m.locks.Rollback(id, prev[id])
		}
		m.updateGauges()
		m.recordMutation("bulk", "rollback")
		log.Warn(ctx, "bulk lock update failed",
			logging.Int("attempted", len(begun)),
			logging.Err(err),
		)
		m.notify.Publish(notify.SeverityError, msgBulkUpdateFailed)
		return
	}

	failed := make(map[string]struct{}, len(result.Failed))
	for _, id := range result.Failed {
		failed[id] = struct{}{}
	}

	succeeded := 0
	rolledBack := 0
	for _, id := range begun {
		if _, bad := failed[id]; bad {
			m.locks.Rollback(id, prev[id])
			rolledBack++
			continue
		}
		m.locks.Commit(id)
		succeeded++
	}
	m.updateGauges()

	log.Debug(ctx, "bulk lock update settled",
		logging.Int("attempted", len(begun)),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", rolledBack),
		logging.String("lock_level", string(level)),
	)

	if succeeded > 0 {
		m.recordMutation("bulk", "success")
		m.notify.Publish(notify.SeveritySuccess, bulkSuccessMessage(succeeded, level))
	}
	if rolledBack > 0 {
		m.recordMutation("bulk", "rollback")
		m.notify.Publish(notify.SeverityError,
			fmt.Sprintf("failed to update locks for %d %s", rolledBack, pluralAcquisitions(rolledBack)))
	}
}

// Seed bulk-initialises lock levels from fetched ground truth, e.g. on
// first load of a schedule view. It never touches pending guards and
// emits no notifications.
func (m *Manager) Seed(acqs []model.AcquisitionSummary) {
	entries := make(map[string]model.LockLevel, len(acqs))
	for _, acq := range acqs {
		if acq.ID == "" {
			continue
		}
		entries[acq.ID] = acq.LockLevel
	}
	m.locks.Seed(entries)
	m.updateGauges()
}

// Reset drops all overrides and guards, e.g. when switching schedules.
func (m *Manager) Reset() {
	m.locks.Reset()
	m.updateGauges()
}

// Snapshot returns a copy of all explicit lock overrides. Entries at
// the implicit default are absent.
func (m *Manager) Snapshot() map[string]model.LockLevel {
	return m.locks.Snapshot()
}

func (m *Manager) updateGauges() {
	if m.metrics == nil {
		return
	}
	entries, pending := m.locks.Counts()
	m.metrics.SetLockCounts(entries, pending)
}

func (m *Manager) recordMutation(op, outcome string) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordLockMutation(op, outcome)
}

// classifyLockError maps an API rejection onto one of a small set of
// user-facing strings. Matching is on message substrings because the
// API surfaces failures as plain text.
func classifyLockError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Cannot unlock"):
		return msgCannotUnlockExecuted
	case strings.Contains(msg, "not found"):
		return msgAcquisitionNotFound
	default:
		return msgLockUpdateFailed
	}
}

func singleSuccessMessage(id string, level model.LockLevel) string {
	if level == model.LockHard {
		return fmt.Sprintf("locked acquisition %s", id)
	}
	return fmt.Sprintf("unlocked acquisition %s", id)
}

func bulkSuccessMessage(count int, level model.LockLevel) string {
	verb := "unlocked"
	if level == model.LockHard {
		verb = "locked"
	}
	return fmt.Sprintf("%s %d %s", verb, count, pluralAcquisitions(count))
}

func pluralAcquisitions(n int) string {
	if n == 1 {
		return "acquisition"
	}
	return "acquisitions"
}

type noopPublisher struct{}

func (noopPublisher) Publish(notify.Severity, string) {}
