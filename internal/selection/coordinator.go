// Package selection is the single source of truth for "what is
// selected" across the workspace's view surfaces. Exactly one entity
// kind can be selected at a time; selecting one kind clears the others
// in the same update, and reselecting the current entity deselects it.
package selection

import (
	"context"
	"sync"

	"github.com/signalsfoundry/tasking-workspace/internal/logging"
	"github.com/signalsfoundry/tasking-workspace/model"
)

// Kind identifies the selectable entity kinds.
type Kind string

const (
	KindNone           Kind = ""
	KindTarget         Kind = "target"
	KindOpportunity    Kind = "opportunity"
	KindAcquisition    Kind = "acquisition"
	KindConflict       Kind = "conflict"
	KindRepairDiffItem Kind = "repair_diff_item"
)

// View names the surface that initiated a selection. Consumers compare
// it against their own identity to skip self-triggered re-focus
// actions; this is the anti-thrash mechanism, not bookkeeping.
type View string

const (
	ViewNone      View = ""
	ViewMap       View = "map"
	ViewTable     View = "table"
	ViewTimeline  View = "timeline"
	ViewInspector View = "inspector"
	ViewRepair    View = "repair"
)

// DiffType classifies a repair-diff item selection.
type DiffType string

const (
	DiffKept    DiffType = "kept"
	DiffDropped DiffType = "dropped"
	DiffAdded   DiffType = "added"
	DiffMoved   DiffType = "moved"
)

// MovedRef carries the paired before/after identifiers of a "moved"
// repair-diff item so the highlight bridge can request a ghost entity
// for the side that has no live drawable.
type MovedRef struct {
	FromID string
	ToID   string
}

// RepairItemRef identifies one repair-diff entry for selection.
type RepairItemRef struct {
	ID       string
	DiffType DiffType
	Window   model.TimeWindow
	// Moved is set only for DiffMoved items.
	Moved *MovedRef
}

// Selection is an immutable snapshot of the coordinator's state. The
// five per-kind ID fields are mutually exclusive: at most one is
// non-empty, matching Kind.
type Selection struct {
	Kind   Kind
	Origin View

	TargetID      string
	OpportunityID string
	AcquisitionID string
	ConflictID    string
	RepairItemID  string

	// Highlighted is the derived set of related ids, recomputed on
	// every transition and empty in the Empty state.
	Highlighted []string

	// Window is carried by repair-diff item selections; zero otherwise.
	Window model.TimeWindow

	// DiffType and Moved are populated for repair-diff item selections.
	DiffType DiffType
	Moved    *MovedRef
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.Kind == KindNone }

// SelectedID returns the id of the active selection, or "".
func (s Selection) SelectedID() string {
	switch s.Kind {
	case KindTarget:
		return s.TargetID
	case KindOpportunity:
		return s.OpportunityID
	case KindAcquisition:
		return s.AcquisitionID
	case KindConflict:
		return s.ConflictID
	case KindRepairDiffItem:
		return s.RepairItemID
	default:
		return ""
	}
}

// Coordinator owns the selection state and per-view context filters.
// Views read via Snapshot or a subscription and mutate only through
// the Select*/Clear methods.
type Coordinator struct {
	mu      sync.Mutex
	current Selection
	filters map[FilterView]Filter

	nextSub int
	subs    map[int]chan Selection

	log logging.Logger
}

// NewCoordinator constructs a Coordinator in the Empty state.
func NewCoordinator(log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.Noop()
	}
	return &Coordinator{
		filters: make(map[FilterView]Filter),
		subs:    make(map[int]chan Selection),
		log:     log,
	}
}

// SelectTarget selects a target; reselecting the current target clears
// the selection.
func (c *Coordinator) SelectTarget(id string, origin View) {
	c.transition(KindTarget, id, origin, Selection{
		Kind:        KindTarget,
		TargetID:    id,
		Origin:      origin,
		Highlighted: []string{id},
	})
}

// SelectOpportunity selects an imaging opportunity.
func (c *Coordinator) SelectOpportunity(id string, origin View) {
	c.transition(KindOpportunity, id, origin, Selection{
		Kind:          KindOpportunity,
		OpportunityID: id,
		Origin:        origin,
		Highlighted:   []string{id},
	})
}

// SelectAcquisition selects a scheduled acquisition.
func (c *Coordinator) SelectAcquisition(id string, origin View) {
	c.transition(KindAcquisition, id, origin, Selection{
		Kind:          KindAcquisition,
		AcquisitionID: id,
		Origin:        origin,
		Highlighted:   []string{id},
	})
}

// SelectConflict selects a conflict; memberAcquisitionIDs are the
// conflict's member acquisitions and become the highlight set.
func (c *Coordinator) SelectConflict(id string, memberAcquisitionIDs []string, origin View) {
	members := append([]string(nil), memberAcquisitionIDs...)
	c.transition(KindConflict, id, origin, Selection{
		Kind:        KindConflict,
		ConflictID:  id,
		Origin:      origin,
		Highlighted: members,
	})
}

// SelectRepairDiffItem selects one repair-diff entry. The item's time
// window and, for moved items, the paired from/to identifiers ride
// along so the bridge can focus the timeline and request a ghost.
func (c *Coordinator) SelectRepairDiffItem(item RepairItemRef, origin View) {
	highlighted := []string{item.ID}
	var moved *MovedRef
	if item.Moved != nil {
		m := *item.Moved
		moved = &m
		if m.FromID != "" && m.FromID != item.ID {
			highlighted = append(highlighted, m.FromID)
		}
		if m.ToID != "" && m.ToID != item.ID {
			highlighted = append(highlighted, m.ToID)
		}
	}
	c.transition(KindRepairDiffItem, item.ID, origin, Selection{
		Kind:         KindRepairDiffItem,
		RepairItemID: item.ID,
		Origin:       origin,
		Highlighted:  highlighted,
		Window:       item.Window,
		DiffType:     item.DiffType,
		Moved:        moved,
	})
}

// ClearSelection forces the Empty state from any state.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	c.current = Selection{}
	next := c.current
	c.mu.Unlock()
	c.broadcast(next)
}

// Snapshot returns the current selection.
func (c *Coordinator) Snapshot() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers for selection change events. Events are dropped
// for subscribers whose buffer is full; consumers reconcile against
// Snapshot.
func (c *Coordinator) Subscribe(buffer int) (<-chan Selection, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Selection, buffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// transition applies toggle-by-reselection then installs next.
func (c *Coordinator) transition(kind Kind, id string, origin View, next Selection) {
	c.mu.Lock()
	if c.current.Kind == kind && c.current.SelectedID() == id {
		// Same entity reselected: interpret as a deselect request.
		next = Selection{}
	}
	c.current = next
	c.mu.Unlock()

	c.log.Debug(context.Background(), "selection changed",
		logging.String("kind", string(next.Kind)),
		logging.String("id", next.SelectedID()),
		logging.String("origin", string(origin)),
		logging.Int("highlighted", len(next.Highlighted)),
	)
	c.broadcast(next)
}

func (c *Coordinator) broadcast(sel Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- sel:
		default:
		}
	}
}
