package selection

import "github.com/signalsfoundry/tasking-workspace/model"

// FilterView names the list panels that carry independent context
// filters. Filters narrow list displays only; they are orthogonal to
// the selection state and survive selection changes.
type FilterView string

const (
	FilterAnalysis FilterView = "analysis"
	FilterPlanning FilterView = "planning"
	FilterSchedule FilterView = "schedule"
)

// Filter is one view's narrowing record. Nil fields mean "no filter on
// this dimension".
type Filter struct {
	TargetID      *string
	SatelliteID   *string
	LookSide      *model.LookSide
	PassDirection *model.PassDirection
}

// FilterPatch is a partial filter update; nil fields are left
// unchanged by SetContextFilter.
type FilterPatch struct {
	TargetID      *string
	SatelliteID   *string
	LookSide      *model.LookSide
	PassDirection *model.PassDirection
}

// Matches reports whether an acquisition passes every set dimension.
func (f Filter) Matches(a model.AcquisitionSummary) bool {
	if f.TargetID != nil && a.TargetID != *f.TargetID {
		return false
	}
	if f.SatelliteID != nil && a.SatelliteID != *f.SatelliteID {
		return false
	}
	if f.LookSide != nil && a.LookSide != *f.LookSide {
		return false
	}
	if f.PassDirection != nil && a.PassDirection != *f.PassDirection {
		return false
	}
	return true
}

// SetContextFilter merges patch into the named view's filter. Other
// views and the selection state are untouched.
func (c *Coordinator) SetContextFilter(view FilterView, patch FilterPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.filters[view]
	if patch.TargetID != nil {
		f.TargetID = patch.TargetID
	}
	if patch.SatelliteID != nil {
		f.SatelliteID = patch.SatelliteID
	}
	if patch.LookSide != nil {
		f.LookSide = patch.LookSide
	}
	if patch.PassDirection != nil {
		f.PassDirection = patch.PassDirection
	}
	c.filters[view] = f
}

// ClearContextFilter resets only the named view's filter to all-null.
func (c *Coordinator) ClearContextFilter(view FilterView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.filters, view)
}

// ContextFilter returns the named view's current filter.
func (c *Coordinator) ContextFilter(view FilterView) Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters[view]
}
