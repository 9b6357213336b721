package selection

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signalsfoundry/tasking-workspace/model"
)

func TestMutualExclusivity(t *testing.T) {
	c := NewCoordinator(nil)

	c.SelectAcquisition("A1", ViewTable)
	c.SelectTarget("T1", ViewMap)

	sel := c.Snapshot()
	if sel.AcquisitionID != "" {
		t.Fatalf("AcquisitionID = %q, want empty after target selection", sel.AcquisitionID)
	}
	if sel.TargetID != "T1" {
		t.Fatalf("TargetID = %q, want T1", sel.TargetID)
	}
	if sel.Kind != KindTarget {
		t.Fatalf("Kind = %q, want target", sel.Kind)
	}
	if diff := cmp.Diff([]string{"T1"}, sel.Highlighted); diff != "" {
		t.Fatalf("highlighted mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleByReselection(t *testing.T) {
	c := NewCoordinator(nil)

	c.SelectConflict("C1", []string{"A1", "A2"}, ViewInspector)
	if sel := c.Snapshot(); sel.ConflictID != "C1" {
		t.Fatalf("ConflictID = %q, want C1", sel.ConflictID)
	}

	c.SelectConflict("C1", []string{"A1", "A2"}, ViewInspector)
	sel := c.Snapshot()
	if !sel.Empty() {
		t.Fatalf("expected Empty state after reselection, got %+v", sel)
	}
	if len(sel.Highlighted) != 0 {
		t.Fatalf("highlight set not cleared: %v", sel.Highlighted)
	}
}

func TestConflictHighlightsMembers(t *testing.T) {
	c := NewCoordinator(nil)
	members := []string{"A1", "A2", "A3"}
	c.SelectConflict("C1", members, ViewMap)

	sel := c.Snapshot()
	if diff := cmp.Diff(members, sel.Highlighted); diff != "" {
		t.Fatalf("highlighted mismatch (-want +got):\n%s", diff)
	}

	// The coordinator owns its copy of the member list.
	members[0] = "mutated"
	if got := c.Snapshot().Highlighted[0]; got != "A1" {
		t.Fatalf("highlight set aliased caller slice: %q", got)
	}
}

func TestRepairDiffItemCarriesWindowAndMovedPair(t *testing.T) {
	c := NewCoordinator(nil)
	window := model.TimeWindow{
		Start: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC),
	}
	c.SelectRepairDiffItem(RepairItemRef{
		ID:       "A9",
		DiffType: DiffMoved,
		Window:   window,
		Moved:    &MovedRef{FromID: "A9-before", ToID: "A9"},
	}, ViewRepair)

	sel := c.Snapshot()
	if sel.Kind != KindRepairDiffItem || sel.RepairItemID != "A9" {
		t.Fatalf("selection = %+v", sel)
	}
	if !sel.Window.Start.Equal(window.Start) {
		t.Fatalf("window = %+v, want %+v", sel.Window, window)
	}
	if sel.Moved == nil || sel.Moved.FromID != "A9-before" {
		t.Fatalf("moved ref = %+v", sel.Moved)
	}
	if diff := cmp.Diff([]string{"A9", "A9-before"}, sel.Highlighted); diff != "" {
		t.Fatalf("highlighted mismatch (-want +got):\n%s", diff)
	}
}

func TestClearSelection(t *testing.T) {
	c := NewCoordinator(nil)
	c.SelectOpportunity("O1", ViewTimeline)
	c.ClearSelection()
	if sel := c.Snapshot(); !sel.Empty() {
		t.Fatalf("expected empty selection, got %+v", sel)
	}
	// Clearing from Empty is also legal.
	c.ClearSelection()
}

func TestOriginViewRetained(t *testing.T) {
	c := NewCoordinator(nil)
	c.SelectAcquisition("A1", ViewMap)
	if got := c.Snapshot().Origin; got != ViewMap {
		t.Fatalf("origin = %q, want map", got)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	c := NewCoordinator(nil)
	ch, unsub := c.Subscribe(4)
	defer unsub()

	c.SelectTarget("T1", ViewTable)
	sel := <-ch
	if sel.TargetID != "T1" {
		t.Fatalf("event TargetID = %q, want T1", sel.TargetID)
	}

	c.SelectTarget("T1", ViewTable) // toggle off
	sel = <-ch
	if !sel.Empty() {
		t.Fatalf("expected empty event after toggle, got %+v", sel)
	}
}

func TestContextFiltersOrthogonalToSelection(t *testing.T) {
	c := NewCoordinator(nil)
	target := "T1"
	side := model.LookSideLeft
	c.SetContextFilter(FilterPlanning, FilterPatch{TargetID: &target, LookSide: &side})

	// Selection transitions never touch context filters.
	c.SelectAcquisition("A1", ViewTable)
	c.ClearSelection()

	f := c.ContextFilter(FilterPlanning)
	if f.TargetID == nil || *f.TargetID != "T1" {
		t.Fatalf("filter target = %v, want T1", f.TargetID)
	}
	if f.LookSide == nil || *f.LookSide != model.LookSideLeft {
		t.Fatalf("filter look side = %v", f.LookSide)
	}
}

func TestSetContextFilterMerges(t *testing.T) {
	c := NewCoordinator(nil)
	target := "T1"
	sat := "SAT-7"
	c.SetContextFilter(FilterAnalysis, FilterPatch{TargetID: &target})
	c.SetContextFilter(FilterAnalysis, FilterPatch{SatelliteID: &sat})

	f := c.ContextFilter(FilterAnalysis)
	if f.TargetID == nil || *f.TargetID != "T1" {
		t.Fatalf("merge dropped target: %v", f.TargetID)
	}
	if f.SatelliteID == nil || *f.SatelliteID != "SAT-7" {
		t.Fatalf("merge missed satellite: %v", f.SatelliteID)
	}
}

func TestClearContextFilterResetsOnlyThatView(t *testing.T) {
	c := NewCoordinator(nil)
	target := "T1"
	c.SetContextFilter(FilterAnalysis, FilterPatch{TargetID: &target})
	c.SetContextFilter(FilterSchedule, FilterPatch{TargetID: &target})

	c.ClearContextFilter(FilterAnalysis)

	if f := c.ContextFilter(FilterAnalysis); f.TargetID != nil {
		t.Fatalf("analysis filter not cleared: %v", f.TargetID)
	}
	if f := c.ContextFilter(FilterSchedule); f.TargetID == nil {
		t.Fatalf("schedule filter unexpectedly cleared")
	}
}

func TestFilterMatches(t *testing.T) {
	target := "T1"
	side := model.LookSideRight
	f := Filter{TargetID: &target, LookSide: &side}

	match := model.AcquisitionSummary{ID: "A1", TargetID: "T1", LookSide: model.LookSideRight}
	miss := model.AcquisitionSummary{ID: "A2", TargetID: "T1", LookSide: model.LookSideLeft}

	if !f.Matches(match) {
		t.Fatalf("expected %s to match", match.ID)
	}
	if f.Matches(miss) {
		t.Fatalf("expected %s to miss", miss.ID)
	}
}
