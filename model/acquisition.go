package model

import "time"

// LookSide is the side of the ground track a sensor looks toward during a pass.
type LookSide string

const (
	LookSideLeft  LookSide = "left"
	LookSideRight LookSide = "right"
)

// PassDirection is the orbital direction of a pass over a target.
type PassDirection string

const (
	PassAscending  PassDirection = "ascending"
	PassDescending PassDirection = "descending"
)

// TimeWindow is a closed interval of schedule time.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the window carries no times.
func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Duration returns the window length; zero when the window is inverted.
func (w TimeWindow) Duration() time.Duration {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Padded widens the window by pad on each side.
func (w TimeWindow) Padded(pad time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(-pad), End: w.End.Add(pad)}
}

// AcquisitionSummary is the schedule-level view of a single
// satellite-to-target imaging event, as returned by the scheduler API.
type AcquisitionSummary struct {
	ID          string
	TargetID    string
	SatelliteID string
	Window      TimeWindow

	LookSide      LookSide
	PassDirection PassDirection

	// Value is the scheduler's score contribution for this acquisition.
	Value float64

	// LockLevel is the server-side ground truth at fetch time; it seeds
	// the client lock store and is not updated afterwards.
	LockLevel LockLevel

	// Executed acquisitions can no longer be unlocked server-side.
	Executed bool
}

// AcquisitionPreview is the subset of acquisition data used to enrich
// repair-diff reason summaries. Previews come from the proposed
// (post-repair) schedule, so they may describe acquisitions that do not
// exist in the baseline.
type AcquisitionPreview struct {
	SatelliteID string
	TargetID    string
	Window      TimeWindow
}
