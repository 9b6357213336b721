package model

// ReasonCode is a structured explanation attached to a repair-diff entry.
// The scheduler emits these alongside free-text reasons; clients prefer
// the code when present and fall back to the text.
type ReasonCode string

const (
	ReasonUnknown     ReasonCode = ""
	ReasonConflict    ReasonCode = "CONFLICT"
	ReasonSuperseded  ReasonCode = "SUPERSEDED"
	ReasonLowValue    ReasonCode = "LOW_VALUE"
	ReasonHigherValue ReasonCode = "HIGHER_VALUE"
	ReasonCapacity    ReasonCode = "CAPACITY"
	ReasonGeometry    ReasonCode = "GEOMETRY"
	ReasonLocked      ReasonCode = "LOCKED"
)

// KeptEntry marks an acquisition present and unchanged in both the
// baseline and the proposed schedule.
type KeptEntry struct {
	ID string
}

// DroppedEntry describes an acquisition removed by the proposed repair.
type DroppedEntry struct {
	ID         string
	ReasonCode ReasonCode
	Reason     string
	// SupersededBy lists acquisition IDs that replaced this one.
	SupersededBy []string
}

// AddedEntry describes an acquisition introduced by the proposed repair.
type AddedEntry struct {
	ID         string
	ReasonCode ReasonCode
	Reason     string
	// Value is the scheduler score of the added acquisition, when known.
	Value float64
	// HasValue distinguishes an explicit zero from an absent value.
	HasValue bool
	// Supersedes lists baseline acquisition IDs this entry replaces.
	Supersedes []string
}

// MovedEntry describes an acquisition retained but shifted in time
// and/or pointing.
type MovedEntry struct {
	ID         string
	From       TimeWindow
	To         TimeWindow
	ReasonCode ReasonCode
	// RollDeltaDeg is the change in roll angle in degrees; zero when the
	// move is purely temporal. HasRollDelta guards the distinction.
	RollDeltaDeg float64
	HasRollDelta bool
}

// ChangeScore summarises the overall magnitude of a repair diff.
type ChangeScore struct {
	NumChanges     int
	PercentChanged float64
	// ScoreDelta is proposed total score minus baseline total score.
	ScoreDelta float64
	// ConflictDelta is proposed conflict count minus baseline conflict count.
	ConflictDelta int
}

// RepairDiff is one immutable batch of classified deltas between a
// baseline schedule and a proposed repaired schedule. The diff is
// computed server-side; this layer only consumes it.
type RepairDiff struct {
	Kept    []KeptEntry
	Dropped []DroppedEntry
	Added   []AddedEntry
	Moved   []MovedEntry
	Score   ChangeScore
}

// Empty reports whether the diff carries no changes at all.
func (d *RepairDiff) Empty() bool {
	return d == nil || (len(d.Dropped) == 0 && len(d.Added) == 0 && len(d.Moved) == 0)
}
