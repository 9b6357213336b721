package repair

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/tasking-workspace/model"
)

// Default heuristic weights for entries without explicit value data.
// The exact tuning is a product heuristic, not a contract; callers may
// override via Weights.
const (
	DefaultDropWeight     = 10.0
	DefaultAddWeight      = 10.0
	DefaultMoveWeight     = 4.0
	DefaultRollDeltaScale = 2.0 // per degree of roll change
)

// DefaultTopN bounds the contributor list when the caller passes n <= 0.
const DefaultTopN = 5

// Weights configures impact magnitudes for entries lacking explicit
// values.
type Weights struct {
	Drop           float64
	Add            float64
	Move           float64
	RollDeltaScale float64
}

// DefaultWeights returns the package defaults.
func DefaultWeights() Weights {
	return Weights{
		Drop:           DefaultDropWeight,
		Add:            DefaultAddWeight,
		Move:           DefaultMoveWeight,
		RollDeltaScale: DefaultRollDeltaScale,
	}
}

func (w Weights) orDefaults() Weights {
	d := DefaultWeights()
	if w.Drop <= 0 {
		w.Drop = d.Drop
	}
	if w.Add <= 0 {
		w.Add = d.Add
	}
	if w.Move <= 0 {
		w.Move = d.Move
	}
	if w.RollDeltaScale <= 0 {
		w.RollDeltaScale = d.RollDeltaScale
	}
	return w
}

// ContributorKind classifies a contributor entry.
type ContributorKind string

const (
	ContributorDropped ContributorKind = "dropped"
	ContributorAdded   ContributorKind = "added"
	ContributorMoved   ContributorKind = "moved"
)

// Contributor is one ranked explanation of the diff. Impact is signed
// (dropped entries penalize, added entries reward); ranking uses its
// absolute value.
type Contributor struct {
	ID      string
	Kind    ContributorKind
	Impact  float64
	Summary string
	Reason  ReasonInfo
}

// DeriveTopContributors ranks the batch's entries by absolute impact,
// descending, and truncates to n (DefaultTopN when n <= 0). Ties keep
// insertion order: dropped before added before moved, mirroring the
// narrative priority. Output is deterministic for a fixed batch. The
// optional previews lookup enriches summaries with satellite/target
// context.
func DeriveTopContributors(diff *model.RepairDiff, previews map[string]model.AcquisitionPreview, w Weights, n int) []Contributor {
	if diff == nil {
		return nil
	}
	w = w.orDefaults()
	if n <= 0 {
		n = DefaultTopN
	}

	contributors := make([]Contributor, 0, len(diff.Dropped)+len(diff.Added)+len(diff.Moved))

	for _, e := range diff.Dropped {
		contributors = append(contributors, Contributor{
			ID:      e.ID,
			Kind:    ContributorDropped,
			Impact:  -w.Drop,
			Summary: droppedSummary(e, previews),
			Reason:  resolveReason(e.ReasonCode, e.Reason),
		})
	}
	for _, e := range diff.Added {
		impact := w.Add
		if e.HasValue {
			impact = e.Value
		}
		contributors = append(contributors, Contributor{
			ID:      e.ID,
			Kind:    ContributorAdded,
			Impact:  impact,
			Summary: addedSummary(e, previews),
			Reason:  resolveReason(e.ReasonCode, e.Reason),
		})
	}
	for _, e := range diff.Moved {
		impact := w.Move
		if e.HasRollDelta {
			impact = w.RollDeltaScale * math.Abs(e.RollDeltaDeg)
		}
		contributors = append(contributors, Contributor{
			ID:      e.ID,
			Kind:    ContributorMoved,
			Impact:  impact,
			Summary: movedSummary(e),
			Reason:  resolveReason(e.ReasonCode, "moved by repair"),
		})
	}

	// Stable sort: equal magnitudes keep the dropped/added/moved
	// insertion order established above.
	sort.SliceStable(contributors, func(i, j int) bool {
		return math.Abs(contributors[i].Impact) > math.Abs(contributors[j].Impact)
	})

	if len(contributors) > n {
		contributors = contributors[:n]
	}
	return contributors
}

func droppedSummary(e model.DroppedEntry, previews map[string]model.AcquisitionPreview) string {
	reason := resolveReason(e.ReasonCode, e.Reason)
	base := fmt.Sprintf("Dropped %s: %s", describeAcquisition(e.ID, previews), reason.Label)
	if len(e.SupersededBy) == 1 {
		return fmt.Sprintf("%s (replaced by %s)", base, e.SupersededBy[0])
	}
	if len(e.SupersededBy) > 1 {
		return fmt.Sprintf("%s (replaced by %d acquisitions)", base, len(e.SupersededBy))
	}
	return base
}

func addedSummary(e model.AddedEntry, previews map[string]model.AcquisitionPreview) string {
	base := fmt.Sprintf("Added %s", describeAcquisition(e.ID, previews))
	if e.HasValue {
		base = fmt.Sprintf("%s worth %.1f", base, e.Value)
	}
	if len(e.Supersedes) > 0 {
		return fmt.Sprintf("%s, replacing %d dropped", base, len(e.Supersedes))
	}
	return base
}

func movedSummary(e model.MovedEntry) string {
	shift := e.To.Start.Sub(e.From.Start)
	direction := "later"
	if shift < 0 {
		direction = "earlier"
		shift = -shift
	}
	base := fmt.Sprintf("Moved %s %s %s", e.ID, shift, direction)
	if e.HasRollDelta {
		return fmt.Sprintf("%s with a %.1f degree roll change", base, math.Abs(e.RollDeltaDeg))
	}
	return base
}

// describeAcquisition enriches an id with preview context when known.
func describeAcquisition(id string, previews map[string]model.AcquisitionPreview) string {
	p, ok := previews[id]
	if !ok {
		return id
	}
	switch {
	case p.TargetID != "" && p.SatelliteID != "":
		return fmt.Sprintf("%s (%s on %s)", id, p.TargetID, p.SatelliteID)
	case p.TargetID != "":
		return fmt.Sprintf("%s (%s)", id, p.TargetID)
	case p.SatelliteID != "":
		return fmt.Sprintf("%s (on %s)", id, p.SatelliteID)
	default:
		return id
	}
}
