// Package repair turns server-computed repair diffs into per-item
// reasons, ranked top-contributor explanations, and narrative text.
// Everything here is pure: no state, no I/O, deterministic output for
// a given batch.
package repair

import "github.com/signalsfoundry/tasking-workspace/model"

// ReasonInfo is the renderable explanation for one diff entry: a short
// human label, the structured code it came from, and a stable color
// class for the UI to map onto styling.
type ReasonInfo struct {
	Code       model.ReasonCode
	Label      string
	ColorClass string
}

// reasonTable maps structured reason codes onto labels and colors.
var reasonTable = map[model.ReasonCode]ReasonInfo{
	model.ReasonConflict:    {model.ReasonConflict, "conflicts with another acquisition", "reason-conflict"},
	model.ReasonSuperseded:  {model.ReasonSuperseded, "superseded by a better opportunity", "reason-superseded"},
	model.ReasonLowValue:    {model.ReasonLowValue, "low score contribution", "reason-low-value"},
	model.ReasonHigherValue: {model.ReasonHigherValue, "higher-value alternative", "reason-higher-value"},
	model.ReasonCapacity:    {model.ReasonCapacity, "capacity limit reached", "reason-capacity"},
	model.ReasonGeometry:    {model.ReasonGeometry, "geometry no longer feasible", "reason-geometry"},
	model.ReasonLocked:      {model.ReasonLocked, "protected by a hard lock", "reason-locked"},
}

const genericColorClass = "reason-generic"

// resolveReason prefers a structured code and falls back to the entry's
// free-text reason string.
func resolveReason(code model.ReasonCode, freeText string) ReasonInfo {
	if info, ok := reasonTable[code]; ok {
		return info
	}
	label := freeText
	if label == "" {
		label = "changed by repair"
	}
	return ReasonInfo{Code: code, Label: label, ColorClass: genericColorClass}
}

// BuildReasonIndex maps every changed acquisition id in the batch to
// its renderable reason. Kept entries carry no reason and are absent.
func BuildReasonIndex(diff *model.RepairDiff) map[string]ReasonInfo {
	index := make(map[string]ReasonInfo)
	if diff == nil {
		return index
	}
	for _, e := range diff.Dropped {
		index[e.ID] = resolveReason(e.ReasonCode, e.Reason)
	}
	for _, e := range diff.Added {
		index[e.ID] = resolveReason(e.ReasonCode, e.Reason)
	}
	for _, e := range diff.Moved {
		index[e.ID] = resolveReason(e.ReasonCode, "moved by repair")
	}
	return index
}
