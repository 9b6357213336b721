package repair

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/tasking-workspace/model"
)

const noChangesSentence = "No changes needed: the proposed schedule matches the baseline."

// Summarize produces the deterministic narrative for a repair diff: one
// sentence per nonzero category, one for the score delta sign, one for
// the conflict delta sign, joined with single spaces. An empty diff
// short-circuits to a fixed sentence.
//
// Dropped and added entries are narrated as replacements pairwise; the
// surplus on either side becomes a plain drop or add sentence.
func Summarize(diff *model.RepairDiff) string {
	if diff.Empty() {
		return noChangesSentence
	}

	replaced := min(len(diff.Dropped), len(diff.Added))
	extraDropped := len(diff.Dropped) - replaced
	extraAdded := len(diff.Added) - replaced

	var sentences []string
	if replaced > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Replaced %d %s with %d higher-value %s.",
			replaced, pluralAcquisitions(replaced),
			replaced, pluralAlternatives(replaced),
		))
	}
	if extraAdded > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Added %d new %s.", extraAdded, pluralAcquisitions(extraAdded)))
	}
	if extraDropped > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Dropped %d %s.", extraDropped, pluralAcquisitions(extraDropped)))
	}
	if moved := len(diff.Moved); moved > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Moved %d %s.", moved, pluralAcquisitions(moved)))
	}
	if kept := len(diff.Kept); kept > 0 {
		sentences = append(sentences, fmt.Sprintf(
			"Kept %d %s unchanged.", kept, pluralAcquisitions(kept)))
	}

	sentences = append(sentences, scoreSentence(diff.Score.ScoreDelta))
	sentences = append(sentences, conflictSentence(diff.Score.ConflictDelta))

	return strings.Join(sentences, " ")
}

func scoreSentence(delta float64) string {
	switch {
	case delta > 0:
		return "Overall schedule score improves."
	case delta < 0:
		return "Overall schedule score decreases."
	default:
		return "Overall schedule score is unchanged."
	}
}

func conflictSentence(delta int) string {
	switch {
	case delta < 0:
		return fmt.Sprintf("Conflicts decrease by %d.", -delta)
	case delta > 0:
		return fmt.Sprintf("Conflicts increase by %d.", delta)
	default:
		return "Conflict count is unchanged."
	}
}

func pluralAcquisitions(n int) string {
	if n == 1 {
		return "acquisition"
	}
	return "acquisitions"
}

func pluralAlternatives(n int) string {
	if n == 1 {
		return "alternative"
	}
	return "alternatives"
}
