package scene

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/signalsfoundry/tasking-workspace/internal/logging"
	"github.com/signalsfoundry/tasking-workspace/internal/repair"
	"github.com/signalsfoundry/tasking-workspace/internal/selection"
)

const (
	// DefaultTimelinePadding widens a focused time window on each side.
	DefaultTimelinePadding = 2 * time.Minute
	// DefaultVisibilityPoll is how often Run re-checks timeline
	// visibility and reconciles against the coordinator snapshot.
	DefaultVisibilityPoll = 2 * time.Second
)

// SelectionSource is the slice of the selection coordinator the bridge
// consumes.
type SelectionSource interface {
	Snapshot() selection.Selection
	Subscribe(buffer int) (<-chan selection.Selection, func())
}

// BridgeMetrics receives highlight application counts and the live
// ghost gauge.
type BridgeMetrics interface {
	RecordHighlightApply()
	SetGhostCount(n int)
}

// Bridge is the view-effect layer: it observes selection changes and
// the current reason index, resolves domain ids to drawables, and
// instructs the renderer. Application is idempotent by construction:
// every relevant change first clears all previously applied handles
// and then applies the new set, so no cumulative style state stacks.
type Bridge struct {
	// mu serialises Refresh/Close/SetReasonIndex; renderer calls happen
	// under it, which is fine because all mutation funnels through this
	// bridge anyway.
	mu sync.Mutex

	renderer Renderer
	resolver *Resolver
	source   SelectionSource
	log      logging.Logger
	metrics  BridgeMetrics

	padding time.Duration
	poll    time.Duration

	// reasons styles diff highlights; reasonRev keys re-application
	// when the index changes.
	reasons   map[string]repair.ReasonInfo
	reasonRev int

	// lastKey is the composite dependency key of the last applied
	// highlight; Refresh is a no-op while it is unchanged.
	lastKey string
	applied []Handle
	ghost   Handle
}

// BridgeOption customises Bridge construction.
type BridgeOption func(*Bridge)

// WithTimelinePadding overrides the focus padding.
func WithTimelinePadding(pad time.Duration) BridgeOption {
	return func(b *Bridge) {
		if pad > 0 {
			b.padding = pad
		}
	}
}

// WithVisibilityPoll overrides the Run poll interval.
func WithVisibilityPoll(interval time.Duration) BridgeOption {
	return func(b *Bridge) {
		if interval > 0 {
			b.poll = interval
		}
	}
}

// WithBridgeMetrics attaches an optional metrics recorder.
func WithBridgeMetrics(m BridgeMetrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// NewBridge constructs a Bridge over the renderer, resolver, and
// selection source.
func NewBridge(renderer Renderer, resolver *Resolver, source SelectionSource, log logging.Logger, opts ...BridgeOption) *Bridge {
	if log == nil {
		log = logging.Noop()
	}
	b := &Bridge{
		renderer: renderer,
		resolver: resolver,
		source:   source,
		log:      log,
		padding:  DefaultTimelinePadding,
		poll:     DefaultVisibilityPoll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// SetReasonIndex installs the classifier output used to color diff
// highlights. The next Refresh re-applies styles even for an otherwise
// unchanged selection.
func (b *Bridge) SetReasonIndex(reasons map[string]repair.ReasonInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reasons = reasons
	b.reasonRev++
}

// Refresh reconciles the renderer with the current selection. It is
// cheap when nothing changed: the composite dependency key (selection
// kind, diff type, sorted highlight ids, reason revision) is compared
// against the last applied key and equal keys short-circuit.
func (b *Bridge) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()

	sel := b.source.Snapshot()
	key := dependencyKey(sel, b.reasonRev)
	if key == b.lastKey {
		return
	}
	b.lastKey = key

	// Unconditionally clear the previous application rather than
	// diffing old against new; this is what keeps application
	// idempotent across overlapping highlight sets.
	b.clearApplied()

	if sel.Empty() {
		return
	}

	style := b.styleFor(sel)
	handles := b.resolver.ResolveEntityIDs(sel.Highlighted)
	for _, h := range handles {
		b.renderer.ApplyStyle(h, style)
	}
	b.applied = handles

	b.maybeCreateGhost(sel, style)
	b.focusTimeline(sel)

	if b.metrics != nil {
		b.metrics.RecordHighlightApply()
	}
	b.log.Debug(context.Background(), "highlight applied",
		logging.String("kind", string(sel.Kind)),
		logging.String("diff_type", string(sel.DiffType)),
		logging.Int("handles", len(handles)),
	)
}

// Run subscribes to selection changes and polls timeline visibility at
// a coarse interval until ctx is done. Every wakeup funnels through
// Refresh, so missed events and visibility flips both reconcile from
// the snapshot.
func (b *Bridge) Run(ctx context.Context) {
	events, unsubscribe := b.source.Subscribe(16)
	defer unsubscribe()

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	b.Refresh()
	for {
		select {
		case <-ctx.Done():
			b.Close()
			return
		case <-events:
			b.Refresh()
		case <-ticker.C:
			b.Refresh()
		}
	}
}

// Close clears every applied style and destroys any live ghost. Ghosts
// must never leak into the persistent scene.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearApplied()
	b.lastKey = ""
}

func (b *Bridge) clearApplied() {
	for _, h := range b.applied {
		b.renderer.ClearStyle(h)
	}
	b.applied = nil
	b.removeGhost()
}

func (b *Bridge) styleFor(sel selection.Selection) StyleSpec {
	style := StyleSpec{
		Mode:     string(sel.Kind),
		DiffType: string(sel.DiffType),
	}
	if info, ok := b.reasons[sel.SelectedID()]; ok {
		style.ColorClass = info.ColorClass
	}
	return style
}

// maybeCreateGhost synthesizes a placeholder drawable for a moved
// repair-diff item whose post-move id has no live counterpart yet. The
// clone copies the visual attributes of a drawable that does resolve
// for the item and is styled as a ghost.
func (b *Bridge) maybeCreateGhost(sel selection.Selection, style StyleSpec) {
	if sel.Kind != selection.KindRepairDiffItem || sel.DiffType != selection.DiffMoved || sel.Moved == nil {
		return
	}
	ghostFor := sel.Moved.ToID
	if ghostFor == "" {
		return
	}
	if len(b.resolver.ResolveEntityIDs([]string{ghostFor})) > 0 {
		// A live drawable exists for the post-move position; nothing
		// to synthesize.
		return
	}

	source := b.resolver.ResolveEntityIDs([]string{sel.Moved.FromID, sel.RepairItemID})
	if len(source) == 0 {
		// Resolution miss: tolerated silently, the producer may not
		// have mounted yet.
		return
	}

	clone, ok := b.renderer.Clone(source[0], GhostID(ghostFor))
	if !ok {
		return
	}
	ghostStyle := style
	ghostStyle.Ghost = true
	b.renderer.ApplyStyle(clone, ghostStyle)
	b.ghost = clone
	if b.metrics != nil {
		b.metrics.SetGhostCount(1)
	}
}

func (b *Bridge) removeGhost() {
	if b.ghost == "" {
		return
	}
	b.renderer.RemoveClone(b.ghost)
	b.ghost = ""
	if b.metrics != nil {
		b.metrics.SetGhostCount(0)
	}
}

// focusTimeline zooms the timeline to the selection's padded window and
// jumps the cursor to the window start. Requests are dropped when the
// timeline is not visible or when the selection originated there; the
// origin view must not be scrolled by its own selection.
func (b *Bridge) focusTimeline(sel selection.Selection) {
	if sel.Window.IsZero() {
		return
	}
	if sel.Origin == selection.ViewTimeline {
		return
	}
	if !b.renderer.TimelineVisible() {
		// Dropped, not queued: the request re-fires only on the next
		// distinct highlight change.
		return
	}
	padded := sel.Window.Padded(b.padding)
	b.renderer.ZoomTimeline(padded.Start, padded.End)
	b.renderer.SetCursor(sel.Window.Start)
}

// dependencyKey is the explicit equality check standing in for reactive
// re-render scheduling: mode, diff type, origin, sorted id list, and
// reason revision.
func dependencyKey(sel selection.Selection, reasonRev int) string {
	if sel.Empty() {
		return ""
	}
	ids := append([]string(nil), sel.Highlighted...)
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString(string(sel.Kind))
	sb.WriteByte('|')
	sb.WriteString(string(sel.DiffType))
	sb.WriteByte('|')
	sb.WriteString(string(sel.Origin))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(ids, ","))
	sb.WriteByte('|')
	sb.WriteString(sel.Window.Start.Format(time.RFC3339Nano))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(reasonRev))
	return sb.String()
}
