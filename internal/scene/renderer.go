// Package scene connects workspace state to the live 3-D scene and
// timeline. The renderer itself is an external collaborator consumed
// through the Renderer contract; this package owns id resolution,
// idempotent highlight application, ghost-clone lifecycle, and
// timeline focusing.
package scene

import "time"

// Handle is an opaque reference to one drawable in the live scene,
// issued and owned by the renderer.
type Handle string

// StyleSpec tells the renderer how to highlight a drawable. Exact
// visual values (colors, dash patterns) are the renderer's concern;
// this layer only names the styling intent.
type StyleSpec struct {
	// Mode is the selection kind driving the highlight.
	Mode string
	// DiffType is set when the highlight stems from a repair-diff item.
	DiffType string
	// ColorClass carries the resolved reason color for diff highlights.
	ColorClass string
	// Ghost marks the synthetic pre/post-move placeholder styling.
	Ghost bool
}

// Renderer is the drawable/timeline contract the scene and timeline
// widgets expose. Resolve misses return an empty slice: producers may
// not have mounted yet, and that is not an error.
type Renderer interface {
	// Resolve maps a scene-level entity id to live drawable handles.
	Resolve(id string) []Handle
	// ApplyStyle highlights a drawable; ClearStyle restores its
	// original styling.
	ApplyStyle(h Handle, style StyleSpec)
	ClearStyle(h Handle)
	// Clone copies a drawable's visual attributes into a new synthetic
	// drawable under newID. ok is false when the source is gone.
	Clone(h Handle, newID string) (clone Handle, ok bool)
	// RemoveClone destroys a drawable created by Clone.
	RemoveClone(h Handle)
	// ZoomTimeline sets the timeline's visible range; SetCursor jumps
	// the time cursor.
	ZoomTimeline(start, end time.Time)
	SetCursor(t time.Time)
	// TimelineVisible reports whether the timeline widget is mounted
	// and visible. It is polled, not event-driven.
	TimelineVisible() bool
}
