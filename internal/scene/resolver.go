package scene

import (
	"sort"
	"sync"
)

// GhostPrefix tags synthetic drawables cloned for moved items. Ghost
// ids take the form "ghost:<domainID>".
const GhostPrefix = "ghost:"

// GhostID returns the canonical ghost entity id for a domain id.
func GhostID(domainID string) string { return GhostPrefix + domainID }

// conventionPrefixes are the naming-convention variants probed for a
// domain id beyond the id itself. Drawables come from independent
// upstream producers that do not all register through the same path;
// each producer namespaces its scene ids with one of these prefixes.
var conventionPrefixes = []string{
	"acquisition/",
	"opportunity/",
	"target/",
	"window/",
}

// Resolver maps domain identifiers to live drawable handles using an
// explicit registry plus convention probing against the renderer.
// Resolution results are cached per domain id; the cache must be
// invalidated whenever the renderer reports its drawable collection
// changed.
type Resolver struct {
	mu       sync.Mutex
	renderer Renderer
	registry map[string]map[Handle]struct{}
	cache    map[string][]Handle
}

// NewResolver constructs a Resolver over the given renderer.
func NewResolver(renderer Renderer) *Resolver {
	return &Resolver{
		renderer: renderer,
		registry: make(map[string]map[Handle]struct{}),
		cache:    make(map[string][]Handle),
	}
}

// Register records an explicit domain-id-to-drawable association, used
// by producers that report their drawables directly.
func (r *Resolver) Register(domainID string, h Handle) {
	if domainID == "" || h == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.registry[domainID]
	if !ok {
		set = make(map[Handle]struct{})
		r.registry[domainID] = set
	}
	set[h] = struct{}{}
	delete(r.cache, domainID)
}

// Unregister removes an explicit association, e.g. when a producer
// unmounts.
func (r *Resolver) Unregister(domainID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.registry[domainID]; ok {
		delete(set, h)
		if len(set) == 0 {
			delete(r.registry, domainID)
		}
	}
	delete(r.cache, domainID)
}

// ResolveEntityIDs maps domain ids to a deduplicated list of live
// drawable handles: explicit registrations first, then any
// naming-convention candidates that resolve in the scene. Ids that
// resolve to nothing contribute nothing.
func (r *Resolver) ResolveEntityIDs(domainIDs []string) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Handle
	seen := make(map[Handle]struct{})
	for _, id := range domainIDs {
		if id == "" {
			continue
		}
		for _, h := range r.resolveOneLocked(id) {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

// InvalidateCache drops cached resolutions. Call whenever the renderer
// reports its drawable collection changed; the registry survives.
func (r *Resolver) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string][]Handle)
}

func (r *Resolver) resolveOneLocked(id string) []Handle {
	if cached, ok := r.cache[id]; ok {
		return cached
	}

	var handles []Handle
	seen := make(map[Handle]struct{})
	add := func(h Handle) {
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			handles = append(handles, h)
		}
	}

	for h := range r.registry[id] {
		add(h)
	}
	for _, h := range r.renderer.Resolve(id) {
		add(h)
	}
	for _, prefix := range conventionPrefixes {
		for _, h := range r.renderer.Resolve(prefix + id) {
			add(h)
		}
	}

	// Registry iteration order is nondeterministic; normalise so equal
	// inputs produce equal outputs.
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	r.cache[id] = handles
	return handles
}
