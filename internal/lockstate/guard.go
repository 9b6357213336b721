package lockstate

import "sync"

// Guarded is an optimistic map with a per-key in-flight guard. Begin
// applies a value immediately and marks the key pending; a later Commit
// settles it and Rollback restores the pre-Begin value. While a key is
// pending, further Begin calls for it are rejected rather than queued,
// so at most one mutation per key is ever in flight.
//
// Values equal to the map's default are stored as absence: a rollback to
// the default removes the entry instead of writing an explicit default.
type Guarded[K comparable, V comparable] struct {
	mu      sync.Mutex
	def     V
	values  map[K]V
	pending map[K]struct{}
}

// NewGuarded constructs an empty guarded map whose implicit value for
// absent keys is def.
func NewGuarded[K comparable, V comparable](def V) *Guarded[K, V] {
	return &Guarded[K, V]{
		def:     def,
		values:  make(map[K]V),
		pending: make(map[K]struct{}),
	}
}

// Get returns the current value for key, or the default when absent.
func (g *Guarded[K, V]) Get(key K) V {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getLocked(key)
}

// Pending reports whether key has a mutation in flight.
func (g *Guarded[K, V]) Pending(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}

// Begin optimistically writes next for key and marks it pending. It
// returns the previous value and true on success. It returns false,
// leaving the map untouched, when the key is already pending or already
// holds next.
func (g *Guarded[K, V]) Begin(key K, next V) (prev V, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, inflight := g.pending[key]; inflight {
		return g.def, false
	}
	prev = g.getLocked(key)
	if prev == next {
		return prev, false
	}

	g.setLocked(key, next)
	g.pending[key] = struct{}{}
	return prev, true
}

// BeginBatch applies Begin to every key, skipping keys that are pending
// or already at next. It returns the keys actually begun, in input
// order, plus their previous values.
func (g *Guarded[K, V]) BeginBatch(keys []K, next V) (begun []K, prev map[K]V) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev = make(map[K]V)
	for _, key := range keys {
		if _, inflight := g.pending[key]; inflight {
			continue
		}
		if _, dup := prev[key]; dup {
			continue
		}
		cur := g.getLocked(key)
		if cur == next {
			continue
		}
		prev[key] = cur
		g.setLocked(key, next)
		g.pending[key] = struct{}{}
		begun = append(begun, key)
	}
	return begun, prev
}

// Commit settles a pending mutation, keeping the optimistic value.
func (g *Guarded[K, V]) Commit(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, key)
}

// Rollback restores the pre-Begin value for key and clears its guard.
// Restoring the default value removes the entry entirely.
func (g *Guarded[K, V]) Rollback(key K, prev V) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setLocked(key, prev)
	delete(g.pending, key)
}

// Seed bulk-writes values without touching guards. Entries at the
// default value are stored as absence.
func (g *Guarded[K, V]) Seed(entries map[K]V) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, value := range entries {
		g.setLocked(key, value)
	}
}

// Reset drops all values and guards.
func (g *Guarded[K, V]) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = make(map[K]V)
	g.pending = make(map[K]struct{})
}

// Snapshot returns a copy of all non-default entries.
func (g *Guarded[K, V]) Snapshot() map[K]V {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[K]V, len(g.values))
	for key, value := range g.values {
		out[key] = value
	}
	return out
}

// Counts returns the number of non-default entries and pending guards.
func (g *Guarded[K, V]) Counts() (entries, pending int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.values), len(g.pending)
}

func (g *Guarded[K, V]) getLocked(key K) V {
	if value, ok := g.values[key]; ok {
		return value
	}
	return g.def
}

func (g *Guarded[K, V]) setLocked(key K, value V) {
	if value == g.def {
		delete(g.values, key)
		return
	}
	g.values[key] = value
}
