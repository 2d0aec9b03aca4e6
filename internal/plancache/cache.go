// Package plancache implements C6: a plan cache keyed by
// (shape_id, schema_fingerprint). Reads never block on writes — the
// live map is an immutable snapshot swapped atomically (copy-on-write),
// giving lock-free reads with serialized writers. Writers still serialize
// through a mutex so two concurrent compiles of the same key don't
// race to publish.
package plancache

import (
	"sync"
	"sync/atomic"

	"github.com/quantatomai/streamgrid/internal/plan"
)

// Key identifies one compiled plan.
type Key struct {
	ShapeID           string
	SchemaFingerprint uint64
}

// Cache is safe for concurrent use. Eviction is not required per
// spec (plans are small), so entries live for process lifetime.
type Cache struct {
	writeMu sync.Mutex
	live    atomic.Pointer[map[Key]*plan.Plan]
}

// New returns an empty, ready-to-use cache.
func New() *Cache {
	c := &Cache{}
	empty := make(map[Key]*plan.Plan)
	c.live.Store(&empty)
	return c
}

// Get performs a lock-free lookup.
func (c *Cache) Get(k Key) (*plan.Plan, bool) {
	m := *c.live.Load()
	p, ok := m[k]
	return p, ok
}

// Put installs p under k, replacing the live snapshot. Concurrent
// writers serialize here; concurrent readers are unaffected and will
// observe either the old or the new snapshot, never a torn one.
func (c *Cache) Put(k Key, p *plan.Plan) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	old := *c.live.Load()
	next := make(map[Key]*plan.Plan, len(old)+1)
	for k2, v := range old {
		next[k2] = v
	}
	next[k] = p
	c.live.Store(&next)
}

// Len reports the number of cached plans, for diagnostics/metrics.
func (c *Cache) Len() int {
	return len(*c.live.Load())
}
