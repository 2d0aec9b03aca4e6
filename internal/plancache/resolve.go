package plancache

import (
	"time"

	"github.com/quantatomai/streamgrid/internal/compiler"
	"github.com/quantatomai/streamgrid/internal/descriptor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/plan"
)

// Mirror is an optional cross-instance signal for whether a
// (shape, schema) pair has been compiled somewhere before. It never
// carries the compiled plan itself — only the fact of a prior sighting
// — so a cold replica still pays one real compile, but its
// plan-cache-miss telemetry reflects cluster-wide reality rather than
// this process's own empty cache. RedisPlanCacheMirror (redis_mirror.go)
// is the production implementation.
type Mirror interface {
	Seen(k Key) bool
	MarkSeen(k Key)
}

// Resolver ties the plan cache to the compiler: Resolve looks up a
// plan by (shapeID, schema), compiling and caching it on a miss, and
// emits plan-cache-hit/plan-cache-miss events either way.
type Resolver struct {
	cache  *Cache
	mirror Mirror
}

// NewResolver wires a cache with an optional cross-instance mirror
// (pass nil to run single-instance only).
func NewResolver(cache *Cache, mirror Mirror) *Resolver {
	return &Resolver{cache: cache, mirror: mirror}
}

// Resolve returns the compiled plan for shapeID against schema,
// compiling on a cache miss.
func (r *Resolver) Resolve(
	shapeID descriptor.ShapeID,
	root *descriptor.Node,
	schema *compiler.Schema,
	sink events.Sink,
	correlationID string,
	opts compiler.Options,
) (*plan.Plan, error) {
	key := Key{ShapeID: string(shapeID), SchemaFingerprint: schema.Fingerprint()}

	if p, ok := r.cache.Get(key); ok {
		sink.Emit(events.Event{Category: events.PlanCacheHit, CorrelationID: correlationID, Fields: map[string]string{"shapeId": string(shapeID)}})
		return p, nil
	}

	clusterSeen := r.mirror != nil && r.mirror.Seen(key)
	sink.Emit(events.Event{
		Category:      events.PlanCacheMiss,
		CorrelationID: correlationID,
		Fields:        map[string]string{"shapeId": string(shapeID), "clusterSeen": boolString(clusterSeen)},
	})

	p, err := compiler.Compile(shapeID, root, schema, sink, correlationID, opts)
	if err != nil {
		return nil, err
	}

	r.cache.Put(key, p)
	if r.mirror != nil {
		r.mirror.MarkSeen(key)
	}
	return p, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
