package plancache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatomai/streamgrid/internal/compiler"
	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/descriptor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/plancache"
)

// fakeMirror records Seen/MarkSeen calls without any real network hop.
type fakeMirror struct {
	seen        map[plancache.Key]bool
	seenCalls   int
	markCalls   int
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{seen: make(map[plancache.Key]bool)}
}

func (m *fakeMirror) Seen(k plancache.Key) bool {
	m.seenCalls++
	return m.seen[k]
}

func (m *fakeMirror) MarkSeen(k plancache.Key) {
	m.markCalls++
	m.seen[k] = true
}

func testShape() (descriptor.ShapeID, *descriptor.Node, *compiler.Schema) {
	root := descriptor.Root(descriptor.Field("id", "Id", cursor.Int64))
	schema := compiler.NewSchema([]compiler.ColumnMeta{{Name: "Id", Type: cursor.Int64}})
	return "resolver-shape", root, schema
}

func TestResolver_MissThenHit(t *testing.T) {
	cache := plancache.New()
	mirror := newFakeMirror()
	resolver := plancache.NewResolver(cache, mirror)
	shapeID, root, schema := testShape()
	sink := &events.CollectSink{}

	p1, err := resolver.Resolve(shapeID, root, schema, sink, "corr-1", compiler.Options{})
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, mirror.markCalls)

	p2, err := resolver.Resolve(shapeID, root, schema, sink, "corr-2", compiler.Options{})
	require.NoError(t, err)
	assert.Same(t, p1, p2, "a cache hit must return the exact same compiled plan, not a recompile")

	var categories []events.Category
	for _, e := range sink.Snapshot() {
		categories = append(categories, e.Category)
	}
	assert.Contains(t, categories, events.PlanCacheMiss)
	assert.Contains(t, categories, events.PlanCacheHit)
}

func TestResolver_ConsultsMirrorOnlyOnLocalMiss(t *testing.T) {
	cache := plancache.New()
	mirror := newFakeMirror()
	resolver := plancache.NewResolver(cache, mirror)
	shapeID, root, schema := testShape()
	sink := events.NullSink{}

	_, err := resolver.Resolve(shapeID, root, schema, sink, "corr-1", compiler.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, mirror.seenCalls)

	_, err = resolver.Resolve(shapeID, root, schema, sink, "corr-2", compiler.Options{})
	require.NoError(t, err)
	// The second call is a local cache hit; the mirror must not be
	// consulted again.
	assert.Equal(t, 1, mirror.seenCalls)
}

func TestResolver_WorksWithoutMirror(t *testing.T) {
	cache := plancache.New()
	resolver := plancache.NewResolver(cache, nil)
	shapeID, root, schema := testShape()

	p, err := resolver.Resolve(shapeID, root, schema, events.NullSink{}, "corr-1", compiler.Options{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCache_GetPutLen(t *testing.T) {
	cache := plancache.New()
	assert.Equal(t, 0, cache.Len())

	shapeID, root, schema := testShape()
	p, err := compiler.Compile(shapeID, root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	key := plancache.Key{ShapeID: string(shapeID), SchemaFingerprint: schema.Fingerprint()}
	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Put(key, p)
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1, cache.Len())
}
