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

func TestBindingsFromPlan_CapturesEmitFieldsInOrder(t *testing.T) {
	root := descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.ArrayPattern("tags", "Tag_"),
	)
	schema := compiler.NewSchema([]compiler.ColumnMeta{
		{Name: "Id", Type: cursor.Int64},
		{Name: "Tag_01", Type: cursor.String},
		{Name: "Tag_02", Type: cursor.String},
	})
	p, err := compiler.Compile("bindings-shape", root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	bindings := plancache.BindingsFromPlan(p)
	require.Len(t, bindings, 3)
	assert.Equal(t, "id", bindings[0].JSONName)
	// Array elements carry no per-element JSON name of their own; the
	// "tags" name lives on the surrounding BeginArray marker, which
	// BindingsFromPlan does not emit a Binding for.
	assert.Equal(t, "", bindings[1].JSONName)
	assert.Equal(t, "", bindings[2].JSONName)
	// ordinals must ascend with the underlying cursor column order.
	assert.Less(t, bindings[0].Ordinal, bindings[1].Ordinal)
	assert.Less(t, bindings[1].Ordinal, bindings[2].Ordinal)
}

func TestEncodeDecodeBindings_RoundTrip(t *testing.T) {
	bindings := []plancache.Binding{
		{JSONName: "id", Slot: 0, Ordinal: 0},
		{JSONName: "tags", Slot: 1, Ordinal: 1},
		{JSONName: "tags", Slot: 2, Ordinal: 2},
	}

	wire := plancache.EncodeBindings(bindings)
	require.NotEmpty(t, wire)

	names, ordinals, err := plancache.DecodeBindings(wire)
	require.NoError(t, err)
	require.Len(t, names, 3)
	require.Len(t, ordinals, 3)

	assert.Equal(t, []string{"id", "tags", "tags"}, names)
	assert.Equal(t, []int32{0, 1, 2}, ordinals)
}

func TestDecodeBindings_RejectsCorruptEnvelope(t *testing.T) {
	bindings := []plancache.Binding{{JSONName: "id", Slot: 0, Ordinal: 0}}
	wire := plancache.EncodeBindings(bindings)

	corrupt := make([]byte, len(wire))
	copy(corrupt, wire)
	corrupt[len(corrupt)-1] ^= 0xFF // flip a payload byte, invalidating the CRC32

	_, _, err := plancache.DecodeBindings(corrupt)
	assert.Error(t, err)
}

func TestDecodeBindings_RejectsTruncatedPayload(t *testing.T) {
	_, _, err := plancache.DecodeBindings([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeBindings_EmptyInput(t *testing.T) {
	wire := plancache.EncodeBindings(nil)
	names, ordinals, err := plancache.DecodeBindings(wire)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, ordinals)
}
