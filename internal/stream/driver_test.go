package stream_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatomai/streamgrid/internal/compiler"
	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/descriptor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/jsonw"
	"github.com/quantatomai/streamgrid/internal/stream"
)

// idRowsCursor is a minimal in-memory RowCursor over a single Int64
// "Id" column, used to drive the streaming state machine without a
// real database. cancelAfter, when non-zero, cancels ctx via cancel
// once that many rows have been made current (but still lets the
// in-flight row finish).
type idRowsCursor struct {
	ids         []int64
	idx         int
	cancelAfter int
	cancel      context.CancelFunc
	closed      bool
}

func (c *idRowsCursor) FieldCount() int               { return 1 }
func (c *idRowsCursor) ColumnName(i int) string       { return "Id" }
func (c *idRowsCursor) ColumnType(i int) cursor.ColumnType { return cursor.Int64 }
func (c *idRowsCursor) SequentialAccess() bool        { return true }

func (c *idRowsCursor) Advance(ctx context.Context) (bool, error) {
	c.idx++
	if c.idx > len(c.ids) {
		return false, nil
	}
	if c.cancelAfter != 0 && c.idx == c.cancelAfter {
		c.cancel()
	}
	return true, nil
}

func (c *idRowsCursor) IsNull(i int) bool            { return false }
func (c *idRowsCursor) GetBool(i int) bool           { return false }
func (c *idRowsCursor) GetInt8(i int) int8           { return 0 }
func (c *idRowsCursor) GetInt16(i int) int16         { return 0 }
func (c *idRowsCursor) GetInt32(i int) int32         { return 0 }
func (c *idRowsCursor) GetInt64(i int) int64         { return c.ids[c.idx-1] }
func (c *idRowsCursor) GetUint8(i int) uint8         { return 0 }
func (c *idRowsCursor) GetFloat32(i int) float32     { return 0 }
func (c *idRowsCursor) GetFloat64(i int) float64     { return 0 }
func (c *idRowsCursor) GetDecimal(i int) string      { return "" }
func (c *idRowsCursor) GetTimestamp(i int) time.Time { return time.Time{} }
func (c *idRowsCursor) GetUUID(i int) string         { return "" }
func (c *idRowsCursor) GetString(i int) string       { return "" }
func (c *idRowsCursor) GetChar(i int) rune           { return 0 }
func (c *idRowsCursor) GetRaw(i int) any             { return c.ids[c.idx-1] }
func (c *idRowsCursor) Close() error                 { c.closed = true; return nil }

func TestStream_SuccessEventSequence(t *testing.T) {
	root := descriptor.Root(descriptor.Field("id", "Id", cursor.Int64))
	schema := compiler.NewSchema([]compiler.ColumnMeta{{Name: "Id", Type: cursor.Int64}})
	p, err := compiler.Compile("stream-ids", root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	cur := &idRowsCursor{ids: []int64{1, 2, 3}}
	sink := &events.CollectSink{}
	var buf bytes.Buffer
	w := jsonw.New(&buf)

	res := stream.Stream(context.Background(), p, cur, nil, w, sink, "corr-success", stream.Options{RowBatchEventInterval: 1})

	assert.Equal(t, 3, res.RowCount)
	assert.False(t, res.Canceled)
	assert.Equal(t, `[{"id":1},{"id":2},{"id":3}]`, buf.String())
	assert.True(t, cur.closed)

	var categories []events.Category
	for _, e := range sink.Snapshot() {
		categories = append(categories, e.Category)
	}
	require.GreaterOrEqual(t, len(categories), 2)
	assert.Equal(t, events.StreamStart, categories[0])
	assert.Equal(t, events.StreamComplete, categories[len(categories)-1])

	rowBatches := 0
	for _, cat := range categories {
		if cat == events.RowBatch {
			rowBatches++
		}
	}
	assert.Equal(t, 3, rowBatches) // interval of 1 fires on every row
}

func TestStream_CancellationNeverEmitsClosingBracket(t *testing.T) {
	root := descriptor.Root(descriptor.Field("id", "Id", cursor.Int64))
	schema := compiler.NewSchema([]compiler.ColumnMeta{{Name: "Id", Type: cursor.Int64}})
	p, err := compiler.Compile("stream-ids", root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cur := &idRowsCursor{ids: []int64{1, 2, 3, 4, 5}, cancelAfter: 3, cancel: cancel}
	sink := &events.CollectSink{}
	var buf bytes.Buffer
	w := jsonw.New(&buf)

	res := stream.Stream(ctx, p, cur, nil, w, sink, "corr-cancel", stream.Options{})

	assert.True(t, res.Canceled)
	assert.Equal(t, 3, res.RowCount)
	assert.True(t, cur.closed)

	out := buf.String()
	assert.True(t, bytes.HasPrefix([]byte(out), []byte("[")))
	assert.False(t, bytes.HasSuffix([]byte(out), []byte("]")), "canceled stream must never emit the closing bracket")
	assert.Equal(t, `[{"id":1},{"id":2},{"id":3}`, out)

	canceledEvents := 0
	for _, e := range sink.Snapshot() {
		if e.Category == events.StreamCanceled {
			canceledEvents++
			assert.Equal(t, 3, e.RowCount)
		}
	}
	assert.Equal(t, 1, canceledEvents)
}
