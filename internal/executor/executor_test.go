package executor_test

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
	"github.com/quantatomai/streamgrid/internal/executor"
	"github.com/quantatomai/streamgrid/internal/jsonw"
)

// rowValue is one column's value for one fakeCursor row; nil means
// SQL NULL.
type rowValue struct {
	v any
}

// fakeCursor is an in-memory RowCursor over a fixed table of rows,
// used to exercise the executor without a real database.
type fakeCursor struct {
	names []string
	types []cursor.ColumnType
	rows  [][]rowValue
	idx   int
}

func newFakeCursor(names []string, types []cursor.ColumnType, rows [][]rowValue) *fakeCursor {
	return &fakeCursor{names: names, types: types, rows: rows, idx: -1}
}

func (c *fakeCursor) FieldCount() int                    { return len(c.names) }
func (c *fakeCursor) ColumnName(i int) string            { return c.names[i] }
func (c *fakeCursor) ColumnType(i int) cursor.ColumnType { return c.types[i] }
func (c *fakeCursor) SequentialAccess() bool             { return false }

func (c *fakeCursor) Advance(ctx context.Context) (bool, error) {
	c.idx++
	return c.idx < len(c.rows), nil
}

func (c *fakeCursor) cell(i int) rowValue { return c.rows[c.idx][i] }

func (c *fakeCursor) IsNull(i int) bool        { return c.cell(i).v == nil }
func (c *fakeCursor) GetBool(i int) bool       { return c.cell(i).v.(bool) }
func (c *fakeCursor) GetInt8(i int) int8       { return c.cell(i).v.(int8) }
func (c *fakeCursor) GetInt16(i int) int16     { return c.cell(i).v.(int16) }
func (c *fakeCursor) GetInt32(i int) int32     { return c.cell(i).v.(int32) }
func (c *fakeCursor) GetInt64(i int) int64     { return c.cell(i).v.(int64) }
func (c *fakeCursor) GetUint8(i int) uint8     { return c.cell(i).v.(uint8) }
func (c *fakeCursor) GetFloat32(i int) float32 { return c.cell(i).v.(float32) }
func (c *fakeCursor) GetFloat64(i int) float64 { return c.cell(i).v.(float64) }
func (c *fakeCursor) GetDecimal(i int) string  { return c.cell(i).v.(string) }
func (c *fakeCursor) GetTimestamp(i int) time.Time {
	return c.cell(i).v.(time.Time)
}
func (c *fakeCursor) GetUUID(i int) string   { return c.cell(i).v.(string) }
func (c *fakeCursor) GetString(i int) string { return c.cell(i).v.(string) }
func (c *fakeCursor) GetChar(i int) rune     { return c.cell(i).v.(rune) }
func (c *fakeCursor) GetRaw(i int) any       { return c.cell(i).v }
func (c *fakeCursor) Close() error           { return nil }

func v(x any) rowValue { return rowValue{v: x} }

func TestRowToObjectBijection(t *testing.T) {
	root := descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.Field("name", "Name", cursor.String),
	)
	c := newFakeCursor(
		[]string{"Id", "Name"},
		[]cursor.ColumnType{cursor.Int64, cursor.String},
		[][]rowValue{
			{v(int64(7)), v("Widget")},
			{v(int64(8)), v(nil)},
			{v(int64(9)), v("Gadget")},
		},
	)
	cols := []compiler.ColumnMeta{{Name: "Id", Type: cursor.Int64}, {Name: "Name", Type: cursor.String}}
	schema := compiler.NewSchema(cols)
	p, err := compiler.Compile("bijection", root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := jsonw.New(&buf)
	w.Open()
	scratch := p.NewScratch()
	for {
		ok, _ := c.Advance(context.Background())
		if !ok {
			break
		}
		require.NoError(t, executor.EmitRow(p, c, w, scratch))
	}
	w.Close()
	require.NoError(t, w.Flush())

	assert.Equal(t, `[{"id":7,"name":"Widget"},{"id":8,"name":null},{"id":9,"name":"Gadget"}]`, buf.String())
}

func TestArrayPatternOrderAndNulls(t *testing.T) {
	root := descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.ArrayPattern("tags", "Tag_"),
	)
	c := newFakeCursor(
		[]string{"Id", "Tag_01", "Tag_02", "Tag_03"},
		[]cursor.ColumnType{cursor.Int64, cursor.String, cursor.String, cursor.String},
		[][]rowValue{
			{v(int64(42)), v("red"), v(nil), v("blue")},
		},
	)
	cols := []compiler.ColumnMeta{
		{Name: "Id", Type: cursor.Int64},
		{Name: "Tag_01", Type: cursor.String},
		{Name: "Tag_02", Type: cursor.String},
		{Name: "Tag_03", Type: cursor.String},
	}
	schema := compiler.NewSchema(cols)
	p, err := compiler.Compile("array-pattern", root, schema, events.NullSink{}, "corr", compiler.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := jsonw.New(&buf)
	w.Open()
	scratch := p.NewScratch()
	ok, _ := c.Advance(context.Background())
	require.True(t, ok)
	require.NoError(t, executor.EmitRow(p, c, w, scratch))
	w.Close()
	require.NoError(t, w.Flush())

	assert.Equal(t, `[{"id":42,"tags":["red",null,"blue"]}]`, buf.String())
}

func TestFlattenEquivalentToInlining(t *testing.T) {
	nested := descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.Object("customer",
			descriptor.Field("name", "CName", cursor.String),
			descriptor.Field("city", "CCity", cursor.String),
		),
	)
	flattened := descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.Flatten(
			descriptor.Field("name", "CName", cursor.String),
			descriptor.Field("city", "CCity", cursor.String),
		),
	)

	names := []string{"Id", "CName", "CCity"}
	types := []cursor.ColumnType{cursor.Int64, cursor.String, cursor.String}
	row := []rowValue{v(int64(1)), v("Ada"), v("Paris")}
	cols := []compiler.ColumnMeta{
		{Name: "Id", Type: cursor.Int64},
		{Name: "CName", Type: cursor.String},
		{Name: "CCity", Type: cursor.String},
	}
	schema := compiler.NewSchema(cols)

	render := func(root *descriptor.Node) string {
		c := newFakeCursor(names, types, [][]rowValue{row})
		p, err := compiler.Compile("flatten", root, schema, events.NullSink{}, "corr", compiler.Options{})
		require.NoError(t, err)

		var buf bytes.Buffer
		w := jsonw.New(&buf)
		w.Open()
		scratch := p.NewScratch()
		ok, _ := c.Advance(context.Background())
		require.True(t, ok)
		require.NoError(t, executor.EmitRow(p, c, w, scratch))
		w.Close()
		require.NoError(t, w.Flush())
		return buf.String()
	}

	assert.Equal(t, `[{"id":1,"customer":{"name":"Ada","city":"Paris"}}]`, render(nested))
	assert.Equal(t, `[{"id":1,"name":"Ada","city":"Paris"}]`, render(flattened))
}
