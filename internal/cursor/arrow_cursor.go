package cursor

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
)

// arrowRecordReader is the minimal surface this cursor needs from a
// streamed Arrow result, matching pkg/ipc.RecordReader (the interface
// the teacher's Flight client used to abstract *flight.Reader for
// mocking). It is deliberately narrower than arrow/flight's own
// reader so any columnar batch source — Flight, a local file, a test
// fixture — can be handed to ArrowRowCursor.
type arrowRecordReader interface {
	Next() bool
	Record() arrow.Record
	Err() error
	Release()
}

// ArrowRowCursor adapts a stream of Arrow record batches to the
// RowCursor contract, proving the engine's row-cursor contract (§3)
// is not Postgres-specific: any forward-only columnar source plugs in
// the same way. It advances within the current batch and pulls the
// next batch from the reader transparently once exhausted.
type ArrowRowCursor struct {
	reader arrowRecordReader

	record  arrow.Record
	columns []arrowColumn
	row     int64 // row index within the current record, -1 before first Advance
	closed  bool
}

type arrowColumn struct {
	name string
	typ  ColumnType
	col  arrow.Array
}

// NewArrowRowCursor wraps reader. The first Advance pulls the first
// record batch and samples its schema; until then FieldCount reports 0
// and no column metadata is available, so a schema sampled from a
// not-yet-advanced ArrowRowCursor (compiler.SchemaFromCursor) is empty.
func NewArrowRowCursor(reader arrowRecordReader) *ArrowRowCursor {
	return &ArrowRowCursor{reader: reader, row: -1}
}

func (c *ArrowRowCursor) FieldCount() int { return len(c.columns) }
func (c *ArrowRowCursor) ColumnName(i int) string { return c.columns[i].name }
func (c *ArrowRowCursor) ColumnType(i int) ColumnType { return c.columns[i].typ }

// SequentialAccess is false: once a record batch is loaded, every
// column is a fully materialized arrow.Array and any ordinal can be
// read in any order without cost.
func (c *ArrowRowCursor) SequentialAccess() bool { return false }

func (c *ArrowRowCursor) Advance(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	c.row++
	if c.record != nil && c.row < c.record.NumRows() {
		return true, nil
	}
	if !c.reader.Next() {
		if err := c.reader.Err(); err != nil {
			return false, fmt.Errorf("arrow cursor: %w", err)
		}
		return false, nil
	}
	if c.record != nil {
		c.record.Release()
	}
	c.record = c.reader.Record()
	c.record.Retain()
	c.row = 0
	c.sampleSchema()
	if c.record.NumRows() == 0 {
		return c.Advance(ctx)
	}
	return true, nil
}

func (c *ArrowRowCursor) sampleSchema() {
	schema := c.record.Schema()
	cols := make([]arrowColumn, schema.NumFields())
	for i := range cols {
		f := schema.Field(i)
		cols[i] = arrowColumn{name: f.Name, typ: arrowColumnType(f.Type), col: c.record.Column(i)}
	}
	c.columns = cols
}

func arrowColumnType(t arrow.DataType) ColumnType {
	switch t.ID() {
	case arrow.BOOL:
		return Bool
	case arrow.INT8:
		return Int8
	case arrow.INT16:
		return Int16
	case arrow.INT32:
		return Int32
	case arrow.INT64:
		return Int64
	case arrow.UINT8:
		return Uint8
	case arrow.FLOAT32:
		return Float32
	case arrow.FLOAT64:
		return Float64
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return Decimal
	case arrow.TIMESTAMP:
		return Timestamp
	case arrow.STRING, arrow.LARGE_STRING:
		return String
	default:
		return Unknown
	}
}

func (c *ArrowRowCursor) IsNull(i int) bool { return c.columns[i].col.IsNull(int(c.row)) }

func (c *ArrowRowCursor) GetBool(i int) bool {
	return c.columns[i].col.(*array.Boolean).Value(int(c.row))
}
func (c *ArrowRowCursor) GetInt8(i int) int8 {
	return c.columns[i].col.(*array.Int8).Value(int(c.row))
}
func (c *ArrowRowCursor) GetInt16(i int) int16 {
	return c.columns[i].col.(*array.Int16).Value(int(c.row))
}
func (c *ArrowRowCursor) GetInt32(i int) int32 {
	return c.columns[i].col.(*array.Int32).Value(int(c.row))
}
func (c *ArrowRowCursor) GetInt64(i int) int64 {
	return c.columns[i].col.(*array.Int64).Value(int(c.row))
}
func (c *ArrowRowCursor) GetUint8(i int) uint8 {
	return c.columns[i].col.(*array.Uint8).Value(int(c.row))
}
func (c *ArrowRowCursor) GetFloat32(i int) float32 {
	return c.columns[i].col.(*array.Float32).Value(int(c.row))
}
func (c *ArrowRowCursor) GetFloat64(i int) float64 {
	return c.columns[i].col.(*array.Float64).Value(int(c.row))
}

// GetDecimal renders the decimal128/256 value as its literal digit
// string via Arrow's own formatter, so the codec writer can emit it
// verbatim without a float64 round trip.
func (c *ArrowRowCursor) GetDecimal(i int) string {
	col := c.columns[i].col
	switch a := col.(type) {
	case *array.Decimal128:
		return a.Value(int(c.row)).ToString(a.DataType().(*arrow.Decimal128Type).Scale)
	case *array.Decimal256:
		return a.Value(int(c.row)).ToString(a.DataType().(*arrow.Decimal256Type).Scale)
	default:
		return ""
	}
}

func (c *ArrowRowCursor) GetTimestamp(i int) time.Time {
	col := c.columns[i].col.(*array.Timestamp)
	unit := col.DataType().(*arrow.TimestampType).Unit
	return col.Value(int(c.row)).ToTime(unit)
}

// GetUUID is not natively represented in Arrow's type system here:
// arrowColumnType never reports UUID (a fixed-size-binary or extension
// UUID column maps to Unknown and goes through the fallback codec), so
// this accessor is unreachable in practice and exists only to satisfy
// the RowCursor contract.
func (c *ArrowRowCursor) GetUUID(i int) string { return c.GetString(i) }

func (c *ArrowRowCursor) GetString(i int) string {
	switch a := c.columns[i].col.(type) {
	case *array.String:
		return a.Value(int(c.row))
	case *array.LargeString:
		return a.Value(int(c.row))
	default:
		return ""
	}
}
func (c *ArrowRowCursor) GetChar(i int) rune {
	s := c.GetString(i)
	if len(s) == 0 {
		return 0
	}
	return []rune(s)[0]
}
func (c *ArrowRowCursor) GetRaw(i int) any {
	col := c.columns[i].col
	if col.IsNull(int(c.row)) {
		return nil
	}
	return col.GetOneForMarshal(int(c.row))
}

// Close releases the current record and the underlying reader. Safe
// to call more than once.
func (c *ArrowRowCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.record != nil {
		c.record.Release()
		c.record = nil
	}
	c.reader.Release()
	return nil
}
