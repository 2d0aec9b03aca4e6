// Package codec implements C1: for each primitive type in the V1 set,
// exactly one reader (cursor -> Slot) and one writer (Slot -> JSON).
// Dispatch is a bounded index into a fixed array keyed by
// cursor.ColumnType, never a map lookup or reflection, so the hot path
// never boxes a primitive.
package codec

import (
	"fmt"

	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/plan"
)

// Codec pairs the reader and writer for one primitive type.
type Codec struct {
	Read  plan.ReadFunc
	Write plan.WriteFunc
}

// For returns the codec registered for t, or the fallback codec if t
// is not in the V1 primitive set. Callers that hit the fallback should
// log an unsupported-type event once at compile time, never per row.
func For(t cursor.ColumnType) Codec {
	if t > cursor.Unknown && int(t) < len(table) && table[t].Read != nil {
		return table[t]
	}
	return fallback
}

var table = [...]Codec{
	cursor.Bool:      {readBool, writeBool},
	cursor.Int8:      {readInt8, writeInt8},
	cursor.Int16:     {readInt16, writeInt16},
	cursor.Int32:     {readInt32, writeInt32},
	cursor.Int64:     {readInt64, writeInt64},
	cursor.Uint8:     {readUint8, writeUint8},
	cursor.Float32:   {readFloat32, writeFloat32},
	cursor.Float64:   {readFloat64, writeFloat64},
	cursor.Decimal:   {readDecimal, writeDecimal},
	cursor.Timestamp: {readTimestamp, writeTimestamp},
	cursor.UUID:      {readUUID, writeUUID},
	cursor.String:    {readString, writeString},
	cursor.Char:      {readChar, writeChar},
}

var fallback = Codec{Read: readFallback, Write: writeFallback}

func readBool(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Bool, Null: true}
	}
	return plan.Slot{Kind: cursor.Bool, Bool: c.GetBool(i)}
}
func writeBool(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.Bool(s.Bool)
	return nil
}

func readInt8(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Int8, Null: true}
	}
	return plan.Slot{Kind: cursor.Int8, I64: int64(c.GetInt8(i))}
}
func readInt16(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Int16, Null: true}
	}
	return plan.Slot{Kind: cursor.Int16, I64: int64(c.GetInt16(i))}
}
func readInt32(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Int32, Null: true}
	}
	return plan.Slot{Kind: cursor.Int32, I64: int64(c.GetInt32(i))}
}
func readInt64(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Int64, Null: true}
	}
	return plan.Slot{Kind: cursor.Int64, I64: c.GetInt64(i)}
}
func writeInt8(w plan.Writer, s plan.Slot) error  { return writeInt64(w, s) }
func writeInt16(w plan.Writer, s plan.Slot) error { return writeInt64(w, s) }
func writeInt32(w plan.Writer, s plan.Slot) error { return writeInt64(w, s) }
func writeInt64(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.Int64(s.I64)
	return nil
}

func readUint8(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Uint8, Null: true}
	}
	return plan.Slot{Kind: cursor.Uint8, U8: c.GetUint8(i)}
}
func writeUint8(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.Uint64(uint64(s.U8))
	return nil
}

func readFloat32(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Float32, Null: true}
	}
	return plan.Slot{Kind: cursor.Float32, F32: c.GetFloat32(i)}
}
func writeFloat32(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.Float64(float64(s.F32))
	return nil
}

func readFloat64(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Float64, Null: true}
	}
	return plan.Slot{Kind: cursor.Float64, F64: c.GetFloat64(i)}
}
func writeFloat64(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.Float64(s.F64)
	return nil
}

// Decimal is unbounded precision: the reader keeps the cursor's
// literal digit string and the writer emits it verbatim as a JSON
// number, never round-tripping through float64.
func readDecimal(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Decimal, Null: true}
	}
	return plan.Slot{Kind: cursor.Decimal, Str: c.GetDecimal(i)}
}
func writeDecimal(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.RawNumber(s.Str)
	return nil
}

func readTimestamp(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Timestamp, Null: true}
	}
	t := c.GetTimestamp(i)
	return plan.Slot{Kind: cursor.Timestamp, Str: t.UTC().Format("2006-01-02T15:04:05.000Z")}
}
func writeTimestamp(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.String(s.Str)
	return nil
}

func readUUID(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.UUID, Null: true}
	}
	return plan.Slot{Kind: cursor.UUID, Str: c.GetUUID(i)}
}
func writeUUID(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.String(s.Str)
	return nil
}

func readString(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.String, Null: true}
	}
	return plan.Slot{Kind: cursor.String, Str: c.GetString(i)}
}
func writeString(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.String(s.Str)
	return nil
}

func readChar(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Char, Null: true}
	}
	return plan.Slot{Kind: cursor.Char, Str: string(c.GetChar(i))}
}
func writeChar(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.String(s.Str)
	return nil
}

// readFallback boxes the cursor's untyped accessor; used only for
// cursor types outside the V1 primitive set. Boxing here is
// acceptable: it happens once per unsupported column per row, and the
// compiler already recorded an unsupported-type event so operators
// know to add a proper codec.
func readFallback(c cursor.RowCursor, i int) plan.Slot {
	if c.IsNull(i) {
		return plan.Slot{Kind: cursor.Unknown, Null: true}
	}
	return plan.Slot{Kind: cursor.Unknown, Str: fmt.Sprintf("%v", c.GetRaw(i))}
}
func writeFallback(w plan.Writer, s plan.Slot) error {
	if s.Null {
		w.Null()
		return nil
	}
	w.String(s.Str)
	return nil
}
