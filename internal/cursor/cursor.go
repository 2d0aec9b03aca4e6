// Package cursor defines the row-cursor contract the projection engine
// compiles and executes plans against, plus concrete adapters over
// database/sql and Apache Arrow.
package cursor

import (
	"context"
	"time"
)

// ColumnType enumerates the primitive set the engine knows how to read
// and serialize (spec V1). Unknown cursor types fall back to Unknown,
// which routes through the fallback codec.
type ColumnType int

const (
	Unknown ColumnType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Float32
	Float64
	Decimal
	Timestamp
	UUID
	String
	Char
)

func (t ColumnType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Decimal:
		return "decimal"
	case Timestamp:
		return "timestamp"
	case UUID:
		return "uuid"
	case String:
		return "string"
	case Char:
		return "char"
	default:
		return "unknown"
	}
}

// RowCursor is a forward-only, single-pass source of columnar rows.
// The cursor stays at row N until Advance returns true, at which point
// every column of row N+1 becomes readable. Implementations that only
// permit non-decreasing ordinal reads within a row should report true
// from SequentialAccess so the compiler's sorted READS sequence is
// honoured by callers that care.
type RowCursor interface {
	FieldCount() int
	ColumnName(i int) string
	ColumnType(i int) ColumnType
	SequentialAccess() bool

	// Advance moves to the next row. It may block on the underlying
	// source (database round trip, network read) and therefore takes
	// a context for cancellation.
	Advance(ctx context.Context) (bool, error)

	IsNull(i int) bool
	GetBool(i int) bool
	GetInt8(i int) int8
	GetInt16(i int) int16
	GetInt32(i int) int32
	GetInt64(i int) int64
	GetUint8(i int) uint8
	GetFloat32(i int) float32
	GetFloat64(i int) float64
	// GetDecimal returns the literal digit string of an unbounded
	// precision fixed-point value, e.g. "19.95" or "-0.0001".
	GetDecimal(i int) string
	GetTimestamp(i int) time.Time
	GetUUID(i int) string
	GetString(i int) string
	GetChar(i int) rune
	// GetRaw is the untyped accessor backing the fallback codec.
	GetRaw(i int) any

	// Close releases the cursor and any connection it owns. It must be
	// safe to call more than once and on every exit path.
	Close() error
}
