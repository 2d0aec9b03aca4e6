package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLRowCursor adapts *sql.Rows to the RowCursor contract, the same
// database/sql + lib/pq combination the teacher's
// mapping.PostgresMetadataResolver uses for metadata lookups — here
// driving the hot path instead of a cached lookup table. It declares
// SequentialAccess() true: database/sql.Rows.Scan only ever targets
// the destinations passed for the current row, so the compiler's
// ascending-ordinal READS order is exactly what this cursor wants.
type SQLRowCursor struct {
	rows    *sql.Rows
	columns []sqlColumn
	current []any // Scan destinations, reused across rows
	closed  bool
}

type sqlColumn struct {
	name string
	typ  ColumnType
}

// NewSQLRowCursor samples column metadata from rows (via
// ColumnTypes, before the first Advance) and prepares reusable Scan
// destinations. rows must not have been iterated yet.
func NewSQLRowCursor(rows *sql.Rows) (*SQLRowCursor, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sql cursor: column types: %w", err)
	}
	cols := make([]sqlColumn, len(types))
	dest := make([]any, len(types))
	for i, t := range types {
		ct := sqlColumnType(t)
		cols[i] = sqlColumn{name: t.Name(), typ: ct}
		dest[i] = newScanDest(ct)
	}
	return &SQLRowCursor{rows: rows, columns: cols, current: dest}, nil
}

func sqlColumnType(t *sql.ColumnType) ColumnType {
	switch strings.ToUpper(t.DatabaseTypeName()) {
	case "BOOL":
		return Bool
	case "INT2":
		return Int16
	case "INT4":
		return Int32
	case "INT8":
		return Int64
	case "FLOAT4":
		return Float32
	case "FLOAT8":
		return Float64
	case "NUMERIC", "DECIMAL":
		return Decimal
	case "TIMESTAMP", "TIMESTAMPTZ", "DATE":
		return Timestamp
	case "UUID":
		return UUID
	case "BPCHAR", "CHAR":
		return Char
	case "TEXT", "VARCHAR", "NAME":
		return String
	default:
		return Unknown
	}
}

// newScanDest returns a fresh Scan destination matching ct's Go
// representation. sql.Rows.Scan always needs a pointer, and a NULL
// column is reported through the corresponding sql.Null* wrapper
// rather than a typed zero value.
func newScanDest(ct ColumnType) any {
	switch ct {
	case Bool:
		return new(sql.NullBool)
	case Int16, Int32, Int64:
		return new(sql.NullInt64)
	case Float32, Float64:
		return new(sql.NullFloat64)
	case Timestamp:
		return new(sql.NullTime)
	case Decimal, UUID, String, Char:
		return new(sql.NullString)
	default:
		return new(any)
	}
}

func (c *SQLRowCursor) FieldCount() int          { return len(c.columns) }
func (c *SQLRowCursor) ColumnName(i int) string  { return c.columns[i].name }
func (c *SQLRowCursor) ColumnType(i int) ColumnType { return c.columns[i].typ }

// SequentialAccess is true: database/sql only lets callers Scan the
// row currently loaded, so there is no way to read out of order
// anyway.
func (c *SQLRowCursor) SequentialAccess() bool { return true }

// Advance moves to the next row, scanning it into the reusable
// destinations. The database round trip happens inside rows.Next(),
// which can block; the caller's ctx governs cancellation of the
// underlying query, not this call directly (database/sql cancels the
// query when the context passed to QueryContext is done).
func (c *SQLRowCursor) Advance(ctx context.Context) (bool, error) {
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	if err := c.rows.Scan(c.current...); err != nil {
		return false, fmt.Errorf("sql cursor: scan: %w", err)
	}
	return true, nil
}

func (c *SQLRowCursor) IsNull(i int) bool {
	switch v := c.current[i].(type) {
	case *sql.NullBool:
		return !v.Valid
	case *sql.NullInt64:
		return !v.Valid
	case *sql.NullFloat64:
		return !v.Valid
	case *sql.NullTime:
		return !v.Valid
	case *sql.NullString:
		return !v.Valid
	case *any:
		return *v == nil
	default:
		return false
	}
}

func (c *SQLRowCursor) GetBool(i int) bool  { return c.current[i].(*sql.NullBool).Bool }
func (c *SQLRowCursor) GetInt8(i int) int8  { return int8(c.current[i].(*sql.NullInt64).Int64) }
func (c *SQLRowCursor) GetInt16(i int) int16 { return int16(c.current[i].(*sql.NullInt64).Int64) }
func (c *SQLRowCursor) GetInt32(i int) int32 { return int32(c.current[i].(*sql.NullInt64).Int64) }
func (c *SQLRowCursor) GetInt64(i int) int64 { return c.current[i].(*sql.NullInt64).Int64 }
func (c *SQLRowCursor) GetUint8(i int) uint8 { return uint8(c.current[i].(*sql.NullInt64).Int64) }
func (c *SQLRowCursor) GetFloat32(i int) float32 {
	return float32(c.current[i].(*sql.NullFloat64).Float64)
}
func (c *SQLRowCursor) GetFloat64(i int) float64 { return c.current[i].(*sql.NullFloat64).Float64 }
func (c *SQLRowCursor) GetDecimal(i int) string  { return c.current[i].(*sql.NullString).String }
func (c *SQLRowCursor) GetTimestamp(i int) time.Time {
	return c.current[i].(*sql.NullTime).Time
}
func (c *SQLRowCursor) GetUUID(i int) string { return c.current[i].(*sql.NullString).String }
func (c *SQLRowCursor) GetString(i int) string { return c.current[i].(*sql.NullString).String }
func (c *SQLRowCursor) GetChar(i int) rune {
	s := c.current[i].(*sql.NullString).String
	if len(s) == 0 {
		return 0
	}
	return []rune(s)[0]
}
func (c *SQLRowCursor) GetRaw(i int) any {
	if v, ok := c.current[i].(*any); ok {
		return *v
	}
	return c.current[i]
}

// Close releases the underlying *sql.Rows. Safe to call more than
// once.
func (c *SQLRowCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// NewCorrelationID mints a fresh request correlation id, the same
// uuid.New() call pkg/audit.Logger used to stamp every audit event.
func NewCorrelationID() string {
	return uuid.New().String()
}
