// Package plan holds the types produced by the compiler (C3) and
// consumed by the executor (C4): the slot buffer, the compiled
// instruction sequences, and the row-local scratch space.
package plan

import (
	"time"

	"github.com/quantatomai/streamgrid/internal/cursor"
)

// Slot is a tagged union over the primitive set plus a null marker and
// a fallback opaque slot. It never boxes a primitive value; the string
// field only holds genuinely variable-length or text-shaped data
// (strings, chars, UUIDs, timestamps rendered as ISO-8601, decimal
// literals, and fallback-coerced values).
type Slot struct {
	Kind cursor.ColumnType
	Null bool

	Bool bool
	I64  int64
	U8   uint8
	F32  float32
	F64  float64
	Str  string
}

// ReadFunc reads one column from the cursor at the given ordinal into
// a Slot. It must consult cursor.IsNull itself.
type ReadFunc func(c cursor.RowCursor, ordinal int) Slot

// WriteFunc writes a slot's value to the JSON writer, choosing the
// correct JSON kind (number, string, boolean, null) for the slot.
type WriteFunc func(w Writer, s Slot) error

// Writer is the minimal surface the executor needs from a JSON writer.
// Concrete implementations (internal/jsonw) own their own fixed
// buffer; no Writer method may allocate beyond it except when a
// variable-length string value must be copied out.
type Writer interface {
	BeginObject()
	EndObject()
	BeginArray()
	EndArray()
	FieldName(name string)
	Null()
	Bool(v bool)
	Int64(v int64)
	Uint64(v uint64)
	Float64(v float64)
	RawNumber(digits string)
	String(v string)
}

// ReadInstr is one entry of the compiled READS sequence, ordered by
// ascending cursor ordinal.
type ReadInstr struct {
	Slot    int
	Ordinal int
	Read    ReadFunc
}

// EmitOp tags one EMITS instruction.
type EmitOp int

const (
	OpBeginObject EmitOp = iota
	OpEndObject
	OpBeginArray
	OpEndArray
	OpEmitField
	OpEmitArrayElement
)

// EmitInstr is one entry of the compiled EMITS sequence, in JSON
// output order.
type EmitInstr struct {
	Op    EmitOp
	Name  string // set for OpBeginObject (optional) and OpEmitField/OpBeginArray
	Slot  int    // set for OpEmitField/OpEmitArrayElement
	Write WriteFunc
}

// Plan is the frozen, reusable serialization plan compiled once from a
// descriptor and a sample cursor schema.
type Plan struct {
	Reads     []ReadInstr
	Emits     []EmitInstr
	SlotCount int

	ShapeID string
	// CompiledAt and Fingerprint are carried for diagnostics/cache
	// introspection only; they play no role in execution.
	CompiledAt  time.Time
	Fingerprint uint64
}

// NewScratch allocates a row-local slot buffer sized for this plan.
// Callers reuse the returned slice across rows (and, via a pool,
// across requests) to keep the hot path allocation-free.
func (p *Plan) NewScratch() []Slot {
	return make([]Slot, p.SlotCount)
}
