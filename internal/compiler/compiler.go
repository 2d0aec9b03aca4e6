// Package compiler implements C3: it walks a shape descriptor plus a
// sample cursor schema once and produces a flat, ordered serialization
// plan, or a DescriptorError. The compiler is pure and deterministic:
// the same (descriptor, schema) always produces an equivalent plan.
package compiler

import (
	"fmt"
	"time"

	"github.com/quantatomai/streamgrid/internal/codec"
	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/descriptor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/plan"
)

// DescriptorError is fatal to the request: the descriptor itself is
// malformed, independent of any particular schema.
type DescriptorError struct {
	Reason string
}

func (e *DescriptorError) Error() string { return "descriptor error: " + e.Reason }

// Options tunes compile-time behaviour.
type Options struct {
	// Strict turns a recovered SchemaMismatch (column-not-found) into a
	// fatal DescriptorError instead of omitting the field, per §7's
	// "Strict mode elevates to fatal".
	Strict bool

	// ArrayElementFallbackToString governs what happens when an
	// array-pattern match lands on a column of an unsupported cursor
	// type (§6 "Configuration", array_element_fallback_to_string). When
	// true, the element is coerced through the fallback codec's string
	// representation. When false, the element is dropped from the
	// array entirely rather than emitting a coerced value.
	ArrayElementFallbackToString bool
}

type state struct {
	schema        *Schema
	sink          events.Sink
	correlationID string
	opts          Options

	reads    []plan.ReadInstr
	emits    []plan.EmitInstr
	nextSlot int
}

// Compile walks root against schema and produces a frozen Plan.
func Compile(shapeID descriptor.ShapeID, root *descriptor.Node, schema *Schema, sink events.Sink, correlationID string, opts Options) (*plan.Plan, error) {
	if err := descriptor.Validate(root); err != nil {
		return nil, &DescriptorError{Reason: err.Error()}
	}
	if sink == nil {
		sink = events.NullSink{}
	}

	st := &state{schema: schema, sink: sink, correlationID: correlationID, opts: opts}

	for _, child := range root.Children {
		if err := st.walk(child); err != nil {
			return nil, err
		}
	}

	// Sequential-access compatibility (§4.3 step 7, testable property 3):
	// stable-sort READS by ordinal ascending.
	sortReadsByOrdinal(st.reads)

	return &plan.Plan{
		Reads:       st.reads,
		Emits:       st.emits,
		SlotCount:   st.nextSlot,
		ShapeID:     string(shapeID),
		CompiledAt:  time.Now(),
		Fingerprint: schema.Fingerprint(),
	}, nil
}

func (st *state) walk(n *descriptor.Node) error {
	switch n.Kind {
	case descriptor.KindField:
		return st.walkField(n)
	case descriptor.KindObject:
		st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpBeginObject, Name: n.JSONName})
		for _, c := range n.Children {
			if err := st.walk(c); err != nil {
				return err
			}
		}
		st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpEndObject})
		return nil
	case descriptor.KindFlattened:
		for _, c := range n.Children {
			if err := st.walk(c); err != nil {
				return err
			}
		}
		return nil
	case descriptor.KindArrayPattern:
		return st.walkArrayPattern(n)
	default:
		return &DescriptorError{Reason: fmt.Sprintf("unexpected node kind %d", n.Kind)}
	}
}

func (st *state) walkField(n *descriptor.Node) error {
	ordinal, ok := st.schema.Ordinal(n.ColumnName)
	if !ok {
		st.sink.Emit(events.Event{
			Category:      events.ColumnNotFound,
			CorrelationID: st.correlationID,
			Fields:        map[string]string{"column": n.ColumnName, "jsonName": n.JSONName},
		})
		if st.opts.Strict {
			return &DescriptorError{Reason: fmt.Sprintf("column %q not found (strict mode)", n.ColumnName)}
		}
		// Non-strict: the field is simply omitted from every row.
		return nil
	}

	actualType := st.schema.Columns[ordinal].Type
	if n.DeclaredType != cursor.Unknown && n.DeclaredType != actualType {
		st.sink.Emit(events.Event{
			Category:      events.TypeCoerced,
			CorrelationID: st.correlationID,
			Fields: map[string]string{
				"column":   n.ColumnName,
				"declared": n.DeclaredType.String(),
				"actual":   actualType.String(),
			},
		})
	}

	c := codec.For(actualType)
	if actualType == cursor.Unknown {
		st.sink.Emit(events.Event{
			Category:      events.UnsupportedType,
			CorrelationID: st.correlationID,
			Fields:        map[string]string{"column": n.ColumnName},
		})
	}

	slot := st.allocSlot(ordinal, c.Read)
	st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpEmitField, Name: n.JSONName, Slot: slot, Write: c.Write})
	return nil
}

func (st *state) walkArrayPattern(n *descriptor.Node) error {
	matches := st.schema.MatchPrefix(n.Prefix)

	st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpBeginArray, Name: n.JSONName})
	if len(matches) == 0 {
		st.sink.Emit(events.Event{
			Category:      events.EmptyArrayPattern,
			CorrelationID: st.correlationID,
			Fields:        map[string]string{"prefix": n.Prefix, "jsonName": n.JSONName},
		})
	}
	for _, ordinal := range matches {
		t := st.schema.Columns[ordinal].Type
		if t == cursor.Unknown {
			st.sink.Emit(events.Event{
				Category:      events.UnsupportedType,
				CorrelationID: st.correlationID,
				Fields:        map[string]string{"column": st.schema.Columns[ordinal].Name},
			})
			if !st.opts.ArrayElementFallbackToString {
				// Dropped rather than coerced: the element is simply
				// absent from the emitted array for this row.
				continue
			}
		}
		c := codec.For(t)
		slot := st.allocSlot(ordinal, c.Read)
		st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpEmitArrayElement, Slot: slot, Write: c.Write})
	}
	st.emits = append(st.emits, plan.EmitInstr{Op: plan.OpEndArray})
	return nil
}

// allocSlot assigns the next free slot and appends the corresponding
// READ instruction. Two descriptor nodes referencing the same column
// each get their own slot and their own read, per §4.3's tie-break.
func (st *state) allocSlot(ordinal int, read plan.ReadFunc) int {
	slot := st.nextSlot
	st.nextSlot++
	st.reads = append(st.reads, plan.ReadInstr{Slot: slot, Ordinal: ordinal, Read: read})
	return slot
}

// sortReadsByOrdinal stable-sorts in place by ascending ordinal.
func sortReadsByOrdinal(reads []plan.ReadInstr) {
	// Insertion sort: compile-time lists are small (bounded by
	// descriptor + schema size) and stability matters more than
	// asymptotic complexity here.
	for i := 1; i < len(reads); i++ {
		j := i
		for j > 0 && reads[j-1].Ordinal > reads[j].Ordinal {
			reads[j-1], reads[j] = reads[j], reads[j-1]
			j--
		}
	}
}
