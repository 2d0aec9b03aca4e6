// Package executor implements C4: it iterates the cursor and, for
// each row, runs a compiled Plan to emit one JSON object. The hot path
// here is the only place the allocation-bound testable property (§8)
// applies: zero per-row allocations beyond variable-length string
// values themselves.
package executor

import (
	"fmt"

	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/plan"
)

// EmitRow reads every slot this plan needs from cur (in ascending
// ordinal order, satisfying sequential-access cursors) and writes one
// JSON object to w. scratch must have length plan.SlotCount; callers
// reuse the same scratch slice across rows.
func EmitRow(p *plan.Plan, cur cursor.RowCursor, w plan.Writer, scratch []plan.Slot) error {
	if len(scratch) < p.SlotCount {
		return fmt.Errorf("executor: scratch buffer too small: have %d, need %d", len(scratch), p.SlotCount)
	}

	for _, r := range p.Reads {
		scratch[r.Slot] = r.Read(cur, r.Ordinal)
	}

	w.BeginObject()
	for _, e := range p.Emits {
		switch e.Op {
		case plan.OpBeginObject:
			w.FieldName(e.Name)
			w.BeginObject()
		case plan.OpEndObject:
			w.EndObject()
		case plan.OpBeginArray:
			w.FieldName(e.Name)
			w.BeginArray()
		case plan.OpEndArray:
			w.EndArray()
		case plan.OpEmitField:
			w.FieldName(e.Name)
			if err := e.Write(w, scratch[e.Slot]); err != nil {
				return err
			}
		case plan.OpEmitArrayElement:
			if err := e.Write(w, scratch[e.Slot]); err != nil {
				return err
			}
		}
	}
	w.EndObject()

	return nil
}
