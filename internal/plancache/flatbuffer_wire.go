package plancache

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/quantatomai/streamgrid/internal/plan"
)

// Binding is one resolved (json_name, slot, ordinal) triple
// pulled from a compiled plan's EMITS sequence, the warm-transfer unit
// exchanged between instances. Only EmitField/EmitArrayElement
// entries carry a binding; structural markers (BeginObject, EndArray,
// ...) contribute nothing to the wire form.
type Binding struct {
	JSONName string
	Slot     int32
	Ordinal  int32
}

// BindingsFromPlan extracts the (name, slot, ordinal) bindings a plan
// emits, in EMITS order. EmitInstr itself does not carry an ordinal, so
// each binding's Ordinal is looked up from the READS entry for its slot.
func BindingsFromPlan(p *plan.Plan) []Binding {
	ordinalBySlot := make(map[int]int32, len(p.Reads))
	for _, r := range p.Reads {
		ordinalBySlot[r.Slot] = int32(r.Ordinal)
	}
	var out []Binding
	for _, e := range p.Emits {
		switch e.Op {
		case plan.OpEmitField, plan.OpEmitArrayElement:
			out = append(out, Binding{JSONName: e.Name, Slot: int32(e.Slot), Ordinal: ordinalBySlot[e.Slot]})
		}
	}
	return out
}

// EncodeBindings serializes bindings with the low-level FlatBuffers
// Builder API — the same peak-throughput path the teacher's
// projection.BuildFlatBufferFromGridResult uses, skipping the
// generated Object API's intermediate allocations — then wraps the
// finished bytes in a 4-byte length-prefixed, CRC32-checksummed
// envelope, mirroring storage's wire-format-with-checksum convention
// so a corrupt cross-instance transfer is detected rather than
// silently decoded into garbage.
func EncodeBindings(bindings []Binding) []byte {
	b := flatbuffers.NewBuilder(256 + 32*len(bindings))

	nameOffs := make([]flatbuffers.UOffsetT, len(bindings))
	for i, bd := range bindings {
		nameOffs[i] = b.CreateString(bd.JSONName)
	}

	b.StartVector(4, len(bindings), 4)
	for i := len(bindings) - 1; i >= 0; i-- {
		b.PrependUOffsetT(nameOffs[i])
	}
	namesVec := b.EndVector(len(bindings))

	b.StartVector(4, len(bindings), 4)
	for i := len(bindings) - 1; i >= 0; i-- {
		b.PrependInt32(bindings[i].Ordinal)
	}
	ordinalsVec := b.EndVector(len(bindings))

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, namesVec, 0)
	b.PrependUOffsetTSlot(1, ordinalsVec, 0)
	root := b.EndObject()
	b.Finish(root)

	payload := b.FinishedBytes()
	return envelope(payload)
}

func envelope(payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(payload))
	copy(out[8:], payload)
	return out
}

// DecodeBindings validates the envelope checksum and returns the
// names/ordinals table. It is used only for cross-instance cache-warm
// diagnostics (SPEC_FULL DOMAIN STACK); no compiled plan is ever
// reconstructed from it — only names and ordinals, which a fresh local
// compile re-derives authoritatively from the live schema.
func DecodeBindings(wire []byte) ([]string, []int32, error) {
	if len(wire) < 8 {
		return nil, nil, fmt.Errorf("plancache: wire payload too short: %d bytes", len(wire))
	}
	n := binary.LittleEndian.Uint32(wire[0:4])
	sum := binary.LittleEndian.Uint32(wire[4:8])
	payload := wire[8:]
	if uint32(len(payload)) != n {
		return nil, nil, fmt.Errorf("plancache: wire length mismatch: header says %d, have %d", n, len(payload))
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, nil, fmt.Errorf("plancache: wire checksum mismatch")
	}

	root := &flatbuffers.Table{Bytes: payload, Pos: flatbuffers.GetUOffsetT(payload)}

	// Field offsets are vtable byte offsets: 4 + 2*slotIndex, matching
	// the slot numbers used by EncodeBindings's StartObject(2)/
	// PrependUOffsetTSlot(0, ...)/(1, ...) pair.
	namesField := root.Offset(4)
	ordinalsField := root.Offset(6)
	if namesField == 0 || ordinalsField == 0 {
		return nil, nil, nil
	}

	names := decodeStringVector(root, flatbuffers.UOffsetT(namesField))
	ordinals := decodeInt32Vector(root, flatbuffers.UOffsetT(ordinalsField))
	return names, ordinals, nil
}

// decodeStringVector reads a vector-of-strings field. Each 4-byte
// vector slot holds a UOffsetT relative offset to the string object
// (length-prefixed bytes), resolved via Table.Indirect the same way
// generated accessors do.
func decodeStringVector(t *flatbuffers.Table, fieldOff flatbuffers.UOffsetT) []string {
	start := t.Vector(fieldOff)
	n := t.VectorLen(fieldOff)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		elemPos := start + flatbuffers.UOffsetT(i)*4
		strPos := t.Indirect(elemPos)
		length := flatbuffers.GetUOffsetT(t.Bytes[strPos:])
		dataStart := strPos + flatbuffers.UOffsetTSize
		out[i] = string(t.Bytes[dataStart : dataStart+length])
	}
	return out
}

// decodeInt32Vector reads a vector of plain (non-offset) int32s.
func decodeInt32Vector(t *flatbuffers.Table, fieldOff flatbuffers.UOffsetT) []int32 {
	start := t.Vector(fieldOff)
	n := t.VectorLen(fieldOff)
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = flatbuffers.GetInt32(t.Bytes[start+flatbuffers.UOffsetT(i)*4:])
	}
	return out
}
