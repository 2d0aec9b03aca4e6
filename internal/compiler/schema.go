package compiler

import (
	"sort"
	"strings"

	"github.com/quantatomai/streamgrid/internal/cursor"
)

// ColumnMeta describes one cursor column as seen at compile time.
type ColumnMeta struct {
	Name string
	Type cursor.ColumnType
}

// Schema is the sample cursor schema the compiler resolves a
// descriptor against: column names and declared types in ordinal
// order, plus a name index for O(1) lookups.
type Schema struct {
	Columns []ColumnMeta
	byName  map[string]int
}

// NewSchema builds a Schema from an explicit column list, preserving
// ordinal order.
func NewSchema(columns []ColumnMeta) *Schema {
	s := &Schema{Columns: columns, byName: make(map[string]int, len(columns))}
	for i, c := range columns {
		s.byName[c.Name] = i
	}
	return s
}

// SchemaFromCursor samples a freshly-opened cursor's metadata. The
// cursor must not have been advanced yet; sampling only reads
// FieldCount/ColumnName/ColumnType, never row data.
func SchemaFromCursor(c cursor.RowCursor) *Schema {
	n := c.FieldCount()
	cols := make([]ColumnMeta, n)
	for i := 0; i < n; i++ {
		cols[i] = ColumnMeta{Name: c.ColumnName(i), Type: c.ColumnType(i)}
	}
	return NewSchema(cols)
}

// Ordinal returns the column's ordinal and whether it was found.
func (s *Schema) Ordinal(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// MatchPrefix returns every column whose name starts with prefix, in
// ascending ordinal order (schema order already guarantees this, but
// we re-sort defensively in case a caller hands us an unordered list).
func (s *Schema) MatchPrefix(prefix string) []int {
	var out []int
	for i, c := range s.Columns {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Fingerprint hashes (column_name, declared_type) pairs in ordinal
// order into a stable cache key component, the same FNV-1a-over-fields
// technique the teacher's domain.AtomKey.HashKey uses for cache keys.
func (s *Schema) Fingerprint() uint64 {
	h := offsetBasis
	for _, c := range s.Columns {
		h = fnvWrite(h, c.Name)
		h = fnvWriteByte(h, byte(c.Type))
		h = fnvWriteByte(h, 0) // field separator
	}
	return h
}

const (
	offsetBasis uint64 = 14695981039346656037
	prime       uint64 = 1099511628211
)

func fnvWrite(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

func fnvWriteByte(h uint64, b byte) uint64 {
	h ^= uint64(b)
	h *= prime
	return h
}
