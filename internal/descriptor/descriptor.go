// Package descriptor models the user-supplied JSON shape: a rooted
// tree of nodes built by plain constructor calls (no reflection, no
// attribute discovery — that concern is explicitly out of scope for
// the engine, see SPEC_FULL.md). The engine only ever sees the
// normalised tree produced here.
package descriptor

import (
	"fmt"

	"github.com/quantatomai/streamgrid/internal/cursor"
)

// Kind tags the closed sum type of descriptor nodes.
type Kind int

const (
	KindRoot Kind = iota
	KindField
	KindObject
	KindFlattened
	KindArrayPattern
)

// Node is one entry of the shape tree. Which fields are meaningful
// depends on Kind; constructors below are the only supported way to
// build one.
type Node struct {
	Kind Kind

	JSONName string
	Children []*Node

	// Field only.
	ColumnName   string
	DeclaredType cursor.ColumnType

	// ArrayPattern only.
	Prefix string
}

// ShapeID identifies a descriptor for plan-cache and compiler
// diagnostics purposes. It is opaque to the engine: a type tag or a
// unique string supplied by the caller.
type ShapeID string

// Root builds the top-level shape: conceptually a FlattenedObject
// whose children form the per-row JSON object body. The executor
// itself wraps each row with '{' '}'; Root contributes no enclosing
// markers.
func Root(children ...*Node) *Node {
	return &Node{Kind: KindRoot, Children: children}
}

// Field binds one JSON property to one cursor column.
func Field(jsonName, columnName string, declared cursor.ColumnType) *Node {
	return &Node{Kind: KindField, JSONName: jsonName, ColumnName: columnName, DeclaredType: declared}
}

// Object nests children inside their own '{' "name": { ... } '}'.
func Object(jsonName string, children ...*Node) *Node {
	return &Node{Kind: KindObject, JSONName: jsonName, Children: children}
}

// Flatten inlines children into the enclosing object without
// introducing a nested '{}' or a property name of its own.
func Flatten(children ...*Node) *Node {
	return &Node{Kind: KindFlattened, Children: children}
}

// ArrayPattern collapses every cursor column whose name starts with
// prefix into a single JSON array of primitives, in ascending ordinal
// order. Expansion happens at compile time against the sample schema.
func ArrayPattern(jsonName, prefix string) *Node {
	return &Node{Kind: KindArrayPattern, JSONName: jsonName, Prefix: prefix}
}

// ValidationError reports a malformed descriptor detected at
// ingestion, before any compilation is attempted.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("descriptor invalid at %s: %s", e.Path, e.Reason)
}

// Validate enforces the ingestion rules from §4.2: non-empty names,
// FlattenedObject children restricted to Field/Object/Flattened/
// ArrayPattern, and (defensively) no cycles. Descriptors built only
// through the constructors above cannot cycle, since a *Node can only
// ever be referenced as a child of the call that created it; Validate
// still walks with a visited-set so a hand-assembled tree that violates
// that discipline is caught rather than looping forever.
func Validate(root *Node) error {
	if root == nil {
		return &ValidationError{Path: "$", Reason: "root is nil"}
	}
	if root.Kind != KindRoot {
		return &ValidationError{Path: "$", Reason: "top-level node must be Root"}
	}
	seen := make(map[*Node]bool)
	return validateNode(root, "$", seen)
}

func validateNode(n *Node, path string, seen map[*Node]bool) error {
	if n == nil {
		return &ValidationError{Path: path, Reason: "nil node"}
	}
	if seen[n] {
		return &ValidationError{Path: path, Reason: "cycle detected"}
	}
	seen[n] = true
	defer delete(seen, n)

	switch n.Kind {
	case KindField:
		if n.JSONName == "" {
			return &ValidationError{Path: path, Reason: "field has empty JSON name"}
		}
		if n.ColumnName == "" {
			return &ValidationError{Path: path, Reason: "field has empty column name"}
		}
	case KindArrayPattern:
		if n.JSONName == "" {
			return &ValidationError{Path: path, Reason: "array pattern has empty JSON name"}
		}
		if n.Prefix == "" {
			return &ValidationError{Path: path, Reason: "array pattern has empty prefix"}
		}
	case KindObject:
		if n.JSONName == "" {
			return &ValidationError{Path: path, Reason: "object has empty JSON name"}
		}
		for i, c := range n.Children {
			if err := validateNode(c, fmt.Sprintf("%s.%s[%d]", path, n.JSONName, i), seen); err != nil {
				return err
			}
		}
		return nil
	case KindFlattened, KindRoot:
		for i, c := range n.Children {
			if !isFlattenable(c.Kind) {
				return &ValidationError{
					Path:   fmt.Sprintf("%s[%d]", path, i),
					Reason: "flattened/root children must be Field, Object, FlattenedObject, or ArrayPattern",
				}
			}
			if err := validateNode(c, fmt.Sprintf("%s[%d]", path, i), seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return &ValidationError{Path: path, Reason: "unknown node kind"}
	}
	return nil
}

func isFlattenable(k Kind) bool {
	switch k {
	case KindField, KindObject, KindFlattened, KindArrayPattern:
		return true
	default:
		return false
	}
}
