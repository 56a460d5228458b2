// Package tree patches tree-shaped configuration documents (JSON, YAML,
// XML, TOML) through a small format-neutral node contract. Each format
// package implements Node over its own native tree so that untouched
// parts keep their structure and order.
package tree

import (
	"fmt"

	"emuinject/internal/settings"
)

// Node is an object node: it holds scalar leaves and nested objects.
// Name lookups are case-insensitive and return the first match.
type Node interface {
	Name() string
	Children() []Node
	Child(name string) (Node, bool)
	AddChild(name string) (Node, error)
	// Leaf returns the native literal of a scalar leaf.
	Leaf(key string) (string, bool)
	// SetLeaf overwrites the leaf in place or appends it at the end of
	// the node.
	SetLeaf(key string, v settings.Value) error
}

// Repeater is implemented by nodes that can hold several leaves with the
// same name, such as XML list elements.
type Repeater interface {
	// Leaves returns the text of every leaf named key, in order.
	Leaves(key string) []string
	// AddLeaf appends one more leaf named key after the existing ones.
	AddLeaf(key string, v settings.Value) error
}

// Document is a parsed tree file.
type Document interface {
	Root() Node
	// Literal spells v the way SetLeaf writes it, so that it can be
	// compared with Leaf.
	Literal(v settings.Value) string
	Bytes() ([]byte, error)
}

// ParseError reports a file that does not hold the expected tree.
type ParseError struct {
	Format  string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
