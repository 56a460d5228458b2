// Package yamldoc edits YAML config files through yaml.v3 nodes, which
// keep key order and comments across a decode/encode cycle.
package yamldoc

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"emuinject/internal/settings"
	"emuinject/internal/tree"
)

type Document struct {
	root   yaml.Node
	indent int
}

func Parse(data []byte) (*Document, error) {
	d := &Document{indent: detectIndent(data)}
	if err := yaml.Unmarshal(data, &d.root); err != nil {
		return nil, &tree.ParseError{Format: "yaml", Message: err.Error(), Err: err}
	}
	if d.root.Kind == 0 {
		d.root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 || d.root.Content[0].Kind != yaml.MappingNode {
		return nil, &tree.ParseError{Format: "yaml", Line: d.root.Line, Message: "root is not a mapping"}
	}
	return d, nil
}

func (d *Document) Root() tree.Node {
	return node{n: d.root.Content[0]}
}

func (d *Document) Literal(v settings.Value) string {
	return v.String()
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(d.indent)
	if err := enc.Encode(&d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type node struct {
	name string
	n    *yaml.Node
}

func (n node) Name() string { return n.name }

// pair returns the index of the value node for key.
func (n node) pair(key string) (int, bool) {
	for i := 0; i+1 < len(n.n.Content); i += 2 {
		if strings.EqualFold(n.n.Content[i].Value, key) {
			return i + 1, true
		}
	}
	return 0, false
}

func (n node) Children() []tree.Node {
	var out []tree.Node
	for i := 0; i+1 < len(n.n.Content); i += 2 {
		if v := n.n.Content[i+1]; v.Kind == yaml.MappingNode {
			out = append(out, node{name: n.n.Content[i].Value, n: v})
		}
	}
	return out
}

func (n node) Child(name string) (tree.Node, bool) {
	i, ok := n.pair(name)
	if !ok || n.n.Content[i].Kind != yaml.MappingNode {
		return nil, false
	}
	return node{name: n.n.Content[i-1].Value, n: n.n.Content[i]}, true
}

func (n node) AddChild(name string) (tree.Node, error) {
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	n.n.Content = append(n.n.Content, keyNode(name), child)
	return node{name: name, n: child}, nil
}

func (n node) Leaf(key string) (string, bool) {
	i, ok := n.pair(key)
	if !ok || n.n.Content[i].Kind != yaml.ScalarNode {
		return "", false
	}
	return n.n.Content[i].Value, true
}

func (n node) SetLeaf(key string, v settings.Value) error {
	if i, ok := n.pair(key); ok {
		cur := n.n.Content[i]
		if cur.Kind == yaml.ScalarNode && (cur.Style == yaml.LiteralStyle || cur.Style == yaml.FoldedStyle) {
			cur.Style = 0
		}
		cur.Kind = yaml.ScalarNode
		cur.Tag = tag(v)
		cur.Value = v.String()
		cur.Content = nil
		return nil
	}
	n.n.Content = append(n.n.Content, keyNode(key), &yaml.Node{Kind: yaml.ScalarNode, Tag: tag(v), Value: v.String()})
	return nil
}

func keyNode(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func tag(v settings.Value) string {
	switch v.Kind {
	case settings.Bool:
		return "!!bool"
	case settings.Int:
		return "!!int"
	case settings.Float:
		return "!!float"
	default:
		return "!!str"
	}
}

func detectIndent(data []byte) int {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " ")
		if n := len(line) - len(trimmed); n > 0 && len(trimmed) > 0 && trimmed[0] != '#' && trimmed[0] != '-' {
			return n
		}
	}
	return 2
}
