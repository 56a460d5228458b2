// Package xmldoc edits XML config files with etree. Elements holding child
// elements are objects; elements holding only text are leaves.
package xmldoc

import (
	"strings"

	"github.com/beevik/etree"

	"emuinject/internal/settings"
	"emuinject/internal/tree"
)

type Document struct {
	doc    *etree.Document
	indent int
	grown  bool
}

func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &tree.ParseError{Format: "xml", Message: err.Error(), Err: err}
	}
	if doc.Root() == nil {
		return nil, &tree.ParseError{Format: "xml", Message: "missing root element"}
	}
	return &Document{doc: doc, indent: detectIndent(string(data))}, nil
}

func (d *Document) Root() tree.Node {
	return node{doc: d, el: d.doc.Root()}
}

func (d *Document) Literal(v settings.Value) string {
	return v.String()
}

// Bytes serializes the tree. Added elements carry no whitespace of their
// own, so the document is re-indented when anything was added.
func (d *Document) Bytes() ([]byte, error) {
	if d.grown {
		d.doc.Indent(d.indent)
	}
	return d.doc.WriteToBytes()
}

type node struct {
	doc *Document
	el  *etree.Element
}

func (n node) Name() string { return n.el.Tag }

func isLeaf(el *etree.Element) bool {
	return len(el.ChildElements()) == 0
}

func isObject(el *etree.Element) bool {
	return !isLeaf(el) || strings.TrimSpace(el.Text()) == ""
}

func (n node) Children() []tree.Node {
	var out []tree.Node
	for _, c := range n.el.ChildElements() {
		if !isLeaf(c) {
			out = append(out, node{doc: n.doc, el: c})
		}
	}
	return out
}

func (n node) Child(name string) (tree.Node, bool) {
	for _, c := range n.el.ChildElements() {
		if strings.EqualFold(c.Tag, name) && isObject(c) {
			return node{doc: n.doc, el: c}, true
		}
	}
	return nil, false
}

func (n node) AddChild(name string) (tree.Node, error) {
	n.doc.grown = true
	return node{doc: n.doc, el: n.el.CreateElement(name)}, nil
}

func (n node) leaf(key string) *etree.Element {
	for _, c := range n.el.ChildElements() {
		if strings.EqualFold(c.Tag, key) && isLeaf(c) {
			return c
		}
	}
	return nil
}

func (n node) Leaf(key string) (string, bool) {
	el := n.leaf(key)
	if el == nil {
		return "", false
	}
	return el.Text(), true
}

func (n node) SetLeaf(key string, v settings.Value) error {
	el := n.leaf(key)
	if el == nil {
		el = n.el.CreateElement(key)
		n.doc.grown = true
	}
	el.SetText(v.String())
	return nil
}

func (n node) Leaves(key string) []string {
	var out []string
	for _, c := range n.el.ChildElements() {
		if strings.EqualFold(c.Tag, key) && isLeaf(c) {
			out = append(out, c.Text())
		}
	}
	return out
}

// AddLeaf inserts a new element right after the last one named key, or at
// the end of the node when there is none.
func (n node) AddLeaf(key string, v settings.Value) error {
	var last *etree.Element
	for _, c := range n.el.ChildElements() {
		if strings.EqualFold(c.Tag, key) && isLeaf(c) {
			last = c
		}
	}
	n.doc.grown = true
	if last == nil {
		n.el.CreateElement(key).SetText(v.String())
		return nil
	}
	el := etree.NewElement(last.Tag)
	el.SetText(v.String())
	n.el.InsertChildAt(last.Index()+1, el)
	return nil
}

func detectIndent(s string) int {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if n := len(line) - len(trimmed); n > 0 && strings.HasPrefix(trimmed, "<") {
			return n
		}
	}
	return 2
}
