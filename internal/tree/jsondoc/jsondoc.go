// Package jsondoc edits JSON config files in place: values are read with
// gjson and written with sjson, so bytes outside the edited values stay
// as they were. The file is re-indented only when keys were added.
package jsondoc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"emuinject/internal/settings"
	"emuinject/internal/tree"
)

type Document struct {
	data     []byte
	indent   string
	finalEOL bool
	grown    bool
}

func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}\n")
	}
	if !gjson.ValidBytes(data) {
		return nil, &tree.ParseError{Format: "json", Message: "invalid JSON"}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, &tree.ParseError{Format: "json", Message: "root is not an object"}
	}
	return &Document{
		data:     append([]byte(nil), data...),
		indent:   detectIndent(data),
		finalEOL: bytes.HasSuffix(data, []byte("\n")),
	}, nil
}

func (d *Document) Root() tree.Node {
	return node{doc: d}
}

func (d *Document) Literal(v settings.Value) string {
	if v.Kind != settings.String {
		return v.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.String()); err != nil {
		return strconv.Quote(v.String())
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (d *Document) Bytes() ([]byte, error) {
	if !d.grown {
		return d.data, nil
	}
	out := pretty.PrettyOptions(d.data, &pretty.Options{Width: 80, Indent: d.indent})
	if !d.finalEOL {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

type node struct {
	doc  *Document
	path []string
}

func (n node) Name() string {
	if len(n.path) == 0 {
		return ""
	}
	return n.path[len(n.path)-1]
}

func (n node) value() gjson.Result {
	if len(n.path) == 0 {
		return gjson.ParseBytes(n.doc.data)
	}
	return gjson.GetBytes(n.doc.data, joinPath(n.path))
}

func (n node) sub(key string) node {
	path := make([]string, len(n.path), len(n.path)+1)
	copy(path, n.path)
	return node{doc: n.doc, path: append(path, key)}
}

// lookup finds the first member whose name matches key.
func (n node) lookup(key string) (string, gjson.Result, bool) {
	var (
		name  string
		found gjson.Result
		ok    bool
	)
	n.value().ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), key) {
			name, found, ok = k.String(), v, true
			return false
		}
		return true
	})
	return name, found, ok
}

func (n node) Children() []tree.Node {
	var out []tree.Node
	n.value().ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() {
			out = append(out, n.sub(k.String()))
		}
		return true
	})
	return out
}

func (n node) Child(name string) (tree.Node, bool) {
	key, v, ok := n.lookup(name)
	if !ok || !v.IsObject() {
		return nil, false
	}
	return n.sub(key), true
}

func (n node) AddChild(name string) (tree.Node, error) {
	child := n.sub(name)
	data, err := sjson.SetRawBytes(n.doc.data, joinPath(child.path), []byte("{}"))
	if err != nil {
		return nil, err
	}
	n.doc.data = data
	n.doc.grown = true
	return child, nil
}

func (n node) Leaf(key string) (string, bool) {
	_, v, ok := n.lookup(key)
	if !ok || v.IsObject() || v.IsArray() {
		return "", false
	}
	return v.Raw, true
}

func (n node) SetLeaf(key string, v settings.Value) error {
	name, _, exists := n.lookup(key)
	if !exists {
		name = key
	}
	data, err := sjson.SetRawBytes(n.doc.data, joinPath(n.sub(name).path), []byte(n.doc.Literal(v)))
	if err != nil {
		return err
	}
	n.doc.data = data
	if !exists {
		n.doc.grown = true
	}
	return nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`)

func joinPath(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = pathEscaper.Replace(p)
	}
	return strings.Join(escaped, ".")
}

func detectIndent(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == len(line) || len(trimmed) == 0 {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return "  "
}
