// Package tomldoc edits TOML config files. The file is read with the
// go-toml/v2 streaming parser into an ordered table tree and written back
// in declared order; comments are not carried over.
package tomldoc

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"emuinject/internal/settings"
	"emuinject/internal/tree"
)

// literal is a value kept as TOML source text. kind and data are what the
// parser reported and are used when the value is read back as a setting.
type literal struct {
	text string
	kind unstable.Kind
	data string
}

type tableArray struct {
	tables []*table
}

type table struct {
	keys     []string
	values   map[string]any
	explicit bool
}

func newTable() *table {
	return &table{values: map[string]any{}}
}

func (t *table) find(key string) (string, any, bool) {
	for _, k := range t.keys {
		if strings.EqualFold(k, key) {
			return k, t.values[k], true
		}
	}
	return "", nil, false
}

func (t *table) set(key string, v any) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

func (t *table) hasLiterals() bool {
	for _, k := range t.keys {
		if _, ok := t.values[k].(literal); ok {
			return true
		}
	}
	return false
}

type Document struct {
	root *table
}

func Parse(data []byte) (*Document, error) {
	root := newTable()
	current := root
	var p unstable.Parser
	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			t, err := descend(root, keyParts(expr.Key()))
			if err != nil {
				return nil, err
			}
			t.explicit = true
			current = t
		case unstable.ArrayTable:
			parts := keyParts(expr.Key())
			parent, err := descend(root, parts[:len(parts)-1])
			if err != nil {
				return nil, err
			}
			last := parts[len(parts)-1]
			arr, ok := parent.values[last].(*tableArray)
			if !ok {
				if _, exists := parent.values[last]; exists {
					return nil, parseError("key %q redefined as an array of tables", strings.Join(parts, "."))
				}
				arr = &tableArray{}
				parent.set(last, arr)
			}
			current = newTable()
			current.explicit = true
			arr.tables = append(arr.tables, current)
		case unstable.KeyValue:
			parts := keyParts(expr.Key())
			t, err := descend(current, parts[:len(parts)-1])
			if err != nil {
				return nil, err
			}
			last := parts[len(parts)-1]
			if _, exists := t.values[last]; exists {
				return nil, parseError("duplicate key %q", strings.Join(parts, "."))
			}
			lit, err := readLiteral(expr.Value())
			if err != nil {
				return nil, err
			}
			t.set(last, lit)
		}
	}
	if err := p.Error(); err != nil {
		return nil, &tree.ParseError{Format: "toml", Message: err.Error(), Err: err}
	}
	return &Document{root: root}, nil
}

func parseError(format string, args ...any) error {
	return &tree.ParseError{Format: "toml", Message: fmt.Sprintf(format, args...)}
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// descend walks (and creates) tables below t. A path through an array of
// tables continues in its last element.
func descend(t *table, parts []string) (*table, error) {
	for _, part := range parts {
		switch v := t.values[part].(type) {
		case nil:
			next := newTable()
			t.set(part, next)
			t = next
		case *table:
			t = v
		case *tableArray:
			t = v.tables[len(v.tables)-1]
		default:
			return nil, parseError("key %q is a value, not a table", part)
		}
	}
	return t, nil
}

func readLiteral(n *unstable.Node) (literal, error) {
	text, err := encodeNode(n)
	if err != nil {
		return literal{}, err
	}
	return literal{text: text, kind: n.Kind, data: string(n.Data)}, nil
}

func encodeNode(n *unstable.Node) (string, error) {
	switch n.Kind {
	case unstable.String:
		return quoteString(string(n.Data)), nil
	case unstable.Bool, unstable.Integer, unstable.Float,
		unstable.LocalDate, unstable.LocalTime, unstable.LocalDateTime, unstable.DateTime:
		return string(n.Data), nil
	case unstable.Array:
		var parts []string
		it := n.Children()
		for it.Next() {
			s, err := encodeNode(it.Node())
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case unstable.InlineTable:
		var parts []string
		it := n.Children()
		for it.Next() {
			kv := it.Node()
			s, err := encodeNode(kv.Value())
			if err != nil {
				return "", err
			}
			parts = append(parts, joinKey(keyParts(kv.Key()))+" = "+s)
		}
		if len(parts) == 0 {
			return "{}", nil
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	default:
		return "", parseError("unsupported value kind %s", n.Kind)
	}
}

func (d *Document) Root() tree.Node {
	return node{t: d.root}
}

func (d *Document) Literal(v settings.Value) string {
	return literalOf(v).text
}

func literalOf(v settings.Value) literal {
	switch v.Kind {
	case settings.Bool:
		return literal{text: v.String(), kind: unstable.Bool, data: v.String()}
	case settings.Int:
		return literal{text: v.String(), kind: unstable.Integer, data: v.String()}
	case settings.Float:
		var s string
		switch f := v.Float(); {
		case math.IsNaN(f):
			s = "nan"
		case math.IsInf(f, 1):
			s = "inf"
		case math.IsInf(f, -1):
			s = "-inf"
		default:
			s = v.String()
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
		}
		return literal{text: s, kind: unstable.Float, data: s}
	default:
		return literal{text: quoteString(v.String()), kind: unstable.String, data: v.String()}
	}
}

// Bytes writes the tables back: a table's values first, then its
// sub-tables, each under a header unless it only groups other tables.
func (d *Document) Bytes() ([]byte, error) {
	var b bytes.Buffer
	writeTable(&b, nil, d.root)
	return b.Bytes(), nil
}

func writeTable(b *bytes.Buffer, path []string, t *table) {
	for _, k := range t.keys {
		if lit, ok := t.values[k].(literal); ok {
			b.WriteString(quoteKey(k) + " = " + lit.text + "\n")
		}
	}
	for _, k := range t.keys {
		sub := append(append([]string{}, path...), k)
		switch v := t.values[k].(type) {
		case *table:
			if v.explicit || v.hasLiterals() || len(v.keys) == 0 {
				writeHeader(b, "["+joinKey(sub)+"]")
			}
			writeTable(b, sub, v)
		case *tableArray:
			for _, el := range v.tables {
				writeHeader(b, "[["+joinKey(sub)+"]]")
				writeTable(b, sub, el)
			}
		}
	}
}

func writeHeader(b *bytes.Buffer, header string) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(header + "\n")
}

func joinKey(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quoteKey(p)
	}
	return strings.Join(quoted, ".")
}

func quoteKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return quoteString(k)
		}
	}
	return k
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Section is one table of scalar values, named by its dotted path.
type Section struct {
	Name    string
	Entries []Entry
}

type Entry struct {
	Key   string
	Value settings.Value
}

// Sections flattens the document into tables of scalars in document
// order. Root-level values land in the section named "".
func (d *Document) Sections() ([]Section, error) {
	var out []Section
	if err := collect(&out, "", d.root); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(out *[]Section, name string, t *table) error {
	sec := Section{Name: name}
	for _, k := range t.keys {
		lit, ok := t.values[k].(literal)
		if !ok {
			continue
		}
		v, err := lit.value()
		if err != nil {
			return fmt.Errorf("%s: %w", dotted(name, k), err)
		}
		sec.Entries = append(sec.Entries, Entry{Key: k, Value: v})
	}
	if len(sec.Entries) > 0 {
		*out = append(*out, sec)
	}
	for _, k := range t.keys {
		switch v := t.values[k].(type) {
		case *table:
			if err := collect(out, dotted(name, k), v); err != nil {
				return err
			}
		case *tableArray:
			return fmt.Errorf("%s: arrays of tables are not settings", dotted(name, k))
		}
	}
	return nil
}

func dotted(name, key string) string {
	if name == "" {
		return key
	}
	return name + "." + key
}

func (l literal) value() (settings.Value, error) {
	switch l.kind {
	case unstable.Bool:
		return settings.BoolValue(l.data == "true"), nil
	case unstable.Integer:
		i, err := strconv.ParseInt(l.data, 0, 64)
		if err != nil {
			return settings.Value{}, err
		}
		return settings.IntValue(i), nil
	case unstable.Float:
		f, err := strconv.ParseFloat(strings.ReplaceAll(l.data, "_", ""), 64)
		if err != nil {
			return settings.Value{}, err
		}
		return settings.FloatValue(f), nil
	case unstable.String:
		return settings.StringValue(l.data), nil
	default:
		return settings.Value{}, fmt.Errorf("unsupported setting type %s", l.kind)
	}
}

type node struct {
	name string
	t    *table
}

func (n node) Name() string { return n.name }

func (n node) Children() []tree.Node {
	var out []tree.Node
	for _, k := range n.t.keys {
		if sub, ok := n.t.values[k].(*table); ok {
			out = append(out, node{name: k, t: sub})
		}
	}
	return out
}

func (n node) Child(name string) (tree.Node, bool) {
	k, v, ok := n.t.find(name)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*table)
	if !ok {
		return nil, false
	}
	return node{name: k, t: sub}, true
}

func (n node) AddChild(name string) (tree.Node, error) {
	if _, _, ok := n.t.find(name); ok {
		return nil, fmt.Errorf("INJ_TREE_CONFLICT: %q already exists", name)
	}
	sub := newTable()
	sub.explicit = true
	n.t.set(name, sub)
	return node{name: name, t: sub}, nil
}

func (n node) Leaf(key string) (string, bool) {
	_, v, ok := n.t.find(key)
	if !ok {
		return "", false
	}
	lit, ok := v.(literal)
	return lit.text, ok
}

func (n node) SetLeaf(key string, v settings.Value) error {
	k, cur, ok := n.t.find(key)
	if !ok {
		n.t.set(key, literalOf(v))
		return nil
	}
	if _, isLit := cur.(literal); !isLit {
		return fmt.Errorf("INJ_TREE_CONFLICT: %q is not a value", k)
	}
	n.t.values[k] = literalOf(v)
	return nil
}
