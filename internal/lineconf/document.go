package lineconf

import (
	"bytes"
	"fmt"
	"strings"

	"emuinject/internal/binding"
)

// Assign selects how a key is separated from its value.
type Assign int

const (
	// AssignEquals is "key = value" (whitespace around '=' optional).
	AssignEquals Assign = iota
	// AssignWhitespace is "key<whitespace>value".
	AssignWhitespace
)

// Options describe the dialect of one emulator's text config.
type Options struct {
	Assign Assign
	// Separator is written between key and value on new lines.
	Separator string
	// QuoteValues wraps every written value in double quotes.
	QuoteValues bool
	// InlineComments enables "value ; comment" trailing comments.
	InlineComments bool
	// BlockScopes creates missing scopes as "name {" blocks instead of
	// "[name]" sections.
	BlockScopes bool
	// Indent is the unit used for lines added inside a brace block.
	Indent string
	// BaseDir resolves relative entries of path lists.
	BaseDir string
}

func (o Options) separator() string {
	if o.Separator != "" {
		return o.Separator
	}
	if o.Assign == AssignWhitespace {
		return " "
	}
	return " = "
}

func (o Options) indent() string {
	if o.Indent != "" {
		return o.Indent
	}
	return "  "
}

type Kind int

const (
	Blank Kind = iota
	Comment
	Section
	BlockOpen
	BlockClose
	KeyValue
	Opaque
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Section:
		return "section"
	case BlockOpen:
		return "block-open"
	case BlockClose:
		return "block-close"
	case KeyValue:
		return "key-value"
	default:
		return "opaque"
	}
}

// Line is one physical line. For key/value lines Raw is exactly
// prefix + Value + Trailing, where prefix holds the indent, key and
// separator.
type Line struct {
	Raw      string
	Kind     Kind
	Indent   string
	Key      string
	Value    string
	Trailing string
	Name     string
	Scope    []string

	prefix string
	eol    string
}

func (l *Line) scope() string {
	if len(l.Scope) == 0 {
		return ""
	}
	return l.Scope[len(l.Scope)-1]
}

func (l *Line) setValue(v string) {
	l.Value = v
	l.Raw = l.prefix + v + l.Trailing
}

// ParseError reports content the line grammar cannot hold.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Document is the editable model of a line-oriented file.
type Document struct {
	opts  Options
	lines []*Line
	bom   string
	eol   string
}

const utf8BOM = "\ufeff"

func Parse(data []byte, opts Options) (*Document, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return nil, &ParseError{Line: bytes.Count(data[:i], []byte("\n")) + 1, Message: "binary content"}
	}
	text := string(data)
	d := &Document{opts: opts, eol: "\n"}
	if strings.HasPrefix(text, utf8BOM) {
		d.bom = utf8BOM
		text = text[len(utf8BOM):]
	}
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		d.eol = "\r\n"
	}

	var stack ScopeStack
	for len(text) > 0 {
		raw, eol := text, ""
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			raw, eol = text[:i], "\n"
			text = text[i+1:]
			if strings.HasSuffix(raw, "\r") {
				raw, eol = raw[:len(raw)-1], "\r\n"
			}
		} else {
			text = ""
		}
		l := d.classify(raw, &stack)
		l.eol = eol
		d.lines = append(d.lines, l)
	}
	return d, nil
}

func (d *Document) classify(raw string, stack *ScopeStack) *Line {
	l := &Line{Raw: raw, Indent: leadingSpace(raw)}
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		l.Kind = Blank
	case trimmed[0] == ';' || trimmed[0] == '#':
		l.Kind = Comment
	case trimmed[0] == '[' && isSectionHeader(trimmed):
		l.Kind = Section
		l.Name = sectionName(trimmed)
		stack.EnterSection(l.Name)
	case trimmed[0] == '}':
		l.Kind = BlockClose
		l.Scope = stack.Path()
		stack.Pop()
		return l
	default:
		if name, ok := d.blockName(trimmed); ok {
			l.Kind = BlockOpen
			l.Name = name
			l.Scope = stack.Path()
			stack.Push(name)
			return l
		}
		d.splitKeyValue(l)
	}
	l.Scope = stack.Path()
	return l
}

// isSectionHeader accepts "[name]" optionally followed by a ';' or '#'
// comment.
func isSectionHeader(trimmed string) bool {
	end := strings.IndexByte(trimmed, ']')
	if end < 0 {
		return false
	}
	rest := strings.TrimSpace(trimmed[end+1:])
	return rest == "" || rest[0] == ';' || rest[0] == '#'
}

func sectionName(trimmed string) string {
	end := strings.IndexByte(trimmed, ']')
	return strings.TrimSpace(trimmed[1:end])
}

// blockName recognises "name {", "name = {" and a bare "{".
func (d *Document) blockName(trimmed string) (string, bool) {
	if !strings.HasSuffix(trimmed, "{") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(trimmed, "{"))
	name = strings.TrimSpace(strings.TrimRight(name, "=:"))
	if strings.ContainsAny(name, " \t=\"") {
		return "", false
	}
	return name, true
}

func (d *Document) splitKeyValue(l *Line) {
	raw := l.Raw
	start := len(l.Indent)
	var keyEnd, valueStart int
	switch d.opts.Assign {
	case AssignWhitespace:
		keyEnd = start
		for keyEnd < len(raw) && !isSpace(raw[keyEnd]) {
			keyEnd++
		}
		valueStart = keyEnd
		for valueStart < len(raw) && isSpace(raw[valueStart]) {
			valueStart++
		}
	default:
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			l.Kind = Opaque
			return
		}
		keyEnd = eq
		valueStart = eq + 1
		for valueStart < len(raw) && isSpace(raw[valueStart]) {
			valueStart++
		}
	}
	key := strings.TrimSpace(raw[start:keyEnd])
	if key == "" {
		l.Kind = Opaque
		return
	}
	valueEnd := d.valueEnd(raw, valueStart)
	l.Kind = KeyValue
	l.Key = key
	l.prefix = raw[:valueStart]
	if valueStart == keyEnd && d.opts.Assign == AssignWhitespace {
		// Bare key: a written value still needs a separator.
		l.prefix = raw[:keyEnd] + d.opts.separator()
	}
	l.Value = raw[valueStart:valueEnd]
	l.Trailing = raw[valueEnd:]
}

// valueEnd finds where the value segment stops: before an inline comment
// (outside quotes, preceded by whitespace) and before trailing whitespace.
func (d *Document) valueEnd(raw string, from int) int {
	end := len(raw)
	if d.opts.InlineComments {
		inQuote := false
		for i := from; i < len(raw); i++ {
			c := raw[i]
			if c == '"' {
				inQuote = !inQuote
				continue
			}
			if inQuote || (c != ';' && c != '#') {
				continue
			}
			if i == from || isSpace(raw[i-1]) {
				end = i
				break
			}
		}
	}
	for end > from && isSpace(raw[end-1]) {
		end--
	}
	return end
}

// Bytes re-emits the document. Untouched lines come back byte for byte.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(d.bom)
	for _, l := range d.lines {
		buf.WriteString(l.Raw)
		buf.WriteString(l.eol)
	}
	return buf.Bytes()
}

// Lines returns a snapshot of the parsed lines.
func (d *Document) Lines() []Line {
	out := make([]Line, len(d.lines))
	for i, l := range d.lines {
		out[i] = *l
	}
	return out
}

// Get returns the raw value of the first key matching scope ("" for any).
func (d *Document) Get(scope, key string) (string, bool) {
	if i := d.find(key, scope); i >= 0 {
		return d.lines[i].Value, true
	}
	return "", false
}

// find returns the index of the first key/value line named key whose
// scope satisfies scope ("" for any).
func (d *Document) find(key, scope string) int {
	want := binding.KeyBinding{Key: key, Scope: scope}
	for i, l := range d.lines {
		if l.Kind == KeyValue && strings.EqualFold(l.Key, key) && want.InScope(l.scope()) {
			return i
		}
	}
	return -1
}

// insert places lines before index at. Every line keeps a terminator
// once something follows it.
func (d *Document) insert(at int, lines ...*Line) {
	for _, l := range lines {
		l.eol = d.eol
	}
	if at > 0 && at == len(d.lines) && d.lines[at-1].eol == "" {
		d.lines[at-1].eol = d.eol
	}
	tail := append([]*Line{}, d.lines[at:]...)
	d.lines = append(append(d.lines[:at], lines...), tail...)
}

func (d *Document) newKeyValue(indent, key, value string, scope []string) *Line {
	l := &Line{Kind: KeyValue, Indent: indent, Key: key, Scope: scope}
	l.prefix = indent + key + d.opts.separator()
	l.setValue(value)
	return l
}

func leadingSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[:i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
