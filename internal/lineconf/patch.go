package lineconf

import (
	"strings"

	"emuinject/internal/binding"
	"emuinject/internal/settings"
)

// Apply patches the document in place. Bindings found in the file are
// rewritten where they stand; the rest are appended afterwards, unscoped
// ones at the end of the file and scoped ones at the end of their scope.
func (d *Document) Apply(bindings []binding.KeyBinding) (binding.Changes, error) {
	var changes binding.Changes
	if err := binding.Validate(bindings); err != nil {
		return changes, err
	}
	var pending []binding.KeyBinding
	for _, b := range bindings {
		if !d.update(b, &changes) {
			pending = append(pending, b)
		}
	}
	for _, b := range pending {
		if !b.Scoped() && !d.update(b, &changes) {
			d.appendAtEnd(b, &changes)
		}
	}
	for _, b := range pending {
		if b.Scoped() && !d.update(b, &changes) {
			d.appendInScope(b, &changes)
		}
	}
	return changes, nil
}

// update rewrites the first in-scope occurrence of the binding's key.
// It reports false when the key is not present.
func (d *Document) update(b binding.KeyBinding, changes *binding.Changes) bool {
	i := d.find(b.Key, b.Scope)
	if i < 0 {
		return false
	}
	l := d.lines[i]
	var next string
	if b.Policy == binding.AppendIfMissingEntry {
		next = d.mergeEntry(l.Value, b.Value.String())
	} else {
		next = d.render(b.Value)
	}
	if next != l.Value {
		l.setValue(next)
		changes.Replace(b.ID())
	}
	if b.Policy == binding.OverwriteAndClearDefaultFlag {
		d.clearDefaultFlag(b, l.scope(), changes)
	}
	return true
}

func (d *Document) clearDefaultFlag(b binding.KeyBinding, scope string, changes *binding.Changes) {
	i := d.find(b.DefaultFlagKey(), scope)
	if i < 0 {
		return
	}
	off := d.render(settings.BoolValue(false))
	if d.lines[i].Value != off {
		d.lines[i].setValue(off)
		changes.Replace(flagID(b))
	}
}

func (d *Document) appendAtEnd(b binding.KeyBinding, changes *binding.Changes) {
	var scope []string
	if n := len(d.lines); n > 0 {
		scope = d.lines[n-1].Scope
	}
	d.insert(len(d.lines), d.newLines(b, "", scope)...)
	changes.Append(b.ID())
}

func (d *Document) appendInScope(b binding.KeyBinding, changes *binding.Changes) {
	at, indent, scope, ok := d.scopeEnd(b.Scope)
	if !ok {
		at, indent, scope = d.createScope(b.Scope)
	}
	d.insert(at, d.newLines(b, indent, scope)...)
	changes.Append(b.ID())
}

// newLines builds the line(s) for an appended binding; the "\default"
// flag goes first, the way Qt writes it.
func (d *Document) newLines(b binding.KeyBinding, indent string, scope []string) []*Line {
	var value string
	if b.Policy == binding.AppendIfMissingEntry {
		value = d.mergeEntry("", b.Value.String())
	} else {
		value = d.render(b.Value)
	}
	line := d.newKeyValue(indent, b.Key, value, scope)
	if b.Policy != binding.OverwriteAndClearDefaultFlag {
		return []*Line{line}
	}
	flag := d.newKeyValue(indent, b.DefaultFlagKey(), d.render(settings.BoolValue(false)), scope)
	return []*Line{flag, line}
}

// scopeEnd locates the first section or block named scope and returns the
// index right after its last meaningful line.
func (d *Document) scopeEnd(scope string) (at int, indent string, path []string, ok bool) {
	for h, l := range d.lines {
		if (l.Kind != Section && l.Kind != BlockOpen) || !strings.EqualFold(l.Name, scope) {
			continue
		}
		if l.Kind == Section {
			at, indent = d.sectionEnd(h)
			return at, indent, []string{l.Name}, true
		}
		at, indent = d.blockEnd(h)
		return at, indent, append(append([]string{}, l.Scope...), l.Name), true
	}
	return 0, "", nil, false
}

func (d *Document) sectionEnd(h int) (int, string) {
	end := len(d.lines)
	for i := h + 1; i < len(d.lines); i++ {
		if d.lines[i].Kind == Section {
			end = i
			break
		}
	}
	at := h + 1
	indent := ""
	for i := h + 1; i < end; i++ {
		l := d.lines[i]
		if l.Kind != Blank {
			at = i + 1
		}
		if l.Kind == KeyValue && len(l.Scope) == 1 {
			indent = l.Indent
		}
	}
	return at, indent
}

func (d *Document) blockEnd(h int) (int, string) {
	indent := d.lines[h].Indent + d.opts.indent()
	depth := 0
	for i := h + 1; i < len(d.lines); i++ {
		l := d.lines[i]
		switch l.Kind {
		case BlockOpen:
			depth++
		case BlockClose:
			if depth == 0 {
				return i, indent
			}
			depth--
		case KeyValue:
			if depth == 0 {
				indent = l.Indent
			}
		}
	}
	return len(d.lines), indent
}

// createScope opens a new section or block at the end of the file and
// returns where its first line goes.
func (d *Document) createScope(name string) (int, string, []string) {
	n := len(d.lines)
	if n == 0 || d.lines[n-1].Kind != Blank {
		d.insert(n, &Line{Kind: Blank})
	}
	if d.opts.BlockScopes {
		open := &Line{Raw: name + " {", Kind: BlockOpen, Name: name}
		closing := &Line{Raw: "}", Kind: BlockClose, Scope: []string{name}}
		d.insert(len(d.lines), open, closing)
		return len(d.lines) - 1, d.opts.indent(), []string{name}
	}
	header := &Line{Raw: "[" + name + "]", Kind: Section, Name: name, Scope: []string{name}}
	d.insert(len(d.lines), header)
	return len(d.lines), "", []string{name}
}

func (d *Document) render(v settings.Value) string {
	s := v.String()
	if d.opts.QuoteValues {
		return `"` + s + `"`
	}
	return s
}

func flagID(b binding.KeyBinding) string {
	if b.Scoped() {
		return b.Scope + "." + b.DefaultFlagKey()
	}
	return b.DefaultFlagKey()
}
