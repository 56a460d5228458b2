package lineconf

import (
	"strings"

	"emuinject/internal/binding"
)

// mergeEntry appends entry to the ';' separated list current unless an
// equivalent path is already listed.
func (d *Document) mergeEntry(current, entry string) string {
	raw := current
	quoted := d.opts.QuoteValues && len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"'
	if quoted {
		raw = raw[1 : len(raw)-1]
	}
	want := binding.NormalizeEntry(entry, d.opts.BaseDir)
	if want == "" {
		return current
	}
	for _, e := range splitList(raw) {
		if strings.EqualFold(binding.NormalizeEntry(e, d.opts.BaseDir), want) {
			return current
		}
	}
	next := quoteEntry(entry)
	if strings.TrimSpace(raw) != "" {
		next = raw + ";" + next
	}
	if d.opts.QuoteValues {
		return `"` + next + `"`
	}
	return next
}

// splitList splits on ';' outside double quotes.
func splitList(s string) []string {
	var out []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func quoteEntry(e string) string {
	if strings.ContainsAny(e, "; ") && !(len(e) >= 2 && e[0] == '"' && e[len(e)-1] == '"') {
		return `"` + e + `"`
	}
	return e
}
