package settings

import "strings"

type entry struct {
	key   string
	value Value
}

type section struct {
	name    string
	entries []entry
}

// Bag is the ordered settings snapshot handed to the engine. Lookups are
// case-insensitive; iteration follows insertion order.
type Bag struct {
	sections []*section
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) section(name string) *section {
	for _, s := range b.sections {
		if strings.EqualFold(s.name, name) {
			return s
		}
	}
	return nil
}

// Set adds or replaces section.key. It is meant for building a snapshot;
// the engine itself never calls it.
func (b *Bag) Set(sectionName, key string, v Value) {
	s := b.section(sectionName)
	if s == nil {
		s = &section{name: sectionName}
		b.sections = append(b.sections, s)
	}
	for i := range s.entries {
		if strings.EqualFold(s.entries[i].key, key) {
			s.entries[i].value = v
			return
		}
	}
	s.entries = append(s.entries, entry{key: key, value: v})
}

func (b *Bag) Get(sectionName, key string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	s := b.section(sectionName)
	if s == nil {
		return Value{}, false
	}
	for _, e := range s.entries {
		if strings.EqualFold(e.key, key) {
			return e.value, true
		}
	}
	return Value{}, false
}

func (b *Bag) Sections() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.sections))
	for _, s := range b.sections {
		out = append(out, s.name)
	}
	return out
}

func (b *Bag) Keys(sectionName string) []string {
	if b == nil {
		return nil
	}
	s := b.section(sectionName)
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.key)
	}
	return out
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, s := range b.sections {
		n += len(s.entries)
	}
	return n
}
