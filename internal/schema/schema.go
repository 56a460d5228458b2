// Package schema holds the table of supported emulators: where each one
// keeps its config, which grammar the file uses and how entries of a
// settings bag map onto its keys.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"emuinject/internal/binding"
	"emuinject/internal/kvstore"
	"emuinject/internal/lineconf"
	"emuinject/internal/locate"
	"emuinject/internal/patch"
	"emuinject/internal/settings"
	"emuinject/internal/templates"
)

// BoolStyle is how an emulator spells booleans.
type BoolStyle int

const (
	// Words keeps the boolean, written as true/false or the format's
	// native literal.
	Words BoolStyle = iota
	Digits
	Title
	OnOff
)

func (s BoolStyle) convert(v settings.Value) settings.Value {
	if v.Kind != settings.Bool {
		return v
	}
	switch s {
	case Digits:
		if v.Bool() {
			return settings.IntValue(1)
		}
		return settings.IntValue(0)
	case Title:
		if v.Bool() {
			return settings.StringValue("True")
		}
		return settings.StringValue("False")
	case OnOff:
		if v.Bool() {
			return settings.StringValue("on")
		}
		return settings.StringValue("off")
	default:
		return v
	}
}

// Rule maps the bag entry Section/Key onto the config key Target inside
// Scope.
type Rule struct {
	Section string
	Key     string
	Scope   string
	Target  string
	Policy  binding.Policy
	Bools   BoolStyle
}

type Schema struct {
	Name   string
	Format patch.Format
	// Candidates are config locations relative to the executable, the
	// bootstrap target first.
	Candidates []string
	Template   string
	Lines      lineconf.Options
	Table      kvstore.Table
	Rules      []Rule
}

// Bindings turns the bag into the ordered bindings of every rule whose
// entry is present.
func (s Schema) Bindings(bag *settings.Bag) []binding.KeyBinding {
	var out []binding.KeyBinding
	for _, r := range s.Rules {
		v, ok := bag.Get(r.Section, r.Key)
		if !ok {
			continue
		}
		out = append(out, binding.KeyBinding{
			Key:    r.Target,
			Scope:  r.Scope,
			Value:  r.Bools.convert(v),
			Policy: r.Policy,
		})
	}
	return out
}

// Materializer returns how the template is written on bootstrap.
func (s Schema) Materializer() locate.Materializer {
	if s.Format.IsStore() {
		return func(ctx context.Context, path string, template []byte) error {
			return kvstore.Exec(ctx, path, string(template))
		}
	}
	return locate.CopyTemplate
}

func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("SCHEMA_INVALID: empty name")
	}
	if _, err := patch.ParseFormat(string(s.Format)); err != nil {
		return fmt.Errorf("SCHEMA_INVALID: %s: %w", s.Name, err)
	}
	if len(s.Candidates) == 0 {
		return fmt.Errorf("SCHEMA_INVALID: %s: no candidate locations", s.Name)
	}
	if s.Template != "" && !templates.Has(s.Template) {
		return fmt.Errorf("SCHEMA_INVALID: %s: template %q is not bundled", s.Name, s.Template)
	}
	if s.Format.IsStore() {
		if err := s.Table.Validate(); err != nil {
			return fmt.Errorf("SCHEMA_INVALID: %s: %w", s.Name, err)
		}
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("SCHEMA_INVALID: %s: no rules", s.Name)
	}
	for i, r := range s.Rules {
		if r.Section == "" || r.Key == "" || r.Target == "" {
			return fmt.Errorf("SCHEMA_INVALID: %s: rule %d is incomplete", s.Name, i)
		}
		switch {
		case s.Format.IsStore() && r.Policy != binding.Overwrite:
			return fmt.Errorf("SCHEMA_INVALID: %s: rule %s.%s: stores only overwrite", s.Name, r.Section, r.Key)
		case s.Format != patch.Lines && s.Format != patch.XML && r.Policy == binding.AppendIfMissingEntry:
			return fmt.Errorf("SCHEMA_INVALID: %s: rule %s.%s: path lists need a line or XML format", s.Name, r.Section, r.Key)
		}
	}
	return nil
}

var registry = map[string]Schema{}

func register(s Schema) {
	registry[strings.ToLower(s.Name)] = s
}

func Lookup(name string) (Schema, error) {
	s, ok := registry[strings.ToLower(name)]
	if !ok {
		return Schema{}, fmt.Errorf("SCHEMA_UNKNOWN: emulator %q is not supported", name)
	}
	return s, nil
}

func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All returns every registered schema in name order.
func All() []Schema {
	names := Names()
	out := make([]Schema, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}

// ValidateAll checks every registered schema.
func ValidateAll() error {
	for _, s := range All() {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
