package binding

import (
	"fmt"
	"path"
	"strings"

	"emuinject/internal/settings"
)

// Policy controls how a binding is written when its key is found.
type Policy int

const (
	Overwrite Policy = iota
	// AppendIfMissingEntry treats the existing value as a ';' separated
	// list of paths and adds the desired entry only when absent.
	AppendIfMissingEntry
	// OverwriteAndClearDefaultFlag also sets the sibling "<key>\default"
	// flag to false.
	OverwriteAndClearDefaultFlag
)

func (p Policy) String() string {
	switch p {
	case AppendIfMissingEntry:
		return "append-if-missing-entry"
	case OverwriteAndClearDefaultFlag:
		return "overwrite-clear-default"
	default:
		return "overwrite"
	}
}

// DefaultFlagSuffix is appended to a key to name its "use default" sibling.
const DefaultFlagSuffix = `\default`

// KeyBinding is a single desired setting.
type KeyBinding struct {
	Key    string
	Scope  string
	Value  settings.Value
	Policy Policy
}

func (b KeyBinding) Scoped() bool {
	return b.Scope != ""
}

// InScope reports whether a key found under scope satisfies the binding.
func (b KeyBinding) InScope(scope string) bool {
	return !b.Scoped() || strings.EqualFold(b.Scope, scope)
}

func (b KeyBinding) DefaultFlagKey() string {
	return b.Key + DefaultFlagSuffix
}

// ID is the label used in change reports.
func (b KeyBinding) ID() string {
	if b.Scoped() {
		return b.Scope + "." + b.Key
	}
	return b.Key
}

func (b KeyBinding) String() string {
	return fmt.Sprintf("%s=%s (%s)", b.ID(), b.Value, b.Policy)
}

func Validate(bindings []KeyBinding) error {
	for i, b := range bindings {
		if strings.TrimSpace(b.Key) == "" {
			return fmt.Errorf("INJ_BINDING: binding %d has an empty key", i)
		}
		if b.Policy < Overwrite || b.Policy > OverwriteAndClearDefaultFlag {
			return fmt.Errorf("INJ_BINDING: binding %q has unknown policy %d", b.ID(), b.Policy)
		}
	}
	return nil
}

// Changes collects what a patch did to a document.
type Changes struct {
	Appended []string `json:"appended,omitempty"`
	Replaced []string `json:"replaced,omitempty"`
}

func (c Changes) Modified() bool {
	return len(c.Appended) > 0 || len(c.Replaced) > 0
}

func (c *Changes) Append(id string) {
	c.Appended = appendUnique(c.Appended, id)
}

func (c *Changes) Replace(id string) {
	c.Replaced = appendUnique(c.Replaced, id)
}

func appendUnique(list []string, id string) []string {
	for _, s := range list {
		if s == id {
			return list
		}
	}
	return append(list, id)
}

// NormalizeEntry turns a path list entry into an absolute, slash separated
// path without trailing separators, so that "roms/", "./roms" and
// "<base>\roms" compare equal. Relative entries stay relative when base
// is empty.
func NormalizeEntry(e, base string) string {
	e = strings.TrimSpace(e)
	if len(e) >= 2 && e[0] == '"' && e[len(e)-1] == '"' {
		e = strings.TrimSpace(e[1 : len(e)-1])
	}
	if e == "" {
		return ""
	}
	e = strings.ReplaceAll(e, `\`, "/")
	if !isAbsPath(e) && base != "" {
		e = strings.ReplaceAll(base, `\`, "/") + "/" + e
	}
	e = path.Clean(e)
	if trimmed := strings.TrimRight(e, "/"); trimmed != "" {
		e = trimmed
	}
	return e
}

// SameEntry reports whether two path list entries name the same place.
func SameEntry(a, b, base string) bool {
	na, nb := NormalizeEntry(a, base), NormalizeEntry(b, base)
	return na != "" && strings.EqualFold(na, nb)
}

func isAbsPath(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 2 && p[1] == ':' && (p[0]|0x20) >= 'a' && (p[0]|0x20) <= 'z'
}
