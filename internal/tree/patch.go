package tree

import (
	"fmt"
	"strings"

	"emuinject/internal/binding"
	"emuinject/internal/settings"
)

// GetOrCreateChild walks a dotted path from n, creating missing objects.
func GetOrCreateChild(n Node, path string) (Node, error) {
	if path == "" {
		return n, nil
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("INJ_TREE_PATH: empty segment in %q", path)
		}
		child, ok := n.Child(part)
		if !ok {
			if _, isLeaf := n.Leaf(part); isLeaf {
				return nil, fmt.Errorf("INJ_TREE_CONFLICT: %q in %q is a value, not an object", part, path)
			}
			var err error
			if child, err = n.AddChild(part); err != nil {
				return nil, err
			}
		}
		n = child
	}
	return n, nil
}

// SetScalar writes v under key unless the leaf already holds it. It
// reports whether anything changed and whether the leaf was new.
func SetScalar(doc Document, n Node, key string, v settings.Value) (changed, appended bool, err error) {
	cur, ok := n.Leaf(key)
	if ok && cur == doc.Literal(v) {
		return false, false, nil
	}
	if !ok {
		if _, isObject := n.Child(key); isObject {
			return false, false, fmt.Errorf("INJ_TREE_CONFLICT: %q is an object, not a value", key)
		}
	}
	if err := n.SetLeaf(key, v); err != nil {
		return false, false, err
	}
	return true, !ok, nil
}

// Find returns the first node, in document order, holding a leaf named key.
func Find(n Node, key string) (Node, bool) {
	if _, ok := n.Leaf(key); ok {
		return n, true
	}
	for _, c := range n.Children() {
		if found, ok := Find(c, key); ok {
			return found, true
		}
	}
	return nil, false
}

// Apply patches doc with the bindings. Scoped bindings address the dotted
// path of their scope below the root; unscoped ones the first leaf with
// their key anywhere, or the root.
func Apply(doc Document, bindings []binding.KeyBinding) (binding.Changes, error) {
	var changes binding.Changes
	if err := binding.Validate(bindings); err != nil {
		return changes, err
	}
	root := doc.Root()
	for _, b := range bindings {
		node, err := target(root, b)
		if err != nil {
			return changes, err
		}
		if b.Policy == binding.AppendIfMissingEntry {
			appended, err := AddEntry(node, b.Key, b.Value)
			if err != nil {
				return changes, fmt.Errorf("%s: %w", b.ID(), err)
			}
			if appended {
				changes.Append(b.ID())
			}
			continue
		}
		if b.Policy == binding.OverwriteAndClearDefaultFlag {
			if err := clearDefaultFlag(doc, node, b, &changes); err != nil {
				return changes, err
			}
		}
		changed, appended, err := SetScalar(doc, node, b.Key, b.Value)
		if err != nil {
			return changes, fmt.Errorf("%s: %w", b.ID(), err)
		}
		switch {
		case appended:
			changes.Append(b.ID())
		case changed:
			changes.Replace(b.ID())
		}
	}
	return changes, nil
}

// AddEntry adds v as one more leaf named key unless an equivalent path is
// already listed. Only nodes that can repeat leaves support it.
func AddEntry(n Node, key string, v settings.Value) (bool, error) {
	r, ok := n.(Repeater)
	if !ok {
		return false, fmt.Errorf("INJ_TREE_POLICY: %s is not supported for %q in this format", binding.AppendIfMissingEntry, key)
	}
	if _, isObject := n.Child(key); isObject {
		if _, isLeaf := n.Leaf(key); !isLeaf {
			return false, fmt.Errorf("INJ_TREE_CONFLICT: %q is an object, not a value", key)
		}
	}
	for _, cur := range r.Leaves(key) {
		if binding.SameEntry(cur, v.String(), "") {
			return false, nil
		}
	}
	if err := r.AddLeaf(key, v); err != nil {
		return false, err
	}
	return true, nil
}

func target(root Node, b binding.KeyBinding) (Node, error) {
	if b.Scoped() {
		return GetOrCreateChild(root, b.Scope)
	}
	if n, ok := Find(root, b.Key); ok {
		return n, nil
	}
	return root, nil
}

// clearDefaultFlag sets an existing "<key>\default" sibling to false, and
// adds it when the key itself is about to be added.
func clearDefaultFlag(doc Document, n Node, b binding.KeyBinding, changes *binding.Changes) error {
	_, hasKey := n.Leaf(b.Key)
	_, hasFlag := n.Leaf(b.DefaultFlagKey())
	if !hasFlag && hasKey {
		return nil
	}
	changed, _, err := SetScalar(doc, n, b.DefaultFlagKey(), settings.BoolValue(false))
	if err != nil {
		return err
	}
	if changed {
		if b.Scoped() {
			changes.Replace(b.Scope + "." + b.DefaultFlagKey())
		} else {
			changes.Replace(b.DefaultFlagKey())
		}
	}
	return nil
}
