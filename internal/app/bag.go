package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"emuinject/internal/settings"
	"emuinject/internal/tree/tomldoc"
)

// LoadBag reads a settings bag from a TOML or YAML file: every table or
// mapping of scalars is a section, in file order. Root-level keys go to
// the "" section.
func LoadBag(path string) (*settings.Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("BAG_READ: %w", err)
	}
	var bag *settings.Bag
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		bag, err = yamlBag(data)
	default:
		bag, err = tomlBag(data)
	}
	if err != nil {
		return nil, fmt.Errorf("BAG_PARSE: %s: %w", path, err)
	}
	return bag, nil
}

func tomlBag(data []byte) (*settings.Bag, error) {
	doc, err := tomldoc.Parse(data)
	if err != nil {
		return nil, err
	}
	sections, err := doc.Sections()
	if err != nil {
		return nil, err
	}
	bag := settings.NewBag()
	for _, sec := range sections {
		for _, e := range sec.Entries {
			bag.Set(sec.Name, e.Key, e.Value)
		}
	}
	return bag, nil
}

func yamlBag(data []byte) (*settings.Bag, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	bag := settings.NewBag()
	if len(root.Content) == 0 {
		return bag, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: root is not a mapping", top.Line)
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		if val.Kind != yaml.MappingNode {
			if err := setYAML(bag, "", key, val); err != nil {
				return nil, err
			}
			continue
		}
		for j := 0; j+1 < len(val.Content); j += 2 {
			if err := setYAML(bag, key.Value, val.Content[j], val.Content[j+1]); err != nil {
				return nil, err
			}
		}
	}
	return bag, nil
}

func setYAML(bag *settings.Bag, section string, key, val *yaml.Node) error {
	if val.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %s is not a scalar", val.Line, key.Value)
	}
	var x any
	if err := val.Decode(&x); err != nil {
		return fmt.Errorf("line %d: %w", val.Line, err)
	}
	v, err := settings.FromAny(x)
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", val.Line, key.Value, err)
	}
	bag.Set(section, key.Value, v)
	return nil
}
