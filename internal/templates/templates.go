// Package templates bundles the default config file of each supported
// emulator. A template is written out when an emulator has never been
// started and its config file does not exist yet.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed assets/*
var assets embed.FS

var ErrUnknown = errors.New("unknown template")

// Lookup returns the bytes of the template with the given file name.
func Lookup(id string) ([]byte, error) {
	data, err := assets.ReadFile("assets/" + id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return data, err
}

func Has(id string) bool {
	_, err := fs.Stat(assets, "assets/"+id)
	return err == nil
}

// IDs lists the bundled templates in name order.
func IDs() []string {
	entries, _ := assets.ReadDir("assets")
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids
}
