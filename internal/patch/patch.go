// Package patch routes bindings to the matching logic of each document
// kind and reports the outcome in one shape.
package patch

import (
	"context"
	"fmt"
	"strings"

	"emuinject/internal/binding"
	"emuinject/internal/kvstore"
	"emuinject/internal/lineconf"
	"emuinject/internal/tree"
	"emuinject/internal/tree/jsondoc"
	"emuinject/internal/tree/tomldoc"
	"emuinject/internal/tree/xmldoc"
	"emuinject/internal/tree/yamldoc"
)

// Format names a config file grammar.
type Format string

const (
	Lines  Format = "lines"
	JSON   Format = "json"
	YAML   Format = "yaml"
	XML    Format = "xml"
	TOML   Format = "toml"
	SQLite Format = "sqlite"
)

var formats = []Format{Lines, JSON, YAML, XML, TOML, SQLite}

func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("PATCH_FORMAT: unknown format %q", s)
}

// IsStore reports whether the format is patched in place through a
// database transaction instead of file bytes.
func (f Format) IsStore() bool {
	return f == SQLite
}

// Parse reads file bytes into a patchable document. opts only applies to
// line-oriented files.
func Parse(f Format, data []byte, opts lineconf.Options) (any, error) {
	switch f {
	case Lines:
		return lineconf.Parse(data, opts)
	case JSON:
		return jsondoc.Parse(data)
	case YAML:
		return yamldoc.Parse(data)
	case XML:
		return xmldoc.Parse(data)
	case TOML:
		return tomldoc.Parse(data)
	default:
		return nil, fmt.Errorf("PATCH_FORMAT: %q is not a file format", f)
	}
}

// Result is the outcome of patching one document. Data holds the
// serialized document when it was modified; stores leave it empty.
type Result struct {
	Modified bool
	Data     []byte
	Appended []string
	Replaced []string
}

func newResult(c binding.Changes) Result {
	return Result{Modified: c.Modified(), Appended: c.Appended, Replaced: c.Replaced}
}

// Apply patches doc, which is a *lineconf.Document, a tree.Document or a
// *kvstore.Store. Store changes stay uncommitted.
func Apply(ctx context.Context, doc any, bindings []binding.KeyBinding) (Result, error) {
	switch d := doc.(type) {
	case *lineconf.Document:
		changes, err := d.Apply(bindings)
		if err != nil {
			return Result{}, err
		}
		res := newResult(changes)
		if res.Modified {
			res.Data = d.Bytes()
		}
		return res, nil
	case tree.Document:
		changes, err := tree.Apply(d, bindings)
		if err != nil {
			return Result{}, err
		}
		res := newResult(changes)
		if res.Modified {
			if res.Data, err = d.Bytes(); err != nil {
				return Result{}, fmt.Errorf("PATCH_ENCODE: %w", err)
			}
		}
		return res, nil
	case *kvstore.Store:
		changes, err := d.Apply(ctx, bindings)
		if err != nil {
			return Result{}, err
		}
		return newResult(changes), nil
	default:
		return Result{}, fmt.Errorf("PATCH_DOCUMENT: unsupported document %T", doc)
	}
}
