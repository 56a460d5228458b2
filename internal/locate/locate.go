// Package locate finds an emulator's config file next to its executable
// and writes the bundled template there when none exists yet.
package locate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"emuinject/internal/fsutil"
	"emuinject/internal/templates"
)

var (
	// ErrNotFound means no candidate exists and there is nothing to
	// bootstrap.
	ErrNotFound  = errors.New("config not found")
	ErrBootstrap = errors.New("bootstrap failed")
)

// Materializer writes a template to path. The parent directory exists.
type Materializer func(ctx context.Context, path string, template []byte) error

type Request struct {
	Exe string
	// Candidates are tried in order. Relative ones are resolved against
	// the executable's directory; the first one is the bootstrap target.
	Candidates  []string
	Template    string
	Materialize Materializer
}

type Location struct {
	Path         string `json:"path"`
	Primary      string `json:"primary"`
	Exists       bool   `json:"exists"`
	Bootstrapped bool   `json:"bootstrapped"`

	// created lists the directories a bootstrap made, innermost first.
	created []string
}

// Undo removes what a bootstrap created: the file and any directory that
// did not exist before and is empty again. It is a no-op otherwise.
func (l Location) Undo() error {
	if !l.Bootstrapped {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, dir := range l.created {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// Resolve reports the first existing candidate without creating anything.
// When none exists, Path is empty and Primary names where a bootstrap
// would write.
func Resolve(exe string, candidates []string) (Location, error) {
	if exe == "" {
		return Location{}, errors.New("LOCATE_EXE: executable path is empty")
	}
	if len(candidates) == 0 {
		return Location{}, errors.New("LOCATE_CANDIDATES: no candidate locations")
	}
	base := exe
	if info, err := os.Stat(exe); err != nil || !info.IsDir() {
		base = filepath.Dir(exe)
	}
	var loc Location
	for i, c := range candidates {
		path := filepath.FromSlash(c)
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		if i == 0 {
			loc.Primary = path
		}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			loc.Path = path
			loc.Exists = true
			return loc, nil
		}
	}
	return loc, nil
}

// Locate resolves the config file and, when it is missing, materializes
// the request's template at the primary candidate.
func Locate(ctx context.Context, req Request) (Location, error) {
	loc, err := Resolve(req.Exe, req.Candidates)
	if err != nil {
		return loc, err
	}
	if loc.Exists {
		return loc, nil
	}
	if req.Template == "" {
		return loc, fmt.Errorf("%w: no file at %s and no template", ErrNotFound, loc.Primary)
	}
	data, err := templates.Lookup(req.Template)
	if errors.Is(err, templates.ErrUnknown) {
		return loc, fmt.Errorf("%w: no file at %s: %v", ErrNotFound, loc.Primary, err)
	}
	if err != nil {
		return loc, err
	}
	created := missingDirs(filepath.Dir(loc.Primary))
	if err := fsutil.EnsureDir(loc.Primary); err != nil {
		return loc, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	materialize := req.Materialize
	if materialize == nil {
		materialize = CopyTemplate
	}
	loc.Path, loc.Bootstrapped, loc.created = loc.Primary, true, created
	if err := materialize(ctx, loc.Primary, data); err != nil {
		_ = loc.Undo()
		loc.Path, loc.Bootstrapped, loc.created = "", false, nil
		return loc, fmt.Errorf("%w: %s: %w", ErrBootstrap, loc.Primary, err)
	}
	return loc, nil
}

// missingDirs returns dir and those of its parents that do not exist,
// innermost first.
func missingDirs(dir string) []string {
	var out []string
	for {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			return out
		}
		out = append(out, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return out
		}
		dir = parent
	}
}

// CopyTemplate writes the template bytes as they are.
func CopyTemplate(_ context.Context, path string, template []byte) error {
	return fsutil.AtomicWrite(path, template, 0o644)
}
