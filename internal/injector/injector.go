// Package injector runs one apply: find the emulator's config file
// (writing its template when missing), parse it, patch it with the
// settings bag and write it back only when something changed.
package injector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"emuinject/internal/backup"
	"emuinject/internal/binding"
	"emuinject/internal/fsutil"
	"emuinject/internal/kvstore"
	"emuinject/internal/locate"
	"emuinject/internal/patch"
	"emuinject/internal/schema"
	"emuinject/internal/settings"
	"emuinject/internal/store"
	"emuinject/internal/templates"
)

// Reporter receives failed applies.
type Reporter interface {
	Report(operation, phase string, err error, fields map[string]string)
}

type Options struct {
	Logger   *zerolog.Logger
	Reporter Reporter
	// Backups snapshots existing files before they are overwritten. Nil
	// disables snapshots.
	Backups *backup.Manager
	// WriteFile replaces file contents; fsutil.AtomicWrite when nil.
	WriteFile func(path string, data []byte, perm os.FileMode) error
}

type Injector struct {
	log       zerolog.Logger
	reporter  Reporter
	backups   *backup.Manager
	writeFile func(path string, data []byte, perm os.FileMode) error
}

func New(opts Options) *Injector {
	in := &Injector{
		log:       zerolog.Nop(),
		reporter:  opts.Reporter,
		backups:   opts.Backups,
		writeFile: opts.WriteFile,
	}
	if opts.Logger != nil {
		in.log = *opts.Logger
	}
	if in.writeFile == nil {
		in.writeFile = fsutil.AtomicWrite
	}
	return in
}

type Request struct {
	Schema schema.Schema
	Exe    string
	Bag    *settings.Bag
	// Candidates are tried before the schema's own locations.
	Candidates []string
	// DryRun patches in memory (or in a throwaway transaction) and
	// never touches the real file.
	DryRun bool
}

type Report struct {
	Emulator     string   `json:"emulator"`
	Format       string   `json:"format"`
	Path         string   `json:"path"`
	Bootstrapped bool     `json:"bootstrapped"`
	Modified     bool     `json:"modified"`
	Written      bool     `json:"written"`
	DryRun       bool     `json:"dry_run,omitempty"`
	Appended     []string `json:"appended,omitempty"`
	Replaced     []string `json:"replaced,omitempty"`
	Backup       string   `json:"backup,omitempty"`
	Digest       string   `json:"digest,omitempty"`
	// Output is the patched file content; empty for stores.
	Output []byte `json:"-"`
}

// Apply runs Locate, Bootstrap, Parse, Patch and Write for one emulator.
// When a step after Bootstrap fails, the bootstrapped file is removed
// again.
func (in *Injector) Apply(ctx context.Context, req Request) (Report, error) {
	var loc locate.Location
	rep, err := in.apply(ctx, req, &loc)
	if err != nil && loc.Bootstrapped {
		if uerr := loc.Undo(); uerr != nil {
			in.log.Warn().Err(uerr).Str("path", loc.Path).Msg("bootstrapped config not removed")
		}
		rep.Bootstrapped = false
	}
	return rep, err
}

func (in *Injector) apply(ctx context.Context, req Request, loc *locate.Location) (Report, error) {
	sch := req.Schema
	rep := Report{Emulator: sch.Name, Format: string(sch.Format), DryRun: req.DryRun}
	fail := func(kind error, state State, err error) (Report, error) {
		ierr := &Error{Kind: kind, State: state, Emulator: sch.Name, Path: rep.Path, Err: err}
		in.log.Error().Err(err).Str("emulator", sch.Name).Str("state", string(state)).Msg("apply failed")
		if in.reporter != nil {
			in.reporter.Report("apply", string(state), ierr, map[string]string{"emulator": sch.Name, "path": rep.Path})
		}
		return rep, ierr
	}
	if req.Bag == nil {
		req.Bag = settings.NewBag()
	}
	candidates := append(append([]string{}, req.Candidates...), sch.Candidates...)

	path, cleanup, err := in.locate(ctx, req, candidates, &rep, loc)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		if errors.Is(err, locate.ErrBootstrap) {
			return fail(ErrWrite, StateBootstrap, err)
		}
		return fail(ErrConfigNotFound, StateLocate, err)
	}
	in.log.Debug().Str("emulator", sch.Name).Str("path", rep.Path).Bool("bootstrapped", rep.Bootstrapped).Msg("config located")

	bindings := sch.Bindings(req.Bag)
	if sch.Format.IsStore() {
		return in.applyStore(ctx, req, path, bindings, rep, fail)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(ErrParse, StateParse, err)
	}
	opts := sch.Lines
	opts.BaseDir = filepath.Dir(rep.Path)
	doc, err := patch.Parse(sch.Format, data, opts)
	if err != nil {
		return fail(ErrParse, StateParse, err)
	}
	res, err := patch.Apply(ctx, doc, bindings)
	if err != nil {
		return fail(ErrParse, StatePatch, err)
	}
	rep.Modified, rep.Appended, rep.Replaced = res.Modified, res.Appended, res.Replaced
	final := data
	if res.Modified {
		final = res.Data
	}
	rep.Output = final
	rep.Digest = store.Digest(final)
	if !res.Modified || req.DryRun {
		in.done(rep)
		return rep, nil
	}

	if in.backups != nil && !rep.Bootstrapped {
		snap, err := in.backups.Save(sch.Name, data)
		if err != nil {
			return fail(ErrWrite, StateWrite, err)
		}
		rep.Backup = snap.Path
	}
	if err := in.writeFile(path, final, 0o644); err != nil {
		return fail(ErrWrite, StateWrite, err)
	}
	rep.Written = true
	in.done(rep)
	return rep, nil
}

// locate returns the file to patch. A dry run against a missing file
// patches a template copy in a temp directory instead of bootstrapping.
func (in *Injector) locate(ctx context.Context, req Request, candidates []string, rep *Report, out *locate.Location) (string, func(), error) {
	sch := req.Schema
	if !req.DryRun {
		loc, err := locate.Locate(ctx, locate.Request{
			Exe:         req.Exe,
			Candidates:  candidates,
			Template:    sch.Template,
			Materialize: sch.Materializer(),
		})
		*out = loc
		rep.Path, rep.Bootstrapped = loc.Path, loc.Bootstrapped
		if errors.Is(err, locate.ErrBootstrap) {
			rep.Path = loc.Primary
		}
		return loc.Path, nil, err
	}

	loc, err := locate.Resolve(req.Exe, candidates)
	if err != nil {
		return "", nil, err
	}
	if loc.Exists {
		rep.Path = loc.Path
		return loc.Path, nil, nil
	}
	if sch.Template == "" {
		return "", nil, fmt.Errorf("%w: no file at %s and no template", locate.ErrNotFound, loc.Primary)
	}
	data, err := templates.Lookup(sch.Template)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", locate.ErrNotFound, err)
	}
	dir, err := os.MkdirTemp("", "emuinject-dry-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	scratch := filepath.Join(dir, filepath.Base(loc.Primary))
	rep.Path, rep.Bootstrapped = loc.Primary, true
	if err := sch.Materializer()(ctx, scratch, data); err != nil {
		return "", cleanup, fmt.Errorf("%w: %w", locate.ErrBootstrap, err)
	}
	return scratch, cleanup, nil
}

func (in *Injector) applyStore(ctx context.Context, req Request, path string, bindings []binding.KeyBinding, rep Report, fail func(error, State, error) (Report, error)) (Report, error) {
	st, err := kvstore.Open(ctx, path, req.Schema.Table)
	if err != nil {
		return fail(ErrParse, StateParse, err)
	}
	defer st.Close()
	res, err := patch.Apply(ctx, st, bindings)
	if err != nil {
		return fail(ErrParse, StatePatch, err)
	}
	rep.Modified, rep.Appended, rep.Replaced = res.Modified, res.Appended, res.Replaced
	if res.Modified && !req.DryRun {
		if err := st.Commit(); err != nil {
			return fail(ErrWrite, StateWrite, err)
		}
		rep.Written = true
	}
	if blob, err := os.ReadFile(path); err == nil && !req.DryRun {
		rep.Digest = store.Digest(blob)
	}
	in.done(rep)
	return rep, nil
}

func (in *Injector) done(rep Report) {
	in.log.Info().
		Str("emulator", rep.Emulator).
		Str("path", rep.Path).
		Bool("modified", rep.Modified).
		Bool("written", rep.Written).
		Int("appended", len(rep.Appended)).
		Int("replaced", len(rep.Replaced)).
		Msg("config injected")
}
