package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"emuinject/internal/audit"
	"emuinject/internal/backup"
	"emuinject/internal/binding"
	"emuinject/internal/config"
	"emuinject/internal/doctor"
	"emuinject/internal/injector"
	"emuinject/internal/locate"
	"emuinject/internal/logging"
	"emuinject/internal/schema"
	"emuinject/internal/settings"
	storepkg "emuinject/internal/store"
)

type Options struct {
	ConfigPath string
	// LogOutput receives log lines; os.Stderr when nil.
	LogOutput io.Writer
}

type Service struct {
	ConfigPath string
	Config     config.Config
	StateRoot  string

	Log      zerolog.Logger
	Audit    *audit.Logger
	Backups  *backup.Manager
	Injector *injector.Injector
	Doctor   *doctor.Service
}

func New(opts Options) (*Service, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Ensure(configPath)
	if err != nil {
		return nil, err
	}
	stateRoot, err := config.ResolveStorageRoot(cfg)
	if err != nil {
		return nil, err
	}
	if err := storepkg.EnsureLayout(stateRoot); err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log, err := logging.New(cfg.Logging, out)
	if err != nil {
		return nil, err
	}
	auditLog := audit.New(storepkg.AuditPath(stateRoot))
	var backups *backup.Manager
	if cfg.Backup.Enabled {
		backups = backup.New(storepkg.BackupRoot(stateRoot), cfg.Backup.Keep)
	}
	return &Service{
		ConfigPath: configPath,
		Config:     cfg,
		StateRoot:  stateRoot,
		Log:        log,
		Audit:      auditLog,
		Backups:    backups,
		Injector:   injector.New(injector.Options{Logger: &log, Reporter: auditLog, Backups: backups}),
		Doctor:     &doctor.Service{ConfigPath: configPath, StateRoot: stateRoot},
	}, nil
}

func (s *Service) SaveConfig() error {
	return config.Save(s.ConfigPath, s.Config)
}

// Schema returns the schema of an enabled emulator.
func (s *Service) Schema(name string) (schema.Schema, error) {
	sch, err := schema.Lookup(name)
	if err != nil {
		return schema.Schema{}, err
	}
	if !config.EmulatorEnabled(s.Config, sch.Name) {
		return schema.Schema{}, fmt.Errorf("EMU_DISABLED: emulator %q is disabled in %s", sch.Name, s.ConfigPath)
	}
	return sch, nil
}

func (s *Service) candidates(name string) ([]string, error) {
	e, ok := config.FindEmulator(s.Config, name)
	if !ok {
		return nil, nil
	}
	return config.ExpandCandidates(e.Candidates)
}

// Apply injects the settings bag at bagPath into the config of emulator.
func (s *Service) Apply(ctx context.Context, emulator, exe, bagPath string, dryRun bool) (injector.Report, error) {
	bag, err := LoadBag(bagPath)
	if err != nil {
		return injector.Report{}, err
	}
	return s.ApplyBag(ctx, emulator, exe, bag, dryRun)
}

func (s *Service) ApplyBag(ctx context.Context, emulator, exe string, bag *settings.Bag, dryRun bool) (injector.Report, error) {
	sch, err := s.Schema(emulator)
	if err != nil {
		return injector.Report{}, err
	}
	extra, err := s.candidates(sch.Name)
	if err != nil {
		return injector.Report{}, err
	}
	rep, err := s.Injector.Apply(ctx, injector.Request{
		Schema:     sch,
		Exe:        exe,
		Bag:        bag,
		Candidates: extra,
		DryRun:     dryRun,
	})
	if err != nil || dryRun {
		return rep, err
	}

	st, err := storepkg.LoadState(s.StateRoot)
	if err != nil {
		return rep, err
	}
	storepkg.SetInjection(&st, storepkg.Injection{
		Emulator:  sch.Name,
		Path:      rep.Path,
		Digest:    rep.Digest,
		Modified:  rep.Modified,
		Appended:  rep.Appended,
		Replaced:  rep.Replaced,
		Backup:    rep.Backup,
		AppliedAt: time.Now().UTC(),
	})
	if err := storepkg.SaveState(s.StateRoot, st); err != nil {
		return rep, err
	}
	_ = s.Audit.Log(audit.Event{
		Operation: "apply",
		Phase:     string(injector.StateDone),
		Status:    audit.StatusOK,
		Message:   fmt.Sprintf("modified=%t appended=%d replaced=%d", rep.Modified, len(rep.Appended), len(rep.Replaced)),
		Fields:    map[string]string{"emulator": sch.Name, "path": rep.Path, "digest": rep.Digest},
	})
	return rep, nil
}

// Bindings shows what Apply would write for the bag at bagPath.
func (s *Service) Bindings(emulator, bagPath string) ([]binding.KeyBinding, error) {
	sch, err := schema.Lookup(emulator)
	if err != nil {
		return nil, err
	}
	bag, err := LoadBag(bagPath)
	if err != nil {
		return nil, err
	}
	return sch.Bindings(bag), nil
}

// Locate reports where the config of emulator lives without creating it.
func (s *Service) Locate(emulator, exe string) (locate.Location, error) {
	sch, err := schema.Lookup(emulator)
	if err != nil {
		return locate.Location{}, err
	}
	extra, err := s.candidates(sch.Name)
	if err != nil {
		return locate.Location{}, err
	}
	return locate.Resolve(exe, append(extra, sch.Candidates...))
}

// Restore writes the newest backup of emulator over its config file.
func (s *Service) Restore(emulator, exe string) (backup.Snapshot, string, error) {
	if s.Backups == nil {
		return backup.Snapshot{}, "", fmt.Errorf("BACKUP_DISABLED: backups are disabled in %s", s.ConfigPath)
	}
	loc, err := s.Locate(emulator, exe)
	if err != nil {
		return backup.Snapshot{}, "", err
	}
	target := loc.Path
	if target == "" {
		target = loc.Primary
	}
	sch, _ := schema.Lookup(emulator)
	snap, err := s.Backups.Restore(sch.Name, target)
	if err != nil {
		s.Audit.Report("restore", "write", err, map[string]string{"emulator": sch.Name, "path": target})
		return backup.Snapshot{}, target, err
	}
	_ = s.Audit.Log(audit.Event{
		Operation: "restore",
		Phase:     string(injector.StateDone),
		Status:    audit.StatusOK,
		Fields:    map[string]string{"emulator": sch.Name, "path": target, "backup": snap.Path},
	})
	s.Log.Info().Str("emulator", sch.Name).Str("path", target).Str("backup", snap.Path).Msg("config restored")
	return snap, target, nil
}

// History lists the last apply of every emulator, sorted by name.
func (s *Service) History() ([]storepkg.Injection, error) {
	st, err := storepkg.LoadState(s.StateRoot)
	if err != nil {
		return nil, err
	}
	return st.Injections, nil
}

func (s *Service) DoctorRun(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}
