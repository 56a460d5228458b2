package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"emuinject/internal/app"
	"emuinject/internal/config"
	"emuinject/internal/injector"
	"emuinject/internal/patch"
	"emuinject/internal/schema"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

// Exit codes of a failed apply, by the step that failed.
const (
	exitUnhealthy = 2
	exitLocate    = 3
	exitParse     = 4
	exitWrite     = 5
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ex ExitCoder
	if errors.As(err, &ex) {
		return ex.ExitCode()
	}
	switch {
	case errors.Is(err, injector.ErrConfigNotFound):
		return exitLocate
	case errors.Is(err, injector.ErrParse):
		return exitParse
	case errors.Is(err, injector.ErrWrite):
		return exitWrite
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigPath: configPath})
	}

	cmd := &cobra.Command{
		Use:           "emuinject",
		Short:         "Inject front-end settings into emulator config files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newApplyCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newListCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newShowCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newLocateCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRestoreCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newHistoryCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(newSvc, &jsonOutput))

	return cmd
}

func newApplyCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var exe string
	var settingsPath string
	var dryRun bool
	var showOutput bool
	cmd := &cobra.Command{
		Use:     "apply <emulator>",
		Aliases: []string{"inject"},
		Short:   "Write a settings bag into an emulator config",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(exe) == "" {
				return fmt.Errorf("APPLY_EXE: --exe is required")
			}
			if strings.TrimSpace(settingsPath) == "" {
				return fmt.Errorf("APPLY_SETTINGS: --settings is required")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			rep, err := svc.Apply(context.Background(), args[0], exe, settingsPath, dryRun)
			if err != nil {
				return err
			}
			if showOutput && !*jsonOutput && len(rep.Output) > 0 {
				_, err := os.Stdout.Write(rep.Output)
				return err
			}
			return print(*jsonOutput, rep, applySummary(rep))
		},
	}
	cmd.Flags().StringVar(&exe, "exe", "", "emulator executable or install directory")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings bag (TOML or YAML)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "patch in memory without writing")
	cmd.Flags().BoolVar(&showOutput, "print", false, "print the patched file instead of a summary")
	return cmd
}

func applySummary(rep injector.Report) string {
	var b strings.Builder
	switch {
	case rep.DryRun && rep.Modified:
		fmt.Fprintf(&b, "would update %s (%s)", rep.Path, rep.Emulator)
	case rep.DryRun:
		fmt.Fprintf(&b, "%s already up to date (%s)", rep.Path, rep.Emulator)
	case rep.Written:
		fmt.Fprintf(&b, "updated %s (%s)", rep.Path, rep.Emulator)
	default:
		fmt.Fprintf(&b, "%s unchanged (%s)", rep.Path, rep.Emulator)
	}
	if rep.Bootstrapped {
		b.WriteString("\ncreated from template")
	}
	for _, id := range rep.Replaced {
		fmt.Fprintf(&b, "\n  ~ %s", id)
	}
	for _, id := range rep.Appended {
		fmt.Fprintf(&b, "\n  + %s", id)
	}
	if rep.Backup != "" {
		fmt.Fprintf(&b, "\nbackup: %s", rep.Backup)
	}
	if rep.Format == string(patch.TOML) && rep.Modified {
		b.WriteString("\nnote: comments in TOML configs are not kept")
	}
	return b.String()
}

type emulatorRow struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	Enabled  bool   `json:"enabled"`
	Location string `json:"location"`
}

func newListCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "emulators"},
		Short:   "List supported emulators",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			rows := make([]emulatorRow, 0)
			lines := make([]string, 0)
			for _, sch := range schema.All() {
				row := emulatorRow{
					Name:     sch.Name,
					Format:   string(sch.Format),
					Enabled:  config.EmulatorEnabled(svc.Config, sch.Name),
					Location: sch.Candidates[0],
				}
				rows = append(rows, row)
				state := ""
				if !row.Enabled {
					state = " (disabled)"
				}
				lines = append(lines, fmt.Sprintf("%-12s %-7s %s%s", row.Name, row.Format, row.Location, state))
			}
			return print(*jsonOutput, rows, strings.Join(lines, "\n"))
		},
	}
}

type bindingRow struct {
	Key    string `json:"key"`
	Scope  string `json:"scope,omitempty"`
	Value  string `json:"value"`
	Policy string `json:"policy"`
}

func newShowCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var settingsPath string
	cmd := &cobra.Command{
		Use:   "show <emulator>",
		Short: "Show the keys a settings bag maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(settingsPath) == "" {
				return fmt.Errorf("SHOW_SETTINGS: --settings is required")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			bindings, err := svc.Bindings(args[0], settingsPath)
			if err != nil {
				return err
			}
			rows := make([]bindingRow, 0, len(bindings))
			lines := make([]string, 0, len(bindings))
			for _, b := range bindings {
				rows = append(rows, bindingRow{Key: b.Key, Scope: b.Scope, Value: b.Value.String(), Policy: b.Policy.String()})
				lines = append(lines, b.String())
			}
			if len(lines) == 0 {
				lines = append(lines, "no settings map to "+args[0])
			}
			return print(*jsonOutput, rows, strings.Join(lines, "\n"))
		},
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings bag (TOML or YAML)")
	return cmd
}

func newLocateCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var exe string
	cmd := &cobra.Command{
		Use:     "locate <emulator>",
		Aliases: []string{"where"},
		Short:   "Show where an emulator keeps its config",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(exe) == "" {
				return fmt.Errorf("LOCATE_EXE: --exe is required")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			loc, err := svc.Locate(args[0], exe)
			if err != nil {
				return err
			}
			msg := loc.Path
			if !loc.Exists {
				msg = fmt.Sprintf("not found; would create %s", loc.Primary)
			}
			return print(*jsonOutput, loc, msg)
		},
	}
	cmd.Flags().StringVar(&exe, "exe", "", "emulator executable or install directory")
	return cmd
}

func newRestoreCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var exe string
	cmd := &cobra.Command{
		Use:     "restore <emulator>",
		Aliases: []string{"rollback"},
		Short:   "Restore the newest backup of an emulator config",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(exe) == "" {
				return fmt.Errorf("RESTORE_EXE: --exe is required")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			snap, target, err := svc.Restore(args[0], exe)
			if err != nil {
				return err
			}
			out := map[string]string{"path": target, "backup": snap.Path}
			return print(*jsonOutput, out, fmt.Sprintf("restored %s from %s", target, snap.Path))
		},
	}
	cmd.Flags().StringVar(&exe, "exe", "", "emulator executable or install directory")
	return cmd
}

func newHistoryCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the last apply of every emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			entries, err := svc.History()
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(entries))
			for _, e := range entries {
				lines = append(lines, fmt.Sprintf("%-12s %s  %s", e.Emulator, e.AppliedAt.Local().Format("2006-01-02 15:04"), e.Path))
			}
			if len(lines) == 0 {
				lines = append(lines, "no injections recorded")
			}
			return print(*jsonOutput, entries, strings.Join(lines, "\n"))
		},
	}
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.DoctorRun(context.Background())
			lines := []string{"healthy"}
			if !report.Healthy {
				lines[0] = "unhealthy"
			}
			for _, f := range report.Findings {
				lines = append(lines, fmt.Sprintf("[%s] %s: %s", f.Level, f.Code, f.Message))
			}
			if err := print(*jsonOutput, report, strings.Join(lines, "\n")); err != nil {
				return err
			}
			if !report.Healthy {
				return &exitError{code: exitUnhealthy, msg: fmt.Sprintf("DOC_UNHEALTHY: %d findings", len(report.Findings))}
			}
			return nil
		},
	}
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
