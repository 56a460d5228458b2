package doctor

import (
	"context"
	"os"

	"emuinject/internal/config"
	"emuinject/internal/schema"
	"emuinject/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy   bool      `json:"healthy"`
	Findings  []Finding `json:"findings"`
	Emulators []string  `json:"emulators,omitempty"`
}

type Service struct {
	ConfigPath string
	StateRoot  string
}

func (s *Service) Run(_ context.Context) Report {
	findings := []Finding{}
	if _, err := os.Stat(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_MISSING", Level: "error", Message: err.Error()})
	} else if cfg, err := config.Load(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_INVALID", Level: "error", Message: err.Error()})
	} else {
		for _, e := range cfg.Emulators {
			if _, err := schema.Lookup(e.Name); err != nil {
				findings = append(findings, Finding{
					Code:    "EMU_UNKNOWN",
					Level:   "warn",
					Message: "config overrides unsupported emulator " + e.Name,
				})
			}
		}
	}

	if err := schema.ValidateAll(); err != nil {
		findings = append(findings, Finding{Code: "SCHEMA_INVALID", Level: "error", Message: err.Error()})
	}

	st, err := store.LoadState(s.StateRoot)
	if err != nil {
		findings = append(findings, Finding{Code: "DOC_STATE_INVALID", Level: "error", Message: err.Error()})
	}
	for _, in := range st.Injections {
		data, err := os.ReadFile(in.Path)
		switch {
		case os.IsNotExist(err):
			findings = append(findings, Finding{
				Code:    "DOC_HISTORY_STALE",
				Level:   "warn",
				Message: in.Emulator + " config " + in.Path + " no longer exists",
			})
		case err != nil:
			findings = append(findings, Finding{Code: "DOC_HISTORY_UNREADABLE", Level: "warn", Message: err.Error()})
		case in.Digest != "" && store.Digest(data) != in.Digest:
			findings = append(findings, Finding{
				Code:    "DOC_CONFIG_DRIFT",
				Level:   "info",
				Message: in.Emulator + " config changed since the last apply",
			})
		}
	}

	healthy := true
	for _, f := range findings {
		if f.Level == "error" {
			healthy = false
			break
		}
	}
	return Report{Healthy: healthy, Findings: findings, Emulators: schema.Names()}
}
