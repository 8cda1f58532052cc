package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pixelhunt/internal/config"
	"pixelhunt/internal/domain"
	"pixelhunt/internal/reveal"
)

func intPtr(v int) *int { return &v }

func TestBuildRulesOverridesDefaults(t *testing.T) {
	initial := 25.0
	off := false
	rules, err := buildRules(map[string]config.ModeConfig{
		"Timed": {TimeLimit: "45s", InitialPercent: &initial, Step: config.StepConfig{Kind: "fixed", Amount: 20}},
		"test":  {Questions: intPtr(3), Policy: "random"},
		"classic": {
			ClickReveal: &off,
			MaxAttempts: intPtr(6),
			Step:        config.StepConfig{Kind: "escalating", Base: 1, PerAttempt: 1, Limit: 3},
		},
	})
	if err != nil {
		t.Fatalf("build rules: %v", err)
	}

	timed := rules[domain.ModeTimed]
	if timed.TimeLimit != 45*time.Second || timed.InitialPercent != 25 || timed.Step(1) != 20 {
		t.Fatalf("unexpected timed rules %+v", timed)
	}
	if test := rules[domain.ModeTest]; test.Questions != 3 || test.Policy != reveal.Random {
		t.Fatalf("unexpected test rules %+v", test)
	}
	classic := rules[domain.ModeClassic]
	if classic.ClickReveal || classic.MaxAttempts != 6 || classic.Step(5) != 3 {
		t.Fatalf("unexpected classic rules %+v", classic)
	}
	if live := rules[domain.ModeLive]; live.Lives != 3 {
		t.Fatalf("untouched modes keep their defaults, got %+v", live)
	}
}

func TestBuildRulesResetsCountsToZero(t *testing.T) {
	rules, err := buildRules(map[string]config.ModeConfig{
		"live": {Lives: intPtr(0)},
		"test": {Questions: intPtr(0), MaxAttempts: intPtr(0)},
	})
	if err != nil {
		t.Fatalf("build rules: %v", err)
	}
	if live := rules[domain.ModeLive]; live.Lives != 0 {
		t.Fatalf("expected lives disabled, got %d", live.Lives)
	}
	if test := rules[domain.ModeTest]; test.Questions != 0 || test.MaxAttempts != 0 {
		t.Fatalf("expected unlimited test mode, got %+v", test)
	}
}

func TestBuildRulesRejectsBadPolicy(t *testing.T) {
	if _, err := buildRules(map[string]config.ModeConfig{"speed": {Policy: "spiral"}}); err == nil {
		t.Fatalf("expected policy error")
	}
	if _, err := buildRules(map[string]config.ModeConfig{"blitz": {}}); err == nil {
		t.Fatalf("expected mode error")
	}
}

func TestFlagsReadEnvironment(t *testing.T) {
	t.Setenv("PIXELHUNT_PORT", "9999")
	t.Setenv("PIXELHUNT_LOG_LEVEL", "debug")
	t.Setenv("CONFIG_PATH", "/etc/pixelhunt.yaml")

	fs := newRootCmd().PersistentFlags()
	if got := fs.Lookup("port").Value.String(); got != "9999" {
		t.Fatalf("expected port from env, got %q", got)
	}
	if got := fs.Lookup("log-level").Value.String(); got != "debug" {
		t.Fatalf("expected log level from env, got %q", got)
	}
	if got := fs.Lookup("config").Value.String(); got != "/etc/pixelhunt.yaml" {
		t.Fatalf("expected legacy CONFIG_PATH to apply, got %q", got)
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	cfg, err := loadConfig(&options{configPath: filepath.Join(t.TempDir(), "missing.yaml"), port: "7000", logLevel: "warn"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Catalog.Path != "config/catalog.yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", zerolog.GlobalLevel())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("modes:\n  blitz: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadConfig(&options{configPath: bad}); err == nil {
		t.Fatalf("expected invalid config to fail")
	}
}

func TestIdleTTL(t *testing.T) {
	if got := idleTTL(config.Default()); got != 30*time.Minute {
		t.Fatalf("expected 30m default, got %v", got)
	}
	cfg := config.Default()
	cfg.Game.IdleTTL = "5m"
	if got := idleTTL(cfg); got != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", got)
	}
}
