package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pixelhunt/internal/domain"
	"pixelhunt/internal/matcher"
	"pixelhunt/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	Game struct {
		IdleTTL string `yaml:"idleTTL"`
	} `yaml:"game"`
	Matcher struct {
		CloseThreshold float64 `yaml:"closeThreshold"`
	} `yaml:"matcher"`
	Scoring scoring.Constants     `yaml:"scoring"`
	Modes   map[string]ModeConfig `yaml:"modes"`
}

// ModeConfig overrides the built-in rules of one game mode. Unset fields keep
// the built-in value; pointer fields can be set to false or 0 explicitly.
type ModeConfig struct {
	Policy         string     `yaml:"policy"`
	InitialPercent *float64   `yaml:"initialPercent"`
	Step           StepConfig `yaml:"step"`
	Lives          *int       `yaml:"lives"`
	TimeLimit      string     `yaml:"timeLimit"`
	Questions      *int       `yaml:"questions"`
	MaxAttempts    *int       `yaml:"maxAttempts"`
	ClickReveal    *bool      `yaml:"clickReveal"`
	Shuffle        *bool      `yaml:"shuffle"`
	GridSize       int        `yaml:"gridSize"`
}

// StepConfig describes how far the reveal advances per wrong guess.
type StepConfig struct {
	Kind       string  `yaml:"kind"` // "fixed" or "escalating"
	Amount     float64 `yaml:"amount"`
	Base       float64 `yaml:"base"`
	PerAttempt float64 `yaml:"perAttempt"`
	Limit      float64 `yaml:"limit"`
}

// Load reads YAML config from path and fills unset values with defaults.
// Scoring constants start from the stock balance, so any of them may be set
// to 0 in the file.
func Load(path string) (Config, error) {
	cfg := Config{Scoring: scoring.DefaultConstants()}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() Config {
	cfg := Config{Scoring: scoring.DefaultConstants()}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Catalog.Path == "" && c.Postgres.URL == "" {
		c.Catalog.Path = "config/catalog.yaml"
	}
	if c.Matcher.CloseThreshold <= 0 {
		c.Matcher.CloseThreshold = matcher.DefaultThreshold
	}
}

func (c Config) validate() error {
	if c.Scoring.SpeedDecaySeconds <= 0 {
		return fmt.Errorf("scoring.speedDecaySeconds: must be positive, got %v", c.Scoring.SpeedDecaySeconds)
	}
	for name, mode := range c.Modes {
		if _, err := domain.ParseGameMode(name); err != nil {
			return fmt.Errorf("modes.%s: %w", name, err)
		}
		switch mode.Step.Kind {
		case "", "fixed", "escalating":
		default:
			return fmt.Errorf("modes.%s.step.kind: unknown kind %q", name, mode.Step.Kind)
		}
		if mode.TimeLimit != "" {
			if _, err := time.ParseDuration(mode.TimeLimit); err != nil {
				return fmt.Errorf("modes.%s.timeLimit: %w", name, err)
			}
		}
		if p := mode.InitialPercent; p != nil && (*p < 0 || *p > 100) {
			return fmt.Errorf("modes.%s.initialPercent: %v is outside [0, 100]", name, *p)
		}
		for field, v := range map[string]*int{"lives": mode.Lives, "questions": mode.Questions, "maxAttempts": mode.MaxAttempts} {
			if v != nil && *v < 0 {
				return fmt.Errorf("modes.%s.%s: must not be negative, got %d", name, field, *v)
			}
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Catalog is the on-disk list of playable categories.
type Catalog struct {
	Categories []domain.Category `yaml:"categories"`
}

// ReadCatalog reads a YAML catalog keeping file order.
func ReadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(catalog.Categories))
	for _, c := range catalog.Categories {
		if c.ID == "" {
			return Catalog{}, fmt.Errorf("parse catalog %s: category without id", path)
		}
		if _, dup := seen[c.ID]; dup {
			return Catalog{}, fmt.Errorf("parse catalog %s: duplicate category %q", path, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return catalog, nil
}
