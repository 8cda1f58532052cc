package cli

import (
	"fmt"
	"time"

	"pixelhunt/internal/app"
	"pixelhunt/internal/config"
	"pixelhunt/internal/domain"
	"pixelhunt/internal/reveal"
)

// buildRules layers the modes section of the config over the built-in rules.
func buildRules(modes map[string]config.ModeConfig) (map[domain.GameMode]app.Rules, error) {
	rules := app.DefaultRules()
	for name, mc := range modes {
		mode, err := domain.ParseGameMode(name)
		if err != nil {
			return nil, fmt.Errorf("modes.%s: %w", name, err)
		}
		r := rules[mode]

		if mc.Policy != "" {
			if r.Policy, err = reveal.ParsePolicy(mc.Policy); err != nil {
				return nil, fmt.Errorf("modes.%s.policy: %w", name, err)
			}
		}
		if mc.InitialPercent != nil {
			r.InitialPercent = *mc.InitialPercent
		}
		switch mc.Step.Kind {
		case "fixed":
			r.Step = reveal.FixedStep(mc.Step.Amount)
		case "escalating":
			r.Step = reveal.EscalatingStep(mc.Step.Base, mc.Step.PerAttempt, mc.Step.Limit)
		}
		if mc.Lives != nil {
			r.Lives = *mc.Lives
		}
		if mc.TimeLimit != "" {
			r.TimeLimit = config.TTLDuration(mc.TimeLimit, r.TimeLimit)
		}
		if mc.Questions != nil {
			r.Questions = *mc.Questions
		}
		if mc.MaxAttempts != nil {
			r.MaxAttempts = *mc.MaxAttempts
		}
		if mc.ClickReveal != nil {
			r.ClickReveal = *mc.ClickReveal
		}
		if mc.Shuffle != nil {
			r.Shuffle = *mc.Shuffle
		}
		if mc.GridSize > 0 {
			r.GridSize = mc.GridSize
		}
		rules[mode] = r
	}
	return rules, nil
}

// idleTTL is how long an untouched game is kept before pruning.
func idleTTL(cfg config.Config) time.Duration {
	return config.TTLDuration(cfg.Game.IdleTTL, 30*time.Minute)
}
