// Package scoring turns a won round into points.
package scoring

import (
	"math"

	"pixelhunt/internal/domain"
)

// Constants are the game-balance knobs. Changing them changes balance, not
// correctness, so they are configuration rather than code.
type Constants struct {
	BaseOffset              float64 `yaml:"baseOffset"`
	PerPercent              float64 `yaml:"perPercent"`
	RemainingBonusPerSecond float64 `yaml:"remainingBonusPerSecond"`
	SpeedDecaySeconds       float64 `yaml:"speedDecaySeconds"`
	SpeedFloor              float64 `yaml:"speedFloor"`
	TimedBonusPerSecond     float64 `yaml:"timedBonusPerSecond"`
	LifeBonus               int     `yaml:"lifeBonus"`
}

// DefaultConstants returns the stock balance.
func DefaultConstants() Constants {
	return Constants{
		BaseOffset:              1100,
		PerPercent:              10,
		RemainingBonusPerSecond: 5,
		SpeedDecaySeconds:       120,
		SpeedFloor:              0.5,
		TimedBonusPerSecond:     10,
		LifeBonus:               50,
	}
}

// Inputs describe a finished round. Fields a mode does not use are ignored.
type Inputs struct {
	RevealPercent        float64
	TimeElapsedSeconds   float64
	TimeRemainingSeconds float64
	LivesRemaining       int
	AttemptsCount        int
}

// Formula composes the primitives for one game mode.
type Formula func(c Calculator, in Inputs) int

// formulas is the per-mode strategy table.
var formulas = map[domain.GameMode]Formula{
	domain.ModeClassic: func(c Calculator, in Inputs) int {
		return c.BaseScore(in.RevealPercent)
	},
	domain.ModeTest: func(c Calculator, in Inputs) int {
		return c.BaseScore(in.RevealPercent)
	},
	domain.ModeSpeed: func(c Calculator, in Inputs) int {
		return c.WithTimeFactor(c.BaseScore(in.RevealPercent), in.TimeElapsedSeconds, false)
	},
	domain.ModeTimed: func(c Calculator, in Inputs) int {
		return c.BaseScore(in.RevealPercent) + round(in.TimeRemainingSeconds*c.consts.TimedBonusPerSecond)
	},
	domain.ModeLive: func(c Calculator, in Inputs) int {
		return c.BaseScore(in.RevealPercent) + in.LivesRemaining*c.consts.LifeBonus
	},
}

// Calculator scores rounds with a fixed set of Constants. It has no mutable
// state and is safe for concurrent use.
type Calculator struct {
	consts Constants
}

// NewCalculator returns a Calculator using consts.
func NewCalculator(consts Constants) Calculator {
	return Calculator{consts: consts}
}

// BaseScore is round(BaseOffset - percent*PerPercent). Inputs outside 0–100
// are not validated.
func (c Calculator) BaseScore(revealPercent float64) int {
	return round(c.consts.BaseOffset - revealPercent*c.consts.PerPercent)
}

// WithTimeFactor applies a time bonus (remaining seconds) or a time decay
// (elapsed seconds) to base.
func (c Calculator) WithTimeFactor(base int, seconds float64, isRemaining bool) int {
	if isRemaining {
		return base + round(seconds*c.consts.RemainingBonusPerSecond)
	}
	factor := math.Max(c.consts.SpeedFloor, 1-seconds/c.consts.SpeedDecaySeconds)
	return round(float64(base) * factor)
}

// Score applies the formula of mode to in.
func (c Calculator) Score(mode domain.GameMode, in Inputs) (int, error) {
	f, ok := formulas[mode]
	if !ok {
		return 0, domain.ErrUnknownMode
	}
	return f(c, in), nil
}

var defaultCalculator = NewCalculator(DefaultConstants())

// BaseScore scores a reveal percent with the default constants.
func BaseScore(revealPercent float64) int {
	return defaultCalculator.BaseScore(revealPercent)
}

// WithTimeFactor applies the default time bonus or decay to base.
func WithTimeFactor(base int, seconds float64, isRemaining bool) int {
	return defaultCalculator.WithTimeFactor(base, seconds, isRemaining)
}

func round(v float64) int {
	return int(math.Round(v))
}
