package app

import (
	"time"

	"pixelhunt/internal/domain"
	"pixelhunt/internal/reveal"
)

// DefaultGridSize is used when neither the image nor the mode sets one.
const DefaultGridSize = 4

// Rules are the per-mode knobs of the round controller.
type Rules struct {
	Policy         reveal.Policy
	InitialPercent float64
	Step           reveal.Step
	MaxReveal      float64
	Lives          int           // 0 disables the lives system
	TimeLimit      time.Duration // per round; 0 means untimed
	Questions      int           // 0 plays every image of the category
	MaxAttempts    int           // 0 means unlimited
	ClickReveal    bool
	Shuffle        bool
	GridSize       int
}

// DefaultRules returns the stock rules for every mode.
func DefaultRules() map[domain.GameMode]Rules {
	escalating := reveal.EscalatingStep(5, 2, 15)
	fixed := reveal.FixedStep(15)
	return map[domain.GameMode]Rules{
		domain.ModeClassic: {
			Policy:         reveal.Random,
			InitialPercent: 10,
			Step:           escalating,
			MaxReveal:      100,
			ClickReveal:    true,
			Shuffle:        true,
			GridSize:       DefaultGridSize,
		},
		domain.ModeSpeed: {
			Policy:         reveal.Random,
			InitialPercent: 10,
			Step:           escalating,
			MaxReveal:      100,
			Shuffle:        true,
			GridSize:       DefaultGridSize,
		},
		domain.ModeTimed: {
			Policy:         reveal.Random,
			InitialPercent: 10,
			Step:           fixed,
			MaxReveal:      100,
			TimeLimit:      60 * time.Second,
			Shuffle:        true,
			GridSize:       DefaultGridSize,
		},
		domain.ModeLive: {
			Policy:         reveal.Random,
			InitialPercent: 10,
			Step:           fixed,
			MaxReveal:      100,
			Lives:          3,
			Shuffle:        true,
			GridSize:       DefaultGridSize,
		},
		domain.ModeTest: {
			Policy:         reveal.Sequential,
			InitialPercent: 10,
			Step:           fixed,
			MaxReveal:      100,
			Questions:      10,
			GridSize:       DefaultGridSize,
		},
	}
}

func (r Rules) gridFor(img domain.Image) int {
	if img.GridSize > 0 {
		return img.GridSize
	}
	if r.GridSize > 0 {
		return r.GridSize
	}
	return DefaultGridSize
}

func (r Rules) maxReveal() float64 {
	if r.MaxReveal <= 0 {
		return 100
	}
	return r.MaxReveal
}
