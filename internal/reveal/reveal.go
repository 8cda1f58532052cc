// Package reveal schedules which cells of an N×N image grid are uncovered.
//
// Cells are addressed row-major: index = row*gridSize + col. A State only ever
// grows; every operation returns a new State and leaves its input untouched.
package reveal

import (
	"fmt"
	"math"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Policy selects how new cells are chosen.
type Policy string

const (
	// Random picks uniformly among hidden cells.
	Random Policy = "random"
	// Sequential picks the lowest hidden indices first, reproducibly.
	Sequential Policy = "sequential"
)

// ParsePolicy resolves a policy name; empty means Random.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case "", Random:
		return Random, nil
	case Sequential:
		return Sequential, nil
	}
	return "", fmt.Errorf("unknown reveal policy %q", raw)
}

// Rand is the randomness source for Random reveals. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// State is the set of revealed cells of one round.
type State struct {
	gridSize int
	cells    mapset.Set[int]
}

// NewState returns an empty state for a gridSize×gridSize grid.
func NewState(gridSize int) State {
	mustGrid(gridSize)
	return State{gridSize: gridSize, cells: mapset.New[int]()}
}

// StateOf returns a state with the given cells revealed; out-of-range cells are ignored.
func StateOf(gridSize int, cells ...int) State {
	return NewState(gridSize).With(cells...)
}

// GridSize returns the side length of the grid.
func (s State) GridSize() int { return s.gridSize }

// Total returns the number of cells in the grid.
func (s State) Total() int { return s.gridSize * s.gridSize }

// Len returns the number of revealed cells.
func (s State) Len() int { return s.cells.Size() }

// Has reports whether cell is revealed.
func (s State) Has(cell int) bool { return s.cells.Has(cell) }

// Complete reports whether every cell is revealed.
func (s State) Complete() bool { return s.Total() > 0 && s.Len() >= s.Total() }

// Percent returns the revealed share of the grid in [0,100].
func (s State) Percent() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.Total()) * 100
}

// Cells returns the revealed indices in ascending order.
func (s State) Cells() []int {
	out := make([]int, 0, s.Len())
	s.cells.Each(func(cell int) {
		out = append(out, cell)
	})
	sort.Ints(out)
	return out
}

// With returns a copy of s with cells added. Cells outside the grid are ignored.
func (s State) With(cells ...int) State {
	next := s.clone()
	for _, c := range cells {
		if c >= 0 && c < next.Total() {
			next.cells.Put(c)
		}
	}
	return next
}

func (s State) clone() State {
	next := State{gridSize: s.gridSize, cells: mapset.New[int]()}
	s.cells.Each(func(cell int) {
		next.cells.Put(cell)
	})
	return next
}

// ForPercent tops already up to floor(gridSize² * percent / 100) cells.
//
// percent is clamped to [0,100]. Cells already revealed are kept even when
// they exceed the target. gridSize <= 0 panics, as does a nil rng with the
// Random policy when cells need to be chosen.
func ForPercent(gridSize int, percent float64, already State, policy Policy, rng Rand) State {
	mustGrid(gridSize)
	if already.gridSize != gridSize && already.Len() > 0 {
		panic(fmt.Sprintf("reveal: state for grid %d used with grid %d", already.gridSize, gridSize))
	}

	percent = math.Max(0, math.Min(100, percent))
	total := gridSize * gridSize
	target := int(math.Floor(float64(total) * percent / 100))

	next := already.clone()
	next.gridSize = gridSize

	remaining := target - next.Len()
	if remaining <= 0 {
		return next
	}

	pool := make([]int, 0, total-next.Len())
	for i := 0; i < total; i++ {
		if !next.cells.Has(i) {
			pool = append(pool, i)
		}
	}
	n := min(remaining, len(pool))

	switch policy {
	case Sequential:
		for _, c := range pool[:n] {
			next.cells.Put(c)
		}
	default:
		if rng == nil {
			panic("reveal: random policy requires a Rand")
		}
		for i := 0; i < n; i++ {
			j := rng.Intn(len(pool))
			next.cells.Put(pool[j])
			last := len(pool) - 1
			pool[j] = pool[last]
			pool = pool[:last]
		}
	}
	return next
}

// Step returns how many percentage points to add after the given number of
// wrong attempts.
type Step func(wrongAttempts int) float64

// FixedStep always adds amount.
func FixedStep(amount float64) Step {
	return func(int) float64 { return amount }
}

// EscalatingStep adds min(base + wrongAttempts*perAttempt, limit).
func EscalatingStep(base, perAttempt, limit float64) Step {
	return func(wrongAttempts int) float64 {
		return math.Min(base+float64(wrongAttempts)*perAttempt, limit)
	}
}

// IncrementOnWrongGuess bumps current by step(wrongAttempts), capped at maxReveal.
// A nil or negative step adds nothing, so the result never drops below current
// when current <= maxReveal.
func IncrementOnWrongGuess(current float64, wrongAttempts int, step Step, maxReveal float64) float64 {
	amount := 0.0
	if step != nil {
		amount = math.Max(0, step(wrongAttempts))
	}
	return math.Min(current+amount, maxReveal)
}

// CellAt maps a pixel coordinate on a rendered width×height grid to a cell
// index. Row and column are kept in [0, gridSize), so a click on the far edge
// lands in the last cell of its row or column.
func CellAt(x, y, width, height float64, gridSize int) int {
	col := axisCell(x, width, gridSize)
	row := axisCell(y, height, gridSize)
	return row*gridSize + col
}

func axisCell(v, length float64, gridSize int) int {
	i := int(math.Floor(v / (length / float64(gridSize))))
	return max(0, min(i, gridSize-1))
}

// Clamp moves x,y into [0,width) × [0,height).
func Clamp(x, y, width, height float64) (float64, float64) {
	return clamp(x, width), clamp(y, height)
}

func clamp(v, limit float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v >= limit {
		return math.Nextafter(limit, 0)
	}
	return v
}

func mustGrid(gridSize int) {
	if gridSize <= 0 {
		panic(fmt.Sprintf("reveal: grid size must be positive, got %d", gridSize))
	}
}
