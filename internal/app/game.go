package app

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"pixelhunt/internal/domain"
	"pixelhunt/internal/matcher"
	"pixelhunt/internal/reveal"
	"pixelhunt/internal/scoring"
)

// Game is one player's run through a category. All methods are safe for
// concurrent use; the reveal state and RNG are owned by the game alone.
type Game struct {
	id         string
	categoryID string
	userID     string
	mode       domain.GameMode
	rules      Rules
	images     []domain.Image
	matcher    matcher.Matcher
	calc       scoring.Calculator
	now        func() time.Time

	mu         sync.Mutex
	rng        *rand.Rand
	index      int
	round      *round
	previous   *domain.RoundView
	total      int
	lives      int
	finished   bool
	lastActive time.Time
}

type round struct {
	image     domain.Image
	state     reveal.State
	percent   float64
	attempts  int
	wrong     int
	startedAt time.Time
	endedAt   time.Time
	status    domain.RoundStatus
	score     int
}

type gameParams struct {
	id         string
	categoryID string
	userID     string
	mode       domain.GameMode
	rules      Rules
	images     []domain.Image
	matcher    matcher.Matcher
	calc       scoring.Calculator
	now        func() time.Time
	rng        *rand.Rand
}

func newGame(p gameParams) *Game {
	images := append([]domain.Image(nil), p.images...)
	if p.rules.Shuffle {
		p.rng.Shuffle(len(images), func(i, j int) { images[i], images[j] = images[j], images[i] })
	}
	if p.rules.Questions > 0 && len(images) > p.rules.Questions {
		images = images[:p.rules.Questions]
	}

	g := &Game{
		id:         p.id,
		categoryID: p.categoryID,
		userID:     p.userID,
		mode:       p.mode,
		rules:      p.rules,
		images:     images,
		matcher:    p.matcher,
		calc:       p.calc,
		now:        p.now,
		rng:        p.rng,
		lives:      p.rules.Lives,
	}
	g.lastActive = g.now()
	g.openRoundLocked()
	return g
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// LastActive reports when the game last changed.
func (g *Game) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// Timed reports whether rounds of this game run against a clock.
func (g *Game) Timed() bool { return g.rules.TimeLimit > 0 }

// View returns a snapshot of the game.
func (g *Game) View() domain.GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

func (g *Game) guess(text string) (domain.GuessOutcome, *domain.ScoreRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return domain.GuessOutcome{}, nil, domain.ErrGameFinished
	}
	if strings.TrimSpace(text) == "" {
		return domain.GuessOutcome{}, nil, domain.ErrEmptyGuess
	}
	now := g.now()
	g.lastActive = now

	if rec := g.expireLocked(now); rec != nil {
		return domain.GuessOutcome{Expired: true, Game: g.viewLocked()}, rec, nil
	}

	r := g.round
	r.attempts++
	result := g.matcher.Evaluate(text, r.image.AcceptedAnswers)

	if result.IsCorrect {
		elapsed := now.Sub(r.startedAt).Seconds()
		score, err := g.calc.Score(g.mode, scoring.Inputs{
			RevealPercent:        r.percent,
			TimeElapsedSeconds:   elapsed,
			TimeRemainingSeconds: g.remainingLocked(now),
			LivesRemaining:       g.lives,
			AttemptsCount:        r.attempts,
		})
		if err != nil {
			return domain.GuessOutcome{}, nil, err
		}
		rec := g.endRoundLocked(domain.RoundWon, score, now)
		return domain.GuessOutcome{Result: result, Awarded: score, Game: g.viewLocked()}, rec, nil
	}

	r.wrong++
	r.percent = reveal.IncrementOnWrongGuess(r.percent, r.wrong, g.rules.Step, g.rules.maxReveal())
	r.state = reveal.ForPercent(r.state.GridSize(), r.percent, r.state, g.rules.Policy, g.rng)

	var rec *domain.ScoreRecord
	if g.rules.Lives > 0 {
		g.lives--
		if g.lives <= 0 {
			rec = g.endRoundLocked(domain.RoundLost, 0, now)
		}
	}
	if rec == nil && g.rules.MaxAttempts > 0 && r.attempts >= g.rules.MaxAttempts {
		rec = g.endRoundLocked(domain.RoundLost, 0, now)
	}
	return domain.GuessOutcome{Result: result, Game: g.viewLocked()}, rec, nil
}

func (g *Game) revealAt(x, y, width, height float64) (domain.GameView, *domain.ScoreRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return domain.GameView{}, nil, domain.ErrGameFinished
	}
	if !g.rules.ClickReveal {
		return domain.GameView{}, nil, domain.ErrClickRevealDisabled
	}
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return domain.GameView{}, nil, domain.ErrInvalidGrid
	}
	now := g.now()
	g.lastActive = now
	if rec := g.expireLocked(now); rec != nil {
		return g.viewLocked(), rec, nil
	}

	r := g.round
	grid := r.state.GridSize()
	cx, cy := reveal.Clamp(x, y, width, height)
	r.state = r.state.With(reveal.CellAt(cx, cy, width, height, grid))
	r.percent = math.Min(math.Max(r.percent, r.state.Percent()), 100)
	return g.viewLocked(), nil, nil
}

func (g *Game) skip() (domain.GameView, *domain.ScoreRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return domain.GameView{}, nil, domain.ErrGameFinished
	}
	now := g.now()
	g.lastActive = now
	if rec := g.expireLocked(now); rec != nil {
		return g.viewLocked(), rec, nil
	}
	rec := g.endRoundLocked(domain.RoundSkipped, 0, now)
	return g.viewLocked(), rec, nil
}

// tick expires a timed round whose limit has passed.
func (g *Game) tick() (domain.GameView, *domain.ScoreRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return g.viewLocked(), nil
	}
	rec := g.expireLocked(g.now())
	if rec != nil {
		g.lastActive = g.now()
	}
	return g.viewLocked(), rec
}

func (g *Game) expireLocked(now time.Time) *domain.ScoreRecord {
	if g.rules.TimeLimit <= 0 || g.round == nil || g.round.status.Finished() {
		return nil
	}
	if now.Sub(g.round.startedAt) < g.rules.TimeLimit {
		return nil
	}
	return g.endRoundLocked(domain.RoundExpired, 0, g.round.startedAt.Add(g.rules.TimeLimit))
}

func (g *Game) remainingLocked(now time.Time) float64 {
	if g.rules.TimeLimit <= 0 {
		return 0
	}
	left := g.rules.TimeLimit - now.Sub(g.round.startedAt)
	if left < 0 {
		return 0
	}
	return left.Seconds()
}

func (g *Game) openRoundLocked() {
	img := g.images[g.index]
	grid := g.rules.gridFor(img)
	g.round = &round{
		image:     img,
		state:     reveal.ForPercent(grid, g.rules.InitialPercent, reveal.NewState(grid), g.rules.Policy, g.rng),
		percent:   g.rules.InitialPercent,
		startedAt: g.now(),
		status:    domain.RoundPlaying,
	}
}

// endRoundLocked closes the current round, opens the next one when the game
// can continue, and returns the record to persist.
func (g *Game) endRoundLocked(status domain.RoundStatus, score int, at time.Time) *domain.ScoreRecord {
	r := g.round
	r.status = status
	r.score = score
	r.endedAt = at
	g.total += score

	rec := &domain.ScoreRecord{
		UserID:        g.userID,
		ImageID:       r.image.ID,
		CategoryID:    g.categoryID,
		GameMode:      g.mode,
		AttemptsCount: r.attempts,
		TimeSpent:     at.Sub(r.startedAt).Seconds(),
		Score:         score,
		Completed:     status == domain.RoundWon,
		CreatedAt:     at,
	}

	outOfLives := g.rules.Lives > 0 && g.lives <= 0
	if outOfLives || g.index+1 >= len(g.images) {
		g.finished = true
		g.previous = nil
		return rec
	}

	done := g.roundViewLocked(r, at)
	g.previous = &done
	g.index++
	g.openRoundLocked()
	return rec
}

func (g *Game) viewLocked() domain.GameView {
	now := g.now()
	v := domain.GameView{
		ID:         g.id,
		CategoryID: g.categoryID,
		Mode:       g.mode,
		TotalScore: g.total,
		Rounds:     len(g.images),
		Finished:   g.finished,
		Round:      g.roundViewLocked(g.round, now),
		Previous:   g.previous,
		UpdatedAt:  g.lastActive,
	}
	if g.rules.Lives > 0 {
		lives := max(g.lives, 0)
		v.LivesRemaining = &lives
	}
	return v
}

func (g *Game) roundViewLocked(r *round, now time.Time) domain.RoundView {
	v := domain.RoundView{
		Index:         g.index,
		ImageID:       r.image.ID,
		ImageURL:      r.image.URL,
		GridSize:      r.state.GridSize(),
		Revealed:      r.state.Cells(),
		RevealPercent: r.percent,
		Attempts:      r.attempts,
		Status:        r.status,
		Score:         r.score,
	}
	if r.status.Finished() {
		v.Answer = firstAnswer(r.image.AcceptedAnswers)
	} else if g.rules.TimeLimit > 0 {
		left := g.remainingLocked(now)
		v.TimeRemaining = &left
	}
	return v
}

func firstAnswer(answers []string) string {
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			return a
		}
	}
	return ""
}
