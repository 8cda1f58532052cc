package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pixelhunt/internal/domain"
	"pixelhunt/internal/matcher"
	"pixelhunt/internal/scoring"
)

// GameStore abstracts where live games are kept (in-memory, Redis-marked, etc).
type GameStore interface {
	Put(g *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
	// Prune drops games idle since before cutoff and returns how many went.
	Prune(cutoff time.Time) int
}

// CategoryRepository loads playable categories (from cache/backing store).
type CategoryRepository interface {
	GetCategory(ctx context.Context, categoryID string) (domain.Category, error)
}

// CategoryLister enumerates the categories a player can pick from.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.CategorySummary, error)
}

// ScoreRepository persists finished rounds and ranks them.
type ScoreRepository interface {
	SaveScore(ctx context.Context, rec domain.ScoreRecord) error
	TopScores(ctx context.Context, mode domain.GameMode, limit int) ([]domain.LeaderboardEntry, error)
}

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// GameService drives rounds: it owns the mode rules and wires the matcher,
// reveal scheduler and score calculator to storage.
type GameService struct {
	games      GameStore
	categories CategoryRepository
	lister     CategoryLister
	scores     ScoreRepository
	rules      map[domain.GameMode]Rules
	matcher    matcher.Matcher
	calc       scoring.Calculator
	now        func() time.Time
	newRand    func() *rand.Rand
	newID      func() string
}

// Option customises a GameService.
type Option func(*GameService)

// WithRules replaces the rules of the given modes.
func WithRules(rules map[domain.GameMode]Rules) Option {
	return func(s *GameService) {
		for mode, r := range rules {
			s.rules[mode] = r
		}
	}
}

// WithCategoryLister enables category listing. Without one the listing is empty.
func WithCategoryLister(l CategoryLister) Option {
	return func(s *GameService) { s.lister = l }
}

// WithMatcher sets the answer matcher.
func WithMatcher(m matcher.Matcher) Option {
	return func(s *GameService) { s.matcher = m }
}

// WithCalculator sets the score calculator.
func WithCalculator(c scoring.Calculator) Option {
	return func(s *GameService) { s.calc = c }
}

// WithClock is used by tests for deterministic timing.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithRandSource sets the per-game RNG factory; tests pass seeded generators.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(s *GameService) { s.newRand = newRand }
}

// WithIDs sets the game id generator.
func WithIDs(newID func() string) Option {
	return func(s *GameService) { s.newID = newID }
}

func NewGameService(games GameStore, categories CategoryRepository, scores ScoreRepository, opts ...Option) *GameService {
	s := &GameService{
		games:      games,
		categories: categories,
		scores:     scores,
		rules:      DefaultRules(),
		matcher:    matcher.New(matcher.DefaultThreshold),
		calc:       scoring.NewCalculator(scoring.DefaultConstants()),
		now:        time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categories lists the playable categories in display order.
func (s *GameService) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	if s.lister == nil {
		return []domain.CategorySummary{}, nil
	}
	out, err := s.lister.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.CategorySummary{}
	}
	return out, nil
}

// Start opens a new game over a category and reveals the first image.
func (s *GameService) Start(ctx context.Context, categoryID string, mode domain.GameMode, userID string) (domain.GameView, error) {
	rules, ok := s.rules[mode]
	if !ok {
		return domain.GameView{}, domain.ErrUnknownMode
	}
	category, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return domain.GameView{}, err
	}
	if len(category.Images) == 0 {
		return domain.GameView{}, domain.ErrNoImages
	}

	g := newGame(gameParams{
		id:         s.newID(),
		categoryID: category.ID,
		userID:     userID,
		mode:       mode,
		rules:      rules,
		images:     category.Images,
		matcher:    s.matcher,
		calc:       s.calc,
		now:        s.now,
		rng:        s.newRand(),
	})
	s.games.Put(g)
	log.Debug().Str("game", g.ID()).Str("category", category.ID).Str("mode", string(mode)).Msg("game started")
	return g.View(), nil
}

// Get returns the current state of a game.
func (s *GameService) Get(_ context.Context, gameID string) (domain.GameView, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GameView{}, domain.ErrGameNotFound
	}
	return g.View(), nil
}

// Guess evaluates a guess for the current round. Wrong guesses widen the
// reveal; a correct guess scores the round and moves to the next image.
func (s *GameService) Guess(ctx context.Context, gameID, guess string) (domain.GuessOutcome, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GuessOutcome{}, domain.ErrGameNotFound
	}
	out, rec, err := g.guess(guess)
	if err != nil {
		return domain.GuessOutcome{}, err
	}
	s.record(ctx, g, rec)
	return out, nil
}

// RevealCell uncovers the cell under a click at (x,y) on a width×height rendering.
func (s *GameService) RevealCell(ctx context.Context, gameID string, x, y, width, height float64) (domain.GameView, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GameView{}, domain.ErrGameNotFound
	}
	view, rec, err := g.revealAt(x, y, width, height)
	if err != nil {
		return domain.GameView{}, err
	}
	s.record(ctx, g, rec)
	return view, nil
}

// Skip gives up on the current image.
func (s *GameService) Skip(ctx context.Context, gameID string) (domain.GameView, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GameView{}, domain.ErrGameNotFound
	}
	view, rec, err := g.skip()
	if err != nil {
		return domain.GameView{}, err
	}
	s.record(ctx, g, rec)
	return view, nil
}

// End abandons a game and forgets it. The unfinished round is not scored.
func (s *GameService) End(_ context.Context, gameID string) (domain.GameView, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GameView{}, domain.ErrGameNotFound
	}
	view := g.View()
	s.games.Delete(gameID)
	log.Debug().Str("game", gameID).Msg("game ended")
	return view, nil
}

// Tick ends timed rounds whose clock has run out. The second return value
// reports whether anything changed.
func (s *GameService) Tick(ctx context.Context, gameID string) (domain.GameView, bool, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return domain.GameView{}, false, domain.ErrGameNotFound
	}
	view, rec := g.tick()
	s.record(ctx, g, rec)
	return view, rec != nil, nil
}

// IsTimed reports whether the game's rounds run against a clock.
func (s *GameService) IsTimed(gameID string) bool {
	g, ok := s.games.Get(gameID)
	return ok && g.Timed()
}

// Leaderboard returns the best scores recorded for a mode.
func (s *GameService) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	if _, ok := s.rules[mode]; !ok {
		return nil, domain.ErrUnknownMode
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if s.scores == nil {
		return []domain.LeaderboardEntry{}, nil
	}
	return s.scores.TopScores(ctx, mode, limit)
}

// PruneIdle drops games untouched for longer than idle.
func (s *GameService) PruneIdle(idle time.Duration) int {
	return s.games.Prune(s.now().Add(-idle))
}

// record persists a finished round. Storage failures never fail the player's
// action; they are logged.
func (s *GameService) record(ctx context.Context, g *Game, rec *domain.ScoreRecord) {
	if rec == nil {
		return
	}
	log.Debug().
		Str("game", g.ID()).
		Str("image", rec.ImageID).
		Int("score", rec.Score).
		Bool("completed", rec.Completed).
		Msg("round finished")
	if s.scores == nil {
		return
	}
	if err := s.scores.SaveScore(ctx, *rec); err != nil {
		log.Warn().Err(err).Str("game", g.ID()).Str("image", rec.ImageID).Msg("save score failed")
	}
}
