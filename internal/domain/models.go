package domain

import (
	"strings"
	"time"
)

// GameMode selects the timing, lives and scoring policy of a game.
type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModeSpeed   GameMode = "speed"
	ModeTimed   GameMode = "timed"
	ModeLive    GameMode = "live"
	ModeTest    GameMode = "test"
)

// Modes lists every supported mode in display order.
var Modes = []GameMode{ModeClassic, ModeSpeed, ModeTimed, ModeLive, ModeTest}

// ParseGameMode resolves a mode name case-insensitively.
func ParseGameMode(raw string) (GameMode, error) {
	m := GameMode(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", ErrUnknownMode
}

// Image is one guessable picture and the answers that count as correct.
type Image struct {
	ID              string   `json:"id" yaml:"id"`
	URL             string   `json:"url" yaml:"url"`
	AcceptedAnswers []string `json:"acceptedAnswers" yaml:"answers"`
	GridSize        int      `json:"gridSize" yaml:"gridSize"` // defaults to 4 if zero
}

// Category is an ordered collection of images played as one game.
type Category struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Images []Image `json:"images" yaml:"images"`
}

// CategorySummary is the listing form of a category, without answers.
type CategorySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Images int    `json:"images"`
}

// Summary drops the images of a category, keeping their count.
func (c Category) Summary() CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name, Images: len(c.Images)}
}

// GuessResult classifies a single guess.
type GuessResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	IsClose       bool   `json:"isClose"`
	ClosestAnswer string `json:"closestAnswer,omitempty"`
}

// RoundStatus tracks one image within a game.
type RoundStatus string

const (
	RoundPlaying RoundStatus = "playing"
	RoundWon     RoundStatus = "won"
	RoundLost    RoundStatus = "lost"
	RoundSkipped RoundStatus = "skipped"
	RoundExpired RoundStatus = "expired"
)

// Finished reports whether the round can no longer accept guesses.
func (s RoundStatus) Finished() bool {
	return s != RoundPlaying
}

// ScoreRecord is what gets persisted once a round ends.
type ScoreRecord struct {
	UserID        string    `json:"userId,omitempty"`
	ImageID       string    `json:"imageId"`
	CategoryID    string    `json:"categoryId"`
	GameMode      GameMode  `json:"gameMode"`
	AttemptsCount int       `json:"attemptsCount"`
	TimeSpent     float64   `json:"timeSpent"` // seconds
	Score         int       `json:"score"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RoundView is the client-facing snapshot of the current round.
// Answer is only populated once the round has finished.
type RoundView struct {
	Index         int         `json:"index"`
	ImageID       string      `json:"imageId"`
	ImageURL      string      `json:"imageUrl"`
	GridSize      int         `json:"gridSize"`
	Revealed      []int       `json:"revealed"`
	RevealPercent float64     `json:"revealPercent"`
	Attempts      int         `json:"attempts"`
	Status        RoundStatus `json:"status"`
	TimeRemaining *float64    `json:"timeRemaining,omitempty"`
	Score         int         `json:"score"`
	Answer        string      `json:"answer,omitempty"`
}

// GameView is the client-facing snapshot of a whole game.
type GameView struct {
	ID             string     `json:"id"`
	CategoryID     string     `json:"categoryId"`
	Mode           GameMode   `json:"mode"`
	TotalScore     int        `json:"totalScore"`
	Rounds         int        `json:"rounds"`
	LivesRemaining *int       `json:"livesRemaining,omitempty"`
	Finished       bool       `json:"finished"`
	Round          RoundView  `json:"round"`
	Previous       *RoundView `json:"previous,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// GuessOutcome bundles the evaluation of a guess with the resulting game state.
// Expired is set when the round ran out of time before the guess was evaluated.
type GuessOutcome struct {
	Result  GuessResult `json:"result"`
	Awarded int         `json:"awarded"`
	Expired bool        `json:"expired,omitempty"`
	Game    GameView    `json:"game"`
}

// LeaderboardEntry is one ranked score.
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"userId,omitempty"`
	ImageID string `json:"imageId"`
	Score   int    `json:"score"`
}
