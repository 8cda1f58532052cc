package domain

import "errors"

var (
	// ErrGameNotFound is returned when a game id is unknown or has been pruned.
	ErrGameNotFound = errors.New("game not found")
	// ErrCategoryNotFound indicates the category could not be loaded.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrNoImages indicates a category exists but has nothing to play.
	ErrNoImages = errors.New("category has no images")
	// ErrGameFinished is returned for actions on a game that is over.
	ErrGameFinished = errors.New("game finished")
	// ErrUnknownMode indicates an unsupported game mode.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrEmptyGuess is returned for blank guesses; no attempt is consumed.
	ErrEmptyGuess = errors.New("empty guess")
	// ErrClickRevealDisabled is returned when the mode does not allow click reveal.
	ErrClickRevealDisabled = errors.New("click reveal not allowed in this mode")
	// ErrInvalidGrid indicates click coordinates were given for a zero-sized grid.
	ErrInvalidGrid = errors.New("invalid grid dimensions")
)
