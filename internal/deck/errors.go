package deck

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDeck means the source has a header but no cards.
	ErrEmptyDeck = errors.New("deck has no cards")
	// ErrMissingColumns means the header lacks the question or sip column.
	ErrMissingColumns = errors.New("header must contain question and sip columns")
	// ErrInvalidName means the deck name cannot be mapped to a source file.
	ErrInvalidName = errors.New("invalid deck name")
)

// LoadError reports a deck that could not be loaded. A game cannot use a deck
// that failed to load.
type LoadError struct {
	Deck string
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	where := e.Deck
	if e.Path != "" {
		where = fmt.Sprintf("%s (%s)", e.Deck, e.Path)
	}
	if e.Line > 0 {
		return fmt.Sprintf("load deck %s line %d: %v", where, e.Line, e.Err)
	}
	return fmt.Sprintf("load deck %s: %v", where, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
