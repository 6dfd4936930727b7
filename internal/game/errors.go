package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveCard is returned by ResolveTurn when no card is drawn, for
	// example when a resolve button is pressed twice.
	ErrNoActiveCard = errors.New("no card is currently drawn")
	// ErrNotStarted is returned by turn operations before StartGame succeeds.
	ErrNotStarted = errors.New("game has not started")
	// ErrGameOver is returned by turn operations after EndGame.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidOutcome is returned for an Outcome that is neither Answered nor Drank.
	ErrInvalidOutcome = errors.New("invalid turn outcome")
)

// InvalidSetupError rejects a StartGame call. No state is changed.
type InvalidSetupError struct {
	Reason string
}

func (e *InvalidSetupError) Error() string {
	return fmt.Sprintf("invalid game setup: %s", e.Reason)
}

func invalidSetup(format string, args ...any) error {
	return &InvalidSetupError{Reason: fmt.Sprintf(format, args...)}
}

// ValidatePlayers checks a roster: at least one name, no blank names and no
// name used twice.
func ValidatePlayers(players []string) error {
	if len(players) == 0 {
		return invalidSetup("no players")
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if strings.TrimSpace(p) == "" {
			return invalidSetup("blank player name")
		}
		if seen[p] {
			return invalidSetup("duplicate player %q", p)
		}
		seen[p] = true
	}
	return nil
}
