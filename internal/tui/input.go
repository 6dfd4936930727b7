package tui

import (
	"slices"
	"strconv"
	"strings"

	"github.com/lox/partydeck/internal/server"
)

// parseInput maps a typed line to an event for the given phase. Choices may
// be typed by name or by their 1-based position in the last listing. Card
// reactions refer to draw seq, the last one shown.
func parseInput(phase server.Phase, input string, locales, decks []string, seq int) (server.Event, bool) {
	word := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	switch word {
	case "start":
		return server.Start{}, true
	case "stats":
		return server.RequestStatistics{}, true
	case "end":
		return server.EndGame{}, true
	case "card":
		return server.RequestCard{}, true
	}

	switch phase {
	case server.PhaseLanguage:
		if choice, ok := pick(word, locales); ok {
			return server.SelectLanguage{Locale: choice}, true
		}
	case server.PhasePlayers:
		return server.SetupPlayers{Names: server.ParsePlayerNames(input)}, true
	case server.PhaseDecks:
		if word == "done" {
			return server.ConfirmDeckSelection{}, true
		}
		if choice, ok := pick(strings.TrimSpace(input), decks); ok {
			return server.ToggleDeckSelection{Deck: choice}, true
		}
		if word != "" {
			return server.ToggleDeckSelection{Deck: strings.TrimSpace(input)}, true
		}
	case server.PhasePlaying:
		switch word {
		case "", "c":
			return server.RequestCard{}, true
		case "a", "answer":
			return server.Answered{Seq: seq}, true
		case "d", "drink":
			return server.Drank{Seq: seq}, true
		case "r", "regenerate":
			return server.RegenerateCard{Seq: seq}, true
		case "s", "skip", "next":
			return server.SkipPlayer{Seq: seq}, true
		}
	}
	return nil, false
}

func pick(word string, choices []string) (string, bool) {
	if n, err := strconv.Atoi(word); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], true
	}
	if slices.Contains(choices, word) {
		return word, true
	}
	return "", false
}
