package server

import "github.com/lox/partydeck/internal/statistics"

// Result is something an adapter must show the chat. Results carry data and
// message keys only; wording is left to the adapter and the i18n catalog.
type Result interface {
	ResultType() string
}

// LanguagePrompt asks the chat to pick one of Locales. Suggested is the
// locale matching the client language, or the default.
type LanguagePrompt struct {
	Locales   []string
	Suggested string
}

// PlayersPrompt asks for the comma separated player list.
type PlayersPrompt struct{}

// DeckSelection shows the decks of the chat locale and which are selected.
// Closed is set once the selection has been confirmed.
type DeckSelection struct {
	Decks    []string
	Selected []string
	Closed   bool
}

// IsSelected reports whether name is in the selection.
func (d DeckSelection) IsSelected(name string) bool {
	for _, s := range d.Selected {
		if s == name {
			return true
		}
	}
	return false
}

// CardPresentation shows a drawn card to the active player. Seq identifies
// the draw and must come back on the reaction to it.
type CardPresentation struct {
	Player string
	Seq    int
	Deck   string
	Prompt string
	Weight int
}

// NoEligibleCard tells the chat that Player has seen every card. Seq must come
// back on the SkipPlayer that follows.
type NoEligibleCard struct {
	Player string
	Seq    int
}

// FinalSummary announces the end of the game.
type FinalSummary struct {
	SessionID string
}

// StatisticsTable carries the per-player report of a finished game.
type StatisticsTable struct {
	Report statistics.Report
}

// Notice is a short message identified by an i18n key.
type Notice struct {
	Key    string
	Params []any
}

func (LanguagePrompt) ResultType() string { return "language_prompt" }
func (PlayersPrompt) ResultType() string { return "players_prompt" }
func (DeckSelection) ResultType() string { return "deck_selection" }
func (CardPresentation) ResultType() string { return "card" }
func (NoEligibleCard) ResultType() string { return "no_eligible_card" }
func (FinalSummary) ResultType() string { return "final_summary" }
func (StatisticsTable) ResultType() string { return "statistics" }
func (Notice) ResultType() string { return "notice" }
