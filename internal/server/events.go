package server

// Event is an abstract user intent delivered by a chat adapter.
type Event interface {
	EventType() string
}

// Start begins a fresh setup for the chat. A running game is ended first.
// LanguageCode is the client's language, used to suggest a locale.
type Start struct {
	LanguageCode string
}

// SelectLanguage picks the chat locale.
type SelectLanguage struct {
	Locale string
}

// SetupPlayers sets the roster in turn order.
type SetupPlayers struct {
	Names []string
}

// ToggleDeckSelection adds or removes one deck from the selection.
type ToggleDeckSelection struct {
	Deck string
}

// ConfirmDeckSelection finishes setup and starts the game.
type ConfirmDeckSelection struct{}

// RequestCard shows the active player's card, drawing one if needed.
type RequestCard struct{}

// Answered resolves the current card as answered. Seq names the draw being
// reacted to; a reaction to any other draw is ignored with a notice, so a
// repeated or late button press cannot resolve the next player's card.
type Answered struct {
	Seq int
}

// Drank resolves the current card as declined. Seq works as for Answered.
type Drank struct {
	Seq int
}

// RegenerateCard replaces the card of draw Seq.
type RegenerateCard struct {
	Seq int
}

// SkipPlayer passes over a player with no cards left. Seq is the draw that
// came up empty.
type SkipPlayer struct {
	Seq int
}

// EndGame finishes the running game.
type EndGame struct{}

// RequestStatistics asks for the statistics of the finished game.
type RequestStatistics struct{}

func (Start) EventType() string { return "start" }
func (SelectLanguage) EventType() string { return "select_language" }
func (SetupPlayers) EventType() string { return "setup_players" }
func (ToggleDeckSelection) EventType() string { return "toggle_deck" }
func (ConfirmDeckSelection) EventType() string { return "confirm_decks" }
func (RequestCard) EventType() string { return "request_card" }
func (Answered) EventType() string { return "answered" }
func (Drank) EventType() string { return "drank" }
func (RegenerateCard) EventType() string { return "regenerate" }
func (SkipPlayer) EventType() string { return "skip_player" }
func (EndGame) EventType() string { return "end_game" }
func (RequestStatistics) EventType() string { return "statistics" }
