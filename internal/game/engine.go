package game

import (
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/partydeck/internal/deck"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/sessionid"
)

// DeckProvider loads decks by name. *deck.Store is the production provider.
type DeckProvider interface {
	Load(name string) (*deck.Deck, error)
}

// DrawResult is the outcome of DrawCard and Regenerate. When Exhausted is set
// the active player has no eligible card in any selected deck and the other
// card fields are zero. Seq numbers every draw of the session, exhausted ones
// included, so callers can tell a reaction to the current draw from a late one.
type DrawResult struct {
	Player    string
	Seq       int
	Exhausted bool
	Deck      string
	Index     int
	Card      deck.Card
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for turn timers and session timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithIDGenerator overrides how session IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// Engine runs the turn state machine for one Session. All methods are safe
// for concurrent use; concurrent calls are applied one at a time.
type Engine struct {
	mu      sync.Mutex
	decks   DeckProvider
	rng     randutil.Source
	clock   quartz.Clock
	logger  zerolog.Logger
	newID   func() string
	session *Session
}

// NewEngine creates an engine. The random source is required so that draws
// are reproducible from a seed.
func NewEngine(decks DeckProvider, rng randutil.Source, opts ...Option) *Engine {
	if decks == nil {
		panic("deck provider is required")
	}
	if rng == nil {
		panic("rng is required")
	}
	e := &Engine{
		decks:  decks,
		rng:    rng,
		clock:  quartz.NewReal(),
		logger: zerolog.Nop(),
		newID:  sessionid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartGame begins a new session with players in turn order and the named
// decks. Any previous session is replaced. On error nothing changes.
func (e *Engine) StartGame(players []string, deckNames []string) error {
	if err := ValidatePlayers(players); err != nil {
		return err
	}
	if len(deckNames) == 0 {
		return invalidSetup("no decks selected")
	}

	var decks []*deck.Deck
	picked := make(map[string]bool, len(deckNames))
	for _, name := range deckNames {
		if picked[name] {
			continue
		}
		picked[name] = true
		d, err := e.decks.Load(name)
		if err != nil {
			return err
		}
		decks = append(decks, d)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.session = newSession(e.newID(), players, decks, e.clock.Now())
	e.logger.Info().
		Str("session", e.session.ID).
		Strs("players", e.session.Players).
		Strs("decks", e.session.Decks).
		Msg("Game started")
	return nil
}

// DrawCard draws a card for the active player.
func (e *Engine) DrawCard() (DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.running()
	if err != nil {
		return DrawResult{}, err
	}
	return e.draw(s), nil
}

// Regenerate counts a replacement for the active player and draws again. The
// replaced card stays used.
func (e *Engine) Regenerate() (DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.running()
	if err != nil {
		return DrawResult{}, err
	}
	s.stats[s.activePlayer()].Regenerated++
	return e.draw(s), nil
}

func (e *Engine) draw(s *Session) DrawResult {
	player := s.activePlayer()
	s.Draws++
	pool := s.eligible(player)
	if len(pool) == 0 {
		e.logger.Debug().Str("session", s.ID).Str("player", player).Int("seq", s.Draws).Msg("No eligible cards")
		return DrawResult{Player: player, Seq: s.Draws, Exhausted: true}
	}

	pick := pool[e.rng.IntN(len(pool))]
	s.markUsed(player, pick)
	s.openTurn(player, e.clock.Now())
	s.Current = &CardRef{Player: player, Seq: s.Draws, Deck: pick.deck, Index: pick.index}

	card, _ := s.decks[pick.deck].Card(pick.index)
	e.logger.Debug().
		Str("session", s.ID).
		Str("player", player).
		Str("deck", pick.deck).
		Int("index", pick.index).
		Int("seq", s.Draws).
		Int("pool", len(pool)).
		Msg("Card drawn")

	return DrawResult{Player: player, Seq: s.Draws, Deck: pick.deck, Index: pick.index, Card: card}
}

// ResolveTurn applies the active player's outcome for the drawn card, closes
// their turn timer and passes the turn on.
func (e *Engine) ResolveTurn(outcome Outcome) error {
	if outcome != Answered && outcome != Drank {
		return ErrInvalidOutcome
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.running()
	if err != nil {
		return err
	}
	if s.Current == nil {
		return ErrNoActiveCard
	}

	player := s.activePlayer()
	st := s.stats[player]
	switch outcome {
	case Drank:
		card, _ := s.decks[s.Current.Deck].Card(s.Current.Index)
		st.Sips += card.Weight
	case Answered:
		st.Answered++
	}

	s.closeTurn(player, e.clock.Now())
	s.Current = nil
	s.advance()

	e.logger.Debug().
		Str("session", s.ID).
		Str("player", player).
		Stringer("outcome", outcome).
		Str("next", s.activePlayer()).
		Msg("Turn resolved")
	return nil
}

// SkipPlayer passes the turn on without resolving a card. It is meant for a
// player with no eligible cards. If that player still has a running timer
// from an earlier draw this turn, the timer is folded and their stale card is
// cleared so the next player starts clean.
//
// At most one player has an open timer at any moment, and it is always the
// active player's. Leaving it open here would let two timers run at once.
func (e *Engine) SkipPlayer() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.running()
	if err != nil {
		return err
	}

	player := s.activePlayer()
	s.closeTurn(player, e.clock.Now())
	if s.Current != nil && s.Current.Player == player {
		s.Current = nil
	}
	s.advance()

	e.logger.Debug().Str("session", s.ID).Str("skipped", player).Str("next", s.activePlayer()).Msg("Player skipped")
	return nil
}

// HasRemainingQuestions reports whether any player still has an eligible
// card in any selected deck.
func (e *Engine) HasRemainingQuestions() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false
	}
	for _, p := range e.session.Players {
		if e.session.hasEligible(p) {
			return true
		}
	}
	return false
}

// EndGame closes the active player's timer and records the end time. Calling
// it again is a no-op.
func (e *Engine) EndGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil {
		return ErrNotStarted
	}
	if s.Ended() {
		return nil
	}

	now := e.clock.Now()
	s.closeTurn(s.activePlayer(), now)
	s.Current = nil
	s.EndedAt = now

	e.logger.Info().
		Str("session", s.ID).
		Dur("duration", s.EndedAt.Sub(s.StartedAt)).
		Msg("Game ended")
	return nil
}

// Snapshot returns a copy of the session state. ok is false before StartGame.
func (e *Engine) Snapshot() (snap Snapshot, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return Snapshot{}, false
	}
	return e.session.snapshot(e.clock.Now()), true
}

// UsedCards returns the sorted card indices player has drawn from deckName.
func (e *Engine) UsedCards(player, deckName string) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	return e.session.usedIndices(player, deckName)
}

// CurrentCard returns the drawn card awaiting resolution, if any.
func (e *Engine) CurrentCard() (DrawResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || e.session.Current == nil {
		return DrawResult{}, false
	}
	ref := e.session.Current
	card, _ := e.session.decks[ref.Deck].Card(ref.Index)
	return DrawResult{Player: ref.Player, Seq: ref.Seq, Deck: ref.Deck, Index: ref.Index, Card: card}, true
}

// DrawSeq returns the sequence number of the latest draw, or 0 before the
// first one.
func (e *Engine) DrawSeq() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return 0
	}
	return e.session.Draws
}

func (e *Engine) running() (*Session, error) {
	if e.session == nil {
		return nil, ErrNotStarted
	}
	if e.session.Ended() {
		return nil, ErrGameOver
	}
	return e.session, nil
}
