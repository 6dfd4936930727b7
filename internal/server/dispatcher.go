package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/partydeck/internal/deck"
	"github.com/lox/partydeck/internal/game"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/statistics"
)

// Notice keys emitted by the dispatcher.
const (
	NoticeNoDeck           = "no_deck"
	NoticeDeckSelected     = "deck_selected"
	NoticeExhausted        = "questions_exhausted"
	NoticeNoActiveCard     = "notice_no_active_card"
	NoticeInvalidPlayers   = "notice_invalid_players"
	NoticeNotPlaying       = "notice_not_playing"
	NoticeStatsUnavailable = "notice_stats_unavailable"
	NoticeUnknownDeck      = "notice_unknown_deck"
	NoticeDeckLoadFailed   = "notice_deck_load_failed"
	NoticeWrongStep        = "notice_wrong_step"
)

// LocaleMatcher maps a client language code such as "ru-RU" to a locale.
// *i18n.Catalog implements it.
type LocaleMatcher interface {
	Match(code string) string
}

// DispatcherConfig lists what each chat may choose from during setup.
type DispatcherConfig struct {
	// Locales in display order. The first one is the default.
	Locales []string
	// DeckSets maps a locale to the decks offered in that locale.
	DeckSets map[string][]string
	// Matcher suggests a locale from the client language. Suggestions outside
	// Locales are ignored. Without a matcher the default is suggested.
	Matcher LocaleMatcher
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets the clock used by engines and for session activity.
func WithClock(clock quartz.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithEngineOptions appends options applied to every engine the dispatcher
// creates.
func WithEngineOptions(opts ...game.Option) DispatcherOption {
	return func(d *Dispatcher) {
		d.engineOpts = append(d.engineOpts, opts...)
	}
}

// Dispatcher turns chat events into engine calls and results. Events for one
// chat are applied one at a time; distinct chats proceed concurrently.
type Dispatcher struct {
	logger     zerolog.Logger
	baseLogger zerolog.Logger
	sessions   *SessionManager
	decks      game.DeckProvider
	locales    []string
	deckSets   map[string][]string
	matcher    LocaleMatcher
	clock      quartz.Clock
	engineOpts []game.Option

	rng      *rand.Rand
	rngMutex sync.Mutex
}

// NewDispatcher creates a dispatcher. Each new game gets its own random
// source seeded from rng, so a seeded rng makes whole runs reproducible.
func NewDispatcher(logger zerolog.Logger, sessions *SessionManager, decks game.DeckProvider, rng *rand.Rand, cfg DispatcherConfig, opts ...DispatcherOption) (*Dispatcher, error) {
	if len(cfg.Locales) == 0 {
		return nil, errors.New("at least one locale is required")
	}
	d := &Dispatcher{
		logger:     logger.With().Str("component", "dispatcher").Logger(),
		baseLogger: logger,
		sessions:   sessions,
		decks:      decks,
		locales:    slices.Clone(cfg.Locales),
		deckSets:   make(map[string][]string, len(cfg.DeckSets)),
		matcher:    cfg.Matcher,
		clock:      quartz.NewReal(),
		rng:        rng,
	}
	for locale, names := range cfg.DeckSets {
		d.deckSets[locale] = slices.Clone(names)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Sessions returns the session registry.
func (d *Dispatcher) Sessions() *SessionManager {
	return d.sessions
}

// Locale returns the locale of chatID, or the default when none was picked.
func (d *Dispatcher) Locale(chatID int64) string {
	cs, ok := d.sessions.Get(chatID)
	if !ok {
		return d.locales[0]
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return d.localeOf(cs)
}

// Phase returns the setup or play step of chatID.
func (d *Dispatcher) Phase(chatID int64) Phase {
	cs, ok := d.sessions.Get(chatID)
	if !ok {
		return PhaseIdle
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.phase
}

// matchLocale picks the configured locale for a client language code, or
// the default.
func (d *Dispatcher) matchLocale(code string) string {
	if code == "" || d.matcher == nil {
		return d.locales[0]
	}
	if l := d.matcher.Match(code); slices.Contains(d.locales, l) {
		return l
	}
	return d.locales[0]
}

func (d *Dispatcher) localeOf(cs *ChatSession) string {
	if cs.locale == "" {
		return d.locales[0]
	}
	return cs.locale
}

// Handle applies ev to the chat and returns what should be shown. User
// mistakes come back as Notice results; the error is reserved for failures
// the chat cannot fix.
func (d *Dispatcher) Handle(ctx context.Context, chatID int64, ev Event) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cs := d.sessions.lock(chatID)
	defer cs.mu.Unlock()

	cs.touched = d.clock.Now()
	results, err := d.apply(cs, ev)
	if err != nil {
		d.logger.Error().Err(err).Int64("chat_id", chatID).Str("event", ev.EventType()).Msg("Event failed")
		return results, err
	}
	d.logger.Debug().
		Int64("chat_id", chatID).
		Str("event", ev.EventType()).
		Stringer("phase", cs.phase).
		Int("results", len(results)).
		Msg("Event handled")
	return results, nil
}

func (d *Dispatcher) apply(cs *ChatSession, ev Event) ([]Result, error) {
	switch ev := ev.(type) {
	case Start:
		return d.start(cs, ev)
	case SelectLanguage:
		return d.selectLanguage(cs, ev)
	case SetupPlayers:
		return d.setupPlayers(cs, ev)
	case ToggleDeckSelection:
		return d.toggleDeck(cs, ev)
	case ConfirmDeckSelection:
		return d.confirmDecks(cs)
	case RequestCard:
		return d.requestCard(cs)
	case Answered:
		return d.resolve(cs, ev, ev.Seq, game.Answered)
	case Drank:
		return d.resolve(cs, ev, ev.Seq, game.Drank)
	case RegenerateCard:
		return d.regenerate(cs, ev.Seq)
	case SkipPlayer:
		return d.skip(cs, ev.Seq)
	case EndGame:
		return d.endGame(cs)
	case RequestStatistics:
		return d.statistics(cs)
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
}

func notice(key string, params ...any) []Result {
	return []Result{Notice{Key: key, Params: params}}
}

func (d *Dispatcher) start(cs *ChatSession, ev Start) ([]Result, error) {
	if cs.phase == PhasePlaying {
		if _, err := d.finish(cs); err != nil {
			return nil, err
		}
	}

	cs.phase = PhaseLanguage
	cs.players = nil
	cs.selected = nil
	cs.engine = nil
	if ev.LanguageCode != "" {
		cs.locale = d.matchLocale(ev.LanguageCode)
	}
	return []Result{LanguagePrompt{Locales: slices.Clone(d.locales), Suggested: d.localeOf(cs)}}, nil
}

func (d *Dispatcher) selectLanguage(cs *ChatSession, ev SelectLanguage) ([]Result, error) {
	if cs.phase != PhaseLanguage || !slices.Contains(d.locales, ev.Locale) {
		return notice(NoticeWrongStep), nil
	}
	cs.locale = ev.Locale
	cs.phase = PhasePlayers
	return []Result{PlayersPrompt{}}, nil
}

func (d *Dispatcher) setupPlayers(cs *ChatSession, ev SetupPlayers) ([]Result, error) {
	if cs.phase != PhasePlayers {
		return notice(NoticeWrongStep), nil
	}
	if err := game.ValidatePlayers(ev.Names); err != nil {
		return notice(NoticeInvalidPlayers), nil
	}
	cs.players = slices.Clone(ev.Names)
	cs.selected = nil
	cs.phase = PhaseDecks
	return []Result{d.deckSelection(cs, false)}, nil
}

func (d *Dispatcher) deckSelection(cs *ChatSession, closed bool) DeckSelection {
	return DeckSelection{
		Decks:    slices.Clone(d.deckSets[d.localeOf(cs)]),
		Selected: slices.Clone(cs.selected),
		Closed:   closed,
	}
}

func (d *Dispatcher) toggleDeck(cs *ChatSession, ev ToggleDeckSelection) ([]Result, error) {
	if cs.phase != PhaseDecks {
		return notice(NoticeWrongStep), nil
	}
	if !slices.Contains(d.deckSets[d.localeOf(cs)], ev.Deck) {
		return notice(NoticeUnknownDeck, ev.Deck), nil
	}
	cs.toggle(ev.Deck)
	return []Result{d.deckSelection(cs, false)}, nil
}

func (d *Dispatcher) confirmDecks(cs *ChatSession) ([]Result, error) {
	if cs.phase != PhaseDecks {
		return notice(NoticeWrongStep), nil
	}
	if len(cs.selected) == 0 {
		return notice(NoticeNoDeck), nil
	}

	engine := game.NewEngine(d.decks, d.newRand(), d.engineOptions()...)
	if err := engine.StartGame(cs.players, cs.selected); err != nil {
		var le *deck.LoadError
		var se *game.InvalidSetupError
		switch {
		case errors.As(err, &le):
			d.logger.Error().Err(err).Int64("chat_id", cs.chatID).Str("deck", le.Deck).Msg("Deck failed to load")
			return notice(NoticeDeckLoadFailed, le.Deck), nil
		case errors.As(err, &se):
			cs.phase = PhasePlayers
			return notice(NoticeInvalidPlayers), nil
		default:
			return nil, err
		}
	}

	cs.engine = engine
	cs.lastReport = nil
	cs.phase = PhasePlaying

	results := []Result{d.deckSelection(cs, true), Notice{Key: NoticeDeckSelected}}
	next, err := d.draw(cs)
	if err != nil {
		return nil, err
	}
	return append(results, next...), nil
}

func (d *Dispatcher) engineOptions() []game.Option {
	opts := []game.Option{game.WithClock(d.clock), game.WithLogger(d.baseLogger)}
	return append(opts, d.engineOpts...)
}

func (d *Dispatcher) newRand() *rand.Rand {
	d.rngMutex.Lock()
	seed := d.rng.Int64()
	d.rngMutex.Unlock()
	return randutil.New(seed)
}

func (d *Dispatcher) requestCard(cs *ChatSession) ([]Result, error) {
	if cs.phase != PhasePlaying {
		return notice(NoticeNotPlaying), nil
	}
	if current, ok := cs.engine.CurrentCard(); ok {
		return []Result{presentation(current)}, nil
	}
	return d.draw(cs)
}

// stale reports whether seq no longer names the latest draw. Every draw
// bumps the sequence, so a reaction that was already applied, or one aimed at
// a replaced card, never matches.
func (d *Dispatcher) stale(cs *ChatSession, ev Event, seq int) bool {
	current := cs.engine.DrawSeq()
	if seq == current {
		return false
	}
	d.logger.Debug().
		Int64("chat_id", cs.chatID).
		Str("event", ev.EventType()).
		Int("seq", seq).
		Int("current", current).
		Msg("Ignoring reaction to an old draw")
	return true
}

func (d *Dispatcher) resolve(cs *ChatSession, ev Event, seq int, outcome game.Outcome) ([]Result, error) {
	if cs.phase != PhasePlaying {
		return notice(NoticeNotPlaying), nil
	}
	if d.stale(cs, ev, seq) {
		return notice(NoticeNoActiveCard), nil
	}
	if err := cs.engine.ResolveTurn(outcome); err != nil {
		if errors.Is(err, game.ErrNoActiveCard) {
			return notice(NoticeNoActiveCard), nil
		}
		return nil, err
	}
	return d.draw(cs)
}

func (d *Dispatcher) regenerate(cs *ChatSession, seq int) ([]Result, error) {
	if cs.phase != PhasePlaying {
		return notice(NoticeNotPlaying), nil
	}
	if d.stale(cs, RegenerateCard{Seq: seq}, seq) {
		return notice(NoticeNoActiveCard), nil
	}
	res, err := cs.engine.Regenerate()
	if err != nil {
		return nil, err
	}
	return []Result{drawResult(res)}, nil
}

func (d *Dispatcher) skip(cs *ChatSession, seq int) ([]Result, error) {
	if cs.phase != PhasePlaying {
		return notice(NoticeNotPlaying), nil
	}
	if d.stale(cs, SkipPlayer{Seq: seq}, seq) {
		return notice(NoticeNoActiveCard), nil
	}
	if err := cs.engine.SkipPlayer(); err != nil {
		return nil, err
	}
	if !cs.engine.HasRemainingQuestions() {
		summary, err := d.finish(cs)
		if err != nil {
			return nil, err
		}
		return []Result{Notice{Key: NoticeExhausted}, summary}, nil
	}
	return d.draw(cs)
}

func (d *Dispatcher) endGame(cs *ChatSession) ([]Result, error) {
	switch cs.phase {
	case PhasePlaying:
		summary, err := d.finish(cs)
		if err != nil {
			return nil, err
		}
		return []Result{summary}, nil
	case PhaseFinished:
		return []Result{FinalSummary{SessionID: cs.lastReport.SessionID}}, nil
	default:
		return notice(NoticeNotPlaying), nil
	}
}

func (d *Dispatcher) statistics(cs *ChatSession) ([]Result, error) {
	if cs.lastReport == nil {
		return notice(NoticeStatsUnavailable), nil
	}
	return []Result{StatisticsTable{Report: *cs.lastReport}}, nil
}

// finish ends the running game and keeps its report for RequestStatistics.
func (d *Dispatcher) finish(cs *ChatSession) (FinalSummary, error) {
	if err := cs.engine.EndGame(); err != nil {
		return FinalSummary{}, err
	}
	snap, _ := cs.engine.Snapshot()
	report, err := statistics.Build(snap)
	if err != nil {
		return FinalSummary{}, err
	}
	cs.lastReport = &report
	cs.phase = PhaseFinished
	d.logger.Info().
		Int64("chat_id", cs.chatID).
		Str("session", report.SessionID).
		Dur("duration", report.Duration).
		Msg("Chat game finished")
	return FinalSummary{SessionID: report.SessionID}, nil
}

func (d *Dispatcher) draw(cs *ChatSession) ([]Result, error) {
	res, err := cs.engine.DrawCard()
	if err != nil {
		return nil, err
	}
	return []Result{drawResult(res)}, nil
}

func drawResult(res game.DrawResult) Result {
	if res.Exhausted {
		return NoEligibleCard{Player: res.Player, Seq: res.Seq}
	}
	return presentation(res)
}

func presentation(res game.DrawResult) CardPresentation {
	return CardPresentation{
		Player: res.Player,
		Seq:    res.Seq,
		Deck:   res.Deck,
		Prompt: res.Card.Prompt,
		Weight: res.Card.Weight,
	}
}
