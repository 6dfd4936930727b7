package telegram

import (
	"context"
	"html"
	"sync"
	"time"

	"github.com/coder/quartz"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/server"
)

const (
	defaultPollTimeout = 60
	defaultIdleTTL     = 24 * time.Hour
	pruneInterval      = 10 * time.Minute
)

// Option configures a Bot.
type Option func(*Bot)

// WithClock sets the clock driving session pruning.
func WithClock(clock quartz.Clock) Option {
	return func(b *Bot) {
		b.clock = clock
	}
}

// WithPollTimeout sets the long polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(b *Bot) {
		if seconds > 0 {
			b.pollTimeout = seconds
		}
	}
}

// WithIdleTTL sets how long an idle chat is kept before it is pruned.
func WithIdleTTL(ttl time.Duration) Option {
	return func(b *Bot) {
		b.idleTTL = ttl
	}
}

// Bot polls Telegram for updates and feeds them to the dispatcher. Updates
// of one chat are handled in arrival order; chats are handled concurrently.
type Bot struct {
	api         API
	dispatcher  *server.Dispatcher
	renderer    *render.Renderer
	logger      zerolog.Logger
	clock       quartz.Clock
	pollTimeout int
	idleTTL     time.Duration

	queueMu sync.Mutex
	pending map[int64][]tgbotapi.Update
	active  map[int64]bool
	wg      sync.WaitGroup

	// deckMessages holds the deck selection message per chat so toggles
	// edit it in place.
	deckMu       sync.Mutex
	deckMessages map[int64]int
}

// New creates a bot.
func New(api API, dispatcher *server.Dispatcher, renderer *render.Renderer, logger zerolog.Logger, opts ...Option) *Bot {
	b := &Bot{
		api:          api,
		dispatcher:   dispatcher,
		renderer:     renderer,
		logger:       logger.With().Str("component", "telegram").Logger(),
		clock:        quartz.NewReal(),
		pollTimeout:  defaultPollTimeout,
		idleTTL:      defaultIdleTTL,
		pending:      make(map[int64][]tgbotapi.Update),
		active:       make(map[int64]bool),
		deckMessages: make(map[int64]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run polls until ctx is cancelled or the update channel closes, then waits
// for queued updates to finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	defer b.wg.Wait()
	defer b.api.StopReceivingUpdates()

	b.clock.TickerFunc(ctx, pruneInterval, func() error {
		b.dispatcher.Sessions().Prune(b.clock.Now().Add(-b.idleTTL))
		return nil
	}, "prune")

	b.logger.Info().Int("poll_timeout", b.pollTimeout).Msg("Bot started, waiting for updates")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			chatID, ok := chatOf(update)
			if !ok {
				continue
			}
			b.enqueue(ctx, chatID, update)
		}
	}
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	default:
		return 0, false
	}
}

// enqueue appends update to the chat's queue, starting a drain goroutine
// when none is running for that chat.
func (b *Bot) enqueue(ctx context.Context, chatID int64, update tgbotapi.Update) {
	b.queueMu.Lock()
	b.pending[chatID] = append(b.pending[chatID], update)
	if b.active[chatID] {
		b.queueMu.Unlock()
		return
	}
	b.active[chatID] = true
	b.queueMu.Unlock()

	b.wg.Add(1)
	go b.drain(ctx, chatID)
}

func (b *Bot) drain(ctx context.Context, chatID int64) {
	defer b.wg.Done()
	for {
		b.queueMu.Lock()
		queue := b.pending[chatID]
		if len(queue) == 0 {
			delete(b.pending, chatID)
			delete(b.active, chatID)
			b.queueMu.Unlock()
			return
		}
		update := queue[0]
		b.pending[chatID] = queue[1:]
		b.queueMu.Unlock()

		b.HandleUpdate(ctx, update)
	}
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	var ev server.Event
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			code := ""
			if msg.From != nil {
				code = msg.From.LanguageCode
			}
			ev = server.Start{LanguageCode: code}
		case "card":
			ev = server.RequestCard{}
		case "end":
			ev = server.EndGame{}
		case "stats":
			ev = server.RequestStatistics{}
		case "help":
			b.sendText(chatID, b.renderer.Text(b.dispatcher.Locale(chatID), "help"))
			return
		default:
			b.sendText(chatID, b.renderer.Text(b.dispatcher.Locale(chatID), "notice_unknown_command"))
			return
		}
	} else {
		// Plain text only matters while the chat is waiting for names.
		if b.dispatcher.Phase(chatID) != server.PhasePlayers {
			return
		}
		ev = server.SetupPlayers{Names: server.ParsePlayerNames(msg.Text)}
	}
	b.dispatch(ctx, chatID, ev)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn().Err(err).Str("callback", cb.ID).Msg("Failed to answer callback")
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	ev, clears, ok := parseCallback(cb.Data)
	if !ok {
		b.logger.Warn().Int64("chat_id", chatID).Str("data", cb.Data).Msg("Unknown callback data")
		return
	}
	if clears {
		b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, emptyKeyboard()))
	}
	b.dispatch(ctx, chatID, ev)
}

func (b *Bot) dispatch(ctx context.Context, chatID int64, ev server.Event) {
	results, err := b.dispatcher.Handle(ctx, chatID, ev)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Str("event", ev.EventType()).Msg("Failed to handle event")
		return
	}
	locale := b.dispatcher.Locale(chatID)
	for _, result := range results {
		b.show(chatID, locale, result)
	}
}

func (b *Bot) show(chatID int64, locale string, result server.Result) {
	r := b.renderer
	switch res := result.(type) {
	case server.LanguagePrompt:
		b.forgetDeckMessage(chatID)
		msg := tgbotapi.NewMessage(chatID, r.Text(res.Suggested, "start_lang"))
		msg.ReplyMarkup = languageKeyboard(r, res.Locales)
		b.send(msg)
	case server.PlayersPrompt:
		b.sendText(chatID, r.Text(locale, "welcome"))
	case server.DeckSelection:
		b.showDeckSelection(chatID, locale, res)
	case server.CardPresentation:
		msg := tgbotapi.NewMessage(chatID, r.CardHTML(locale, res.Player, res.Prompt, res.Weight))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = cardKeyboard(r, locale, res.Seq)
		b.send(msg)
	case server.NoEligibleCard:
		msg := tgbotapi.NewMessage(chatID, r.Text(locale, "no_more_card", res.Player))
		msg.ReplyMarkup = exhaustedKeyboard(r, locale, res.Seq)
		b.send(msg)
	case server.FinalSummary:
		msg := tgbotapi.NewMessage(chatID, r.Text(locale, "final_stats"))
		msg.ReplyMarkup = statisticsKeyboard(r, locale)
		b.send(msg)
	case server.StatisticsTable:
		msg := tgbotapi.NewMessage(chatID, "<pre>"+html.EscapeString(r.StatsTable(locale, res.Report))+"</pre>")
		msg.ParseMode = tgbotapi.ModeHTML
		b.send(msg)
	case server.Notice:
		b.sendText(chatID, r.Text(locale, res.Key, res.Params...))
	default:
		b.logger.Warn().Int64("chat_id", chatID).Str("result", result.ResultType()).Msg("Unhandled result")
	}
}

func (b *Bot) showDeckSelection(chatID int64, locale string, sel server.DeckSelection) {
	b.deckMu.Lock()
	messageID, editing := b.deckMessages[chatID]
	b.deckMu.Unlock()

	if sel.Closed {
		if editing {
			b.request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, emptyKeyboard()))
			b.forgetDeckMessage(chatID)
		}
		return
	}

	text := b.renderer.Text(locale, "choose_deck")
	keyboard := deckKeyboard(b.renderer, locale, sel)
	if editing {
		b.request(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard))
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	sent, ok := b.send(msg)
	if !ok {
		return
	}
	b.deckMu.Lock()
	b.deckMessages[chatID] = sent.MessageID
	b.deckMu.Unlock()
}

func (b *Bot) forgetDeckMessage(chatID int64) {
	b.deckMu.Lock()
	delete(b.deckMessages, chatID)
	b.deckMu.Unlock()
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) (tgbotapi.Message, bool) {
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to send message")
		return tgbotapi.Message{}, false
	}
	return sent, true
}

// request is used for edits, whose responses carry nothing we need.
func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Warn().Err(err).Msg("Telegram request failed")
	}
}
