package telegram

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/partydeck/internal/deck"
	"github.com/lox/partydeck/internal/i18n"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/server"
)

// fakeAPI records outgoing calls and serves updates from a channel.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	logger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	fsys := fstest.MapFS{
		"questions.csv": &fstest.MapFile{Data: []byte("question\tsip\nWhat is <your> worst habit?\t3\n")},
	}
	d, err := server.NewDispatcher(logger, server.NewSessionManager(logger), deck.NewStore(fsys), randutil.New(1),
		server.DispatcherConfig{
			Locales:  []string{"en", "ru"},
			DeckSets: map[string][]string{"en": {"questions"}, "ru": {}},
		})
	require.NoError(t, err)

	catalog, err := i18n.Load()
	require.NoError(t, err)

	api := newFakeAPI()
	return New(api, d, render.NewPlain(catalog), logger), api
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{LanguageCode: "en"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}}
}

func press(chatID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func callbackData(markup interface{}) []string {
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func TestBotFullGame(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	ctx := context.Background()

	b.HandleUpdate(ctx, command(1, "/start"))
	msg := api.lastMessage(t)
	assert.Equal(t, int64(1), msg.ChatID)
	assert.Equal(t, []string{"lang_en", "lang_ru"}, callbackData(msg.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 1, "lang_en"))
	assert.Contains(t, api.lastMessage(t).Text, "Please enter the players' names")

	b.HandleUpdate(ctx, text(1, "Alice, Bob"))
	msg = api.lastMessage(t)
	assert.Contains(t, msg.Text, "Choose deck(s)")
	assert.Equal(t, []string{"deck_questions", "deck_done"}, callbackData(msg.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 3, "deck_questions"))
	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 3, edits[0].MessageID)
	kb := edits[0].ReplyMarkup
	require.NotNil(t, kb)
	assert.Equal(t, "Questions ✅", kb.InlineKeyboard[0][0].Text)

	b.HandleUpdate(ctx, press(1, 3, "deck_done"))
	msgs := api.messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "Deck selection completed!", msgs[len(msgs)-2].Text)
	card := msgs[len(msgs)-1]
	assert.Equal(t, tgbotapi.ModeHTML, card.ParseMode)
	assert.Contains(t, card.Text, "Alice")
	assert.Contains(t, card.Text, "What is &lt;your&gt; worst habit?")
	assert.Contains(t, card.Text, "3️⃣")
	assert.Equal(t, []string{"answer:1", "drink:1", "regenerate:1", "end_game"}, callbackData(card.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 5, "answer:1"))
	msg = api.lastMessage(t)
	assert.Contains(t, msg.Text, "Bob")
	assert.Equal(t, []string{"answer:2", "drink:2", "regenerate:2", "end_game"}, callbackData(msg.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 6, "drink:2"))
	msg = api.lastMessage(t)
	assert.Equal(t, "No more questions available for Alice in any deck.", msg.Text)
	assert.Equal(t, []string{"skip_player:3", "end_game"}, callbackData(msg.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 7, "skip_player:3"))
	msgs = api.messages()
	assert.Equal(t, "Questions exhausted. Thanks for playing!", msgs[len(msgs)-2].Text)
	final := msgs[len(msgs)-1]
	assert.Equal(t, "Game over! Thanks for playing!", final.Text)
	assert.Equal(t, []string{"statistics"}, callbackData(final.ReplyMarkup))

	b.HandleUpdate(ctx, press(1, 9, "statistics"))
	stats := api.lastMessage(t)
	assert.Equal(t, tgbotapi.ModeHTML, stats.ParseMode)
	assert.True(t, strings.HasPrefix(stats.Text, "<pre>"))
	assert.Contains(t, stats.Text, "Alice")
	assert.Contains(t, stats.Text, "Total game time")
}

func TestBotIgnoresDoubleTap(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	ctx := context.Background()

	b.HandleUpdate(ctx, command(1, "/start"))
	b.HandleUpdate(ctx, press(1, 1, "lang_en"))
	b.HandleUpdate(ctx, text(1, "Alice, Bob"))
	b.HandleUpdate(ctx, press(1, 3, "deck_questions"))
	b.HandleUpdate(ctx, press(1, 3, "deck_done"))
	card := api.lastMessage(t)
	require.Contains(t, card.Text, "Alice")
	answer := callbackData(card.ReplyMarkup)[0]

	// Both callbacks of a double tap arrive before the keyboard is cleared.
	b.HandleUpdate(ctx, press(1, 5, answer))
	bob := api.lastMessage(t)
	require.Contains(t, bob.Text, "Bob")
	b.HandleUpdate(ctx, press(1, 5, answer))
	assert.Equal(t, "There is no card to answer right now.", api.lastMessage(t).Text)

	// The same goes for a late press on a replaced card's other buttons.
	b.HandleUpdate(ctx, press(1, 5, callbackData(card.ReplyMarkup)[1]))
	assert.Equal(t, "There is no card to answer right now.", api.lastMessage(t).Text)

	b.HandleUpdate(ctx, command(1, "/card"))
	again := api.lastMessage(t)
	assert.Equal(t, bob.Text, again.Text, "Bob's card is still waiting")
	assert.Equal(t, callbackData(bob.ReplyMarkup), callbackData(again.ReplyMarkup))

	b.HandleUpdate(ctx, command(1, "/end"))
	results, err := b.dispatcher.Handle(ctx, 1, server.RequestStatistics{})
	require.NoError(t, err)
	report := results[0].(server.StatisticsTable).Report
	require.Len(t, report.Rows, 2)
	assert.Equal(t, 1, report.Rows[0].Answered)
	assert.Equal(t, 0, report.Rows[1].Answered)
	assert.Equal(t, 0, report.Rows[1].Sips)
}

func TestBotCommands(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	ctx := context.Background()

	b.HandleUpdate(ctx, command(1, "/help"))
	assert.Contains(t, api.lastMessage(t).Text, "/start")

	b.HandleUpdate(ctx, command(1, "/dance"))
	assert.Equal(t, "Unknown command. Use /help", api.lastMessage(t).Text)

	b.HandleUpdate(ctx, command(1, "/card"))
	assert.Equal(t, "No game is running. Send /start to begin.", api.lastMessage(t).Text)

	b.HandleUpdate(ctx, command(1, "/stats"))
	assert.Equal(t, "Statistics are available once the game is over.", api.lastMessage(t).Text)

	// Chatter outside of player setup is ignored.
	before := len(api.messages())
	b.HandleUpdate(ctx, text(1, "hello"))
	assert.Len(t, api.messages(), before)
}

func TestBotRunKeepsChatOrder(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)

	for _, u := range []tgbotapi.Update{
		command(1, "/start"),
		command(2, "/start"),
		press(1, 1, "lang_en"),
		press(2, 2, "lang_en"),
		text(1, "Alice"),
		text(2, "Bob"),
	} {
		api.updates <- u
	}
	close(api.updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, b.Run(ctx))
	assert.True(t, api.stopped)

	byChat := map[int64][]string{}
	for _, m := range api.messages() {
		byChat[m.ChatID] = append(byChat[m.ChatID], m.Text)
	}
	for _, chat := range []int64{1, 2} {
		texts := byChat[chat]
		require.Len(t, texts, 3, "chat %d", chat)
		assert.Contains(t, texts[1], "Please enter the players' names")
		assert.Contains(t, texts[2], "Choose deck(s)")
	}
}

func TestParseCallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		data   string
		want   server.Event
		clears bool
		ok     bool
	}{
		{"lang_ru", server.SelectLanguage{Locale: "ru"}, true, true},
		{"deck_вопросы", server.ToggleDeckSelection{Deck: "вопросы"}, false, true},
		{"deck_done", server.ConfirmDeckSelection{}, false, true},
		{"answer:4", server.Answered{Seq: 4}, true, true},
		{"drink:12", server.Drank{Seq: 12}, true, true},
		{"regenerate:1", server.RegenerateCard{Seq: 1}, true, true},
		{"skip_player:7", server.SkipPlayer{Seq: 7}, true, true},
		{"answer", nil, false, false},
		{"answer:0", nil, false, false},
		{"drink:x", nil, false, false},
		{"dance:3", nil, false, false},
		{"end_game", server.EndGame{}, true, true},
		{"statistics", server.RequestStatistics{}, false, true},
		{"lang_", nil, false, false},
		{"deck_", nil, false, false},
		{"bogus", nil, false, false},
	}
	for _, tt := range tests {
		ev, clears, ok := parseCallback(tt.data)
		assert.Equal(t, tt.ok, ok, tt.data)
		assert.Equal(t, tt.want, ev, tt.data)
		assert.Equal(t, tt.clears, clears, tt.data)
	}
}
