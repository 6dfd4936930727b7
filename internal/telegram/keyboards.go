package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/server"
)

// Callback data understood by the bot. Card buttons carry the draw they
// belong to as "<action>:<seq>".
const (
	cbLanguagePrefix = "lang_"
	cbDeckPrefix     = "deck_"
	cbDeckDone       = "deck_done"
	cbAnswer         = "answer"
	cbDrink          = "drink"
	cbRegenerate     = "regenerate"
	cbSkipPlayer     = "skip_player"
	cbEndGame        = "end_game"
	cbStatistics     = "statistics"
)

// parseCallback maps button data to an event. Game buttons report true for
// clears so the pressed keyboard can be removed.
func parseCallback(data string) (ev server.Event, clears bool, ok bool) {
	switch data {
	case cbDeckDone:
		return server.ConfirmDeckSelection{}, false, true
	case cbEndGame:
		return server.EndGame{}, true, true
	case cbStatistics:
		return server.RequestStatistics{}, false, true
	}
	if locale, found := strings.CutPrefix(data, cbLanguagePrefix); found && locale != "" {
		return server.SelectLanguage{Locale: locale}, true, true
	}
	if name, found := strings.CutPrefix(data, cbDeckPrefix); found && name != "" {
		return server.ToggleDeckSelection{Deck: name}, false, true
	}
	if action, raw, found := strings.Cut(data, ":"); found {
		seq, err := strconv.Atoi(raw)
		if err != nil || seq < 1 {
			return nil, false, false
		}
		switch action {
		case cbAnswer:
			return server.Answered{Seq: seq}, true, true
		case cbDrink:
			return server.Drank{Seq: seq}, true, true
		case cbRegenerate:
			return server.RegenerateCard{Seq: seq}, true, true
		case cbSkipPlayer:
			return server.SkipPlayer{Seq: seq}, true, true
		}
	}
	return nil, false, false
}

func languageKeyboard(r *render.Renderer, locales []string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(locales))
	for _, l := range locales {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(r.Catalog().Name(l), cbLanguagePrefix+l))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func deckKeyboard(r *render.Renderer, locale string, sel server.DeckSelection) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sel.Decks)+1)
	for _, name := range sel.Decks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.DeckLabel(locale, name, sel.IsSelected(name)), cbDeckPrefix+name),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "done"), cbDeckDone),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func seqData(action string, seq int) string {
	return action + ":" + strconv.Itoa(seq)
}

func cardKeyboard(r *render.Renderer, locale string, seq int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "answer"), seqData(cbAnswer, seq)),
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "drink"), seqData(cbDrink, seq)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "regenerate"), seqData(cbRegenerate, seq)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "end_game"), cbEndGame),
		),
	)
}

func exhaustedKeyboard(r *render.Renderer, locale string, seq int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "next_player"), seqData(cbSkipPlayer, seq)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "end_game"), cbEndGame),
		),
	)
}

func statisticsKeyboard(r *render.Renderer, locale string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Text(locale, "stats_button"), cbStatistics),
		),
	)
}

func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
