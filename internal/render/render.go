// Package render turns game results into text. It has no state of its own
// beyond the catalog and the lipgloss renderer it writes with.
package render

import (
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lox/partydeck/internal/i18n"
	"github.com/lox/partydeck/internal/statistics"
)

// Renderer formats results for one output medium.
type Renderer struct {
	catalog *i18n.Catalog
	lg      *lipgloss.Renderer
}

// NewPlain returns a renderer that never emits ANSI sequences, for chat
// transports that show text verbatim.
func NewPlain(catalog *i18n.Catalog) *Renderer {
	lg := lipgloss.NewRenderer(io.Discard)
	lg.SetColorProfile(termenv.Ascii)
	return &Renderer{catalog: catalog, lg: lg}
}

// NewStyled returns a renderer bound to a terminal renderer, keeping its
// colour profile.
func NewStyled(catalog *i18n.Catalog, lg *lipgloss.Renderer) *Renderer {
	return &Renderer{catalog: catalog, lg: lg}
}

// Catalog exposes the catalog the renderer reads from.
func (r *Renderer) Catalog() *i18n.Catalog {
	return r.catalog
}

// Text is shorthand for the catalog lookup.
func (r *Renderer) Text(locale, key string, args ...any) string {
	return r.catalog.Text(locale, key, args...)
}

var sipEmoji = [...]string{"", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣"}

// SipEmoji renders a card weight as a keycap emoji.
func SipEmoji(weight int) string {
	if weight > 0 && weight < len(sipEmoji) {
		return sipEmoji[weight]
	}
	return strconv.Itoa(weight)
}

// CardHTML renders a drawn card for HTML parse mode. Player names and prompts
// are escaped.
func (r *Renderer) CardHTML(locale, player, prompt string, weight int) string {
	return r.catalog.Text(locale, "card_text", html.EscapeString(player), html.EscapeString(prompt), SipEmoji(weight))
}

// CardPlain renders a drawn card on one line.
func (r *Renderer) CardPlain(locale, player, prompt string, weight int) string {
	return r.catalog.Text(locale, "card_plain", player, prompt, weight)
}

// DeckLabel renders a deck button label, marking selected decks.
func (r *Renderer) DeckLabel(locale, deck string, selected bool) string {
	label := cases.Title(language.Make(locale)).String(deck)
	if selected {
		label += " ✅"
	}
	return label
}

// Duration renders d in whole seconds, omitting zero hours and minutes:
// "1 h, 2 min, 3 sec".
func (r *Renderer) Duration(locale string, d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	hours, rem := secs/3600, secs%3600
	minutes, seconds := rem/60, rem%60

	var parts []string
	if hours > 0 {
		parts = append(parts, r.catalog.Text(locale, "duration_hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, r.catalog.Text(locale, "duration_minutes", minutes))
	}
	parts = append(parts, r.catalog.Text(locale, "duration_seconds", seconds))
	return strings.Join(parts, ", ")
}

// StatsTable renders the report as an aligned table followed by the total
// game time.
func (r *Renderer) StatsTable(locale string, report statistics.Report) string {
	headers := []string{
		r.catalog.Text(locale, "stats_player"),
		r.catalog.Text(locale, "stats_time"),
		r.catalog.Text(locale, "stats_sips"),
		r.catalog.Text(locale, "stats_answered"),
		r.catalog.Text(locale, "stats_regenerated"),
	}

	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, []string{
			row.Player,
			r.Duration(locale, row.Elapsed),
			strconv.Itoa(row.Sips),
			strconv.Itoa(row.Answered),
			strconv.Itoa(row.Regenerated),
		})
	}

	cell := r.lg.NewStyle().PaddingRight(1)
	header := cell
	if r.lg.ColorProfile() != termenv.Ascii {
		header = cell.Bold(true)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.lg.NewStyle()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	total := r.catalog.Text(locale, "stats_total", r.Duration(locale, report.Duration))
	return t.String() + "\n\n" + total
}
