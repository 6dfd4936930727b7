// Package tui plays a game in the terminal. It drives the same dispatcher as
// the chat bot, with one local chat.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/server"
	"github.com/lox/partydeck/internal/statistics"
)

// LocalChat is the chat ID used for the terminal session.
const LocalChat int64 = 1

// eventMsg asks the model to dispatch an event.
type eventMsg struct {
	ev server.Event
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context passed to the dispatcher.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithLanguageCode sets the client language used to suggest a locale.
func WithLanguageCode(code string) Option {
	return func(m *Model) {
		m.languageCode = code
	}
}

// Model is the Bubble Tea model for a terminal game.
type Model struct {
	ctx          context.Context
	dispatcher   *server.Dispatcher
	renderer     *render.Renderer
	logger       *log.Logger
	languageCode string

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	gameLog     []string
	locales     []string
	decks       []string
	players     []string
	active      string
	seq         int
	lastReport  *statistics.Report
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

// New creates a model.
func New(dispatcher *server.Dispatcher, renderer *render.Renderer, logger *log.Logger, opts ...Option) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctx:         context.Background(),
		dispatcher:  dispatcher,
		renderer:    renderer,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		focusedPane: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts a new game setup.
func (m *Model) Init() tea.Cmd {
	start := server.Start{LanguageCode: m.languageCode}
	return tea.Batch(textinput.Blink, func() tea.Msg { return eventMsg{ev: start} })
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case eventMsg:
		m.dispatch(msg.ev)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := m.input.Value()
				m.input.SetValue("")
				if m.submit(line) {
					m.quitting = true
					return m, tea.Sequence(tea.ClearScreen, tea.Quit)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles one typed line and reports whether the user asked to quit.
func (m *Model) submit(line string) bool {
	locale := m.dispatcher.Locale(LocalChat)
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "/quit":
		return true
	case "help", "/help":
		m.AddLogEntry(InfoStyle.Render(m.renderer.Text(locale, "help")))
		return false
	}

	ev, ok := parseInput(m.dispatcher.Phase(LocalChat), line, m.locales, m.decks, m.seq)
	if !ok {
		m.AddLogEntry(ErrorStyle.Render(m.renderer.Text(locale, "notice_unknown_command")))
		return false
	}
	m.dispatch(ev)
	return false
}

func (m *Model) dispatch(ev server.Event) {
	results, err := m.dispatcher.Handle(m.ctx, LocalChat, ev)
	if err != nil {
		m.logger.Error("Event failed", "event", ev.EventType(), "error", err)
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return
	}
	if setup, ok := ev.(server.SetupPlayers); ok && m.dispatcher.Phase(LocalChat) == server.PhaseDecks {
		m.players = append([]string(nil), setup.Names...)
	}

	locale := m.dispatcher.Locale(LocalChat)
	for _, result := range results {
		m.show(locale, result)
		if _, ok := result.(server.FinalSummary); ok {
			m.dispatch(server.RequestStatistics{})
		}
	}
}

func (m *Model) show(locale string, result server.Result) {
	r := m.renderer
	switch res := result.(type) {
	case server.LanguagePrompt:
		m.locales = res.Locales
		m.players = nil
		m.active = ""
		lines := []string{HeaderStyle.Render(r.Text(res.Suggested, "start_lang"))}
		for i, l := range res.Locales {
			lines = append(lines, fmt.Sprintf("  %d. %s (%s)", i+1, r.Catalog().Name(l), l))
		}
		m.AddLogEntry(strings.Join(lines, "\n"))
	case server.PlayersPrompt:
		m.AddLogEntry(r.Text(locale, "welcome"))
	case server.DeckSelection:
		m.decks = res.Decks
		if res.Closed {
			return
		}
		lines := []string{r.Text(locale, "choose_deck")}
		for i, name := range res.Decks {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, r.DeckLabel(locale, name, res.IsSelected(name))))
		}
		lines = append(lines, ActionsStyle.Render("  done: "+r.Text(locale, "done")))
		m.AddLogEntry(strings.Join(lines, "\n"))
	case server.CardPresentation:
		m.active = res.Player
		m.seq = res.Seq
		m.AddLogEntry(CardStyle.Render(r.CardPlain(locale, res.Player, res.Prompt, res.Weight)) + " " + render.SipEmoji(res.Weight))
	case server.NoEligibleCard:
		m.active = res.Player
		m.seq = res.Seq
		m.AddLogEntry(WarningStyle.Render(r.Text(locale, "no_more_card", res.Player)))
	case server.FinalSummary:
		m.active = ""
		m.AddLogEntry(SuccessStyle.Render(r.Text(locale, "final_stats")))
	case server.StatisticsTable:
		report := res.Report
		m.lastReport = &report
		m.AddLogEntry(r.StatsTable(locale, report))
	case server.Notice:
		m.AddLogEntry(InfoStyle.Render(r.Text(locale, res.Key, res.Params...)))
	}
}

// LastReport returns the report of the most recently finished game.
func (m *Model) LastReport() (statistics.Report, bool) {
	if m.lastReport == nil {
		return statistics.Report{}, false
	}
	return *m.lastReport, true
}

// Log returns the log entries shown so far.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// AddLogEntry adds an entry to the game log
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	// Only call GotoBottom if viewport has valid dimensions
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(atLeastOne(m.width - 2)).
		Height(atLeastOne(actionHeight - 2))
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := lipgloss.Width(sidebarContent)
	if sidebarWidth < 25 {
		sidebarWidth = 25
	}
	paneHeight := atLeastOne(m.height - actionHeight - 4)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = atLeastOne(m.width - sidebarWidth - 4)
	m.logViewport.Height = paneHeight

	// On first proper sizing, reset to top to avoid starting scrolled down
	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoTop()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (m *Model) renderSidebarPane() string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render(" " + m.dispatcher.Phase(LocalChat).String() + " "))
	content.WriteString("\n\n")
	for _, p := range m.players {
		if p == m.active {
			content.WriteString(PlayerStyle.Render("▶ " + p))
		} else {
			content.WriteString("  " + p)
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m *Model) renderActionPane() string {
	locale := m.dispatcher.Locale(LocalChat)
	r := m.renderer

	var hint string
	switch m.dispatcher.Phase(LocalChat) {
	case server.PhaseLanguage:
		m.input.Placeholder = "Type a language number or code"
	case server.PhasePlayers:
		m.input.Placeholder = "Alice, Bob, Carol"
	case server.PhaseDecks:
		m.input.Placeholder = "Type a deck number to toggle, 'done' to start"
	case server.PhasePlaying:
		m.input.Placeholder = "Enter to show the card"
		hint = fmt.Sprintf("[a] %s  [d] %s  [r] %s  [s] %s  [end] %s",
			r.Text(locale, "answer"), r.Text(locale, "drink"), r.Text(locale, "regenerate"),
			r.Text(locale, "next_player"), r.Text(locale, "end_game"))
	default:
		m.input.Placeholder = "'start' for a new game, 'stats' for the last one"
	}

	var content strings.Builder
	if hint != "" {
		content.WriteString(ActionsStyle.Render(hint))
		content.WriteString("\n")
	}
	content.WriteString(m.input.View())
	content.WriteString("\n")
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • 'help' for commands • Ctrl+C to quit"))
	}
	return content.String()
}
