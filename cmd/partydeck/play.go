package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/lox/partydeck/cmd/partydeck/shared"
	"github.com/lox/partydeck/internal/fileutil"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/tui"
)

// PlayCmd plays a game in the terminal
type PlayCmd struct {
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Lang    string `kong:"env='LANG',help='Language used to suggest a locale'"`
	Report  string `kong:"type='path',help='Write the final statistics report as JSON to this file'"`
	LogFile string `kong:"name='log-file',type='path',help='Write logs to this file'"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger, err := shared.SetupFileLogger(out, cfg.LogLevel)
	if err != nil {
		return err
	}
	uiLogger := log.NewWithOptions(out, log.Options{Prefix: "partydeck", ReportTimestamp: true})
	if cfg.LogLevel == "debug" {
		uiLogger.SetLevel(log.DebugLevel)
	}

	seed := randutil.Seed(c.Seed)
	logger.Info().Int64("seed", seed).Msg("Starting terminal game")

	app, err := shared.NewApp(cfg, logger, seed)
	if err != nil {
		return err
	}

	ctx, stop := shared.ShutdownContext(logger)
	defer stop()
	renderer := render.NewStyled(app.Catalog, lipgloss.DefaultRenderer())
	model := tui.New(app.Dispatcher, renderer, uiLogger,
		tui.WithContext(ctx),
		tui.WithLanguageCode(languageCode(c.Lang)),
	)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}

	report, ok := model.LastReport()
	if !ok {
		return nil
	}
	locale := app.Dispatcher.Locale(tui.LocalChat)
	fmt.Println(renderer.StatsTable(locale, report))

	if c.Report != "" {
		return writeReport(c.Report, report, logger)
	}
	return nil
}

func writeReport(path string, report any, logger zerolog.Logger) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info().Str("path", path).Msg("Report written")
	return nil
}

// languageCode turns a POSIX locale such as "ru_RU.UTF-8" into "ru-RU".
func languageCode(posix string) string {
	code, _, _ := strings.Cut(posix, ".")
	code, _, _ = strings.Cut(code, "@")
	if code == "C" || code == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(code, "_", "-")
}
