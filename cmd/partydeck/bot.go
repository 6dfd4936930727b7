package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/partydeck/cmd/partydeck/shared"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/render"
	"github.com/lox/partydeck/internal/server"
	"github.com/lox/partydeck/internal/telegram"
)

// BotCmd runs the Telegram bot
type BotCmd struct {
	Seed           *int64        `kong:"help='Deterministic RNG seed (optional)'"`
	JSONLogs       bool          `kong:"name='json-logs',help='Emit structured JSON logs'"`
	StatusInterval time.Duration `kong:"default='5m',help='How often to log active chat counts'"`
	IdleTTL        time.Duration `kong:"name='idle-ttl',default='24h',help='Drop chats idle for this long'"`
}

func (c *BotCmd) Run(g *Globals) error {
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	setup := shared.SetupLogger
	if c.JSONLogs {
		setup = shared.SetupStructuredLogger
	}
	logger, err := setup(cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token is not set (telegram.token or PARTYDECK_TELEGRAM_TOKEN)")
	}

	seed := randutil.Seed(c.Seed)
	logger.Info().Int64("seed", seed).Str("deck_dir", cfg.DeckDir).Strs("locales", cfg.LocaleNames()).Msg("Starting partydeck bot")

	app, err := shared.NewApp(cfg, logger, seed)
	if err != nil {
		return err
	}
	api, err := telegram.Connect(cfg.Telegram.Token, cfg.Telegram.Debug, logger)
	if err != nil {
		return err
	}
	bot := telegram.New(api, app.Dispatcher, render.NewPlain(app.Catalog), logger,
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
		telegram.WithIdleTTL(c.IdleTTL),
	)

	ctx, cancel := shared.ShutdownContext(logger)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// The status loop ends with the poller.
		defer cancel()
		return bot.Run(ctx)
	})
	group.Go(func() error {
		reportStatus(ctx, logger, app.Dispatcher.Sessions(), c.StatusInterval)
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Bot stopped")
	return nil
}

// reportStatus logs how many chats are tracked until ctx is done.
func reportStatus(ctx context.Context, logger zerolog.Logger, sessions *server.SessionManager, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			playing := 0
			for _, s := range sessions.List() {
				if s.Phase == server.PhasePlaying.String() {
					playing++
				}
			}
			logger.Info().Int("chats", sessions.Count()).Int("playing", playing).Msg("Status")
		}
	}
}
