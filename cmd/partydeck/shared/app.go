package shared

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/partydeck/internal/config"
	"github.com/lox/partydeck/internal/deck"
	"github.com/lox/partydeck/internal/i18n"
	"github.com/lox/partydeck/internal/randutil"
	"github.com/lox/partydeck/internal/server"
)

// App bundles the pieces every game mode needs.
type App struct {
	Config     *config.Config
	Catalog    *i18n.Catalog
	Dispatcher *server.Dispatcher
}

// LoadConfig reads the configuration file, applies overrides in order and
// validates the result.
func LoadConfig(filename string, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(filename)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewApp wires the catalog, deck store and dispatcher for cfg. The default
// locale is offered first.
func NewApp(cfg *config.Config, logger zerolog.Logger, seed int64, opts ...server.DispatcherOption) (*App, error) {
	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	locales := []string{cfg.DefaultLocale}
	for _, name := range cfg.LocaleNames() {
		if !catalog.Supports(name) {
			return nil, fmt.Errorf("locale %s has no message catalog", name)
		}
		if name != cfg.DefaultLocale {
			locales = append(locales, name)
		}
	}

	store := deck.NewDirStore(cfg.DeckDir)
	dispatcher, err := server.NewDispatcher(logger, server.NewSessionManager(logger), store, randutil.New(seed),
		server.DispatcherConfig{Locales: locales, DeckSets: cfg.DeckSets(), Matcher: catalog}, opts...)
	if err != nil {
		return nil, err
	}

	return &App{Config: cfg, Catalog: catalog, Dispatcher: dispatcher}, nil
}
