package main

import (
	"github.com/alecthomas/kong"

	"github.com/lox/partydeck/cmd/partydeck/shared"
	"github.com/lox/partydeck/internal/config"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command. Flags win over the config file
// and the environment.
type Globals struct {
	Config  string `short:"c" default:"partydeck.hcl" type:"path" help:"Configuration file (optional)"`
	Debug   bool   `help:"Enable debug logging"`
	DeckDir string `name:"decks-dir" type:"path" help:"Directory holding the deck files"`
	Token   string `help:"Telegram bot token"`
}

// LoadConfig reads the configuration and applies flag overrides.
func (g *Globals) LoadConfig() (*config.Config, error) {
	return shared.LoadConfig(g.Config, func(cfg *config.Config) {
		if g.Debug {
			cfg.LogLevel = "debug"
		}
		if g.DeckDir != "" {
			cfg.DeckDir = g.DeckDir
		}
		if g.Token != "" {
			cfg.Telegram.Token = g.Token
		}
	})
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Bot     BotCmd           `cmd:"" help:"Run the Telegram bot"`
	Play    PlayCmd          `cmd:"" help:"Play a game in the terminal"`
	Decks   DecksCmd         `cmd:"" help:"Load and describe the configured decks"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("partydeck"),
		kong.Description("Turn-based party card game for Telegram chats and the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
