package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/partydeck/internal/config"
	"github.com/lox/partydeck/internal/deck"
)

// DecksCmd loads every configured deck and prints a summary
type DecksCmd struct {
	Locale string `kong:"help='Only show decks of this locale'"`
}

func (c *DecksCmd) Run(g *Globals) error {
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	store := deck.NewDirStore(cfg.DeckDir)
	headers := []string{"Locale", "Deck", "Cards"}
	for w := deck.MinWeight; w <= deck.MaxWeight; w++ {
		headers = append(headers, fmt.Sprintf("%d sip", w))
	}

	var rows [][]string
	var failed []error
	found := false
	for _, l := range cfg.Locales {
		if c.Locale != "" && l.Name != c.Locale {
			continue
		}
		found = true
		for _, name := range l.Decks {
			d, err := store.Load(name)
			if err != nil {
				failed = append(failed, err)
				rows = append(rows, []string{l.Name, name, "error"})
				continue
			}
			row := []string{l.Name, d.Name(), strconv.Itoa(d.Len())}
			hist := d.WeightHistogram()
			for w := deck.MinWeight; w <= deck.MaxWeight; w++ {
				row = append(row, strconv.Itoa(hist[w]))
			}
			rows = append(rows, row)
		}
	}
	if !found {
		return fmt.Errorf("locale %s is not configured", c.Locale)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Println(t.Render())

	if c.Locale == "" {
		available, err := store.Available()
		if err != nil {
			return err
		}
		for _, name := range unlistedDecks(available, cfg.Locales) {
			fmt.Fprintf(os.Stderr, "%s%s is not offered by any locale\n", name, deck.Extension)
		}
	}

	for _, err := range failed {
		fmt.Fprintln(os.Stderr, err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d deck(s) failed to load: %w", len(failed), errors.Join(failed...))
	}
	return nil
}

// unlistedDecks returns the available decks that no locale lists.
func unlistedDecks(available []string, locales []config.LocaleConfig) []string {
	listed := make(map[string]bool)
	for _, l := range locales {
		for _, name := range l.Decks {
			listed[name] = true
		}
	}
	var out []string
	for _, name := range available {
		if !listed[name] {
			out = append(out, name)
		}
	}
	return out
}
