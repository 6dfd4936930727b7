package deck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names expected in the header row of a deck source.
const (
	ColumnQuestion = "question"
	ColumnSip      = "sip"
)

// Deck is a named, ordered collection of cards. A card's index is its stable
// identity for the lifetime of a game, so a Deck never changes after Parse.
type Deck struct {
	name  string
	cards []Card
}

// New builds a deck from cards already in memory. The slice is copied.
func New(name string, cards []Card) (*Deck, error) {
	if len(cards) == 0 {
		return nil, &LoadError{Deck: name, Err: ErrEmptyDeck}
	}
	for i, c := range cards {
		if err := c.Validate(); err != nil {
			return nil, &LoadError{Deck: name, Line: i + 1, Err: err}
		}
	}
	return &Deck{name: name, cards: append([]Card(nil), cards...)}, nil
}

// Name returns the deck name.
func (d *Deck) Name() string {
	return d.name
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Card returns the card at index i.
func (d *Deck) Card(i int) (Card, bool) {
	if i < 0 || i >= len(d.cards) {
		return Card{}, false
	}
	return d.cards[i], true
}

// WeightHistogram counts cards per weight. Index 0 is unused.
func (d *Deck) WeightHistogram() [MaxWeight + 1]int {
	var h [MaxWeight + 1]int
	for _, c := range d.cards {
		h[c.Weight]++
	}
	return h
}

// Parse reads a tab separated deck. The first row is a header naming at least
// the question and sip columns; every following row is one card.
func Parse(name string, r io.Reader) (*Deck, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Deck: name, Err: ErrEmptyDeck}
	}
	if err != nil {
		return nil, &LoadError{Deck: name, Err: err}
	}

	qCol, sipCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColumnQuestion:
			qCol = i
		case ColumnSip:
			sipCol = i
		}
	}
	if qCol < 0 || sipCol < 0 {
		return nil, &LoadError{Deck: name, Line: 1, Err: ErrMissingColumns}
	}

	var cards []Card
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Deck: name, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			continue
		}
		if qCol >= len(record) || sipCol >= len(record) {
			return nil, &LoadError{Deck: name, Line: line, Err: fmt.Errorf("expected %d columns, got %d", len(header), len(record))}
		}

		weight, err := strconv.Atoi(strings.TrimSpace(record[sipCol]))
		if err != nil {
			return nil, &LoadError{Deck: name, Line: line, Err: fmt.Errorf("sip %q is not an integer", record[sipCol])}
		}
		card := Card{Prompt: strings.TrimSpace(record[qCol]), Weight: weight}
		if err := card.Validate(); err != nil {
			return nil, &LoadError{Deck: name, Line: line, Err: err}
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 {
		return nil, &LoadError{Deck: name, Err: ErrEmptyDeck}
	}
	return &Deck{name: name, cards: cards}, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
