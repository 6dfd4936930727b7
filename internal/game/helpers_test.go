package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/partydeck/internal/deck"
)

// mapDecks is an in-memory DeckProvider.
type mapDecks struct {
	mu    sync.Mutex
	decks map[string]*deck.Deck
	loads map[string]int
}

func (m *mapDecks) Load(name string) (*deck.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[name]++
	d, ok := m.decks[name]
	if !ok {
		return nil, &deck.LoadError{Deck: name, Err: fmt.Errorf("no such deck")}
	}
	return d, nil
}

// newDecks builds decks whose cards carry the given weights. Prompts are
// "<deck>#<index>".
func newDecks(t *testing.T, weights map[string][]int) *mapDecks {
	t.Helper()
	m := &mapDecks{decks: map[string]*deck.Deck{}, loads: map[string]int{}}
	for name, ws := range weights {
		cards := make([]deck.Card, len(ws))
		for i, w := range ws {
			cards[i] = deck.Card{Prompt: fmt.Sprintf("%s#%d", name, i), Weight: w}
		}
		d, err := deck.New(name, cards)
		require.NoError(t, err)
		m.decks[name] = d
	}
	return m
}

// scriptedRand returns picks in order, clamped to the pool size, then 0.
type scriptedRand struct {
	picks []int
}

func (s *scriptedRand) IntN(n int) int {
	if len(s.picks) == 0 {
		return 0
	}
	p := s.picks[0]
	s.picks = s.picks[1:]
	if p >= n {
		return n - 1
	}
	return p
}

// assertSingleOpenTurn checks that at most one timer runs and that it belongs
// to the active player while a card is drawn.
func assertSingleOpenTurn(t *testing.T, snap Snapshot) {
	t.Helper()
	var open []string
	for p, st := range snap.Stats {
		if st.Turn == TurnOpen {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return
	}
	if assert.Len(t, open, 1, "more than one open turn") {
		assert.Equal(t, snap.ActivePlayer(), open[0])
		assert.NotNil(t, snap.Current, "open turn without a drawn card")
	}
}
