package game

import (
	"sort"
	"time"

	"github.com/lox/partydeck/internal/deck"
)

// Outcome is how the active player resolved their card.
type Outcome int

const (
	// Answered means the player took on the card and earns no sips.
	Answered Outcome = iota + 1
	// Drank means the player declined and drinks the card's weight.
	Drank
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Answered:
		return "answered"
	case Drank:
		return "drank"
	default:
		return "unknown"
	}
}

// TurnState says whether a player's turn timer is running.
type TurnState int

const (
	TurnClosed TurnState = iota
	TurnOpen
)

// String returns the state name.
func (s TurnState) String() string {
	if s == TurnOpen {
		return "open"
	}
	return "closed"
}

// PlayerStats accumulates one player's results. TurnStart is only meaningful
// while Turn is TurnOpen.
type PlayerStats struct {
	PlayerTime  time.Duration `json:"player_time"`
	Sips        int           `json:"sips"`
	Answered    int           `json:"answered"`
	Regenerated int           `json:"regenerated"`
	Turn        TurnState     `json:"-"`
	TurnStart   time.Time     `json:"-"`
}

// Elapsed returns PlayerTime plus the running turn, measured up to now. It
// does not modify the stats.
func (p PlayerStats) Elapsed(now time.Time) time.Duration {
	if p.Turn != TurnOpen || now.Before(p.TurnStart) {
		return p.PlayerTime
	}
	return p.PlayerTime + now.Sub(p.TurnStart)
}

// CardRef identifies the card the active player is reacting to.
type CardRef struct {
	Player string `json:"player"`
	Seq    int    `json:"seq"`
	Deck   string `json:"deck"`
	Index  int    `json:"index"`
}

// Session is the aggregate root of one game. It is only mutated by Engine.
type Session struct {
	ID        string
	Players   []string
	Turn      int
	Decks     []string
	StartedAt time.Time
	EndedAt   time.Time
	Current   *CardRef
	Draws     int

	decks map[string]*deck.Deck
	used  map[string]map[string]map[int]struct{}
	stats map[string]*PlayerStats
}

func newSession(id string, players []string, decks []*deck.Deck, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Players:   append([]string(nil), players...),
		StartedAt: now,
		decks:     make(map[string]*deck.Deck, len(decks)),
		used:      make(map[string]map[string]map[int]struct{}, len(players)),
		stats:     make(map[string]*PlayerStats, len(players)),
	}
	for _, d := range decks {
		s.Decks = append(s.Decks, d.Name())
		s.decks[d.Name()] = d
	}
	for _, p := range players {
		s.used[p] = make(map[string]map[int]struct{}, len(decks))
		s.stats[p] = &PlayerStats{}
	}
	return s
}

// Ended reports whether EndGame has run.
func (s *Session) Ended() bool {
	return !s.EndedAt.IsZero()
}

func (s *Session) activePlayer() string {
	return s.Players[s.Turn]
}

func (s *Session) advance() {
	s.Turn = (s.Turn + 1) % len(s.Players)
}

type slot struct {
	deck  string
	index int
}

// eligible pools every unused card of every selected deck for player, in deck
// selection order then card order.
func (s *Session) eligible(player string) []slot {
	var pool []slot
	for _, name := range s.Decks {
		used := s.used[player][name]
		for i := 0; i < s.decks[name].Len(); i++ {
			if _, ok := used[i]; !ok {
				pool = append(pool, slot{deck: name, index: i})
			}
		}
	}
	return pool
}

func (s *Session) hasEligible(player string) bool {
	for _, name := range s.Decks {
		if len(s.used[player][name]) < s.decks[name].Len() {
			return true
		}
	}
	return false
}

func (s *Session) markUsed(player string, sl slot) {
	byDeck := s.used[player]
	if byDeck[sl.deck] == nil {
		byDeck[sl.deck] = make(map[int]struct{})
	}
	byDeck[sl.deck][sl.index] = struct{}{}
}

func (s *Session) openTurn(player string, now time.Time) {
	st := s.stats[player]
	if st.Turn == TurnOpen {
		return
	}
	st.Turn = TurnOpen
	st.TurnStart = now
}

// closeTurn folds a running turn into PlayerTime. Closing a closed turn is a
// no-op.
func (s *Session) closeTurn(player string, now time.Time) {
	st := s.stats[player]
	if st.Turn != TurnOpen {
		return
	}
	if now.After(st.TurnStart) {
		st.PlayerTime += now.Sub(st.TurnStart)
	}
	st.Turn = TurnClosed
	st.TurnStart = time.Time{}
}

func (s *Session) usedIndices(player, deckName string) []int {
	used := s.used[player][deckName]
	out := make([]int, 0, len(used))
	for i := range used {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Snapshot is a read-only copy of a Session taken at TakenAt.
type Snapshot struct {
	ID        string
	Players   []string
	Turn      int
	Decks     []string
	StartedAt time.Time
	EndedAt   time.Time
	TakenAt   time.Time
	Current   *CardRef
	Draws     int
	Stats     map[string]PlayerStats
	Used      map[string]map[string]int
}

// ActivePlayer returns the player whose turn it is.
func (s Snapshot) ActivePlayer() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[s.Turn]
}

// Ended reports whether the session had ended when the snapshot was taken.
func (s Snapshot) Ended() bool {
	return !s.EndedAt.IsZero()
}

func (s *Session) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		Players:   append([]string(nil), s.Players...),
		Turn:      s.Turn,
		Decks:     append([]string(nil), s.Decks...),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		TakenAt:   now,
		Draws:     s.Draws,
		Stats:     make(map[string]PlayerStats, len(s.stats)),
		Used:      make(map[string]map[string]int, len(s.used)),
	}
	if s.Current != nil {
		ref := *s.Current
		snap.Current = &ref
	}
	for p, st := range s.stats {
		snap.Stats[p] = *st
	}
	for p, byDeck := range s.used {
		counts := make(map[string]int, len(byDeck))
		for d, set := range byDeck {
			counts[d] = len(set)
		}
		snap.Used[p] = counts
	}
	return snap
}
