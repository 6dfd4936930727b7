package statistics

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/partydeck/internal/deck"
	"github.com/lox/partydeck/internal/game"
	"github.com/lox/partydeck/internal/randutil"
)

type oneDeck struct{ d *deck.Deck }

func (o oneDeck) Load(string) (*deck.Deck, error) { return o.d, nil }

func newEngine(t *testing.T, clock quartz.Clock) *game.Engine {
	t.Helper()
	d, err := deck.New("q", []deck.Card{{Prompt: "a", Weight: 3}, {Prompt: "b", Weight: 1}, {Prompt: "c", Weight: 2}})
	require.NoError(t, err)
	return game.NewEngine(oneDeck{d}, randutil.New(11), game.WithClock(clock))
}

func TestBuildRequiresEndedSession(t *testing.T) {
	t.Parallel()

	_, err := Build(game.Snapshot{})
	assert.ErrorIs(t, err, ErrIncompleteSession)

	clock := quartz.NewMock(t)
	e := newEngine(t, clock)
	require.NoError(t, e.StartGame([]string{"A"}, []string{"q"}))
	snap, _ := e.Snapshot()
	_, err = Build(snap)
	assert.ErrorIs(t, err, ErrIncompleteSession)
}

// Two players take one turn each; times and sips land on the right rows.
func TestBuildTwoPlayerGame(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	e := newEngine(t, clock)
	require.NoError(t, e.StartGame([]string{"Alice", "Bob"}, []string{"q"}))

	clock.Advance(2 * time.Second)
	_, err := e.DrawCard()
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	require.NoError(t, e.ResolveTurn(game.Drank))

	_, err = e.DrawCard()
	require.NoError(t, err)
	clock.Advance(5 * time.Second)
	require.NoError(t, e.ResolveTurn(game.Answered))

	clock.Advance(time.Second)
	require.NoError(t, e.EndGame())

	snap, _ := e.Snapshot()
	report, err := Build(snap)
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Alice", report.Rows[0].Player)
	assert.Equal(t, "Bob", report.Rows[1].Player)
	assert.Equal(t, 10*time.Second, report.Rows[0].Elapsed)
	assert.Equal(t, 5*time.Second, report.Rows[1].Elapsed)
	assert.Equal(t, 1, report.Rows[1].Answered)
	assert.Positive(t, report.Rows[0].Sips)
	assert.Equal(t, 18*time.Second, report.Duration)
	assert.LessOrEqual(t, report.Rows[0].Elapsed+report.Rows[1].Elapsed, report.Duration)
	assert.Equal(t, snap.ID, report.SessionID)
}

func TestBuildCountsOpenTurnReadOnly(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	snap := game.Snapshot{
		ID:        "s",
		Players:   []string{"B", "A"},
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		TakenAt:   start.Add(2 * time.Minute),
		Stats: map[string]game.PlayerStats{
			"A": {PlayerTime: 20 * time.Second, Sips: 4},
			"B": {PlayerTime: 5 * time.Second, Turn: game.TurnOpen, TurnStart: start.Add(90 * time.Second), Regenerated: 2},
		},
	}

	report, err := Build(snap)
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{Player: "B", Elapsed: 35 * time.Second, Regenerated: 2},
		{Player: "A", Elapsed: 20 * time.Second, Sips: 4},
	}, report.Rows, "rows follow turn order")
	assert.Equal(t, game.TurnOpen, snap.Stats["B"].Turn)
	assert.Equal(t, 5*time.Second, snap.Stats["B"].PlayerTime)
	assert.Equal(t, time.Minute, report.Duration)
}
