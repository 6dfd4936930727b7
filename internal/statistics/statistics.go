// Package statistics builds the end-of-game report from a session snapshot.
package statistics

import (
	"errors"
	"time"

	"github.com/lox/partydeck/internal/game"
)

// ErrIncompleteSession is returned when a report is requested before the
// session has an end time.
var ErrIncompleteSession = errors.New("session has not ended")

// Row is one player's line in the report.
type Row struct {
	Player      string        `json:"player"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Sips        int           `json:"sips"`
	Answered    int           `json:"answered"`
	Regenerated int           `json:"regenerated"`
}

// Report is the final summary of a session. Rows follow turn order.
type Report struct {
	SessionID string        `json:"session_id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration_ns"`
	Rows      []Row         `json:"rows"`
}

// Build computes the report. A turn still open at snapshot time is counted up
// to TakenAt without changing the snapshot.
func Build(snap game.Snapshot) (Report, error) {
	if snap.StartedAt.IsZero() || !snap.Ended() {
		return Report{}, ErrIncompleteSession
	}

	r := Report{
		SessionID: snap.ID,
		StartedAt: snap.StartedAt,
		EndedAt:   snap.EndedAt,
		Duration:  snap.EndedAt.Sub(snap.StartedAt),
		Rows:      make([]Row, 0, len(snap.Players)),
	}
	for _, p := range snap.Players {
		st := snap.Stats[p]
		r.Rows = append(r.Rows, Row{
			Player:      p,
			Elapsed:     st.Elapsed(snap.TakenAt),
			Sips:        st.Sips,
			Answered:    st.Answered,
			Regenerated: st.Regenerated,
		})
	}
	return r, nil
}
