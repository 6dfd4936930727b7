package server

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/partydeck/internal/game"
	"github.com/lox/partydeck/internal/statistics"
)

// Phase is the setup or play step a chat is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLanguage
	PhasePlayers
	PhaseDecks
	PhasePlaying
	PhaseFinished
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseLanguage:
		return "language"
	case PhasePlayers:
		return "players"
	case PhaseDecks:
		return "decks"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "idle"
	}
}

// ChatSession is the per-chat state: the setup choices made so far and the
// engine once a game is running. Fields are guarded by mu, which the
// Dispatcher holds for the whole of one event.
type ChatSession struct {
	mu sync.Mutex

	chatID     int64
	locale     string
	phase      Phase
	players    []string
	selected   []string
	engine     *game.Engine
	lastReport *statistics.Report
	touched    time.Time
}

func (cs *ChatSession) isSelected(name string) bool {
	for _, s := range cs.selected {
		if s == name {
			return true
		}
	}
	return false
}

func (cs *ChatSession) toggle(name string) {
	for i, s := range cs.selected {
		if s == name {
			cs.selected = append(cs.selected[:i], cs.selected[i+1:]...)
			return
		}
	}
	cs.selected = append(cs.selected, name)
}

// SessionSummary is a lightweight view of a chat for listings.
type SessionSummary struct {
	ChatID  int64     `json:"chat_id"`
	Locale  string    `json:"locale"`
	Phase   string    `json:"phase"`
	Players []string  `json:"players"`
	Touched time.Time `json:"touched"`
}

// SessionManager is the registry of chat sessions keyed by chat ID.
type SessionManager struct {
	logger   zerolog.Logger
	mu       sync.RWMutex
	sessions map[int64]*ChatSession
}

// NewSessionManager constructs an empty registry.
func NewSessionManager(logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		logger:   logger.With().Str("component", "sessions").Logger(),
		sessions: make(map[int64]*ChatSession),
	}
}

// GetOrCreate returns the session for chatID, creating an idle one if needed.
func (sm *SessionManager) GetOrCreate(chatID int64) *ChatSession {
	sm.mu.RLock()
	cs, ok := sm.sessions[chatID]
	sm.mu.RUnlock()
	if ok {
		return cs
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if cs, ok := sm.sessions[chatID]; ok {
		return cs
	}
	cs = &ChatSession{chatID: chatID}
	sm.sessions[chatID] = cs
	sm.logger.Debug().Int64("chat_id", chatID).Msg("Chat session created")
	return cs
}

// Get returns the session for chatID if one exists.
func (sm *SessionManager) Get(chatID int64) (*ChatSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	cs, ok := sm.sessions[chatID]
	return cs, ok
}

// lock returns the registered session for chatID with its mutex held. If
// Prune drops the session between lookup and locking, the stale one is
// released and the lookup retried, so events never land on an orphan.
func (sm *SessionManager) lock(chatID int64) *ChatSession {
	for {
		cs := sm.GetOrCreate(chatID)
		cs.mu.Lock()

		sm.mu.RLock()
		registered := sm.sessions[chatID] == cs
		sm.mu.RUnlock()
		if registered {
			return cs
		}
		cs.mu.Unlock()
		sm.logger.Debug().Int64("chat_id", chatID).Msg("Chat session pruned while waiting, retrying")
	}
}

// Count returns the number of tracked chats.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// List returns summaries of all chats ordered by chat ID.
func (sm *SessionManager) List() []SessionSummary {
	sm.mu.RLock()
	sessions := make([]*ChatSession, 0, len(sm.sessions))
	for _, cs := range sm.sessions {
		sessions = append(sessions, cs)
	}
	sm.mu.RUnlock()

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, cs := range sessions {
		cs.mu.Lock()
		summaries = append(summaries, SessionSummary{
			ChatID:  cs.chatID,
			Locale:  cs.locale,
			Phase:   cs.phase.String(),
			Players: append([]string(nil), cs.players...),
			Touched: cs.touched,
		})
		cs.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ChatID < summaries[j].ChatID })
	return summaries
}

// Prune drops chats with no activity since cutoff that are not mid-game and
// returns how many were removed.
func (sm *SessionManager) Prune(cutoff time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, cs := range sm.sessions {
		if !cs.mu.TryLock() {
			continue
		}
		stale := cs.phase != PhasePlaying && cs.touched.Before(cutoff)
		cs.mu.Unlock()
		if stale {
			delete(sm.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		sm.logger.Info().Int("removed", removed).Int("remaining", len(sm.sessions)).Msg("Pruned idle chat sessions")
	}
	return removed
}
