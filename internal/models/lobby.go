// internal/models/lobby.go
package models

import (
	"sort"
	"time"
)

// LobbyStatus tracks the lobby document lifecycle.
type LobbyStatus string

const (
	StatusWaitingForPlayers LobbyStatus = "waiting_for_players"
	StatusInProgress        LobbyStatus = "in_progress"
	StatusCompleted         LobbyStatus = "completed"
)

// Lobby is the root aggregate for one game session: one document per session,
// persisted as a whole and replaced via compare-and-swap on Version.
type Lobby struct {
	ID       string      `json:"id" bson:"_id"`
	Category string      `json:"category" bson:"category"`
	HostID   string      `json:"hostId,omitempty" bson:"host_id,omitempty"`
	Status   LobbyStatus `json:"status" bson:"status"`

	Players   map[string]*Player `json:"players" bson:"players"`
	GameState *GameState         `json:"gameState" bson:"game_state"`

	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	LastActivity time.Time `json:"lastActivity" bson:"last_activity"`

	// Version is bumped by the store on every successful swap.
	Version int64 `json:"version" bson:"version"`
}

// NewLobby creates a fresh session in the waiting state.
func NewLobby(code, category string, bestOf int) *Lobby {
	now := time.Now().UTC()
	return &Lobby{
		ID:           code,
		Category:     category,
		Status:       StatusWaitingForPlayers,
		Players:      map[string]*Player{},
		GameState:    NewGameState(bestOf),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// PlayersInJoinOrder returns players sorted by join time, ties broken by id.
// The first entry is the default lister when bidding times out with no bids.
func (l *Lobby) PlayersInJoinOrder() []*Player {
	out := make([]*Player, 0, len(l.Players))
	for _, p := range l.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// Opponent returns the other player in a two-player lobby, if present.
func (l *Lobby) Opponent(playerID string) (*Player, bool) {
	for id, p := range l.Players {
		if id != playerID {
			return p, true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can mutate freely before swapping.
func (l *Lobby) Clone() *Lobby {
	cp := *l
	cp.Players = make(map[string]*Player, len(l.Players))
	for id, p := range l.Players {
		pc := *p
		cp.Players[id] = &pc
	}
	cp.GameState = l.GameState.Clone()
	return &cp
}
