// Package stats persists per-player win/loss history for finished sessions.
// Recording is idempotent: the key is (lobby, player), and replays are
// dropped, so the engine may safely retry after partial failures.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// HistoryEntry is one finished game from a player's perspective.
type HistoryEntry struct {
	LobbyID    string    `json:"lobbyId"`
	Category   string    `json:"category"`
	Won        bool      `json:"won"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Recorder persists one player's result for one finished lobby.
type Recorder interface {
	Record(ctx context.Context, lobbyID, playerID string, result models.GameResult) error
	History(ctx context.Context, playerID string) ([]HistoryEntry, error)
}

// MemoryRecorder keeps results in a map. Used in tests and when no database
// is configured.
type MemoryRecorder struct {
	mu      sync.Mutex
	results map[string]entry
}

type entry struct {
	playerID   string
	lobbyID    string
	result     models.GameResult
	recordedAt time.Time
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{results: map[string]entry{}}
}

func (r *MemoryRecorder) Record(ctx context.Context, lobbyID, playerID string, result models.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := lobbyID + ":" + playerID
	if _, exists := r.results[key]; exists {
		return nil
	}
	r.results[key] = entry{
		playerID:   playerID,
		lobbyID:    lobbyID,
		result:     result,
		recordedAt: time.Now().UTC(),
	}
	return nil
}

func (r *MemoryRecorder) History(ctx context.Context, playerID string) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []HistoryEntry
	for _, e := range r.results {
		if e.playerID != playerID {
			continue
		}
		out = append(out, HistoryEntry{
			LobbyID:    e.lobbyID,
			Category:   e.result.Category,
			Won:        e.result.Won,
			Score:      e.result.Score,
			RecordedAt: e.recordedAt,
		})
	}
	return out, nil
}

// Count reports how many results were recorded. Test helper.
func (r *MemoryRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}
