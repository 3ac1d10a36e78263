// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// MemoryStore keeps lobby documents in a mutex-guarded map. It is the
// fallback backend and the store of choice for tests. The store owns its own
// lifecycle: construct with NewMemoryStore, discard when done — there is no
// process-wide instance.
type MemoryStore struct {
	mu      sync.Mutex
	lobbies map[string]*models.Lobby
	n       *notifier
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[string]*models.Lobby),
		n:       newNotifier(),
	}
}

func (s *MemoryStore) Get(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lob, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, ErrNotFound
	}
	return lob.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	if _, exists := s.lobbies[lobby.ID]; exists {
		s.mu.Unlock()
		return ErrConflict
	}
	stored := lobby.Clone()
	s.lobbies[lobby.ID] = stored
	s.mu.Unlock()

	s.n.notify(stored)
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedVersion int64, lobby *models.Lobby) error {
	s.mu.Lock()
	cur, ok := s.lobbies[lobbyID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		s.mu.Unlock()
		return ErrConflict
	}
	stored := lobby.Clone()
	stored.Version = expectedVersion + 1
	s.lobbies[lobbyID] = stored
	s.mu.Unlock()

	lobby.Version = stored.Version
	s.n.notify(stored)
	return nil
}

func (s *MemoryStore) Subscribe(lobbyID string, fn func(*models.Lobby)) func() {
	return s.n.subscribe(lobbyID, fn)
}

func (s *MemoryStore) ListAvailable(ctx context.Context, category string) ([]*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Lobby
	for _, lob := range s.lobbies {
		if lob.Status != models.StatusWaitingForPlayers {
			continue
		}
		if category != "" && lob.Category != category {
			continue
		}
		out = append(out, lob.Clone())
	}
	return out, nil
}

// Put blindly installs a document, keeping its version. The failover store
// uses it to seed this fallback with the last known copy of a session whose
// primary backend went away.
func (s *MemoryStore) Put(lobby *models.Lobby) {
	s.mu.Lock()
	s.lobbies[lobby.ID] = lobby.Clone()
	s.mu.Unlock()
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
