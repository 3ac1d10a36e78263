// internal/store/failover.go
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// FailoverStore fronts a remote primary with an in-process fallback. A
// session degrades to the fallback the first time the primary reports
// ErrUnavailable for it, and never upgrades back: once a lobby is served from
// memory, mixing in stale remote state would corrupt the version sequence.
//
// A nil primary (capability probe failed at startup) means every session runs
// on the fallback from the start.
type FailoverStore struct {
	primary  Store
	fallback *MemoryStore
	logger   *logrus.Logger

	mu       sync.Mutex
	degraded map[string]bool
}

func NewFailoverStore(primary Store, fallback *MemoryStore, logger *logrus.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		degraded: map[string]bool{},
	}
}

func (s *FailoverStore) isDegraded(lobbyID string) bool {
	if s.primary == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded[lobbyID]
}

// degrade marks the session and seeds the fallback with the last known copy,
// so in-flight state survives the backend loss. lastKnown may be nil.
func (s *FailoverStore) degrade(lobbyID string, lastKnown *models.Lobby) {
	s.mu.Lock()
	already := s.degraded[lobbyID]
	s.degraded[lobbyID] = true
	s.mu.Unlock()

	if already {
		return
	}
	s.logger.WithField("lobby_id", lobbyID).Warn("primary store unavailable, session degraded to in-memory fallback")
	if lastKnown != nil {
		if _, err := s.fallback.Get(context.Background(), lobbyID); errors.Is(err, ErrNotFound) {
			s.fallback.Put(lastKnown)
		}
	}
}

func (s *FailoverStore) Get(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	if s.isDegraded(lobbyID) {
		return s.fallback.Get(ctx, lobbyID)
	}
	lob, err := s.primary.Get(ctx, lobbyID)
	if errors.Is(err, ErrUnavailable) {
		s.degrade(lobbyID, nil)
		return s.fallback.Get(ctx, lobbyID)
	}
	return lob, err
}

func (s *FailoverStore) Create(ctx context.Context, lobby *models.Lobby) error {
	if s.isDegraded(lobby.ID) {
		return s.fallback.Create(ctx, lobby)
	}
	err := s.primary.Create(ctx, lobby)
	if errors.Is(err, ErrUnavailable) {
		s.degrade(lobby.ID, nil)
		return s.fallback.Create(ctx, lobby)
	}
	return err
}

func (s *FailoverStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedVersion int64, lobby *models.Lobby) error {
	if s.isDegraded(lobbyID) {
		return s.fallback.CompareAndSwap(ctx, lobbyID, expectedVersion, lobby)
	}
	err := s.primary.CompareAndSwap(ctx, lobbyID, expectedVersion, lobby)
	if errors.Is(err, ErrUnavailable) {
		// Seed with the caller's pre-swap view so the swap can be retried
		// against the fallback at the same version.
		seed := lobby.Clone()
		seed.Version = expectedVersion
		s.degrade(lobbyID, seed)
		return s.fallback.CompareAndSwap(ctx, lobbyID, expectedVersion, lobby)
	}
	return err
}

func (s *FailoverStore) Subscribe(lobbyID string, fn func(*models.Lobby)) func() {
	// Both backends notify in-process; subscribe to whichever may produce
	// writes for this session over its lifetime.
	unsubFallback := s.fallback.Subscribe(lobbyID, fn)
	if s.primary == nil {
		return unsubFallback
	}
	unsubPrimary := s.primary.Subscribe(lobbyID, fn)
	return func() {
		unsubPrimary()
		unsubFallback()
	}
}

func (s *FailoverStore) ListAvailable(ctx context.Context, category string) ([]*models.Lobby, error) {
	if s.primary != nil {
		if lister, ok := s.primary.(Lister); ok {
			lobbies, err := lister.ListAvailable(ctx, category)
			if err == nil {
				return lobbies, nil
			}
			s.logger.WithError(err).Warn("primary store list failed, listing fallback only")
		}
	}
	return s.fallback.ListAvailable(ctx, category)
}

func (s *FailoverStore) Close(ctx context.Context) error {
	if s.primary != nil {
		if err := s.primary.Close(ctx); err != nil {
			return err
		}
	}
	return s.fallback.Close(ctx)
}
