// Package store provides durable keyed storage for lobby documents: one
// document per session, atomic read-modify-write via compare-and-swap, and a
// pluggable backend (remote document store or in-process fallback map).
package store

import (
	"context"
	"errors"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

var (
	// ErrNotFound means no lobby document exists under the given id.
	ErrNotFound = errors.New("lobby not found")
	// ErrConflict means the expected version no longer matches; the caller
	// lost a read-modify-write race and must re-read before retrying.
	ErrConflict = errors.New("version conflict")
	// ErrUnavailable means the backend could not be reached. The failover
	// store treats this as the signal to degrade a session to the fallback.
	ErrUnavailable = errors.New("store backend unavailable")
)

// Store is the persistence contract for lobby documents.
type Store interface {
	// Get returns a copy of the lobby, or ErrNotFound.
	Get(ctx context.Context, lobbyID string) (*models.Lobby, error)

	// Create inserts a new lobby document. ErrConflict if the id is taken.
	Create(ctx context.Context, lobby *models.Lobby) error

	// CompareAndSwap replaces the document only if its stored version still
	// equals expectedVersion, bumping the version on success. ErrConflict
	// otherwise. Subscribers observe the new document after a successful swap.
	CompareAndSwap(ctx context.Context, lobbyID string, expectedVersion int64, lobby *models.Lobby) error

	// Subscribe registers a change callback for one lobby. The returned
	// function removes the subscription.
	Subscribe(lobbyID string, fn func(*models.Lobby)) (unsubscribe func())

	Close(ctx context.Context) error
}

// Lister is implemented by backends that can enumerate joinable lobbies.
// It is a read-side extra used by the HTTP lobby-browsing endpoints and is
// deliberately not part of the core Store contract.
type Lister interface {
	ListAvailable(ctx context.Context, category string) ([]*models.Lobby, error)
}
