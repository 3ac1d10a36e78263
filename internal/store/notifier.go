package store

import (
	"sync"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// notifier fans successful writes out to per-lobby subscribers. Each
// subscriber drains a private FIFO on its own goroutine, so a slow observer
// never blocks a write path and snapshots arrive in version order.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]*subscription
}

// subscription is one callback with its pending snapshots. nextVersion makes
// delivery monotonic: a snapshot older than one already queued is dropped,
// which is safe because every snapshot carries the full document.
type subscription struct {
	fn func(*models.Lobby)

	mu          sync.Mutex
	queue       []*models.Lobby
	nextVersion int64
	draining    bool
	closed      bool
}

func (s *subscription) enqueue(lob *models.Lobby) {
	s.mu.Lock()
	if s.closed || lob.Version < s.nextVersion {
		s.mu.Unlock()
		return
	}
	s.nextVersion = lob.Version + 1
	s.queue = append(s.queue, lob)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	go s.drain()
}

func (s *subscription) drain() {
	for {
		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		lob := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.fn(lob)
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
}

func newNotifier() *notifier {
	return &notifier{subs: map[string]map[int]*subscription{}}
}

func (n *notifier) subscribe(lobbyID string, fn func(*models.Lobby)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	sub := &subscription{fn: fn}
	if n.subs[lobbyID] == nil {
		n.subs[lobbyID] = map[int]*subscription{}
	}
	n.subs[lobbyID][id] = sub
	return func() {
		n.mu.Lock()
		delete(n.subs[lobbyID], id)
		if len(n.subs[lobbyID]) == 0 {
			delete(n.subs, lobbyID)
		}
		n.mu.Unlock()
		sub.close()
	}
}

func (n *notifier) notify(lobby *models.Lobby) {
	n.mu.Lock()
	subs := make([]*subscription, 0, len(n.subs[lobby.ID]))
	for _, sub := range n.subs[lobby.ID] {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(lobby.Clone())
	}
}
