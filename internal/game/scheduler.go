// internal/game/scheduler.go
package game

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler arms at most one deadline timer per lobby. Scheduling replaces
// any live timer for that lobby; Cancel disarms it. Callbacks fire on their
// own goroutine and must re-validate lobby phase before acting, because
// player actions race with deadlines.
type Scheduler interface {
	Schedule(lobbyID string, d time.Duration, fn func())
	Cancel(lobbyID string)
}

type activeTimer struct {
	gen   uint64
	timer *time.Timer
}

// TimerScheduler implements Scheduler with one time.AfterFunc per lobby. A
// per-schedule generation token keeps a timer that already fired — but lost
// the race to a replacement or cancel — from running its callback.
type TimerScheduler struct {
	mu     sync.Mutex
	gen    uint64
	timers map[string]*activeTimer
	logger *logrus.Logger
}

func NewTimerScheduler(logger *logrus.Logger) *TimerScheduler {
	return &TimerScheduler{
		timers: map[string]*activeTimer{},
		logger: logger,
	}
}

func (s *TimerScheduler) Schedule(lobbyID string, d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.timers[lobbyID]; ok {
		cur.timer.Stop()
	}
	s.gen++
	gen := s.gen

	at := &activeTimer{gen: gen}
	at.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.timers[lobbyID]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			s.logger.WithField("lobby_id", lobbyID).Debug("stale timer fired, ignoring")
			return
		}
		delete(s.timers, lobbyID)
		s.mu.Unlock()
		fn()
	})
	s.timers[lobbyID] = at
}

func (s *TimerScheduler) Cancel(lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.timers[lobbyID]; ok {
		cur.timer.Stop()
		delete(s.timers, lobbyID)
	}
}

// Stop cancels every live timer. Used on shutdown.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.timers {
		cur.timer.Stop()
		delete(s.timers, id)
	}
}
