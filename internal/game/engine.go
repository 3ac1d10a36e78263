// internal/game/engine.go
//
// The authoritative session state machine. Every player action and every
// phase timeout funnels through Engine.update, a read-validate-mutate-swap
// loop against the Store, so all mutation for one lobby serializes on the
// document version. Actions racing a timeout are resolved by compare-and-swap:
// the loser re-reads and re-validates, and a timeout that finds its phase
// already gone is dropped.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/store"
)

// CategoryValidator decides whether text belongs to a category. It may be
// slow or unreliable upstream; implementations degrade to a curated fallback
// rather than failing the call.
type CategoryValidator interface {
	Validate(ctx context.Context, category, text string) (bool, error)
}

// StatsRecorder persists a finished player's game result. Must be idempotent
// per (lobby, player).
type StatsRecorder interface {
	Record(ctx context.Context, lobbyID, playerID string, result models.GameResult) error
}

// Timings holds the phase deadlines.
type Timings struct {
	Bidding    time.Duration
	PassWindow time.Duration
	Listing    time.Duration
	Summary    time.Duration
	// ShotClock caps how long bidding stays open after an accepted raise.
	ShotClock time.Duration
}

// DefaultTimings returns the shipped phase durations.
func DefaultTimings() Timings {
	return Timings{
		Bidding:    30 * time.Second,
		PassWindow: 15 * time.Second,
		Listing:    30 * time.Second,
		Summary:    3 * time.Second,
		ShotClock:  5 * time.Second,
	}
}

const (
	casAttempts = 4
	// statsRetryDelay spaces out finalize retries after a recorder failure.
	statsRetryDelay = 5 * time.Second
)

// Engine validates and applies player actions, decides phase transitions,
// and drives the scheduler, store, and stats recorder.
type Engine struct {
	store     store.Store
	sched     Scheduler
	validator CategoryValidator
	stats     StatsRecorder
	logger    *logrus.Logger

	// Timings and WinTarget may be adjusted before the engine serves traffic.
	// WinTarget is the score that ends the match; the shipped rule is 1, so a
	// match ends after a single round regardless of BestOf.
	Timings       Timings
	WinTarget     int
	DefaultBestOf int

	// armMu/armedAt order timer arming by document version, so a goroutine
	// finishing an older swap cannot replace a newer phase's timer.
	armMu   sync.Mutex
	armedAt map[string]int64
}

func NewEngine(st store.Store, sched Scheduler, validator CategoryValidator, stats StatsRecorder, logger *logrus.Logger) *Engine {
	return &Engine{
		store:         st,
		sched:         sched,
		validator:     validator,
		stats:         stats,
		logger:        logger,
		Timings:       DefaultTimings(),
		WinTarget:     1,
		DefaultBestOf: 5,
		armedAt:       map[string]int64{},
	}
}

const lobbyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateLobbyCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = lobbyCodeAlphabet[rand.Intn(len(lobbyCodeAlphabet))]
	}
	return string(b)
}

// CreateLobby allocates a session with a fresh shareable code.
func (e *Engine) CreateLobby(ctx context.Context, category string, bestOf int) (*models.Lobby, error) {
	if bestOf < 1 {
		bestOf = e.DefaultBestOf
	}
	for attempt := 0; attempt < 5; attempt++ {
		lob := models.NewLobby(generateLobbyCode(), category, bestOf)
		err := e.store.Create(ctx, lob)
		if err == nil {
			e.logger.WithFields(logrus.Fields{"lobby_id": lob.ID, "category": category}).Info("lobby created")
			return lob, nil
		}
		if errors.Is(err, store.ErrConflict) {
			continue // code collision, roll again
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil, fmt.Errorf("%w: could not allocate a unique lobby code", ErrBackendUnavailable)
}

// Join adds a player to a waiting lobby, or reconnects a known player. The
// first joiner becomes the host.
func (e *Engine) Join(ctx context.Context, lobbyID, playerID, name string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		if p, ok := lob.Players[playerID]; ok {
			p.Connected = true
			if name != "" {
				p.Name = name
			}
			return nil
		}
		if lob.Status == models.StatusCompleted || lob.GameState.Phase != models.PhaseLobby {
			return ErrWrongPhase
		}
		if len(lob.Players) >= 2 {
			return ErrLobbyFull
		}
		lob.Players[playerID] = &models.Player{
			ID:        playerID,
			Name:      name,
			Connected: true,
			JoinedAt:  time.Now().UTC(),
		}
		if lob.HostID == "" {
			lob.HostID = playerID
		}
		return nil
	})
}

// SetReady flips a player's lobby-phase ready flag. Informational for
// clients; StartGame does not gate on it.
func (e *Engine) SetReady(ctx context.Context, lobbyID, playerID string, ready bool) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		p, ok := lob.Players[playerID]
		if !ok {
			return ErrNotAuthorized
		}
		if lob.GameState.Phase != models.PhaseLobby {
			return ErrWrongPhase
		}
		if p.Ready == ready {
			return errNoop
		}
		p.Ready = ready
		return nil
	})
}

// StartGame moves LOBBY -> BIDDING. Host only, two players required.
func (e *Engine) StartGame(ctx context.Context, lobbyID, playerID string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != models.PhaseLobby {
			return ErrWrongPhase
		}
		if playerID != lob.HostID {
			return ErrNotAuthorized
		}
		if len(lob.Players) < 2 {
			return ErrInsufficientPlayers
		}
		lob.Status = models.StatusInProgress
		for id := range lob.Players {
			gs.Scores[id] = 0
		}
		gs.Round = 1
		e.beginBidding(lob)
		return nil
	})
}

// PlaceBid applies a raise during BIDDING, or answers a pass opportunity with
// a bid, reopening bidding.
func (e *Engine) PlaceBid(ctx context.Context, lobbyID, playerID string, amount int) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if _, ok := lob.Players[playerID]; !ok {
			return ErrNotAuthorized
		}
		switch gs.Phase {
		case models.PhaseBidding:
		case models.PhasePassOpportunity:
			if gs.PassOpportunity != nil && gs.PassOpportunity.FirstPlayerPassed == playerID {
				return ErrNotAuthorized
			}
			e.reopenBidding(lob)
		default:
			return ErrWrongPhase
		}
		return e.applyBid(lob, playerID, amount)
	})
}

// applyBid validates amount against the monotonic-raise rule and records it.
// If every player has now decided, bidding ends early.
func (e *Engine) applyBid(lob *models.Lobby, playerID string, amount int) error {
	gs := lob.GameState
	if amount < 1 {
		return ErrInvalidBid
	}
	if gs.CurrentBid > 0 && amount <= gs.CurrentBid {
		return ErrInvalidBid
	}
	if gs.Bids == nil {
		gs.Bids = map[string]int{}
	}
	gs.Bids[playerID] = amount
	gs.CurrentBid = amount
	gs.HighBidderID = playerID

	// Shot clock: an accepted raise pulls the deadline in, never out.
	shot := time.Now().Add(e.Timings.ShotClock).UTC().Truncate(time.Millisecond)
	if gs.PhaseEndsAt == nil || shot.Before(*gs.PhaseEndsAt) {
		gs.PhaseEndsAt = &shot
	}

	if len(gs.Bids) >= len(lob.Players) && len(lob.Players) >= 2 {
		e.toListing(lob, gs.HighBidderID, gs.CurrentBid)
	}
	return nil
}

// Pass declines to raise. With a standing bid it ends bidding; with none it
// opens the pass-opportunity window for the other player.
func (e *Engine) Pass(ctx context.Context, lobbyID, playerID string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if _, ok := lob.Players[playerID]; !ok {
			return ErrNotAuthorized
		}
		switch gs.Phase {
		case models.PhaseBidding:
			if gs.CurrentBid > 0 {
				e.toListing(lob, gs.HighBidderID, gs.CurrentBid)
				return nil
			}
			if gs.Bids == nil {
				gs.Bids = map[string]int{}
			}
			gs.Bids[playerID] = 0
			gs.Phase = models.PhasePassOpportunity
			gs.PassOpportunity = &models.PassOpportunity{FirstPlayerPassed: playerID}
			gs.PhaseEndsAt = e.deadlineIn(e.Timings.PassWindow)
			return nil
		case models.PhasePassOpportunity:
			if gs.PassOpportunity != nil && gs.PassOpportunity.FirstPlayerPassed == playerID {
				return errNoop // duplicate pass from the same player
			}
			e.toNoContest(lob)
			return nil
		default:
			return ErrWrongPhase
		}
	})
}

// PassOpportunityChoice resolves the window after a first pass: the second
// player either also passes (no contest) or bids, reopening bidding. A bid
// amount may ride along with the choice.
func (e *Engine) PassOpportunityChoice(ctx context.Context, lobbyID, playerID, choice string, amount int) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != models.PhasePassOpportunity {
			return ErrWrongPhase
		}
		if _, ok := lob.Players[playerID]; !ok {
			return ErrNotAuthorized
		}
		if gs.PassOpportunity != nil && gs.PassOpportunity.FirstPlayerPassed == playerID {
			return ErrNotAuthorized
		}
		switch choice {
		case "pass":
			e.toNoContest(lob)
			return nil
		case "bid":
			e.reopenBidding(lob)
			if amount > 0 {
				return e.applyBid(lob, playerID, amount)
			}
			return nil
		default:
			return ErrInvalidChoice
		}
	})
}

// NoContestChoice resolves the reduced single-item offer: "play" starts a
// one-item listing round for the volunteer, "skip" ends the session with no
// score change.
func (e *Engine) NoContestChoice(ctx context.Context, lobbyID, playerID, choice string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != models.PhaseNoContest {
			return ErrWrongPhase
		}
		if _, ok := lob.Players[playerID]; !ok {
			return ErrNotAuthorized
		}
		switch choice {
		case "play":
			gs.NoContest = nil
			e.toListing(lob, playerID, 1)
			return nil
		case "skip":
			e.endWithoutContest(lob)
			return nil
		default:
			return ErrInvalidChoice
		}
	})
}

// ContinueMatch lets the host advance out of SUMMARY into the next round
// without waiting for the deadline.
func (e *Engine) ContinueMatch(ctx context.Context, lobbyID, playerID string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != models.PhaseSummary {
			return ErrWrongPhase
		}
		if playerID != lob.HostID {
			return ErrNotAuthorized
		}
		if e.matchDecided(lob) {
			e.endMatch(lob)
			return nil
		}
		gs.Round++
		e.beginBidding(lob)
		return nil
	})
}

// SubmitItem handles a lister submission. Validity is decided up front (the
// validator may hit slow upstreams), then the mutation re-checks phase and
// duplicates under compare-and-swap.
func (e *Engine) SubmitItem(ctx context.Context, lobbyID, playerID, text string) (*models.Lobby, error) {
	norm := Normalize(text)
	if norm == "" {
		return nil, ErrEmptyItem
	}

	lob, err := e.store.Get(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLobbyNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if lob.GameState.Phase != models.PhaseListing {
		return nil, ErrWrongPhase
	}
	if lob.GameState.ListerID != playerID {
		return nil, ErrNotAuthorized
	}
	if lob.GameState.HasItem(norm) {
		return nil, ErrDuplicateItem
	}

	isValid, err := e.validator.Validate(ctx, lob.Category, norm)
	if err != nil {
		// Upstream and fallback both failed; treat as a miss, not a fault.
		e.logger.WithError(err).WithFields(logrus.Fields{
			"lobby_id": lobbyID,
			"category": lob.Category,
		}).Warn("category validation failed, counting item as invalid")
		isValid = false
	}

	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != models.PhaseListing {
			return ErrWrongPhase
		}
		if gs.ListerID != playerID {
			return ErrNotAuthorized
		}
		if gs.HasItem(norm) {
			return ErrDuplicateItem
		}
		gs.SubmittedItems = append(gs.SubmittedItems, models.SubmittedItem{
			Text:      norm,
			IsValid:   isValid,
			Timestamp: time.Now().UTC(),
		})
		if isValid && gs.ValidCount() >= gs.TargetCount {
			e.completeRound(lob)
		}
		return nil
	})
}

// Leave processes a disconnect or explicit leave. Mid-game, the remaining
// player is awarded the win; the terminal transition happens at most once.
func (e *Engine) Leave(ctx context.Context, lobbyID, playerID string) (*models.Lobby, error) {
	return e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		p, ok := lob.Players[playerID]
		if !ok {
			return errNoop
		}
		gs := lob.GameState
		if lob.Status != models.StatusInProgress || gs.Phase == models.PhaseEnded {
			if !p.Connected {
				return errNoop
			}
			p.Connected = false
			return nil
		}
		if gs.ProcessedForLeave {
			if !p.Connected {
				return errNoop
			}
			p.Connected = false
			return nil
		}
		p.Connected = false
		gs.ProcessedForLeave = true
		gs.Phase = models.PhaseEnded
		gs.PhaseEndsAt = nil
		gs.Bids = nil
		gs.PassOpportunity = nil
		gs.NoContest = nil
		if opp, found := lob.Opponent(playerID); found {
			gs.WinnerID = opp.ID
			gs.LoserID = playerID
		}
		e.logger.WithFields(logrus.Fields{"lobby_id": lobbyID, "player_id": playerID}).Info("player left, session ended")
		return nil
	})
}

// HandleTimeout is the scheduler callback for a phase deadline. It re-reads
// the lobby and applies the timeout transition only if the phase and deadline
// it was armed for are still current; otherwise it is a silent no-op.
func (e *Engine) HandleTimeout(lobbyID string, phase models.Phase, deadline time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := e.update(ctx, lobbyID, func(lob *models.Lobby) error {
		gs := lob.GameState
		if gs.Phase != phase {
			return errStale
		}
		if gs.PhaseEndsAt == nil || !gs.PhaseEndsAt.Equal(deadline) {
			return errStale
		}
		switch phase {
		case models.PhaseBidding:
			if gs.CurrentBid == 0 {
				players := lob.PlayersInJoinOrder()
				if len(players) == 0 {
					return errStale
				}
				e.toListing(lob, players[0].ID, 1)
			} else {
				e.toListing(lob, gs.HighBidderID, gs.CurrentBid)
			}
		case models.PhasePassOpportunity:
			e.toNoContest(lob)
		case models.PhaseNoContest:
			e.endWithoutContest(lob)
		case models.PhaseListing:
			e.completeRound(lob)
		case models.PhaseSummary:
			if e.matchDecided(lob) {
				e.endMatch(lob)
			} else {
				gs.Round++
				e.beginBidding(lob)
			}
		default:
			return errStale
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errStale) || errors.Is(err, ErrLobbyNotFound) {
			e.logger.WithFields(logrus.Fields{"lobby_id": lobbyID, "phase": phase}).Debug("stale timeout dropped")
			return
		}
		e.logger.WithError(err).WithField("lobby_id", lobbyID).Warn("timeout transition failed")
	}
}

// --- transitions (all assume the caller holds the document inside update) ---

func (e *Engine) beginBidding(lob *models.Lobby) {
	gs := lob.GameState
	gs.Phase = models.PhaseBidding
	gs.Bids = map[string]int{}
	gs.CurrentBid = 0
	gs.HighBidderID = ""
	gs.ListerID = ""
	gs.TargetCount = 0
	gs.SubmittedItems = []models.SubmittedItem{}
	gs.PassOpportunity = nil
	gs.NoContest = nil
	gs.PhaseEndsAt = e.deadlineIn(e.Timings.Bidding)
}

// reopenBidding returns from the pass-opportunity window to BIDDING with all
// prior decisions cleared, so the player who passed may still raise.
func (e *Engine) reopenBidding(lob *models.Lobby) {
	gs := lob.GameState
	gs.Phase = models.PhaseBidding
	gs.PassOpportunity = nil
	gs.Bids = map[string]int{}
	gs.PhaseEndsAt = e.deadlineIn(e.Timings.Bidding)
}

func (e *Engine) toListing(lob *models.Lobby, listerID string, target int) {
	gs := lob.GameState
	gs.Phase = models.PhaseListing
	gs.ListerID = listerID
	gs.HighBidderID = listerID
	gs.TargetCount = target
	gs.SubmittedItems = []models.SubmittedItem{}
	gs.Bids = nil
	gs.PassOpportunity = nil
	gs.NoContest = nil
	gs.PhaseEndsAt = e.deadlineIn(e.Timings.Listing)
}

func (e *Engine) toNoContest(lob *models.Lobby) {
	gs := lob.GameState
	gs.Phase = models.PhaseNoContest
	gs.PassOpportunity = nil
	gs.NoContest = &models.NoContest{OfferedAt: time.Now().UTC()}
	gs.PhaseEndsAt = e.deadlineIn(e.Timings.PassWindow)
}

// completeRound scores the finished listing phase: the lister gains a point
// on hitting the target, the opponent gains one otherwise. The match ends
// once any score reaches WinTarget, else the session rests in SUMMARY.
func (e *Engine) completeRound(lob *models.Lobby) {
	gs := lob.GameState
	listerHit := gs.ValidCount() >= gs.TargetCount
	winner := gs.ListerID
	if !listerHit {
		winner = ""
		if opp, ok := lob.Opponent(gs.ListerID); ok {
			winner = opp.ID
		}
	}
	if winner != "" {
		gs.Scores[winner]++
	}
	if e.matchDecided(lob) {
		e.endMatch(lob)
		return
	}
	gs.Phase = models.PhaseSummary
	gs.Bids = nil
	gs.PhaseEndsAt = e.deadlineIn(e.Timings.Summary)
}

func (e *Engine) matchDecided(lob *models.Lobby) bool {
	gs := lob.GameState
	for _, score := range gs.Scores {
		if score >= e.WinTarget {
			return true
		}
	}
	return gs.Round >= gs.BestOf
}

// endMatch finalizes scores and picks winner/loser by score comparison.
// A tie leaves both unset.
func (e *Engine) endMatch(lob *models.Lobby) {
	gs := lob.GameState
	gs.Phase = models.PhaseEnded
	gs.PhaseEndsAt = nil
	gs.Bids = nil
	gs.PassOpportunity = nil
	gs.NoContest = nil

	players := lob.PlayersInJoinOrder()
	if len(players) == 2 {
		a, b := players[0], players[1]
		switch {
		case gs.Scores[a.ID] > gs.Scores[b.ID]:
			gs.WinnerID, gs.LoserID = a.ID, b.ID
		case gs.Scores[b.ID] > gs.Scores[a.ID]:
			gs.WinnerID, gs.LoserID = b.ID, a.ID
		}
	}
}

// endWithoutContest terminates the session with no score change and nothing
// to record. The lobby is completed in place.
func (e *Engine) endWithoutContest(lob *models.Lobby) {
	gs := lob.GameState
	gs.Phase = models.PhaseEnded
	gs.PhaseEndsAt = nil
	gs.Bids = nil
	gs.PassOpportunity = nil
	gs.NoContest = nil
	lob.Status = models.StatusCompleted
}

// --- plumbing ---

// update runs fn against a fresh copy of the lobby and swaps it back in,
// retrying on version conflicts. Side effects (timer arm/cancel, stats)
// apply only after a successful swap.
func (e *Engine) update(ctx context.Context, lobbyID string, fn func(*models.Lobby) error) (*models.Lobby, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		lob, err := e.store.Get(ctx, lobbyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrLobbyNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if err := fn(lob); err != nil {
			if errors.Is(err, errNoop) {
				return lob, nil
			}
			return nil, err
		}
		lob.LastActivity = time.Now().UTC()

		err = e.store.CompareAndSwap(ctx, lobbyID, lob.Version, lob)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLobbyNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		e.armTimer(lob)
		e.finalizeIfEnded(ctx, lob)
		return lob, nil
	}
	return nil, fmt.Errorf("lobby %s: too contended: %w", lobbyID, store.ErrConflict)
}

// armTimer keeps the invariant that phaseEndsAt corresponds to exactly one
// live timer: each write re-arms or cancels the lobby's timer to match.
// Arming is monotonic in document version: concurrent updates for one lobby
// both swap successfully in version order, but their goroutines may reach
// this point in either order, and a stale re-arm would strand the current
// deadline with no live timer.
func (e *Engine) armTimer(lob *models.Lobby) {
	e.armMu.Lock()
	if lob.Version <= e.armedAt[lob.ID] {
		e.armMu.Unlock()
		return
	}
	e.armedAt[lob.ID] = lob.Version
	e.armMu.Unlock()

	gs := lob.GameState
	if gs.Phase == models.PhaseEnded || gs.PhaseEndsAt == nil {
		e.sched.Cancel(lob.ID)
		return
	}
	lobbyID, phase, deadline := lob.ID, gs.Phase, *gs.PhaseEndsAt
	e.sched.Schedule(lobbyID, time.Until(deadline), func() {
		e.HandleTimeout(lobbyID, phase, deadline)
	})
}

// finalizeIfEnded records per-player results once the session has ended and
// then marks the lobby completed. Recording is idempotent, so a retry after
// a partial failure is safe.
func (e *Engine) finalizeIfEnded(ctx context.Context, lob *models.Lobby) {
	gs := lob.GameState
	if gs.Phase != models.PhaseEnded || lob.Status == models.StatusCompleted {
		return
	}
	for id := range lob.Players {
		result := models.GameResult{
			Won:      id == gs.WinnerID,
			Score:    gs.Scores[id],
			Category: lob.Category,
		}
		if opp, ok := lob.Opponent(id); ok {
			result.OpponentID = opp.ID
		}
		if id == gs.ListerID {
			result.ItemsSubmitted = len(gs.SubmittedItems)
			result.ValidItems = gs.ValidCount()
		}
		if err := e.stats.Record(ctx, lob.ID, id, result); err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"lobby_id":  lob.ID,
				"player_id": id,
			}).Warn("stats recording failed, retry scheduled")
			// The lobby is ENDED, so its phase timer slot is free; borrow it
			// for the retry. Recording is idempotent, so players already
			// written are skipped on the next pass.
			e.sched.Schedule(lob.ID, statsRetryDelay, func() {
				rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				fresh, err := e.store.Get(rctx, lob.ID)
				if err != nil {
					return
				}
				e.finalizeIfEnded(rctx, fresh)
			})
			return
		}
	}

	if _, err := e.update(ctx, lob.ID, func(l *models.Lobby) error {
		if l.Status == models.StatusCompleted {
			return errNoop
		}
		l.Status = models.StatusCompleted
		return nil
	}); err != nil {
		e.logger.WithError(err).WithField("lobby_id", lob.ID).Warn("failed to mark lobby completed")
	}
}

func (e *Engine) deadlineIn(d time.Duration) *time.Time {
	t := time.Now().Add(d).UTC().Truncate(time.Millisecond)
	return &t
}

// Normalize lower-cases text and collapses internal whitespace, making item
// comparison case-insensitive.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
