// internal/game/engine_test.go
package game

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/stats"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/store"
)

// manualScheduler records arms and cancels, and only fires when the test says
// so. The stored deadline lets tests replay stale callbacks.
type manualScheduler struct {
	mu        sync.Mutex
	scheduled map[string]func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{scheduled: map[string]func(){}}
}

func (s *manualScheduler) Schedule(lobbyID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[lobbyID] = fn
}

func (s *manualScheduler) Cancel(lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scheduled, lobbyID)
}

func (s *manualScheduler) fire(lobbyID string) bool {
	s.mu.Lock()
	fn, ok := s.scheduled[lobbyID]
	delete(s.scheduled, lobbyID)
	s.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

func (s *manualScheduler) armed(lobbyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scheduled[lobbyID]
	return ok
}

// setValidator answers membership from a fixed set of normalized items.
type setValidator struct {
	items map[string]bool
}

func (v *setValidator) Validate(ctx context.Context, category, text string) (bool, error) {
	return v.items[Normalize(text)], nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fruitsValidator() *setValidator {
	return &setValidator{items: map[string]bool{
		"apple": true, "banana": true, "mango": true, "kiwi": true, "pear": true,
	}}
}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *manualScheduler, *stats.MemoryRecorder) {
	t.Helper()
	st := store.NewMemoryStore()
	sched := newManualScheduler()
	recorder := stats.NewMemoryRecorder()
	e := NewEngine(st, sched, fruitsValidator(), recorder, testLogger())
	return e, st, sched, recorder
}

// startedLobby creates a lobby with players a and b and moves it into BIDDING.
func startedLobby(t *testing.T, e *Engine) string {
	t.Helper()
	ctx := context.Background()
	lob, err := e.CreateLobby(ctx, "fruits", 5)
	require.NoError(t, err)
	_, err = e.Join(ctx, lob.ID, "a", "Alice")
	require.NoError(t, err)
	_, err = e.Join(ctx, lob.ID, "b", "Bob")
	require.NoError(t, err)
	_, err = e.StartGame(ctx, lob.ID, "a")
	require.NoError(t, err)
	return lob.ID
}

func TestCreateAndJoin(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	lob, err := e.CreateLobby(ctx, "fruits", 0)
	require.NoError(t, err)
	assert.Len(t, lob.ID, 6)
	assert.Equal(t, models.StatusWaitingForPlayers, lob.Status)
	assert.Equal(t, e.DefaultBestOf, lob.GameState.BestOf)

	lob, err = e.Join(ctx, lob.ID, "a", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "a", lob.HostID)

	lob, err = e.Join(ctx, lob.ID, "b", "Bob")
	require.NoError(t, err)
	assert.Len(t, lob.Players, 2)

	_, err = e.Join(ctx, lob.ID, "c", "Carol")
	assert.ErrorIs(t, err, ErrLobbyFull)

	// Known players reconnect even when the lobby is full.
	lob, err = e.Join(ctx, lob.ID, "a", "")
	require.NoError(t, err)
	assert.True(t, lob.Players["a"].Connected)

	_, err = e.Join(ctx, "ZZZZZZ", "x", "Nobody")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestSetReady(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	lob, err := e.CreateLobby(ctx, "fruits", 5)
	require.NoError(t, err)
	_, err = e.Join(ctx, lob.ID, "a", "Alice")
	require.NoError(t, err)

	got, err := e.SetReady(ctx, lob.ID, "a", true)
	require.NoError(t, err)
	assert.True(t, got.Players["a"].Ready)

	_, err = e.SetReady(ctx, lob.ID, "ghost", true)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = e.Join(ctx, lob.ID, "b", "Bob")
	require.NoError(t, err)
	_, err = e.StartGame(ctx, lob.ID, "a")
	require.NoError(t, err)
	_, err = e.SetReady(ctx, lob.ID, "a", false)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestStartGameChecks(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	lob, err := e.CreateLobby(ctx, "fruits", 5)
	require.NoError(t, err)
	_, err = e.Join(ctx, lob.ID, "a", "Alice")
	require.NoError(t, err)

	_, err = e.StartGame(ctx, lob.ID, "a")
	assert.ErrorIs(t, err, ErrInsufficientPlayers)

	_, err = e.Join(ctx, lob.ID, "b", "Bob")
	require.NoError(t, err)

	_, err = e.StartGame(ctx, lob.ID, "b")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	lob, err = e.StartGame(ctx, lob.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
	assert.Equal(t, models.StatusInProgress, lob.Status)
	assert.Equal(t, 1, lob.GameState.Round)
	require.NotNil(t, lob.GameState.PhaseEndsAt)

	_, err = e.StartGame(ctx, lob.ID, "a")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestBidsMustStrictlyRaise(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 0)
	assert.ErrorIs(t, err, ErrInvalidBid)

	lob, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, lob.GameState.CurrentBid)
	assert.Equal(t, "a", lob.GameState.HighBidderID)

	_, err = e.PlaceBid(ctx, id, "b", 3)
	assert.ErrorIs(t, err, ErrInvalidBid)
	_, err = e.PlaceBid(ctx, id, "b", 2)
	assert.ErrorIs(t, err, ErrInvalidBid)

	// Every player has now decided, so the raise closes bidding.
	lob, err = e.PlaceBid(ctx, id, "b", 4)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
	assert.Equal(t, "b", lob.GameState.ListerID)
	assert.Equal(t, 4, lob.GameState.TargetCount)
}

func TestBidRejectsOutsiders(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	id := startedLobby(t, e)

	_, err := e.PlaceBid(context.Background(), id, "stranger", 3)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAcceptedRaisePullsDeadlineIn(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	lob, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)
	require.NotNil(t, lob.GameState.PhaseEndsAt)
	remaining := time.Until(*lob.GameState.PhaseEndsAt)
	assert.LessOrEqual(t, remaining, e.Timings.ShotClock)
	assert.Greater(t, remaining, time.Duration(0))
}

func TestPassWithStandingBidClosesBidding(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)

	lob, err := e.Pass(ctx, id, "b")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.ListerID)
	assert.Equal(t, 3, lob.GameState.TargetCount)
}

func TestFirstPassOpensOpportunityWindow(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	lob, err := e.Pass(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.PhasePassOpportunity, lob.GameState.Phase)
	require.NotNil(t, lob.GameState.PassOpportunity)
	assert.Equal(t, "a", lob.GameState.PassOpportunity.FirstPlayerPassed)

	// A repeated pass from the same player changes nothing.
	lob, err = e.Pass(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.PhasePassOpportunity, lob.GameState.Phase)

	// The other player passing as well moves to the reduced offer.
	lob, err = e.Pass(ctx, id, "b")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseNoContest, lob.GameState.Phase)
	assert.NotNil(t, lob.GameState.NoContest)
}

func TestPassOpportunityBidReopensBidding(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.Pass(ctx, id, "a")
	require.NoError(t, err)

	_, err = e.PassOpportunityChoice(ctx, id, "a", "bid", 2)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	lob, err := e.PassOpportunityChoice(ctx, id, "b", "bid", 2)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
	assert.Equal(t, 2, lob.GameState.CurrentBid)
	assert.Nil(t, lob.GameState.PassOpportunity)

	// The earlier pass was cleared, so the original passer may raise.
	lob, err = e.PlaceBid(ctx, id, "a", 4)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.ListerID)
	assert.Equal(t, 4, lob.GameState.TargetCount)
}

func TestNoContestChoices(t *testing.T) {
	e, _, _, recorder := newTestEngine(t)
	ctx := context.Background()

	t.Run("play starts a one item round", func(t *testing.T) {
		id := startedLobby(t, e)
		_, err := e.Pass(ctx, id, "a")
		require.NoError(t, err)
		_, err = e.PassOpportunityChoice(ctx, id, "b", "pass", 0)
		require.NoError(t, err)

		lob, err := e.NoContestChoice(ctx, id, "b", "play")
		require.NoError(t, err)
		assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
		assert.Equal(t, "b", lob.GameState.ListerID)
		assert.Equal(t, 1, lob.GameState.TargetCount)
	})

	t.Run("skip ends with no score change and no stats", func(t *testing.T) {
		id := startedLobby(t, e)
		_, err := e.Pass(ctx, id, "a")
		require.NoError(t, err)
		_, err = e.Pass(ctx, id, "b")
		require.NoError(t, err)

		before := recorder.Count()
		lob, err := e.NoContestChoice(ctx, id, "a", "skip")
		require.NoError(t, err)
		assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
		assert.Equal(t, models.StatusCompleted, lob.Status)
		assert.Empty(t, lob.GameState.WinnerID)
		assert.Equal(t, before, recorder.Count())
	})

	t.Run("bogus choice is rejected", func(t *testing.T) {
		id := startedLobby(t, e)
		_, err := e.Pass(ctx, id, "a")
		require.NoError(t, err)
		_, err = e.Pass(ctx, id, "b")
		require.NoError(t, err)
		_, err = e.NoContestChoice(ctx, id, "a", "maybe")
		assert.ErrorIs(t, err, ErrInvalidChoice)
	})
}

// TestFullRoundFruits plays a session end to end: Alice bids 3, Bob declines,
// Alice lists three valid fruits past a misspelling and a duplicate, wins,
// and both results are recorded.
func TestFullRoundFruits(t *testing.T) {
	e, st, _, recorder := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)
	lob, err := e.Pass(ctx, id, "b")
	require.NoError(t, err)
	require.Equal(t, models.PhaseListing, lob.GameState.Phase)

	_, err = e.SubmitItem(ctx, id, "b", "apple")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	lob, err = e.SubmitItem(ctx, id, "a", "Apple")
	require.NoError(t, err)
	assert.Equal(t, 1, lob.GameState.ValidCount())

	// Misspelled item is accepted as a submission but counts as invalid.
	lob, err = e.SubmitItem(ctx, id, "a", "Bananna")
	require.NoError(t, err)
	assert.Equal(t, 1, lob.GameState.ValidCount())
	assert.Len(t, lob.GameState.SubmittedItems, 2)

	_, err = e.SubmitItem(ctx, id, "a", "APPLE")
	assert.ErrorIs(t, err, ErrDuplicateItem)

	_, err = e.SubmitItem(ctx, id, "a", "  ")
	assert.ErrorIs(t, err, ErrEmptyItem)

	_, err = e.SubmitItem(ctx, id, "a", "Mango")
	require.NoError(t, err)

	lob, err = e.SubmitItem(ctx, id, "a", "Kiwi")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.WinnerID)
	assert.Equal(t, "b", lob.GameState.LoserID)
	assert.Equal(t, 1, lob.GameState.Scores["a"])
	assert.Equal(t, 0, lob.GameState.Scores["b"])

	assert.Equal(t, 2, recorder.Count())
	history, err := recorder.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Won)

	final, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
}

func TestListerFallingShortScoresOpponent(t *testing.T) {
	e, _, sched, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)
	_, err = e.Pass(ctx, id, "b")
	require.NoError(t, err)
	_, err = e.SubmitItem(ctx, id, "a", "apple")
	require.NoError(t, err)

	// Listing deadline fires with only one of three items named.
	require.True(t, sched.fire(id))

	lob, err := e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
	assert.Equal(t, "b", lob.GameState.WinnerID)
	assert.Equal(t, 1, lob.GameState.Scores["b"])
}

func TestBiddingTimeoutWithNoBids(t *testing.T) {
	e, _, sched, _ := newTestEngine(t)
	id := startedLobby(t, e)

	require.True(t, sched.fire(id))

	lob, err := e.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.ListerID, "earliest joiner lists")
	assert.Equal(t, 1, lob.GameState.TargetCount)
}

func TestBiddingTimeoutWithStandingBid(t *testing.T) {
	e, _, sched, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 5)
	require.NoError(t, err)
	require.True(t, sched.fire(id))

	lob, err := e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseListing, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.ListerID)
	assert.Equal(t, 5, lob.GameState.TargetCount)
}

func TestStaleTimeoutIsDropped(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	lob, err := e.store.Get(ctx, id)
	require.NoError(t, err)
	staleDeadline := *lob.GameState.PhaseEndsAt

	// A bid moves the deadline; the original callback must now be a no-op.
	_, err = e.PlaceBid(ctx, id, "a", 5)
	require.NoError(t, err)

	e.HandleTimeout(id, models.PhaseBidding, staleDeadline)

	lob, err = e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
	assert.Equal(t, 5, lob.GameState.CurrentBid)

	// Same for a callback armed for a phase that has since passed.
	e.HandleTimeout(id, models.PhaseSummary, staleDeadline)
	lob, err = e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
}

func TestPassWindowTimeouts(t *testing.T) {
	e, _, sched, _ := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.Pass(ctx, id, "a")
	require.NoError(t, err)
	require.True(t, sched.fire(id), "pass window deadline")

	lob, err := e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseNoContest, lob.GameState.Phase)

	require.True(t, sched.fire(id), "no contest deadline")
	lob, err = e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
	assert.Equal(t, models.StatusCompleted, lob.Status)
	assert.False(t, sched.armed(id))
}

func TestMultiRoundMatch(t *testing.T) {
	e, _, sched, _ := newTestEngine(t)
	e.WinTarget = 2
	ctx := context.Background()
	id := startedLobby(t, e)

	// Round one: Alice bids two fruits and names them.
	_, err := e.PlaceBid(ctx, id, "a", 2)
	require.NoError(t, err)
	_, err = e.Pass(ctx, id, "b")
	require.NoError(t, err)
	_, err = e.SubmitItem(ctx, id, "a", "apple")
	require.NoError(t, err)
	lob, err := e.SubmitItem(ctx, id, "a", "pear")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSummary, lob.GameState.Phase)
	assert.Equal(t, 1, lob.GameState.Scores["a"])

	// Summary deadline rolls into the next round with a clean slate.
	require.True(t, sched.fire(id))
	lob, err = e.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
	assert.Equal(t, 2, lob.GameState.Round)
	assert.Equal(t, 0, lob.GameState.CurrentBid)
	assert.Empty(t, lob.GameState.SubmittedItems)

	// Round two: Alice does it again and takes the match.
	_, err = e.PlaceBid(ctx, id, "a", 1)
	require.NoError(t, err)
	_, err = e.Pass(ctx, id, "b")
	require.NoError(t, err)
	lob, err = e.SubmitItem(ctx, id, "a", "mango")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
	assert.Equal(t, "a", lob.GameState.WinnerID)
	assert.Equal(t, 2, lob.GameState.Scores["a"])
}

func TestHostContinuesFromSummary(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	e.WinTarget = 2
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.PlaceBid(ctx, id, "a", 1)
	require.NoError(t, err)
	_, err = e.Pass(ctx, id, "b")
	require.NoError(t, err)
	lob, err := e.SubmitItem(ctx, id, "a", "apple")
	require.NoError(t, err)
	require.Equal(t, models.PhaseSummary, lob.GameState.Phase)

	_, err = e.ContinueMatch(ctx, id, "b")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	lob, err = e.ContinueMatch(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, lob.GameState.Phase)
	assert.Equal(t, 2, lob.GameState.Round)

	_, err = e.ContinueMatch(ctx, id, "a")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

// hookStore runs a callback after the next successful swap, before control
// returns to the goroutine that performed it.
type hookStore struct {
	store.Store
	mu        sync.Mutex
	afterSwap func()
}

func (h *hookStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedVersion int64, lobby *models.Lobby) error {
	if err := h.Store.CompareAndSwap(ctx, lobbyID, expectedVersion, lobby); err != nil {
		return err
	}
	h.mu.Lock()
	fn := h.afterSwap
	h.afterSwap = nil
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// TestTimerArmingSurvivesInterleavedSwaps pins down a liveness race: when a
// second update for the same lobby commits and arms its timer between an
// earlier update's swap and that update's own timer arming, the earlier
// goroutine must not replace the newer phase's timer with a stale one.
func TestTimerArmingSurvivesInterleavedSwaps(t *testing.T) {
	st := store.NewMemoryStore()
	hs := &hookStore{Store: st}
	sched := newManualScheduler()
	e := NewEngine(hs, sched, fruitsValidator(), stats.NewMemoryRecorder(), testLogger())
	ctx := context.Background()
	id := startedLobby(t, e)

	// Bob's pass lands inside Alice's bid swap: it commits BIDDING -> LISTING
	// and arms the listing timer before Alice's goroutine resumes.
	hs.mu.Lock()
	hs.afterSwap = func() {
		_, perr := e.Pass(ctx, id, "b")
		require.NoError(t, perr)
	}
	hs.mu.Unlock()

	_, err := e.PlaceBid(ctx, id, "a", 3)
	require.NoError(t, err)

	cur, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.PhaseListing, cur.GameState.Phase)
	require.NotNil(t, cur.GameState.PhaseEndsAt)
	require.True(t, sched.armed(id), "listing deadline must still have a live timer")

	// The live timer is the listing deadline, not Alice's stale bidding one:
	// firing it times the listing phase out and ends the match.
	require.True(t, sched.fire(id))
	final, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, final.GameState.Phase)
	assert.Equal(t, "b", final.GameState.WinnerID)
}

// failingRecorder rejects the first N Record calls, then delegates.
type failingRecorder struct {
	*stats.MemoryRecorder
	mu       sync.Mutex
	failures int
}

func (r *failingRecorder) Record(ctx context.Context, lobbyID, playerID string, result models.GameResult) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return errors.New("stats backend down")
	}
	r.mu.Unlock()
	return r.MemoryRecorder.Record(ctx, lobbyID, playerID, result)
}

func TestFinalizeRetriesAfterStatsFailure(t *testing.T) {
	st := store.NewMemoryStore()
	sched := newManualScheduler()
	recorder := &failingRecorder{MemoryRecorder: stats.NewMemoryRecorder(), failures: 1}
	e := NewEngine(st, sched, fruitsValidator(), recorder, testLogger())
	ctx := context.Background()
	id := startedLobby(t, e)

	_, err := e.Leave(ctx, id, "a")
	require.NoError(t, err)

	mid, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, mid.GameState.Phase)
	assert.NotEqual(t, models.StatusCompleted, mid.Status)
	assert.Less(t, recorder.Count(), 2)
	require.True(t, sched.armed(id), "a finalize retry must be armed")

	// The retry completes the recording and marks the lobby done.
	require.True(t, sched.fire(id))
	assert.Equal(t, 2, recorder.Count())
	final, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, final.Status)
}

func TestLeaveMidGameAwardsOpponentOnce(t *testing.T) {
	e, _, sched, recorder := newTestEngine(t)
	ctx := context.Background()
	id := startedLobby(t, e)

	lob, err := e.Leave(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEnded, lob.GameState.Phase)
	assert.Equal(t, "b", lob.GameState.WinnerID)
	assert.Equal(t, "a", lob.GameState.LoserID)
	assert.Equal(t, 2, recorder.Count())
	assert.False(t, sched.armed(id))

	// Replays and the opponent's own leave change nothing material.
	_, err = e.Leave(ctx, id, "a")
	require.NoError(t, err)
	lob, err = e.Leave(ctx, id, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", lob.GameState.WinnerID)
	assert.Equal(t, 2, recorder.Count())

	_, err = e.Leave(ctx, id, "stranger")
	require.NoError(t, err)
}

func TestLeaveBeforeStartJustDisconnects(t *testing.T) {
	e, _, _, recorder := newTestEngine(t)
	ctx := context.Background()

	lob, err := e.CreateLobby(ctx, "fruits", 5)
	require.NoError(t, err)
	_, err = e.Join(ctx, lob.ID, "a", "Alice")
	require.NoError(t, err)

	lob, err = e.Leave(ctx, lob.ID, "a")
	require.NoError(t, err)
	assert.False(t, lob.Players["a"].Connected)
	assert.Equal(t, models.PhaseLobby, lob.GameState.Phase)
	assert.Zero(t, recorder.Count())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "apple", Normalize("  Apple "))
	assert.Equal(t, "new zealand", Normalize("New   Zealand"))
	assert.Equal(t, "", Normalize("   "))
}
