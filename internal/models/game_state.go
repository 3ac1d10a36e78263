// internal/models/game_state.go
package models

import "time"

// Phase is the current stage of a game session. Exactly one phase is active
// at a time; only a validated player action or a scheduler timeout may move it.
type Phase string

const (
	PhaseLobby           Phase = "LOBBY"
	PhaseBidding         Phase = "BIDDING"
	PhasePassOpportunity Phase = "PASS_OPPORTUNITY"
	PhaseNoContest       Phase = "NO_CONTEST"
	PhaseListing         Phase = "LISTING"
	PhaseSummary         Phase = "SUMMARY"
	PhaseEnded           Phase = "ENDED"
)

// SubmittedItem is one lister submission during a LISTING phase. The list is
// append-only within a phase and reset each round.
type SubmittedItem struct {
	Text      string    `json:"text" bson:"text"`
	IsValid   bool      `json:"isValid" bson:"is_valid"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// PassOpportunity is the transient window opened when the first player passes
// before any bid exists, letting the second player respond.
type PassOpportunity struct {
	FirstPlayerPassed string `json:"firstPlayerPassed" bson:"first_player_passed"`
}

// NoContest marks the reduced single-item round offer after both players
// decline to bid.
type NoContest struct {
	OfferedAt time.Time `json:"offeredAt" bson:"offered_at"`
}

// GameState is the state-machine payload. It is replaced wholesale on each
// round transition; scores accumulate across rounds.
type GameState struct {
	Phase   Phase `json:"phase" bson:"phase"`
	Round   int   `json:"round" bson:"round"`
	BestOf  int   `json:"bestOf" bson:"best_of"`

	// Bids maps playerId -> bid amount during BIDDING. 0 records a pass.
	Bids         map[string]int `json:"bids,omitempty" bson:"bids,omitempty"`
	CurrentBid   int            `json:"currentBid" bson:"current_bid"`
	HighBidderID string         `json:"highBidderId,omitempty" bson:"high_bidder_id,omitempty"`

	ListerID    string `json:"listerId,omitempty" bson:"lister_id,omitempty"`
	TargetCount int    `json:"targetCount" bson:"target_count"`

	SubmittedItems []SubmittedItem `json:"submittedItems" bson:"submitted_items"`
	Scores         map[string]int  `json:"scores" bson:"scores"`

	// PhaseEndsAt is the absolute deadline for the current phase, or nil when
	// the phase has no deadline. It corresponds to exactly one live timer.
	PhaseEndsAt *time.Time `json:"phaseEndsAt,omitempty" bson:"phase_ends_at,omitempty"`

	PassOpportunity *PassOpportunity `json:"passOpportunity,omitempty" bson:"pass_opportunity,omitempty"`
	NoContest       *NoContest       `json:"noContest,omitempty" bson:"no_contest,omitempty"`

	WinnerID          string `json:"winnerId,omitempty" bson:"winner_id,omitempty"`
	LoserID           string `json:"loserId,omitempty" bson:"loser_id,omitempty"`
	ProcessedForLeave bool   `json:"processedForLeave,omitempty" bson:"processed_for_leave,omitempty"`
}

// NewGameState returns an empty LOBBY-phase state.
func NewGameState(bestOf int) *GameState {
	return &GameState{
		Phase:          PhaseLobby,
		Round:          1,
		BestOf:         bestOf,
		SubmittedItems: []SubmittedItem{},
		Scores:         map[string]int{},
	}
}

// ValidCount returns the number of accepted-valid submissions this round.
func (gs *GameState) ValidCount() int {
	n := 0
	for _, it := range gs.SubmittedItems {
		if it.IsValid {
			n++
		}
	}
	return n
}

// HasItem reports whether text was already submitted this round. Texts are
// stored normalized, so equality here is case-insensitive by construction.
func (gs *GameState) HasItem(text string) bool {
	for _, it := range gs.SubmittedItems {
		if it.Text == text {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	cp := *gs
	if gs.Bids != nil {
		cp.Bids = make(map[string]int, len(gs.Bids))
		for k, v := range gs.Bids {
			cp.Bids[k] = v
		}
	}
	if gs.Scores != nil {
		cp.Scores = make(map[string]int, len(gs.Scores))
		for k, v := range gs.Scores {
			cp.Scores[k] = v
		}
	}
	cp.SubmittedItems = make([]SubmittedItem, len(gs.SubmittedItems))
	copy(cp.SubmittedItems, gs.SubmittedItems)
	if gs.PhaseEndsAt != nil {
		t := *gs.PhaseEndsAt
		cp.PhaseEndsAt = &t
	}
	if gs.PassOpportunity != nil {
		po := *gs.PassOpportunity
		cp.PassOpportunity = &po
	}
	if gs.NoContest != nil {
		nc := *gs.NoContest
		cp.NoContest = &nc
	}
	return &cp
}
