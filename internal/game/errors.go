package game

import "errors"

// Engine errors. Every kind is recovered locally: the triggering action is
// rejected and reported to its caller, never corrupting the persisted lobby.
var (
	ErrWrongPhase          = errors.New("action does not match current phase")
	ErrNotAuthorized       = errors.New("player not authorized for this action")
	ErrInvalidBid          = errors.New("bid must be a positive integer above the current bid")
	ErrDuplicateItem       = errors.New("item already submitted this round")
	ErrEmptyItem           = errors.New("item text is empty")
	ErrLobbyNotFound       = errors.New("lobby not found")
	ErrLobbyFull           = errors.New("lobby already has two players")
	ErrInsufficientPlayers = errors.New("two players are required to start")
	ErrBackendUnavailable  = errors.New("backend unavailable")
	ErrInvalidChoice       = errors.New("unrecognized choice")
)

// errStale marks a timeout callback that fired for a phase the lobby has
// already left. It is swallowed (logged, never surfaced).
var errStale = errors.New("stale timer")

// errNoop aborts an update without writing, reporting success to the caller.
var errNoop = errors.New("no state change")
