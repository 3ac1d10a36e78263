// internal/handlers/dispatcher.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/game"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// ActionMessage is the client-to-server frame. Payload shape depends on Type.
// PlayerID is optional; when present it must match the connection's identity.
type ActionMessage struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type bidPayload struct {
	Amount int `json:"amount"`
}

type itemPayload struct {
	Text string `json:"text"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type choicePayload struct {
	Choice string `json:"choice"`
	Amount int    `json:"amount,omitempty"`
}

// Dispatcher routes decoded action frames to engine operations. It is the
// single place action names are bound to game semantics, so the WebSocket
// and any future transport stay thin.
type Dispatcher struct {
	engine *game.Engine
	logger *logrus.Logger
}

func NewDispatcher(engine *game.Engine, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, logger: logger}
}

// Dispatch decodes one action frame and applies it on behalf of playerID.
// A nil error means the action was applied (or was a harmless no-op);
// subscribers see the resulting state through the store, not through the
// return value.
func (d *Dispatcher) Dispatch(ctx context.Context, lobbyID, playerID string, raw []byte) error {
	var msg ActionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("malformed action frame: %w", err)
	}
	if msg.PlayerID != "" && msg.PlayerID != playerID {
		return fmt.Errorf("%w: frame claims a different player", game.ErrNotAuthorized)
	}

	var err error
	switch msg.Type {
	case "set_ready":
		var p readyPayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("set_ready payload: %w", err)
		}
		_, err = d.engine.SetReady(ctx, lobbyID, playerID, p.Ready)
	case "start_game":
		_, err = d.engine.StartGame(ctx, lobbyID, playerID)
	case "place_bid":
		var p bidPayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("place_bid payload: %w", err)
		}
		_, err = d.engine.PlaceBid(ctx, lobbyID, playerID, p.Amount)
	case "pass":
		_, err = d.engine.Pass(ctx, lobbyID, playerID)
	case "pass_opportunity_choice":
		var p choicePayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("pass_opportunity_choice payload: %w", err)
		}
		_, err = d.engine.PassOpportunityChoice(ctx, lobbyID, playerID, p.Choice, p.Amount)
	case "no_contest_choice":
		var p choicePayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("no_contest_choice payload: %w", err)
		}
		_, err = d.engine.NoContestChoice(ctx, lobbyID, playerID, p.Choice)
	case "submit_item":
		var p itemPayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("submit_item payload: %w", err)
		}
		_, err = d.engine.SubmitItem(ctx, lobbyID, playerID, p.Text)
	case "continue":
		_, err = d.engine.ContinueMatch(ctx, lobbyID, playerID)
	case "leave":
		_, err = d.engine.Leave(ctx, lobbyID, playerID)
	default:
		return fmt.Errorf("unknown action type %q", msg.Type)
	}

	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"lobby_id":  lobbyID,
			"player_id": playerID,
			"action":    msg.Type,
			"code":      ErrorCode(err),
		}).WithError(err).Debug("action rejected")
	}
	return err
}

// ErrorCode maps an engine error to a stable machine-readable code for
// clients. Unrecognized errors collapse to internal_error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, game.ErrInvalidBid):
		return "invalid_bid"
	case errors.Is(err, game.ErrDuplicateItem):
		return "duplicate_item"
	case errors.Is(err, game.ErrEmptyItem):
		return "empty_item"
	case errors.Is(err, game.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, game.ErrLobbyNotFound):
		return "lobby_not_found"
	case errors.Is(err, game.ErrLobbyFull):
		return "lobby_full"
	case errors.Is(err, game.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, game.ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return "internal_error"
	}
}

// StateMessage is the server-to-client push sent on every lobby change.
type StateMessage struct {
	Type  string        `json:"type"`
	Lobby *models.Lobby `json:"lobby"`
}

// ErrorMessage is sent to the acting client when an action is rejected.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
