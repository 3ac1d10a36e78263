// internal/handlers/lobby.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/game"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/stats"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/store"
)

// CategoryProvider is the read surface the HTTP layer needs from the
// category registry.
type CategoryProvider interface {
	Categories() []string
	Items(ctx context.Context, category string) ([]string, error)
}

// API bundles the REST endpoints: lobby lifecycle, category browsing, and
// player history. Real-time play goes over the WebSocket instead.
type API struct {
	engine     *game.Engine
	store      store.Store
	categories CategoryProvider
	stats      stats.Recorder
	logger     *logrus.Logger
}

func NewAPI(engine *game.Engine, st store.Store, categories CategoryProvider, recorder stats.Recorder, logger *logrus.Logger) *API {
	return &API{
		engine:     engine,
		store:      st,
		categories: categories,
		stats:      recorder,
		logger:     logger,
	}
}

// Routes mounts the REST endpoints on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/lobbies", a.handleLobbies)
	mux.HandleFunc("/api/lobbies/", a.handleLobbyByID)
	mux.HandleFunc("/api/categories", a.handleCategories)
	mux.HandleFunc("/api/categories/", a.handleCategoryItems)
	mux.HandleFunc("/api/players/", a.handlePlayerHistory)
}

type createLobbyRequest struct {
	Category string `json:"category"`
	BestOf   int    `json:"bestOf,omitempty"`
}

// handleLobbies serves POST (create) and GET (list joinable) on /api/lobbies.
func (a *API) handleLobbies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Category == "" {
			http.Error(w, "category is required", http.StatusBadRequest)
			return
		}
		lob, err := a.engine.CreateLobby(r.Context(), req.Category, req.BestOf)
		if err != nil {
			a.writeEngineError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusCreated, lob)

	case http.MethodGet:
		lister, ok := a.store.(store.Lister)
		if !ok {
			http.Error(w, "lobby listing not supported", http.StatusNotImplemented)
			return
		}
		lobbies, err := lister.ListAvailable(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			a.logger.WithError(err).Error("list lobbies failed")
			http.Error(w, "failed to list lobbies", http.StatusInternalServerError)
			return
		}
		writeJSONResponse(w, http.StatusOK, lobbies)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) handleLobbyByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/lobbies/"), "/")
	if id == "" {
		http.Error(w, "missing lobby id", http.StatusBadRequest)
		return
	}
	lob, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		a.logger.WithError(err).WithField("lobby_id", id).Error("lobby fetch failed")
		http.Error(w, "failed to fetch lobby", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, lob)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string][]string{"categories": a.categories.Categories()})
}

// handleCategoryItems serves GET /api/categories/{name}/items.
func (a *API) handleCategoryItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/categories/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "items" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	items, err := a.categories.Items(r.Context(), parts[0])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string][]string{"items": items})
}

// handlePlayerHistory serves GET /api/players/{id}/history.
func (a *API) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/players/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "history" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	history, err := a.stats.History(r.Context(), parts[0])
	if err != nil {
		a.logger.WithError(err).WithField("player_id", parts[0]).Error("history fetch failed")
		http.Error(w, "failed to fetch history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []stats.HistoryEntry{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"results": history})
}

func (a *API) writeEngineError(w http.ResponseWriter, err error) {
	code := ErrorCode(err)
	status := http.StatusBadRequest
	switch code {
	case "lobby_not_found":
		status = http.StatusNotFound
	case "backend_unavailable", "internal_error":
		status = http.StatusInternalServerError
		a.logger.WithError(err).Error("engine operation failed")
	}
	writeJSONResponse(w, status, ErrorMessage{Type: "error", Code: code, Message: err.Error()})
}

func writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
