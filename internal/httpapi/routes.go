// Package httpapi exposes the non-realtime surface: health, the board
// snapshot image, and the finished-game record routes. The realtime channel
// stays in the ws package; this mux only mounts its upgrade handler.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vhoang/covua-server/internal/board"
	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/internal/record"
	"github.com/vhoang/covua-server/internal/room"
	"go.uber.org/zap"
)

type Deps struct {
	WSHandler http.HandlerFunc
	Rooms     *room.Directory
	Renderer  board.Renderer
	Records   *record.Store // nil when no record store is configured
}

type API struct {
	rooms    *room.Directory
	renderer board.Renderer
	records  *record.Store
}

// NewMux builds the full route table.
func NewMux(deps Deps) *http.ServeMux {
	a := &API{
		rooms:    deps.Rooms,
		renderer: deps.Renderer,
		records:  deps.Records,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("/ws", deps.WSHandler)
	mux.HandleFunc("GET /api/rooms/{code}/board.png", a.handleBoardPNG)
	mux.HandleFunc("POST /api/newGame", a.handleNewGame)
	mux.HandleFunc("GET /api/game/{id}", a.handleGetGame)
	mux.HandleFunc("GET /api/players/{identity}/games", a.handlePlayerGames)
	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBoardPNG renders the room's current position. ?pov=black flips the
// board. Rooms that have not started yet render the starting position.
func (a *API) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	snap, err := a.rooms.Lookup(code)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	opts := board.RenderOptions{
		Flipped: strings.EqualFold(r.URL.Query().Get("pov"), "black"),
	}
	img, err := a.renderer.RenderPNG(r.Context(), snap.Position, opts)
	if err != nil {
		obslog.L().Error("board_render_error", zap.String("code", code), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

type newGameRequest struct {
	Owner string `json:"player1"`
	Guest string `json:"player2,omitempty"`
}

func (a *API) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if a.records == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not configured")
		return
	}
	var req newGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rec, err := a.records.Create(r.Context(), req.Owner, req.Guest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	if a.records == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not configured")
		return
	}
	rec, err := a.records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		obslog.L().Error("record_get_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "record lookup failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handlePlayerGames(w http.ResponseWriter, r *http.Request) {
	if a.records == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not configured")
		return
	}
	ids, err := a.records.IDsByPlayer(r.Context(), r.PathValue("identity"))
	if err != nil {
		obslog.L().Error("record_index_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "index lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"game_ids": ids})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
