package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

const maxResultsLimit = 100

// GameDirectory is the read side of the live session directory.
type GameDirectory interface {
	Get(code string) (*app.Session, error)
	Len() int
}

// RoomStats reports gateway occupancy.
type RoomStats interface {
	Stats() (rooms, clients int)
}

// API serves the read-only HTTP surface next to the websocket endpoint.
type API struct {
	games   GameDirectory
	stats   RoomStats
	results app.ResultArchive
}

func NewAPI(games GameDirectory, stats RoomStats, results app.ResultArchive) *API {
	return &API{games: games, stats: stats, results: results}
}

// NewRouter mounts the websocket endpoint and the API behind CORS.
func NewRouter(ws *WSHandler, api *API, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", ws.ServeWS)
	router.HandleFunc("/healthz", api.Health).Methods(http.MethodGet)
	router.HandleFunc("/stats", api.Stats).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/games/{code}", api.GetGame).Methods(http.MethodGet)
	apiRouter.HandleFunc("/results", api.RecentResults).Methods(http.MethodGet)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
	return corsMiddleware.Handler(router)
}

func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (a *API) Stats(w http.ResponseWriter, _ *http.Request) {
	rooms, clients := a.stats.Stats()
	writeJSON(w, http.StatusOK, map[string]int{"rooms": rooms, "clients": clients, "games": a.games.Len()})
}

// GetGame returns the display view of a live game.
func (a *API) GetGame(w http.ResponseWriter, r *http.Request) {
	session, err := a.games.Get(mux.Vars(r)["code"])
	if errors.Is(err, domain.ErrGameNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot(""))
}

func (a *API) RecentResults(w http.ResponseWriter, r *http.Request) {
	if a.results == nil {
		writeJSON(w, http.StatusOK, []domain.GameSummary{})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, domain.Invalid("limit", "must be a positive integer"))
			return
		}
		limit = min(n, maxResultsLimit)
	}
	results, err := a.results.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("list game results", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, domain.ErrorPayload{Code: domain.KindOf(err), Message: err.Error()})
}
