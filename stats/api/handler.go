// stats/api/handler.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// StatsService is the business logic behind the handlers; *service.StatsService implements it.
type StatsService interface {
	Players(ctx context.Context) ([]compute.Player, error)
	Leaderboards(ctx context.Context) (compute.Leaderboards, error)
}

// StatsAPIHandlers holds the dependencies of the stats endpoints.
type StatsAPIHandlers struct {
	stats          StatsService
	requestTimeout time.Duration
}

func NewStatsAPIHandlers(stats StatsService, requestTimeout time.Duration) *StatsAPIHandlers {
	return &StatsAPIHandlers{
		stats:          stats,
		requestTimeout: requestTimeout,
	}
}

// RegisterRoutes mounts the stats endpoints.
func (h *StatsAPIHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/players", h.PlayersHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboards", h.LeaderboardsHandler).Methods(http.MethodGet)
}

// PlayersHandler returns every player's statistics sorted by name.
// GET /api/players
func (h *StatsAPIHandlers) PlayersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	players, err := h.stats.Players(ctx)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to compute players")
		api.WriteInternalServerError(w, err)
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, players)
}

// LeaderboardsHandler returns every board keyed by name.
// GET /api/leaderboards
func (h *StatsAPIHandlers) LeaderboardsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	boards, err := h.stats.Leaderboards(ctx)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to compute leaderboards")
		api.WriteInternalServerError(w, err)
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, boards)
}
