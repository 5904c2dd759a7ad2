// shared/service/statsclient.go
package service

import (
	"context"
	"net/http"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/stats/compute"
)

// StatsServiceClient is a client for the stats service.
type StatsServiceClient struct {
	apiClient *api.Client
}

func NewStatsClient(baseURL string, httpClient *http.Client) *StatsServiceClient {
	return &StatsServiceClient{
		apiClient: api.NewClient(baseURL, httpClient),
	}
}

// Players fetches the per-player statistics, sorted by name.
func (c *StatsServiceClient) Players(ctx context.Context) ([]compute.Player, error) {
	var players []compute.Player
	if err := c.apiClient.Get(ctx, "/api/players", &players); err != nil {
		return nil, err
	}
	return players, nil
}

// Leaderboards fetches every leaderboard.
func (c *StatsServiceClient) Leaderboards(ctx context.Context) (compute.Leaderboards, error) {
	var boards compute.Leaderboards
	if err := c.apiClient.Get(ctx, "/api/leaderboards", &boards); err != nil {
		return nil, err
	}
	return boards, nil
}
