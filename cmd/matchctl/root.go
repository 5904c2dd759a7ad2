// cmd/matchctl/root.go
package main

import (
	"context"
	"os"
	"time"

	"github.com/cs2stats/stats-services/shared/service"
	"github.com/spf13/cobra"
)

const (
	defaultMatchAPI = "http://localhost:8081"
	defaultStatsAPI = "http://localhost:8082"
)

type options struct {
	matchAPI string
	statsAPI string
	timeout  time.Duration
}

func (o *options) matchClient() *service.MatchServiceClient {
	return service.NewMatchClient(o.matchAPI, nil)
}

func (o *options) statsClient() *service.StatsServiceClient {
	return service.NewStatsClient(o.statsAPI, nil)
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// NewRootCmd builds the matchctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Browse CS2 matches, player statistics and leaderboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.matchAPI, "api", envOr("MATCHCTL_API", defaultMatchAPI), "match service base URL")
	root.PersistentFlags().StringVar(&opts.statsAPI, "stats", envOr("MATCHCTL_STATS", defaultStatsAPI), "stats service base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(newMatchesCmd(opts))
	root.AddCommand(newPlayersCmd(opts))
	root.AddCommand(newLeaderboardsCmd(opts))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
