// stats/service/stats_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cs2stats/stats-services/shared/models"
	redisu "github.com/cs2stats/stats-services/shared/redis"
	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MatchSource provides the matches statistics are computed from; the match service client implements it.
type MatchSource interface {
	ListMatches(ctx context.Context) ([]models.Match, error)
}

// StatsCache stores computed payloads; *store.StatsCacheStore implements it.
// Set calls pass the Generation read before fetching and return redisu.ErrStaleStats
// when an invalidation happened since.
type StatsCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPlayers(ctx context.Context) ([]compute.Player, error)
	SetPlayers(ctx context.Context, gen int64, players []compute.Player) error
	GetLeaderboards(ctx context.Context) (compute.Leaderboards, error)
	SetLeaderboards(ctx context.Context, gen int64, boards compute.Leaderboards) error
}

// StatsService serves player statistics and leaderboards, read-through cached.
type StatsService struct {
	matches MatchSource
	cache   StatsCache
	logger  zerolog.Logger
}

func NewStatsService(matches MatchSource, cache StatsCache, logger zerolog.Logger) *StatsService {
	return &StatsService{
		matches: matches,
		cache:   cache,
		logger:  logger.With().Str("component", "stats_service").Logger(),
	}
}

// Players returns every player's aggregated statistics.
func (s *StatsService) Players(ctx context.Context) ([]compute.Player, error) {
	players, err := s.cache.GetPlayers(ctx)
	if err == nil {
		return players, nil
	}
	s.logMiss(redisu.StatsPlayersKey, err)

	gen, cacheable := s.generation(ctx)
	matches, err := s.fetchMatches(ctx)
	if err != nil {
		return nil, err
	}
	players = compute.Players(matches)
	if cacheable {
		s.logWrite(redisu.StatsPlayersKey, s.cache.SetPlayers(ctx, gen, players))
	}
	return players, nil
}

// Leaderboards returns every leaderboard.
func (s *StatsService) Leaderboards(ctx context.Context) (compute.Leaderboards, error) {
	boards, err := s.cache.GetLeaderboards(ctx)
	if err == nil {
		return boards, nil
	}
	s.logMiss(redisu.StatsLeaderboardsKey, err)

	gen, cacheable := s.generation(ctx)
	matches, err := s.fetchMatches(ctx)
	if err != nil {
		return nil, err
	}
	boards = compute.ComputeLeaderboards(compute.Players(matches), matches)
	if cacheable {
		s.logWrite(redisu.StatsLeaderboardsKey, s.cache.SetLeaderboards(ctx, gen, boards))
	}
	return boards, nil
}

// Refresh recomputes and stores the given cache keys from a single fetch of the matches.
// Unknown keys are ignored. Keys invalidated while computing are left for the next read.
func (s *StatsService) Refresh(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh stats cache: %w", err)
	}
	matches, err := s.fetchMatches(ctx)
	if err != nil {
		return err
	}
	players := compute.Players(matches)

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		switch key {
		case redisu.StatsPlayersKey:
			g.Go(func() error {
				return s.skipStale(redisu.StatsPlayersKey, s.cache.SetPlayers(gctx, gen, players))
			})
		case redisu.StatsLeaderboardsKey:
			g.Go(func() error {
				return s.skipStale(redisu.StatsLeaderboardsKey, s.cache.SetLeaderboards(gctx, gen, compute.ComputeLeaderboards(players, matches)))
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to refresh stats cache: %w", err)
	}
	return nil
}

func (s *StatsService) fetchMatches(ctx context.Context) ([]models.Match, error) {
	matches, err := s.matches.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	return matches, nil
}

// generation reports whether a payload computed from now on may be cached.
func (s *StatsService) generation(ctx context.Context) (int64, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats cache generation unavailable, not caching")
		return 0, false
	}
	return gen, true
}

func (s *StatsService) skipStale(key string, err error) error {
	if errors.Is(err, redisu.ErrStaleStats) {
		s.logger.Debug().Str("key", key).Msg("matches changed during refresh, not caching")
		return nil
	}
	return err
}

func (s *StatsService) logWrite(key string, err error) {
	if err = s.skipStale(key, err); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache stats")
	}
}

func (s *StatsService) logMiss(key string, err error) {
	if errors.Is(err, redisu.ErrRedisKeyNotFound) {
		s.logger.Debug().Str("key", key).Msg("stats cache miss")
		return
	}
	s.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
}
