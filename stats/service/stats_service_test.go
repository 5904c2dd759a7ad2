package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cs2stats/stats-services/shared/models"
	redisu "github.com/cs2stats/stats-services/shared/redis"
	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   atomic.Int32
	matches []models.Match
	err     error
	// during runs after the matches were read, before the caller writes the cache.
	during func()
}

func (c *countingSource) ListMatches(ctx context.Context) ([]models.Match, error) {
	c.calls.Add(1)
	if c.during != nil {
		c.during()
	}
	return c.matches, c.err
}

type memCache struct {
	mu       sync.Mutex
	gen      int64
	players  []compute.Player
	boards   compute.Leaderboards
	readErr  error
	writeErr error
}

func (m *memCache) Generation(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.gen, nil
}

func (m *memCache) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.players, m.boards = nil, nil
}

func (m *memCache) GetPlayers(ctx context.Context) ([]compute.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.players == nil {
		return nil, redisu.ErrRedisKeyNotFound
	}
	return m.players, nil
}

func (m *memCache) SetPlayers(ctx context.Context, gen int64, players []compute.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if gen != m.gen {
		return redisu.ErrStaleStats
	}
	m.players = players
	return nil
}

func (m *memCache) GetLeaderboards(ctx context.Context) (compute.Leaderboards, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.boards == nil {
		return nil, redisu.ErrRedisKeyNotFound
	}
	return m.boards, nil
}

func (m *memCache) SetLeaderboards(ctx context.Context, gen int64, boards compute.Leaderboards) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if gen != m.gen {
		return redisu.ErrStaleStats
	}
	m.boards = boards
	return nil
}

func sampleMatches() []models.Match {
	return []models.Match{{
		Teams: models.Teams{
			A: models.Team{Score: 13, Players: []models.PlayerLine{{Name: "zeta", Kills: 20, Deaths: 10, RatingPlus: 1.3, RWS: 14}}},
			B: models.Team{Score: 9, Players: []models.PlayerLine{{Name: "alpha", Kills: 10, Deaths: 15, RatingPlus: 1.2}}},
		},
	}}
}

func TestPlayersMissThenHit(t *testing.T) {
	src := &countingSource{matches: sampleMatches()}
	svc := NewStatsService(src, &memCache{}, zerolog.Nop())

	players, err := svc.Players(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "alpha", players[0].Name)

	_, err = svc.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "cache hit must not call the match service")
}

func TestLeaderboardsComputedOnMiss(t *testing.T) {
	src := &countingSource{matches: sampleMatches()}
	cache := &memCache{}
	svc := NewStatsService(src, cache, zerolog.Nop())

	boards, err := svc.Leaderboards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards[compute.BoardMVP], 2)
	assert.Equal(t, "zeta", boards[compute.BoardMVP][0].Name)
	require.Len(t, boards[compute.BoardAdversityHero], 1)
	assert.Equal(t, "alpha", boards[compute.BoardAdversityHero][0].Name)
	assert.NotNil(t, cache.boards)
}

func TestCacheFailuresFallThrough(t *testing.T) {
	src := &countingSource{matches: sampleMatches()}
	cache := &memCache{readErr: errors.New("redis down"), writeErr: errors.New("redis down")}
	svc := NewStatsService(src, cache, zerolog.Nop())

	players, err := svc.Players(context.Background())
	require.NoError(t, err)
	assert.Len(t, players, 2)

	_, err = svc.Leaderboards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestSourceFailureIsReturned(t *testing.T) {
	svc := NewStatsService(&countingSource{err: errors.New("match service unavailable")}, &memCache{}, zerolog.Nop())

	_, err := svc.Players(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match service unavailable")
}

func TestRefreshFetchesOnce(t *testing.T) {
	src := &countingSource{matches: sampleMatches()}
	cache := &memCache{}
	svc := NewStatsService(src, cache, zerolog.Nop())

	require.NoError(t, svc.Refresh(context.Background(), redisu.StatsKeys))
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Len(t, cache.players, 2)
	assert.Len(t, cache.boards, len(compute.BoardNames))

	require.NoError(t, svc.Refresh(context.Background(), nil))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRefreshOnlyRequestedKeys(t *testing.T) {
	cache := &memCache{}
	svc := NewStatsService(&countingSource{matches: sampleMatches()}, cache, zerolog.Nop())

	require.NoError(t, svc.Refresh(context.Background(), []string{redisu.StatsLeaderboardsKey}))
	assert.Nil(t, cache.players)
	assert.NotNil(t, cache.boards)
}

func TestRefreshReportsWriteErrors(t *testing.T) {
	svc := NewStatsService(&countingSource{matches: sampleMatches()}, &memCache{writeErr: errors.New("readonly")}, zerolog.Nop())

	err := svc.Refresh(context.Background(), redisu.StatsKeys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readonly")
}

func TestInvalidationDuringComputeIsNotCached(t *testing.T) {
	cache := &memCache{}
	src := &countingSource{matches: sampleMatches(), during: cache.invalidate}
	svc := NewStatsService(src, cache, zerolog.Nop())

	players, err := svc.Players(context.Background())
	require.NoError(t, err)
	assert.Len(t, players, 2, "the caller still gets the computed result")
	assert.Nil(t, cache.players)

	_, err = svc.Leaderboards(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cache.boards)

	require.NoError(t, svc.Refresh(context.Background(), redisu.StatsKeys))
	assert.Nil(t, cache.players)
	assert.Nil(t, cache.boards)

	src.during = nil
	_, err = svc.Players(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cache.players)
}
