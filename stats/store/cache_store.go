// stats/store/cache_store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisu "github.com/cs2stats/stats-services/shared/redis"
	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/redis/go-redis/v9"
)

// StatsCacheStore keeps the computed payloads in Redis as JSON strings with a TTL.
// Missing or expired keys are reported as redisu.ErrRedisKeyNotFound. Writes carry the
// generation read before the matches were fetched and fail with redisu.ErrStaleStats
// once an invalidation has moved it.
type StatsCacheStore struct {
	redisClient redis.UniversalClient
	ttl         time.Duration
}

func NewStatsCacheStore(redisClient redis.UniversalClient, ttl time.Duration) *StatsCacheStore {
	return &StatsCacheStore{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// Generation returns the current invalidation counter; 0 when nothing was ever invalidated.
func (s *StatsCacheStore) Generation(ctx context.Context) (int64, error) {
	gen, err := s.redisClient.Get(ctx, redisu.StatsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s from Redis: %w", redisu.StatsGenerationKey, err)
	}
	return gen, nil
}

func (s *StatsCacheStore) GetPlayers(ctx context.Context) ([]compute.Player, error) {
	var players []compute.Player
	if err := s.getJSON(ctx, redisu.StatsPlayersKey, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *StatsCacheStore) SetPlayers(ctx context.Context, gen int64, players []compute.Player) error {
	return s.setJSON(ctx, gen, redisu.StatsPlayersKey, players)
}

func (s *StatsCacheStore) GetLeaderboards(ctx context.Context) (compute.Leaderboards, error) {
	var boards compute.Leaderboards
	if err := s.getJSON(ctx, redisu.StatsLeaderboardsKey, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (s *StatsCacheStore) SetLeaderboards(ctx context.Context, gen int64, boards compute.Leaderboards) error {
	return s.setJSON(ctx, gen, redisu.StatsLeaderboardsKey, boards)
}

func (s *StatsCacheStore) getJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := s.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return redisu.ErrRedisKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return nil
}

func (s *StatsCacheStore) setJSON(ctx context.Context, gen int64, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	// WATCH aborts the EXEC if an invalidation lands between the check and the SET.
	err = s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, redisu.StatsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return redisu.ErrStaleStats
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}, redisu.StatsGenerationKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redisu.ErrStaleStats), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%s: %w", key, redisu.ErrStaleStats)
	default:
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
}
