// shared/redis/constants.go
package redis

import "errors"

const (
	// Cache keys for computed statistics payloads (JSON).
	StatsPlayersKey      = "stats:{cs2}:players"
	StatsLeaderboardsKey = "stats:{cs2}:leaderboards"

	// StatsGenerationKey counts invalidations. A payload computed before the counter moved
	// is not written back.
	StatsGenerationKey = "stats:{cs2}:generation"
)

// StatsKeys lists every stats cache key; mutations of the matches collection invalidate all of them.
var StatsKeys = []string{StatsPlayersKey, StatsLeaderboardsKey}

var (
	// ErrRedisKeyNotFound is returned by stores when a key is absent.
	ErrRedisKeyNotFound = errors.New("redis key not found")
	// ErrStaleStats is returned when the matches changed while a payload was being computed.
	ErrStaleStats = errors.New("stats invalidated during computation")
)
