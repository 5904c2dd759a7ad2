// shared/redis/invalidator.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StatsInvalidator deletes the computed stats payloads so the next read recomputes them.
type StatsInvalidator struct {
	client redis.UniversalClient
}

func NewStatsInvalidator(client redis.UniversalClient) *StatsInvalidator {
	return &StatsInvalidator{client: client}
}

// Invalidate bumps the generation and removes every stats key in one transaction.
// All keys share a hash tag, so the transaction stays on one cluster slot.
func (si *StatsInvalidator) Invalidate(ctx context.Context) error {
	_, err := si.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, StatsGenerationKey)
		pipe.Del(ctx, StatsKeys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate stats keys: %w", err)
	}
	return nil
}
