// stats/warmer/cache_warmer.go
package warmer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Assigner decides which instance owns a cache key; *cluster.ServiceAssignmentManager implements it.
type Assigner interface {
	IsResponsible(key string) (bool, error)
}

// Refresher recomputes and stores cache keys; *service.StatsService implements it.
type Refresher interface {
	Refresh(ctx context.Context, keys []string) error
}

// CacheWarmer periodically refreshes the stats cache keys owned by this instance,
// so readers rarely pay for a recomputation.
type CacheWarmer struct {
	keys      []string
	interval  time.Duration
	timeout   time.Duration
	assigner  Assigner
	refresher Refresher
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCacheWarmer creates a warmer for keys. Each tick gets at most timeout to finish.
func NewCacheWarmer(keys []string, interval, timeout time.Duration, assigner Assigner, refresher Refresher, logger zerolog.Logger) *CacheWarmer {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheWarmer{
		keys:      keys,
		interval:  interval,
		timeout:   timeout,
		assigner:  assigner,
		refresher: refresher,
		logger:    logger.With().Str("component", "cache_warmer").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start runs the warm loop until Stop. Run it in a goroutine.
func (cw *CacheWarmer) Start() {
	defer close(cw.done)
	cw.logger.Info().Dur("interval", cw.interval).Strs("keys", cw.keys).Msg("cache warmer starting")

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cw.ctx.Done():
			cw.logger.Info().Msg("cache warmer shutting down")
			return
		case <-ticker.C:
			cw.Tick(cw.ctx)
		}
	}
}

// Stop ends the loop and waits for an in-flight tick.
func (cw *CacheWarmer) Stop() {
	cw.cancel()
	<-cw.done
}

// Tick refreshes the keys this instance owns.
func (cw *CacheWarmer) Tick(ctx context.Context) {
	owned := cw.ownedKeys()
	if len(owned) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cw.timeout)
	defer cancel()

	start := time.Now()
	if err := cw.refresher.Refresh(ctx, owned); err != nil {
		cw.logger.Error().Err(err).Strs("keys", owned).Msg("cache refresh failed")
		return
	}
	cw.logger.Debug().Strs("keys", owned).Dur("duration", time.Since(start)).Msg("cache refreshed")
}

func (cw *CacheWarmer) ownedKeys() []string {
	owned := make([]string, 0, len(cw.keys))
	for _, key := range cw.keys {
		ok, err := cw.assigner.IsResponsible(key)
		if err != nil {
			cw.logger.Warn().Err(err).Str("key", key).Msg("failed to check key ownership")
			continue
		}
		if ok {
			owned = append(owned, key)
		}
	}
	return owned
}
