// stats/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/cluster"
	"github.com/cs2stats/stats-services/shared/config"
	"github.com/cs2stats/stats-services/shared/logger"
	redisu "github.com/cs2stats/stats-services/shared/redis"
	"github.com/cs2stats/stats-services/shared/registry"
	matchclient "github.com/cs2stats/stats-services/shared/service"
	statsapi "github.com/cs2stats/stats-services/stats/api"
	"github.com/cs2stats/stats-services/stats/service"
	"github.com/cs2stats/stats-services/stats/store"
	"github.com/cs2stats/stats-services/stats/warmer"
	"github.com/rs/zerolog/log"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadStatsServiceConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.Service(logger.New(cfg.LogLevel), registry.StatsServiceType)

	// --- 2. Connect to Redis ---
	redisClient, err := redisu.NewClient(context.Background(), cfg.RedisAddrs, cfg.RedisPassword, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			lg.Error().Err(err).Msg("error closing Redis client")
		}
	}()

	// --- 3. Initialize Cache Store and Match Service Client ---
	cacheStore := store.NewStatsCacheStore(redisClient, cfg.CacheTTL)
	matches := matchclient.NewMatchClient(cfg.MatchServiceURL, nil)

	// --- 4. Initialize Business Logic ---
	statsService := service.NewStatsService(matches, cacheStore, lg)

	// --- 5. Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, registry.StatsServiceType, &cfg.CommonConfig, lg)
	registrar.Start()
	defer registrar.Stop()

	// --- 6. Start Key Assignment and Cache Warmer ---
	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL, lg)
	assignmentManager := cluster.NewServiceAssignmentManager(
		registryClient,
		registrar.GetServiceID(),
		registrar.GetServiceType(),
		cfg.HeartbeatInterval,
		lg,
	)
	go assignmentManager.Start()
	defer assignmentManager.Stop()

	cacheWarmer := warmer.NewCacheWarmer(redisu.StatsKeys, cfg.WarmInterval, cfg.RequestTimeout, assignmentManager, statsService, lg)
	go cacheWarmer.Start()
	defer cacheWarmer.Stop()

	// --- 7. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, lg)
	statsapi.NewStatsAPIHandlers(statsService, cfg.RequestTimeout).RegisterRoutes(baseServer.Router)

	// --- 8. Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- baseServer.Start()
	}()

	// --- 9. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		lg.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err := <-serverErr:
		if err != nil {
			lg.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("HTTP server graceful shutdown failed")
		return
	}
	lg.Info().Msg("server gracefully stopped")
}
