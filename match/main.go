// match/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	matchapi "github.com/cs2stats/stats-services/match/api"
	"github.com/cs2stats/stats-services/match/ingest"
	"github.com/cs2stats/stats-services/match/service"
	"github.com/cs2stats/stats-services/match/store"
	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/config"
	"github.com/cs2stats/stats-services/shared/logger"
	mongodbu "github.com/cs2stats/stats-services/shared/mongodb"
	redisu "github.com/cs2stats/stats-services/shared/redis"
	"github.com/cs2stats/stats-services/shared/registry"
	"github.com/rs/zerolog/log"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadMatchServiceConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.Service(logger.New(cfg.LogLevel), registry.MatchServiceType)

	ctx := context.Background()

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			lg.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	// --- 3. Connect to Redis ---
	redisClient, err := redisu.NewClient(ctx, cfg.RedisAddrs, cfg.RedisPassword, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			lg.Error().Err(err).Msg("error closing Redis client")
		}
	}()

	// --- 4. Initialize Data Store ---
	matchStore := store.NewMatchStore(mongoClient.Collection(cfg.MongoDBMatchesCollection))

	// --- 5. Initialize Business Logic ---
	matchService := service.NewMatchService(matchStore, redisu.NewStatsInvalidator(redisClient), lg)
	parser := ingest.NewParser(lg)

	// --- 6. Initialize API Handlers ---
	handlers := matchapi.NewMatchAPIHandlers(matchService, parser, cfg.RequestTimeout, cfg.MaxUploadBytes)

	// --- 7. Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, registry.MatchServiceType, &cfg.CommonConfig, lg)
	registrar.Start()
	defer registrar.Stop()

	// --- 8. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, lg)
	handlers.RegisterRoutes(baseServer.Router)

	// --- 9. Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- baseServer.Start()
	}()

	// --- 10. Graceful Shutdown ---
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
