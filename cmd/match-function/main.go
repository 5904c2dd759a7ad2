// cmd/match-function/main.go
//
// match-function serves one request per process for serverless platforms: it reads a
// FunctionRequest as JSON on stdin and writes the FunctionResponse to stdout, running it
// through the same routes the match service serves over HTTP.
package main

import (
	"context"
	"os"

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
	cfg, err := config.LoadMatchServiceConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	// stdout carries the response, so logs go to stderr.
	lg := logger.Service(logger.NewWithWriter(os.Stderr, cfg.LogLevel), registry.MatchServiceType)

	ctx := context.Background()

	mongoClient, err := mongodbu.NewClient(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			lg.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	// Without Redis the function still serves matches; only cache invalidation is lost.
	var invalidator service.CacheInvalidator
	redisClient, err := redisu.NewClient(ctx, cfg.RedisAddrs, cfg.RedisPassword, lg)
	if err != nil {
		lg.Warn().Err(err).Msg("Redis unavailable, stats cache will not be invalidated")
	} else {
		defer redisClient.Close()
		invalidator = redisu.NewStatsInvalidator(redisClient)
	}

	matchService := service.NewMatchService(store.NewMatchStore(mongoClient.Collection(cfg.MongoDBMatchesCollection)), invalidator, lg)
	handlers := matchapi.NewMatchAPIHandlers(matchService, ingest.NewParser(lg), cfg.RequestTimeout, cfg.MaxUploadBytes)

	baseServer := api.NewBaseServer(cfg.ListenAddr, lg)
	handlers.RegisterRoutes(baseServer.Router)

	if err := api.ServeFunction(ctx, baseServer.Handler(), os.Stdin, os.Stdout); err != nil {
		lg.Error().Err(err).Msg("function invocation failed")
		os.Exit(1)
	}
}
