// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CommonConfig holds configuration fields that are shared across both services.
type CommonConfig struct {
	LogLevel                string        // zerolog level name (e.g., "debug", "info")
	RedisAddrs              []string      // Redis addresses; one address means a single node, several mean a cluster
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration
	ServicePort             int           // The port this service listens on, used for registration
}

// MatchServiceConfig holds configuration specific to the match-service.
type MatchServiceConfig struct {
	CommonConfig
	ListenAddr               string        // Address for the HTTP server (e.g., ":8081")
	MongoDBConnStr           string        // MongoDB connection string
	MongoDBDatabase          string        // MongoDB database name (e.g., "cs2stats")
	MongoDBMatchesCollection string        // MongoDB collection holding match documents
	RequestTimeout           time.Duration // Per-request deadline for database work
	MaxUploadBytes           int64         // Upper bound for spreadsheet uploads
}

// StatsServiceConfig holds configuration specific to the stats-service.
type StatsServiceConfig struct {
	CommonConfig
	ListenAddr      string        // Address for the HTTP server (e.g., ":8082")
	MatchServiceURL string        // Base URL of the match-service (e.g., "http://match-service:8081")
	CacheTTL        time.Duration // TTL of computed player/leaderboard payloads in Redis
	WarmInterval    time.Duration // How often the warmer refreshes the cache keys it owns
	RequestTimeout  time.Duration
}

// LoadCommonConfig loads common configuration from environment variables.
// A .env file in the working directory is honoured when present.
func LoadCommonConfig() (CommonConfig, error) {
	_ = godotenv.Load()

	cfg := CommonConfig{
		LogLevel:      getString("LOG_LEVEL", "info"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"localhost:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.RedisAddrs = append(cfg.RedisAddrs, addr)
			}
		}
	}

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}
	// All three drive tickers, which panic on non-positive periods.
	for env, d := range map[string]time.Duration{
		"SERVICE_HEARTBEAT_INTERVAL":        cfg.HeartbeatInterval,
		"SERVICE_HEARTBEAT_TTL":             cfg.HeartbeatTTL,
		"SERVICE_REGISTRY_CLEANUP_INTERVAL": cfg.RegistryCleanupInterval,
	} {
		if d <= 0 {
			return cfg, fmt.Errorf("%s must be positive (got %s)", env, d)
		}
	}

	// Injected by Kubernetes; local runs advertise every interface.
	cfg.ServiceIP = getString("POD_IP", "0.0.0.0")

	return cfg, nil
}

// LoadMatchServiceConfig loads configuration for the match-service.
func LoadMatchServiceConfig() (*MatchServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for match-service: %w", err)
	}

	cfg := &MatchServiceConfig{
		CommonConfig:             common,
		ListenAddr:               getString("MATCH_SERVICE_LISTEN_ADDR", ":8081"),
		MongoDBConnStr:           getString("MONGODB_CONN_STR", "mongodb://localhost:27017"),
		MongoDBDatabase:          getString("MONGODB_DATABASE", "cs2stats"),
		MongoDBMatchesCollection: getString("MONGODB_MATCHES_COLLECTION", "cs2Matches"),
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from MATCH_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}
	cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 16<<20)
	if err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive (got %d)", cfg.MaxUploadBytes)
	}

	return cfg, nil
}

// LoadStatsServiceConfig loads configuration for the stats-service.
func LoadStatsServiceConfig() (*StatsServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for stats-service: %w", err)
	}

	cfg := &StatsServiceConfig{
		CommonConfig:    common,
		ListenAddr:      getString("STATS_SERVICE_LISTEN_ADDR", ":8082"),
		MatchServiceURL: strings.TrimRight(getString("MATCH_SERVICE_URL", "http://localhost:8081"), "/"),
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from STATS_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}
	cfg.CacheTTL, err = getDuration("STATS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WarmInterval, err = getDuration("STATS_WARM_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	if cfg.WarmInterval <= 0 {
		return nil, fmt.Errorf("STATS_WARM_INTERVAL must be positive (got %s)", cfg.WarmInterval)
	}
	cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getString(envKey, defaultVal string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

func getInt64(envKey string, defaultVal int64) (int64, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8082" -> 8082, "0.0.0.0:8082" -> 8082)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
