// shared/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RegistryClient reads the registry. Self-registration lives in ServiceRegistrar,
// so any process can query active instances without registering itself.
type RegistryClient struct {
	redisClient    redis.UniversalClient
	serviceTimeout time.Duration
	logger         zerolog.Logger
}

// NewRegistryClient takes an already initialized redis client.
func NewRegistryClient(redisClient redis.UniversalClient, serviceTimeout time.Duration, logger zerolog.Logger) *RegistryClient {
	return &RegistryClient{
		redisClient:    redisClient,
		serviceTimeout: serviceTimeout,
		logger:         logger.With().Str("component", "registry_client").Logger(),
	}
}

// GetActiveServices returns the instances of serviceType keyed by instance ID,
// leaving out those whose last heartbeat is older than the service timeout.
func (rc *RegistryClient) GetActiveServices(ctx context.Context, serviceType string) (map[string]ServiceInfo, error) {
	results, err := rc.redisClient.HGetAll(ctx, hashKey(serviceType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get all services of type %s from Redis: %w", serviceType, err)
	}

	activeServices := make(map[string]ServiceInfo)
	now := time.Now()

	for instanceID, infoJSON := range results {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Malformed entries are removed by the registrar cleanup loop.
			rc.logger.Warn().Err(err).Str("instance_id", instanceID).Str("service_type", serviceType).
				Msg("failed to unmarshal service info")
			continue
		}
		if info.SeenWithin(now, rc.serviceTimeout) {
			activeServices[instanceID] = info
		}
	}
	return activeServices, nil
}
