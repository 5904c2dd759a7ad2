// shared/registry/registrar.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cs2stats/stats-services/shared/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ServiceRegistrar handles the self-registration and heartbeating of a service instance.
type ServiceRegistrar struct {
	redisClient redis.UniversalClient
	serviceType string
	cfg         *config.CommonConfig
	serviceID   string
	logger      zerolog.Logger
	now         func() time.Time
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewServiceRegistrar creates a new ServiceRegistrar with a fresh instance ID.
func NewServiceRegistrar(redisClient redis.UniversalClient, serviceType string, cfg *config.CommonConfig, logger zerolog.Logger) *ServiceRegistrar {
	serviceID := fmt.Sprintf("%s-%s", serviceType, uuid.New().String())

	return &ServiceRegistrar{
		redisClient: redisClient,
		serviceType: serviceType,
		cfg:         cfg,
		serviceID:   serviceID,
		logger:      logger.With().Str("component", "registrar").Str("service_id", serviceID).Logger(),
		now:         time.Now,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start begins registration and heartbeating in a goroutine.
func (sr *ServiceRegistrar) Start() {
	sr.logger.Info().
		Str("service_type", sr.serviceType).
		Str("ip", sr.cfg.ServiceIP).
		Int("port", sr.cfg.ServicePort).
		Msg("starting service registrar")

	go sr.run()
}

// Stop signals the registrar to stop, waits for it and removes this instance from the registry.
func (sr *ServiceRegistrar) Stop() {
	sr.logger.Info().Msg("stopping service registrar")
	close(sr.stopChan)
	<-sr.doneChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sr.redisClient.HDel(ctx, hashKey(sr.serviceType), sr.serviceID).Err(); err != nil {
		sr.logger.Error().Err(err).Msg("failed to remove service from registry on shutdown")
		return
	}
	sr.logger.Info().Msg("service removed from registry")
}

func (sr *ServiceRegistrar) run() {
	defer close(sr.doneChan)

	ticker := time.NewTicker(sr.cfg.HeartbeatInterval)
	defer ticker.Stop()

	sr.registerService(context.Background())

	var cleanup <-chan time.Time
	if sr.cfg.RegistryCleanupInterval > 0 {
		cleanupTicker := time.NewTicker(sr.cfg.RegistryCleanupInterval)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	for {
		select {
		case <-ticker.C:
			sr.registerService(context.Background())
		case <-cleanup:
			sr.performCleanup(context.Background())
		case <-sr.stopChan:
			return
		}
	}
}

// registerService writes this instance's heartbeat.
func (sr *ServiceRegistrar) registerService(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	serviceInfo := ServiceInfo{
		ServiceID:   sr.serviceID,
		ServiceType: sr.serviceType,
		IP:          sr.cfg.ServiceIP,
		Port:        sr.cfg.ServicePort,
		LastSeen:    sr.now().UnixMilli(),
		Metadata:    map[string]string{"version": "1.0"},
	}

	infoJSON, err := json.Marshal(serviceInfo)
	if err != nil {
		sr.logger.Error().Err(err).Msg("failed to marshal service info")
		return
	}

	if err := sr.redisClient.HSet(ctx, hashKey(sr.serviceType), sr.serviceID, infoJSON).Err(); err != nil {
		sr.logger.Error().Err(err).Msg("failed to heartbeat service")
		return
	}
	sr.logger.Debug().Msg("heartbeat sent")
}

// performCleanup removes stale and corrupt entries of this service type.
func (sr *ServiceRegistrar) performCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	key := hashKey(sr.serviceType)
	results, err := sr.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		sr.logger.Error().Err(err).Msg("cleanup failed to list services")
		return
	}

	now := sr.now()
	for instanceID, infoJSON := range results {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			sr.logger.Warn().Err(err).Str("instance_id", instanceID).Msg("deleting corrupt registry entry")
			if delErr := sr.redisClient.HDel(ctx, key, instanceID).Err(); delErr != nil {
				sr.logger.Error().Err(delErr).Str("instance_id", instanceID).Msg("failed to delete corrupt entry")
			}
			continue
		}

		if !info.SeenWithin(now, sr.cfg.HeartbeatTTL) {
			if delErr := sr.redisClient.HDel(ctx, key, instanceID).Err(); delErr != nil {
				sr.logger.Error().Err(delErr).Str("instance_id", instanceID).Msg("failed to delete stale service")
				continue
			}
			sr.logger.Info().Str("instance_id", instanceID).Msg("removed stale service from registry")
		}
	}
}

// GetServiceID returns the unique ID assigned to this service instance.
func (sr *ServiceRegistrar) GetServiceID() string {
	return sr.serviceID
}

// GetServiceType returns the type of this service instance.
func (sr *ServiceRegistrar) GetServiceType() string {
	return sr.serviceType
}
