// shared/cluster/assignment_manager.go
package cluster

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cs2stats/stats-services/shared/registry"
	"github.com/rs/zerolog"
	"github.com/stathat/consistent"
)

// ActiveServiceLister is the part of the registry client the manager needs.
type ActiveServiceLister interface {
	GetActiveServices(ctx context.Context, serviceType string) (map[string]registry.ServiceInfo, error)
}

// ServiceAssignmentManager tells a service instance whether it owns a given work key
// (a cache key, for the stats warmer) using consistent hashing across active instances.
type ServiceAssignmentManager struct {
	registryClient ActiveServiceLister
	serviceID      string
	serviceType    string
	updateInterval time.Duration
	logger         zerolog.Logger

	chMux          sync.RWMutex // Protects consistentHash
	consistentHash *consistent.Consistent

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServiceAssignmentManager creates a manager whose ring initially holds only this instance.
func NewServiceAssignmentManager(
	registryClient ActiveServiceLister,
	serviceID, serviceType string,
	updateInterval time.Duration,
	logger zerolog.Logger,
) *ServiceAssignmentManager {
	ctx, cancel := context.WithCancel(context.Background())

	sam := &ServiceAssignmentManager{
		registryClient: registryClient,
		serviceID:      serviceID,
		serviceType:    serviceType,
		updateInterval: updateInterval,
		logger:         logger.With().Str("component", "assignment_manager").Logger(),
		consistentHash: consistent.New(),
		ctx:            ctx,
		cancel:         cancel,
	}
	sam.consistentHash.Add(serviceID)

	sam.logger.Info().
		Str("service_type", serviceType).
		Str("service_id", serviceID).
		Dur("update_interval", updateInterval).
		Msg("assignment manager initialized")
	return sam
}

// Start refreshes the ring immediately and then on every tick until Stop. Run it in a goroutine.
func (sam *ServiceAssignmentManager) Start() {
	ticker := time.NewTicker(sam.updateInterval)
	defer ticker.Stop()

	sam.Refresh(sam.ctx)

	for {
		select {
		case <-sam.ctx.Done():
			sam.logger.Info().Msg("assignment manager stopping")
			return
		case <-ticker.C:
			sam.Refresh(sam.ctx)
		}
	}
}

// Stop ends the refresh loop.
func (sam *ServiceAssignmentManager) Stop() {
	sam.cancel()
}

// Refresh rebuilds the ring when the set of active instances has changed.
// An empty registry answer keeps the current ring.
func (sam *ServiceAssignmentManager) Refresh(ctx context.Context) {
	activeServices, err := sam.registryClient.GetActiveServices(ctx, sam.serviceType)
	if err != nil {
		sam.logger.Error().Err(err).Msg("failed to get active services")
		return
	}
	if len(activeServices) == 0 {
		return
	}

	members := make([]string, 0, len(activeServices))
	for id := range activeServices {
		members = append(members, id)
	}
	slices.Sort(members)

	sam.chMux.Lock()
	defer sam.chMux.Unlock()

	currentMembers := sam.consistentHash.Members()
	slices.Sort(currentMembers)

	if !slices.Equal(members, currentMembers) {
		ring := consistent.New()
		ring.Set(members)
		sam.consistentHash = ring
		sam.logger.Info().Strs("members", members).Msg("consistent hash ring updated")
	}
}

// IsResponsible reports whether this instance owns key.
func (sam *ServiceAssignmentManager) IsResponsible(key string) (bool, error) {
	sam.chMux.RLock()
	defer sam.chMux.RUnlock()

	if len(sam.consistentHash.Members()) == 0 {
		return false, fmt.Errorf("consistent hash ring is empty for service type %s", sam.serviceType)
	}

	owner, err := sam.consistentHash.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to get responsible service for key %q: %w", key, err)
	}
	return owner == sam.serviceID, nil
}
