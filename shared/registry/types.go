// shared/registry/types.go
package registry

import "time"

// ServiceInfo represents the details of a registered service instance.
// This information is stored in Redis and used for service discovery.
type ServiceInfo struct {
	ServiceID   string            `json:"serviceId"`   // Unique ID for this specific instance
	ServiceType string            `json:"serviceType"` // e.g. "match-service", "stats-service"
	IP          string            `json:"ip"`
	Port        int               `json:"port"`
	LastSeen    int64             `json:"last_seen"` // Unix milliseconds
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SeenWithin reports whether the last heartbeat is no older than ttl at now.
func (si ServiceInfo) SeenWithin(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(si.LastSeen)) <= ttl
}
