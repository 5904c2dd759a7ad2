// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix is the prefix of the Redis hash holding one service type's instances.
	// Full key: "services:<serviceType>", e.g. "services:stats-service".
	RedisRegistryHashPrefix = "services:"

	// Service types registered by the binaries in this repository.
	MatchServiceType = "match-service"
	StatsServiceType = "stats-service"
)

func hashKey(serviceType string) string {
	return RedisRegistryHashPrefix + serviceType
}
