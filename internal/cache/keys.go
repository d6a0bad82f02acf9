package cache

import "strings"

const statsKeyPrefix = "taskhub:stats:v2:"

// StatsKey is the cache key for one owner's statistics. Bump the version
// segment whenever the cached payload changes shape.
func StatsKey(ownerID string) string {
	return statsKeyPrefix + "owner=" + strings.TrimSpace(ownerID)
}

// StatsVersionKey holds the owner's invalidation counter.
func StatsVersionKey(ownerID string) string {
	return StatsKey(ownerID) + ":gen"
}
