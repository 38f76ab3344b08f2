package rediskey

import (
	"strings"
	"time"
)

// 所有 key 以业务前缀开头，便于在共享 Redis 中按前缀排查。
const (
	prefixDeviceActive = "alumni:device:active"
	prefixConnections  = "alumni:connections"
	prefixConnVersion  = "alumni:connections:ver"
	prefixRateLimit    = "alumni:ratelimit:user"
)

const (
	// DeviceActiveTTL 设备最后活跃时间 Hash 的存活时间，每次心跳续期。
	DeviceActiveTTL = 45 * 24 * time.Hour

	// ConnectionSetTTL 连接集合缓存，写路径会直接删除，TTL 只兜底。
	ConnectionSetTTL = 24 * time.Hour
	// ConnectionSetEmptyTTL 没有任何连接时只缓存占位成员，时间要短。
	ConnectionSetEmptyTTL = 5 * time.Minute
	// ConnectionVersionTTL 连接集合版本号，每次关系变更续期，需长于缓存 TTL。
	ConnectionVersionTTL = 7 * 24 * time.Hour

	// UserRateLimitMinTTL 令牌桶 key 的最短存活时间，桶再小也不低于它。
	UserRateLimitMinTTL = time.Minute
)

// EmptyPlaceholder 空集合的占位成员，避免反复回源。
const EmptyPlaceholder = "__EMPTY__"

func join(prefix, id string) string {
	return strings.Join([]string{prefix, id}, ":")
}

// DeviceActiveKey Hash，field 为 device_id，value 为最后活跃的 unix 秒。
func DeviceActiveKey(userUUID string) string {
	return join(prefixDeviceActive, userUUID)
}

// ConnectionSetKey Set，成员为已建立连接的对方 uuid。
func ConnectionSetKey(userUUID string) string {
	return join(prefixConnections, userUUID)
}

// ConnectionVersionKey String，关系变更时 INCR，回填缓存前比对。
func ConnectionVersionKey(userUUID string) string {
	return join(prefixConnVersion, userUUID)
}

// UserRateLimitKey 单个用户的令牌桶，Hash{tokens, last_time}。
func UserRateLimitKey(userUUID string) string {
	return join(prefixRateLimit, userUUID)
}
