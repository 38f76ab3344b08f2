package middleware

import (
	"AlumniServer/consts"
	rediskey "AlumniServer/consts/redisKey"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	redisLimitTimeout   = 50 * time.Millisecond
	localLimiterSize    = 10000
	localLimiterIdleTTL = 10 * time.Minute
)

// luaTokenBucket Redis 令牌桶脚本，原子地补充令牌并尝试消耗
//
//	KEYS[1]: 限流 key
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 本次消耗的令牌数
//	ARGV[5]: key 最短存活秒数
//
// 返回 1 允许，0 拒绝
var luaTokenBucket = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local min_ttl = tonumber(ARGV[5])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if tokens == nil then
    tokens = capacity
end
if last_time == nil then
    last_time = now
end

-- 只有产生了新令牌才推进时间，防止精度丢失
local elapsed = math.max(0, now - last_time)
local refill = math.floor((elapsed * rate) / 1000)
if refill > 0 then
    tokens = math.min(capacity, tokens + refill)
    last_time = now
end

local allowed = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_time', last_time)

local fill_time = math.ceil(capacity / rate)
redis.call('EXPIRE', key, math.max(min_ttl, fill_time * 2))

return allowed
`)

// RateLimiter 用户级令牌桶限流器
// 优先使用 Redis（多实例共享配额），Redis 未配置或异常时降级到进程内令牌桶
type RateLimiter struct {
	redisClient *redis.Client
	rate        float64 // 每秒产生的令牌数
	burst       int     // 令牌桶容量
	local       *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter 创建限流器，redisClient 可为 nil
func NewRateLimiter(redisClient *redis.Client, r float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		redisClient: redisClient,
		rate:        r,
		burst:       burst,
		local:       expirable.NewLRU[string, *rate.Limiter](localLimiterSize, nil, localLimiterIdleTTL),
	}
}

// Allow 判断 key 对应的桶是否还有令牌
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.redisClient != nil {
		allowed, err := l.allowRedis(ctx, key)
		if err == nil {
			if !allowed {
				rateLimitedTotal.WithLabelValues("redis").Inc()
			}
			return allowed
		}
		logger.Warn(ctx, "Redis 限流检查失败，降级为本地限流",
			logger.String("key", key),
			logger.ErrorField("error", err),
		)
	}

	allowed := l.localLimiter(key).Allow()
	if !allowed {
		rateLimitedTotal.WithLabelValues("local").Inc()
	}
	return allowed
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	// 独立的短超时，Redis 响应慢不能拖慢正常请求
	redisCtx, cancel := context.WithTimeout(ctx, redisLimitTimeout)
	defer cancel()

	allowed, err := luaTokenBucket.Run(redisCtx, l.redisClient, []string{key},
		time.Now().UnixMilli(), l.burst, l.rate, 1, int(rediskey.UserRateLimitMinTTL.Seconds()),
	).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

func (l *RateLimiter) localLimiter(key string) *rate.Limiter {
	if limiter, ok := l.local.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(l.rate), l.burst)
	// 并发首次访问可能各建一个，后写入的覆盖，误差可接受
	l.local.Add(key, limiter)
	return limiter
}

// UserRateLimitMiddleware 基于用户 UUID 的限流中间件，需要在 JWTAuthMiddleware 之后使用
func UserRateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userUUID, ok := GetUserUUID(c)
		if limiter == nil || !ok {
			c.Next()
			return
		}

		ctx := NewContextWithGin(c)
		if !limiter.Allow(ctx, rediskey.UserRateLimitKey(userUUID)) {
			logger.Warn(ctx, "用户请求被限流",
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			result.Abort(c, http.StatusTooManyRequests, consts.CodeTooManyRequests)
			return
		}

		c.Next()
	}
}
