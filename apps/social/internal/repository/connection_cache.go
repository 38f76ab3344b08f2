package repository

import (
	"AlumniServer/consts/redisKey"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/logger"
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheOpTimeout      = 100 * time.Millisecond
	cacheRebuildTimeout = 3 * time.Second
)

// getConnectionSetCache 读取好友集合缓存
// 返回值: peers(好友列表，升序), hit(缓存是否命中)
func (r *connectionRepositoryImpl) getConnectionSetCache(ctx context.Context, userUUID string) ([]string, bool) {
	if r.redisClient == nil || userUUID == "" {
		return nil, false
	}

	cacheKey := rediskey.ConnectionSetKey(userUUID)
	pipe := r.redisClient.Pipeline()
	existsCmd := pipe.Exists(ctx, cacheKey)
	membersCmd := pipe.SMembers(ctx, cacheKey)

	// 概率续期优化：1% 的概率在读取时顺便续期
	if getRandomBool(0.01) {
		pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.ConnectionSetTTL))
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			LogRedisError(ctx, err)
		}
		return nil, false
	}
	if existsCmd.Val() == 0 {
		return nil, false
	}

	members := membersCmd.Val()
	peers := make([]string, 0, len(members))
	for _, m := range members {
		if m == rediskey.EmptyPlaceholder {
			continue
		}
		peers = append(peers, m)
	}
	sort.Strings(peers)
	return peers, true
}

// checkConnectionCache 检查单侧缓存
// 返回值: hit(该用户缓存是否存在), isMember(是否包含对方)
func (r *connectionRepositoryImpl) checkConnectionCache(ctx context.Context, userUUID, peerUUID string) (bool, bool) {
	if r.redisClient == nil || userUUID == "" || peerUUID == "" {
		return false, false
	}

	cacheKey := rediskey.ConnectionSetKey(userUUID)
	pipe := r.redisClient.Pipeline()
	existsCmd := pipe.Exists(ctx, cacheKey)
	memberCmd := pipe.SIsMember(ctx, cacheKey, peerUUID)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			LogRedisError(ctx, err)
		}
		return false, false
	}
	if existsCmd.Val() == 0 {
		return false, false
	}
	return true, memberCmd.Val()
}

// luaFillConnectionSet 版本号未变时才回填好友集合
//
//	KEYS[1]: 好友集合 key
//	KEYS[2]: 版本号 key
//	ARGV[1]: 回源前读到的版本号，不存在时为空串
//	ARGV[2]: 过期秒数
//	ARGV[3:]: 集合成员
//
// 返回 1 写入，0 版本已变放弃
var luaFillConnectionSet = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur == false then
    cur = ''
end
if cur ~= ARGV[1] then
    return 0
end
redis.call('DEL', KEYS[1])
redis.call('SADD', KEYS[1], unpack(ARGV, 3))
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return 1
`)

// connectionCacheVersion 回源数据库之前读取版本号
// ok=false 表示 Redis 不可用，本次不回填
func (r *connectionRepositoryImpl) connectionCacheVersion(ctx context.Context, userUUID string) (string, bool) {
	if r.redisClient == nil || userUUID == "" {
		return "", false
	}
	ver, err := r.redisClient.Get(ctx, rediskey.ConnectionVersionKey(userUUID)).Result()
	if err == redis.Nil {
		return "", true
	}
	if err != nil {
		LogRedisError(ctx, err)
		return "", false
	}
	return ver, true
}

// fillConnectionCache 以版本号为条件回填好友集合
// 回源之后若关系发生过变更，版本号已被 INCR，旧数据不会写回缓存。
// 空集合写入占位符并使用短 TTL，防止缓存穿透
func (r *connectionRepositoryImpl) fillConnectionCache(ctx context.Context, userUUID, version string, peers []string) (bool, error) {
	ttl := getRandomExpireTime(rediskey.ConnectionSetTTL)
	members := peers
	if len(members) == 0 {
		members = []string{rediskey.EmptyPlaceholder}
		ttl = rediskey.ConnectionSetEmptyTTL
	}

	args := make([]interface{}, 0, len(members)+2)
	args = append(args, version, int64(ttl/time.Second))
	for _, m := range members {
		args = append(args, m)
	}

	keys := []string{rediskey.ConnectionSetKey(userUUID), rediskey.ConnectionVersionKey(userUUID)}
	written, err := luaFillConnectionSet.Run(ctx, r.redisClient, keys, args...).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// rebuildConnectionCacheAsync 异步回填好友集合缓存
func (r *connectionRepositoryImpl) rebuildConnectionCacheAsync(ctx context.Context, userUUID, version string, peers []string) {
	if r.redisClient == nil || userUUID == "" {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		written, err := r.fillConnectionCache(runCtx, userUUID, version, peers)
		if err != nil {
			LogRedisError(runCtx, err)
			return
		}
		if !written {
			logger.Debug(runCtx, "好友关系已变更，放弃回填缓存",
				logger.String("user_uuid", userUUID),
			)
		}
	}, cacheRebuildTimeout)
}

// invalidateConnectionCache 递增双方版本号并删除好友集合缓存
// 同步执行保证变更后的下一次读取回源数据库，进行中的回填也会因版本号变化而放弃；
// 失败时交给协程池再试一次
func (r *connectionRepositoryImpl) invalidateConnectionCache(ctx context.Context, userUUIDs ...string) {
	if r.redisClient == nil || len(userUUIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userUUIDs))
	for _, u := range userUUIDs {
		keys = append(keys, rediskey.ConnectionSetKey(u))
	}

	delCtx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	err := r.bumpConnectionVersions(delCtx, userUUIDs, keys)
	cancel()
	if err == nil {
		return
	}

	logger.Warn(ctx, "删除好友缓存失败，异步重试",
		logger.Strings("keys", keys),
		logger.ErrorField("error", err),
	)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.bumpConnectionVersions(runCtx, userUUIDs, keys); err != nil {
			LogRedisError(runCtx, WrapRedisError(err))
		}
	}, cacheRebuildTimeout)
}

func (r *connectionRepositoryImpl) bumpConnectionVersions(ctx context.Context, userUUIDs, setKeys []string) error {
	pipe := r.redisClient.TxPipeline()
	for _, u := range userUUIDs {
		verKey := rediskey.ConnectionVersionKey(u)
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, rediskey.ConnectionVersionTTL)
	}
	pipe.Del(ctx, setKeys...)
	_, err := pipe.Exec(ctx)
	return err
}
