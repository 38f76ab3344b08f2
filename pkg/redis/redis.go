package redis

import (
	"context"
	"errors"
	"time"

	"AlumniServer/config"

	"github.com/redis/go-redis/v9"
)

var global *redis.Client

// ErrDisabled 配置关闭了 Redis。
var ErrDisabled = errors.New("redis disabled by config")

// Client 返回全局 Redis 客户端（未初始化或降级时为 nil）。
func Client() *redis.Client { return global }

// ReplaceGlobal 设置全局 Redis 客户端。
func ReplaceGlobal(c *redis.Client) { global = c }

// Build 创建 Redis 客户端并 PING 一次确认可用。
// 调用方在出错时应降级为无 Redis 模式，而不是终止启动。
func Build(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Disabled {
		return nil, ErrDisabled
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingTimeout := cfg.DialTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
