package config

import "time"

// RedisConfig Redis 配置。
// Redis 只承担缓存与活跃时间记录，不可用时服务降级为纯数据库模式。
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr" env:"ADDR"`
	Password     string        `json:"password" yaml:"password" env:"PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"DB"`
	PoolSize     int           `json:"poolSize" yaml:"poolSize" env:"POOL_SIZE"`
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	Disabled     bool          `json:"disabled" yaml:"disabled" env:"DISABLED"`
}

// DefaultRedisConfig 返回本地开发的默认 Redis 配置。
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "127.0.0.1:6379",
		DB:           0,
		PoolSize:     50,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
	}
}
