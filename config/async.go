package config

import "time"

// AsyncConfig 后台任务池（ants）参数。
// 缓存重建、社交事件投递、上线补推共用这一个池。
type AsyncConfig struct {
	PoolSize         int           `json:"poolSize" yaml:"poolSize" env:"POOL_SIZE"`                         // worker 上限
	MaxBlockingTasks int           `json:"maxBlockingTasks" yaml:"maxBlockingTasks" env:"MAX_BLOCKING_TASKS"` // 池满时允许排队的提交数，0 不限
	ExpiryDuration   time.Duration `json:"expiryDuration" yaml:"expiryDuration" env:"EXPIRY_DURATION"`       // 空闲 worker 回收间隔
	Nonblocking      bool          `json:"nonblocking" yaml:"nonblocking" env:"NONBLOCKING"`                 // 池满时直接返回错误而不是等待
	ReleaseTimeout   time.Duration `json:"releaseTimeout" yaml:"releaseTimeout" env:"RELEASE_TIMEOUT"`       // 退出时等待在途任务的上限
}

// DefaultAsyncConfig 单实例部署的默认值。
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		PoolSize:         512,
		MaxBlockingTasks: 0,
		ExpiryDuration:   10 * time.Second,
		Nonblocking:      false,
		ReleaseTimeout:   5 * time.Second,
	}
}
