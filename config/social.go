package config

import "time"

// SocialConfig social 服务自身的运行参数。
type SocialConfig struct {
	Addr              string        `json:"addr" yaml:"addr" env:"ADDR"`
	GinMode           string        `json:"ginMode" yaml:"ginMode" env:"GIN_MODE"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout" env:"READ_HEADER_TIMEOUT"`
	ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout" env:"IDLE_TIMEOUT"`
	RequestTimeout    time.Duration `json:"requestTimeout" yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`

	// 推送相关
	PushTimeout   time.Duration `json:"pushTimeout" yaml:"pushTimeout" env:"PUSH_TIMEOUT"`       // 单次实时推送最长等待
	ReplayTimeout time.Duration `json:"replayTimeout" yaml:"replayTimeout" env:"REPLAY_TIMEOUT"` // 上线补推离线通知的任务超时

	// 鉴权
	JWTSecret string        `json:"jwtSecret" yaml:"jwtSecret" env:"JWT_SECRET"`
	JWTExpire time.Duration `json:"jwtExpire" yaml:"jwtExpire" env:"JWT_EXPIRE"`

	// 用户级限流（令牌桶）
	RateLimit float64 `json:"rateLimit" yaml:"rateLimit" env:"RATE_LIMIT"`
	RateBurst int     `json:"rateBurst" yaml:"rateBurst" env:"RATE_BURST"`

	// 用户昵称本地缓存
	DirectoryCacheSize int           `json:"directoryCacheSize" yaml:"directoryCacheSize" env:"DIRECTORY_CACHE_SIZE"`
	DirectoryCacheTTL  time.Duration `json:"directoryCacheTTL" yaml:"directoryCacheTTL" env:"DIRECTORY_CACHE_TTL"`

	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","` // 跨域白名单，为空时放行所有来源

	MetricsAddr string `json:"metricsAddr" yaml:"metricsAddr" env:"METRICS_ADDR"` // 为空时 /metrics 挂在主端口
	NodeID      int64  `json:"nodeId" yaml:"nodeId" env:"NODE_ID"`                // 雪花节点号 0~1023，多实例需唯一
}

// DefaultSocialConfig 返回本地开发的默认配置。
func DefaultSocialConfig() SocialConfig {
	return SocialConfig{
		Addr:               ":8080",
		GinMode:            "release",
		ReadHeaderTimeout:  5 * time.Second,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
		RequestTimeout:     10 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		PushTimeout:        2 * time.Second,
		ReplayTimeout:      30 * time.Second,
		JWTSecret:          "alumni-dev-secret",
		JWTExpire:          24 * time.Hour,
		RateLimit:          20,
		RateBurst:          40,
		DirectoryCacheSize: 10000,
		DirectoryCacheTTL:  5 * time.Minute,
		NodeID:             1,
	}
}
