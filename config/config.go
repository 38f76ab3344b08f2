package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量统一前缀，例如 ALUMNI_DB_DSN、ALUMNI_SOCIAL_ADDR。
const EnvPrefix = "ALUMNI_"

// Config 进程级配置汇总。
type Config struct {
	Logger   LoggerConfig   `json:"logger" yaml:"logger" envPrefix:"LOG_"`
	Database DatabaseConfig `json:"database" yaml:"database" envPrefix:"DB_"`
	Redis    RedisConfig    `json:"redis" yaml:"redis" envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `json:"kafka" yaml:"kafka" envPrefix:"KAFKA_"`
	Async    AsyncConfig    `json:"async" yaml:"async" envPrefix:"ASYNC_"`
	Social   SocialConfig   `json:"social" yaml:"social" envPrefix:"SOCIAL_"`
}

// Default 返回全部默认配置。
func Default() Config {
	return Config{
		Logger:   DefaultLoggerConfig(),
		Database: DefaultDatabaseConfig(),
		Redis:    DefaultRedisConfig(),
		Kafka:    DefaultKafkaConfig(),
		Async:    DefaultAsyncConfig(),
		Social:   DefaultSocialConfig(),
	}
}

// Load 按 默认值 -> YAML 文件 -> 环境变量 的顺序叠加配置。
// path 为空或文件不存在时跳过 YAML。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 校验启动必需项。
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Social.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Social.PushTimeout <= 0 {
		return errors.New("push timeout must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required when kafka is enabled")
	}
	return nil
}
