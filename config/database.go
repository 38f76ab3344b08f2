package config

import "time"

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DatabaseConfig 数据库配置。
// Driver=sqlite 仅用于本地开发与单测，生产固定使用 mysql。
// Replicas 非空时通过 dbresolver 将列表/计数类读请求分流到从库。
type DatabaseConfig struct {
	Driver          string        `json:"driver" yaml:"driver" env:"DRIVER"`
	DSN             string        `json:"dsn" yaml:"dsn" env:"DSN"`
	Replicas        []string      `json:"replicas" yaml:"replicas" env:"REPLICAS" envSeparator:","`
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime" env:"CONN_MAX_LIFETIME"`
	SlowThreshold   time.Duration `json:"slowThreshold" yaml:"slowThreshold" env:"SLOW_THRESHOLD"` // 慢 SQL 阈值
	AutoMigrate     bool          `json:"autoMigrate" yaml:"autoMigrate" env:"AUTO_MIGRATE"`
}

// DefaultDatabaseConfig 返回本地开发的默认数据库配置。
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          DriverMySQL,
		DSN:             "root:123456@tcp(127.0.0.1:3306)/alumni?charset=utf8mb4&parseTime=True&loc=Local",
		MaxOpenConns:    100,
		MaxIdleConns:    20,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
		AutoMigrate:     true,
	}
}
