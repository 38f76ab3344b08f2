package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "social.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := writeConfigFile(t, `
database:
  driver: sqlite
  dsn: "file:alumni.db"
social:
  addr: ":9000"
  pushTimeout: 500ms
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:alumni.db", cfg.Database.DSN)
	assert.Equal(t, ":9000", cfg.Social.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Social.PushTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	// 未覆盖的字段保持默认值
	assert.Equal(t, DefaultRedisConfig(), cfg.Redis)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeConfigFile(t, `
social:
  addr: ":9000"
`)
	t.Setenv("ALUMNI_SOCIAL_ADDR", ":9100")
	t.Setenv("ALUMNI_SOCIAL_PUSH_TIMEOUT", "3s")
	t.Setenv("ALUMNI_KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("ALUMNI_REDIS_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Social.Addr)
	assert.Equal(t, 3*time.Second, cfg.Social.PushTimeout)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Disabled)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "database:\n  driver: oracle\n"},
		{name: "empty dsn", body: "database:\n  dsn: \"\"\n"},
		{name: "zero push timeout", body: "social:\n  pushTimeout: 0s\n"},
		{name: "bad yaml", body: "social: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "etc", "social.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "social.events", cfg.Kafka.SocialEventTopic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Social.PushTimeout)
	assert.Equal(t, ":9090", cfg.Social.MetricsAddr)
	assert.Empty(t, cfg.Social.AllowedOrigins)
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("ALUMNI_SOCIAL_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Social.AllowedOrigins)
}
