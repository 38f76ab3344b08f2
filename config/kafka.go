package config

import "time"

// KafkaConfig Kafka 配置。
// 社交事件（申请/同意/拒绝/撤回/删除好友）投递到 SocialEventTopic，供邮件等外部协作方消费。
type KafkaConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled" env:"ENABLED"`
	Brokers          []string      `json:"brokers" yaml:"brokers" env:"BROKERS" envSeparator:","`
	SocialEventTopic string        `json:"socialEventTopic" yaml:"socialEventTopic" env:"SOCIAL_EVENT_TOPIC"`
	BatchTimeout     time.Duration `json:"batchTimeout" yaml:"batchTimeout" env:"BATCH_TIMEOUT"`
	WriteTimeout     time.Duration `json:"writeTimeout" yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
}

// DefaultKafkaConfig 返回本地开发的默认 Kafka 配置。
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Enabled:          false,
		Brokers:          []string{"127.0.0.1:9092"},
		SocialEventTopic: "social.events",
		BatchTimeout:     10 * time.Millisecond,
		WriteTimeout:     3 * time.Second,
	}
}
