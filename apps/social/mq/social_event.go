package mq

import (
	"context"
	"encoding/json"
	"time"

	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/kafka"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// ==================== 社交事件定义 ====================

type SocialEventType string

const (
	EventRequestSent      SocialEventType = "connection.request_sent"
	EventRequestAccepted  SocialEventType = "connection.request_accepted"
	EventRequestDeclined  SocialEventType = "connection.request_declined"
	EventRequestCancelled SocialEventType = "connection.request_cancelled"
	EventConnectionRemove SocialEventType = "connection.removed"
)

// SocialEvent 写入 Kafka 的社交事件，供邮件摘要等外部协作方消费
type SocialEvent struct {
	EventID    string          `json:"event_id"`
	Type       SocialEventType `json:"type"`
	ActorUUID  string          `json:"actor_uuid"`
	TargetUUID string          `json:"target_uuid"`
	OccurredAt time.Time       `json:"occurred_at"`
	TraceID    string          `json:"trace_id,omitempty"`
}

// BuildSocialEvent 构造事件，trace_id 取自 ctx
func BuildSocialEvent(ctx context.Context, typ SocialEventType, actorUUID, targetUUID string) SocialEvent {
	return SocialEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		ActorUUID:  actorUUID,
		TargetUUID: targetUUID,
		OccurredAt: time.Now().UTC(),
		TraceID:    ctxmeta.TraceID(ctx),
	}
}

// ==================== 发布者 ====================

// EventPublisher 社交事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event SocialEvent) error
}

// KafkaPublisher 基于 Kafka 生产者的发布实现
// 以 target_uuid 作为消息 key，同一用户收到的事件落在同一分区
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher 创建发布者
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event SocialEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Send(ctx, []byte(event.TargetUUID), value,
		kafkago.Header{Key: "event_type", Value: []byte(event.Type)},
		kafkago.Header{Key: "trace_id", Value: []byte(event.TraceID)},
	)
}

// NopPublisher Kafka 未启用时使用，丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SocialEvent) error { return nil }
