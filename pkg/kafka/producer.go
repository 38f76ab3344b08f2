package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AlumniServer/config"
	"AlumniServer/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// ErrBreakerOpen 熔断器打开，消息未投递。
var ErrBreakerOpen = errors.New("kafka producer circuit breaker is open")

// MessageWriter 抽象 kafka.Writer，便于单测替换。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者。
// 写入经过熔断器保护：Broker 连续故障时快速失败，避免异步任务堆积在写超时上。
type Producer struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker
	topic   string
}

// NewProducer 根据配置创建生产者。
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // 同一 key（接收方 uuid）落到同一分区，保证单用户事件有序
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		ErrorLogger:            NewZapLoggerAdapter(logger.L()),
	}
	return NewProducerWithWriter(writer, topic)
}

// NewProducerWithWriter 使用自定义 writer 创建生产者。
func NewProducerWithWriter(writer MessageWriter, topic string) *Producer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-" + topic,
		MaxRequests: 3,                // 半开状态下最多允许 3 个请求尝试
		Interval:    30 * time.Second, // 清除计数的时间间隔
		Timeout:     30 * time.Second, // 熔断器开启后多久尝试进入半开状态
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 失败率超过 50% 且请求数不少于 5 次时触发熔断
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "熔断器状态变化",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return &Producer{writer: writer, breaker: breaker, topic: topic}
}

// Topic 返回写入的 topic。
func (p *Producer) Topic() string { return p.topic }

// Send 发送一条消息。
func (p *Producer) Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, kafka.Message{
			Key:     key,
			Value:   value,
			Headers: headers,
			Time:    time.Now(),
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBreakerOpen
	}
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	return nil
}

// Close 刷新缓冲并关闭连接。
func (p *Producer) Close() error {
	return p.writer.Close()
}
