package kafka

import (
	"fmt"

	"go.uber.org/zap"
)

// ZapLoggerAdapter 将 kafka-go 的 Logger 接口桥接到 zap。
type ZapLoggerAdapter struct {
	l *zap.Logger
}

// NewZapLoggerAdapter 创建适配器，l 为 nil 时丢弃日志。
func NewZapLoggerAdapter(l *zap.Logger) *ZapLoggerAdapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLoggerAdapter{l: l}
}

// Printf 实现 kafka.Logger。
func (a *ZapLoggerAdapter) Printf(format string, args ...interface{}) {
	a.l.Warn(fmt.Sprintf(format, args...), zap.String("component", "kafka"))
}
