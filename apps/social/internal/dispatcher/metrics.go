package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeDelivered  = "delivered"
	outcomeOffline    = "offline"
	outcomePushFailed = "push_failed"
	outcomeError      = "error"
)

var (
	// dispatchTotal 通知分发结果
	// Labels: type(通知类型), outcome(delivered, offline, push_failed, error)
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alumni",
		Subsystem: "dispatcher",
		Name:      "notifications_total",
		Help:      "Total notifications dispatched by type and outcome",
	}, []string{"type", "outcome"})

	// pushDuration 单次推送耗时
	// Labels: event, status(success, error)
	pushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "alumni",
		Subsystem: "dispatcher",
		Name:      "push_duration_seconds",
		Help:      "Realtime push latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"event", "status"})

	// replayedTotal 上线补推成功的通知数量
	replayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alumni",
		Subsystem: "dispatcher",
		Name:      "replayed_notifications_total",
		Help:      "Total pending offline notifications replayed on reconnect",
	})
)
