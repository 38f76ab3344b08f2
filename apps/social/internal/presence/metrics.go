package presence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// onlineChannels 当前在线通道数
	onlineChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "alumni",
		Subsystem: "presence",
		Name:      "online_channels",
		Help:      "Number of users with a registered realtime channel",
	})

	// replacedChannels 同一用户重复连接导致旧通道被替换的次数
	replacedChannels = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alumni",
		Subsystem: "presence",
		Name:      "replaced_channels_total",
		Help:      "Total channels replaced by a newer registration of the same user",
	})
)
