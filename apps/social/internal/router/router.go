package router

import (
	"AlumniServer/apps/social/internal/handler"
	"AlumniServer/apps/social/internal/middleware"
	v1 "AlumniServer/apps/social/internal/router/v1"
	"AlumniServer/pkg/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options 路由装配参数
type Options struct {
	FriendHandler       *v1.FriendHandler
	NotificationHandler *v1.NotificationHandler
	WSHandler           *handler.WSHandler
	RateLimiter         *middleware.RateLimiter
	RequestTimeout      time.Duration
	AllowedOrigins      []string
	ExposeMetrics       bool // false 时 /metrics 由独立端口提供
}

// InitRouter 初始化路由
func InitRouter(opts Options) *gin.Engine {
	v1.RegisterValidators()
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware(opts.AllowedOrigins))

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// WebSocket 接入（握手参数自带 token，不走 JWT 头认证；长连接不加请求超时）
	if opts.WSHandler != nil {
		r.GET("/ws", opts.WSHandler.ServeWS)
	}

	api := r.Group("/api/v1")
	auth := api.Group("/auth")
	auth.Use(middleware.JWTAuthMiddleware())
	auth.Use(middleware.UserRateLimitMiddleware(opts.RateLimiter))
	auth.Use(middleware.TimeoutMiddleware(opts.RequestTimeout))

	// 好友关系
	if h := opts.FriendHandler; h != nil {
		friend := auth.Group("/friend")
		{
			friend.POST("/send/:id", h.SendRequest)
			friend.POST("/accept/:id", h.AcceptRequest)
			friend.POST("/reject/:id", h.DeclineRequest)
			friend.POST("/cancel/:id", h.CancelRequest)
			friend.DELETE("/remove/:id", h.Unfriend)
			friend.GET("/list", h.ListConnections)
			friend.GET("/requests/incoming", h.ListPendingIncoming)
			friend.GET("/requests/outgoing", h.ListPendingOutgoing)
			friend.GET("/status/:id", h.RelationStatus)
		}
	}

	// 通知
	if h := opts.NotificationHandler; h != nil {
		notifications := auth.Group("/notifications")
		{
			notifications.GET("", h.GetNotifications)
			notifications.GET("/unread-count", h.GetUnreadCount)
			notifications.PUT("/mark-read", h.MarkRead)
			notifications.PUT("/mark-all-read", h.MarkAllRead)
			notifications.POST("/deliver-offline", h.DeliverOffline)
			notifications.DELETE("/:notificationId", h.DeleteNotification)
		}
	}

	return r
}
