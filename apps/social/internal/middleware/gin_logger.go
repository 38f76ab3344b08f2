package middleware

import (
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/logger"
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowRequestThreshold = 2 * time.Second

// ginCtxKeys 中间件写进 gin.Context 的链路字段，以及对应的 ctx 写入函数。
var ginCtxKeys = []struct {
	key  string
	with func(context.Context, string) context.Context
}{
	{ctxmeta.KeyTraceID, ctxmeta.WithTraceID},
	{ctxmeta.KeyUserUUID, ctxmeta.WithUserUUID},
	{ctxmeta.KeyDeviceID, ctxmeta.WithDeviceID},
	{ctxmeta.KeyClientIP, ctxmeta.WithClientIP},
}

// NewContextWithGin 把 gin.Context 上的链路字段合并进 request ctx，handler 调 service 时使用。
func NewContextWithGin(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	for _, k := range ginCtxKeys {
		if v := c.GetString(k.key); v != "" {
			ctx = k.with(ctx, v)
		}
	}
	return ctx
}

// GinLogger 访问日志。5xx 与慢请求打 warn，其余只打 debug，生产环境默认看不到正常请求。
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		cost := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			logger.Int("status", status),
			logger.String("method", c.Request.Method),
			logger.String("route", route),
			logger.Duration("cost", cost),
		}

		ctx := NewContextWithGin(c)
		if status < 500 && cost <= slowRequestThreshold {
			logger.Debug(ctx, "请求完成", fields...)
			return
		}
		fields = append(fields,
			logger.String("query", c.Request.URL.RawQuery),
			logger.String("user_agent", c.Request.UserAgent()),
		)
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}
		logger.Warn(ctx, "慢请求或服务端错误", fields...)
	}
}
