package middleware

import (
	"AlumniServer/consts"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 给 request ctx 设截止时间。
// handler 仍在当前 goroutine 执行，靠 gorm/redis 感知 ctx 取消提前返回；
// 到期且还没写响应时，补一个超时业务码。
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		logger.Warn(NewContextWithGin(c), "请求超时未响应",
			logger.String("route", c.FullPath()),
			logger.Duration("timeout", timeout),
		)
		result.Fail(c, nil, consts.CodeTimeoutError)
	}
}
