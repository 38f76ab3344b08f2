package middleware

import (
	"AlumniServer/consts"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinRecovery 捕获 handler panic，记录日志后返回 500
// 客户端已断开（broken pipe / connection reset）时只记录日志，不再写响应
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			ctx := NewContextWithGin(c)
			if isBrokenPipe(rec) {
				logger.Warn(ctx, "客户端连接已断开",
					logger.String("path", c.Request.URL.Path),
					logger.Any("error", rec),
				)
				c.Abort()
				return
			}

			fields := []zap.Field{
				logger.String("path", c.Request.URL.Path),
				logger.Any("panic", rec),
			}
			if stack {
				fields = append(fields, logger.String("stack", string(debug.Stack())))
			}
			logger.Error(ctx, "请求处理 panic", fields...)
			result.Abort(c, http.StatusInternalServerError, consts.CodeInternalError)
		}()

		c.Next()
	}
}

func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var syscallErr *os.SyscallError
	if !errors.As(opErr.Err, &syscallErr) {
		return false
	}
	msg := strings.ToLower(syscallErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
