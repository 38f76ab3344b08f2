package util

import (
	"strings"

	"AlumniServer/pkg/ctxmeta"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXRequestID 请求链路 ID 的请求/响应头。
const HeaderXRequestID = "X-Request-ID"

// maxTraceIDLen 上游传入的 ID 超过该长度时不再沿用，防止日志被超长头污染。
const maxTraceIDLen = 128

// TraceLogger 为每个请求确定 trace_id：上游给了就沿用，没有就新生成。
// trace_id 同时写入 gin.Context、request ctx 与响应头。
func TraceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := strings.TrimSpace(c.GetHeader(HeaderXRequestID))
		if traceID == "" || len(traceID) > maxTraceIDLen {
			traceID = NewUUID()
		}

		c.Set(ctxmeta.KeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctxmeta.WithTraceID(c.Request.Context(), traceID))
		c.Header(HeaderXRequestID, traceID)

		c.Next()
	}
}

// NewUUID 生成随机 UUID 字符串。
func NewUUID() string {
	return uuid.NewString()
}
