package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders = "Authorization, Content-Type, X-Request-ID"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

// CorsMiddleware 跨域处理。
// allowedOrigins 为空时放行任意来源；带凭据请求不允许 *，所以回写具体的 Origin。
// OPTIONS 预检直接 204。
func CorsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
