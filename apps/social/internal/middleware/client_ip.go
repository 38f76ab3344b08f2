package middleware

import (
	"AlumniServer/pkg/ctxmeta"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetClientIP 取调用方 IP：先信任前置代理写的 X-Real-IP，
// 再取 X-Forwarded-For 的第一跳，都不可用时交给 gin 的 ClientIP。
// 头里的值必须能解析成 IP，否则忽略。
func GetClientIP(c *gin.Context) string {
	candidates := []string{c.GetHeader("X-Real-IP")}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	for _, raw := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(raw)); err == nil {
			return addr.String()
		}
	}
	return c.ClientIP()
}

// ClientIPMiddleware 把调用方 IP 写进 gin.Context 与 request ctx。
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := GetClientIP(c)
		c.Set(ctxmeta.KeyClientIP, ip)
		c.Request = c.Request.WithContext(ctxmeta.WithClientIP(c.Request.Context(), ip))
		c.Next()
	}
}
