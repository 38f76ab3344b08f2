package middleware

import (
	"AlumniServer/consts"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/result"
	"AlumniServer/pkg/util"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// JWTAuthMiddleware 校验 Authorization: Bearer <token>。
// 缺头或格式不对回 CodeUnauthorized，签名/过期校验失败回 CodeInvalidToken，HTTP 状态均为 401。
// 通过后 user_uuid/device_id 写入 gin.Context 与 request ctx。
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		token := strings.TrimSpace(raw)
		if !ok || token == "" {
			result.Abort(c, http.StatusUnauthorized, consts.CodeUnauthorized)
			return
		}

		claims, err := util.ParseToken(token)
		if err != nil {
			result.Abort(c, http.StatusUnauthorized, consts.CodeInvalidToken)
			return
		}

		c.Set(ctxmeta.KeyUserUUID, claims.UserUUID)
		c.Set(ctxmeta.KeyDeviceID, claims.DeviceID)
		ctx := ctxmeta.WithDeviceID(ctxmeta.WithUserUUID(c.Request.Context(), claims.UserUUID), claims.DeviceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserUUID 当前登录用户，未经过 JWTAuthMiddleware 时返回 false。
func GetUserUUID(c *gin.Context) (string, bool) {
	v := c.GetString(ctxmeta.KeyUserUUID)
	return v, v != ""
}

// GetDeviceID 当前请求所属设备。
func GetDeviceID(c *gin.Context) (string, bool) {
	v := c.GetString(ctxmeta.KeyDeviceID)
	return v, v != ""
}
