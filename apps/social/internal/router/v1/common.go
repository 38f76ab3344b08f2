package v1

import (
	"AlumniServer/apps/social/internal/middleware"
	"AlumniServer/apps/social/internal/service"
	"AlumniServer/consts"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// currentUser 取 JWT 中间件写入的用户 UUID
// 路由组已经挂了认证中间件，取不到说明路由配置有误
func currentUser(c *gin.Context) (string, bool) {
	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Abort(c, http.StatusUnauthorized, consts.CodeUnauthorized)
		return "", false
	}
	return userUUID, true
}

// pathUUID 读取路径中的对方 UUID
func pathUUID(c *gin.Context) (string, bool) {
	peer := strings.TrimSpace(c.Param("id"))
	if peer == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return "", false
	}
	return peer, true
}

// failFromService 按业务码返回失败响应
// 服务端错误已在 service 层记录，这里只补记非 BizError 的意外错误
func failFromService(ctx context.Context, c *gin.Context, op string, err error) {
	code := service.ExtractErrorCode(err)
	if consts.IsNonServerError(code) {
		// 业务逻辑失败（如用户不存在、已经是好友等）,属于正常流程
		result.Fail(c, nil, code)
		return
	}

	var bizErr *service.BizError
	if !errors.As(err, &bizErr) {
		logger.Error(ctx, op+"服务内部错误",
			logger.ErrorField("error", err),
		)
	}
	result.Fail(c, nil, code)
}
