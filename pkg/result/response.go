package result

import (
	"net/http"

	"AlumniServer/consts"
	"AlumniServer/pkg/ctxmeta"

	"github.com/gin-gonic/gin"
)

// Response 接口统一返回体。
// 业务接口一律 HTTP 200，成功与否看 Code；只有鉴权、限流这类网关语义的错误才带非 200 状态码。
type Response struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	TraceID string `json:"trace_id"`
}

func build(c *gin.Context, code int32, data any) Response {
	return Response{
		Code:    code,
		Message: consts.GetMessage(code),
		Data:    data,
		TraceID: ctxmeta.TraceIDFromGin(c),
	}
}

// Success 成功，data 原样放进 data 字段。
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, build(c, consts.CodeSuccess, data))
}

// Fail 业务失败，message 取错误码对应的文案。
func Fail(c *gin.Context, data any, code int32) {
	c.JSON(http.StatusOK, build(c, code, data))
}

// Abort 中间件用：按 httpStatus 写响应并中断后续 handler。
func Abort(c *gin.Context, httpStatus int, code int32) {
	c.AbortWithStatusJSON(httpStatus, build(c, code, nil))
}
