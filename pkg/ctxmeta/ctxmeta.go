package ctxmeta

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ctxKey 私有 key 类型，避免与其他包写入的 context 值冲突。
type ctxKey string

const (
	KeyTraceID  = "trace_id"
	KeyUserUUID = "user_uuid"
	KeyDeviceID = "device_id"
	KeyClientIP = "client_ip"
)

// WithTraceID 写入 trace_id。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyTraceID), traceID)
}

// WithUserUUID 写入当前用户 uuid。
func WithUserUUID(ctx context.Context, userUUID string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyUserUUID), userUUID)
}

// WithDeviceID 写入设备 id。
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyDeviceID), deviceID)
}

// WithClientIP 写入客户端 IP。
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyClientIP), clientIP)
}

func TraceID(ctx context.Context) string  { return stringValue(ctx, KeyTraceID) }
func UserUUID(ctx context.Context) string { return stringValue(ctx, KeyUserUUID) }
func DeviceID(ctx context.Context) string { return stringValue(ctx, KeyDeviceID) }
func ClientIP(ctx context.Context) string { return stringValue(ctx, KeyClientIP) }

// TraceIDFromGin 读取 TraceLogger 中间件放入 gin 上下文的 trace_id。
func TraceIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(KeyTraceID)
}

// Propagate 从父 ctx 复制链路元数据到一个全新的 Background ctx。
// 用于异步任务：脱离请求生命周期，但保留日志串联所需字段。
func Propagate(parent context.Context) context.Context {
	ctx := context.Background()
	if parent == nil {
		return ctx
	}
	if v := TraceID(parent); v != "" {
		ctx = WithTraceID(ctx, v)
	}
	if v := UserUUID(parent); v != "" {
		ctx = WithUserUUID(ctx, v)
	}
	if v := DeviceID(parent); v != "" {
		ctx = WithDeviceID(ctx, v)
	}
	if v := ClientIP(parent); v != "" {
		ctx = WithClientIP(ctx, v)
	}
	return ctx
}

// stringValue 先按 ctxKey 查找，再按裸字符串 key 查找（兼容 gin.Context 与 context.WithValue(ctx, "trace_id", ...)）。
func stringValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
