package ctxmeta

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropagateCopiesMetadataOnly(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	parent = WithTraceID(parent, "t-1")
	parent = WithUserUUID(parent, "u-1")
	parent = WithDeviceID(parent, "d-1")
	cancel()

	ctx := Propagate(parent)
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "t-1", TraceID(ctx))
	assert.Equal(t, "u-1", UserUUID(ctx))
	assert.Equal(t, "d-1", DeviceID(ctx))
	assert.Empty(t, ClientIP(ctx))
}

func TestStringValueFallsBackToPlainKey(t *testing.T) {
	//nolint:staticcheck // 兼容历史代码直接写入字符串 key
	ctx := context.WithValue(context.Background(), "trace_id", "plain")
	assert.Equal(t, "plain", TraceID(ctx))
	assert.Empty(t, TraceID(nil))
}
