package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"AlumniServer/consts"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"AlumniServer/pkg/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var middlewareTestOnce sync.Once

func initMiddlewareTest() {
	middlewareTestOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		logger.ReplaceGlobal(zap.NewNop())
		util.InitJWT("middleware-test-secret", time.Hour)
	})
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) result.Response {
	t.Helper()
	var resp result.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestJWTAuthMiddleware(t *testing.T) {
	initMiddlewareTest()

	token, err := util.GenerateToken("u-1", "dev-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(JWTAuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		userUUID, _ := GetUserUUID(c)
		deviceID, _ := GetDeviceID(c)
		c.JSON(http.StatusOK, gin.H{
			"user":    userUUID,
			"device":  deviceID,
			"ctxUser": ctxmeta.UserUUID(c.Request.Context()),
		})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   int32
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantCode: consts.CodeUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized, wantCode: consts.CodeUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantCode: consts.CodeUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: consts.CodeInvalidToken},
		{name: "ok", header: "Bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, tt.wantCode, decodeResponse(t, w).Code)
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "u-1", body["user"])
			assert.Equal(t, "dev-1", body["device"])
			assert.Equal(t, "u-1", body["ctxUser"])
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(ClientIPMiddleware())
	r.GET("/ip", func(c *gin.Context) {
		c.String(http.StatusOK, ctxmeta.ClientIP(NewContextWithGin(c)))
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "real ip", headers: map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"}, want: "1.2.3.4"},
		{name: "forwarded first hop", headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, want: "5.6.7.8"},
		{name: "invalid real ip ignored", headers: map[string]string{"X-Real-IP": "garbage", "X-Forwarded-For": "5.6.7.8"}, want: "5.6.7.8"},
		{name: "remote addr", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestCorsPreflight(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(CorsMiddleware([]string{"https://alumni.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{name: "allowed", origin: "https://alumni.example", want: "https://alumni.example"},
		{name: "not allowed", origin: "https://evil.example", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCorsAnyOriginWhenUnconfigured(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(CorsMiddleware(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestGinRecovery(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(GinRecovery(true))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int32(consts.CodeInternalError), decodeResponse(t, w).Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(TimeoutMiddleware(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		result.Success(c, nil)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, int32(consts.CodeTimeoutError), decodeResponse(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, int32(consts.CodeSuccess), decodeResponse(t, w).Code)
}

func TestPrometheusMiddlewareUsesRouteTemplate(t *testing.T) {
	initMiddlewareTest()

	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/friend/status/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/friend/status/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// 路由模板作为标签，具体参数不会出现
	assert.False(t, httpRequestsTotal.DeleteLabelValues(http.MethodGet, "/friend/status/abc", "200"))
	assert.True(t, httpRequestsTotal.DeleteLabelValues(http.MethodGet, "/friend/status/:id", "200"))
}

func TestRateLimiterRedis(t *testing.T) {
	initMiddlewareTest()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, 0.001, 2)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k"))
	assert.True(t, limiter.Allow(ctx, "k"))
	assert.False(t, limiter.Allow(ctx, "k"))
	// 不同 key 互不影响
	assert.True(t, limiter.Allow(ctx, "other"))

	assert.True(t, mr.Exists("k"))
	assert.Greater(t, mr.TTL("k"), time.Duration(0))
}

func TestRateLimiterFallsBackToLocal(t *testing.T) {
	initMiddlewareTest()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	limiter := NewRateLimiter(client, 0.001, 1)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k"))
	assert.False(t, limiter.Allow(ctx, "k"))
}

func TestUserRateLimitMiddleware(t *testing.T) {
	initMiddlewareTest()

	token, err := util.GenerateToken("u-limit", "dev-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(JWTAuthMiddleware())
	r.Use(UserRateLimitMiddleware(NewRateLimiter(nil, 0.001, 1)))
	r.GET("/x", func(c *gin.Context) { result.Success(c, nil) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, int32(consts.CodeTooManyRequests), decodeResponse(t, w).Code)
}
