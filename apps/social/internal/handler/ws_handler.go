package handler

import (
	"AlumniServer/apps/social/internal/presence"
	"AlumniServer/apps/social/internal/svc"
	"AlumniServer/consts"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/result"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 上行帧类型
	frameHeartbeat = "heartbeat"

	// 下行帧类型
	frameHeartbeatAck = "heartbeat_ack"
	frameError        = "error"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 来源校验交给前置网关，这里不做限制
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler 负责 /ws 接入。
// 处理 HTTP 层参数、升级与错误响应，鉴权与在线登记交给 svc。
type WSHandler struct {
	connectSvc  *svc.ConnectService
	pushTimeout time.Duration
}

// NewWSHandler 创建 WebSocket 入口处理器。
func NewWSHandler(connectSvc *svc.ConnectService, pushTimeout time.Duration) *WSHandler {
	return &WSHandler{
		connectSvc:  connectSvc,
		pushTimeout: pushTimeout,
	}
}

// ServeWS 处理 WebSocket 握手与接入。
// 1. 从 query 中读取 token/device_id；
// 2. 鉴权失败直接以 HTTP 响应返回；
// 3. 构建连接级 context（trace/user/device/ip），升级后进入连接主循环。
func (h *WSHandler) ServeWS(c *gin.Context) {
	session, err := h.connectSvc.Authenticate(c.Request.Context(), c.Query("token"), c.Query("device_id"), c.ClientIP())
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	// 连接的生命周期长于本次请求，不能沿用 request ctx
	connCtx := context.Background()
	if traceID := ctxmeta.TraceIDFromGin(c); traceID != "" {
		connCtx = ctxmeta.WithTraceID(connCtx, traceID)
	}
	connCtx = ctxmeta.WithUserUUID(connCtx, session.UserUUID)
	connCtx = ctxmeta.WithDeviceID(connCtx, session.DeviceID)
	connCtx = ctxmeta.WithClientIP(connCtx, session.ClientIP)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败",
			logger.ErrorField("error", err),
		)
		return
	}

	h.handleConnection(connCtx, conn, session)
}

// handleConnection 承载单个连接的完整生命周期。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, session *svc.Session) {
	client := presence.NewClient(conn, session.UserUUID, session.DeviceID, h.pushTimeout)

	h.connectSvc.OnConnect(ctx, session, client)
	logger.Info(ctx, "WebSocket 连接已建立",
		logger.String("channel_id", client.ID()),
		logger.String("client_ip", session.ClientIP),
		logger.Int("online_count", h.connectSvc.OnlineCount()),
	)

	client.Run(ctx, func(raw []byte) {
		h.handleMessage(ctx, client, session, raw)
	}, func() {
		h.connectSvc.OnDisconnect(ctx, session, client)
		logger.Info(ctx, "WebSocket 连接已断开",
			logger.String("channel_id", client.ID()),
			logger.Int("online_count", h.connectSvc.OnlineCount()),
		)
	})
}

// handleMessage 处理客户端上行帧，目前只有 heartbeat。
func (h *WSHandler) handleMessage(ctx context.Context, client *presence.Client, session *svc.Session, raw []byte) {
	frame, err := h.connectSvc.ParseFrame(raw)
	if err != nil {
		h.sendErrorFrame(ctx, client, consts.CodeFrameInvalid)
		return
	}

	switch frame.Type {
	case frameHeartbeat:
		h.connectSvc.OnHeartbeat(ctx, session)
		h.push(ctx, client, frameHeartbeatAck, nil)
	default:
		h.sendErrorFrame(ctx, client, consts.CodeFrameUnsupport)
	}
}

// sendErrorFrame 发送 ws 协议层错误帧，code 为业务码而不是 HTTP 状态码。
func (h *WSHandler) sendErrorFrame(ctx context.Context, client *presence.Client, code int32) {
	h.push(ctx, client, frameError, svc.ErrorData{
		Code:    code,
		Message: consts.GetMessage(code),
	})
}

// push 写入下行帧，写不进去说明连接已不可用，主动关闭。
func (h *WSHandler) push(ctx context.Context, client *presence.Client, frameType string, data any) {
	if err := client.Push(ctx, frameType, data); err != nil {
		if !errors.Is(err, presence.ErrChannelClosed) {
			logger.Warn(ctx, "下行帧写入失败，关闭连接",
				logger.String("type", frameType),
				logger.ErrorField("error", err),
			)
		}
		client.Close()
	}
}

// writeAuthError 握手阶段还未升级，鉴权错误以 HTTP 状态码 + 统一响应体返回。
func (h *WSHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, svc.ErrTokenRequired), errors.Is(err, svc.ErrDeviceIDRequired):
		result.Abort(c, http.StatusBadRequest, consts.CodeParamError)
	case errors.Is(err, svc.ErrTokenInvalid):
		result.Abort(c, http.StatusUnauthorized, consts.CodeInvalidToken)
	default:
		result.Abort(c, http.StatusInternalServerError, consts.CodeInternalError)
	}
}
