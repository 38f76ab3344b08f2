package svc

import (
	"AlumniServer/apps/social/internal/dispatcher"
	"AlumniServer/apps/social/internal/presence"
	rediskey "AlumniServer/consts/redisKey"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/logger"
	"AlumniServer/pkg/util"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultReplayTimeout = 30 * time.Second

var (
	// ErrTokenRequired 表示握手参数中缺少 token。
	ErrTokenRequired = errors.New("token is required")
	// ErrDeviceIDRequired 表示握手参数中缺少 device_id。
	ErrDeviceIDRequired = errors.New("device_id is required")
	// ErrTokenInvalid 表示 token 非法、已过期，或与设备不匹配。
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrFrameInvalid 上行帧不是合法 JSON 或缺少 type。
	ErrFrameInvalid = errors.New("frame is invalid")
)

// Session 保存连接鉴权后的身份信息，整个连接生命周期内复用。
type Session struct {
	UserUUID string
	DeviceID string
	ClientIP string
}

// Frame 客户端上行帧：{"type": ..., "data": ...}，data 由上层按 type 再解析。
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData type=error 下行帧的 data 结构。
type ErrorData struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// ConnectService 承载实时连接的生命周期逻辑：
// 鉴权、注册到在线表、上线补推离线通知、维护设备活跃时间。
type ConnectService struct {
	registry      presence.Registry
	notifier      dispatcher.Notifier
	redisClient   *redis.Client
	replayTimeout time.Duration
}

// NewConnectService 创建连接服务。redisClient 可为 nil（不记录活跃时间）。
func NewConnectService(registry presence.Registry, notifier dispatcher.Notifier, redisClient *redis.Client, replayTimeout time.Duration) *ConnectService {
	if replayTimeout <= 0 {
		replayTimeout = defaultReplayTimeout
	}
	return &ConnectService{
		registry:      registry,
		notifier:      notifier,
		redisClient:   redisClient,
		replayTimeout: replayTimeout,
	}
}

// Authenticate 校验 WebSocket 握手参数与登录态。
// 1. token/device_id 不能为空；
// 2. 解析 JWT；
// 3. claims.DeviceID 必须与 query.device_id 一致。
func (s *ConnectService) Authenticate(ctx context.Context, token, deviceID, clientIP string) (*Session, error) {
	token = strings.TrimSpace(token)
	deviceID = strings.TrimSpace(deviceID)

	if token == "" {
		return nil, ErrTokenRequired
	}
	if deviceID == "" {
		return nil, ErrDeviceIDRequired
	}

	claims, err := util.ParseToken(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.DeviceID == "" || claims.DeviceID != deviceID {
		logger.Warn(ctx, "连接鉴权设备不匹配",
			logger.String("user_uuid", claims.UserUUID),
			logger.String("device_id", deviceID),
		)
		return nil, ErrTokenInvalid
	}

	return &Session{
		UserUUID: claims.UserUUID,
		DeviceID: claims.DeviceID,
		ClientIP: strings.TrimSpace(clientIP),
	}, nil
}

// OnConnect 连接建立后触发。
// 注册通道（同一用户的旧通道会被关闭），写入活跃时间，然后在协程池中补推离线通知。
// 补推没有送达任何通知时仍推送一次未读数，保证客户端角标与服务端一致。
func (s *ConnectService) OnConnect(ctx context.Context, session *Session, ch presence.Channel) {
	if replaced := s.registry.Register(ch); replaced != nil {
		logger.Info(ctx, "同一用户新连接替换旧连接",
			logger.String("user_uuid", session.UserUUID),
			logger.String("replaced_channel", replaced.ID()),
		)
		replaced.Close()
	}

	s.touchActive(ctx, session.UserUUID, session.DeviceID)

	userUUID := session.UserUUID
	async.RunSafe(ctx, func(runCtx context.Context) {
		delivered, err := s.notifier.DeliverPending(runCtx, userUUID)
		if err != nil {
			logger.Error(runCtx, "上线补推离线通知失败",
				logger.String("user_uuid", userUUID),
				logger.ErrorField("error", err),
			)
			return
		}
		if delivered > 0 {
			return
		}
		if err := s.notifier.PushUnreadCount(runCtx, userUUID); err != nil {
			logger.Warn(runCtx, "上线推送未读数失败",
				logger.String("user_uuid", userUUID),
				logger.ErrorField("error", err),
			)
		}
	}, s.replayTimeout)
}

// OnHeartbeat 收到客户端心跳后续期活跃时间。
func (s *ConnectService) OnHeartbeat(ctx context.Context, session *Session) {
	s.touchActive(ctx, session.UserUUID, session.DeviceID)
}

// OnDisconnect 连接断开后触发，只注销与入参一致的通道。
// 返回 false 表示该通道已被新连接替换。
func (s *ConnectService) OnDisconnect(ctx context.Context, session *Session, ch presence.Channel) bool {
	removed := s.registry.Unregister(ch)
	if !removed {
		logger.Debug(ctx, "断开的连接已被替换，跳过注销",
			logger.String("user_uuid", session.UserUUID),
			logger.String("channel_id", ch.ID()),
		)
	}
	return removed
}

// OnlineCount 当前在线用户数。
func (s *ConnectService) OnlineCount() int {
	return s.registry.Count()
}

// ParseFrame 解析客户端上行帧。
func (s *ConnectService) ParseFrame(raw []byte) (*Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, ErrFrameInvalid
	}
	frame.Type = strings.TrimSpace(frame.Type)
	if frame.Type == "" {
		return nil, ErrFrameInvalid
	}
	return &frame, nil
}

// touchActive 更新设备活跃时间到 Redis。
// key: alumni:device:active:{user_uuid}，field: device_id，value: unix 秒。
// 每次写入都续期 key 的 TTL。
func (s *ConnectService) touchActive(ctx context.Context, userUUID, deviceID string) {
	if s.redisClient == nil || userUUID == "" || deviceID == "" {
		return
	}

	key := rediskey.DeviceActiveKey(userUUID)
	pipe := s.redisClient.Pipeline()
	pipe.HSet(ctx, key, deviceID, time.Now().Unix())
	pipe.Expire(ctx, key, rediskey.DeviceActiveTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "更新设备活跃时间失败",
			logger.String("user_uuid", userUUID),
			logger.String("device_id", deviceID),
			logger.ErrorField("error", err),
		)
	}
}
