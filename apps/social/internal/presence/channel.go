package presence

import (
	"context"
	"errors"
)

var (
	// ErrPushTimeout 推送在超时时间内未能写入通道
	ErrPushTimeout = errors.New("presence: push timeout")

	// ErrChannelClosed 通道已关闭
	ErrChannelClosed = errors.New("presence: channel closed")
)

// Channel 用户的实时推送通道。
// Push 必须是有界的：最多等待推送超时，不能无限阻塞调用方。
type Channel interface {
	// ID 通道唯一标识，同一用户重连后会得到不同的 ID
	ID() string
	UserUUID() string
	Push(ctx context.Context, event string, payload any) error
	Close()
}

// Envelope 下行帧格式：{"type": 事件名, "data": 载荷}
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Registry 在线用户 -> 推送通道 的注册表。
// 每个用户最多一个通道，后注册的替换先注册的。
type Registry interface {
	// Register 注册通道，返回被替换掉的旧通道（没有则为 nil），调用方负责关闭旧通道
	Register(ch Channel) (replaced Channel)

	// Unregister 仅当当前登记的就是 ch 时才移除，返回是否移除
	Unregister(ch Channel) bool

	// Lookup 查询用户当前通道
	Lookup(userUUID string) (Channel, bool)

	// Count 在线用户数
	Count() int

	// Shutdown 关闭全部通道并拒绝后续注册
	Shutdown()
}
