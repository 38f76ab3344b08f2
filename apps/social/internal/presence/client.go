package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultSendQueueSize = 64
	defaultPushTimeout   = 2 * time.Second
	wsWriteTimeout       = 5 * time.Second
	wsPongWait           = 60 * time.Second
	wsPingPeriod         = wsPongWait * 9 / 10
	wsMaxMessageSize     = 4096
)

// MessageHandler 上行消息回调，raw 为客户端原始载荷。
type MessageHandler func(raw []byte)

// CloseHandler 连接关闭回调，在读写循环退出后执行（例如从注册表注销）。
type CloseHandler func()

// Client 封装单条 WebSocket 连接，实现 Channel。
// - send 队列削峰，业务 goroutine 不直接阻塞在网络写；
// - done 是统一关闭信号，读写循环都监听它退出；
// - once 保证 Close 幂等。
type Client struct {
	conn        *websocket.Conn
	id          string
	userUUID    string
	deviceID    string
	pushTimeout time.Duration
	send        chan []byte
	done        chan struct{}
	once        sync.Once
}

var _ Channel = (*Client)(nil)

// NewClient 创建连接包装对象，pushTimeout<=0 时使用默认 2s。
func NewClient(conn *websocket.Conn, userUUID, deviceID string, pushTimeout time.Duration) *Client {
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &Client{
		conn:        conn,
		id:          uuid.NewString(),
		userUUID:    userUUID,
		deviceID:    deviceID,
		pushTimeout: pushTimeout,
		send:        make(chan []byte, defaultSendQueueSize),
		done:        make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserUUID() string {
	return c.userUUID
}

func (c *Client) DeviceID() string {
	return c.deviceID
}

// Done 返回连接关闭信号通道。
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Push 将事件编码为下行帧并放入写队列。
// 队列满时最多等待 pushTimeout（或 ctx 截止），超时返回 ErrPushTimeout。
func (c *Client) Push(ctx context.Context, event string, payload any) error {
	msg, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		return fmt.Errorf("presence: encode %s: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	timer := time.NewTimer(c.pushTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return ErrChannelClosed
	case c.send <- msg:
		return nil
	case <-timer.C:
		return ErrPushTimeout
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrPushTimeout, ctx.Err())
	}
}

// Run 启动读写循环并阻塞到 readLoop 结束。
// 退出时保证调用 Close 与 onClose。
func (c *Client) Run(ctx context.Context, onMessage MessageHandler, onClose CloseHandler) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	go c.writeLoop(ctx)
	c.readLoop(ctx, onMessage)
}

// Close 幂等关闭连接：先发关闭信号，再关底层连接。
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readLoop 读取上行帧，超过 pongWait 没有任何数据（包括 pong）视为断线。
func (c *Client) readLoop(ctx context.Context, onMessage MessageHandler) {
	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if onMessage != nil {
			onMessage(raw)
		}
	}
}

// writeLoop 从 send 队列取消息写入客户端，并定时发送 ping。
func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
