package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startClientServer 启动一个把每个连接包装成 Client 的测试服务
func startClientServer(t *testing.T, pushTimeout time.Duration, run bool) (*httptest.Server, <-chan *Client) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	clients := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, r.URL.Query().Get("user"), "web", pushTimeout)
		clients <- client
		if run {
			client.Run(context.Background(), nil, nil)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, clients
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receive(t *testing.T, clients <-chan *Client) *Client {
	t.Helper()
	select {
	case c := <-clients:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("server side client not created")
		return nil
	}
}

func TestClientPushRoundTrip(t *testing.T) {
	srv, clients := startClientServer(t, time.Second, true)
	conn := dial(t, srv, "alice")
	client := receive(t, clients)

	assert.Equal(t, "alice", client.UserUUID())
	assert.NotEmpty(t, client.ID())

	require.NoError(t, client.Push(context.Background(), "updateUnreadCount", 3))
	require.NoError(t, client.Push(context.Background(), "receiveNotification", map[string]string{"message": "hi"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first struct {
		Type string `json:"type"`
		Data int    `json:"data"`
	}
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.Equal(t, "updateUnreadCount", first.Type)
	assert.Equal(t, 3, first.Data)

	var second struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.Equal(t, "receiveNotification", second.Type)
	assert.Equal(t, "hi", second.Data["message"])
}

func TestClientPushAfterClose(t *testing.T) {
	srv, clients := startClientServer(t, time.Second, true)
	dial(t, srv, "alice")
	client := receive(t, clients)

	client.Close()
	client.Close()
	assert.ErrorIs(t, client.Push(context.Background(), "updateUnreadCount", 1), ErrChannelClosed)

	select {
	case <-client.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestClientPushTimeoutWhenQueueFull(t *testing.T) {
	// 不启动写循环，写队列只进不出
	srv, clients := startClientServer(t, 20*time.Millisecond, false)
	dial(t, srv, "alice")
	client := receive(t, clients)
	t.Cleanup(client.Close)

	for i := 0; i < defaultSendQueueSize; i++ {
		require.NoError(t, client.Push(context.Background(), "updateUnreadCount", i))
	}
	assert.ErrorIs(t, client.Push(context.Background(), "updateUnreadCount", 0), ErrPushTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Push(ctx, "updateUnreadCount", 0), ErrPushTimeout)
}

func TestClientRunInvokesOnClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	closed := make(chan struct{})
	messages := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, "alice", "web", 0)
		client.Run(context.Background(), func(raw []byte) {
			messages <- string(raw)
		}, func() {
			close(closed)
		})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	select {
	case msg := <-messages:
		assert.Equal(t, "ping", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}

	_ = conn.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("onClose not called")
	}
}
