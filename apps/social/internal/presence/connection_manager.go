package presence

import "sync"

// ConnectionManager 管理所有在线用户的推送通道。
// 只做内存登记，不做任何 I/O，锁内不会调用通道方法。
type ConnectionManager struct {
	mu       sync.RWMutex
	byUser   map[string]Channel
	shutdown bool
}

var _ Registry = (*ConnectionManager)(nil)

// NewConnectionManager 创建连接管理器实例。
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		byUser: make(map[string]Channel),
	}
}

// Register 注册用户通道，返回被替换的旧通道。
// 管理器已关闭时直接关闭新通道并返回 nil。
func (m *ConnectionManager) Register(ch Channel) (replaced Channel) {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		ch.Close()
		return nil
	}

	if old, ok := m.byUser[ch.UserUUID()]; ok && old != ch {
		replaced = old
	}
	m.byUser[ch.UserUUID()] = ch
	onlineChannels.Set(float64(len(m.byUser)))
	m.mu.Unlock()

	if replaced != nil {
		replacedChannels.Inc()
	}
	return replaced
}

// Unregister 注销通道。
// 只有当前登记的通道与入参一致时才删除，旧连接晚到的断开事件不会误删新连接。
func (m *ConnectionManager) Unregister(ch Channel) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byUser[ch.UserUUID()]
	if !ok || current != ch {
		return false
	}
	delete(m.byUser, ch.UserUUID())
	onlineChannels.Set(float64(len(m.byUser)))
	return true
}

// Lookup 查询用户当前通道。
func (m *ConnectionManager) Lookup(userUUID string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.byUser[userUUID]
	return ch, ok
}

// Count 返回在线用户数。
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser)
}

// Shutdown 关闭全部通道并阻止后续注册。
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true

	channels := make([]Channel, 0, len(m.byUser))
	for _, ch := range m.byUser {
		channels = append(channels, ch)
	}
	m.byUser = make(map[string]Channel)
	onlineChannels.Set(0)
	m.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
}
