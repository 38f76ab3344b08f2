package presence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	id     string
	user   string
	mu     sync.Mutex
	closed int
}

func newFakeChannel(id, user string) *fakeChannel {
	return &fakeChannel{id: id, user: user}
}

func (f *fakeChannel) ID() string       { return f.id }
func (f *fakeChannel) UserUUID() string { return f.user }

func (f *fakeChannel) Push(context.Context, string, any) error { return nil }

func (f *fakeChannel) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func (f *fakeChannel) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestConnectionManagerRegisterReplace(t *testing.T) {
	m := NewConnectionManager()
	first := newFakeChannel("c1", "alice")
	second := newFakeChannel("c2", "alice")

	assert.Nil(t, m.Register(first))
	got, ok := m.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, first, got)

	// 同一用户再次注册，旧通道被替换并返回给调用方
	replaced := m.Register(second)
	assert.Same(t, first, replaced)
	got, ok = m.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, m.Count())

	// 重复注册同一个通道不算替换
	assert.Nil(t, m.Register(second))
	// 注册表本身不关闭通道
	assert.Zero(t, first.closeCount())
}

func TestConnectionManagerUnregisterOnlyMatching(t *testing.T) {
	m := NewConnectionManager()
	old := newFakeChannel("c1", "alice")
	cur := newFakeChannel("c2", "alice")

	m.Register(old)
	m.Register(cur)

	// 旧连接晚到的断开事件不能移除新连接
	assert.False(t, m.Unregister(old))
	_, ok := m.Lookup("alice")
	assert.True(t, ok)

	assert.True(t, m.Unregister(cur))
	_, ok = m.Lookup("alice")
	assert.False(t, ok)
	assert.False(t, m.Unregister(cur))
	assert.Zero(t, m.Count())
}

func TestConnectionManagerShutdown(t *testing.T) {
	m := NewConnectionManager()
	a := newFakeChannel("c1", "alice")
	b := newFakeChannel("c2", "bob")
	m.Register(a)
	m.Register(b)

	m.Shutdown()
	m.Shutdown()
	assert.Equal(t, 1, a.closeCount())
	assert.Equal(t, 1, b.closeCount())
	assert.Zero(t, m.Count())

	// 关闭后注册的通道直接被关闭
	late := newFakeChannel("c3", "carol")
	assert.Nil(t, m.Register(late))
	assert.Equal(t, 1, late.closeCount())
	_, ok := m.Lookup("carol")
	assert.False(t, ok)
}

func TestConnectionManagerConcurrentAccess(t *testing.T) {
	m := NewConnectionManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%10)
			ch := newFakeChannel(fmt.Sprintf("c-%d", i), user)
			m.Register(ch)
			m.Lookup(user)
			m.Unregister(ch)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, m.Count(), 10)
}
