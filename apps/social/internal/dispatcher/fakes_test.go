package dispatcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/model"
	"AlumniServer/pkg/logger"

	"go.uber.org/zap"
)

var dispatcherLoggerOnce sync.Once

func initDispatcherTestLogger() {
	dispatcherLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

var errStoreDown = errors.New("store down")

// memNotificationStore 内存版通知仓储
type memNotificationStore struct {
	mu      sync.Mutex
	nextID  int64
	clock   time.Time
	items   map[int64]*model.Notification
	failOps map[string]error
	hooks   map[string]func()
	cleared [][]int64
}

func newMemStore() *memNotificationStore {
	return &memNotificationStore{
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		items:   make(map[int64]*model.Notification),
		failOps: make(map[string]error),
		hooks:   make(map[string]func()),
	}
}

// before 在 op 执行前调用 fn（不持锁），只触发一次
func (s *memNotificationStore) before(op string, fn func()) {
	s.mu.Lock()
	s.hooks[op] = fn
	s.mu.Unlock()
}

func (s *memNotificationStore) runHook(op string) {
	s.mu.Lock()
	fn := s.hooks[op]
	delete(s.hooks, op)
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *memNotificationStore) fail(op string, err error) {
	s.mu.Lock()
	s.failOps[op] = err
	s.mu.Unlock()
}

func (s *memNotificationStore) get(id int64) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.items[id]
}

func (s *memNotificationStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["Create"]; err != nil {
		return err
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	n.Id = s.nextID
	n.CreatedAt = s.clock
	cp := *n
	s.items[n.Id] = &cp
	return nil
}

func (s *memNotificationStore) MarkDelivered(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["MarkDelivered"]; err != nil {
		return err
	}
	if n, ok := s.items[id]; ok && n.DeliveryState == model.DeliverySent {
		n.DeliveryState = model.DeliveryDelivered
		n.PendingOffline = false
	}
	return nil
}

func (s *memNotificationStore) MarkPendingOffline(_ context.Context, id int64) error {
	s.runHook("MarkPendingOffline")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["MarkPendingOffline"]; err != nil {
		return err
	}
	if n, ok := s.items[id]; ok {
		n.PendingOffline = true
	}
	return nil
}

func (s *memNotificationStore) ListPendingOffline(_ context.Context, recipientUUID string) ([]*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["ListPendingOffline"]; err != nil {
		return nil, err
	}
	var list []*model.Notification
	for _, n := range s.items {
		if n.RecipientUuid == recipientUUID && n.PendingOffline {
			cp := *n
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Id < list[j].Id
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (s *memNotificationStore) ClearPendingOffline(_ context.Context, recipientUUID string, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["ClearPendingOffline"]; err != nil {
		return 0, err
	}
	s.cleared = append(s.cleared, append([]int64(nil), ids...))
	var affected int64
	for _, id := range ids {
		n, ok := s.items[id]
		if !ok || n.RecipientUuid != recipientUUID || !n.PendingOffline {
			continue
		}
		n.PendingOffline = false
		if n.DeliveryState == model.DeliverySent {
			n.DeliveryState = model.DeliveryDelivered
		}
		affected++
	}
	return affected, nil
}

func (s *memNotificationStore) List(context.Context, string, int, int) ([]*model.Notification, int64, error) {
	return nil, 0, nil
}

func (s *memNotificationStore) MarkRead(_ context.Context, recipientUUID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.RecipientUuid != recipientUUID {
		return repository.ErrRecordNotFound
	}
	n.IsRead = true
	n.DeliveryState = model.DeliveryRead
	return nil
}

func (s *memNotificationStore) MarkAllRead(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *memNotificationStore) Delete(context.Context, string, int64) error {
	return nil
}

func (s *memNotificationStore) CountUnread(_ context.Context, recipientUUID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["CountUnread"]; err != nil {
		return 0, err
	}
	var count int64
	for _, n := range s.items {
		if n.RecipientUuid == recipientUUID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type pushRecord struct {
	event   string
	payload any
}

// recordingChannel 记录推送内容，failAfter>=0 时第 failAfter 次之后的推送失败
type recordingChannel struct {
	id        string
	user      string
	mu        sync.Mutex
	pushes    []pushRecord
	failAfter int
	pushErr   error
}

func newRecordingChannel(user string) *recordingChannel {
	return &recordingChannel{id: user + "-ch", user: user, failAfter: -1}
}

func (c *recordingChannel) ID() string       { return c.id }
func (c *recordingChannel) UserUUID() string { return c.user }
func (c *recordingChannel) Close()           {}

func (c *recordingChannel) Push(_ context.Context, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter >= 0 && len(c.pushes) >= c.failAfter {
		return c.pushErr
	}
	c.pushes = append(c.pushes, pushRecord{event: event, payload: payload})
	return nil
}

func (c *recordingChannel) events() []pushRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pushRecord(nil), c.pushes...)
}

func (c *recordingChannel) notificationIDs() []int64 {
	var ids []int64
	for _, p := range c.events() {
		if p.event == EventReceiveNotification {
			ids = append(ids, p.payload.(*model.Notification).Id)
		}
	}
	return ids
}

func (c *recordingChannel) lastUnreadCount(t *testing.T) int64 {
	t.Helper()
	events := c.events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].event == EventUpdateUnreadCount {
			return events[i].payload.(int64)
		}
	}
	t.Fatal("no unread count pushed")
	return 0
}
