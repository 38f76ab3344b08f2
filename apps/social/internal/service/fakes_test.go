package service

import (
	"context"
	"sync"
	"testing"

	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/apps/social/mq"
	"AlumniServer/config"
	"AlumniServer/model"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceLoggerOnce sync.Once

func initServiceTest(t *testing.T) {
	t.Helper()
	serviceLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
	require.NoError(t, async.Init(config.DefaultAsyncConfig()))
}

// ==================== 好友仓储 fake ====================

type fakeConnRepo struct {
	createRequestFn  func(context.Context, string, string) (*model.ConnectionRequest, error)
	acceptRequestFn  func(context.Context, string, string) error
	declineRequestFn func(context.Context, string, string) error
	cancelRequestFn  func(context.Context, string, string) error
	removeFn         func(context.Context, string, string) (bool, error)
	listFn           func(context.Context, string) ([]string, error)
	incomingFn       func(context.Context, string) ([]*model.ConnectionRequest, error)
	outgoingFn       func(context.Context, string) ([]*model.ConnectionRequest, error)
	pendingBetweenFn func(context.Context, string, string) (*model.ConnectionRequest, error)
	isConnectedFn    func(context.Context, string, string) (bool, error)
}

func (f *fakeConnRepo) CreateRequest(ctx context.Context, sender, receiver string) (*model.ConnectionRequest, error) {
	if f.createRequestFn == nil {
		return &model.ConnectionRequest{Id: 1, SenderUuid: sender, ReceiverUuid: receiver}, nil
	}
	return f.createRequestFn(ctx, sender, receiver)
}

func (f *fakeConnRepo) AcceptRequest(ctx context.Context, receiver, sender string) error {
	if f.acceptRequestFn == nil {
		return nil
	}
	return f.acceptRequestFn(ctx, receiver, sender)
}

func (f *fakeConnRepo) DeclineRequest(ctx context.Context, receiver, sender string) error {
	if f.declineRequestFn == nil {
		return nil
	}
	return f.declineRequestFn(ctx, receiver, sender)
}

func (f *fakeConnRepo) CancelRequest(ctx context.Context, sender, receiver string) error {
	if f.cancelRequestFn == nil {
		return nil
	}
	return f.cancelRequestFn(ctx, sender, receiver)
}

func (f *fakeConnRepo) RemoveConnection(ctx context.Context, user, peer string) (bool, error) {
	if f.removeFn == nil {
		return true, nil
	}
	return f.removeFn(ctx, user, peer)
}

func (f *fakeConnRepo) ListConnections(ctx context.Context, user string) ([]string, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, user)
}

func (f *fakeConnRepo) ListPendingIncoming(ctx context.Context, user string) ([]*model.ConnectionRequest, error) {
	if f.incomingFn == nil {
		return nil, nil
	}
	return f.incomingFn(ctx, user)
}

func (f *fakeConnRepo) ListPendingOutgoing(ctx context.Context, user string) ([]*model.ConnectionRequest, error) {
	if f.outgoingFn == nil {
		return nil, nil
	}
	return f.outgoingFn(ctx, user)
}

func (f *fakeConnRepo) GetPendingBetween(ctx context.Context, a, b string) (*model.ConnectionRequest, error) {
	if f.pendingBetweenFn == nil {
		return nil, nil
	}
	return f.pendingBetweenFn(ctx, a, b)
}

func (f *fakeConnRepo) IsConnected(ctx context.Context, user, peer string) (bool, error) {
	if f.isConnectedFn == nil {
		return false, nil
	}
	return f.isConnectedFn(ctx, user, peer)
}

// ==================== 用户目录 fake ====================

type fakeDirectory struct {
	users map[string]*model.UserInfo
	err   error
}

func newFakeDirectory(users ...*model.UserInfo) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*model.UserInfo)}
	for _, u := range users {
		d.users[u.Uuid] = u
	}
	return d
}

func (d *fakeDirectory) GetByUUID(_ context.Context, uuid string) (*model.UserInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[uuid]; ok {
		return u, nil
	}
	return nil, repository.ErrRecordNotFound
}

// ==================== 通知分发 fake ====================

type dispatched struct {
	recipient string
	sender    string
	typ       model.NotificationType
	message   string
}

type fakeNotifier struct {
	mu            sync.Mutex
	dispatched    []dispatched
	unreadPushes  []string
	dispatchErr   error
	deliverFn     func(context.Context, string) (int, error)
	pushUnreadErr error
}

func (f *fakeNotifier) Dispatch(_ context.Context, recipient, sender string, typ model.NotificationType, message string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, dispatched{recipient: recipient, sender: sender, typ: typ, message: message})
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	return &model.Notification{RecipientUuid: recipient, SenderUuid: sender, Type: typ, Message: message}, nil
}

func (f *fakeNotifier) DeliverPending(ctx context.Context, user string) (int, error) {
	if f.deliverFn == nil {
		return 0, nil
	}
	return f.deliverFn(ctx, user)
}

func (f *fakeNotifier) PushUnreadCount(_ context.Context, user string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadPushes = append(f.unreadPushes, user)
	return f.pushUnreadErr
}

func (f *fakeNotifier) all() []dispatched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatched(nil), f.dispatched...)
}

func (f *fakeNotifier) pushes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unreadPushes...)
}

// ==================== 事件发布 fake ====================

type fakePublisher struct {
	events chan mq.SocialEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan mq.SocialEvent, 16)}
}

func (p *fakePublisher) Publish(_ context.Context, event mq.SocialEvent) error {
	p.events <- event
	return nil
}
