package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"AlumniServer/apps/social/internal/presence"
	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/model"
	"AlumniServer/pkg/logger"
)

// 下行事件名
const (
	EventReceiveNotification = "receiveNotification"
	EventUpdateUnreadCount   = "updateUnreadCount"
)

const defaultPushTimeout = 2 * time.Second

var (
	// ErrInvalidType 通知类型不在封闭枚举内
	ErrInvalidType = errors.New("dispatcher: invalid notification type")

	// ErrEmptyRecipient 接收人为空
	ErrEmptyRecipient = errors.New("dispatcher: empty recipient")
)

// Notifier 通知分发能力，供业务层调用
type Notifier interface {
	// Dispatch 持久化并尽力实时推送一条通知
	// 只有校验失败和入库失败会返回错误，推送失败降级为离线待补推
	Dispatch(ctx context.Context, recipientUUID, senderUUID string, typ model.NotificationType, message string) (*model.Notification, error)

	// DeliverPending 用户在线时按产生顺序补推离线通知，返回补推成功的数量
	DeliverPending(ctx context.Context, userUUID string) (int, error)

	// PushUnreadCount 重新计算并推送未读数，用户不在线时为空操作
	PushUnreadCount(ctx context.Context, userUUID string) error
}

// Dispatcher 通知分发器
type Dispatcher struct {
	store       repository.INotificationRepository
	registry    presence.Registry
	pushTimeout time.Duration
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher 创建分发器，pushTimeout<=0 时使用默认 2s
func NewDispatcher(store repository.INotificationRepository, registry presence.Registry, pushTimeout time.Duration) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &Dispatcher{
		store:       store,
		registry:    registry,
		pushTimeout: pushTimeout,
	}
}

// Dispatch 分发通知
// 1. 校验并以 sent 状态入库；
// 2. 接收人在线则推送，成功后标记 delivered；
// 3. 不在线或推送失败则标记离线待补推；
// 4. 接收人在线时推送最新未读数。
// 入库之后的任何失败只记日志，通知已持久化，返回值仍然是该通知。
func (d *Dispatcher) Dispatch(ctx context.Context, recipientUUID, senderUUID string, typ model.NotificationType, message string) (*model.Notification, error) {
	if recipientUUID == "" {
		return nil, ErrEmptyRecipient
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}

	notification := &model.Notification{
		RecipientUuid: recipientUUID,
		SenderUuid:    senderUUID,
		Type:          typ,
		Message:       message,
		DeliveryState: model.DeliverySent,
	}
	if err := d.store.Create(ctx, notification); err != nil {
		dispatchTotal.WithLabelValues(string(typ), outcomeError).Inc()
		logger.Error(ctx, "通知入库失败",
			logger.String("recipient_uuid", recipientUUID),
			logger.String("type", string(typ)),
			logger.ErrorField("error", err),
		)
		return nil, err
	}

	ch, online := d.registry.Lookup(recipientUUID)
	delivered := false
	if online {
		if err := d.push(ctx, ch, EventReceiveNotification, notification); err != nil {
			dispatchTotal.WithLabelValues(string(typ), outcomePushFailed).Inc()
			logger.Warn(ctx, "通知推送失败，转为离线待补推",
				logger.String("recipient_uuid", recipientUUID),
				logger.Int64("notification_id", notification.Id),
				logger.ErrorField("error", err),
			)
		} else {
			delivered = true
		}
	}

	if delivered {
		dispatchTotal.WithLabelValues(string(typ), outcomeDelivered).Inc()
		if err := d.store.MarkDelivered(ctx, notification.Id); err != nil {
			logger.Error(ctx, "标记通知已推送失败",
				logger.Int64("notification_id", notification.Id),
				logger.ErrorField("error", err),
			)
		} else {
			notification.DeliveryState = model.DeliveryDelivered
		}
	} else {
		if !online {
			dispatchTotal.WithLabelValues(string(typ), outcomeOffline).Inc()
		}
		if err := d.store.MarkPendingOffline(ctx, notification.Id); err != nil {
			logger.Error(ctx, "标记离线通知失败",
				logger.Int64("notification_id", notification.Id),
				logger.ErrorField("error", err),
			)
		} else {
			notification.PendingOffline = true
			if !online {
				// 接收人可能在 Lookup 之后上线，上线补推已先于标记执行，这里再补一次
				online = d.replayIfReconnected(ctx, notification)
			}
		}
	}

	if online {
		if err := d.PushUnreadCount(ctx, recipientUUID); err != nil {
			logger.Warn(ctx, "推送未读数失败",
				logger.String("recipient_uuid", recipientUUID),
				logger.ErrorField("error", err),
			)
		}
	}
	return notification, nil
}

// DeliverPending 补推离线通知
// 按 (created_at, id) 升序逐条推送，遇到推送失败立即停止，剩余通知保持待补推；
// 推送成功的通知在一次批量更新中清除离线标记。
func (d *Dispatcher) DeliverPending(ctx context.Context, userUUID string) (int, error) {
	ids, err := d.deliverPending(ctx, userUUID)
	return len(ids), err
}

// replayIfReconnected 标记离线后接收人已在线时补推，返回接收人是否在线。
// 补推内容包含 n 时同步更新 n 的状态。
func (d *Dispatcher) replayIfReconnected(ctx context.Context, n *model.Notification) bool {
	if _, online := d.registry.Lookup(n.RecipientUuid); !online {
		return false
	}
	ids, err := d.deliverPending(ctx, n.RecipientUuid)
	if err != nil {
		logger.Warn(ctx, "接收人已上线，补推失败",
			logger.String("recipient_uuid", n.RecipientUuid),
			logger.Int64("notification_id", n.Id),
			logger.ErrorField("error", err),
		)
		return true
	}
	if slices.Contains(ids, n.Id) {
		n.PendingOffline = false
		n.DeliveryState = model.DeliveryDelivered
	}
	return true
}

// deliverPending 返回补推成功并已清除离线标记的通知 id
func (d *Dispatcher) deliverPending(ctx context.Context, userUUID string) ([]int64, error) {
	ch, online := d.registry.Lookup(userUUID)
	if !online {
		return nil, nil
	}

	pending, err := d.store.ListPendingOffline(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(pending))
	for _, n := range pending {
		if err := d.push(ctx, ch, EventReceiveNotification, n); err != nil {
			logger.Warn(ctx, "离线通知补推中断",
				logger.String("user_uuid", userUUID),
				logger.Int64("notification_id", n.Id),
				logger.Int("remaining", len(pending)-len(ids)),
				logger.ErrorField("error", err),
			)
			break
		}
		ids = append(ids, n.Id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := d.store.ClearPendingOffline(ctx, userUUID, ids); err != nil {
		return nil, err
	}
	replayedTotal.Add(float64(len(ids)))
	logger.Info(ctx, "离线通知补推完成",
		logger.String("user_uuid", userUUID),
		logger.Int("delivered", len(ids)),
		logger.Int("pending", len(pending)),
	)

	if err := d.PushUnreadCount(ctx, userUUID); err != nil {
		logger.Warn(ctx, "推送未读数失败",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
	}
	return ids, nil
}

// PushUnreadCount 推送未读数
// 只返回计数查询错误，推送失败仅记录日志
func (d *Dispatcher) PushUnreadCount(ctx context.Context, userUUID string) error {
	ch, online := d.registry.Lookup(userUUID)
	if !online {
		return nil
	}

	count, err := d.store.CountUnread(ctx, userUUID)
	if err != nil {
		return err
	}
	if err := d.push(ctx, ch, EventUpdateUnreadCount, count); err != nil {
		logger.Warn(ctx, "未读数推送失败",
			logger.String("user_uuid", userUUID),
			logger.Int64("unread", count),
			logger.ErrorField("error", err),
		)
	}
	return nil
}

// push 带超时的单次推送
func (d *Dispatcher) push(ctx context.Context, ch presence.Channel, event string, payload any) error {
	pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
	defer cancel()

	start := time.Now()
	err := ch.Push(pushCtx, event, payload)
	status := "success"
	if err != nil {
		status = "error"
	}
	pushDuration.WithLabelValues(event, status).Observe(time.Since(start).Seconds())
	return err
}
