package repository

import (
	"AlumniServer/model"
	"AlumniServer/pkg/util"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const maxNotificationPageSize = 100

// notificationRepositoryImpl 通知数据访问层实现
type notificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(db *gorm.DB) INotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

// Create 持久化通知
func (r *notificationRepositoryImpl) Create(ctx context.Context, notification *model.Notification) error {
	if notification.Id == 0 {
		notification.Id = util.NextID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// MarkDelivered 标记已推送
func (r *notificationRepositoryImpl) MarkDelivered(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND delivery_state = ?", id, model.DeliverySent).
		Updates(map[string]interface{}{
			"delivery_state":  model.DeliveryDelivered,
			"pending_offline": false,
		}).Error
	return WrapDBError(err)
}

// MarkPendingOffline 标记离线待补推
func (r *notificationRepositoryImpl) MarkPendingOffline(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("pending_offline", true).Error
	return WrapDBError(err)
}

// ListPendingOffline 获取待补推通知
// 强制走主库：补推紧跟在标记之后，从库延迟会导致漏推
func (r *notificationRepositoryImpl) ListPendingOffline(ctx context.Context, recipientUUID string) ([]*model.Notification, error) {
	var list []*model.Notification
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("recipient_uuid = ? AND pending_offline = ?", recipientUUID, true).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return list, nil
}

// ClearPendingOffline 批量清除离线标记
// delivery_state 只从 sent 前进到 delivered，期间已被读过的通知保持 read
func (r *notificationRepositoryImpl) ClearPendingOffline(ctx context.Context, recipientUUID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_uuid = ? AND id IN ? AND pending_offline = ?", recipientUUID, ids, true).
		Updates(map[string]interface{}{
			"pending_offline": false,
			"delivery_state": gorm.Expr("CASE WHEN delivery_state = ? THEN ? ELSE delivery_state END",
				model.DeliverySent, model.DeliveryDelivered),
		})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// List 分页获取通知（新的在前）
func (r *notificationRepositoryImpl) List(ctx context.Context, recipientUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
	page, pageSize = normalizePage(page, pageSize, maxNotificationPageSize)

	query := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.Notification{}).
			Where("recipient_uuid = ?", recipientUUID)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var list []*model.Notification
	if err := query().
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}
	return list, total, nil
}

// MarkRead 标记单条已读
// 已读通知再次标记视为成功；RowsAffected=0 时回查区分“已读”与“不存在”
func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, recipientUUID string, id int64) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.Notification{}).
		Where("id = ? AND recipient_uuid = ? AND is_read = ?", id, recipientUUID, false).
		Updates(map[string]interface{}{
			"is_read":        true,
			"delivery_state": model.DeliveryRead,
		})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Clauses(dbresolver.Write).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_uuid = ?", id, recipientUUID).
		Count(&count).Error; err != nil {
		return WrapDBError(err)
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkAllRead 标记全部已读
func (r *notificationRepositoryImpl) MarkAllRead(ctx context.Context, recipientUUID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_uuid = ? AND is_read = ?", recipientUUID, false).
		Updates(map[string]interface{}{
			"is_read":        true,
			"delivery_state": model.DeliveryRead,
		})
	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// Delete 软删除通知
func (r *notificationRepositoryImpl) Delete(ctx context.Context, recipientUUID string, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND recipient_uuid = ?", id, recipientUUID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountUnread 统计未读数量
// 强制走主库：计数总是紧跟在写操作之后推送给客户端
func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, recipientUUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.Notification{}).
		Where("recipient_uuid = ? AND is_read = ?", recipientUUID, false).
		Count(&count).Error
	if err != nil {
		return 0, WrapDBError(err)
	}
	return count, nil
}
