package service

import (
	"context"

	"AlumniServer/apps/social/internal/dispatcher"
	"AlumniServer/apps/social/internal/dto"
	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/consts"
	"AlumniServer/pkg/logger"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// notificationServiceImpl 通知服务实现
type notificationServiceImpl struct {
	notificationRepo repository.INotificationRepository
	notifier         dispatcher.Notifier
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(notificationRepo repository.INotificationRepository, notifier dispatcher.Notifier) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		notifier:         notifier,
	}
}

// GetNotifications 分页获取通知
func (s *notificationServiceImpl) GetNotifications(ctx context.Context, selfUUID string, page, pageSize int) (*dto.NotificationListResponse, error) {
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	list, total, err := s.notificationRepo.List(ctx, selfUUID, page, pageSize)
	if err != nil {
		return nil, failWith(ctx, "获取通知列表", err, consts.CodeNotificationNotFound)
	}
	return &dto.NotificationListResponse{
		Items:      dto.ConvertNotifications(list),
		Pagination: dto.NewPaginationInfo(page, pageSize, total),
	}, nil
}

// MarkRead 标记单条已读
func (s *notificationServiceImpl) MarkRead(ctx context.Context, selfUUID string, notificationID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, selfUUID, notificationID); err != nil {
		return failWith(ctx, "标记通知已读", err, consts.CodeNotificationNotFound)
	}
	s.pushUnreadCount(ctx, selfUUID)
	return nil
}

// MarkAllRead 标记全部已读
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, selfUUID string) (*dto.MarkAllReadResponse, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "标记全部已读", err, consts.CodeNotificationNotFound)
	}
	if updated > 0 {
		s.pushUnreadCount(ctx, selfUUID)
	}
	return &dto.MarkAllReadResponse{Updated: updated}, nil
}

// DeleteNotification 删除通知
func (s *notificationServiceImpl) DeleteNotification(ctx context.Context, selfUUID string, notificationID int64) error {
	if err := s.notificationRepo.Delete(ctx, selfUUID, notificationID); err != nil {
		return failWith(ctx, "删除通知", err, consts.CodeNotificationNotFound)
	}
	s.pushUnreadCount(ctx, selfUUID)
	return nil
}

// GetUnreadCount 获取未读数
func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context, selfUUID string) (*dto.UnreadCountResponse, error) {
	count, err := s.notificationRepo.CountUnread(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "获取未读数", err, consts.CodeNotificationNotFound)
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

// DeliverOffline 主动补推离线通知（用户不在线时返回 0）
func (s *notificationServiceImpl) DeliverOffline(ctx context.Context, selfUUID string) (*dto.DeliverOfflineResponse, error) {
	delivered, err := s.notifier.DeliverPending(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "补推离线通知", err, consts.CodeNotificationNotFound)
	}
	return &dto.DeliverOfflineResponse{Delivered: delivered}, nil
}

// pushUnreadCount 推送最新未读数，失败只记录日志
func (s *notificationServiceImpl) pushUnreadCount(ctx context.Context, selfUUID string) {
	if err := s.notifier.PushUnreadCount(ctx, selfUUID); err != nil {
		logger.Warn(ctx, "推送未读数失败",
			logger.String("user_uuid", selfUUID),
			logger.ErrorField("error", err),
		)
	}
}
