package service

import (
	"AlumniServer/apps/social/internal/dto"
	"context"
)

// ==================== 好友关系服务接口 ====================

// SocialService 好友关系状态机
// 职责：发送/同意/拒绝/撤回申请、解除好友、关系查询
// 存储变更提交后才发送通知与社交事件，二者失败只记录日志，不影响操作结果
type SocialService interface {
	// SendRequest self 向 target 发送好友申请
	SendRequest(ctx context.Context, selfUUID, targetUUID string) (*dto.SendRequestResponse, error)

	// AcceptRequest self 同意 sender 的申请
	AcceptRequest(ctx context.Context, selfUUID, senderUUID string) error

	// DeclineRequest self 拒绝 sender 的申请
	DeclineRequest(ctx context.Context, selfUUID, senderUUID string) error

	// CancelRequest self 撤回发给 receiver 的申请
	CancelRequest(ctx context.Context, selfUUID, receiverUUID string) error

	// Unfriend 解除好友，本不是好友时为幂等空操作
	Unfriend(ctx context.Context, selfUUID, peerUUID string) error

	// ListConnections 好友列表
	ListConnections(ctx context.Context, selfUUID string) (*dto.ConnectionListResponse, error)

	// ListPendingIncoming 收到的待处理申请
	ListPendingIncoming(ctx context.Context, selfUUID string) (*dto.PendingRequestListResponse, error)

	// ListPendingOutgoing 发出的待处理申请
	ListPendingOutgoing(ctx context.Context, selfUUID string) (*dto.PendingRequestListResponse, error)

	// RelationStatus 查询与对方的关系状态
	RelationStatus(ctx context.Context, selfUUID, otherUUID string) (*dto.RelationStatusResponse, error)
}

// ==================== 通知服务接口 ====================

// NotificationService 通知读状态管理
// 职责：分页查询、已读、删除、未读数、离线补推；改变未读数的操作会重新推送未读数
type NotificationService interface {
	// GetNotifications 分页获取通知（新的在前）
	GetNotifications(ctx context.Context, selfUUID string, page, pageSize int) (*dto.NotificationListResponse, error)

	// MarkRead 标记单条已读
	MarkRead(ctx context.Context, selfUUID string, notificationID int64) error

	// MarkAllRead 标记全部已读
	MarkAllRead(ctx context.Context, selfUUID string) (*dto.MarkAllReadResponse, error)

	// DeleteNotification 删除通知
	DeleteNotification(ctx context.Context, selfUUID string, notificationID int64) error

	// GetUnreadCount 获取未读数
	GetUnreadCount(ctx context.Context, selfUUID string) (*dto.UnreadCountResponse, error)

	// DeliverOffline 主动触发离线通知补推
	DeliverOffline(ctx context.Context, selfUUID string) (*dto.DeliverOfflineResponse, error)
}
