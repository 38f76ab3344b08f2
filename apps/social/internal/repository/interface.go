package repository

import (
	"AlumniServer/model"
	"context"
)

// ==================== 好友关系 Repository ====================

// IConnectionRepository 好友关系图数据访问接口
// 所有写操作都在单个数据库事务内完成，事务提交后才会触发缓存失效。
type IConnectionRepository interface {
	// CreateRequest 创建待处理申请（sender -> receiver）
	// 错误：ErrSelfReference / ErrAlreadyConnected / ErrDuplicateRequest（任一方向已有待处理申请）
	CreateRequest(ctx context.Context, senderUUID, receiverUUID string) (*model.ConnectionRequest, error)

	// AcceptRequest 接收人同意申请：删除申请 + 写入双向关系（同一事务）
	// 并发同意同一申请时只有一个成功，其余返回 ErrRequestNotFound
	AcceptRequest(ctx context.Context, receiverUUID, senderUUID string) error

	// DeclineRequest 接收人拒绝申请，仅删除申请
	DeclineRequest(ctx context.Context, receiverUUID, senderUUID string) error

	// CancelRequest 申请人撤回申请
	CancelRequest(ctx context.Context, senderUUID, receiverUUID string) error

	// RemoveConnection 解除双向好友关系，不存在时为幂等空操作
	// 返回值 removed 表示本次是否真的删除了关系
	RemoveConnection(ctx context.Context, userUUID, peerUUID string) (removed bool, err error)

	// ListConnections 获取好友 uuid 列表（按 uuid 升序）
	ListConnections(ctx context.Context, userUUID string) ([]string, error)

	// ListPendingIncoming 获取收到的待处理申请（新的在前）
	ListPendingIncoming(ctx context.Context, userUUID string) ([]*model.ConnectionRequest, error)

	// ListPendingOutgoing 获取发出的待处理申请（新的在前）
	ListPendingOutgoing(ctx context.Context, userUUID string) ([]*model.ConnectionRequest, error)

	// GetPendingBetween 获取两人之间（任一方向）的待处理申请，不存在返回 nil, nil
	GetPendingBetween(ctx context.Context, userA, userB string) (*model.ConnectionRequest, error)

	// IsConnected 检查是否为好友
	IsConnected(ctx context.Context, userUUID, peerUUID string) (bool, error)
}

// ==================== 通知 Repository ====================

// INotificationRepository 通知数据访问接口
type INotificationRepository interface {
	// Create 持久化一条通知（Id 为空时自动生成雪花 ID）
	Create(ctx context.Context, notification *model.Notification) error

	// MarkDelivered 标记已推送（仅从 sent 前进到 delivered，不会覆盖 read）
	MarkDelivered(ctx context.Context, id int64) error

	// MarkPendingOffline 标记为离线待补推
	MarkPendingOffline(ctx context.Context, id int64) error

	// ListPendingOffline 获取待补推通知，按 (created_at, id) 升序
	ListPendingOffline(ctx context.Context, recipientUUID string) ([]*model.Notification, error)

	// ClearPendingOffline 批量清除离线标记并标记已推送，返回受影响行数
	ClearPendingOffline(ctx context.Context, recipientUUID string, ids []int64) (int64, error)

	// List 分页获取通知（新的在前），返回列表与总数
	List(ctx context.Context, recipientUUID string, page, pageSize int) ([]*model.Notification, int64, error)

	// MarkRead 标记单条已读，通知不属于该用户或不存在时返回 ErrRecordNotFound
	MarkRead(ctx context.Context, recipientUUID string, id int64) error

	// MarkAllRead 标记全部已读，返回本次新标记的数量
	MarkAllRead(ctx context.Context, recipientUUID string) (int64, error)

	// Delete 删除通知（软删除），不存在或不属于该用户时返回 ErrRecordNotFound
	Delete(ctx context.Context, recipientUUID string, id int64) error

	// CountUnread 统计未读数量
	CountUnread(ctx context.Context, recipientUUID string) (int64, error)
}

// ==================== 用户目录 ====================

// IUserDirectory 用户资料只读查询（存在性校验与展示名）
type IUserDirectory interface {
	// GetByUUID 查询用户，不存在返回 ErrRecordNotFound
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)
}
