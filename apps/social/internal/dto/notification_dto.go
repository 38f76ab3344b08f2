package dto

import (
	"AlumniServer/model"
)

// ==================== 通知相关 DTO ====================

// GetNotificationsRequest 获取通知列表请求 DTO
type GetNotificationsRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`                 // 页码
	PageSize int `form:"pageSize" json:"pageSize" binding:"omitempty,min=1,max=100"` // 每页大小
}

// MarkReadRequest 标记已读请求 DTO（雪花 ID 超出 JS 安全整数范围，按字符串传输）
type MarkReadRequest struct {
	NotificationID string `json:"notificationId" binding:"required,snowflake"`
}

// NotificationItem 通知 DTO
type NotificationItem struct {
	ID            int64               `json:"id,string"`
	SenderUUID    string              `json:"senderUuid,omitempty"`
	Type          string              `json:"type"`
	Message       string              `json:"message"`
	IsRead        bool                `json:"isRead"`
	DeliveryState model.DeliveryState `json:"deliveryState"` // sent / delivered / read
	CreatedAt     int64               `json:"createdAt"`     // 毫秒时间戳
}

// NotificationListResponse 通知列表响应 DTO（新的在前）
type NotificationListResponse struct {
	Items      []*NotificationItem `json:"items"`
	Pagination *PaginationInfo     `json:"pagination"`
}

// UnreadCountResponse 未读数响应 DTO
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse 全部已读响应 DTO
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"` // 本次新标记的数量
}

// DeliverOfflineResponse 离线补推响应 DTO
type DeliverOfflineResponse struct {
	Delivered int `json:"delivered"`
}

// ConvertNotification 将通知模型转换为 DTO
func ConvertNotification(n *model.Notification) *NotificationItem {
	if n == nil {
		return nil
	}
	return &NotificationItem{
		ID:            n.Id,
		SenderUUID:    n.SenderUuid,
		Type:          string(n.Type),
		Message:       n.Message,
		IsRead:        n.IsRead,
		DeliveryState: n.DeliveryState,
		CreatedAt:     n.CreatedAt.UnixMilli(),
	}
}

// ConvertNotifications 批量转换
func ConvertNotifications(list []*model.Notification) []*NotificationItem {
	items := make([]*NotificationItem, 0, len(list))
	for _, n := range list {
		items = append(items, ConvertNotification(n))
	}
	return items
}
