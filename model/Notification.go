package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NotificationType 通知类型，封闭枚举，入库前必须通过 Valid 校验。
type NotificationType string

const (
	NotificationFriendRequest         NotificationType = "friend_request"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotificationFriendRequestRejected NotificationType = "friend_request_rejected"
	NotificationFriendRemoved         NotificationType = "friend_removed"
	NotificationMessage               NotificationType = "message"
	NotificationEvent                 NotificationType = "event"
	NotificationUpdate                NotificationType = "update"
	NotificationAlumniPost            NotificationType = "alumni_post"
	NotificationComment               NotificationType = "comment"
	NotificationLike                  NotificationType = "like"
	NotificationSystemAlert           NotificationType = "system_alert"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationFriendRequest:         {},
	NotificationFriendRequestAccepted: {},
	NotificationFriendRequestRejected: {},
	NotificationFriendRemoved:         {},
	NotificationMessage:               {},
	NotificationEvent:                 {},
	NotificationUpdate:                {},
	NotificationAlumniPost:            {},
	NotificationComment:               {},
	NotificationLike:                  {},
	NotificationSystemAlert:           {},
}

// Valid 判断是否为已知类型。
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// ParseNotificationType 将外部输入转换为通知类型。
func ParseNotificationType(raw string) (NotificationType, error) {
	t := NotificationType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown notification type %q", raw)
	}
	return t, nil
}

// DeliveryState 通知投递状态。
type DeliveryState int8

const (
	DeliverySent      DeliveryState = 0 // 已入库，尚未确认送达
	DeliveryDelivered DeliveryState = 1 // 已推送到在线连接
	DeliveryRead      DeliveryState = 2 // 接收人已读
)

func (s DeliveryState) String() string {
	switch s {
	case DeliverySent:
		return "sent"
	case DeliveryDelivered:
		return "delivered"
	case DeliveryRead:
		return "read"
	default:
		return "unknown"
	}
}

// MarshalText 对外以字符串输出（sent/delivered/read）。
func (s DeliveryState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 与 MarshalText 对应。
func (s *DeliveryState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "sent":
		*s = DeliverySent
	case "delivered":
		*s = DeliveryDelivered
	case "read":
		*s = DeliveryRead
	default:
		return fmt.Errorf("unknown delivery state %q", text)
	}
	return nil
}

// Notification 站内通知。
// PendingOffline=true 表示推送时接收人不在线（或推送失败），等待下次上线补推。
// 通知只会被接收人显式删除（软删除），不会被系统隐式清理。
type Notification struct {
	Id             int64            `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id" json:"id,string"`
	RecipientUuid  string           `gorm:"column:recipient_uuid;type:varchar(36);not null;index:idx_recipient_created;index:idx_recipient_read;index:idx_recipient_offline;comment:接收人uuid" json:"recipient_uuid"`
	SenderUuid     string           `gorm:"column:sender_uuid;type:varchar(36);not null;default:'';comment:触发人uuid，系统通知为空" json:"sender_uuid,omitempty"`
	Type           NotificationType `gorm:"column:type;type:varchar(32);not null;comment:通知类型" json:"type"`
	Message        string           `gorm:"column:message;type:varchar(512);not null;comment:通知文案" json:"message"`
	IsRead         bool             `gorm:"column:is_read;not null;default:false;index:idx_recipient_read" json:"is_read"`
	DeliveryState  DeliveryState    `gorm:"column:delivery_state;not null;default:0;comment:0.sent 1.delivered 2.read" json:"delivery_state"`
	PendingOffline bool             `gorm:"column:pending_offline;not null;default:false;index:idx_recipient_offline" json:"pending_offline"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime;index:idx_recipient_created;index:idx_recipient_offline" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"column:deleted_at;index" json:"-"`
}

func (Notification) TableName() string { return "notification" }
