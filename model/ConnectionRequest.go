package model

import "time"

// RequestStatus 好友申请状态。
type RequestStatus int8

const (
	RequestStatusPending  RequestStatus = 0 // 待处理
	RequestStatusAccepted RequestStatus = 1 // 已同意
	RequestStatusDeclined RequestStatus = 2 // 已拒绝
)

func (s RequestStatus) String() string {
	switch s {
	case RequestStatusPending:
		return "pending"
	case RequestStatusAccepted:
		return "accepted"
	case RequestStatusDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

// ConnectionRequest 好友申请（sender -> receiver）。
// 表中只保留待处理申请：同意/拒绝/撤回都会在事务内删除该行，已处理的申请不对外可见。
// PairKey = min(a,b) + ":" + max(a,b)，唯一索引保证同一对用户无论方向最多一条待处理申请。
type ConnectionRequest struct {
	Id           int64         `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id" json:"id,string"`
	SenderUuid   string        `gorm:"column:sender_uuid;type:varchar(36);not null;index:idx_sender_created;comment:申请人uuid" json:"sender_uuid"`
	ReceiverUuid string        `gorm:"column:receiver_uuid;type:varchar(36);not null;index:idx_receiver_created;comment:接收人uuid" json:"receiver_uuid"`
	PairKey      string        `gorm:"column:pair_key;type:varchar(80);not null;uniqueIndex:uidx_pair_key;comment:无序用户对" json:"-"`
	Status       RequestStatus `gorm:"column:status;not null;default:0;comment:0.待处理 1.已同意 2.已拒绝" json:"status"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime;index:idx_sender_created;index:idx_receiver_created" json:"created_at"`
}

func (ConnectionRequest) TableName() string { return "connection_request" }

// BuildPairKey 生成与方向无关的用户对键。
func BuildPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
