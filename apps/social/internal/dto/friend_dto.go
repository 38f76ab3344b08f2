package dto

import (
	"AlumniServer/model"
)

// ==================== 好友关系相关 DTO ====================

// 关系状态取值
const (
	RelationNone            = "none"
	RelationPendingOutgoing = "pending_outgoing"
	RelationPendingIncoming = "pending_incoming"
	RelationConnected       = "connected"
)

// SendRequestResponse 发送好友申请响应 DTO
type SendRequestResponse struct {
	RequestID int64 `json:"requestId,string"` // 申请ID
}

// ConnectionRequestItem 待处理申请 DTO
type ConnectionRequestItem struct {
	RequestID    int64  `json:"requestId,string"` // 申请ID
	SenderUUID   string `json:"senderUuid"`       // 申请人UUID
	ReceiverUUID string `json:"receiverUuid"`     // 接收人UUID
	PeerNickname string `json:"peerNickname"`     // 对方昵称
	CreatedAt    int64  `json:"createdAt"`        // 申请时间（毫秒时间戳）
}

// PendingRequestListResponse 待处理申请列表响应 DTO
type PendingRequestListResponse struct {
	Items []*ConnectionRequestItem `json:"items"`
}

// ConnectionListResponse 好友列表响应 DTO
type ConnectionListResponse struct {
	Items []string `json:"items"` // 好友UUID（升序）
	Total int      `json:"total"`
}

// RelationStatusResponse 关系状态响应 DTO
type RelationStatusResponse struct {
	PeerUUID string `json:"peerUuid"`
	Status   string `json:"status"` // none / pending_outgoing / pending_incoming / connected
}

// ConvertConnectionRequest 将申请模型转换为 DTO，peerNickname 由调用方解析
func ConvertConnectionRequest(req *model.ConnectionRequest, peerNickname string) *ConnectionRequestItem {
	if req == nil {
		return nil
	}
	return &ConnectionRequestItem{
		RequestID:    req.Id,
		SenderUUID:   req.SenderUuid,
		ReceiverUUID: req.ReceiverUuid,
		PeerNickname: peerNickname,
		CreatedAt:    req.CreatedAt.UnixMilli(),
	}
}
