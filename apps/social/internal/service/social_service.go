package service

import (
	"context"
	"fmt"
	"time"

	"AlumniServer/apps/social/internal/dispatcher"
	"AlumniServer/apps/social/internal/dto"
	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/apps/social/mq"
	"AlumniServer/consts"
	"AlumniServer/model"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/logger"
)

const publishTimeout = 5 * time.Second

// socialServiceImpl 好友关系服务实现
type socialServiceImpl struct {
	connRepo  repository.IConnectionRepository
	directory repository.IUserDirectory
	notifier  dispatcher.Notifier
	publisher mq.EventPublisher
}

// NewSocialService 创建好友关系服务实例
// publisher 为 nil 时不发布社交事件
func NewSocialService(
	connRepo repository.IConnectionRepository,
	directory repository.IUserDirectory,
	notifier dispatcher.Notifier,
	publisher mq.EventPublisher,
) SocialService {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	return &socialServiceImpl{
		connRepo:  connRepo,
		directory: directory,
		notifier:  notifier,
		publisher: publisher,
	}
}

// SendRequest 发送好友申请
func (s *socialServiceImpl) SendRequest(ctx context.Context, selfUUID, targetUUID string) (*dto.SendRequestResponse, error) {
	if err := validatePair(selfUUID, targetUUID); err != nil {
		return nil, err
	}

	// 1. 双方必须存在
	self, err := s.requireUser(ctx, selfUUID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, targetUUID); err != nil {
		return nil, err
	}

	// 2. 写入申请
	req, err := s.connRepo.CreateRequest(ctx, selfUUID, targetUUID)
	if err != nil {
		return nil, failWith(ctx, "发送好友申请", err, consts.CodeUserNotFound)
	}

	// 3. 提交后通知对方
	s.notify(ctx, targetUUID, selfUUID, model.NotificationFriendRequest,
		fmt.Sprintf("%s sent you a friend request.", self.DisplayName()))
	s.publish(ctx, mq.EventRequestSent, selfUUID, targetUUID)

	logger.Info(ctx, "发送好友申请成功",
		logger.String("target_uuid", targetUUID),
		logger.Int64("request_id", req.Id),
	)
	return &dto.SendRequestResponse{RequestID: req.Id}, nil
}

// AcceptRequest 同意好友申请
func (s *socialServiceImpl) AcceptRequest(ctx context.Context, selfUUID, senderUUID string) error {
	if err := validatePair(selfUUID, senderUUID); err != nil {
		return err
	}
	self, err := s.requireUser(ctx, selfUUID)
	if err != nil {
		return err
	}

	if err := s.connRepo.AcceptRequest(ctx, selfUUID, senderUUID); err != nil {
		return failWith(ctx, "同意好友申请", err, consts.CodeFriendRequestNotFound)
	}

	s.notify(ctx, senderUUID, selfUUID, model.NotificationFriendRequestAccepted,
		fmt.Sprintf("%s accepted your friend request.", self.DisplayName()))
	s.publish(ctx, mq.EventRequestAccepted, selfUUID, senderUUID)
	return nil
}

// DeclineRequest 拒绝好友申请
func (s *socialServiceImpl) DeclineRequest(ctx context.Context, selfUUID, senderUUID string) error {
	if err := validatePair(selfUUID, senderUUID); err != nil {
		return err
	}
	self, err := s.requireUser(ctx, selfUUID)
	if err != nil {
		return err
	}

	if err := s.connRepo.DeclineRequest(ctx, selfUUID, senderUUID); err != nil {
		return failWith(ctx, "拒绝好友申请", err, consts.CodeFriendRequestNotFound)
	}

	s.notify(ctx, senderUUID, selfUUID, model.NotificationFriendRequestRejected,
		fmt.Sprintf("%s rejected your friend request.", self.DisplayName()))
	s.publish(ctx, mq.EventRequestDeclined, selfUUID, senderUUID)
	return nil
}

// CancelRequest 撤回好友申请（不通知对方）
func (s *socialServiceImpl) CancelRequest(ctx context.Context, selfUUID, receiverUUID string) error {
	if err := validatePair(selfUUID, receiverUUID); err != nil {
		return err
	}

	if err := s.connRepo.CancelRequest(ctx, selfUUID, receiverUUID); err != nil {
		return failWith(ctx, "撤回好友申请", err, consts.CodeFriendRequestNotFound)
	}

	s.publish(ctx, mq.EventRequestCancelled, selfUUID, receiverUUID)
	return nil
}

// Unfriend 解除好友
// 只有真正删除了关系才通知对方，重复调用不会产生重复通知
func (s *socialServiceImpl) Unfriend(ctx context.Context, selfUUID, peerUUID string) error {
	if err := validatePair(selfUUID, peerUUID); err != nil {
		return err
	}
	self, err := s.requireUser(ctx, selfUUID)
	if err != nil {
		return err
	}
	if _, err := s.requireUser(ctx, peerUUID); err != nil {
		return err
	}

	removed, err := s.connRepo.RemoveConnection(ctx, selfUUID, peerUUID)
	if err != nil {
		return failWith(ctx, "解除好友", err, consts.CodeNotFriend)
	}
	if !removed {
		return nil
	}

	s.notify(ctx, peerUUID, selfUUID, model.NotificationFriendRemoved,
		fmt.Sprintf("%s removed you from friends.", self.DisplayName()))
	s.publish(ctx, mq.EventConnectionRemove, selfUUID, peerUUID)
	return nil
}

// ListConnections 好友列表
func (s *socialServiceImpl) ListConnections(ctx context.Context, selfUUID string) (*dto.ConnectionListResponse, error) {
	peers, err := s.connRepo.ListConnections(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "获取好友列表", err, consts.CodeUserNotFound)
	}
	if peers == nil {
		peers = []string{}
	}
	return &dto.ConnectionListResponse{Items: peers, Total: len(peers)}, nil
}

// ListPendingIncoming 收到的待处理申请
func (s *socialServiceImpl) ListPendingIncoming(ctx context.Context, selfUUID string) (*dto.PendingRequestListResponse, error) {
	requests, err := s.connRepo.ListPendingIncoming(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "获取收到的好友申请", err, consts.CodeUserNotFound)
	}
	return s.buildRequestList(ctx, requests, func(r *model.ConnectionRequest) string { return r.SenderUuid }), nil
}

// ListPendingOutgoing 发出的待处理申请
func (s *socialServiceImpl) ListPendingOutgoing(ctx context.Context, selfUUID string) (*dto.PendingRequestListResponse, error) {
	requests, err := s.connRepo.ListPendingOutgoing(ctx, selfUUID)
	if err != nil {
		return nil, failWith(ctx, "获取发出的好友申请", err, consts.CodeUserNotFound)
	}
	return s.buildRequestList(ctx, requests, func(r *model.ConnectionRequest) string { return r.ReceiverUuid }), nil
}

// RelationStatus 查询关系状态
func (s *socialServiceImpl) RelationStatus(ctx context.Context, selfUUID, otherUUID string) (*dto.RelationStatusResponse, error) {
	if err := validatePair(selfUUID, otherUUID); err != nil {
		return nil, err
	}

	resp := &dto.RelationStatusResponse{PeerUUID: otherUUID, Status: dto.RelationNone}

	connected, err := s.connRepo.IsConnected(ctx, selfUUID, otherUUID)
	if err != nil {
		return nil, failWith(ctx, "查询关系状态", err, consts.CodeUserNotFound)
	}
	if connected {
		resp.Status = dto.RelationConnected
		return resp, nil
	}

	pending, err := s.connRepo.GetPendingBetween(ctx, selfUUID, otherUUID)
	if err != nil {
		return nil, failWith(ctx, "查询关系状态", err, consts.CodeUserNotFound)
	}
	if pending != nil {
		if pending.SenderUuid == selfUUID {
			resp.Status = dto.RelationPendingOutgoing
		} else {
			resp.Status = dto.RelationPendingIncoming
		}
	}
	return resp, nil
}

// buildRequestList 转换申请列表，对方昵称查询失败时留空
func (s *socialServiceImpl) buildRequestList(ctx context.Context, requests []*model.ConnectionRequest, peerOf func(*model.ConnectionRequest) string) *dto.PendingRequestListResponse {
	items := make([]*dto.ConnectionRequestItem, 0, len(requests))
	for _, r := range requests {
		nickname := ""
		if user, err := s.directory.GetByUUID(ctx, peerOf(r)); err == nil {
			nickname = user.DisplayName()
		}
		items = append(items, dto.ConvertConnectionRequest(r, nickname))
	}
	return &dto.PendingRequestListResponse{Items: items}
}

// requireUser 查询用户，不存在返回 CodeUserNotFound
func (s *socialServiceImpl) requireUser(ctx context.Context, userUUID string) (*model.UserInfo, error) {
	user, err := s.directory.GetByUUID(ctx, userUUID)
	if err != nil {
		return nil, failWith(ctx, "查询用户", err, consts.CodeUserNotFound)
	}
	return user, nil
}

// notify 提交后的通知，失败只记录日志
func (s *socialServiceImpl) notify(ctx context.Context, recipientUUID, senderUUID string, typ model.NotificationType, message string) {
	if _, err := s.notifier.Dispatch(ctx, recipientUUID, senderUUID, typ, message); err != nil {
		logger.Error(ctx, "发送通知失败",
			logger.String("recipient_uuid", recipientUUID),
			logger.String("type", string(typ)),
			logger.ErrorField("error", err),
		)
	}
}

// publish 异步发布社交事件
func (s *socialServiceImpl) publish(ctx context.Context, typ mq.SocialEventType, actorUUID, targetUUID string) {
	event := mq.BuildSocialEvent(ctx, typ, actorUUID, targetUUID)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := s.publisher.Publish(runCtx, event); err != nil {
			logger.Warn(runCtx, "社交事件发布失败",
				logger.String("event_id", event.EventID),
				logger.String("type", string(event.Type)),
				logger.ErrorField("error", err),
			)
		}
	}, publishTimeout)
}

// validatePair 校验双方 uuid
func validatePair(selfUUID, otherUUID string) error {
	if selfUUID == "" || otherUUID == "" {
		return NewBizError(KindValidation, consts.CodeParamError, nil)
	}
	if selfUUID == otherUUID {
		return NewBizError(KindValidation, consts.CodeSelfRequest, repository.ErrSelfReference)
	}
	return nil
}
