package v1

import (
	"AlumniServer/apps/social/internal/middleware"
	"AlumniServer/apps/social/internal/service"
	"AlumniServer/pkg/result"
	"context"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友关系处理器
type FriendHandler struct {
	socialService service.SocialService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(socialService service.SocialService) *FriendHandler {
	return &FriendHandler{
		socialService: socialService,
	}
}

// SendRequest 发送好友申请
// @Summary 发送好友申请
// @Tags 好友接口
// @Produce json
// @Param id path string true "对方用户 UUID"
// @Success 200 {object} dto.SendRequestResponse
// @Router /api/v1/auth/friend/send/{id} [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	// 1. 读取身份与路径参数
	self, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := pathUUID(c)
	if !ok {
		return
	}

	// 2. 调用服务层
	resp, err := h.socialService.SendRequest(ctx, self, target)
	if err != nil {
		failFromService(ctx, c, "发送好友申请", err)
		return
	}

	// 3. 返回成功响应
	result.Success(c, resp)
}

// AcceptRequest 同意好友申请
// @Router /api/v1/auth/friend/accept/{id} [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.handlePeerAction(c, "同意好友申请", h.socialService.AcceptRequest)
}

// DeclineRequest 拒绝好友申请
// @Router /api/v1/auth/friend/reject/{id} [post]
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	h.handlePeerAction(c, "拒绝好友申请", h.socialService.DeclineRequest)
}

// CancelRequest 撤回好友申请
// @Router /api/v1/auth/friend/cancel/{id} [post]
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	h.handlePeerAction(c, "撤回好友申请", h.socialService.CancelRequest)
}

// Unfriend 解除好友
// @Router /api/v1/auth/friend/remove/{id} [delete]
func (h *FriendHandler) Unfriend(c *gin.Context) {
	h.handlePeerAction(c, "解除好友", h.socialService.Unfriend)
}

// ListConnections 好友列表
// @Success 200 {object} dto.ConnectionListResponse
// @Router /api/v1/auth/friend/list [get]
func (h *FriendHandler) ListConnections(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.socialService.ListConnections(ctx, self)
	if err != nil {
		failFromService(ctx, c, "获取好友列表", err)
		return
	}
	result.Success(c, resp)
}

// ListPendingIncoming 收到的待处理申请
// @Success 200 {object} dto.PendingRequestListResponse
// @Router /api/v1/auth/friend/requests/incoming [get]
func (h *FriendHandler) ListPendingIncoming(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.socialService.ListPendingIncoming(ctx, self)
	if err != nil {
		failFromService(ctx, c, "获取收到的好友申请", err)
		return
	}
	result.Success(c, resp)
}

// ListPendingOutgoing 发出的待处理申请
// @Success 200 {object} dto.PendingRequestListResponse
// @Router /api/v1/auth/friend/requests/outgoing [get]
func (h *FriendHandler) ListPendingOutgoing(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.socialService.ListPendingOutgoing(ctx, self)
	if err != nil {
		failFromService(ctx, c, "获取发出的好友申请", err)
		return
	}
	result.Success(c, resp)
}

// RelationStatus 与对方的关系状态
// @Success 200 {object} dto.RelationStatusResponse
// @Router /api/v1/auth/friend/status/{id} [get]
func (h *FriendHandler) RelationStatus(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}
	peer, ok := pathUUID(c)
	if !ok {
		return
	}

	resp, err := h.socialService.RelationStatus(ctx, self, peer)
	if err != nil {
		failFromService(ctx, c, "查询好友关系", err)
		return
	}
	result.Success(c, resp)
}

// handlePeerAction 处理以路径中的对方 UUID 为参数、无返回数据的操作
func (h *FriendHandler) handlePeerAction(c *gin.Context, op string, action func(ctx context.Context, self, peer string) error) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}
	peer, ok := pathUUID(c)
	if !ok {
		return
	}

	if err := action(ctx, self, peer); err != nil {
		failFromService(ctx, c, op, err)
		return
	}
	result.Success(c, nil)
}
