package v1

import (
	"AlumniServer/apps/social/internal/dto"
	"AlumniServer/apps/social/internal/middleware"
	"AlumniServer/apps/social/internal/service"
	"AlumniServer/consts"
	"AlumniServer/pkg/result"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications 分页获取通知（新的在前）
// @Summary 获取通知列表
// @Tags 通知接口
// @Produce json
// @Param page query int false "页码(默认1)"
// @Param pageSize query int false "每页数量(默认20，最大100)"
// @Success 200 {object} dto.NotificationListResponse
// @Router /api/v1/auth/notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	// 1. 绑定查询参数
	var req dto.GetNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 2. 调用服务层（默认值在服务层处理）
	resp, err := h.notificationService.GetNotifications(ctx, self, req.Page, req.PageSize)
	if err != nil {
		failFromService(ctx, c, "获取通知列表", err)
		return
	}

	// 3. 返回成功响应
	result.Success(c, resp)
}

// GetUnreadCount 获取未读数
// @Success 200 {object} dto.UnreadCountResponse
// @Router /api/v1/auth/notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.GetUnreadCount(ctx, self)
	if err != nil {
		failFromService(ctx, c, "获取未读数", err)
		return
	}
	result.Success(c, resp)
}

// MarkRead 标记单条已读
// @Param request body dto.MarkReadRequest true "通知 ID"
// @Router /api/v1/auth/notifications/mark-read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}
	notificationID, ok := parseNotificationID(req.NotificationID)
	if !ok {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.notificationService.MarkRead(ctx, self, notificationID); err != nil {
		failFromService(ctx, c, "标记通知已读", err)
		return
	}
	result.Success(c, nil)
}

// MarkAllRead 标记全部已读
// @Success 200 {object} dto.MarkAllReadResponse
// @Router /api/v1/auth/notifications/mark-all-read [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.MarkAllRead(ctx, self)
	if err != nil {
		failFromService(ctx, c, "标记全部已读", err)
		return
	}
	result.Success(c, resp)
}

// DeleteNotification 删除通知
// @Param notificationId path string true "通知 ID"
// @Router /api/v1/auth/notifications/{notificationId} [delete]
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, ok := parseNotificationID(c.Param("notificationId"))
	if !ok {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.notificationService.DeleteNotification(ctx, self, notificationID); err != nil {
		failFromService(ctx, c, "删除通知", err)
		return
	}
	result.Success(c, nil)
}

// DeliverOffline 主动补推离线通知（客户端重连后兜底调用）
// @Success 200 {object} dto.DeliverOfflineResponse
// @Router /api/v1/auth/notifications/deliver-offline [post]
func (h *NotificationHandler) DeliverOffline(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)
	self, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.DeliverOffline(ctx, self)
	if err != nil {
		failFromService(ctx, c, "补推离线通知", err)
		return
	}
	result.Success(c, resp)
}

// parseNotificationID 通知 ID 为雪花 ID，按字符串传输
func parseNotificationID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
