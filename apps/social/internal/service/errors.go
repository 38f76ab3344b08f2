package service

import (
	"context"
	"errors"
	"fmt"

	"AlumniServer/apps/social/internal/dispatcher"
	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/consts"
	"AlumniServer/pkg/logger"
)

// Kind 业务错误分类
type Kind int

const (
	KindValidation Kind = iota + 1 // 参数或状态不合法
	KindConflict                   // 与现有状态冲突（已是好友、申请已存在）
	KindNotFound                   // 目标不存在或已被处理
	KindTransient                  // 存储暂时不可用，可重试
	KindInternal                   // 未预期的内部错误
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// BizError 业务层统一错误，Code 对应 consts 中的业务码
type BizError struct {
	Kind Kind
	Code int32
	Err  error
}

func (e *BizError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s(%d): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s(%d): %s", e.Kind, e.Code, consts.GetMessage(e.Code))
}

func (e *BizError) Unwrap() error { return e.Err }

// NewBizError 构造业务错误
func NewBizError(kind Kind, code int32, err error) *BizError {
	return &BizError{Kind: kind, Code: code, Err: err}
}

// ExtractErrorCode 提取业务错误码，非 BizError 一律视为内部错误
func ExtractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return consts.CodeInternalError
}

// translateError 将仓储/分发层错误转换为业务错误
// notFoundCode: ErrRecordNotFound 在当前场景下对应的业务码
func translateError(err error, notFoundCode int32) *BizError {
	var bizErr *BizError
	switch {
	case errors.As(err, &bizErr):
		return bizErr
	case errors.Is(err, repository.ErrSelfReference):
		return NewBizError(KindValidation, consts.CodeSelfRequest, err)
	case errors.Is(err, dispatcher.ErrInvalidType):
		return NewBizError(KindValidation, consts.CodeNotificationTypeInvalid, err)
	case errors.Is(err, dispatcher.ErrEmptyRecipient):
		return NewBizError(KindValidation, consts.CodeParamError, err)
	case errors.Is(err, repository.ErrDuplicateRequest):
		return NewBizError(KindConflict, consts.CodeFriendRequestSent, err)
	case errors.Is(err, repository.ErrAlreadyConnected):
		return NewBizError(KindConflict, consts.CodeAlreadyFriend, err)
	case errors.Is(err, repository.ErrRequestNotFound):
		return NewBizError(KindNotFound, consts.CodeFriendRequestNotFound, err)
	case errors.Is(err, repository.ErrRecordNotFound):
		return NewBizError(KindNotFound, notFoundCode, err)
	case errors.Is(err, repository.ErrDatabase), errors.Is(err, repository.ErrRedis),
		errors.Is(err, context.DeadlineExceeded):
		return NewBizError(KindTransient, consts.CodeServiceUnavailable, err)
	default:
		return NewBizError(KindInternal, consts.CodeInternalError, err)
	}
}

// failWith 转换错误，服务端错误在此记录日志，业务错误属于正常流程不记录
func failWith(ctx context.Context, op string, err error, notFoundCode int32) error {
	bizErr := translateError(err, notFoundCode)
	if bizErr.Kind == KindTransient || bizErr.Kind == KindInternal {
		logger.Error(ctx, op+"失败",
			logger.String("kind", bizErr.Kind.String()),
			logger.Int("business_code", int(bizErr.Code)),
			logger.ErrorField("error", err),
		)
	}
	return bizErr
}
