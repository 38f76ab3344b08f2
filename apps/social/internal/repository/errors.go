package repository

import (
	"context"
	"errors"
	"fmt"

	"AlumniServer/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 存储层错误。service 只认这里的哨兵值，不直接接触 gorm/redis 的错误类型。
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	// ErrDatabase 数据库故障，一般可以重试。
	ErrDatabase = errors.New("database error")
	// ErrRedis 缓存故障，读路径上会降级到数据库。
	ErrRedis = errors.New("redis error")
)

// 连接图上的业务冲突，由仓储在事务内判定。
var (
	ErrSelfReference    = errors.New("cannot target yourself")
	ErrDuplicateRequest = errors.New("pending request already exists")
	ErrAlreadyConnected = errors.New("already connected")
	// ErrRequestNotFound 申请不存在，或者已经不是 pending。
	ErrRequestNotFound = errors.New("pending request not found")
)

// WrapDBError 把 gorm 错误归到存储层哨兵值上，未识别的错误保留原文包成 ErrDatabase。
func WrapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case isDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
}

// WrapRedisError redis.Nil 原样返回，由调用方当作未命中处理。
func WrapRedisError(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRedis, err)
}

// LogRedisError 缓存读写失败只记一条告警，调用方继续走数据库。
func LogRedisError(ctx context.Context, err error) {
	logger.Warn(ctx, "连接缓存不可用，回源数据库", logger.ErrorField("error", err))
}
