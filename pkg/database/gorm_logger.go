package database

import (
	"context"
	"errors"
	"time"

	"AlumniServer/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger 将 gorm 日志接入 zap。
// 只记录慢 SQL 与真实错误，RecordNotFound 属于正常业务分支不打日志。
type gormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger 创建 gorm 日志适配器。
func NewGormLogger(slowThreshold time.Duration) gormlogger.Interface {
	return &gormLogger{level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Info(ctx, msg, logger.Any("args", args))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Warn(ctx, msg, logger.Any("args", args))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Error(ctx, msg, logger.Any("args", args))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	cost := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.Error(ctx, "SQL 执行失败",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("cost", cost),
			logger.ErrorField("error", err),
		)
	case l.slowThreshold > 0 && cost > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.Warn(ctx, "慢 SQL",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.Duration("cost", cost),
		)
	}
}
