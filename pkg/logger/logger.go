package logger

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"AlumniServer/config"
	"AlumniServer/pkg/ctxmeta"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// current 进程级 logger，未设置时日志直接丢弃。
var current atomic.Pointer[zap.Logger]

// ctxExtractors 决定哪些链路字段会从 ctx 自动带到每条日志上，顺序即输出顺序。
var ctxExtractors = []struct {
	key string
	get func(context.Context) string
}{
	{ctxmeta.KeyTraceID, ctxmeta.TraceID},
	{ctxmeta.KeyUserUUID, ctxmeta.UserUUID},
	{ctxmeta.KeyDeviceID, ctxmeta.DeviceID},
}

// L 返回当前全局 logger，可能为 nil。
func L() *zap.Logger {
	return current.Load()
}

// ReplaceGlobal 替换全局 logger，同时替换 zap.L()/zap.S()。
func ReplaceGlobal(l *zap.Logger) {
	current.Store(l)
	zap.ReplaceGlobals(l)
}

// Build 按配置创建 logger。级别写错时按 info 处理，不让服务因为日志配置起不来。
func Build(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		newEncoder(cfg),
		openSinks(cfg.OutputPaths, os.Stdout),
		zap.NewAtomicLevelAt(level),
	)

	opts := []zap.Option{
		zap.ErrorOutput(openSinks(cfg.ErrorOutputPaths, os.Stderr)),
		zap.AddCaller(),
		// 跳过 Info/Warn 等包装函数和 emit 两层
		zap.AddCallerSkip(2),
	}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

func newEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.StacktraceKey = "stack"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if !strings.EqualFold(cfg.Encoding, "console") {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.EnableColor {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// openSinks 把 stdout/stderr/文件路径组合成一个输出。
// 文件按追加方式打开，不做切割；打不开的路径直接跳过，全部失败时用 fallback。
func openSinks(paths []string, fallback *os.File) zapcore.WriteSyncer {
	sinks := make([]zapcore.WriteSyncer, 0, len(paths))
	for _, p := range paths {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "":
			continue
		case "stdout":
			sinks = append(sinks, zapcore.Lock(os.Stdout))
		case "stderr":
			sinks = append(sinks, zapcore.Lock(os.Stderr))
		default:
			f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				continue
			}
			sinks = append(sinks, zapcore.AddSync(f))
		}
	}
	switch len(sinks) {
	case 0:
		return zapcore.Lock(fallback)
	case 1:
		return sinks[0]
	default:
		return zapcore.NewMultiWriteSyncer(sinks...)
	}
}

func emit(ctx context.Context, lvl zapcore.Level, msg string, fields []zap.Field) {
	l := current.Load()
	if l == nil {
		return
	}
	ce := l.Check(lvl, msg)
	if ce == nil {
		return
	}
	if ctx != nil {
		for _, ex := range ctxExtractors {
			if v := ex.get(ctx); v != "" {
				fields = append(fields, zap.String(ex.key, v))
			}
		}
	}
	ce.Write(fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	emit(ctx, zapcore.DebugLevel, msg, fields)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	emit(ctx, zapcore.InfoLevel, msg, fields)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	emit(ctx, zapcore.WarnLevel, msg, fields)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	emit(ctx, zapcore.ErrorLevel, msg, fields)
}

// Fatal 写完日志后退出进程；未初始化 logger 时也会退出。
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	if current.Load() == nil {
		os.Exit(1)
	}
	emit(ctx, zapcore.FatalLevel, msg, fields)
}

// 字段构造，业务包只依赖本包即可打日志。

func String(key, value string) zap.Field { return zap.String(key, value) }
func Strings(key string, value []string) zap.Field { return zap.Strings(key, value) }
func Int(key string, value int) zap.Field { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }
func Duration(key string, d time.Duration) zap.Field { return zap.Duration(key, d) }
func Any(key string, value any) zap.Field { return zap.Any(key, value) }

// ErrorField 以指定 key 记录错误，err 为 nil 时输出为空字段。
func ErrorField(key string, err error) zap.Field {
	return zap.NamedError(key, err)
}
