package async

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"AlumniServer/config"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/logger"

	"github.com/panjf2000/ants/v2"
)

// defaultTaskTimeout RunSafe 未指定超时时的上限。
const defaultTaskTimeout = time.Minute

// ErrNotInitialized 表示协程池尚未初始化或已经释放。
var ErrNotInitialized = errors.New("async pool not initialized")

// workers 后台任务池：缓存重建、社交事件投递、上线补推都走这里。
var workers struct {
	sync.RWMutex
	pool           *ants.Pool
	releaseTimeout time.Duration
}

// Init 初始化进程级协程池，重复调用不会重建。
func Init(cfg config.AsyncConfig) error {
	workers.Lock()
	defer workers.Unlock()
	if workers.pool != nil {
		return nil
	}

	opts := []ants.Option{
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithMaxBlockingTasks(cfg.MaxBlockingTasks),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithPanicHandler(func(p any) {
			logger.Error(context.Background(), "协程池 worker panic",
				logger.Any("panic", p),
				logger.String("stack", string(debug.Stack())),
			)
		}),
	}
	p, err := ants.NewPool(cfg.PoolSize, opts...)
	if err != nil {
		return err
	}
	workers.pool = p
	workers.releaseTimeout = cfg.ReleaseTimeout
	return nil
}

// Release 关闭协程池，等待已提交的任务最多 ReleaseTimeout。
// 之后的 RunSafe 只记录日志，不再执行任务。
func Release() error {
	workers.Lock()
	defer workers.Unlock()
	p := workers.pool
	if p == nil {
		return nil
	}
	workers.pool = nil
	if workers.releaseTimeout <= 0 {
		p.Release()
		return nil
	}
	return p.ReleaseTimeout(workers.releaseTimeout)
}

func submit(task func()) error {
	workers.RLock()
	defer workers.RUnlock()
	if workers.pool == nil {
		return ErrNotInitialized
	}
	return workers.pool.Submit(task)
}

// RunSafe 在协程池中执行 task。
// 任务拿到的 ctx 带有父 ctx 的 trace/user/device 字段，但不跟随父 ctx 取消，
// 请求返回后任务继续执行，直到完成或 timeout。task 内的 panic 会被吞掉并记录。
func RunSafe(ctx context.Context, task func(ctx context.Context), timeout time.Duration) {
	if task == nil {
		return
	}
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}

	base := context.Background()
	if ctx != nil {
		base = ctxmeta.Propagate(ctx)
	}
	runCtx, cancel := context.WithTimeout(base, timeout)

	err := submit(func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(runCtx, "后台任务 panic",
					logger.Any("panic", r),
					logger.String("stack", string(debug.Stack())),
				)
			}
		}()

		task(runCtx)

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			logger.Warn(runCtx, "后台任务超时",
				logger.Duration("timeout", timeout),
			)
		}
	})
	if err != nil {
		cancel()
		logger.Error(base, "后台任务提交失败",
			logger.Duration("timeout", timeout),
			logger.ErrorField("error", err),
		)
	}
}
