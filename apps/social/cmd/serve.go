package main

import (
	"AlumniServer/apps/social/internal/dispatcher"
	"AlumniServer/apps/social/internal/handler"
	"AlumniServer/apps/social/internal/middleware"
	"AlumniServer/apps/social/internal/presence"
	"AlumniServer/apps/social/internal/repository"
	"AlumniServer/apps/social/internal/router"
	v1 "AlumniServer/apps/social/internal/router/v1"
	"AlumniServer/apps/social/internal/server"
	"AlumniServer/apps/social/internal/service"
	"AlumniServer/apps/social/internal/svc"
	"AlumniServer/apps/social/mq"
	"AlumniServer/model"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/database"
	"AlumniServer/pkg/kafka"
	"AlumniServer/pkg/logger"
	pkgredis "AlumniServer/pkg/redis"
	"AlumniServer/pkg/util"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// runServe 启动 social 服务，阻塞到收到退出信号。
func runServe(configPath string) error {
	// 启动期日志使用固定 trace_id 串联
	ctx := ctxmeta.WithTraceID(context.Background(), "0")

	// 1)~2) 加载配置并初始化日志（日志必须最先就绪）
	cfg, l, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Sync()
	}()

	// 3) 雪花 ID 与 JWT
	if err := util.InitSnowflake(cfg.Social.NodeID); err != nil {
		logger.Fatal(ctx, "雪花节点初始化失败",
			logger.Int64("node_id", cfg.Social.NodeID),
			logger.ErrorField("error", err),
		)
	}
	util.InitJWT(cfg.Social.JWTSecret, cfg.Social.JWTExpire)

	// 4) 协程池：缓存重建、事件投递、上线补推
	if err := async.Init(cfg.Async); err != nil {
		logger.Fatal(ctx, "协程池初始化失败", logger.ErrorField("error", err))
	}

	// 5) 数据库（必需）
	db, err := database.Build(cfg.Database)
	if err != nil {
		logger.Fatal(ctx, "数据库初始化失败",
			logger.String("driver", cfg.Database.Driver),
			logger.ErrorField("error", err),
		)
	}
	database.ReplaceGlobal(db)
	defer func() {
		_ = database.Close(db)
	}()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(model.All()...); err != nil {
			logger.Fatal(ctx, "数据库迁移失败", logger.ErrorField("error", err))
		}
	}

	// 6) Redis（可选）：不可用时降级为纯数据库模式
	var redisClient *redis.Client
	redisClient, err = pkgredis.Build(cfg.Redis)
	switch {
	case errors.Is(err, pkgredis.ErrDisabled):
		logger.Info(ctx, "Redis 已按配置关闭")
	case err != nil:
		logger.Warn(ctx, "Redis 初始化失败，降级为无 Redis 模式",
			logger.String("addr", cfg.Redis.Addr),
			logger.ErrorField("error", err),
		)
	default:
		pkgredis.ReplaceGlobal(redisClient)
		defer func() {
			_ = redisClient.Close()
		}()
		logger.Info(ctx, "Redis 初始化成功", logger.String("addr", cfg.Redis.Addr))
	}

	// 7) Kafka（可选）：未启用时丢弃社交事件
	var publisher mq.EventPublisher = mq.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.SocialEventTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn(ctx, "Kafka 生产者关闭失败", logger.ErrorField("error", err))
			}
		}()
		publisher = mq.NewKafkaPublisher(producer)
		logger.Info(ctx, "社交事件投递已启用",
			logger.Strings("brokers", cfg.Kafka.Brokers),
			logger.String("topic", cfg.Kafka.SocialEventTopic),
		)
	}

	// 8) 组装核心依赖：
	// - registry:   在线用户 -> 推送通道，进程内唯一
	// - dispatcher: 通知入库 + 实时推送 + 离线补推
	// - service:    好友状态机与通知读状态
	registry := presence.NewConnectionManager()
	connRepo := repository.NewConnectionRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db)
	directory := repository.NewUserDirectory(db, cfg.Social.DirectoryCacheSize, cfg.Social.DirectoryCacheTTL)
	notifier := dispatcher.NewDispatcher(notificationRepo, registry, cfg.Social.PushTimeout)

	socialService := service.NewSocialService(connRepo, directory, notifier, publisher)
	notificationService := service.NewNotificationService(notificationRepo, notifier)
	connectService := svc.NewConnectService(registry, notifier, redisClient, cfg.Social.ReplayTimeout)

	// 9) 路由与 HTTP 服务
	gin.SetMode(cfg.Social.GinMode)
	engine := router.InitRouter(router.Options{
		FriendHandler:       v1.NewFriendHandler(socialService),
		NotificationHandler: v1.NewNotificationHandler(notificationService),
		WSHandler:           handler.NewWSHandler(connectService, cfg.Social.PushTimeout),
		RateLimiter:         middleware.NewRateLimiter(redisClient, cfg.Social.RateLimit, cfg.Social.RateBurst),
		RequestTimeout:      cfg.Social.RequestTimeout,
		AllowedOrigins:      cfg.Social.AllowedOrigins,
		ExposeMetrics:       cfg.Social.MetricsAddr == "",
	})
	srv := server.New(cfg.Social, engine)

	// 10) 后台启动监听
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Social 服务启动中",
			logger.String("addr", srv.Addr()),
			logger.String("metrics_addr", cfg.Social.MetricsAddr),
		)
		serveErr <- srv.Start()
	}()

	// 11) 阻塞等待退出信号或监听失败
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info(ctx, "收到退出信号", logger.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			logger.Error(ctx, "Social 服务监听失败", logger.ErrorField("error", err))
		}
	}

	// 12) 优雅关闭：
	// - 先关闭在线表，主动断开所有 WebSocket，后续注册直接拒绝；
	// - 再关闭 HTTP 服务，等待进行中的请求在超时时间内结束；
	// - 等协程池中的补推、事件投递跑完，最后由 defer 释放 Kafka、Redis、数据库。
	logger.Info(ctx, "Social 服务开始优雅停机")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Social.ShutdownTimeout)
	defer cancel()

	registry.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Social 服务优雅停机失败", logger.ErrorField("error", err))
	}
	if err := async.Release(); err != nil {
		logger.Warn(ctx, "协程池释放超时", logger.ErrorField("error", err))
	}

	logger.Info(ctx, "Social 服务已退出")
	return nil
}
