package main

import (
	"AlumniServer/config"
	"AlumniServer/model"
	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/database"
	"AlumniServer/pkg/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "social",
	Short:         "Alumni social graph and notification service",
	SilenceUsage:  true,
	SilenceErrors: true,
	// 不带子命令时等同于 serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and WebSocket endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ALUMNI_CONFIG"), "YAML 配置文件路径（可选）")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "social: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap 加载配置并初始化全局日志，所有子命令共用。
// 配置顺序：默认值 -> YAML -> ALUMNI_ 前缀环境变量。
func bootstrap(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	l, err := logger.Build(cfg.Logger)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.ReplaceGlobal(l)
	return cfg, l, nil
}

// runMigrate 只做建表/改表，供发布流水线在滚动升级前执行。
func runMigrate(path string) error {
	ctx := ctxmeta.WithTraceID(context.Background(), "migrate")

	cfg, l, err := bootstrap(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Sync()
	}()

	db, err := database.Build(cfg.Database)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer func() {
		_ = database.Close(db)
	}()

	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	logger.Info(ctx, "数据库迁移完成",
		logger.String("driver", cfg.Database.Driver),
		logger.Int("tables", len(model.All())),
	)
	return nil
}
