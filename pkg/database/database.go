package database

import (
	"fmt"

	"AlumniServer/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

var global *gorm.DB

// DB 返回全局 gorm 实例（未初始化时为 nil）。
func DB() *gorm.DB { return global }

// ReplaceGlobal 设置全局 gorm 实例。
func ReplaceGlobal(db *gorm.DB) { global = db }

// Build 根据配置创建 gorm 实例。
// - TranslateError 打开后唯一键冲突会统一成 gorm.ErrDuplicatedKey，仓储层据此识别并发插入；
// - mysql 且配置了从库时注册 dbresolver，读请求（Find/Count/Scan）走从库，事务内读写都走主库；
// - sqlite 只允许单连接，内存库在多连接下会各自看到一份独立数据。
func Build(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverMySQL && len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, dsn := range cfg.Replicas {
			replicas = append(replicas, mysql.Open(dsn))
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxOpenConns(cfg.MaxOpenConns).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetConnMaxLifetime(cfg.ConnMaxLifetime)
		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("register dbresolver: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Close 关闭底层连接池。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
