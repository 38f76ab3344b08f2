package repository

import (
	"AlumniServer/model"
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

// userDirectoryImpl 用户资料只读查询
// 进程内 LRU 缓存昵称，资料修改最多延迟一个 TTL 生效
type userDirectoryImpl struct {
	db    *gorm.DB
	cache *expirable.LRU[string, *model.UserInfo]
}

// NewUserDirectory 创建用户目录
func NewUserDirectory(db *gorm.DB, cacheSize int, ttl time.Duration) IUserDirectory {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &userDirectoryImpl{
		db:    db,
		cache: expirable.NewLRU[string, *model.UserInfo](cacheSize, nil, ttl),
	}
}

// GetByUUID 查询用户（不存在的结果不缓存）
func (d *userDirectoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if user, ok := d.cache.Get(uuid); ok {
		return user, nil
	}

	var user model.UserInfo
	err := d.db.WithContext(ctx).
		Select("id", "uuid", "nickname", "avatar").
		Where("uuid = ?", uuid).
		First(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}

	d.cache.Add(uuid, &user)
	return &user, nil
}
