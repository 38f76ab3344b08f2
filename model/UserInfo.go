package model

import (
	"time"

	"gorm.io/gorm"
)

// UserInfo 用户资料的只读投影。
// 资料由用户服务维护，这里仅读取 uuid/nickname 用于存在性校验与通知文案。
type UserInfo struct {
	Id        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid      string         `gorm:"column:uuid;type:varchar(36);not null;uniqueIndex:uidx_uuid"`
	Nickname  string         `gorm:"column:nickname;type:varchar(64);not null;default:''"`
	Avatar    string         `gorm:"column:avatar;type:varchar(255);not null;default:''"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserInfo) TableName() string { return "user_info" }

// DisplayName 通知文案使用的展示名，昵称为空时退回 uuid。
func (u *UserInfo) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Uuid
}
