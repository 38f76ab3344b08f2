package model

import (
	"time"

	"gorm.io/gorm"
)

// 连接边的状态。解除后保留行，重新建立连接时原行复活。
const (
	RelationStatusNormal  int8 = 0
	RelationStatusDeleted int8 = 2
)

// UserRelation 校友连接图中的一条有向边 user -> peer。
// 连接总是对称的：建立和解除都在同一个事务里同时写 A->B 与 B->A 两行，
// 同一方向最多一行，由 uidx_user_peer 保证。
type UserRelation struct {
	Id        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserUuid  string         `gorm:"column:user_uuid;type:varchar(36);not null;uniqueIndex:uidx_user_peer;comment:边的起点"`
	PeerUuid  string         `gorm:"column:peer_uuid;type:varchar(36);not null;index;uniqueIndex:uidx_user_peer;comment:边的终点"`
	Status    int8           `gorm:"column:status;not null;default:0;comment:0 已连接 2 已解除"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserRelation) TableName() string { return "user_relation" }
