package repository

import (
	"AlumniServer/model"
	"AlumniServer/pkg/util"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// connectionRepositoryImpl 好友关系图数据访问层实现
type connectionRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewConnectionRepository 创建好友关系仓储实例
// redisClient 可为 nil，此时所有读请求直接走数据库。
func NewConnectionRepository(db *gorm.DB, redisClient *redis.Client) IConnectionRepository {
	return &connectionRepositoryImpl{db: db, redisClient: redisClient}
}

// CreateRequest 创建待处理申请
// 事务内依次检查：是否已是好友 -> 双方之间是否已有待处理申请 -> 插入。
// pair_key 唯一索引兜底并发：两人同时互发申请时，后提交的一方插入冲突，统一返回 ErrDuplicateRequest。
func (r *connectionRepositoryImpl) CreateRequest(ctx context.Context, senderUUID, receiverUUID string) (*model.ConnectionRequest, error) {
	if senderUUID == receiverUUID {
		return nil, ErrSelfReference
	}

	req := &model.ConnectionRequest{
		Id:           util.NextID(),
		SenderUuid:   senderUUID,
		ReceiverUuid: receiverUUID,
		PairKey:      model.BuildPairKey(senderUUID, receiverUUID),
		Status:       model.RequestStatusPending,
		CreatedAt:    time.Now(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 已是好友不允许再申请
		var edges int64
		if err := tx.Model(&model.UserRelation{}).
			Where("user_uuid = ? AND peer_uuid = ? AND status = ?", senderUUID, receiverUUID, model.RelationStatusNormal).
			Count(&edges).Error; err != nil {
			return err
		}
		if edges > 0 {
			return ErrAlreadyConnected
		}

		// 2. 任一方向已有待处理申请
		var pending int64
		if err := tx.Model(&model.ConnectionRequest{}).
			Where("pair_key = ? AND status = ?", req.PairKey, model.RequestStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateRequest
		}

		// 3. 插入
		return tx.Create(req).Error
	})

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, ErrAlreadyConnected), errors.Is(err, ErrDuplicateRequest):
		return nil, err
	case isDuplicateKeyError(err):
		return nil, ErrDuplicateRequest
	default:
		return nil, WrapDBError(err)
	}
}

// AcceptRequest 同意申请并创建好友关系（事务 + CAS）
// 在同一事务中执行：
//  1. 条件删除申请（WHERE status=0 守门员），RowsAffected=0 说明申请不存在或已被并发处理；
//  2. Upsert 双向关系，冲突时恢复软删除记录。
func (r *connectionRepositoryImpl) AcceptRequest(ctx context.Context, receiverUUID, senderUUID string) error {
	if senderUUID == receiverUUID {
		return ErrSelfReference
	}
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePendingRequest(tx, senderUUID, receiverUUID); err != nil {
			return err
		}

		relations := []*model.UserRelation{
			{UserUuid: senderUUID, PeerUuid: receiverUUID, Status: model.RelationStatusNormal, CreatedAt: now, UpdatedAt: now},
			{UserUuid: receiverUUID, PeerUuid: senderUUID, Status: model.RelationStatusNormal, CreatedAt: now, UpdatedAt: now},
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     model.RelationStatusNormal,
				"deleted_at": nil, // 恢复软删除
				"updated_at": now,
			}),
		}).Create(&relations).Error
	})
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return err
		}
		return WrapDBError(err)
	}

	// 事务提交后失效双方好友缓存
	r.invalidateConnectionCache(ctx, senderUUID, receiverUUID)
	return nil
}

// DeclineRequest 拒绝申请
func (r *connectionRepositoryImpl) DeclineRequest(ctx context.Context, receiverUUID, senderUUID string) error {
	return r.removePending(ctx, senderUUID, receiverUUID)
}

// CancelRequest 撤回申请
func (r *connectionRepositoryImpl) CancelRequest(ctx context.Context, senderUUID, receiverUUID string) error {
	return r.removePending(ctx, senderUUID, receiverUUID)
}

func (r *connectionRepositoryImpl) removePending(ctx context.Context, senderUUID, receiverUUID string) error {
	if senderUUID == receiverUUID {
		return ErrSelfReference
	}
	err := deletePendingRequest(r.db.WithContext(ctx), senderUUID, receiverUUID)
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return WrapDBError(err)
	}
	return err
}

// deletePendingRequest 条件删除 sender -> receiver 的待处理申请
func deletePendingRequest(tx *gorm.DB, senderUUID, receiverUUID string) error {
	result := tx.
		Where("sender_uuid = ? AND receiver_uuid = ? AND status = ?", senderUUID, receiverUUID, model.RequestStatusPending).
		Delete(&model.ConnectionRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// RemoveConnection 解除好友关系（双向）
// 单条 UPDATE 同时软删除两个方向，不存在任何一边只删一半的中间状态。
func (r *connectionRepositoryImpl) RemoveConnection(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	if userUUID == peerUUID {
		return false, ErrSelfReference
	}
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("((user_uuid = ? AND peer_uuid = ?) OR (user_uuid = ? AND peer_uuid = ?)) AND status = ?",
			userUUID, peerUUID, peerUUID, userUUID, model.RelationStatusNormal).
		Updates(map[string]interface{}{
			"status":     model.RelationStatusDeleted,
			"deleted_at": gorm.DeletedAt{Time: now, Valid: true},
			"updated_at": now,
		})
	if result.Error != nil {
		return false, WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.invalidateConnectionCache(ctx, userUUID, peerUUID)
	return true, nil
}

// ListConnections 获取好友列表
// 采用 Cache-Aside：优先读 Redis Set，未命中回源数据库并异步重建缓存
func (r *connectionRepositoryImpl) ListConnections(ctx context.Context, userUUID string) ([]string, error) {
	if peers, hit := r.getConnectionSetCache(ctx, userUUID); hit {
		return peers, nil
	}

	// 版本号必须在读库之前取，回填时据此判断期间是否发生过关系变更
	version, canFill := r.connectionCacheVersion(ctx, userUUID)

	peers, err := r.loadConnections(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	if canFill {
		r.rebuildConnectionCacheAsync(ctx, userUUID, version, peers)
	}
	return peers, nil
}

// IsConnected 检查是否为好友
func (r *connectionRepositoryImpl) IsConnected(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	if hit, member := r.checkConnectionCache(ctx, userUUID, peerUUID); hit {
		return member, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("user_uuid = ? AND peer_uuid = ? AND status = ?", userUUID, peerUUID, model.RelationStatusNormal).
		Count(&count).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// ListPendingIncoming 获取收到的待处理申请
func (r *connectionRepositoryImpl) ListPendingIncoming(ctx context.Context, userUUID string) ([]*model.ConnectionRequest, error) {
	return r.listPending(ctx, "receiver_uuid = ?", userUUID)
}

// ListPendingOutgoing 获取发出的待处理申请
func (r *connectionRepositoryImpl) ListPendingOutgoing(ctx context.Context, userUUID string) ([]*model.ConnectionRequest, error) {
	return r.listPending(ctx, "sender_uuid = ?", userUUID)
}

func (r *connectionRepositoryImpl) listPending(ctx context.Context, cond string, userUUID string) ([]*model.ConnectionRequest, error) {
	var requests []*model.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where(cond, userUUID).
		Where("status = ?", model.RequestStatusPending).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return requests, nil
}

// GetPendingBetween 获取两人之间的待处理申请
func (r *connectionRepositoryImpl) GetPendingBetween(ctx context.Context, userA, userB string) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND status = ?", model.BuildPairKey(userA, userB), model.RequestStatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, WrapDBError(err)
	}
	return &req, nil
}

// loadConnections 从数据库读取好友 uuid（升序）
func (r *connectionRepositoryImpl) loadConnections(ctx context.Context, userUUID string) ([]string, error) {
	var peers []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("user_uuid = ? AND status = ?", userUUID, model.RelationStatusNormal).
		Order("peer_uuid ASC").
		Pluck("peer_uuid", &peers).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	sort.Strings(peers)
	return peers, nil
}
