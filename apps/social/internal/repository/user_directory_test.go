package repository

import (
	"context"
	"testing"
	"time"

	"AlumniServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDirectoryGetByUUID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUsers(t, db,
		model.UserInfo{Uuid: "alice", Nickname: "Alice"},
		model.UserInfo{Uuid: "bob"},
	)
	dir := NewUserDirectory(db, 16, time.Minute)

	alice, err := dir.GetByUUID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.DisplayName())

	bob, err := dir.GetByUUID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.DisplayName())

	_, err = dir.GetByUUID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// 命中缓存后不再读库
	require.NoError(t, db.Model(&model.UserInfo{}).Where("uuid = ?", "alice").Update("nickname", "Changed").Error)
	alice, err = dir.GetByUUID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.DisplayName())
}

func TestUserDirectoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUsers(t, db, model.UserInfo{Uuid: "alice", Nickname: "Alice"})
	dir := NewUserDirectory(db, 16, 20*time.Millisecond)

	_, err := dir.GetByUUID(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.UserInfo{}).Where("uuid = ?", "alice").Update("nickname", "Changed").Error)

	waitFor(t, func() bool {
		user, err := dir.GetByUUID(ctx, "alice")
		return err == nil && user.DisplayName() == "Changed"
	})
}
