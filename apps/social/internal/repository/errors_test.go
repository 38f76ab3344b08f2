package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapDBError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "not found", in: gorm.ErrRecordNotFound, want: ErrRecordNotFound},
		{name: "translated duplicate", in: gorm.ErrDuplicatedKey, want: ErrDuplicateKey},
		{name: "sqlite duplicate text", in: errors.New("UNIQUE constraint failed: friend_request.x"), want: ErrDuplicateKey},
		{name: "other", in: errors.New("connection refused"), want: ErrDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapDBError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestWrapRedisError(t *testing.T) {
	assert.ErrorIs(t, WrapRedisError(redis.Nil), redis.Nil)
	err := WrapRedisError(errors.New("i/o timeout"))
	assert.ErrorIs(t, err, ErrRedis)
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestCacheHelpers(t *testing.T) {
	for i := 0; i < 100; i++ {
		ttl := getRandomExpireTime(time.Hour)
		assert.GreaterOrEqual(t, ttl, 54*time.Minute)
		assert.LessOrEqual(t, ttl, 66*time.Minute)
	}

	page, size := normalizePage(0, 0, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
	_, size = normalizePage(3, 500, 50)
	assert.Equal(t, 50, size)

	assert.True(t, isRedisWrongType(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")))
	assert.False(t, isRedisWrongType(nil))
}
