package repository

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ttlJitterRatio 缓存 TTL 上下浮动的比例，错开同一批 key 的过期时间。
const ttlJitterRatio = 0.1

func isRedisWrongType(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "WRONGTYPE")
}

// isDuplicateKeyError 优先看 TranslateError 翻译后的错误，驱动不支持翻译时按报错文本识别。
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"Duplicate entry", "UNIQUE constraint failed"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// getRandomExpireTime 返回 base 上下浮动 ttlJitterRatio 以内的随机时长。
func getRandomExpireTime(base time.Duration) time.Duration {
	span := float64(base) * ttlJitterRatio
	return base + time.Duration((rand.Float64()*2-1)*span)
}

// getRandomBool 以 probability 的概率返回 true。
func getRandomBool(probability float64) bool {
	return rand.Float64() < probability
}

// normalizePage 页码从 1 开始，pageSize 缺省 20 且不超过 maxPageSize。
func normalizePage(page, pageSize, maxPageSize int) (int, int) {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxPageSize > 0 {
		pageSize = min(pageSize, maxPageSize)
	}
	return page, pageSize
}
