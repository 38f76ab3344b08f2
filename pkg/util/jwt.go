package util

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtMu     sync.RWMutex
	jwtSecret = []byte("alumni-dev-secret")
	jwtExpire = 24 * time.Hour
)

// ErrTokenInvalid token 非法或已过期
var ErrTokenInvalid = errors.New("token is invalid")

// Claims 访问令牌载荷。
// 登录签发由外部 auth 服务负责，这里只解析；GenerateToken 供联调与测试使用。
type Claims struct {
	UserUUID string `json:"user_uuid"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// InitJWT 设置签名密钥与有效期（进程启动时调用一次）。
func InitJWT(secret string, expire time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expire > 0 {
		jwtExpire = expire
	}
}

// GenerateToken 签发 HS256 访问令牌。
func GenerateToken(userUUID, deviceID string) (string, error) {
	jwtMu.RLock()
	secret, expire := jwtSecret, jwtExpire
	jwtMu.RUnlock()

	now := time.Now()
	claims := Claims{
		UserUUID: userUUID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			Issuer:    "alumni",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken 校验签名与有效期并返回载荷。
func ParseToken(tokenString string) (*Claims, error) {
	jwtMu.RLock()
	secret := jwtSecret
	jwtMu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserUUID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
