package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"Twincord/internal/model"
)

var (
	// ErrTokenNotFound 未登录或已过期，可按 model.ErrNotFound 判断
	ErrTokenNotFound    = fmt.Errorf("token %w", model.ErrNotFound)
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute
)

// TokenRepository 登录态：每个用户只保留最近一次签发的 access token
type TokenRepository struct {
	RDB *redis.Client
}

func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{RDB: rdb}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("%s:%s", UserTokenPrefix, userID)
}

func (r *TokenRepository) AddUserToken(ctx context.Context, userID, token string) error {
	if err := r.RDB.Set(ctx, tokenKey(userID), token, UserTokenExpire).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *TokenRepository) GetUserToken(ctx context.Context, userID string) (string, error) {
	token, err := r.RDB.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// ExtendUserToken 续期；key 已过期时 Expire 返回 false，视为未登录
func (r *TokenRepository) ExtendUserToken(ctx context.Context, userID string) error {
	ok, err := r.RDB.Expire(ctx, tokenKey(userID), UserTokenExpire).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtendFailed, err)
	}
	if !ok {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteUserToken(ctx context.Context, userID string) error {
	if err := r.RDB.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenDeleted, err)
	}
	return nil
}
