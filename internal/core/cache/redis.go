package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "auth:revoked:"

// TokenDenylist 已注销 token 的 jti，TTL 与 token 剩余有效期一致，过期自动清理
type TokenDenylist struct {
	RDB *redis.Client
}

func New(addr, pass string, db int) *TokenDenylist {
	return &TokenDenylist{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 已经过期，无需记录
	}
	return d.RDB.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.RDB.Get(ctx, revokedPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (d *TokenDenylist) Ping(ctx context.Context) error { return d.RDB.Ping(ctx).Err() }

func (d *TokenDenylist) Close() error { return d.RDB.Close() }
