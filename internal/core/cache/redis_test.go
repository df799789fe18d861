package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 127.0.0.1:1 上没有 redis，用来触发连接错误

func TestRevoke_ExpiredTokenSkipsRedis(t *testing.T) {
	d := New("127.0.0.1:1", "", 0)
	defer d.Close()

	assert.NoError(t, d.Revoke(context.Background(), "jti", 0))
	assert.NoError(t, d.Revoke(context.Background(), "jti", -time.Second))
}

func TestIsRevoked_UnreachableIsError(t *testing.T) {
	d := New("127.0.0.1:1", "", 0)
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	revoked, err := d.IsRevoked(ctx, "jti")
	assert.Error(t, err)
	assert.False(t, revoked)
}
