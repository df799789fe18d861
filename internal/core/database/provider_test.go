package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-service/internal/testutil"
)

func TestProvider_MigrateIsIdempotent(t *testing.T) {
	p := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, p.Ping(ctx))
	require.NoError(t, p.Migrate(ctx, nil))

	var n int64
	require.NoError(t, p.Session(ctx).Table("users").Count(&n).Error)
	assert.Zero(t, n)
}

func TestProvider_EmailIsUnique(t *testing.T) {
	p := testutil.NewDB(t)
	db := p.Session(context.Background())

	insert := "INSERT INTO users (email, hashed_password, is_active, is_superuser) VALUES (?, ?, ?, ?)"
	require.NoError(t, db.Exec(insert, "a@b.com", "x", true, false).Error)
	assert.Error(t, db.Exec(insert, "a@b.com", "y", true, false).Error)
}
