// Package testutil 提供测试共用的数据库夹具。
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"user-management-service/internal/core/config"
	"user-management-service/internal/core/database"
)

// NewDB 返回已迁移、users 表为空的 Provider。
// 配置了 db.testDriver / db.testDSN（如 APP_DB_TESTDSN）时用该库，否则在 t.TempDir() 下建 sqlite 文件。
func NewDB(t testing.TB) *database.Provider {
	t.Helper()

	opts := database.Opts{
		Driver:   "sqlite",
		DSN:      "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)",
		LogLevel: "silent",
	}
	if cfg, err := config.Load(""); err == nil && cfg.DB.TestDSN != "" {
		opts.DSN = cfg.DB.TestDSN
		opts.Driver = cfg.DB.TestDriver
		if opts.Driver == "" {
			opts.Driver = cfg.DB.Driver
		}
		opts.Username = cfg.DB.Username
		opts.Password = cfg.DB.Password
	}

	p, err := database.Open(opts, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	ctx := context.Background()
	if err := p.Migrate(ctx, nil); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := p.Session(ctx).Exec("DELETE FROM users").Error; err != nil {
		t.Fatalf("truncate users: %v", err)
	}
	return p
}
