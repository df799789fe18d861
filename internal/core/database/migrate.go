package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

var dialects = map[string]goose.Dialect{
	"postgres": goose.DialectPostgres,
	"mysql":    goose.DialectMySQL,
	"sqlite":   goose.DialectSQLite3,
}

// Migrate 执行 migrations/<driver>/ 下尚未应用的迁移。
// users.email 的 UNIQUE 约束在这里建立，是重复邮箱的最终裁决。
func (p *Provider) Migrate(ctx context.Context, l *zap.Logger) error {
	dialect, ok := dialects[p.driver]
	if !ok {
		return ErrUnsupportedDriver
	}
	fsys, err := fs.Sub(migrations, "migrations/"+p.driver)
	if err != nil {
		return err
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	gp, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	results, err := gp.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if l != nil {
		for _, r := range results {
			l.Info("[db] migration applied",
				zap.String("file", r.Source.Path),
				zap.Int64("version", r.Source.Version),
				zap.Duration("took", r.Duration),
			)
		}
	}
	return nil
}
