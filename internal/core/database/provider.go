package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provider 进程级连接池，在 main 里构造一次后注入各 repo。
// 每个请求通过 Session(ctx) 拿到绑定请求上下文的会话，语句结束即归还连接。
type Provider struct {
	db     *gorm.DB
	driver string
}

func Open(o Opts, l *zap.Logger) (*Provider, error) {
	db, err := NewGorm(o, l)
	if err != nil {
		return nil, err
	}
	return &Provider{db: db, driver: o.Driver}, nil
}

// NewProvider 包装已有的 *gorm.DB（测试里常用）
func NewProvider(db *gorm.DB, driver string) *Provider {
	return &Provider{db: db, driver: driver}
}

func (p *Provider) Session(ctx context.Context) *gorm.DB { return p.db.WithContext(ctx) }

func (p *Provider) Driver() string { return p.driver }

func (p *Provider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *Provider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
