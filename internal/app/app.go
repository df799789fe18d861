// Package app 组装 api / admin 两个进程共用的依赖。
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"user-management-service/internal/core/auth"
	"user-management-service/internal/core/cache"
	"user-management-service/internal/core/config"
	"user-management-service/internal/core/database"
	"user-management-service/internal/repo"
	"user-management-service/internal/service"
	"user-management-service/internal/transport/http/handler"
	mdw "user-management-service/internal/transport/http/middleware"
	"user-management-service/internal/transport/http/router"
	"user-management-service/pkg/utils"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *database.Provider
	Users    *service.UserService
	Auth     auth.Deps
	Registry *router.Registry

	closers []func() error
}

// New 打开数据库、按需迁移、创建初始管理员；失败时已打开的资源会被关闭
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) (err error) {
	cfg, l := a.Cfg, a.Log

	a.DB, err = database.Open(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)
	if err = a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err = a.DB.Migrate(ctx, l); err != nil {
			return err
		}
	}

	a.Users = service.NewUserService(repo.NewUserRepo(a.DB), utils.Hasher{}, l.Named("users"))
	a.Auth = auth.Deps{
		JWT:      &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()},
		Users:    a.Users,
		NotFound: func(err error) bool { return errors.Is(err, repo.ErrNotFound) },
	}
	if cfg.Redis.Addr != "" {
		deny := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, deny.Close)
		if err = deny.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		a.Auth.Denylist = deny
		l.Info("token denylist enabled", zap.String("redis", cfg.Redis.Addr))
	}

	if cfg.Superuser.Email != "" && cfg.Superuser.Password != "" {
		u, created, err := a.Users.EnsureSuperuser(ctx, cfg.Superuser.Email, cfg.Superuser.Password)
		if err != nil {
			return err
		}
		if created {
			l.Info("superuser created", zap.Int64("uid", u.ID), zap.String("email", u.Email))
		}
	}

	a.Registry = router.NewRegistry(
		handler.NewLoginHandler(a.Users, a.Auth, mdw.RateLimitPerIP(rate.Every(time.Second), 10), l.Named("login")),
		handler.NewUserHandler(a.Users, a.Auth),
		handler.NewAdminHandler(a.Users),
	)
	return nil
}

func (a *App) engineOptions() router.Options {
	return router.Options{
		Logger:      a.Log,
		DB:          a.DB,
		CORSOrigins: a.Cfg.App.CORSOrigins,
	}
}

func (a *App) APIOptions() router.Options {
	o := a.engineOptions()
	o.Prefix = a.Cfg.App.APIPrefix
	return o
}

func (a *App) AdminOptions() router.Options { return a.engineOptions() }

// Close 逆序释放资源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
