package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user-management-service/internal/domain"
)

// 链路失败类型；传输层按类型映射状态码
var (
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInactiveUser       = errors.New("inactive user")
	ErrNotSuperuser       = errors.New("the user doesn't have enough privileges")
)

// Subject 链路状态：Token → Claims → User，逐级补全，不回退
type Subject struct {
	Token  string
	Claims *Claims
	User   *domain.User
}

// Guard 链路中的一级检查，失败即短路
type Guard func(ctx context.Context, s *Subject) error

// UserLoader 按 ID 加载用户，不存在时返回 error（任意类型）
type UserLoader interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// Denylist 已注销的 jti
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// NotFoundFunc 判断 loader 返回的错误是否表示“用户不存在”
type NotFoundFunc func(error) bool

func Chain(guards ...Guard) Guard {
	return func(ctx context.Context, s *Subject) error {
		for _, g := range guards {
			if err := g(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// DecodeToken 第一级：验签、过期、issuer、sub 格式、是否已注销。
// 所有失败统一为 ErrInvalidCredentials，不暴露具体原因。
func DecodeToken(j *JWTer, deny Denylist) Guard {
	return func(ctx context.Context, s *Subject) error {
		if s.Token == "" {
			return ErrInvalidCredentials
		}
		claims, err := j.Parse(s.Token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		if _, err := claims.UserID(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		if deny != nil && claims.ID != "" {
			revoked, err := deny.IsRevoked(ctx, claims.ID)
			if err != nil {
				return fmt.Errorf("check denylist: %w", err)
			}
			if revoked {
				return fmt.Errorf("%w: token revoked", ErrInvalidCredentials)
			}
		}
		s.Claims = claims
		return nil
	}
}

// ResolveUser 第二级：按 sub 加载用户
func ResolveUser(users UserLoader, notFound NotFoundFunc) Guard {
	return func(ctx context.Context, s *Subject) error {
		if s.Claims == nil {
			return ErrInvalidCredentials
		}
		id, err := s.Claims.UserID()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		u, err := users.Get(ctx, id)
		if err != nil {
			if notFound != nil && notFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		s.User = u
		return nil
	}
}

func RequireActive() Guard {
	return func(_ context.Context, s *Subject) error {
		if s.User == nil {
			return ErrInvalidCredentials
		}
		if !s.User.Active() {
			return ErrInactiveUser
		}
		return nil
	}
}

func RequireSuperuser() Guard {
	return func(_ context.Context, s *Subject) error {
		if s.User == nil {
			return ErrInvalidCredentials
		}
		if !s.User.Superuser() {
			return ErrNotSuperuser
		}
		return nil
	}
}

// Deps 组装标准链路所需的依赖
type Deps struct {
	JWT      *JWTer
	Denylist Denylist
	Users    UserLoader
	NotFound NotFoundFunc
}

func (d Deps) CurrentUser() Guard {
	return Chain(DecodeToken(d.JWT, d.Denylist), ResolveUser(d.Users, d.NotFound))
}

func (d Deps) CurrentActiveUser() Guard {
	return Chain(d.CurrentUser(), RequireActive())
}

func (d Deps) CurrentActiveSuperuser() Guard {
	return Chain(d.CurrentActiveUser(), RequireSuperuser())
}
