package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-management-service/internal/domain"
	"user-management-service/internal/repo"
	"user-management-service/pkg/utils"
)

var (
	ErrEmailTaken     = errors.New("the user with this email already exists in the system")
	ErrInvalidValue   = errors.New("invalid value")
	ErrBadCredentials = errors.New("incorrect email or password")
)

type PasswordHasher interface {
	Hash(pw string) (string, error)
	Check(pw, hashed string) bool
}

// UserRepository *repo.UserRepo 的方法集
type UserRepository interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetMultiple(ctx context.Context, skip, limit int) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	Update(ctx context.Context, u *domain.User, p repo.Patch[domain.User]) (*domain.User, error)
	Remove(ctx context.Context, id int64) (*domain.User, error)
}

type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	log    *zap.Logger
}

func NewUserService(r UserRepository, h PasswordHasher, l *zap.Logger) *UserService {
	if h == nil {
		h = utils.Hasher{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{repo: r, hasher: h, log: l}
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, strings.TrimSpace(email))
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	return s.repo.GetMultiple(ctx, skip, limit)
}

func (s *UserService) Count(ctx context.Context) (int64, error) { return s.repo.Count(ctx) }

func (s *UserService) Remove(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Remove(ctx, id)
}

// Create 按 binding 规则再校验一次（启动引导等非 HTTP 调用方也走这里）。
// 先查邮箱给出友好错误；并发下真正的裁决是唯一约束。
func (s *UserService) Create(ctx context.Context, in domain.UserCreate) (*domain.User, error) {
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, &domain.User{
		Email:          email,
		HashedPassword: hashed,
		IsActive:       in.ActiveOrDefault(),
		IsSuperuser:    in.IsSuperuser.Value,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		s.log.Warn("duplicate email passed pre-check", zap.String("email", email))
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Update 先校验再哈希；空请求体不落库
func (s *UserService) Update(ctx context.Context, u *domain.User, in domain.UserUpdate) (*domain.User, error) {
	if err := ValidateUpdate(in); err != nil {
		return nil, err
	}
	ch := domain.UserChanges{
		IsActive:    in.IsActive.Ptr(),
		IsSuperuser: in.IsSuperuser.Ptr(),
	}
	if p := in.Email.Ptr(); p != nil {
		email := strings.TrimSpace(*p)
		ch.Email = &email
	}
	if p := in.Password.Ptr(); p != nil {
		hashed, err := s.hasher.Hash(*p)
		if err != nil {
			return nil, err
		}
		ch.HashedPassword = &hashed
	}

	out, err := s.repo.Update(ctx, u, ch)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	return out, err
}

func (s *UserService) SetActive(ctx context.Context, u *domain.User, active bool) (*domain.User, error) {
	return s.repo.Update(ctx, u, domain.UserChanges{IsActive: &active})
}

// Authenticate 邮箱不存在与密码错误返回同一个错误
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Check(password, u.HashedPassword) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// EnsureSuperuser 启动时调用；邮箱已存在则什么都不做
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (*domain.User, bool, error) {
	if u, err := s.repo.GetByEmail(ctx, email); err == nil {
		return u, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}
	u, err := s.Create(ctx, domain.UserCreate{Email: email, Password: password, IsSuperuser: domain.Some(true)})
	if errors.Is(err, ErrEmailTaken) {
		// 另一个实例同时完成了初始化
		u, err = s.repo.GetByEmail(ctx, email)
		return u, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("bootstrap superuser: %w", err)
	}
	return u, true, nil
}

var validate = newValidator()

// 与 gin 共用 binding 标签，错误里用 json 字段名
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return v
}

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidValue, msg) }

// ValidateCreate binding 规则 + 字节上限；显式 null 与更新一样拒绝
func ValidateCreate(in domain.UserCreate) error {
	if err := validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return invalid(fmt.Sprintf("%s failed on %s", ve[0].Field(), ve[0].Tag()))
		}
		return invalid(err.Error())
	}
	// binding 的 max 按字符计，bcrypt 的上限按字节
	if len(in.Password) > utils.MaxPasswordBytes {
		return invalid("password must be at most 72 bytes")
	}
	if in.IsActive.Set && in.IsActive.Null {
		return invalid("is_active must not be null")
	}
	if in.IsSuperuser.Set && in.IsSuperuser.Null {
		return invalid("is_superuser must not be null")
	}
	return nil
}

// ValidateUpdate 与 UserCreate 的 binding 规则一致；显式 null 一律拒绝
func ValidateUpdate(in domain.UserUpdate) error {
	if in.Email.Set {
		if in.Email.Null {
			return invalid("email must not be null")
		}
		if err := validate.Var(strings.TrimSpace(in.Email.Value), "required,email,max=255"); err != nil {
			return invalid("email must be a valid email address")
		}
	}
	if in.Password.Set {
		switch {
		case in.Password.Null:
			return invalid("password must not be null")
		case utf8.RuneCountInString(in.Password.Value) < 8:
			return invalid("password must be at least 8 characters")
		case len(in.Password.Value) > utils.MaxPasswordBytes:
			return invalid("password must be at most 72 bytes")
		}
	}
	if in.IsActive.Set && in.IsActive.Null {
		return invalid("is_active must not be null")
	}
	if in.IsSuperuser.Set && in.IsSuperuser.Null {
		return invalid("is_superuser must not be null")
	}
	return nil
}
