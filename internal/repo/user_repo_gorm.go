package repo

import (
	"context"

	"user-management-service/internal/domain"
)

var (
	UserEmail = column[domain.User]("email")
)

type UserRepo struct {
	*CRUD[domain.User]
}

func NewUserRepo(db Sessioner) *UserRepo { return &UserRepo{CRUD: NewCRUD[domain.User](db)} }

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.GetBy(ctx, UserEmail, email)
}
