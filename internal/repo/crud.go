package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// Sessioner 由 database.Provider 实现
type Sessioner interface {
	Session(ctx context.Context) *gorm.DB
}

// Column 某个记录类型上可查询的列。只能在本包内声明，调用方无法传入任意列名。
type Column[T any] struct{ name string }

func column[T any](name string) Column[T] { return Column[T]{name: name} }

func (c Column[T]) Name() string { return c.name }

// Patch 部分更新：修改内存里的记录并返回被修改的列，未返回的列不会写库
type Patch[T any] interface {
	Apply(rec *T) []string
}

// CRUD 任意记录类型的通用增删改查，不做业务校验
type CRUD[T any] struct {
	db Sessioner
}

func NewCRUD[T any](db Sessioner) *CRUD[T] { return &CRUD[T]{db: db} }

func (r *CRUD[T]) Get(ctx context.Context, id int64) (*T, error) {
	var rec T
	if err := r.db.Session(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *CRUD[T]) GetBy(ctx context.Context, col Column[T], value any) (*T, error) {
	var rec T
	err := r.db.Session(ctx).
		Where(clause.Eq{Column: clause.Column{Name: col.name}, Value: value}).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// GetMultiple 按主键升序分页；skip<0 视为 0，limit<=0 视为 DefaultLimit
func (r *CRUD[T]) GetMultiple(ctx context.Context, skip, limit int) ([]T, error) {
	if skip < 0 {
		skip = DefaultSkip
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	items := make([]T, 0)
	err := r.db.Session(ctx).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Offset(skip).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *CRUD[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Session(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *CRUD[T]) Create(ctx context.Context, rec *T) (*T, error) {
	if err := r.db.Session(ctx).Create(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// Update 只写 p 报告的列；空变更集不访问数据库，原样返回
func (r *CRUD[T]) Update(ctx context.Context, rec *T, p Patch[T]) (*T, error) {
	cols := p.Apply(rec)
	if len(cols) == 0 {
		return rec, nil
	}
	db := r.db.Session(ctx)
	if err := db.Model(rec).Select(cols).Updates(rec).Error; err != nil {
		return nil, translate(err)
	}
	// 重新读一次，拿到数据库里的真实值
	if err := db.First(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// Remove 返回删除前的快照；不存在时返回 ErrNotFound 且不写库
func (r *CRUD[T]) Remove(ctx context.Context, id int64) (*T, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.Session(ctx).Delete(rec)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return rec, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDupKey(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

// 驱动没实现 ErrorTranslator 时按报错文本兜底
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
