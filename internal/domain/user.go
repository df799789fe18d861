package domain

type User struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	Email          string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	HashedPassword string `gorm:"size:100;not null" json:"-"`
	IsActive       bool   `gorm:"not null" json:"is_active"`
	IsSuperuser    bool   `gorm:"not null" json:"is_superuser"`
}

func (User) TableName() string { return "users" }

func (u *User) Active() bool    { return u.IsActive }
func (u *User) Superuser() bool { return u.IsSuperuser }

// UserCreate 创建入参；binding 规则由 gin 校验，失败返回 422
type UserCreate struct {
	Email       string         `json:"email"        binding:"required,email,max=255"`
	Password    string         `json:"password"     binding:"required,min=8,max=72"`
	IsActive    Optional[bool] `json:"is_active"`
	IsSuperuser Optional[bool] `json:"is_superuser"`
}

// ActiveOrDefault is_active 未传时默认 true；显式 null 由 service 拒绝
func (in UserCreate) ActiveOrDefault() bool {
	if !in.IsActive.Set {
		return true
	}
	return in.IsActive.Value
}

// UserUpdate 部分更新入参：未出现的字段保持不变
type UserUpdate struct {
	Email       Optional[string] `json:"email"`
	Password    Optional[string] `json:"password"`
	IsActive    Optional[bool]   `json:"is_active"`
	IsSuperuser Optional[bool]   `json:"is_superuser"`
}

func (in UserUpdate) Empty() bool {
	return !in.Email.Set && !in.Password.Set && !in.IsActive.Set && !in.IsSuperuser.Set
}

// UserChanges 已校验、已哈希的变更集，交给 repo.CRUD.Update
type UserChanges struct {
	Email          *string
	HashedPassword *string
	IsActive       *bool
	IsSuperuser    *bool
}

// Apply 写入 u 并返回被修改的列名
func (ch UserChanges) Apply(u *User) []string {
	var cols []string
	if ch.Email != nil {
		u.Email = *ch.Email
		cols = append(cols, "email")
	}
	if ch.HashedPassword != nil {
		u.HashedPassword = *ch.HashedPassword
		cols = append(cols, "hashed_password")
	}
	if ch.IsActive != nil {
		u.IsActive = *ch.IsActive
		cols = append(cols, "is_active")
	}
	if ch.IsSuperuser != nil {
		u.IsSuperuser = *ch.IsSuperuser
		cols = append(cols, "is_superuser")
	}
	return cols
}
