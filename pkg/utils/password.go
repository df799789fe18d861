package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes bcrypt 只使用前 72 字节，超出部分新版 x/crypto 直接报错
const MaxPasswordBytes = 72

// Hasher 密码哈希；Cost 为 0 时使用 bcrypt.DefaultCost
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(pw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h Hasher) Check(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

func HashPassword(pw string) (string, error) { return Hasher{}.Hash(pw) }

func CheckPassword(pw, hashed string) bool { return Hasher{}.Check(pw, hashed) }
