package shortlink

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只看前 72 字节，更长的密码直接拒绝，避免后半段被静默忽略
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

var (
	ErrInvalidPassword    = errors.New("password must be 8-72 bytes")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func ValidatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword 校验长度后返回 bcrypt 哈希
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 不匹配（包括没有设置密码的老用户）一律返回 ErrInvalidCredentials
func CheckPassword(u User, password string) error {
	if u.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
