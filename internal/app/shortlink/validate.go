package shortlink

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// 领域层的校验错误，HTTP 层统一映射成 400。
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidUsername = errors.New("invalid username")
)

// ValidateURL 校验用户输入的 URL：
// - scheme 必须是 http/https
// - host 不能为空
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return ErrInvalidURL
	}
	return nil
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// ValidateUsername 校验用户名：字母/数字/下划线，长度 3~32。
func ValidateUsername(name string) error {
	if !usernameRe.MatchString(strings.TrimSpace(name)) {
		return ErrInvalidUsername
	}
	return nil
}
