package hashid

import "errors"

var (
	// ErrNotFound 表示 encoded id 无法解析，或实体存储中没有对应记录。
	// 各业务 repo 的 not-found 哨兵错误应包装它，便于上层统一 errors.Is 判断。
	ErrNotFound = errors.New("not found")

	ErrNegativeID     = errors.New("hashid: negative id")
	ErrEmptyEntity    = errors.New("hashid: empty entity type")
	ErrMissingDefault = errors.New("hashid: default connection not configured")
	ErrInvalidConfig  = errors.New("hashid: invalid connection config")
)
