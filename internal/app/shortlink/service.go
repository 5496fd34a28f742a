package shortlink

import (
	"context"
	"time"

	"hashkey.local/internal/hashid"
)

// 实体类型，同时也是 hashids 的 salt 前缀和覆盖配置的 key。
const (
	EntityShortlink hashid.EntityType = "shortlink"
	EntityUser      hashid.EntityType = "user"
)

// Shortlink 是短链领域对象。
//
// 对外不暴露 ID，统一用 hashid 编码后的字符串（例如 https://s.example.com/{code}）。
type Shortlink struct {
	ID        int64
	URL       string
	OwnerID   *int64
	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Shortlink) PrimaryKey() int64 { return s.ID }

// User 的 PasswordHash 是 bcrypt 结果，只在登录校验时读取，不会出现在响应里。
type User struct {
	ID           int64
	Username     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// 新注册用户的角色；admin 只能直接改库授予
const RoleUser = "user"

func (u User) PrimaryKey() int64 { return u.ID }

// ShortlinkStore 表示短链的存储能力。
//
// 上层（HTTP）只依赖接口：便于测试（内存 fake），也便于后续换实现。
type ShortlinkStore interface {
	hashid.Store[Shortlink]
	// Create 按 URL 幂等创建，已存在时返回已有记录；已存在但被禁用时返回错误，不会悄悄恢复
	Create(ctx context.Context, url string, ownerID *int64) (Shortlink, error)
	Disable(ctx context.Context, id int64) error
	Enable(ctx context.Context, id int64) error
}

// Resolver 表示"根据内部 id 返回目标 URL"的读取路径。
//
// 读取路径是高 QPS 热点：实现里可以加入缓存/负缓存，而不影响接口。
// 返回空字符串表示不存在或已禁用。
type Resolver interface {
	ResolveURL(ctx context.Context, id int64) (string, error)
}

type UserStore interface {
	hashid.Store[User]
	Create(ctx context.Context, username, passwordHash string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
}
