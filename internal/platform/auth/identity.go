package auth

import "context"

// Identity 是通过校验的调用方。
// Subject 是编码后的用户 id（和 /users/:user 里的值相同），内部 id 不出现在 token 里。
type Identity struct {
	Subject string
	Role    string
}

const RoleAdmin = "admin"

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
