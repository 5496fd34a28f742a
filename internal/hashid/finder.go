package hashid

import (
	"context"
	"errors"
	"fmt"
)

// Model 是能生成路由 key 的实体。
type Model interface {
	PrimaryKey() int64
}

// Store 是实体存储。FindByID 找不到时返回的错误必须满足 errors.Is(err, ErrNotFound)。
type Store[E any] interface {
	FindByID(ctx context.Context, id int64) (E, error)
	FindByIDs(ctx context.Context, ids []int64) ([]E, error)
}

// Finder 把对外的 encoded id 翻译成内部 id 再去存储里查找实体，
// 供路由参数绑定和业务代码直接使用。
type Finder[E Model] struct {
	hasher *Hasher
	store  Store[E]
}

func NewFinder[E Model](hasher *Hasher, store Store[E]) *Finder[E] {
	return &Finder[E]{hasher: hasher, store: store}
}

func (f *Finder[E]) Hasher() *Hasher {
	return f.hasher
}

// Find 查找单个实体。解码失败直接返回未找到，不查询存储；
// 存储返回 ErrNotFound 同样视为未找到，其余错误原样返回。
func (f *Finder[E]) Find(ctx context.Context, value string) (E, bool, error) {
	var zero E
	id, ok := f.hasher.Decode(value)
	if !ok {
		return zero, false, nil
	}
	e, err := f.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return e, true, nil
}

// FindOrFail 与 Find 相同，但未找到时返回 ErrNotFound。
// 解码失败同样直接短路，不会拿一个无意义的 key 去查询存储。
func (f *Finder[E]) FindOrFail(ctx context.Context, value string) (E, error) {
	id, ok := f.hasher.Decode(value)
	if !ok {
		var zero E
		return zero, fmt.Errorf("%s %q: %w", f.hasher.entity, value, ErrNotFound)
	}
	return f.store.FindByID(ctx, id)
}

// FindMany 批量查找。输入为空或没有任何可解析的条目时不查询存储。
func (f *Finder[E]) FindMany(ctx context.Context, values []string) ([]E, error) {
	if len(values) == 0 {
		return []E{}, nil
	}
	ids := f.hasher.DecodeMany(values)
	if len(ids) == 0 {
		return []E{}, nil
	}
	items, err := f.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []E{}
	}
	return items, nil
}

// RouteKey 返回实体对外暴露的 key（例如 URL 里的 id），不会泄露真实主键。
func (f *Finder[E]) RouteKey(e E) (string, error) {
	return f.hasher.Encode(e.PrimaryKey())
}

// ResolveRouteBinding 是路由绑定的入口，语义等同 FindOrFail。
func (f *Finder[E]) ResolveRouteBinding(ctx context.Context, token string) (E, error) {
	return f.FindOrFail(ctx, token)
}

// Bind 适配路由层的模型绑定钩子。
func (f *Finder[E]) Bind(ctx context.Context, token string) (any, error) {
	return f.ResolveRouteBinding(ctx, token)
}
