package gee

import (
	"context"
	"net/http"
)

// BinderFunc 把路由参数的原始值解析成模型，例如 /users/:user 里的 :user。
type BinderFunc func(ctx context.Context, value string) (any, error)

// BindErrorFunc 处理绑定失败，负责写响应；调用后请求链会被中止。
type BindErrorFunc func(ctx *Context, param string, err error)

// Bind 为名为 param 的路由参数注册绑定器。
// 所有带这个参数的路由在分发时都会先解析，handler 里用 Bound 取出结果。
// 需要在开始处理请求前注册完。
func (e *Engine) Bind(param string, binder BinderFunc) {
	e.router.binders[param] = binder
}

// OnBindError 替换默认的绑定失败处理（默认 404）。
func (e *Engine) OnBindError(fn BindErrorFunc) {
	if fn == nil {
		fn = defaultBindError
	}
	e.router.onBindError = fn
}

func defaultBindError(ctx *Context, param string, err error) {
	ctx.AbortWithBindError(http.StatusNotFound, param, param+" not found")
}

// Bound 取出路由绑定解析出的模型。
func Bound[T any](ctx *Context, param string) (T, bool) {
	v, ok := ctx.Get(param)
	if !ok {
		var zero T
		return zero, false
	}
	model, ok := v.(T)
	return model, ok
}
