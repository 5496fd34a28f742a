package gee

import (
	"log/slog"
	"sort"
	"strings"
)

type HandlerFunc func(*Context)

// router 每个 HTTP 方法一棵前缀树；handlers 的 key 形如 GET-/users/:user。
// binders 按路由参数名注册，命中的路由在分发时自动解析成模型。
type router struct {
	roots       map[string]*node
	handlers    map[string][]HandlerFunc
	binders     map[string]BinderFunc
	onBindError BindErrorFunc
}

func newRouter() *router {
	return &router{
		roots:       make(map[string]*node),
		handlers:    make(map[string][]HandlerFunc),
		binders:     make(map[string]BinderFunc),
		onBindError: defaultBindError,
	}
}

// parsePattern 切出非空段，遇到 *catchall 截断
func parsePattern(pattern string) []string {
	parts := make([]string, 0, strings.Count(pattern, "/"))
	for _, item := range strings.Split(pattern, "/") {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method string, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: addRoute requires at least one handler")
	}
	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, parsePattern(pattern))
	r.handlers[method+"-"+pattern] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) getRoute(method string, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}
	searchParts := parsePattern(path)
	n := root.search(searchParts, 0)
	if n == nil {
		return nil, nil
	}
	return n, n.extract(searchParts)
}

// handle 组装最终的 handler 链：
//
//	分组中间件 → 路由级中间件（例如限流）→ 路由模型绑定 → 路由 handler
//
// 绑定放在最后一个 handler 之前，这样被限流或鉴权拦下的请求不会去查库。
func (r *router) handle(c *Context) {
	n, params := r.getRoute(c.Method, c.Path)
	if n == nil {
		r.unmatched(c)
		c.Next()
		return
	}
	c.Params = params
	c.RoutePattern = n.pattern

	route := r.handlers[c.Method+"-"+n.pattern]
	last := len(route) - 1
	c.handlers = append(c.handlers, route[:last]...)
	if bind := r.bindStep(n.params); bind != nil {
		c.handlers = append(c.handlers, bind)
	}
	c.handlers = append(c.handlers, route[last])
	c.Next()
}

func (r *router) unmatched(c *Context) {
	allow := r.AllowedMethod(c.Path)
	if len(allow) == 0 {
		c.handlers = append(c.handlers, c.engine.noRoute...)
		return
	}
	c.SetHeader("Allow", strings.Join(allow, ","))
	c.handlers = append(c.handlers, c.engine.noMethod...)
}

// bindStep 为路由上注册了绑定器的参数生成一个解析步骤；一个都没有时返回 nil。
// 按参数在 pattern 里出现的顺序解析，第一个失败就中止。
func (r *router) bindStep(params []string) HandlerFunc {
	var names []string
	for _, name := range params {
		if _, ok := r.binders[name]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return func(c *Context) {
		for _, name := range names {
			model, err := r.binders[name](c.Req.Context(), c.Params[name])
			if err != nil {
				slog.Debug("route binding failed", "route", c.RoutePattern, "param", name, "err", err)
				r.onBindError(c, name, err)
				c.Abort()
				return
			}
			c.Set(name, model)
		}
	}
}

func (r *router) AllowedMethod(path string) (allow []string) {
	for method := range r.roots {
		if n, _ := r.getRoute(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	sort.Strings(allow)
	return allow
}
