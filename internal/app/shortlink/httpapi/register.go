package httpapi

import (
	"time"

	"hashkey.local/gee"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/auth"
	"hashkey.local/internal/platform/httpmiddleware"
	"hashkey.local/internal/platform/ratelimit"
)

// 限流规则，按客户端 IP 计。
// lookup 按请求里的 id 个数计费：?ids= 一次塞 100 个和单查 100 次消耗相同。
var (
	ruleRedirect = ratelimit.Rule{Name: "redirect", Limit: 100, Window: time.Minute}
	ruleLookup   = ratelimit.Rule{Name: "lookup", Limit: 300, Window: time.Minute}
	ruleCreate   = ratelimit.Rule{Name: "create", Limit: 10, Window: time.Minute}
	ruleRegister = ratelimit.Rule{Name: "register", Limit: 3, Window: time.Minute}
	ruleLogin    = ratelimit.Rule{Name: "login", Limit: 5, Window: time.Minute}
)

// Deps 是 handler 依赖的能力，cmd/api 负责组装。
type Deps struct {
	Shortlinks shortlink.ShortlinkStore
	Users      shortlink.UserStore
	Resolver   shortlink.Resolver

	ShortlinkFinder *hashid.Finder[shortlink.Shortlink]
	UserFinder      *hashid.Finder[shortlink.User]

	Tokens auth.TokenService
	// Limiter 为 nil 时不限流（REDIS_ENABLED=false 或 RATELIMIT_ENABLED=false）
	Limiter httpmiddleware.Limiter

	// PublicBaseURL 例如 https://s.example.com，为空时按请求 Host 拼接
	PublicBaseURL string
}

// NewDeps 用同一个 Provider 为两个实体类型构造 Finder。
func NewDeps(p *hashid.Provider, sl shortlink.ShortlinkStore, users shortlink.UserStore, resolver shortlink.Resolver, tokens auth.TokenService, baseURL string) Deps {
	return Deps{
		Shortlinks:      sl,
		Users:           users,
		Resolver:        resolver,
		ShortlinkFinder: hashid.NewFinder[shortlink.Shortlink](p.For(shortlink.EntityShortlink), sl),
		UserFinder:      hashid.NewFinder[shortlink.User](p.For(shortlink.EntityUser), users),
		Tokens:          tokens,
		PublicBaseURL:   baseURL,
	}
}

// RegisterBindings 注册路由模型绑定：
// 路由里的 :shortlink / :user 在进入 handler 前就被解析成实体。
func RegisterBindings(engine *gee.Engine, d Deps) {
	engine.Bind(string(shortlink.EntityShortlink), d.ShortlinkFinder.Bind)
	engine.Bind(string(shortlink.EntityUser), d.UserFinder.Bind)
	engine.OnBindError(bindError)
}

func (d Deps) limit(rule ratelimit.Rule) gee.HandlerFunc {
	return httpmiddleware.RateLimit(d.Limiter, rule, nil)
}

func (d Deps) limitByIDs(rule ratelimit.Rule) gee.HandlerFunc {
	return httpmiddleware.RateLimit(d.Limiter, rule, func(ctx *gee.Context) int {
		return len(queryTokens(ctx, "ids"))
	})
}

// RegisterAPIRoutes 在给定分组下挂载 JSON API（例如 /api/v1）。
// 本包只做传输层工作，领域逻辑放在 internal/app/shortlink。
func RegisterAPIRoutes(api *gee.RouterGroup, d Deps) {
	api.POST("/users", d.limit(ruleRegister), NewCreateUserHandler(d))
	api.POST("/login", d.limit(ruleLogin), NewLoginHandler(d))
	api.GET("/users/me", httpmiddleware.AuthRequired(d.Tokens), d.currentUser(), NewMeHandler(d))
	api.GET("/users", d.limitByIDs(ruleLookup), NewListUsersHandler(d))
	api.GET("/users/:user", d.limit(ruleLookup), NewGetUserHandler(d))

	api.POST("/shortlinks", d.limit(ruleCreate), httpmiddleware.AuthOptional(d.Tokens), d.currentUser(), NewCreateShortlinkHandler(d))
	api.GET("/shortlinks", d.limitByIDs(ruleLookup), NewListShortlinksHandler(d))
	api.GET("/shortlinks/:shortlink", d.limit(ruleLookup), NewGetShortlinkHandler(d))
	api.POST("/shortlinks/:shortlink/disable", httpmiddleware.AuthRequired(d.Tokens), d.currentUser(), NewDisableShortlinkHandler(d))

	// token 里的 role 先挡一层，currentUser 之后再按库里的 role 确认
	admin := api.Group("/admin")
	admin.Use(httpmiddleware.AuthRequired(d.Tokens), httpmiddleware.RequireRole(auth.RoleAdmin))
	admin.POST("/shortlinks/:shortlink/enable", d.currentUser(), requireAdmin(), NewEnableShortlinkHandler(d))
}

// RegisterPublicRoutes 挂载跳转入口 GET /:code。
// 不放在 /api/v1 下，方便用户直接在浏览器输入短链 URL。
func RegisterPublicRoutes(engine *gee.Engine, d Deps) {
	engine.GET("/:code", d.limit(ruleRedirect), NewRedirectHandler(d))
}
