package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hashkey.local/gee"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/auth"
	"hashkey.local/internal/platform/metrics"
)

// ctx.Set 的 key；不能和路由参数名（user/shortlink）重名
const currentUserKey = "current_user"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// currentUser 把 token 的 sub（编码后的用户 id）解析回用户。
// 没有 identity（匿名访问）时直接放行；sub 解不开或用户已不存在按无效 token 处理。
func (d Deps) currentUser() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.Next()
			return
		}
		u, err := d.UserFinder.FindOrFail(ctx.Req.Context(), id.Subject)
		if err != nil {
			if errors.Is(err, hashid.ErrNotFound) {
				metrics.AuthFailures.WithLabelValues("unknown_user").Inc()
				ctx.AbortWithError(http.StatusUnauthorized, "invalid token")
				return
			}
			slog.Error("load current user failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.Set(currentUserKey, u)
		ctx.Next()
	}
}

func currentUserOf(ctx *gee.Context) (shortlink.User, bool) {
	return gee.Bound[shortlink.User](ctx, currentUserKey)
}

// requireAdmin 以库里的 role 为准，token 签发后被降权的用户会在这里被拦下
func requireAdmin() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		u, ok := currentUserOf(ctx)
		if !ok || u.Role != auth.RoleAdmin {
			ctx.AbortWithError(http.StatusForbidden, "forbidden")
			return
		}
		ctx.Next()
	}
}

func NewLoginHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req LoginRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		u, err := d.Users.FindByUsername(ctx.Req.Context(), strings.TrimSpace(req.Username))
		if err != nil {
			if errors.Is(err, hashid.ErrNotFound) {
				ctx.AbortWithError(http.StatusUnauthorized, shortlink.ErrInvalidCredentials.Error())
				return
			}
			slog.Error("find user failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		if err := shortlink.CheckPassword(u, req.Password); err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, err.Error())
			return
		}

		sub, err := d.UserFinder.RouteKey(u)
		if err != nil {
			slog.Error("encode user id failed", "id", u.ID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		token, exp, err := d.Tokens.Sign(auth.Identity{Subject: sub, Role: u.Role})
		if err != nil {
			slog.Error("sign token failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "sign failed")
			return
		}
		ctx.JSON(http.StatusOK, LoginResponse{
			Token:     token,
			ExpiresAt: exp,
			User:      userResponse(sub, u),
		})
	}
}

func NewMeHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		u, ok := currentUserOf(ctx)
		if !ok {
			ctx.AbortWithError(http.StatusUnauthorized, "unauthorized")
			return
		}
		writeUser(ctx, d, http.StatusOK, u)
	}
}
