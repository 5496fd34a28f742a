package httpmiddleware

import (
	"net/http"
	"strings"

	"hashkey.local/gee"
	"hashkey.local/internal/platform/auth"
	"hashkey.local/internal/platform/metrics"
)

// bearerToken 解析 Authorization: Bearer <token>，格式不对返回空串
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	token = strings.TrimSpace(token)
	if strings.ContainsAny(token, " \t") {
		return ""
	}
	return token
}

// authenticate 返回 identity，或者失败原因（metrics 的 reason label）
func authenticate(ts auth.TokenService, req *http.Request) (auth.Identity, string) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return auth.Identity{}, "missing"
	}
	token := bearerToken(header)
	if token == "" {
		return auth.Identity{}, "malformed"
	}
	id, err := ts.Verify(token)
	if err != nil {
		return auth.Identity{}, "invalid"
	}
	return id, ""
}

// AuthRequired 要求请求带有效的 Bearer token，identity 放进 request context
func AuthRequired(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, reason := authenticate(ts, ctx.Req)
		switch reason {
		case "":
			ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), id))
			ctx.Next()
			return
		case "missing":
			ctx.AbortWithError(http.StatusUnauthorized, "missing authorization header")
		case "malformed":
			ctx.AbortWithError(http.StatusUnauthorized, "invalid authorization format")
		default:
			ctx.AbortWithError(http.StatusUnauthorized, "invalid token")
		}
		metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}

// AuthOptional 有 token 就解析；没有 token 按匿名处理。
// 带了但校验不过的 token 直接 401，不悄悄降级成匿名。
func AuthOptional(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, reason := authenticate(ts, ctx.Req)
		switch reason {
		case "":
			ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), id))
		case "missing":
		default:
			metrics.AuthFailures.WithLabelValues(reason).Inc()
			ctx.AbortWithError(http.StatusUnauthorized, "invalid token")
			return
		}
		ctx.Next()
	}
}

// RequireRole 放在 AuthRequired 之后
func RequireRole(role string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.AbortWithError(http.StatusUnauthorized, "unauthorized")
			return
		}
		if id.Role != role {
			ctx.AbortWithError(http.StatusForbidden, "forbidden")
			return
		}
		ctx.Next()
	}
}
