package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hashkey.local/gee"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/app/shortlink/repo"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/auth"
	"hashkey.local/internal/platform/metrics"
)

// CreateShortlinkRequest 不接受 owner 字段，归属只来自登录身份
type CreateShortlinkRequest struct {
	URL string `json:"url"`
}

type ShortlinkResponse struct {
	ID        string    `json:"id"`
	ShortURL  string    `json:"short_url"`
	URL       string    `json:"url"`
	Owner     string    `json:"owner,omitempty"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func toShortlinkResponse(ctx *gee.Context, d Deps, sl shortlink.Shortlink) (ShortlinkResponse, error) {
	code, err := d.ShortlinkFinder.RouteKey(sl)
	if err != nil {
		return ShortlinkResponse{}, err
	}
	resp := ShortlinkResponse{
		ID:        code,
		ShortURL:  shortURL(ctx, d.PublicBaseURL, code),
		URL:       sl.URL,
		Disabled:  sl.Disabled,
		CreatedAt: sl.CreatedAt,
	}
	if sl.OwnerID != nil {
		owner, err := d.UserFinder.Hasher().Encode(*sl.OwnerID)
		if err != nil {
			return ShortlinkResponse{}, err
		}
		resp.Owner = owner
	}
	return resp, nil
}

func writeShortlink(ctx *gee.Context, d Deps, code int, sl shortlink.Shortlink) {
	resp, err := toShortlinkResponse(ctx, d, sl)
	if err != nil {
		slog.Error("encode shortlink id failed", "id", sl.ID, "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "internal error")
		return
	}
	ctx.JSON(code, resp)
}

func NewCreateShortlinkHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req CreateShortlinkRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if err := shortlink.ValidateURL(req.URL); err != nil {
			ctx.AbortWithError(http.StatusBadRequest, err.Error())
			return
		}

		var ownerID *int64
		if u, ok := currentUserOf(ctx); ok {
			ownerID = &u.ID
		}

		sl, err := d.Shortlinks.Create(ctx.Req.Context(), req.URL, ownerID)
		if err != nil {
			if errors.Is(err, repo.ErrShortlinkDisabled) {
				ctx.AbortWithError(http.StatusConflict, err.Error())
				return
			}
			slog.Error("create shortlink failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "shortlink create failed")
			return
		}
		writeShortlink(ctx, d, http.StatusOK, sl)
	}
}

// NewGetShortlinkHandler :shortlink 在分发时已经解析成实体
func NewGetShortlinkHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sl, ok := gee.Bound[shortlink.Shortlink](ctx, string(shortlink.EntityShortlink))
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "shortlink not found")
			return
		}
		writeShortlink(ctx, d, http.StatusOK, sl)
	}
}

// NewListShortlinksHandler GET /shortlinks?ids=a,b,c
// 解不开的 id 直接忽略，查不到的也不会出现在结果里。
func NewListShortlinksHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		tokens := queryTokens(ctx, "ids")
		if len(tokens) > maxBatchIDs {
			ctx.AbortWithError(http.StatusBadRequest, "too many ids")
			return
		}
		items, err := d.ShortlinkFinder.FindMany(ctx.Req.Context(), tokens)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "shortlink list failed")
			return
		}
		resp := ListResponse[ShortlinkResponse]{Items: make([]ShortlinkResponse, 0, len(items))}
		for _, sl := range items {
			item, err := toShortlinkResponse(ctx, d, sl)
			if err != nil {
				slog.Error("encode shortlink id failed", "id", sl.ID, "err", err)
				ctx.AbortWithError(http.StatusInternalServerError, "internal error")
				return
			}
			resp.Items = append(resp.Items, item)
		}
		ctx.JSON(http.StatusOK, resp)
	}
}

// canManage 所有者或管理员可以改短链状态；匿名创建的短链只有管理员能动
func canManage(u shortlink.User, sl shortlink.Shortlink) bool {
	if u.Role == auth.RoleAdmin {
		return true
	}
	return sl.OwnerID != nil && *sl.OwnerID == u.ID
}

func NewDisableShortlinkHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sl, ok := gee.Bound[shortlink.Shortlink](ctx, string(shortlink.EntityShortlink))
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "shortlink not found")
			return
		}
		u, ok := currentUserOf(ctx)
		if !ok || !canManage(u, sl) {
			ctx.AbortWithError(http.StatusForbidden, "forbidden")
			return
		}
		if err := d.Shortlinks.Disable(ctx.Req.Context(), sl.ID); err != nil {
			writeStateError(ctx, err, "shortlink disable failed")
			return
		}
		sl.Disabled = true
		writeShortlink(ctx, d, http.StatusOK, sl)
	}
}

// NewEnableShortlinkHandler 只挂在 admin 分组下
func NewEnableShortlinkHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sl, ok := gee.Bound[shortlink.Shortlink](ctx, string(shortlink.EntityShortlink))
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "shortlink not found")
			return
		}
		if err := d.Shortlinks.Enable(ctx.Req.Context(), sl.ID); err != nil {
			writeStateError(ctx, err, "shortlink enable failed")
			return
		}
		sl.Disabled = false
		writeShortlink(ctx, d, http.StatusOK, sl)
	}
}

func writeStateError(ctx *gee.Context, err error, msg string) {
	switch {
	case errors.Is(err, repo.ErrAlreadyDisabled), errors.Is(err, repo.ErrAlreadyEnabled):
		ctx.AbortWithError(http.StatusConflict, err.Error())
	case errors.Is(err, hashid.ErrNotFound):
		ctx.AbortWithError(http.StatusNotFound, "shortlink not found")
	default:
		slog.Error(msg, "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, msg)
	}
}

// NewRedirectHandler GET /:code，code 就是编码后的短链 id
func NewRedirectHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := d.ShortlinkFinder.Hasher().Decode(ctx.Param("code"))
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "url not found")
			return
		}
		url, err := d.Resolver.ResolveURL(ctx.Req.Context(), id)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "resolve failed")
			return
		}
		if url == "" {
			ctx.AbortWithError(http.StatusNotFound, "url not found")
			return
		}
		metrics.ShortlinkRedirects.Inc()

		ctx.SetHeader("Location", url)
		ctx.Status(http.StatusFound)
	}
}
