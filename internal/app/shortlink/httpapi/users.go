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
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(id string, u shortlink.User) UserResponse {
	return UserResponse{ID: id, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

func writeUser(ctx *gee.Context, d Deps, code int, u shortlink.User) {
	id, err := d.UserFinder.RouteKey(u)
	if err != nil {
		slog.Error("encode user id failed", "id", u.ID, "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "internal error")
		return
	}
	ctx.JSON(code, userResponse(id, u))
}

func NewCreateUserHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req CreateUserRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if err := shortlink.ValidateUsername(req.Username); err != nil {
			ctx.AbortWithError(http.StatusBadRequest, err.Error())
			return
		}
		hash, err := shortlink.HashPassword(req.Password)
		if err != nil {
			if errors.Is(err, shortlink.ErrInvalidPassword) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("hash password failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "user create failed")
			return
		}
		u, err := d.Users.Create(ctx.Req.Context(), req.Username, hash)
		if err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExists) {
				ctx.AbortWithError(http.StatusConflict, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "user create failed")
			return
		}
		writeUser(ctx, d, http.StatusOK, u)
	}
}

func NewGetUserHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		u, ok := gee.Bound[shortlink.User](ctx, string(shortlink.EntityUser))
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "user not found")
			return
		}
		writeUser(ctx, d, http.StatusOK, u)
	}
}

func NewListUsersHandler(d Deps) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		tokens := queryTokens(ctx, "ids")
		if len(tokens) > maxBatchIDs {
			ctx.AbortWithError(http.StatusBadRequest, "too many ids")
			return
		}
		users, err := d.UserFinder.FindMany(ctx.Req.Context(), tokens)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "user list failed")
			return
		}
		resp := ListResponse[UserResponse]{Items: make([]UserResponse, 0, len(users))}
		for _, u := range users {
			id, err := d.UserFinder.RouteKey(u)
			if err != nil {
				slog.Error("encode user id failed", "id", u.ID, "err", err)
				ctx.AbortWithError(http.StatusInternalServerError, "internal error")
				return
			}
			resp.Items = append(resp.Items, userResponse(id, u))
		}
		ctx.JSON(http.StatusOK, resp)
	}
}
