package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hashkey.local/gee"
)

// AccessLog 每个请求一条 "access" 日志。
// 5xx 记 Error，4xx 记 Warn：解不开的 hashid 和不存在的实体都落在 404 上，
// 单独看 Warn 就能发现有人在枚举 id。
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		slog.Log(context.Background(), levelFor(status), "access",
			"request_id", ctx.Req.Header.Get(gee.RequestIDHeader),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", ctx.RoutePattern,
			"status", status,
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
