package gee

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
)

// callers 返回 panic 现场的调用栈，每帧一行 "函数 文件:行号"
func callers(skip int) []string {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]string, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			return out
		}
	}
}

// Recovery 把 handler（包括绑定器）里的 panic 转成 500。
// 响应已经开始写出时只能中止链路；http.ErrAbortHandler 原样抛回给 net/http。
func Recovery() HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"request_id", ctx.Req.Header.Get(RequestIDHeader),
				"method", ctx.Method,
				"path", ctx.Path,
				"route", ctx.RoutePattern,
				"panic", fmt.Sprint(rec),
				"stack", callers(4),
			)
			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "Internal Server Error")
		}()
		ctx.Next()
	}
}
