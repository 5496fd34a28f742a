package httpmiddleware

import (
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"hashkey.local/gee"
)

// TraceName 把 otelhttp 建的 span 改名为 "METHOD /route/:param"，
// 并记下路由模板和路由参数名；参数值是编码后的 id，不写进 span。
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		span := trace.SpanFromContext(ctx.Req.Context())
		if !span.IsRecording() {
			ctx.Next()
			return
		}
		route := ctx.RoutePattern
		if route == "" {
			route = unmatchedRoute
		}
		span.SetName(ctx.Method + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		if len(ctx.Params) > 0 {
			names := make([]string, 0, len(ctx.Params))
			for name := range ctx.Params {
				names = append(names, name)
			}
			sort.Strings(names)
			span.SetAttributes(attribute.StringSlice("http.route.params", names))
		}
		ctx.Next()
	}
}
