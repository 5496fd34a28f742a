package httpmiddleware

import (
	"strconv"
	"time"

	"hashkey.local/gee"
	"hashkey.local/internal/platform/metrics"
)

// unmatchedRoute 是没命中任何路由时的 route label。
// 404 的真实 path 是用户输入（包括乱猜的短码），不能直接当 label。
const unmatchedRoute = "UNMATCHED"

// Metrics 按路由模板统计请求数和耗时；skip 里的路由模板（例如 /healthz）不计入。
func Metrics(skip ...string) gee.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		ctx.Next()

		route := ctx.RoutePattern
		if _, ok := skipped[route]; ok && route != "" {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, status).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
	}
}
