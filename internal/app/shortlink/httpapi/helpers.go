package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hashkey.local/gee"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/metrics"
)

// maxBatchIDs 单次批量查询最多接受的 id 个数
const maxBatchIDs = 100

// queryTokens 解析 ?ids=a,b&ids=c 形式的参数，去掉空白项
func queryTokens(ctx *gee.Context, key string) []string {
	var out []string
	for _, raw := range ctx.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// bindError 是路由模型绑定失败时的统一处理：
// 找不到（包括 token 解不开）→ 404，其它都是内部错误。
func bindError(ctx *gee.Context, param string, err error) {
	if errors.Is(err, hashid.ErrNotFound) {
		metrics.RouteBindingFailures.WithLabelValues(param, "not_found").Inc()
		ctx.AbortWithBindError(http.StatusNotFound, param, param+" not found")
		return
	}
	metrics.RouteBindingFailures.WithLabelValues(param, "error").Inc()
	slog.Error("route binding failed", "param", param, "err", err)
	ctx.AbortWithError(http.StatusInternalServerError, "internal error")
}

// shortURL 拼接完整短链；没配置 PUBLIC_BASE_URL 时按请求推断
func shortURL(ctx *gee.Context, baseURL string, code string) string {
	path := "/" + code
	if baseURL != "" {
		return baseURL + path
	}
	host := ctx.Req.Host
	if host == "" {
		return path
	}
	scheme := ctx.Req.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host + path
}
