package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"hashkey.local/gee"
	"hashkey.local/internal/platform/metrics"
	"hashkey.local/internal/platform/ratelimit"
)

// rateLimitTimeout Redis 慢的时候宁可放行，不拖慢跳转
const rateLimitTimeout = 50 * time.Millisecond

// Limiter 由 *ratelimit.Limiter 实现
type Limiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, subject string, cost int) (ratelimit.Decision, error)
}

// CostFunc 返回本次请求要消耗的配额，<= 0 时按 1 计
type CostFunc func(ctx *gee.Context) int

// ClientIP 返回用于限流的客户端 IP。
// 只有请求来自可信代理（本机、私网、ULA）时才看转发头，
// 否则客户端可以伪造 X-Forwarded-For 绕过按 IP 的限流。
func ClientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	remote, err := netip.ParseAddr(host)
	if err != nil || !isTrustedProxy(remote) {
		return host
	}

	// Cloudflare -> Caddy -> app：CF-Connecting-IP 最可信
	if ip, ok := parseIP(req.Header.Get("CF-Connecting-IP")); ok {
		return ip
	}
	// 第一个是原始客户端，后面是经过的代理
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(req.Header.Get("X-Real-IP")); ok {
		return ip
	}
	return host
}

func parseIP(v string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(v))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

func isTrustedProxy(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate()
}

// RateLimit 按客户端 IP 套用 rule；limiter 为 nil 时不限流，Redis 出错时放行。
func RateLimit(limiter Limiter, rule ratelimit.Rule, cost CostFunc) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}
		n := 1
		if cost != nil {
			if c := cost(ctx); c > 0 {
				n = c
			}
		}

		rlCtx, cancel := context.WithTimeout(ctx.Req.Context(), rateLimitTimeout)
		d, err := limiter.Allow(rlCtx, rule, ClientIP(ctx.Req), n)
		cancel()
		if err != nil {
			metrics.RateLimitDecisions.WithLabelValues(rule.Name, "error").Inc()
			slog.Error("rate limit check failed", "rule", rule.Name, "err", err)
			ctx.Next()
			return
		}

		ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
		if !d.Allowed {
			metrics.RateLimitDecisions.WithLabelValues(rule.Name, "limited").Inc()
			if d.RetryAfter > 0 {
				// Retry-After 单位是秒，向上取整
				secs := int64((d.RetryAfter + time.Second - 1) / time.Second)
				ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		metrics.RateLimitDecisions.WithLabelValues(rule.Name, "allowed").Inc()
		ctx.Next()
	}
}
