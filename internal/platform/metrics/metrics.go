package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter）。
	//
	// labels：
	// - method：HTTP 方法，例如 GET/POST
	// - route：路由模板（例如 /api/v1/shortlinks/:shortlink），不要用真实 path，否则会产生无限 label
	// - status：HTTP 状态码字符串
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），用于计算 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	ShortlinkRedirects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Number of successful shortlink redirects.",
		},
	)

	// CacheOperations：layer 为 l1/l2，result 为 hit/hit_negative/miss。
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_cache_operations_total",
			Help: "Shortlink cache lookups by layer and result.",
		},
		[]string{"layer", "result"},
	)

	// HashidCodecBuilds：每个实体类型的 codec 构造次数，正常情况下每个类型只有 1。
	HashidCodecBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashid_codec_builds_total",
			Help: "Number of hashid codecs constructed, by entity type.",
		},
		[]string{"entity"},
	)

	// HashidDecodeFailures：无法解析的 encoded id 数量。批量解码会静默丢弃非法条目，这里是唯一能看到丢弃量的地方。
	HashidDecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashid_decode_failures_total",
			Help: "Number of encoded ids that failed to decode, by entity type.",
		},
		[]string{"entity"},
	)

	// RouteBindingFailures：路由参数解析成实体失败的次数，result 为 not_found/error。
	// not_found 持续升高通常意味着有人在枚举 id。
	RouteBindingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_binding_failures_total",
			Help: "Route parameters that failed to resolve to an entity.",
		},
		[]string{"param", "result"},
	)

	// RateLimitDecisions：result 为 allowed/limited/error（error 时放行）。
	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter decisions by rule and result.",
		},
		[]string{"rule", "result"},
	)

	// AuthFailures：reason 为 missing/malformed/invalid/unknown_user。
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected or ignored credentials by reason.",
		},
		[]string{"reason"},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			ShortlinkRedirects,
			CacheOperations,
			HashidCodecBuilds,
			HashidDecodeFailures,
			RouteBindingFailures,
			RateLimitDecisions,
			AuthFailures,
		)
	})
}
