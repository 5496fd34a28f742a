package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"hashkey.local/gee"
	"hashkey.local/gee/middleware"
	"hashkey.local/internal/app/shortlink"
	slcache "hashkey.local/internal/app/shortlink/cache"
	shortlinkhttpapi "hashkey.local/internal/app/shortlink/httpapi"
	"hashkey.local/internal/app/shortlink/repo"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/auth"
	platformcache "hashkey.local/internal/platform/cache"
	"hashkey.local/internal/platform/config"
	"hashkey.local/internal/platform/db"
	"hashkey.local/internal/platform/httpmiddleware"
	"hashkey.local/internal/platform/httpserver"
	"hashkey.local/internal/platform/metrics"
	"hashkey.local/internal/platform/migrate"
	"hashkey.local/internal/platform/ratelimit"
	"hashkey.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(h))
	cfg.LogWarnings(slog.Default())

	metrics.Init()

	// Hashids：配置错误属于启动错误，直接退出
	resolver, err := hashid.NewResolver(cfg.Hashids)
	if err != nil {
		log.Fatal(err)
	}
	provider := hashid.NewProvider(resolver)
	if err := provider.Warm(shortlink.EntityShortlink, shortlink.EntityUser); err != nil {
		log.Fatal(err)
	}
	slog.Info("hashids ready", "default", cfg.Hashids.Default, "connections", len(cfg.Hashids.Connections), "codecs", provider.Len())

	//DB
	dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dbPool, errDB := db.New(dbCtx, cfg.DBDSN)
	if errDB != nil {
		log.Fatal(errDB)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(dbCtx); err != nil {
		log.Fatal(err)
	}
	slog.Info("数据库连接成功")

	if cfg.MigrateOnStart {
		migCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		res, err := migrate.Up(migCtx, dbPool, migrate.Options{Dir: cfg.MigrationsDir})
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("migrations applied", "source", res.Source, "applied", res.AppliedFiles, "skipped", len(res.SkippedFiles))
	}

	//Redis，关闭时只用本地缓存
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
	} else {
		slog.Warn("Redis disabled by config", "REDIS_ENABLED", false)
	}

	//短链缓存
	localCache, errLocal := slcache.NewLocalCache(cfg.LocalCacheItems, cfg.LocalCacheBytes)
	if errLocal != nil {
		log.Fatal(errLocal)
	}
	slCache := slcache.NewShortlinkCache(redisClient, localCache)
	defer slCache.Close()
	//布隆过滤器 预期 100 万条，1% 误判率
	idFilter := slcache.NewIDFilter(1_000_000, 0.01)

	slRepo := repo.NewShortlinksRepo(dbPool, slCache, idFilter)
	usersRepo := repo.NewUsersRepo(dbPool)

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 10*time.Second)
	n, err := slRepo.WarmFilter(warmCtx)
	cancelWarm()
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("布隆过滤器预热完成", "ids", n)

	var shutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown = trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = randomSecret()
	}
	tokens, err := auth.NewHS256Service(jwtSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	// 对外业务
	deps := shortlinkhttpapi.NewDeps(provider, slRepo, usersRepo, slRepo, tokens, cfg.PublicBaseURL)
	// redisClient 为 nil 时不能直接赋给接口字段，否则 Limiter != nil
	if cfg.RateLimitEnabled && redisClient != nil {
		deps.Limiter = ratelimit.NewLimiter(redisClient)
	}

	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics("/healthz"), httpmiddleware.TraceName())
	shortlinkhttpapi.RegisterBindings(r, deps)

	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	shortlinkhttpapi.RegisterAPIRoutes(r.Group("/api/v1"), deps)
	shortlinkhttpapi.RegisterPublicRoutes(r, deps)

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	// 数据库连接状态检测
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := dbPool.Ping(dbCtx); err != nil {
			w.WriteHeader(500)
			w.Write([]byte("DB Ping Err"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("DB ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
			"codecs":       provider.Len(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux) // 推荐：127.0.0.1:6060

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.Run(stopCtx, publicSrv, cfg.ShutdownTimeout)
	}()
	go func() {
		errch <- httpserver.Run(stopCtx, adminSrv, cfg.ShutdownTimeout)
	}()
	slog.Info("server started", "addr", cfg.Addr, "admin", cfg.AdminAddr)

	err = <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}

// randomSecret 只在没配置 JWT_SECRET 时使用
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal(err)
	}
	return hex.EncodeToString(b)
}
