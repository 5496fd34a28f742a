package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hashkey.local/internal/platform/config"
)

// New 构造对外服务（短链跳转 + /api/v1）
func New(cfg config.Config, handler http.Handler) *http.Server {
	return newServer(cfg.Addr, cfg, handler)
}

// NewAdmin 构造管理端服务（/metrics、/readyz、pprof），只应监听本机或内网地址
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return newServer(cfg.AdminAddr, cfg, handler)
}

func newServer(addr string, cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run 启动 srv，stopCtx 结束后在 shutdownTimeout 内优雅关闭。
// 正常关闭返回 nil；监听失败或关闭超时返回错误。
func Run(stopCtx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("http server listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("http server failed", "addr", srv.Addr, "err", err)
		return err
	case <-stopCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	start := time.Now()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server shutdown failed", "addr", srv.Addr, "err", err)
		return err
	}
	slog.Info("http server stopped", "addr", srv.Addr, "drain_ms", time.Since(start).Milliseconds())
	return nil
}
