package server

import (
	"AlumniServer/config"
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 对 http.Server 的轻量封装，集中管理启动和优雅关闭。
// 配置了独立的 MetricsAddr 时额外启动一个只暴露 /metrics 的监听。
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server
}

// New 用 social 配置包装路由。
func New(cfg config.SocialConfig, handler http.Handler) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		}
	}
	return s
}

// Addr 主服务监听地址。
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start 启动监听，阻塞到任一监听退出。
// 优雅关闭时返回 nil，其余情况返回监听错误。
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	if s.metricsServer != nil {
		go func() {
			errCh <- s.metricsServer.ListenAndServe()
		}()
	}

	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 执行优雅停机，调用方需要传入带超时的 ctx。
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.metricsServer != nil {
		errs = append(errs, s.metricsServer.Shutdown(ctx))
	}
	errs = append(errs, s.httpServer.Shutdown(ctx))
	return errors.Join(errs...)
}
