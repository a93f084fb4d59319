// Package server 提供上传接口的HTTP服务器
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/qiniustorage/middleware"
)

// Routes 向路由组注册接口
type Routes interface {
	Register(group *gin.RouterGroup)
}

// Server HTTP服务器
type Server struct {
	config Config
	engine *gin.Engine
	http   *http.Server
	health *Health
	logger logrus.FieldLogger
}

// New 创建HTTP服务器并注册上传接口
func New(cfg Config, routes Routes, health *Health, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if health == nil {
		health = NewHealth(0)
	}

	gin.SetMode(cfg.GinMode())
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.LoggerWithConfig(middleware.LoggerConfig{
			Output:    logger,
			SkipPaths: []string{"/healthz"},
		}),
		middleware.Recovery(logger),
		middleware.Tracing("qiniustorage"),
	)

	engine.GET("/healthz", health.Handler())

	group := engine.Group(cfg.UploadPrefix, middleware.CORS(cfg.CORSOrigins...))
	// 预检请求由CORS中间件处理
	preflight := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	group.OPTIONS("", preflight)
	group.OPTIONS("/*path", preflight)
	if cfg.JWTSecret != "" {
		group.Use(middleware.JWT([]byte(cfg.JWTSecret)))
	}
	if routes != nil {
		routes.Register(group)
	}

	return &Server{
		config: cfg,
		engine: engine,
		health: health,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Engine 返回底层的Gin引擎
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Health 返回健康检查管理器
func (s *Server) Health() *Health {
	return s.health
}

// Addr 返回监听地址
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run 启动服务器并阻塞到 ctx 结束，随后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("HTTP服务器已启动")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("正在关闭HTTP服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP服务器已关闭")
	return nil
}
