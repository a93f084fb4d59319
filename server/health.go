package server

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus 定义了健康状态类型
type HealthStatus string

const (
	// StatusHealthy 表示组件健康
	StatusHealthy HealthStatus = "healthy"

	// StatusUnhealthy 表示组件不健康
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck 定义健康检查函数类型
type HealthCheck func(ctx context.Context) error

// ComponentHealth 组件健康状态
type ComponentHealth struct {
	Status HealthStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport 健康检查结果
type HealthReport struct {
	Status     HealthStatus               `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// Health 管理组件健康检查
type Health struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealth 创建健康检查管理器
func NewHealth(timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Health{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
	}
}

// Register 注册组件健康检查
func (h *Health) Register(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Check 执行所有健康检查
func (h *Health) Check(ctx context.Context) HealthReport {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	report := HealthReport{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentHealth, len(names)),
		CheckedAt:  time.Now(),
	}

	for _, name := range names {
		h.mu.RLock()
		check := h.checks[name]
		h.mu.RUnlock()

		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			report.Status = StatusUnhealthy
			report.Components[name] = ComponentHealth{Status: StatusUnhealthy, Error: err.Error()}
			continue
		}
		report.Components[name] = ComponentHealth{Status: StatusHealthy}
	}

	return report
}

// Handler 返回健康检查接口
func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}
