package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoggerConfig 是日志中间件的配置选项
type LoggerConfig struct {
	// SkipPaths 是不需要记录日志的路径
	SkipPaths []string

	// Output 是日志输出目标
	Output logrus.FieldLogger
}

// Logger 返回一个使用指定日志记录器的日志中间件
func Logger(output logrus.FieldLogger) gin.HandlerFunc {
	return LoggerWithConfig(LoggerConfig{Output: output})
}

// LoggerWithConfig 返回一个使用指定配置的日志中间件
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	if config.Output == nil {
		config.Output = logrus.StandardLogger()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		statusCode := c.Writer.Status()
		entry := config.Output.WithFields(logrus.Fields{
			"status":     statusCode,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": c.GetString(RequestIDKey),
		})

		// 根据状态码选择日志级别
		switch {
		case statusCode >= 500:
			entry.Error("请求处理失败")
		case statusCode >= 400:
			entry.Warn("请求无效")
		default:
			entry.Info("请求完成")
		}

		for _, e := range c.Errors {
			entry.WithError(e.Err).Error("请求处理错误")
		}
	}
}
