package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxStackSize 记录的最大堆栈大小
const maxStackSize = 4096

// Recovery 返回一个恢复中间件，panic 会被记录并转换为 500 响应
func Recovery(logger logrus.FieldLogger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := make([]byte, maxStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				logger.WithFields(logrus.Fields{
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(RequestIDKey),
					"stack":      string(stack),
				}).Errorf("panic recovered: %v", err)

				_ = c.Error(fmt.Errorf("%v", err))

				// 已经写入响应头时只能中止
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    http.StatusInternalServerError,
					"message": "内部服务器错误",
				})
			}
		}()

		c.Next()
	}
}
