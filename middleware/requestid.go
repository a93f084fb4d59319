package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求ID的头部名称
const RequestIDHeader = "X-Request-ID"

// RequestIDKey 请求ID在上下文中的键
const RequestIDKey = "request_id"

// RequestID 返回为每个请求分配唯一ID的中间件，客户端提供的ID会被沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
