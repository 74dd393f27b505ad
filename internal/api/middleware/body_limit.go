package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timewise/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// Content-Length 已超限时直接拒绝，其余情况由 MaxBytesReader 在读取时截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.AbortWithError(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
