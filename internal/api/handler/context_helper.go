package handler

import (
	"github.com/gin-gonic/gin"

	"timewise/backend/internal/api/middleware"
	"timewise/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// JWT 中间件未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 操作人标识：优先使用令牌中的展示名，缺省时退回 user_id。
// 审计记录与事件中均使用该值。
func MustGetCaller(c *gin.Context) (string, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	if name := c.GetString(middleware.CtxUserName); name != "" {
		return name, true
	}
	return id, true
}
