package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timewise/backend/config"
	"timewise/backend/internal/api/handler"
	"timewise/backend/internal/api/middleware"
	"timewise/backend/internal/model"
	"timewise/backend/pkg/jwt"
	"timewise/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时跳过 Token 吊销检查与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// nil *redis.Client 不能直接赋给接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist, limiter = rdb, rdb
	}

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleFaculty)

	// 课表模块
	schedule := authorized.Group("/schedule")
	{
		schedule.GET("", h.Schedule.GetSchedule)
		schedule.PUT("", admin, h.Schedule.PublishSchedule)
		schedule.GET("/today", h.Schedule.GetToday)
		schedule.GET("/versions", admin, h.Schedule.ListVersions)
		schedule.GET("/versions/:version", admin, h.Schedule.GetVersion)
		schedule.POST("/generate", admin,
			middleware.RateLimit(limiter, cfg.RateLimit.GenerateLimit, cfg.RateLimit.GenerateWindow, logger),
			h.Schedule.GenerateSchedule)

		// 代课
		schedule.GET("/proxies", staff, h.Schedule.ListProxies)
		schedule.POST("/proxies", staff, h.Schedule.AssignProxy)
		schedule.POST("/proxies/revert", staff, h.Schedule.RevertProxy)
	}

	// 停课标记
	absences := authorized.Group("/absences")
	{
		absences.GET("", h.Schedule.ListAbsences)
		absences.POST("/toggle", staff, h.Schedule.ToggleAbsence)
	}

	// 导出模块
	export := authorized.Group("/export")
	{
		export.GET("/schedule", staff, h.Export.ExportSchedule)
		export.GET("/teacher.ics", h.Export.ExportTeacherICS)
	}

	return r
}
