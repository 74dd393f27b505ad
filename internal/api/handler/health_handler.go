package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timewise/backend/internal/dto"
	"timewise/backend/internal/service"
)

// Pinger 可探活的外部依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 将函数适配为 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler 健康检查
type HealthHandler struct {
	scheduleSvc service.ScheduleService
	timezone    string
	checks      map[string]Pinger
}

// NewHealthHandler checks 中的依赖任一失败时状态为 degraded，但仍返回 200
func NewHealthHandler(scheduleSvc service.ScheduleService, timezone string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{scheduleSvc: scheduleSvc, timezone: timezone, checks: checks}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   "ok",
		Version:  h.scheduleSvc.Version(),
		Timezone: h.timezone,
	}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		for name, p := range h.checks {
			if err := p.Ping(ctx); err != nil {
				resp.Checks[name] = "down: " + err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "up"
		}
	}

	c.JSON(http.StatusOK, resp)
}
