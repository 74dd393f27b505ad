package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// 课表变更事件类型
const (
	EventSchedulePublished = "schedule.published"
	EventProxyAssigned     = "proxy.assigned"
	EventProxyReverted     = "proxy.reverted"
	EventAbsenceToggled    = "absence.toggled"
)

// ScheduleEvent 广播给通知服务的课表变更事件
type ScheduleEvent struct {
	Type            string    `json:"type"`
	Version         int64     `json:"version,omitempty"`
	Source          string    `json:"source,omitempty"`
	Actor           string    `json:"actor,omitempty"`
	Changed         int       `json:"changed,omitempty"`
	OriginalTeacher string    `json:"original_teacher,omitempty"`
	ProxyTeacher    string    `json:"proxy_teacher,omitempty"`
	StartDate       string    `json:"start_date,omitempty"`
	EndDate         string    `json:"end_date,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Canceled        *bool     `json:"canceled,omitempty"`
	At              time.Time `json:"at"`
}

// EventPublisher 事件广播通道（Redis pub/sub）
type EventPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// emit 广播失败只记录日志，不影响主流程
func emit(ctx context.Context, pub EventPublisher, logger *zap.Logger, ev ScheduleEvent) {
	if pub == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("序列化课表事件失败", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if err := pub.Publish(ctx, payload); err != nil {
		logger.Warn("广播课表事件失败", zap.String("type", ev.Type), zap.Error(err))
	}
}
