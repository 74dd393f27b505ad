package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"timewise/backend/internal/dto"
	"timewise/backend/internal/generator"
	"timewise/backend/internal/model"
	"timewise/backend/internal/repository"
	"timewise/backend/internal/timetable"
	pkgerrors "timewise/backend/pkg/errors"
)

// ── 课表模块业务错误 ──

var (
	ErrGeneratorUnavailable = errors.New("课表生成服务未配置")
	ErrInvalidDate          = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrHistoryUnavailable   = errors.New("未配置数据库，历史记录不可用")
	ErrScheduleRequired     = errors.New("请求中缺少课表")
	ErrVersionNotFound      = errors.New("课表版本不存在")
)

// ScheduleService 课表业务接口
type ScheduleService interface {
	// Current 当前课表及版本号
	Current(ctx context.Context) *dto.ScheduleResponse
	// Publish 整表替换
	Publish(ctx context.Context, req *dto.PublishScheduleRequest, callerID string) (*dto.PublishResponse, error)
	// Generate 调用生成服务；req.Publish 为 true 时生成后立即发布
	Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.GenerateScheduleResponse, error)
	// Today 今日课表投影
	Today(ctx context.Context) *dto.TodayResponse
	// AssignProxy 代课
	AssignProxy(ctx context.Context, req *dto.AssignProxyRequest, callerID string) (*dto.ProxyResponse, error)
	// RevertProxy 撤销某位教师的全部代课
	RevertProxy(ctx context.Context, req *dto.RevertProxyRequest, callerID string) (*dto.ProxyResponse, error)
	// ListProxies 代课审计记录
	ListProxies(ctx context.Context, req *dto.ProxyListRequest) ([]dto.ProxyAssignmentResponse, int64, error)
	// ListVersions 发布历史
	ListVersions(ctx context.Context, req *dto.VersionListRequest) ([]dto.VersionResponse, int64, error)
	// GetVersion 指定版本的课表快照
	GetVersion(ctx context.Context, version int64) (*dto.VersionDetailResponse, error)
	// ToggleAbsence 切换科目停课标记
	ToggleAbsence(ctx context.Context, req *dto.AbsenceToggleRequest, callerID string) (*dto.AbsenceToggleResponse, error)
	// Absences 当前停课科目
	Absences(ctx context.Context) *dto.AbsencesResponse
	// Restore 从最近一次持久化的版本恢复课表；无记录时写入种子版本
	Restore(ctx context.Context) error
	// Version 当前版本号
	Version() int64
}

type scheduleService struct {
	store  *timetable.Store
	repo   *repository.Repository // nil 表示未启用持久化
	gen    generator.Generator    // nil 表示未配置生成服务
	events EventPublisher         // nil 表示不广播
	logger *zap.Logger

	// mu 串行化课表变更与版本号分配，保证版本快照与内存课表一致
	mu      sync.Mutex
	version int64
	// synced 版本号已与数据库中的最新版本对齐
	synced bool
}

// NewScheduleService 创建 ScheduleService 实例；repo、gen、events 均可为 nil
func NewScheduleService(
	store *timetable.Store,
	repo *repository.Repository,
	gen generator.Generator,
	events EventPublisher,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		store:   store,
		repo:    repo,
		gen:     gen,
		events:  events,
		logger:  logger,
		version: 1, // 种子课表
	}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Current(_ context.Context) *dto.ScheduleResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &dto.ScheduleResponse{Version: s.version, Schedule: s.store.Schedule()}
}

func (s *scheduleService) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *scheduleService) Today(_ context.Context) *dto.TodayResponse {
	now := s.store.Now()
	classes := s.store.ScheduleFor(now)

	out := make([]dto.TodayClass, 0, len(classes))
	for _, c := range classes {
		item := dto.TodayClass{
			Time:            c.Time,
			Subject:         c.Subject,
			Teacher:         c.Teacher,
			OriginalTeacher: c.OriginalTeacher,
			Status:          string(c.Status),
			IsProxy:         c.IsProxy,
			Canceled:        c.Canceled,
		}
		if c.Room != "" {
			room := c.Room
			item.Room = &room
		}
		out = append(out, item)
	}

	return &dto.TodayResponse{
		Date:     now.Format(dto.DateLayout),
		Weekday:  now.Weekday().String(),
		Timezone: s.store.Location().String(),
		Classes:  out,
	}
}

func (s *scheduleService) Absences(_ context.Context) *dto.AbsencesResponse {
	return &dto.AbsencesResponse{Subjects: s.store.Absences()}
}

// ════════════════════════════════════════════════════════════
// Publish / Generate
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Publish(ctx context.Context, req *dto.PublishScheduleRequest, callerID string) (*dto.PublishResponse, error) {
	if req.Schedule == nil {
		return nil, ErrScheduleRequired
	}
	return s.publish(ctx, req.Schedule, model.VersionSourceManual, callerID, req.Note)
}

func (s *scheduleService) Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.GenerateScheduleResponse, error) {
	if s.gen == nil {
		return nil, ErrGeneratorUnavailable
	}

	generated, err := s.gen.Generate(ctx, generator.Request{
		Subjects:    req.Subjects,
		Faculty:     req.Faculty,
		TimeSlots:   req.TimeSlots,
		BreakSlot:   req.BreakSlot,
		Constraints: req.Constraints,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.GenerateScheduleResponse{Schedule: generated}
	if !req.Publish {
		return resp, nil
	}

	published, err := s.publish(ctx, generated, model.VersionSourceGenerate, callerID, "")
	if err != nil {
		return nil, err
	}
	resp.Published = true
	resp.Version = published.Version
	return resp, nil
}

func (s *scheduleService) publish(ctx context.Context, next *timetable.Schedule, source, callerID, note string) (*dto.PublishResponse, error) {
	s.mu.Lock()
	prev := s.store.Schedule()
	if err := s.store.Publish(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	version, err := s.commitLocked(ctx, prev, source, callerID, note)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("课表已发布",
		zap.Int64("version", version),
		zap.String("source", source),
		zap.String("caller", callerID),
		zap.Int("cells", next.CellCount()),
	)

	emit(ctx, s.events, s.logger, ScheduleEvent{
		Type:    EventSchedulePublished,
		Version: version,
		Source:  source,
		Actor:   callerID,
		At:      time.Now(),
	})

	return &dto.PublishResponse{Version: version, CellCount: next.CellCount()}, nil
}

// ════════════════════════════════════════════════════════════
// 代课
// ════════════════════════════════════════════════════════════

func (s *scheduleService) AssignProxy(ctx context.Context, req *dto.AssignProxyRequest, callerID string) (*dto.ProxyResponse, error) {
	start, err := s.parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := s.parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	original := strings.TrimSpace(req.OriginalTeacher)
	proxy := strings.TrimSpace(req.ProxyTeacher)

	s.mu.Lock()
	prev := s.store.Schedule()
	changed, err := s.store.AssignProxy(timetable.ProxyRequest{
		OriginalTeacher: original,
		ProxyTeacher:    proxy,
		StartDate:       start,
		EndDate:         end,
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	version := s.version
	if changed > 0 {
		version, err = s.commitLocked(ctx, prev, model.VersionSourceProxy, callerID,
			fmt.Sprintf("%s → %s (%s ~ %s)", original, proxy, req.StartDate, req.EndDate))
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	startDate, endDate := datatypes.Date(start), datatypes.Date(end)
	s.audit(ctx, &model.ProxyAssignment{
		Action:          model.ProxyActionAssign,
		OriginalTeacher: original,
		ProxyTeacher:    &proxy,
		StartDate:       &startDate,
		EndDate:         &endDate,
		ChangedCells:    changed,
		Version:         versionRef(changed, version),
		RequestedBy:     optional(callerID),
	})

	s.logger.Info("代课已应用",
		zap.String("original", original),
		zap.String("proxy", proxy),
		zap.String("start", req.StartDate),
		zap.String("end", req.EndDate),
		zap.Int("changed", changed),
		zap.String("caller", callerID),
	)

	if changed > 0 {
		emit(ctx, s.events, s.logger, ScheduleEvent{
			Type:            EventProxyAssigned,
			Version:         version,
			Actor:           callerID,
			Changed:         changed,
			OriginalTeacher: original,
			ProxyTeacher:    proxy,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			At:              time.Now(),
		})
	}

	return &dto.ProxyResponse{Changed: changed, Version: version}, nil
}

func (s *scheduleService) RevertProxy(ctx context.Context, req *dto.RevertProxyRequest, callerID string) (*dto.ProxyResponse, error) {
	original := strings.TrimSpace(req.OriginalTeacher)

	s.mu.Lock()
	prev := s.store.Schedule()
	changed, err := s.store.RevertProxy(original)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	version := s.version
	if changed > 0 {
		version, err = s.commitLocked(ctx, prev, model.VersionSourceRevert, callerID, "revert "+original)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &model.ProxyAssignment{
		Action:          model.ProxyActionRevert,
		OriginalTeacher: original,
		ChangedCells:    changed,
		Version:         versionRef(changed, version),
		RequestedBy:     optional(callerID),
	})

	s.logger.Info("代课已撤销",
		zap.String("original", original),
		zap.Int("changed", changed),
		zap.String("caller", callerID),
	)

	if changed > 0 {
		emit(ctx, s.events, s.logger, ScheduleEvent{
			Type:            EventProxyReverted,
			Version:         version,
			Actor:           callerID,
			Changed:         changed,
			OriginalTeacher: original,
			At:              time.Now(),
		})
	}

	return &dto.ProxyResponse{Changed: changed, Version: version}, nil
}

func (s *scheduleService) ListProxies(ctx context.Context, req *dto.ProxyListRequest) ([]dto.ProxyAssignmentResponse, int64, error) {
	if s.repo == nil || s.repo.Proxy == nil {
		return nil, 0, ErrHistoryUnavailable
	}

	items, total, err := s.repo.Proxy.List(ctx, strings.TrimSpace(req.Teacher), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询代课记录失败", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.ProxyAssignmentResponse, 0, len(items))
	for i := range items {
		out = append(out, toProxyAssignmentResponse(&items[i]))
	}
	return out, total, nil
}

// ════════════════════════════════════════════════════════════
// 停课标记
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ToggleAbsence(ctx context.Context, req *dto.AbsenceToggleRequest, callerID string) (*dto.AbsenceToggleResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	canceled, err := s.store.ToggleAbsence(subject)
	if err != nil {
		return nil, err
	}

	s.logger.Info("停课标记已切换",
		zap.String("subject", subject),
		zap.Bool("canceled", canceled),
		zap.String("caller", callerID),
	)

	emit(ctx, s.events, s.logger, ScheduleEvent{
		Type:     EventAbsenceToggled,
		Actor:    callerID,
		Subject:  subject,
		Canceled: &canceled,
		At:       time.Now(),
	})

	return &dto.AbsenceToggleResponse{Subject: subject, Canceled: canceled}, nil
}

// ════════════════════════════════════════════════════════════
// 版本持久化
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListVersions(ctx context.Context, req *dto.VersionListRequest) ([]dto.VersionResponse, int64, error) {
	if s.repo == nil || s.repo.Version == nil {
		return nil, 0, ErrHistoryUnavailable
	}

	versions, total, err := s.repo.Version.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询课表版本失败", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.VersionResponse, 0, len(versions))
	for i := range versions {
		out = append(out, toVersionResponse(&versions[i]))
	}
	return out, total, nil
}

func (s *scheduleService) GetVersion(ctx context.Context, version int64) (*dto.VersionDetailResponse, error) {
	if s.repo == nil || s.repo.Version == nil {
		return nil, ErrHistoryUnavailable
	}

	v, err := s.repo.Version.GetByVersion(ctx, version)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		s.logger.Error("查询课表版本失败", zap.Int64("version", version), zap.Error(err))
		return nil, err
	}

	var snapshot timetable.Schedule
	if err := json.Unmarshal(v.Payload, &snapshot); err != nil {
		s.logger.Error("解析课表版本失败", zap.Int64("version", version), zap.Error(err))
		return nil, fmt.Errorf("解析课表版本 %d 失败: %w", version, err)
	}

	return &dto.VersionDetailResponse{VersionResponse: toVersionResponse(v), Schedule: &snapshot}, nil
}

func toVersionResponse(v *model.ScheduleVersion) dto.VersionResponse {
	return dto.VersionResponse{
		ID:          v.ID,
		Version:     v.Version,
		Source:      v.Source,
		CellCount:   v.CellCount,
		PublishedBy: v.PublishedBy,
		Note:        v.Note,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

func (s *scheduleService) Restore(ctx context.Context) error {
	if s.repo == nil || s.repo.Version == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.repo.Version.Latest(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info("无历史课表版本，写入种子课表", zap.Int64("version", s.version))
		if err := s.saveLocked(ctx, s.version, model.VersionSourceSeed, "", ""); err != nil {
			return err
		}
		s.synced = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询最新课表版本失败: %w", err)
	}

	var restored timetable.Schedule
	if err := json.Unmarshal(latest.Payload, &restored); err != nil {
		return fmt.Errorf("解析课表版本 %d 失败: %w", latest.Version, err)
	}
	if err := s.store.Publish(&restored); err != nil {
		return fmt.Errorf("恢复课表版本 %d 失败: %w", latest.Version, err)
	}
	s.version = latest.Version
	s.synced = true

	s.logger.Info("已恢复课表版本",
		zap.Int64("version", latest.Version),
		zap.String("source", latest.Source),
		zap.Int("cells", latest.CellCount),
	)
	return nil
}

// commitLocked 分配新版本号并写入当前课表快照，调用方需持有 mu。
// 版本号冲突时按数据库最新版本重排一次；仍冲突则把内存课表回滚到 prev
// 并返回 ErrVersionConflict。其他持久化失败只记录日志，内存课表保持生效。
func (s *scheduleService) commitLocked(ctx context.Context, prev *timetable.Schedule, source, callerID, note string) (int64, error) {
	if !s.synced {
		s.syncLocked(ctx)
	}

	next := s.version + 1
	err := s.saveLocked(ctx, next, source, callerID, note)
	if errors.Is(err, pkgerrors.ErrVersionConflict) {
		s.syncLocked(ctx)
		if s.version >= next {
			next = s.version + 1
			err = s.saveLocked(ctx, next, source, callerID, note)
		}
	}

	switch {
	case errors.Is(err, pkgerrors.ErrVersionConflict):
		s.logger.Warn("课表版本冲突，已回滚内存课表",
			zap.Int64("version", next),
			zap.String("source", source),
		)
		if rbErr := s.store.Publish(prev); rbErr != nil {
			s.logger.Error("回滚内存课表失败", zap.Error(rbErr))
		}
		return s.version, err
	case err != nil:
		s.logger.Error("持久化课表版本失败",
			zap.Int64("version", next),
			zap.String("source", source),
			zap.Error(err),
		)
	}

	s.version = next
	return next, nil
}

// syncLocked 将版本号对齐到数据库中的最新版本，调用方需持有 mu
func (s *scheduleService) syncLocked(ctx context.Context) {
	if s.repo == nil || s.repo.Version == nil {
		return
	}
	latest, err := s.repo.Version.Latest(ctx)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.synced = true
	case err != nil:
		s.logger.Warn("查询最新课表版本失败", zap.Error(err))
	default:
		if latest.Version > s.version {
			s.version = latest.Version
		}
		s.synced = true
	}
}

func (s *scheduleService) saveLocked(ctx context.Context, version int64, source, callerID, note string) error {
	if s.repo == nil || s.repo.Version == nil {
		return nil
	}

	snapshot := s.store.Schedule()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化课表失败: %w", err)
	}

	return s.repo.Version.Create(ctx, &model.ScheduleVersion{
		Version:     version,
		Source:      source,
		Payload:     datatypes.JSON(payload),
		CellCount:   snapshot.CellCount(),
		PublishedBy: optional(callerID),
		Note:        optional(note),
	})
}

func (s *scheduleService) audit(ctx context.Context, rec *model.ProxyAssignment) {
	if s.repo == nil || s.repo.Proxy == nil {
		return
	}
	if err := s.repo.Proxy.Create(ctx, rec); err != nil {
		s.logger.Error("写入代课审计失败",
			zap.String("action", rec.Action),
			zap.String("original", rec.OriginalTeacher),
			zap.Error(err),
		)
	}
}

// ── 辅助函数 ──

func (s *scheduleService) parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dto.DateLayout, strings.TrimSpace(value), s.store.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// versionRef 仅在课表实际变化时记录版本号
func versionRef(changed int, version int64) *int64 {
	if changed == 0 {
		return nil
	}
	return &version
}

func toProxyAssignmentResponse(a *model.ProxyAssignment) dto.ProxyAssignmentResponse {
	resp := dto.ProxyAssignmentResponse{
		ID:              a.ID,
		Action:          a.Action,
		OriginalTeacher: a.OriginalTeacher,
		ProxyTeacher:    a.ProxyTeacher,
		ChangedCells:    a.ChangedCells,
		Version:         a.Version,
		RequestedBy:     a.RequestedBy,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.StartDate != nil {
		d := time.Time(*a.StartDate).Format(dto.DateLayout)
		resp.StartDate = &d
	}
	if a.EndDate != nil {
		d := time.Time(*a.EndDate).Format(dto.DateLayout)
		resp.EndDate = &d
	}
	return resp
}
