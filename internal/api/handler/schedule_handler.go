package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"timewise/backend/internal/dto"
	"timewise/backend/internal/generator"
	"timewise/backend/internal/service"
	"timewise/backend/internal/timetable"
	pkgerrors "timewise/backend/pkg/errors"
	"timewise/backend/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetSchedule 当前课表
// GET /api/v1/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	response.OK(c, h.scheduleSvc.Current(c.Request.Context()))
}

// PublishSchedule 整表发布
// PUT /api/v1/schedule
func (h *ScheduleHandler) PublishSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.PublishScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, timetable.ErrInvalidSchedule) {
			response.ErrorWithDetails(c, 400, 20002, "课表结构无效", err.Error())
			return
		}
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.Publish(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// GenerateSchedule 生成课表（可选立即发布）
// POST /api/v1/schedule/generate
func (h *ScheduleHandler) GenerateSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.Generate(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	if result.Published {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// ListVersions 发布历史
// GET /api/v1/schedule/versions
func (h *ScheduleHandler) ListVersions(c *gin.Context) {
	var req dto.VersionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.scheduleSvc.ListVersions(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetVersion 指定版本的课表快照
// GET /api/v1/schedule/versions/:version
func (h *ScheduleHandler) GetVersion(c *gin.Context) {
	version, err := strconv.ParseInt(c.Param("version"), 10, 64)
	if err != nil || version <= 0 {
		response.BadRequest(c, 10001, "版本号无效")
		return
	}

	result, err := h.scheduleSvc.GetVersion(c.Request.Context(), version)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// GetToday 今日课表
// GET /api/v1/schedule/today
func (h *ScheduleHandler) GetToday(c *gin.Context) {
	response.OK(c, h.scheduleSvc.Today(c.Request.Context()))
}

// ── 代课 ──

// AssignProxy 代课
// POST /api/v1/schedule/proxies
func (h *ScheduleHandler) AssignProxy(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AssignProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.AssignProxy(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// RevertProxy 撤销代课
// POST /api/v1/schedule/proxies/revert
func (h *ScheduleHandler) RevertProxy(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.RevertProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.RevertProxy(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListProxies 代课审计
// GET /api/v1/schedule/proxies
func (h *ScheduleHandler) ListProxies(c *gin.Context) {
	var req dto.ProxyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.scheduleSvc.ListProxies(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ── 停课标记 ──

// ListAbsences 当前停课科目
// GET /api/v1/absences
func (h *ScheduleHandler) ListAbsences(c *gin.Context) {
	response.OK(c, h.scheduleSvc.Absences(c.Request.Context()))
}

// ToggleAbsence 切换停课标记
// POST /api/v1/absences/toggle
func (h *ScheduleHandler) ToggleAbsence(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AbsenceToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.ToggleAbsence(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// handleScheduleError 将 Service 层错误映射为 HTTP 响应
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	// 课表
	case errors.Is(err, timetable.ErrEmptySchedule):
		response.UnprocessableEntity(c, 20001, "课表为空，拒绝发布")
	case errors.Is(err, timetable.ErrInvalidSchedule),
		errors.Is(err, timetable.ErrInvalidTimeLabel),
		errors.Is(err, timetable.ErrUnknownWeekday),
		errors.Is(err, timetable.ErrDuplicateSlot):
		response.ErrorWithDetails(c, 400, 20002, "课表结构无效", err.Error())
	case errors.Is(err, service.ErrScheduleRequired):
		response.BadRequest(c, 20003, "请求中缺少课表")
	case errors.Is(err, timetable.ErrSubjectRequired):
		response.BadRequest(c, 20004, "科目名称不能为空")
	case errors.Is(err, pkgerrors.ErrVersionConflict):
		response.Error(c, 409, 20005, "课表已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrHistoryUnavailable):
		response.ServiceUnavailable(c, 20006, "未配置数据库，历史记录不可用")
	case errors.Is(err, service.ErrVersionNotFound):
		response.NotFound(c, 20007, "课表版本不存在")

	// 代课
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 21001, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, timetable.ErrInvalidDateRange):
		response.BadRequest(c, 21002, "开始日期不能晚于结束日期")
	case errors.Is(err, timetable.ErrTeacherRequired):
		response.BadRequest(c, 21003, "教师姓名不能为空")
	case errors.Is(err, timetable.ErrSameTeacher):
		response.BadRequest(c, 21004, "代课教师不能与原教师相同")

	// 生成
	case errors.Is(err, service.ErrGeneratorUnavailable):
		response.ServiceUnavailable(c, 22001, "课表生成服务未配置")
	case errors.Is(err, generator.ErrInvalidRequest):
		response.ErrorWithDetails(c, 400, 22004, "生成请求无效", err.Error())
	case errors.Is(err, generator.ErrGenerationEmpty):
		response.BadGateway(c, 22003, "生成服务返回了空课表", "")
	case errors.Is(err, generator.ErrGenerationFailed):
		response.BadGateway(c, 22002, "课表生成失败", err.Error())

	default:
		response.InternalError(c)
	}
}
