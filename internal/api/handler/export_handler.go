package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timewise/backend/internal/service"
	"timewise/backend/internal/timetable"
	"timewise/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出周课表
// GET /api/v1/export/schedule
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportTeacherICS 导出教师周日历
// GET /api/v1/export/teacher.ics?teacher=xxx&date=2026-10-19
func (h *ExportHandler) ExportTeacherICS(c *gin.Context) {
	teacher := c.Query("teacher")
	if teacher == "" {
		response.BadRequest(c, 10001, "teacher 不能为空")
		return
	}

	data, filename, err := h.exportSvc.ExportTeacherICS(c.Request.Context(), teacher, c.Query("date"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timetable.ErrTeacherRequired):
		response.BadRequest(c, 10001, "teacher 不能为空")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 23001, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrExportNoClasses):
		response.NotFound(c, 23002, "该教师本周没有课程")
	default:
		response.InternalError(c)
	}
}
