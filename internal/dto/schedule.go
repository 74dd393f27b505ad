package dto

import "timewise/backend/internal/timetable"

// ── 课表模块 DTO ──

// PublishScheduleRequest 整表发布请求
type PublishScheduleRequest struct {
	Schedule *timetable.Schedule `json:"schedule" binding:"required"`
	Note     string              `json:"note"     binding:"omitempty,max=500"`
}

// GenerateScheduleRequest 课表生成请求
type GenerateScheduleRequest struct {
	Subjects    []string `json:"subjects"    binding:"required,min=1,max=50,dive,max=100"`
	Faculty     []string `json:"faculty"     binding:"required,min=1,max=50,dive,max=100"`
	TimeSlots   []string `json:"time_slots"  binding:"omitempty,max=12,dive,max=16"`
	BreakSlot   string   `json:"break_slot"  binding:"omitempty,max=16"`
	Constraints string   `json:"constraints" binding:"omitempty,max=2000"`
	// Publish 为 true 时生成成功后立即发布，否则仅预览
	Publish bool `json:"publish"`
}

// VersionListRequest 版本历史查询参数
type VersionListRequest struct {
	PaginationRequest
}

// AbsenceToggleRequest 停课标记切换请求
type AbsenceToggleRequest struct {
	Subject string `json:"subject" binding:"required,max=100"`
}

// ── 响应 ──

// ScheduleResponse 当前课表
type ScheduleResponse struct {
	Version  int64               `json:"version"`
	Schedule *timetable.Schedule `json:"schedule"`
}

// PublishResponse 发布结果
type PublishResponse struct {
	Version   int64 `json:"version"`
	CellCount int   `json:"cell_count"`
}

// GenerateScheduleResponse 生成结果；Published=false 时 Version 为 0
type GenerateScheduleResponse struct {
	Schedule  *timetable.Schedule `json:"schedule"`
	Published bool                `json:"published"`
	Version   int64               `json:"version,omitempty"`
}

// VersionResponse 版本元数据
type VersionResponse struct {
	ID          string  `json:"id"`
	Version     int64   `json:"version"`
	Source      string  `json:"source"`
	CellCount   int     `json:"cell_count"`
	PublishedBy *string `json:"published_by,omitempty"`
	Note        *string `json:"note,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// VersionDetailResponse 单个版本的元数据与课表快照
type VersionDetailResponse struct {
	VersionResponse
	Schedule *timetable.Schedule `json:"schedule"`
}

// TodayClass 今日课表中的一节课；Room 为 null 表示教室未知
type TodayClass struct {
	Time            string  `json:"time"`
	Subject         string  `json:"subject"`
	Teacher         string  `json:"teacher"`
	OriginalTeacher string  `json:"original_teacher,omitempty"`
	Room            *string `json:"room"`
	Status          string  `json:"status"`
	IsProxy         bool    `json:"is_proxy"`
	Canceled        bool    `json:"canceled"`
}

// TodayResponse 今日课表
type TodayResponse struct {
	Date     string       `json:"date"`
	Weekday  string       `json:"weekday"`
	Timezone string       `json:"timezone"`
	Classes  []TodayClass `json:"classes"`
}

// AbsenceToggleResponse 切换后的状态
type AbsenceToggleResponse struct {
	Subject  string `json:"subject"`
	Canceled bool   `json:"canceled"`
}

// AbsencesResponse 停课标记集合
type AbsencesResponse struct {
	Subjects []string `json:"subjects"`
}
