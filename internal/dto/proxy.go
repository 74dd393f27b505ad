package dto

// ── 代课模块 DTO ──

// DateLayout 请求中日期字段格式
const DateLayout = "2006-01-02"

// AssignProxyRequest 代课请求
type AssignProxyRequest struct {
	OriginalTeacher string `json:"original_teacher" binding:"required,max=128"`
	ProxyTeacher    string `json:"proxy_teacher"    binding:"required,max=128"`
	StartDate       string `json:"start_date"       binding:"required"`
	EndDate         string `json:"end_date"         binding:"required"`
}

// RevertProxyRequest 撤销代课请求
type RevertProxyRequest struct {
	OriginalTeacher string `json:"original_teacher" binding:"required,max=128"`
}

// ProxyListRequest 代课审计查询参数
type ProxyListRequest struct {
	Teacher string `form:"teacher" binding:"omitempty,max=128"`
	PaginationRequest
}

// ── 响应 ──

// ProxyResponse 代课/撤销结果
type ProxyResponse struct {
	Changed int   `json:"changed"`
	Version int64 `json:"version"`
}

// ProxyAssignmentResponse 代课审计记录
type ProxyAssignmentResponse struct {
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	OriginalTeacher string  `json:"original_teacher"`
	ProxyTeacher    *string `json:"proxy_teacher,omitempty"`
	StartDate       *string `json:"start_date,omitempty"`
	EndDate         *string `json:"end_date,omitempty"`
	ChangedCells    int     `json:"changed_cells"`
	Version         *int64  `json:"version,omitempty"`
	RequestedBy     *string `json:"requested_by,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
