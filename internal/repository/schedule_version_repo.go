package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"timewise/backend/internal/model"
	pkgerrors "timewise/backend/pkg/errors"
)

// ScheduleVersionRepository 课表版本数据访问接口
type ScheduleVersionRepository interface {
	// Create 写入新版本；版本号已存在时返回 ErrVersionConflict
	Create(ctx context.Context, v *model.ScheduleVersion) error
	// Latest 最新版本；无记录时返回 gorm.ErrRecordNotFound
	Latest(ctx context.Context) (*model.ScheduleVersion, error)
	// GetByVersion 指定版本（含 payload）；不存在时返回 gorm.ErrRecordNotFound
	GetByVersion(ctx context.Context, version int64) (*model.ScheduleVersion, error)
	List(ctx context.Context, offset, limit int) ([]model.ScheduleVersion, int64, error)
}

type scheduleVersionRepo struct {
	db *gorm.DB
}

func NewScheduleVersionRepo(db *gorm.DB) ScheduleVersionRepository {
	return &scheduleVersionRepo{db: db}
}

func (r *scheduleVersionRepo) Create(ctx context.Context, v *model.ScheduleVersion) error {
	err := r.db.WithContext(ctx).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrVersionConflict
	}
	return err
}

func (r *scheduleVersionRepo) Latest(ctx context.Context) (*model.ScheduleVersion, error) {
	var v model.ScheduleVersion
	err := r.db.WithContext(ctx).
		Order("version DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *scheduleVersionRepo) GetByVersion(ctx context.Context, version int64) (*model.ScheduleVersion, error) {
	var v model.ScheduleVersion
	err := r.db.WithContext(ctx).
		Where("version = ?", version).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List 不加载 payload，仅返回版本元数据
func (r *scheduleVersionRepo) List(ctx context.Context, offset, limit int) ([]model.ScheduleVersion, int64, error) {
	var (
		versions []model.ScheduleVersion
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&model.ScheduleVersion{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Omit("payload").
		Order("version DESC").
		Offset(offset).Limit(limit).
		Find(&versions).Error
	return versions, total, err
}
