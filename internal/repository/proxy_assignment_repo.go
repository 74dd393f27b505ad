package repository

import (
	"context"

	"gorm.io/gorm"

	"timewise/backend/internal/model"
)

// ProxyAssignmentRepository 代课审计数据访问接口
type ProxyAssignmentRepository interface {
	Create(ctx context.Context, a *model.ProxyAssignment) error
	// List teacher 非空时按原任课教师过滤
	List(ctx context.Context, teacher string, offset, limit int) ([]model.ProxyAssignment, int64, error)
}

type proxyAssignmentRepo struct {
	db *gorm.DB
}

func NewProxyAssignmentRepo(db *gorm.DB) ProxyAssignmentRepository {
	return &proxyAssignmentRepo{db: db}
}

func (r *proxyAssignmentRepo) Create(ctx context.Context, a *model.ProxyAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *proxyAssignmentRepo) List(ctx context.Context, teacher string, offset, limit int) ([]model.ProxyAssignment, int64, error) {
	var (
		items []model.ProxyAssignment
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.ProxyAssignment{})
	if teacher != "" {
		q = q.Where("original_teacher = ?", teacher)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}
