package errors

import "errors"

// 跨模块共享的哨兵错误
var (
	// ErrVersionConflict 并发发布导致版本号冲突
	ErrVersionConflict = errors.New("课表已被其他操作修改，请刷新后重试")
	// ErrNotConfigured 可选依赖（数据库、Redis、生成服务）未配置
	ErrNotConfigured = errors.New("依赖服务未配置")
)
