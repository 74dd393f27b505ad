package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"timewise/backend/internal/generator"
	"timewise/backend/internal/model"
	"timewise/backend/internal/timetable"
	pkgerrors "timewise/backend/pkg/errors"
)

// ── Mock ScheduleVersionRepository ──

type mockVersionRepo struct {
	mu        sync.Mutex
	versions  []model.ScheduleVersion
	createErr error
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{}
}

func (m *mockVersionRepo) Create(_ context.Context, v *model.ScheduleVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.versions {
		if existing.Version == v.Version {
			return pkgerrors.ErrVersionConflict
		}
	}
	if v.ID == "" {
		v.ID = "ver-" + time.Now().Format("150405.000000")
	}
	v.CreatedAt = time.Now()
	m.versions = append(m.versions, *v)
	return nil
}

func (m *mockVersionRepo) Latest(_ context.Context) (*model.ScheduleVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.versions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := m.versions[0]
	for _, v := range m.versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return &latest, nil
}

func (m *mockVersionRepo) GetByVersion(_ context.Context, version int64) (*model.ScheduleVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.Version == version {
			cp := v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVersionRepo) List(_ context.Context, offset, limit int) ([]model.ScheduleVersion, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]model.ScheduleVersion(nil), m.versions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version > sorted[j].Version })
	return page(sorted, offset, limit), int64(len(sorted)), nil
}

// ── Mock ProxyAssignmentRepository ──

type mockProxyRepo struct {
	mu      sync.Mutex
	records []model.ProxyAssignment
}

func newMockProxyRepo() *mockProxyRepo {
	return &mockProxyRepo{}
}

func (m *mockProxyRepo) Create(_ context.Context, a *model.ProxyAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = time.Now()
	m.records = append(m.records, *a)
	return nil
}

func (m *mockProxyRepo) List(_ context.Context, teacher string, offset, limit int) ([]model.ProxyAssignment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []model.ProxyAssignment
	for i := len(m.records) - 1; i >= 0; i-- {
		if teacher == "" || m.records[i].OriginalTeacher == teacher {
			filtered = append(filtered, m.records[i])
		}
	}
	return page(filtered, offset, limit), int64(len(filtered)), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Mock Generator ──

type mockGenerator struct {
	result *timetable.Schedule
	err    error
	last   generator.Request
}

func (m *mockGenerator) Generate(_ context.Context, req generator.Request) (*timetable.Schedule, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result.Clone(), nil
}

// ── Mock EventPublisher ──

type mockPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (m *mockPublisher) Publish(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

var errMockUpstream = errors.New("mock upstream failure")
