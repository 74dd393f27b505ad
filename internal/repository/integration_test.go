//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timewise/backend/internal/model"
	"timewise/backend/internal/repository"
	pkgerrors "timewise/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=timewise password=timewise dbname=timewise_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		fmt.Fprintf(os.Stderr, "创建扩展失败: %v\n", err)
		os.Exit(1)
	}
	if err := testDB.AutoMigrate(&model.ScheduleVersion{}, &model.ProxyAssignment{}); err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func cleanTables(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM proxy_assignments")
		testDB.Exec("DELETE FROM schedule_versions")
	})
	testDB.Exec("DELETE FROM proxy_assignments")
	testDB.Exec("DELETE FROM schedule_versions")
}

func newVersion(n int64) *model.ScheduleVersion {
	return &model.ScheduleVersion{
		Version:   n,
		Source:    model.VersionSourceManual,
		Payload:   datatypes.JSON(fmt.Sprintf(`{"slots":[{"time":"9:00 AM","days":{"Monday":{"subject":"V%d"}}}]}`, n)),
		CellCount: 1,
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleVersion
// ═══════════════════════════════════════════════════════════

func TestScheduleVersion_LatestAndList(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repository.NewRepository(testDB).Version

	if _, err := repo.Latest(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("空表期望 ErrRecordNotFound，实际: %v", err)
	}

	for i := int64(1); i <= 3; i++ {
		if err := repo.Create(ctx, newVersion(i)); err != nil {
			t.Fatalf("创建版本 %d 失败: %v", i, err)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest 失败: %v", err)
	}
	if latest.Version != 3 || len(latest.Payload) == 0 {
		t.Errorf("期望最新版本为 3 且包含 payload，实际=%d", latest.Version)
	}

	list, total, err := repo.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 3 || len(list) != 2 || list[0].Version != 3 {
		t.Errorf("分页结果错误: total=%d len=%d", total, len(list))
	}
	if len(list[0].Payload) != 0 {
		t.Error("列表不应加载 payload")
	}

	v2, err := repo.GetByVersion(ctx, 2)
	if err != nil || v2.Version != 2 {
		t.Errorf("GetByVersion 失败: %v", err)
	}
}

func TestScheduleVersion_DuplicateIsConflict(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repository.NewScheduleVersionRepo(testDB)

	if err := repo.Create(ctx, newVersion(7)); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Create(ctx, newVersion(7)); !errors.Is(err, pkgerrors.ErrVersionConflict) {
		t.Errorf("重复版本号期望 ErrVersionConflict，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// ProxyAssignment
// ═══════════════════════════════════════════════════════════

func TestProxyAssignment_ListFiltersByTeacher(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	repo := repository.NewProxyAssignmentRepo(testDB)

	proxy := "Dr. Maria Garcia"
	start := datatypes.Date(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	records := []*model.ProxyAssignment{
		{Action: model.ProxyActionAssign, OriginalTeacher: "Dr. Smith", ProxyTeacher: &proxy, StartDate: &start, EndDate: &start, ChangedCells: 1},
		{Action: model.ProxyActionRevert, OriginalTeacher: "Dr. Smith", ChangedCells: 1},
		{Action: model.ProxyActionAssign, OriginalTeacher: "Dr. Evelyn Reed", ProxyTeacher: &proxy, ChangedCells: 2},
	}
	for _, r := range records {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("创建审计记录失败: %v", err)
		}
	}

	items, total, err := repo.List(ctx, "Dr. Smith", 0, 10)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("期望 2 条 Dr. Smith 记录，实际 total=%d", total)
	}

	_, all, _ := repo.List(ctx, "", 0, 10)
	if all != 3 {
		t.Errorf("期望共 3 条记录，实际=%d", all)
	}
}
