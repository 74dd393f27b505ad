package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"timewise/backend/internal/dto"
	"timewise/backend/internal/generator"
	"timewise/backend/internal/model"
	"timewise/backend/internal/repository"
	"timewise/backend/internal/timetable"
	pkgerrors "timewise/backend/pkg/errors"
)

// 2026-10-19 为周一
var monday0905 = time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC)

type scheduleDeps struct {
	store    *timetable.Store
	versions *mockVersionRepo
	proxies  *mockProxyRepo
	gen      *mockGenerator
	events   *mockPublisher
}

func newTestStore() *timetable.Store {
	return timetable.NewStore(nil,
		timetable.WithLocation(time.UTC),
		timetable.WithClock(func() time.Time { return monday0905 }),
	)
}

func setupScheduleService() (ScheduleService, *scheduleDeps) {
	deps := &scheduleDeps{
		store:    newTestStore(),
		versions: newMockVersionRepo(),
		proxies:  newMockProxyRepo(),
		gen:      &mockGenerator{result: smallSchedule()},
		events:   &mockPublisher{},
	}
	repo := &repository.Repository{Version: deps.versions, Proxy: deps.proxies}
	svc := NewScheduleService(deps.store, repo, deps.gen, deps.events, zap.NewNop())
	return svc, deps
}

func smallSchedule() *timetable.Schedule {
	s := timetable.NewSchedule()
	ts, _ := s.AddSlot("8:00 AM")
	_ = ts.Set(time.Monday, timetable.ClassSlot{Subject: "Rowing", Teacher: "Coach Kim", Room: "Boathouse"})
	_ = ts.Set(time.Tuesday, timetable.ClassSlot{Subject: "Chess", Teacher: "Dr. Smith"})
	return s
}

func eventTypes(t *testing.T, p *mockPublisher) []string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, raw := range p.payloads {
		var ev ScheduleEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("事件解析失败: %v", err)
		}
		out = append(out, ev.Type)
	}
	return out
}

func proxyReq(original, proxy, start, end string) *dto.AssignProxyRequest {
	return &dto.AssignProxyRequest{OriginalTeacher: original, ProxyTeacher: proxy, StartDate: start, EndDate: end}
}

// ════════════════════════════════════════════════════════════
// Restore
// ════════════════════════════════════════════════════════════

func TestScheduleService_Restore_SeedsWhenEmpty(t *testing.T) {
	svc, deps := setupScheduleService()

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore 失败: %v", err)
	}
	if len(deps.versions.versions) != 1 {
		t.Fatalf("期望写入 1 个种子版本，实际=%d", len(deps.versions.versions))
	}
	seed := deps.versions.versions[0]
	if seed.Version != 1 || seed.Source != model.VersionSourceSeed || seed.CellCount == 0 {
		t.Errorf("种子版本错误: %+v", seed)
	}
	if svc.Version() != 1 {
		t.Errorf("期望版本 1，实际=%d", svc.Version())
	}
}

func TestScheduleService_Restore_LoadsLatest(t *testing.T) {
	svc, deps := setupScheduleService()

	payload, _ := json.Marshal(smallSchedule())
	deps.versions.versions = []model.ScheduleVersion{
		{Version: 3, Source: model.VersionSourceManual, Payload: datatypes.JSON(`{"slots":[{"time":"9:00 AM","days":{"Monday":{"subject":"Old"}}}]}`)},
		{Version: 5, Source: model.VersionSourceProxy, Payload: datatypes.JSON(payload), CellCount: 2},
	}

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore 失败: %v", err)
	}
	if svc.Version() != 5 {
		t.Errorf("期望恢复到版本 5，实际=%d", svc.Version())
	}
	c, ok := svc.Current(context.Background()).Schedule.Cell("8:00 AM", time.Monday)
	if !ok || c.Subject != "Rowing" {
		t.Errorf("恢复后的课表错误: %+v", c)
	}
}

func TestScheduleService_Restore_BadPayload(t *testing.T) {
	svc, deps := setupScheduleService()
	deps.versions.versions = []model.ScheduleVersion{
		{Version: 2, Source: model.VersionSourceManual, Payload: datatypes.JSON(`{"slots":[]}`)},
	}

	if err := svc.Restore(context.Background()); !errors.Is(err, timetable.ErrEmptySchedule) {
		t.Errorf("空 payload 期望 ErrEmptySchedule，实际: %v", err)
	}
	if svc.Version() != 1 {
		t.Errorf("恢复失败时版本不应变化，实际=%d", svc.Version())
	}
}

func TestScheduleService_Restore_WithoutRepository(t *testing.T) {
	svc := NewScheduleService(newTestStore(), nil, nil, nil, zap.NewNop())
	if err := svc.Restore(context.Background()); err != nil {
		t.Errorf("未配置数据库时 Restore 应直接返回，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Publish
// ════════════════════════════════════════════════════════════

func TestScheduleService_Publish(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	resp, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule(), Note: "spring"}, "admin-1")
	if err != nil {
		t.Fatalf("Publish 失败: %v", err)
	}
	if resp.Version != 2 || resp.CellCount != 2 {
		t.Errorf("发布结果错误: %+v", resp)
	}

	latest, _ := deps.versions.Latest(ctx)
	if latest.Version != 2 || latest.Source != model.VersionSourceManual || *latest.PublishedBy != "admin-1" || *latest.Note != "spring" {
		t.Errorf("版本记录错误: %+v", latest)
	}
	if got := eventTypes(t, deps.events); len(got) != 1 || got[0] != EventSchedulePublished {
		t.Errorf("期望 1 个发布事件，实际=%v", got)
	}
	if _, ok := svc.Current(ctx).Schedule.Cell("9:00 AM", time.Monday); ok {
		t.Error("整表替换后旧时间段不应保留")
	}
}

func TestScheduleService_Publish_Rejects(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	if _, err := svc.Publish(ctx, &dto.PublishScheduleRequest{}, "admin-1"); !errors.Is(err, ErrScheduleRequired) {
		t.Errorf("缺少课表期望 ErrScheduleRequired，实际: %v", err)
	}
	if _, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: timetable.NewSchedule()}, "admin-1"); !errors.Is(err, timetable.ErrEmptySchedule) {
		t.Errorf("空课表期望 ErrEmptySchedule，实际: %v", err)
	}
	if svc.Version() != 1 || deps.events.count() != 0 || len(deps.versions.versions) != 0 {
		t.Error("被拒绝的发布不应产生版本或事件")
	}
}

func TestScheduleService_Publish_PersistFailureStillApplies(t *testing.T) {
	svc, deps := setupScheduleService()
	deps.versions.createErr = errMockUpstream
	deps.events.err = errMockUpstream

	resp, err := svc.Publish(context.Background(), &dto.PublishScheduleRequest{Schedule: smallSchedule()}, "admin-1")
	if err != nil {
		t.Fatalf("持久化/广播失败不应影响发布: %v", err)
	}
	if resp.Version != 2 {
		t.Errorf("期望版本 2，实际=%d", resp.Version)
	}
	if _, ok := svc.Current(context.Background()).Schedule.Cell("8:00 AM", time.Monday); !ok {
		t.Error("内存课表应已替换")
	}
}

func TestScheduleService_Publish_Concurrent(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule()}, fmt.Sprintf("admin-%d", i))
			if err != nil {
				t.Errorf("并发发布失败: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if svc.Version() != 11 {
		t.Errorf("期望版本 11，实际=%d", svc.Version())
	}
	if len(deps.versions.versions) != 10 {
		t.Errorf("期望 10 条版本记录且无冲突，实际=%d", len(deps.versions.versions))
	}
}

func TestScheduleService_Publish_AlignsWithStoredVersions(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()
	for v := int64(1); v <= 3; v++ {
		_ = deps.versions.Create(ctx, &model.ScheduleVersion{Version: v, Source: model.VersionSourceManual, Payload: datatypes.JSON(`{}`)})
	}

	// 未执行 Restore，版本号仍需接续数据库
	resp, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule()}, "admin-1")
	if err != nil {
		t.Fatalf("Publish 失败: %v", err)
	}
	if resp.Version != 4 || svc.Version() != 4 {
		t.Errorf("期望版本 4，实际 resp=%d svc=%d", resp.Version, svc.Version())
	}
	if latest, _ := deps.versions.Latest(ctx); latest.Version != 4 || len(deps.versions.versions) != 4 {
		t.Errorf("新版本应写入数据库，实际 latest=%d count=%d", latest.Version, len(deps.versions.versions))
	}
}

func TestScheduleService_Publish_RetriesAfterConcurrentWriter(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()
	if err := svc.Restore(ctx); err != nil {
		t.Fatalf("Restore 失败: %v", err)
	}

	// 其他实例在此期间写入了版本 2、3
	for v := int64(2); v <= 3; v++ {
		_ = deps.versions.Create(ctx, &model.ScheduleVersion{Version: v, Source: model.VersionSourceManual, Payload: datatypes.JSON(`{}`)})
	}

	resp, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule()}, "admin-1")
	if err != nil {
		t.Fatalf("Publish 失败: %v", err)
	}
	if resp.Version != 4 {
		t.Errorf("冲突后应顺延到版本 4，实际=%d", resp.Version)
	}
}

func TestScheduleService_Publish_PersistentConflictRollsBack(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()
	deps.versions.createErr = pkgerrors.ErrVersionConflict

	_, err := svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule()}, "admin-1")
	if !errors.Is(err, pkgerrors.ErrVersionConflict) {
		t.Fatalf("期望 ErrVersionConflict，实际: %v", err)
	}
	if svc.Version() != 1 || deps.events.count() != 0 {
		t.Errorf("冲突时不应推进版本或广播，version=%d events=%d", svc.Version(), deps.events.count())
	}
	if _, ok := svc.Current(ctx).Schedule.Cell("9:00 AM", time.Monday); !ok {
		t.Error("冲突时内存课表应回滚到发布前")
	}

	_, err = svc.AssignProxy(ctx, proxyReq("Dr. Smith", "Dr. Sarah Chen", "2026-10-19", "2026-10-19"), "faculty-1")
	if !errors.Is(err, pkgerrors.ErrVersionConflict) {
		t.Fatalf("代课冲突期望 ErrVersionConflict，实际: %v", err)
	}
	if c, _ := svc.Current(ctx).Schedule.Cell("9:00 AM", time.Monday); c.Teacher != "Dr. Smith" {
		t.Errorf("代课冲突后应回滚，实际教师=%s", c.Teacher)
	}
}

// ════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════

func TestScheduleService_Generate_Preview(t *testing.T) {
	svc, deps := setupScheduleService()

	resp, err := svc.Generate(context.Background(), &dto.GenerateScheduleRequest{
		Subjects:    []string{"Rowing", "Chess"},
		Faculty:     []string{"Coach Kim", "Dr. Smith"},
		Constraints: "no classes before 8",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if resp.Published || resp.Version != 0 || resp.Schedule.CellCount() != 2 {
		t.Errorf("预览结果错误: %+v", resp)
	}
	if svc.Version() != 1 {
		t.Error("预览不应发布")
	}
	if deps.gen.last.Constraints != "no classes before 8" || len(deps.gen.last.Faculty) != 2 {
		t.Errorf("生成请求未正确传递: %+v", deps.gen.last)
	}
}

func TestScheduleService_Generate_AndPublish(t *testing.T) {
	svc, deps := setupScheduleService()

	resp, err := svc.Generate(context.Background(), &dto.GenerateScheduleRequest{
		Subjects: []string{"Rowing"},
		Faculty:  []string{"Coach Kim"},
		Publish:  true,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if !resp.Published || resp.Version != 2 {
		t.Errorf("期望已发布版本 2，实际=%+v", resp)
	}
	latest, _ := deps.versions.Latest(context.Background())
	if latest.Source != model.VersionSourceGenerate {
		t.Errorf("期望来源 generate，实际=%s", latest.Source)
	}
}

func TestScheduleService_Generate_Errors(t *testing.T) {
	svc, deps := setupScheduleService()
	deps.gen.err = generator.ErrGenerationEmpty

	_, err := svc.Generate(context.Background(), &dto.GenerateScheduleRequest{Subjects: []string{"A"}, Faculty: []string{"B"}, Publish: true}, "admin-1")
	if !errors.Is(err, generator.ErrGenerationEmpty) {
		t.Errorf("期望 ErrGenerationEmpty，实际: %v", err)
	}
	if svc.Version() != 1 {
		t.Error("生成失败时不应发布")
	}

	noGen := NewScheduleService(newTestStore(), nil, nil, nil, zap.NewNop())
	if _, err := noGen.Generate(context.Background(), &dto.GenerateScheduleRequest{}, "admin-1"); !errors.Is(err, ErrGeneratorUnavailable) {
		t.Errorf("期望 ErrGeneratorUnavailable，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 代课
// ════════════════════════════════════════════════════════════

func TestScheduleService_AssignProxy(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	resp, err := svc.AssignProxy(ctx, proxyReq(" Dr. Smith ", "Dr. Sarah Chen", "2026-10-19", "2026-10-19"), "faculty-1")
	if err != nil {
		t.Fatalf("AssignProxy 失败: %v", err)
	}
	if resp.Changed != 1 || resp.Version != 2 {
		t.Errorf("期望修改 1 个单元格且版本为 2，实际=%+v", resp)
	}

	rec := deps.proxies.records[0]
	if rec.Action != model.ProxyActionAssign || rec.OriginalTeacher != "Dr. Smith" || *rec.ProxyTeacher != "Dr. Sarah Chen" {
		t.Errorf("审计记录错误: %+v", rec)
	}
	if rec.Version == nil || *rec.Version != 2 || time.Time(*rec.StartDate).Day() != 19 {
		t.Errorf("审计记录版本/日期错误: %+v", rec)
	}
	if got := eventTypes(t, deps.events); len(got) != 1 || got[0] != EventProxyAssigned {
		t.Errorf("期望代课事件，实际=%v", got)
	}

	today := svc.Today(ctx)
	if first := today.Classes[0]; !first.IsProxy || first.Teacher != "Dr. Sarah Chen" || first.OriginalTeacher != "Dr. Smith" {
		t.Errorf("今日课表应体现代课: %+v", first)
	}
}

func TestScheduleService_AssignProxy_NoMatch(t *testing.T) {
	svc, deps := setupScheduleService()

	resp, err := svc.AssignProxy(context.Background(), proxyReq("dr. smith", "Dr. Sarah Chen", "2026-10-19", "2026-10-23"), "faculty-1")
	if err != nil {
		t.Fatalf("无匹配不应报错: %v", err)
	}
	if resp.Changed != 0 || resp.Version != 1 {
		t.Errorf("期望无修改且版本不变，实际=%+v", resp)
	}
	if len(deps.proxies.records) != 1 || deps.proxies.records[0].Version != nil {
		t.Errorf("无匹配仍应记录审计且无版本号: %+v", deps.proxies.records)
	}
	if deps.events.count() != 0 || len(deps.versions.versions) != 0 {
		t.Error("无匹配不应产生事件或版本")
	}
}

func TestScheduleService_AssignProxy_Validation(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *dto.AssignProxyRequest
		want error
	}{
		{"日期格式", proxyReq("Dr. Smith", "Dr. Sarah Chen", "19/10/2026", "2026-10-19"), ErrInvalidDate},
		{"结束日期格式", proxyReq("Dr. Smith", "Dr. Sarah Chen", "2026-10-19", ""), ErrInvalidDate},
		{"日期倒置", proxyReq("Dr. Smith", "Dr. Sarah Chen", "2026-10-23", "2026-10-19"), timetable.ErrInvalidDateRange},
		{"同一教师", proxyReq("Dr. Smith", "Dr. Smith", "2026-10-19", "2026-10-19"), timetable.ErrSameTeacher},
		{"缺少教师", proxyReq(" ", "Dr. Smith", "2026-10-19", "2026-10-19"), timetable.ErrTeacherRequired},
	}
	for _, tt := range tests {
		if _, err := svc.AssignProxy(ctx, tt.req, "faculty-1"); !errors.Is(err, tt.want) {
			t.Errorf("%s: 期望 %v，实际: %v", tt.name, tt.want, err)
		}
	}
	if len(deps.proxies.records) != 0 {
		t.Error("校验失败不应写审计")
	}
}

func TestScheduleService_RevertProxy(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	assigned, err := svc.AssignProxy(ctx, proxyReq("Dr. Smith", "Dr. Sarah Chen", "2026-10-19", "2026-10-23"), "faculty-1")
	if err != nil || assigned.Changed != 4 {
		t.Fatalf("整周代课期望修改 4 个单元格，实际=%+v err=%v", assigned, err)
	}

	reverted, err := svc.RevertProxy(ctx, &dto.RevertProxyRequest{OriginalTeacher: "Dr. Smith"}, "faculty-1")
	if err != nil {
		t.Fatalf("RevertProxy 失败: %v", err)
	}
	if reverted.Changed != 4 || reverted.Version != 3 {
		t.Errorf("期望恢复 4 个单元格且版本为 3，实际=%+v", reverted)
	}
	if c, _ := svc.Current(ctx).Schedule.Cell("9:00 AM", time.Monday); c.Teacher != "Dr. Smith" || c.IsProxy() {
		t.Errorf("撤销后应恢复原教师: %+v", c)
	}

	items, total, err := svc.ListProxies(ctx, &dto.ProxyListRequest{Teacher: "Dr. Smith"})
	if err != nil {
		t.Fatalf("ListProxies 失败: %v", err)
	}
	if total != 2 || items[0].Action != model.ProxyActionRevert || items[1].StartDate == nil || *items[1].StartDate != "2026-10-19" {
		t.Errorf("审计列表错误: %+v", items)
	}
	if got := eventTypes(t, deps.events); len(got) != 2 || got[1] != EventProxyReverted {
		t.Errorf("事件序列错误: %v", got)
	}

	again, _ := svc.RevertProxy(ctx, &dto.RevertProxyRequest{OriginalTeacher: "Dr. Smith"}, "faculty-1")
	if again.Changed != 0 || again.Version != 3 {
		t.Errorf("重复撤销应无修改，实际=%+v", again)
	}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func TestScheduleService_Today(t *testing.T) {
	svc, _ := setupScheduleService()

	resp := svc.Today(context.Background())
	if resp.Date != "2026-10-19" || resp.Weekday != "Monday" || resp.Timezone != "UTC" {
		t.Errorf("日期信息错误: %+v", resp)
	}
	first := resp.Classes[0]
	if first.Subject != "Advanced Calculus" || first.Status != "Ongoing" || first.Room == nil || *first.Room != "Room 201" {
		t.Errorf("首节课错误: %+v", first)
	}
	last := resp.Classes[len(resp.Classes)-1]
	if last.Time != "2:00 PM" || last.Room != nil || last.Status != "Upcoming" {
		t.Errorf("无教室课程 room 应为 null: %+v", last)
	}
}

func TestScheduleService_ToggleAbsence(t *testing.T) {
	svc, deps := setupScheduleService()
	ctx := context.Background()

	resp, err := svc.ToggleAbsence(ctx, &dto.AbsenceToggleRequest{Subject: " Linguistics "}, "faculty-1")
	if err != nil || !resp.Canceled || resp.Subject != "Linguistics" {
		t.Fatalf("ToggleAbsence 结果错误: %+v err=%v", resp, err)
	}
	if got := svc.Absences(ctx).Subjects; len(got) != 1 || got[0] != "Linguistics" {
		t.Errorf("停课集合错误: %v", got)
	}
	if got := eventTypes(t, deps.events); len(got) != 1 || got[0] != EventAbsenceToggled {
		t.Errorf("期望停课事件，实际=%v", got)
	}

	resp, _ = svc.ToggleAbsence(ctx, &dto.AbsenceToggleRequest{Subject: "Linguistics"}, "faculty-1")
	if resp.Canceled {
		t.Error("再次切换应取消停课")
	}
	if _, err := svc.ToggleAbsence(ctx, &dto.AbsenceToggleRequest{Subject: ""}, "faculty-1"); !errors.Is(err, timetable.ErrSubjectRequired) {
		t.Errorf("期望 ErrSubjectRequired，实际: %v", err)
	}
	if svc.Version() != 1 {
		t.Error("停课标记不应产生课表版本")
	}
}

func TestScheduleService_ListVersions(t *testing.T) {
	svc, _ := setupScheduleService()
	ctx := context.Background()

	_ = svc.Restore(ctx)
	for i := 0; i < 3; i++ {
		_, _ = svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule()}, "admin-1")
	}

	req := &dto.VersionListRequest{PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2}}
	items, total, err := svc.ListVersions(ctx, req)
	if err != nil {
		t.Fatalf("ListVersions 失败: %v", err)
	}
	if total != 4 || len(items) != 2 || items[0].Version != 4 || items[1].Version != 3 {
		t.Errorf("分页结果错误: total=%d items=%+v", total, items)
	}
}

func TestScheduleService_GetVersion(t *testing.T) {
	svc, _ := setupScheduleService()
	ctx := context.Background()

	_ = svc.Restore(ctx)
	_, _ = svc.Publish(ctx, &dto.PublishScheduleRequest{Schedule: smallSchedule(), Note: "spring"}, "admin-1")

	seed, err := svc.GetVersion(ctx, 1)
	if err != nil {
		t.Fatalf("GetVersion 失败: %v", err)
	}
	if seed.Source != model.VersionSourceSeed {
		t.Errorf("版本 1 应为种子，实际=%s", seed.Source)
	}
	if c, ok := seed.Schedule.Cell("9:00 AM", time.Monday); !ok || c.Teacher != "Dr. Smith" {
		t.Errorf("种子快照错误: %+v", c)
	}

	second, err := svc.GetVersion(ctx, 2)
	if err != nil || second.Schedule.CellCount() != 2 || *second.Note != "spring" {
		t.Errorf("版本 2 快照错误: %+v err=%v", second, err)
	}

	if _, err := svc.GetVersion(ctx, 9); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("期望 ErrVersionNotFound，实际: %v", err)
	}
}

func TestScheduleService_HistoryUnavailable(t *testing.T) {
	svc := NewScheduleService(newTestStore(), nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	if _, _, err := svc.ListVersions(ctx, &dto.VersionListRequest{}); !errors.Is(err, ErrHistoryUnavailable) {
		t.Errorf("期望 ErrHistoryUnavailable，实际: %v", err)
	}
	if _, _, err := svc.ListProxies(ctx, &dto.ProxyListRequest{}); !errors.Is(err, ErrHistoryUnavailable) {
		t.Errorf("期望 ErrHistoryUnavailable，实际: %v", err)
	}
	if _, err := svc.GetVersion(ctx, 1); !errors.Is(err, ErrHistoryUnavailable) {
		t.Errorf("期望 ErrHistoryUnavailable，实际: %v", err)
	}

	// 无持久化时代课仍然生效
	resp, err := svc.AssignProxy(ctx, proxyReq("Dr. Smith", "Dr. Sarah Chen", "2026-10-19", "2026-10-19"), "")
	if err != nil || resp.Changed != 1 || resp.Version != 2 {
		t.Errorf("无持久化时代课应正常应用: %+v err=%v", resp, err)
	}
}
