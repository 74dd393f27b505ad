package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timewise/backend/internal/timetable"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoClasses    = errors.New("该教师本周没有课程")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// defaultClassLength 无后继节次时的课程时长
const defaultClassLength = time.Hour

// icsNamespace 生成稳定 UID 的命名空间
var icsNamespace = uuid.MustParse("6f0b7a52-3c1e-4c55-9d7e-2b1f9c0d4a11")

// ExportService 导出业务接口
//
// 两种格式均以内存缓冲返回，由 Handler 设置响应头后写出：
//   - 周课表 Excel：行为节次、列为周一至周五
//   - 教师日历 ICS：给定日期所在周内该教师（含代课）的全部课程
type ExportService interface {
	ExportSchedule(ctx context.Context) (*bytes.Buffer, string, error)
	ExportTeacherICS(ctx context.Context, teacher, date string) ([]byte, string, error)
}

type exportService struct {
	store     *timetable.Store
	schedules ScheduleService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(store *timetable.Store, schedules ScheduleService, logger *zap.Logger) ExportService {
	return &exportService{store: store, schedules: schedules, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule 周课表 → Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSchedule(ctx context.Context) (*bytes.Buffer, string, error) {
	current := s.schedules.Current(ctx)
	sched := current.Schedule

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Timetable"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	breakStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Color: "#7F7F7F"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	proxyStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	lastCol := colName(len(timetable.Weekdays))

	// 标题行
	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Weekly Timetable (version %d)", current.Version))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	// 表头
	_ = f.SetCellValue(sheet, cell("A", 2), "Time")
	for i, d := range timetable.Weekdays {
		_ = f.SetCellValue(sheet, cell(colName(i+1), 2), d.String())
	}
	_ = f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", lastCol, 28)

	// 数据行
	row := 3
	for _, ts := range sched.Slots {
		_ = f.SetCellValue(sheet, cell("A", row), ts.Label)
		for i, d := range timetable.Weekdays {
			ref := cell(colName(i+1), row)
			c, ok := ts.At(d)
			switch {
			case !ok:
				_ = f.SetCellValue(sheet, ref, "-")
			case c.IsBreak():
				_ = f.SetCellValue(sheet, ref, timetable.BreakSubject)
				_ = f.SetCellStyle(sheet, ref, ref, breakStyle)
			default:
				_ = f.SetCellValue(sheet, ref, cellText(c))
				style := cellStyle
				if c.IsProxy() {
					style = proxyStyle
				}
				_ = f.SetCellStyle(sheet, ref, ref, style)
			}
		}
		_ = f.SetRowHeight(sheet, row, 48)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("timetable_v%d.xlsx", current.Version), nil
}

// cellText 科目 / 教师（代课注明原教师）/ 教室，逐行排列
func cellText(c *timetable.ClassSlot) string {
	lines := []string{c.Subject}
	if c.Teacher != "" {
		teacher := c.Teacher
		if c.IsProxy() {
			teacher += " (proxy for " + c.OriginalTeacher + ")"
		}
		lines = append(lines, teacher)
	}
	if c.Room != "" {
		lines = append(lines, c.Room)
	}
	return strings.Join(lines, "\n")
}

// ═══════════════════════════════════════════════════════════
// ExportTeacherICS 教师周课表 → iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTeacherICS(ctx context.Context, teacher, date string) ([]byte, string, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" {
		return nil, "", timetable.ErrTeacherRequired
	}

	loc := s.store.Location()
	ref := s.store.Now().In(loc)
	if strings.TrimSpace(date) != "" {
		parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		ref = parsed
	}
	monday := weekStart(ref)

	// 教师课程与节次结束时刻取自同一快照
	sched := s.schedules.Current(ctx).Schedule
	classes := sched.TeacherClasses(teacher)
	if len(classes) == 0 {
		return nil, "", ErrExportNoClasses
	}
	ends := slotEnds(sched)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//TimeWise//Faculty Timetable//EN")
	cal.SetXWRCalName(teacher + " " + monday.Format("2006-01-02"))
	cal.SetXWRTimezone(loc.String())

	stamp := time.Now().UTC()
	for _, tc := range classes {
		day := monday.AddDate(0, 0, int(tc.Day-time.Monday))
		start := tc.Start.On(day)
		end := start.Add(defaultClassLength)
		if next, ok := ends[tc.Label]; ok {
			end = next.On(day)
		}

		key := fmt.Sprintf("%s|%s|%s", teacher, day.Format("2006-01-02"), tc.Label)
		event := cal.AddEvent(uuid.NewSHA1(icsNamespace, []byte(key)).String() + "@timewise")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)

		summary := tc.Slot.Subject
		desc := "Teacher: " + tc.Slot.Teacher
		if tc.Slot.IsProxy() {
			summary += " (Proxy)"
			desc += "\nCovering for: " + tc.Slot.OriginalTeacher
		}
		event.SetSummary(summary)
		event.SetDescription(desc)
		if tc.Slot.Room != "" {
			event.SetLocation(tc.Slot.Room)
		}
	}

	filename := fmt.Sprintf("%s_%s.ics", fileSafe(teacher), monday.Format("20060102"))
	return []byte(cal.Serialize()), filename, nil
}

// weekStart 所在周的周一零点；周日归入前一周
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// slotEnds 以下一节次的开始时刻作为本节次的结束时刻
func slotEnds(s *timetable.Schedule) map[string]timetable.TimeOfDay {
	ends := make(map[string]timetable.TimeOfDay)
	if s == nil {
		return ends
	}
	for i := 0; i+1 < len(s.Slots); i++ {
		cur, next := s.Slots[i], s.Slots[i+1]
		if cur.Start.Before(next.Start) {
			ends[cur.Label] = next.Start
		}
	}
	return ends
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		}
		return -1
	}, name)
}
