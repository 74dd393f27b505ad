package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ── 课表模块错误 ──

var (
	ErrEmptySchedule    = errors.New("课表为空")
	ErrInvalidSchedule  = errors.New("课表格式无效")
	ErrInvalidTimeLabel = errors.New("时间段标签无效")
	ErrUnknownWeekday   = errors.New("未知的星期")
	ErrDuplicateSlot    = errors.New("时间段重复")
	ErrInvalidDateRange = errors.New("开始日期晚于结束日期")
	ErrTeacherRequired  = errors.New("教师姓名不能为空")
	ErrSameTeacher      = errors.New("代课教师与原教师相同")
	ErrSubjectRequired  = errors.New("课程名称不能为空")
)

// BreakSubject 课间休息的课程名
const BreakSubject = "Break"

// ClassSlot 课表中一个 (时间段, 星期) 单元格
// 可选字段以空字符串表示缺省
type ClassSlot struct {
	Subject         string `json:"subject"`
	Teacher         string `json:"teacher,omitempty"`
	OriginalTeacher string `json:"original_teacher,omitempty"` // 仅在代课后设置
	Room            string `json:"room,omitempty"`
}

// IsBreak 是否为课间休息
func (c *ClassSlot) IsBreak() bool {
	return strings.EqualFold(strings.TrimSpace(c.Subject), BreakSubject)
}

// IsProxy 是否已被代课
func (c *ClassSlot) IsProxy() bool {
	return c.OriginalTeacher != ""
}

// normalized 休息单元格不携带教师与教室
func (c ClassSlot) normalized() ClassSlot {
	c.Subject = strings.TrimSpace(c.Subject)
	if c.IsBreak() {
		c.Subject = BreakSubject
		c.Teacher = ""
		c.OriginalTeacher = ""
		c.Room = ""
	}
	return c
}

// TimeSlot 一个时间段行：标签 + 解析后的起始时刻 + 周一至周五的单元格
type TimeSlot struct {
	Label string
	Start TimeOfDay
	Days  map[time.Weekday]*ClassSlot
}

// NewTimeSlot 创建时间段，标签在此处一次性解析
func NewTimeSlot(label string) (*TimeSlot, error) {
	start, err := ParseTimeOfDay(label)
	if err != nil {
		return nil, err
	}
	return &TimeSlot{
		Label: strings.TrimSpace(label),
		Start: start,
		Days:  make(map[time.Weekday]*ClassSlot, len(Weekdays)),
	}, nil
}

// Set 设置某一天的单元格
func (ts *TimeSlot) Set(day time.Weekday, slot ClassSlot) error {
	if !IsSchoolDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownWeekday, day)
	}
	n := slot.normalized()
	ts.Days[day] = &n
	return nil
}

// At 获取某一天的单元格
func (ts *TimeSlot) At(day time.Weekday) (*ClassSlot, bool) {
	c, ok := ts.Days[day]
	return c, ok && c != nil
}

func (ts *TimeSlot) clone() *TimeSlot {
	out := &TimeSlot{
		Label: ts.Label,
		Start: ts.Start,
		Days:  make(map[time.Weekday]*ClassSlot, len(ts.Days)),
	}
	for d, c := range ts.Days {
		if c == nil {
			continue
		}
		cp := *c
		out.Days[d] = &cp
	}
	return out
}

// Schedule 周课表：按插入顺序（即显示顺序）排列的时间段
type Schedule struct {
	Slots []*TimeSlot
}

// NewSchedule 创建空课表
func NewSchedule() *Schedule {
	return &Schedule{}
}

// AddSlot 追加时间段；标签重复时返回 ErrDuplicateSlot
func (s *Schedule) AddSlot(label string) (*TimeSlot, error) {
	ts, err := NewTimeSlot(label)
	if err != nil {
		return nil, err
	}
	if s.Slot(ts.Label) != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateSlot, ts.Label)
	}
	s.Slots = append(s.Slots, ts)
	return ts, nil
}

// Slot 按标签查找时间段
func (s *Schedule) Slot(label string) *TimeSlot {
	label = strings.TrimSpace(label)
	for _, ts := range s.Slots {
		if ts.Label == label {
			return ts
		}
	}
	return nil
}

// Cell 查找 (时间段, 星期) 单元格
func (s *Schedule) Cell(label string, day time.Weekday) (*ClassSlot, bool) {
	ts := s.Slot(label)
	if ts == nil {
		return nil, false
	}
	return ts.At(day)
}

// CellCount 非空单元格数
func (s *Schedule) CellCount() int {
	n := 0
	for _, ts := range s.Slots {
		for _, c := range ts.Days {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// IsEmpty 没有任何单元格即视为空
func (s *Schedule) IsEmpty() bool {
	return s == nil || s.CellCount() == 0
}

// Validate 校验结构完整性
func (s *Schedule) Validate() error {
	if s.IsEmpty() {
		return ErrEmptySchedule
	}
	seen := make(map[string]bool, len(s.Slots))
	for _, ts := range s.Slots {
		if ts == nil {
			return fmt.Errorf("%w: 存在空时间段", ErrInvalidSchedule)
		}
		start, err := ParseTimeOfDay(ts.Label)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
		if start != ts.Start {
			return fmt.Errorf("%w: 时间段 %q 的起始时刻与标签不一致", ErrInvalidSchedule, ts.Label)
		}
		if seen[ts.Label] {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSchedule, ErrDuplicateSlot, ts.Label)
		}
		seen[ts.Label] = true
		for d, c := range ts.Days {
			if !IsSchoolDay(d) {
				return fmt.Errorf("%w: %w: %s", ErrInvalidSchedule, ErrUnknownWeekday, d)
			}
			if c != nil && strings.TrimSpace(c.Subject) == "" {
				return fmt.Errorf("%w: %s %s %w", ErrInvalidSchedule, ts.Label, d, ErrSubjectRequired)
			}
		}
	}
	return nil
}

// Clone 深拷贝
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := &Schedule{Slots: make([]*TimeSlot, 0, len(s.Slots))}
	for _, ts := range s.Slots {
		out.Slots = append(out.Slots, ts.clone())
	}
	return out
}

// ── JSON 编解码 ──
//
// 线上格式保持时间段顺序：
//   {"slots":[{"time":"9:00 AM","days":{"Monday":{"subject":"...","teacher":"..."}}}]}

type timeSlotJSON struct {
	Time string                `json:"time"`
	Days map[string]*ClassSlot `json:"days"`
}

type scheduleJSON struct {
	Slots []timeSlotJSON `json:"slots"`
}

// MarshalJSON 实现 json.Marshaler
func (s *Schedule) MarshalJSON() ([]byte, error) {
	out := scheduleJSON{Slots: make([]timeSlotJSON, 0, len(s.Slots))}
	for _, ts := range s.Slots {
		days := make(map[string]*ClassSlot, len(ts.Days))
		for d, c := range ts.Days {
			if c != nil {
				days[d.String()] = c
			}
		}
		out.Slots = append(out.Slots, timeSlotJSON{Time: ts.Label, Days: days})
	}
	return json.Marshal(out)
}

// UnmarshalJSON 实现 json.Unmarshaler，时间标签与星期在此解析
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw scheduleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	parsed, err := fromRows(raw.Slots)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// fromRows 由线上格式的行构建课表
func fromRows(rows []timeSlotJSON) (*Schedule, error) {
	out := NewSchedule()
	for _, row := range rows {
		ts, err := out.AddSlot(row.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
		for name, c := range row.Days {
			if c == nil {
				continue
			}
			day, err := ParseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
			}
			if err := ts.Set(day, *c); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
			}
		}
	}
	return out, nil
}
