package timetable

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Store 持有当前已发布的周课表与停课标记集合。
//
// 进程启动时构造一次，通过依赖注入传给使用方；RWMutex 保证 Publish 与
// AssignProxy 的读-改-写不会交错，Publish 采用后写覆盖。
type Store struct {
	mu       sync.RWMutex
	schedule *Schedule
	absences map[string]struct{}
	loc      *time.Location
	now      func() time.Time
}

// Option Store 构造选项
type Option func(*Store)

// WithLocation 指定判定"今天"所用的时区
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore 以 seed 初始化；seed 为空时使用内置默认课表
func NewStore(seed *Schedule, opts ...Option) *Store {
	if seed.IsEmpty() {
		seed = DefaultSchedule()
	}
	s := &Store{
		schedule: seed.Clone(),
		absences: make(map[string]struct{}),
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location 返回 Store 使用的时区
func (s *Store) Location() *time.Location {
	return s.loc
}

// Now 返回 Store 时钟在其时区下的当前时间
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Schedule 返回当前课表快照，调用方修改快照不影响 Store
func (s *Store) Schedule() *Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule.Clone()
}

// Publish 整体替换课表，不与旧课表合并。
// 空课表或结构无效时拒绝发布，旧课表保持不变。
func (s *Store) Publish(next *Schedule) error {
	if err := next.Validate(); err != nil {
		return err
	}
	cp := next.Clone()

	s.mu.Lock()
	s.schedule = cp
	s.mu.Unlock()
	return nil
}

// ProxyRequest 代课请求：在 [StartDate, EndDate] 覆盖到的星期内，
// 将 OriginalTeacher 的所有课替换为 ProxyTeacher
type ProxyRequest struct {
	OriginalTeacher string
	ProxyTeacher    string
	StartDate       time.Time
	EndDate         time.Time
}

func (r *ProxyRequest) validate() error {
	r.OriginalTeacher = strings.TrimSpace(r.OriginalTeacher)
	r.ProxyTeacher = strings.TrimSpace(r.ProxyTeacher)
	if r.OriginalTeacher == "" || r.ProxyTeacher == "" {
		return ErrTeacherRequired
	}
	if r.OriginalTeacher == r.ProxyTeacher {
		return ErrSameTeacher
	}
	if dateOf(r.StartDate).After(dateOf(r.EndDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// AssignProxy 应用代课，返回被修改的单元格数。
//
// 匹配规则为教师姓名精确匹配（区分大小写）；休息单元格永不匹配；
// 周末日期不贡献任何星期。无匹配不是错误，返回 0。
// originalTeacher 记录被替换前的教师；链式代课时即上一任代课教师。
func (s *Store) AssignProxy(req ProxyRequest) (int, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}
	days := weekdaysBetween(req.StartDate, req.EndDate)
	if len(days) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, ts := range s.schedule.Slots {
		for _, d := range Weekdays {
			if !days[d] {
				continue
			}
			c, ok := ts.At(d)
			if !ok || c.IsBreak() || c.Teacher != req.OriginalTeacher {
				continue
			}
			c.OriginalTeacher = c.Teacher
			c.Teacher = req.ProxyTeacher
			changed++
		}
	}
	return changed, nil
}

// RevertProxy 撤销某位教师的全部代课，返回恢复的单元格数
func (s *Store) RevertProxy(originalTeacher string) (int, error) {
	name := strings.TrimSpace(originalTeacher)
	if name == "" {
		return 0, ErrTeacherRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, ts := range s.schedule.Slots {
		for _, c := range ts.Days {
			if c == nil || c.OriginalTeacher != name {
				continue
			}
			c.Teacher = c.OriginalTeacher
			c.OriginalTeacher = ""
			restored++
		}
	}
	return restored, nil
}

// ToggleAbsence 切换课程的停课标记，返回切换后是否处于停课状态。
// 仅维护标记集合，不修改课表。
func (s *Store) ToggleAbsence(subject string) (bool, error) {
	name := strings.TrimSpace(subject)
	if name == "" {
		return false, ErrSubjectRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.absences[name]; ok {
		delete(s.absences, name)
		return false, nil
	}
	s.absences[name] = struct{}{}
	return true, nil
}

// Absences 当前停课课程（按名称排序）
func (s *Store) Absences() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.absences))
	for name := range s.absences {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TeacherClass 某位教师在周课表中的一节课
type TeacherClass struct {
	Day   time.Weekday
	Label string
	Start TimeOfDay
	Slot  ClassSlot
}

// TeacherClasses 列出教师（含代课教师）在一周内的所有课，按星期、时间段顺序排列
func (s *Store) TeacherClasses(teacher string) []TeacherClass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule.TeacherClasses(teacher)
}

// TeacherClasses 在给定课表上列出教师的所有课，供调用方对同一快照做多次查询
func (s *Schedule) TeacherClasses(teacher string) []TeacherClass {
	name := strings.TrimSpace(teacher)

	var out []TeacherClass
	for _, d := range Weekdays {
		for _, ts := range s.Slots {
			c, ok := ts.At(d)
			if !ok || c.IsBreak() || c.Teacher != name {
				continue
			}
			out = append(out, TeacherClass{Day: d, Label: ts.Label, Start: ts.Start, Slot: *c})
		}
	}
	return out
}

// ── 日期辅助 ──

// dateOf 截取日历日期，忽略时刻与时区偏移
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekdaysBetween 枚举 [start, end] 内每个日期的星期（仅周一至周五）。
// 满 7 天后星期集合已饱和，提前结束。
func weekdaysBetween(start, end time.Time) map[time.Weekday]bool {
	from, to := dateOf(start), dateOf(end)
	days := make(map[time.Weekday]bool, len(Weekdays))
	for d, n := from, 0; !d.After(to) && n < 7; d, n = d.AddDate(0, 0, 1), n+1 {
		if IsSchoolDay(d.Weekday()) {
			days[d.Weekday()] = true
		}
	}
	return days
}
