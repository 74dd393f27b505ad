package timetable

import "time"

// Status 今日课程状态
type Status string

const (
	StatusOngoing  Status = "Ongoing"
	StatusUpcoming Status = "Upcoming"
)

// AnnotatedClass 今日课表中的一节课
//
// 只有开始时刻，没有结束时刻：开始后一直为 Ongoing 直到当天结束。
// Room 为空表示教室未知，不做任何填充。
type AnnotatedClass struct {
	Time            string
	Start           TimeOfDay
	Subject         string
	Teacher         string
	OriginalTeacher string
	Room            string
	Status          Status
	IsProxy         bool
	Canceled        bool
}

// Today 按 Store 时钟计算今日课表
func (s *Store) Today() []AnnotatedClass {
	return s.ScheduleFor(s.now())
}

// ScheduleFor 计算 now 所在日期的课表投影，每次调用都基于当前课表重新计算
func (s *Store) ScheduleFor(now time.Time) []AnnotatedClass {
	now = now.In(s.loc)
	day := now.Weekday()
	if !IsSchoolDay(day) {
		return []AnnotatedClass{}
	}
	current := TimeOfDayOf(now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AnnotatedClass, 0, len(s.schedule.Slots))
	for _, ts := range s.schedule.Slots {
		c, ok := ts.At(day)
		if !ok || c.IsBreak() {
			continue
		}

		status := StatusUpcoming
		if !current.Before(ts.Start) {
			status = StatusOngoing
		}
		_, canceled := s.absences[c.Subject]

		out = append(out, AnnotatedClass{
			Time:            ts.Label,
			Start:           ts.Start,
			Subject:         c.Subject,
			Teacher:         c.Teacher,
			OriginalTeacher: c.OriginalTeacher,
			Room:            c.Room,
			Status:          status,
			IsProxy:         c.IsProxy(),
			Canceled:        canceled,
		})
	}
	return out
}
