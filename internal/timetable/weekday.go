package timetable

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays 课表允许的星期（闭集，周一至周五，按显示顺序）
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
}

// IsSchoolDay 是否为课表中的星期
func IsSchoolDay(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}

// ParseWeekday 将 "Monday" 等星期名解析为 time.Weekday（忽略大小写与首尾空白）
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.TrimSpace(name)
	for _, d := range Weekdays {
		if strings.EqualFold(d.String(), n) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
}
