package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay 一天中的时刻（24 小时制）。
// 时间段标签（如 "9:00 AM"）在构建课表时解析一次，投影计算不再重复解析字符串。
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay 解析时间段标签
//
// 支持两种格式：
//   - 12 小时制: "9:00 AM"、"12:30 PM"、"9:00am"（12 AM → 0 点，12 PM → 12 点）
//   - 24 小时制: "9:00"、"14:00"
func ParseTimeOfDay(label string) (TimeOfDay, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("%w: 标签为空", ErrInvalidTimeLabel)
	}

	clock, meridiem := s, ""
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		clock = strings.TrimSpace(s[:len(s)-2])
		meridiem = upper[len(upper)-2:]
	}

	hourPart, minutePart, ok := strings.Cut(clock, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q 缺少分钟部分", ErrInvalidTimeLabel, label)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q 小时无效", ErrInvalidTimeLabel, label)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q 分钟无效", ErrInvalidTimeLabel, label)
	}

	switch meridiem {
	case "":
		if hour < 0 || hour > 23 {
			return TimeOfDay{}, fmt.Errorf("%w: %q 小时超出 0-23", ErrInvalidTimeLabel, label)
		}
	default:
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, fmt.Errorf("%w: %q 小时超出 1-12", ErrInvalidTimeLabel, label)
		}
		if meridiem == "PM" && hour < 12 {
			hour += 12
		}
		if meridiem == "AM" && hour == 12 {
			hour = 0
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// TimeOfDayOf 提取 t 在其所在时区的时刻
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes 自零点起的分钟数
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before 是否早于 other
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// On 返回 date 当天该时刻的时间点（沿用 date 的时区）
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// String 以 "15:04" 形式输出
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
