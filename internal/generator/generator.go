// Package generator 对接外部课表生成服务
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"timewise/backend/internal/timetable"
)

var (
	ErrInvalidRequest   = errors.New("生成请求无效：科目与教师列表不能为空")
	ErrGenerationFailed = errors.New("课表生成失败")
	ErrGenerationEmpty  = errors.New("生成服务返回了空课表")
)

// DefaultTimeSlots 未指定时间段时使用的默认节次，12:00 PM 为午休
var DefaultTimeSlots = []string{"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "1:00 PM", "2:00 PM"}

// Request 课表生成请求
type Request struct {
	Subjects    []string
	Faculty     []string
	TimeSlots   []string
	BreakSlot   string
	Constraints string
}

// Normalize 去除空白项并补全默认节次
func (r Request) Normalize() (Request, error) {
	out := Request{
		Subjects:    compact(r.Subjects),
		Faculty:     compact(r.Faculty),
		TimeSlots:   compact(r.TimeSlots),
		BreakSlot:   strings.TrimSpace(r.BreakSlot),
		Constraints: strings.TrimSpace(r.Constraints),
	}
	if len(out.Subjects) == 0 || len(out.Faculty) == 0 {
		return out, ErrInvalidRequest
	}
	if len(out.TimeSlots) == 0 {
		out.TimeSlots = append([]string(nil), DefaultTimeSlots...)
		if out.BreakSlot == "" {
			out.BreakSlot = "12:00 PM"
		}
	}
	for _, label := range out.TimeSlots {
		if _, err := timetable.ParseTimeOfDay(label); err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return out, nil
}

// Generator 课表生成服务
// 成功时返回非空且通过校验的课表，否则返回 ErrGenerationFailed / ErrGenerationEmpty
type Generator interface {
	Generate(ctx context.Context, req Request) (*timetable.Schedule, error)
}

// ParseSchedule 从模型回复中提取课表 JSON 并校验
func ParseSchedule(raw string) (*timetable.Schedule, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: 回复中未找到 JSON", ErrGenerationFailed)
	}

	var s timetable.Schedule
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if err := s.Validate(); err != nil {
		if errors.Is(err, timetable.ErrEmptySchedule) {
			return nil, ErrGenerationEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &s, nil
}

// Verify 校验生成结果与请求一致：请求的每个节次都存在且周一至周五排满，
// 不出现未请求的节次；非休息单元格的科目与教师必须来自请求列表。
// req 应已经过 Normalize。
func (r Request) Verify(s *timetable.Schedule) error {
	wanted := make(map[timetable.TimeOfDay]string, len(r.TimeSlots))
	for _, label := range r.TimeSlots {
		t, err := timetable.ParseTimeOfDay(label)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		wanted[t] = label
	}
	subjects := toSet(r.Subjects)
	faculty := toSet(r.Faculty)

	seen := make(map[timetable.TimeOfDay]bool, len(s.Slots))
	for _, ts := range s.Slots {
		if _, ok := wanted[ts.Start]; !ok {
			return fmt.Errorf("%w: 出现未请求的节次 %s", ErrGenerationFailed, ts.Label)
		}
		seen[ts.Start] = true

		for _, d := range timetable.Weekdays {
			c, ok := ts.At(d)
			if !ok {
				return fmt.Errorf("%w: %s %s 未排课", ErrGenerationFailed, d, ts.Label)
			}
			if c.IsBreak() {
				continue
			}
			if _, ok := subjects[c.Subject]; !ok {
				return fmt.Errorf("%w: %s %s 出现未请求的科目 %q", ErrGenerationFailed, d, ts.Label, c.Subject)
			}
			if _, ok := faculty[c.Teacher]; !ok {
				return fmt.Errorf("%w: %s %s 出现未请求的教师 %q", ErrGenerationFailed, d, ts.Label, c.Teacher)
			}
		}
	}

	for t, label := range wanted {
		if !seen[t] {
			return fmt.Errorf("%w: 缺少节次 %s", ErrGenerationFailed, label)
		}
	}
	return nil
}

// extractJSON 取出 Markdown 代码块（若有）中第一个 { 到最后一个 } 之间的内容
func extractJSON(raw string) string {
	if i := strings.Index(raw, "```json"); i != -1 {
		raw = raw[i+len("```json"):]
		if j := strings.Index(raw, "```"); j != -1 {
			raw = raw[:j]
		}
	} else if i := strings.Index(raw, "```"); i != -1 {
		raw = raw[i+3:]
		if j := strings.Index(raw, "```"); j != -1 {
			raw = raw[:j]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return ""
	}
	return candidate
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
