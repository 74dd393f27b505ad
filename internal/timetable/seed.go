package timetable

import "time"

type seedRow struct {
	label string
	days  map[time.Weekday]ClassSlot
}

var breakRow = map[time.Weekday]ClassSlot{
	time.Monday:    {Subject: BreakSubject},
	time.Tuesday:   {Subject: BreakSubject},
	time.Wednesday: {Subject: BreakSubject},
	time.Thursday:  {Subject: BreakSubject},
	time.Friday:    {Subject: BreakSubject},
}

var defaultRows = []seedRow{
	{"9:00 AM", map[time.Weekday]ClassSlot{
		time.Monday:    {Subject: "Advanced Calculus", Teacher: "Dr. Smith", Room: "Room 201"},
		time.Tuesday:   {Subject: "Quantum Physics", Teacher: "Dr. Evelyn Reed", Room: "Lab 3"},
		time.Wednesday: {Subject: "Quantum Physics", Teacher: "Dr. Evelyn Reed", Room: "Lab 3"},
		time.Thursday:  {Subject: "Data Structures", Teacher: "Prof. Alan Grant", Room: "Room 105"},
		time.Friday:    {Subject: "Advanced Calculus", Teacher: "Dr. Smith", Room: "Room 201"},
	}},
	{"10:00 AM", map[time.Weekday]ClassSlot{
		time.Monday:    {Subject: "Data Structures", Teacher: "Prof. Alan Grant", Room: "Room 105"},
		time.Tuesday:   {Subject: "Organic Chemistry", Teacher: "Dr. Maria Garcia", Room: "Lab 1"},
		time.Wednesday: {Subject: "Advanced Calculus", Teacher: "Dr. Smith", Room: "Room 201"},
		time.Thursday:  {Subject: "Linguistics", Teacher: "Dr. Sarah Chen", Room: "Room 310"},
		time.Friday:    {Subject: "Organic Chemistry", Teacher: "Dr. Maria Garcia", Room: "Lab 1"},
	}},
	{"11:00 AM", map[time.Weekday]ClassSlot{
		time.Monday:    {Subject: "Linguistics", Teacher: "Dr. Sarah Chen", Room: "Room 310"},
		time.Tuesday:   {Subject: "Data Structures", Teacher: "Prof. Alan Grant", Room: "Room 105"},
		time.Wednesday: {Subject: "Organic Chemistry", Teacher: "Dr. Maria Garcia", Room: "Lab 1"},
		time.Thursday:  {Subject: "Quantum Physics", Teacher: "Dr. Evelyn Reed", Room: "Lab 3"},
		time.Friday:    {Subject: "Linguistics", Teacher: "Dr. Sarah Chen", Room: "Room 310"},
	}},
	{"12:00 PM", breakRow},
	{"1:00 PM", map[time.Weekday]ClassSlot{
		time.Monday:    {Subject: "Quantum Physics", Teacher: "Dr. Evelyn Reed", Room: "Lab 3"},
		time.Tuesday:   {Subject: "Advanced Calculus", Teacher: "Dr. Smith", Room: "Room 201"},
		time.Wednesday: {Subject: "Linguistics", Teacher: "Dr. Sarah Chen", Room: "Room 310"},
		time.Thursday:  {Subject: "Organic Chemistry", Teacher: "Dr. Maria Garcia", Room: "Lab 1"},
		time.Friday:    {Subject: "Data Structures", Teacher: "Prof. Alan Grant", Room: "Room 105"},
	}},
	{"2:00 PM", map[time.Weekday]ClassSlot{
		time.Monday:    {Subject: "Research Seminar", Teacher: "Dr. Maria Garcia"},
		time.Wednesday: {Subject: "Research Seminar", Teacher: "Prof. Alan Grant"},
		time.Friday:    {Subject: "Research Seminar", Teacher: "Dr. Evelyn Reed"},
	}},
}

// DefaultSchedule 进程启动时使用的默认周课表
func DefaultSchedule() *Schedule {
	s := NewSchedule()
	for _, row := range defaultRows {
		ts, err := s.AddSlot(row.label)
		if err != nil {
			panic("timetable: 默认课表无效: " + err.Error())
		}
		for day, c := range row.days {
			if err := ts.Set(day, c); err != nil {
				panic("timetable: 默认课表无效: " + err.Error())
			}
		}
	}
	return s
}
