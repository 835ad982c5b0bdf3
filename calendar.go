package main

import "time"

// calendarGridCells is 6 weeks of 7 days; every month fits.
const calendarGridCells = 42

// calendarCell is one day of the month grid.
type calendarCell struct {
	Date           DateOnly         `json:"date"`
	IsCurrentMonth bool             `json:"is_current_month"`
	Sessions       []workoutSession `json:"sessions"`
}

// buildMonthGrid lays sessions out on a Sunday-first 6x7 grid for the month.
// The grid starts on the Sunday on or before the 1st and is padded with days
// of the neighbouring months. Sessions are matched on their start date in loc.
// Cells are built at noon so zones whose DST shift skips midnight keep every date.
func buildMonthGrid(year int, month time.Month, loc *time.Location, sessions []workoutSession) []calendarCell {
	if loc == nil {
		loc = time.UTC
	}
	offset := int(time.Date(year, month, 1, 12, 0, 0, 0, loc).Weekday())

	cells := make([]calendarCell, calendarGridCells)
	byDate := make(map[string]int, calendarGridCells)
	for i := range cells {
		d := time.Date(year, month, 1-offset+i, 12, 0, 0, 0, loc)
		cells[i] = calendarCell{
			Date:           DateOnly{d},
			IsCurrentMonth: d.Month() == month,
			Sessions:       []workoutSession{},
		}
		byDate[d.Format("2006-01-02")] = i
	}

	for _, s := range sessions {
		if i, ok := byDate[s.StartTime.In(loc).Format("2006-01-02")]; ok {
			cells[i].Sessions = append(cells[i].Sessions, s)
		}
	}
	return cells
}

// startOfDay returns the first instant of the given date in loc. Where a DST
// shift skips local midnight, that is the moment the shift happens.
func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	want := time.Date(year, month, day, 12, 0, 0, 0, loc).Format("2006-01-02")
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	for t.Format("2006-01-02") != want {
		t = t.Add(15 * time.Minute)
	}
	return t
}
