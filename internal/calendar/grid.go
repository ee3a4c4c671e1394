package calendar

import (
	"time"

	"ms-calendar/internal/models"
)

// MaxVisibleEvents is how many events a day cell lists before "+N more".
const MaxVisibleEvents = 3

type DayCell struct {
	Date time.Time
	Day  int
	// InMonth is false for filler cells from the neighbouring months.
	InMonth bool
	IsToday bool
	// Events holds at most MaxVisibleEvents; Overflow counts the rest.
	Events   []models.Event
	Overflow int
}

type MonthGrid struct {
	Year  int
	Month time.Month
	Cells []DayCell
}

// Weeks splits the grid into Sunday-first rows of seven.
func (g MonthGrid) Weeks() [][]DayCell {
	weeks := make([][]DayCell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

func BuildMonthGrid(year int, month time.Month, events []models.Event) MonthGrid {
	return BuildMonthGridAt(year, month, events, time.Now())
}

// BuildMonthGridAt lays out month in a Sunday-first grid in now's location.
// Events are bucketed by the local calendar date of their start; only days of
// the month itself carry events.
func BuildMonthGridAt(year int, month time.Month, events []models.Event, now time.Time) MonthGrid {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	daysInMonth := DaysInMonth(year, month)
	firstWeekday := int(first.Weekday())
	total := (firstWeekday + daysInMonth + 6) / 7 * 7

	buckets := make(map[dateKey][]models.Event)
	for _, ev := range events {
		k := keyOf(ev.StartDate.In(loc))
		buckets[k] = append(buckets[k], ev)
	}
	today := keyOf(now)

	cells := make([]DayCell, 0, total)
	for i := 0; i < firstWeekday; i++ {
		cells = append(cells, fillerCell(time.Date(year, month, 1-(firstWeekday-i), 0, 0, 0, 0, loc), today))
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, loc)
		bucket := buckets[keyOf(date)]
		cell := DayCell{
			Date:    date,
			Day:     day,
			InMonth: true,
			IsToday: keyOf(date) == today,
			Events:  []models.Event{},
		}
		if len(bucket) > MaxVisibleEvents {
			cell.Events = append(cell.Events, bucket[:MaxVisibleEvents]...)
			cell.Overflow = len(bucket) - MaxVisibleEvents
		} else {
			cell.Events = append(cell.Events, bucket...)
		}
		cells = append(cells, cell)
	}
	for i := 1; len(cells) < total; i++ {
		cells = append(cells, fillerCell(time.Date(year, month+1, i, 0, 0, 0, 0, loc), today))
	}

	return MonthGrid{Year: year, Month: month, Cells: cells}
}

func fillerCell(date time.Time, today dateKey) DayCell {
	return DayCell{
		Date:    date,
		Day:     date.Day(),
		IsToday: keyOf(date) == today,
		Events:  []models.Event{},
	}
}

// DaysInMonth counts days, including February 29 in leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextMonth and PrevMonth wrap across the year boundary.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}
