package calendar

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ms-calendar/internal/models"
)

// PriorityFilter selects events by exact priority; FilterAll selects everything.
type PriorityFilter int

const FilterAll PriorityFilter = 0

// ParsePriorityFilter accepts "all" (or "") and the levels "1".."5".
func ParsePriorityFilter(s string) (PriorityFilter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return FilterAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !models.ValidPriority(n) {
		return FilterAll, fmt.Errorf("invalid priority filter %q: want all or 1-5", s)
	}
	return PriorityFilter(n), nil
}

func (f PriorityFilter) String() string {
	if f == FilterAll {
		return "all"
	}
	return strconv.Itoa(int(f))
}

func (f PriorityFilter) Match(ev models.Event) bool {
	return f == FilterAll || ev.Priority == int(f)
}

// Filter returns the events f selects, in input order.
func Filter(events []models.Event, f PriorityFilter) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// DeriveListView filters events and orders them by priority descending, then
// start date ascending. Ties keep their input order. events is not modified.
func DeriveListView(events []models.Event, f PriorityFilter) []models.Event {
	out := Filter(events, f)
	slices.SortStableFunc(out, func(a, b models.Event) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return a.StartDate.Compare(b.StartDate)
	})
	return out
}
