package calendar

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-calendar/internal/models"
)

func ev(id int64, priority int, start time.Time) models.Event {
	return models.Event{ID: id, Title: "e", Priority: priority, StartDate: start, EndDate: models.DeriveEndDate(start)}
}

func randomEvents(r *rand.Rand, n int) []models.Event {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Event, n)
	for i := range out {
		// few distinct start times so ties actually happen
		out[i] = ev(int64(i+1), r.Intn(5)+1, base.Add(time.Duration(r.Intn(4))*time.Hour))
	}
	return out
}

func TestDeriveListViewFilters(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	events := randomEvents(r, 60)

	for _, f := range []PriorityFilter{FilterAll, 1, 2, 3, 4, 5} {
		view := DeriveListView(events, f)
		filteredOut := 0
		for _, e := range events {
			if !f.Match(e) {
				filteredOut++
			}
		}
		assert.Equal(t, len(events), len(view)+filteredOut, "filter %s", f)
		for _, e := range view {
			if f != FilterAll {
				assert.Equal(t, int(f), e.Priority)
			}
		}
	}
}

func TestDeriveListViewOrder(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	events := randomEvents(r, 80)
	position := make(map[int64]int, len(events))
	for i, e := range events {
		position[e.ID] = i
	}

	view := DeriveListView(events, FilterAll)
	require.Len(t, view, len(events))
	for i := 1; i < len(view); i++ {
		a, b := view[i-1], view[i]
		ordered := a.Priority > b.Priority ||
			(a.Priority == b.Priority && !a.StartDate.After(b.StartDate))
		require.True(t, ordered, "pair %d out of order", i)
		if a.Priority == b.Priority && a.StartDate.Equal(b.StartDate) {
			assert.Less(t, position[a.ID], position[b.ID], "tie not stable")
		}
	}
}

func TestDeriveListViewDoesNotMutateInput(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	events := []models.Event{ev(1, 1, base), ev(2, 5, base), ev(3, 3, base)}
	before := append([]models.Event(nil), events...)

	view := DeriveListView(events, FilterAll)
	assert.Equal(t, before, events)
	assert.Equal(t, []int64{2, 3, 1}, []int64{view[0].ID, view[1].ID, view[2].ID})
}

func TestParsePriorityFilter(t *testing.T) {
	f, err := ParsePriorityFilter("all")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParsePriorityFilter(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, PriorityFilter(4), f)

	for _, bad := range []string{"0", "6", "high"} {
		_, err := ParsePriorityFilter(bad)
		assert.Error(t, err, bad)
	}
}

func TestMonthGridShape(t *testing.T) {
	now := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for year := 1999; year <= 2030; year += 7 {
		for m := time.January; m <= time.December; m++ {
			grid := BuildMonthGridAt(year, m, nil, now)
			require.NotEmpty(t, grid.Cells)
			assert.Zero(t, len(grid.Cells)%7, "%d-%02d", year, m)

			first := int(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Weekday())
			want := (first + DaysInMonth(year, m) + 6) / 7 * 7
			assert.Len(t, grid.Cells, want)

			for i := 0; i < first; i++ {
				assert.False(t, grid.Cells[i].InMonth)
			}
			firstDay := grid.Cells[first]
			assert.True(t, firstDay.InMonth)
			assert.Equal(t, 1, firstDay.Day)
			assert.Equal(t, time.Sunday, grid.Cells[0].Date.Weekday())
			assert.Len(t, grid.Weeks(), len(grid.Cells)/7)
		}
	}
}

func inMonthCount(g MonthGrid) int {
	n := 0
	for _, c := range g.Cells {
		if c.InMonth {
			n++
		}
	}
	return n
}

func TestMonthGridFebruary(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 29, inMonthCount(BuildMonthGridAt(2024, time.February, nil, now)))
	assert.Equal(t, 28, inMonthCount(BuildMonthGridAt(2023, time.February, nil, now)))
}

func TestMonthGridFillers(t *testing.T) {
	// March 2024 starts on a Friday and has 31 days: 5 leading, 6 trailing.
	grid := BuildMonthGridAt(2024, time.March, nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, grid.Cells, 42)

	leading := []int{25, 26, 27, 28, 29}
	for i, day := range leading {
		assert.Equal(t, day, grid.Cells[i].Day)
		assert.Equal(t, time.February, grid.Cells[i].Date.Month())
	}
	for i := 0; i < 6; i++ {
		c := grid.Cells[36+i]
		assert.False(t, c.InMonth)
		assert.Equal(t, i+1, c.Day)
		assert.Equal(t, time.April, c.Date.Month())
	}
}

func TestMonthGridBucketsByLocalDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	target := ev(1, 3, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	other := ev(2, 1, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))

	grid := BuildMonthGridAt(2024, time.March, []models.Event{target, other}, now)
	hits := 0
	for _, c := range grid.Cells {
		for _, e := range c.Events {
			if e.ID == target.ID {
				hits++
				assert.Equal(t, 15, c.Day)
				assert.Equal(t, time.March, c.Date.Month())
			}
		}
	}
	assert.Equal(t, 1, hits)
}

func TestMonthGridUsesLocationOfNow(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, tokyo)
	late := ev(1, 2, time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)) // Mar 16 05:00 JST

	grid := BuildMonthGridAt(2024, time.March, []models.Event{late}, now)
	for _, c := range grid.Cells {
		if len(c.Events) > 0 {
			assert.Equal(t, 16, c.Day)
		}
	}
}

func TestMonthGridOverflowAndToday(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	day := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	events := []models.Event{ev(1, 1, day), ev(2, 2, day), ev(3, 3, day), ev(4, 4, day), ev(5, 5, day)}

	grid := BuildMonthGridAt(2024, time.March, events, now)
	todays := 0
	for _, c := range grid.Cells {
		if c.IsToday {
			todays++
			assert.Equal(t, 15, c.Day)
			assert.Len(t, c.Events, MaxVisibleEvents)
			assert.Equal(t, 2, c.Overflow)
		} else {
			assert.Empty(t, c.Events)
			assert.Zero(t, c.Overflow)
		}
	}
	assert.Equal(t, 1, todays)
}

func TestFillerCellsCarryNoEvents(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb29 := ev(1, 1, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC))

	grid := BuildMonthGridAt(2024, time.March, []models.Event{feb29}, now)
	for _, c := range grid.Cells {
		assert.Empty(t, c.Events)
	}
}

func TestMonthNavigationWraps(t *testing.T) {
	y, m := NextMonth(2024, time.December)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.January, m)

	y, m = PrevMonth(2024, time.January)
	assert.Equal(t, 2023, y)
	assert.Equal(t, time.December, m)

	y, m = NextMonth(-44, time.March)
	assert.Equal(t, -44, y)
	assert.Equal(t, time.April, m)

	y, m = PrevMonth(100000, time.January)
	assert.Equal(t, 99999, y)
	assert.Equal(t, time.December, m)
}
