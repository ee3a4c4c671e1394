package event_api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"ms-calendar/internal/models"
)

const icsProductID = "-//ms-calendar//calendar export//EN"

// ExportCalendar serves every event as an iCalendar feed.
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(BuildCalendar(events, time.Now()).Serialize())); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to write calendar: %v", err))
	}
}

// BuildCalendar renders events as VEVENTs stamped with now.
func BuildCalendar(events []models.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("ms-calendar")

	for _, ev := range events {
		vevent := cal.AddEvent(EventUID(ev.ID))
		vevent.SetDtStampTime(now.UTC())
		vevent.SetSummary(ev.Title)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		vevent.SetStartAt(ev.StartDate.UTC())
		vevent.SetEndAt(ev.EndDate.UTC())
		if p := icalPriority(ev.Priority); p > 0 {
			vevent.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(p))
		}
		if !ev.CreatedAt.IsZero() {
			vevent.SetCreatedTime(ev.CreatedAt.UTC())
		}
		if !ev.UpdatedAt.IsZero() {
			vevent.SetModifiedAt(ev.UpdatedAt.UTC())
		}
	}
	return cal
}

func EventUID(id int64) string {
	return fmt.Sprintf("event-%d@ms-calendar", id)
}

// icalPriority maps 1 (Low) .. 5 (Critical) onto the RFC 5545 scale where 1
// is highest and 9 lowest. Unknown levels are left undefined (0).
func icalPriority(level int) int {
	if !models.ValidPriority(level) {
		return 0
	}
	return 11 - 2*level
}
