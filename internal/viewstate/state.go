// Package viewstate holds what a calendar front end displays: every event,
// the active priority filter, the month on screen and the last error. It
// reloads the whole collection from the API after each change.
package viewstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/client"
	"ms-calendar/internal/models"
)

// EventAPI is the subset of *client.Client the view state drives.
type EventAPI interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

const (
	msgLoadFailed   = "Failed to load events"
	msgCreateFailed = "Failed to create event"
	msgUpdateFailed = "Failed to update event"
	msgDeleteFailed = "Failed to delete event"
)

// RefreshError means a mutation succeeded but reloading the events afterwards
// failed, so the held events are stale.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "reload after change: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

type State struct {
	api EventAPI

	mu     sync.RWMutex
	events []models.Event
	filter calendar.PriorityFilter
	year   int
	month  time.Month
	errMsg string
}

// New starts on the month containing now with no filter.
func New(api EventAPI, now time.Time) *State {
	return &State{api: api, year: now.Year(), month: now.Month()}
}

// Refresh replaces the held events with the server's. On failure the previous
// events are kept and Err reports a user-facing message.
func (s *State) Refresh(ctx context.Context) error {
	events, err := s.api.ListEvents(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = client.UserMessage(err, msgLoadFailed)
		return err
	}
	s.events = events
	s.errMsg = ""
	return nil
}

func (s *State) Create(ctx context.Context, in models.EventInput) (*models.Event, error) {
	ev, err := s.api.CreateEvent(ctx, in)
	if err != nil {
		s.setErr(client.UserMessage(err, msgCreateFailed))
		return nil, err
	}
	return ev, s.refreshAfterChange(ctx)
}

func (s *State) Update(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	ev, err := s.api.UpdateEvent(ctx, id, in)
	if err != nil {
		s.setErr(client.UserMessage(err, msgUpdateFailed))
		return nil, err
	}
	return ev, s.refreshAfterChange(ctx)
}

func (s *State) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteEvent(ctx, id); err != nil {
		s.setErr(client.UserMessage(err, msgDeleteFailed))
		return err
	}
	return s.refreshAfterChange(ctx)
}

func (s *State) refreshAfterChange(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return &RefreshError{Err: err}
	}
	return nil
}

func (s *State) setErr(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

// Err is the message for the last failed action, or "" after a successful refresh.
func (s *State) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *State) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event(nil), s.events...)
}

// Find looks an event up among the held events.
func (s *State) Find(id int64) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return models.Event{}, false
}

func (s *State) SetFilter(f calendar.PriorityFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

func (s *State) Filter() calendar.PriorityFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *State) ListView() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return calendar.DeriveListView(s.events, s.filter)
}

// MonthGrid lays out the displayed month with the filtered events.
func (s *State) MonthGrid(now time.Time) calendar.MonthGrid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return calendar.BuildMonthGridAt(s.year, s.month, calendar.Filter(s.events, s.filter), now)
}

func (s *State) Month() (int, time.Month) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.year, s.month
}

func (s *State) SetMonth(year int, month time.Month) {
	s.mu.Lock()
	s.year, s.month = year, month
	s.mu.Unlock()
}

func (s *State) NextMonth() {
	s.mu.Lock()
	s.year, s.month = calendar.NextMonth(s.year, s.month)
	s.mu.Unlock()
}

func (s *State) PrevMonth() {
	s.mu.Lock()
	s.year, s.month = calendar.PrevMonth(s.year, s.month)
	s.mu.Unlock()
}

func (s *State) GoToToday(now time.Time) {
	s.SetMonth(now.Year(), now.Month())
}

// Summary reads "Showing N of M events".
func (s *State) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shown := len(calendar.Filter(s.events, s.filter))
	return fmt.Sprintf("Showing %d of %d events", shown, len(s.events))
}
