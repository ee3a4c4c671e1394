package service

import (
	"context"
	"errors"
	"fmt"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type EventDBLayer interface {
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByPriority(ctx context.Context, priority int) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Insert(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateByID(ctx context.Context, id int64, in models.EventInput) (*models.Event, error)
	DeleteByID(ctx context.Context, id int64) (*models.Event, error)
	Ping(ctx context.Context) error
}

// ChangePublisher receives every successful mutation. The Kafka producer and
// the SSE emitter implement it; nil disables the feed.
type ChangePublisher interface {
	PublishEventChange(ctx context.Context, change models.EventChange) error
}

type EventService struct {
	DB        EventDBLayer
	Publisher ChangePublisher
	Logger    *logger.Logger
}

func NewEventService(db EventDBLayer, publisher ChangePublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Publisher: publisher, Logger: log}
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.Logger.LogDatabase("SELECT", "events", fmt.Sprintf("%d rows", len(events)))
	return events, nil
}

func (s *EventService) ListEventsByPriority(ctx context.Context, priority int) ([]models.Event, error) {
	events, err := s.DB.ListByPriority(ctx, priority)
	if err != nil {
		return nil, fmt.Errorf("list events with priority %d: %w", priority, err)
	}
	s.Logger.LogDatabase("SELECT", "events", fmt.Sprintf("priority=%d, %d rows", priority, len(events)))
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return ev, nil
}

// CreateEvent stores in, defaulting priority to DefaultPriority when omitted.
// Other fields are passed through unchecked.
func (s *EventService) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	if in.Priority == nil {
		p := models.DefaultPriority
		in.Priority = &p
	}

	ev, err := s.DB.Insert(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("id=%d", ev.ID))
	s.publish(ctx, models.EventCreated, *ev)
	return ev, nil
}

// UpdateEvent replaces all client-owned fields of the event.
func (s *EventService) UpdateEvent(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	ev, err := s.DB.UpdateByID(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}
	s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("id=%d", ev.ID))
	s.publish(ctx, models.EventUpdated, *ev)
	return ev, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := s.DB.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete event %d: %w", id, err)
	}
	s.Logger.LogDatabase("DELETE", "events", fmt.Sprintf("id=%d", ev.ID))
	s.publish(ctx, models.EventDeleted, *ev)
	return ev, nil
}

func (s *EventService) Healthy(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *EventService) publish(ctx context.Context, t models.ChangeType, ev models.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishEventChange(ctx, models.NewEventChange(t, ev)); err != nil {
		s.Logger.Warn("CHANGES", fmt.Sprintf("Failed to publish %s for event %d: %v", t, ev.ID, err))
	}
}

// FanOut publishes every change to each of its publishers in order.
type FanOut []ChangePublisher

func (f FanOut) PublishEventChange(ctx context.Context, change models.EventChange) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishEventChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
