package models

import "time"

type ChangeType string

const (
	EventCreated ChangeType = "event.created"
	EventUpdated ChangeType = "event.updated"
	EventDeleted ChangeType = "event.deleted"
)

// EventChange is published on the change feed after a successful mutation.
type EventChange struct {
	Type       ChangeType `json:"type"`
	Event      Event      `json:"event"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewEventChange(t ChangeType, ev Event) EventChange {
	return EventChange{
		Type:       t,
		Event:      ev,
		OccurredAt: time.Now().UTC(),
	}
}
