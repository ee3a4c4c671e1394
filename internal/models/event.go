package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultPriority is applied on create when the client omits priority.
const DefaultPriority = 1

// EventDuration is the fixed length of every event; end_date is always derived from it.
const EventDuration = time.Hour

// Event is the single persisted calendar item. ID, CreatedAt and UpdatedAt are owned by the store.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	StartDate   time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate     time.Time `bun:"end_date,notnull" json:"end_date"`
	Priority    int       `bun:"priority,notnull,default:1" json:"priority"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// EventInput carries the client-owned fields of an Event on create and update.
//
// Fields are pointers so that an omitted field reaches the store as NULL; the
// store, not this type, decides whether that is acceptable. Update is a full
// replace: an omitted description clears the stored one.
type EventInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartDate   *DateTime `json:"start_date"`
	EndDate     *DateTime `json:"end_date"`
	Priority    *int      `json:"priority,omitempty"`
}

// DeriveEndDate returns the end of an event starting at start.
func DeriveEndDate(start time.Time) time.Time {
	return start.Add(EventDuration)
}

// NewEventInput builds a complete input with end_date derived from start.
func NewEventInput(title, description string, start time.Time, priority int) EventInput {
	in := EventInput{
		Title:     &title,
		StartDate: NewDateTime(start),
		EndDate:   NewDateTime(DeriveEndDate(start)),
		Priority:  &priority,
	}
	if description != "" {
		in.Description = &description
	}
	return in
}

// InputFromEvent copies the editable fields of ev, used to pre-fill an edit.
func InputFromEvent(ev Event) EventInput {
	return NewEventInput(ev.Title, ev.Description, ev.StartDate, ev.Priority)
}
