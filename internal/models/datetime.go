package models

import (
	"encoding/json"
	"fmt"
	"time"

	"ms-calendar/internal/utils"
)

// DateTime is a timestamp that accepts both RFC 3339 and the zone-less
// datetime-local form ("2024-01-01T09:00") on input.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) *DateTime {
	return &DateTime{Time: t}
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	t, err := utils.ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339Nano))
}

// TimeOrNil unwraps d for query arguments, keeping nil as SQL NULL.
func (d *DateTime) TimeOrNil() any {
	if d == nil {
		return nil
	}
	return d.Time
}
