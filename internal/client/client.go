// Package client is the typed HTTP adapter for the events API. Calls mirror
// the store operations one to one and are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

const (
	DefaultBaseURL = "http://localhost:3001/api"
	DefaultTimeout = 10 * time.Second
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, "list events", http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) ListEventsByPriority(ctx context.Context, priority int) ([]models.Event, error) {
	var events []models.Event
	path := fmt.Sprintf("/events/priority/%d", priority)
	if err := c.do(ctx, "list events by priority", http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var ev models.Event
	if err := c.do(ctx, "get event", http.MethodGet, fmt.Sprintf("/events/%d", id), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent fills end_date from start_date when the caller left it unset.
func (c *Client) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	var ev models.Event
	if err := c.do(ctx, "create event", http.MethodPost, "/events", withEndDate(in), &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	var ev models.Event
	if err := c.do(ctx, "update event", http.MethodPut, fmt.Sprintf("/events/%d", id), withEndDate(in), &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	var msg utils.MessageResponse
	return c.do(ctx, "delete event", http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, &msg)
}

// ExportICS fetches the iCalendar rendering of every event.
func (c *Client) ExportICS(ctx context.Context) ([]byte, error) {
	var body []byte
	if err := c.do(ctx, "export calendar", http.MethodGet, "/calendar.ics", nil, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func withEndDate(in models.EventInput) models.EventInput {
	if in.EndDate == nil && in.StartDate != nil {
		in.EndDate = models.NewDateTime(models.DeriveEndDate(in.StartDate.Time))
	}
	return in
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	endpoint := c.BaseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classifyNetwork(op, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr utils.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr)
		return classifyStatus(op, endpoint, resp.StatusCode, apiErr.Error)
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read response: %w", op, err)
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
