package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-calendar/internal/models"
)

// StreamChanges follows /events/stream and calls handle for every change
// until ctx is done or the server ends the stream. priority 0 follows all.
func (c *Client) StreamChanges(ctx context.Context, priority int, handle func(models.EventChange)) error {
	const op = "stream changes"
	endpoint := c.BaseURL + "/events/stream"
	if priority != 0 {
		endpoint = fmt.Sprintf("%s?priority=%d", endpoint, priority)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// same transport, no overall timeout
	hc := &http.Client{Transport: c.HTTPClient.Transport}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return classifyNetwork(op, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(op, endpoint, resp.StatusCode, "")
	}

	var event, data string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if data != "" && strings.HasPrefix(event, "event.") {
				var change models.EventChange
				if err := json.Unmarshal([]byte(data), &change); err != nil {
					return fmt.Errorf("%s: decode change: %w", op, err)
				}
				handle(change)
			}
			event, data = "", ""
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	err = sc.Err()
	if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
