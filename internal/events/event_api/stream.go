package event_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-calendar/internal/models"
	"ms-calendar/internal/sse"
)

// ChangeSource hands out live change subscriptions.
type ChangeSource interface {
	Subscribe(ctx context.Context, priority int) <-chan models.EventChange
}

var heartbeatInterval = 25 * time.Second

// StreamChanges serves the change feed as Server-Sent Events. An optional
// ?priority=N limits the stream to events of that priority.
func (h *Handler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	priority := sse.AllPriorities
	if raw := r.URL.Query().Get("priority"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid priority")
			return
		}
		priority = p
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// the server's write timeout would cut long-lived streams
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	changes := h.Changes.Subscribe(ctx, priority)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"priority\":%d}\n\n", priority)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to change stream (priority=%d)", priority))

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Type, data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from change stream")
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
