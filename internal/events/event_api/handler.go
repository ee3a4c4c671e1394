package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

// EventService is what the handlers need from the service layer.
type EventService interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByPriority(ctx context.Context, priority int) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) (*models.Event, error)
	Healthy(ctx context.Context) error
}

type Handler struct {
	EventService EventService
	// Changes backs /events/stream; nil leaves the route unmounted.
	Changes ChangeSource
	Logger  *logger.Logger
}

func NewHandler(svc EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: svc, Logger: log}
}

// RegisterRoutes mounts the event routes; the caller decides the prefix (/api).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		if h.Changes != nil {
			r.Get("/stream", h.StreamChanges)
		}
		r.Get("/priority/{priority}", h.ListEventsByPriority)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
	r.Get("/calendar.ics", h.ExportCalendar)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, events)
}

func (h *Handler) ListEventsByPriority(w http.ResponseWriter, r *http.Request) {
	priority, err := strconv.Atoi(chi.URLParam(r, "priority"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid priority")
		return
	}

	events, err := h.EventService.ListEventsByPriority(r.Context(), priority)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	ev, err := h.EventService.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, ev)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if !h.decode(w, r, &in) {
		return
	}

	ev, err := h.EventService.CreateEvent(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	var in models.EventInput
	if !h.decode(w, r, &in) {
		return
	}

	ev, err := h.EventService.UpdateEvent(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, ev)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	if _, err := h.EventService.DeleteEvent(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := utils.WriteMessage(w, http.StatusOK, "Event deleted successfully"); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to write response: %v", err))
	}
}

// Health reports whether the database pool answers a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.Healthy(r.Context()); err != nil {
		h.Logger.Warn("HEALTH", err.Error())
		h.respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// eventID parses the {id} path parameter. A non-numeric id cannot name an
// event, so it gets the same 404 as a missing one.
func (h *Handler) eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Event not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, in *models.EventInput) bool {
	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		h.Logger.Warn("HTTP", fmt.Sprintf("%s %s: invalid body: %v", r.Method, r.URL.Path, err))
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// fail maps service errors to responses. Anything other than not-found is
// logged in full and reported to the client generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrEventNotFound) {
		h.respondError(w, http.StatusNotFound, "Event not found")
		return
	}
	h.Logger.Error("HTTP", fmt.Sprintf("%s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err))
	h.respondError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) respond(w http.ResponseWriter, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to write response: %v", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	if err := utils.WriteError(w, status, message); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to write response: %v", err))
	}
}
