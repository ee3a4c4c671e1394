package event_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-calendar/internal/events/db"
	"ms-calendar/internal/events/event_api"
	"ms-calendar/internal/events/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/testutil"
)

func newRouter(t *testing.T, svc event_api.EventService, logs io.Writer) http.Handler {
	t.Helper()
	h := event_api.NewHandler(svc, logger.NewConsoleLogger(logs, logger.DEBUG))
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Route("/api", h.RegisterRoutes)
	return r
}

func newTestServer(t *testing.T) http.Handler {
	store := db.New(testutil.NewSQLiteDB(t), 5*time.Second)
	log := logger.NewConsoleLogger(io.Discard, logger.DEBUG)
	return newRouter(t, service.NewEventService(store, nil, log), io.Discard)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) models.Event {
	t.Helper()
	var ev models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestCreateAndGetEvent(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/events",
		`{"title":"A","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T10:00:00Z","priority":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeEvent(t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 3, created.Priority)

	rec = do(t, srv, http.MethodGet, "/api/events/"+jsonID(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeEvent(t, rec)
	assert.Equal(t, "A", got.Title)
	assert.True(t, got.EndDate.Equal(got.StartDate.Add(time.Hour)))
	assert.True(t, got.StartDate.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
}

func TestCreateEventDefaultsPriority(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/events",
		`{"title":"B","start_date":"2024-02-01T09:00:00Z","end_date":"2024-02-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.DefaultPriority, decodeEvent(t, rec).Priority)
}

func TestCreateEventMissingTitleIs500(t *testing.T) {
	var logs bytes.Buffer
	store := db.New(testutil.NewSQLiteDB(t), 5*time.Second)
	srv := newRouter(t, service.NewEventService(store, nil, logger.NewConsoleLogger(io.Discard, logger.DEBUG)), &logs)

	rec := do(t, srv, http.MethodPost, "/api/events",
		`{"start_date":"2024-02-01T09:00:00Z","end_date":"2024-02-01T10:00:00Z"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorBody(t, rec))
	assert.Contains(t, logs.String(), "insert event")
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/events", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", errorBody(t, rec))

	rec = do(t, srv, http.MethodPost, "/api/events", `{"title":"x","start_date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEventsEmptyIsArray(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListEventsByPriority(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{
		`{"title":"low","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T10:00:00Z","priority":1}`,
		`{"title":"crit","start_date":"2024-01-02T09:00:00Z","end_date":"2024-01-02T10:00:00Z","priority":5}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/events", body).Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/events/priority/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "crit", events[0].Title)

	rec = do(t, srv, http.MethodGet, "/api/events/priority/high", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid priority", errorBody(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/events", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 2)
}

func TestUpdateEvent(t *testing.T) {
	srv := newTestServer(t)

	created := decodeEvent(t, do(t, srv, http.MethodPost, "/api/events",
		`{"title":"old","description":"d","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T10:00:00Z","priority":2}`))

	rec := do(t, srv, http.MethodPut, "/api/events/"+jsonID(created.ID),
		`{"title":"new","start_date":"2024-01-05T13:00:00Z","end_date":"2024-01-05T14:00:00Z","priority":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEvent(t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "new", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Equal(t, 4, updated.Priority)

	rec = do(t, srv, http.MethodPut, "/api/events/999",
		`{"title":"new","start_date":"2024-01-05T13:00:00Z","end_date":"2024-01-05T14:00:00Z","priority":4}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Event not found", errorBody(t, rec))
}

func TestDeleteEvent(t *testing.T) {
	srv := newTestServer(t)

	created := decodeEvent(t, do(t, srv, http.MethodPost, "/api/events",
		`{"title":"gone","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T10:00:00Z","priority":1}`))

	rec := do(t, srv, http.MethodDelete, "/api/events/"+jsonID(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Event deleted successfully"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/events/"+jsonID(created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/events/"+jsonID(created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := do(t, srv, method, "/api/events/abc", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Event not found", errorBody(t, rec))
	}
}

// failingService answers every call with a store failure.
type failingService struct{ err error }

func (f failingService) ListEvents(context.Context) ([]models.Event, error) { return nil, f.err }
func (f failingService) ListEventsByPriority(context.Context, int) ([]models.Event, error) {
	return nil, f.err
}
func (f failingService) GetEvent(context.Context, int64) (*models.Event, error) { return nil, f.err }
func (f failingService) CreateEvent(context.Context, models.EventInput) (*models.Event, error) {
	return nil, f.err
}
func (f failingService) UpdateEvent(context.Context, int64, models.EventInput) (*models.Event, error) {
	return nil, f.err
}
func (f failingService) DeleteEvent(context.Context, int64) (*models.Event, error) {
	return nil, f.err
}
func (f failingService) Healthy(context.Context) error { return f.err }

func TestStoreErrorsAreGeneric500(t *testing.T) {
	var logs bytes.Buffer
	detail := "dial tcp 10.0.0.5:5432: connection refused"
	srv := newRouter(t, failingService{err: &models.StoreError{Op: "list events", Err: errors.New(detail)}}, &logs)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/events", ""},
		{http.MethodGet, "/api/events/1", ""},
		{http.MethodGet, "/api/events/priority/2", ""},
		{http.MethodPost, "/api/events", `{"title":"x"}`},
		{http.MethodPut, "/api/events/1", `{"title":"x"}`},
		{http.MethodDelete, "/api/events/1", ""},
		{http.MethodGet, "/api/calendar.ics", ""},
	} {
		rec := do(t, srv, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Internal server error", errorBody(t, rec))
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	}
	assert.Contains(t, logs.String(), detail)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, newRouter(t, failingService{err: errors.New("down")}, io.Discard), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
