package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-calendar/internal/models"
)

type DB struct {
	Bun *bun.DB
	// Timeout bounds every store call; zero leaves the caller's context alone.
	Timeout time.Duration
	// Now stamps created_at/updated_at. Stamping here rather than with the
	// server's CURRENT_TIMESTAMP keeps them UTC like start_date/end_date.
	Now func() time.Time
}

func New(bunDB *bun.DB, timeout time.Duration) *DB {
	return &DB{Bun: bunDB, Timeout: timeout, Now: time.Now}
}

func (d *DB) stamp() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.Timeout)
}

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	if err := d.Bun.PingContext(ctx); err != nil {
		return &models.StoreError{Op: "ping", Err: err}
	}
	return nil
}

func (d *DB) ListAll(ctx context.Context) ([]models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		OrderExpr("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list events", Err: err}
	}
	return nonNil(events), nil
}

func (d *DB) ListByPriority(ctx context.Context, priority int) ([]models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("priority = ?", priority).
		OrderExpr("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list events by priority", Err: err}
	}
	return nonNil(events), nil
}

func (d *DB) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get event", Err: err}
	}
	return &ev, nil
}

// Insert stores the fields as given. Absent fields are written as NULL so the
// schema decides whether they are acceptable.
func (d *DB) Insert(ctx context.Context, in models.EventInput) (*models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	ev := new(models.Event)
	now := d.stamp()
	_, err := d.Bun.NewInsert().
		Model(ev).
		Column("title", "description", "start_date", "end_date", "priority", "created_at", "updated_at").
		Value("title", "?", in.Title).
		Value("description", "?", in.Description).
		Value("start_date", "?", in.StartDate.TimeOrNil()).
		Value("end_date", "?", in.EndDate.TimeOrNil()).
		Value("priority", "?", in.Priority).
		Value("created_at", "?", now).
		Value("updated_at", "?", now).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "insert event", Err: err}
	}
	return ev, nil
}

// UpdateByID replaces every mutable field and refreshes updated_at.
func (d *DB) UpdateByID(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	ev := new(models.Event)
	res, err := d.Bun.NewUpdate().
		Model(ev).
		Set("title = ?", in.Title).
		Set("description = ?", in.Description).
		Set("start_date = ?", in.StartDate.TimeOrNil()).
		Set("end_date = ?", in.EndDate.TimeOrNil()).
		Set("priority = ?", in.Priority).
		Set("updated_at = ?", d.stamp()).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err := notFoundOr(res, err, "update event"); err != nil {
		return nil, err
	}
	return ev, nil
}

// DeleteByID removes the row and returns it as it was.
func (d *DB) DeleteByID(ctx context.Context, id int64) (*models.Event, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	ev := new(models.Event)
	res, err := d.Bun.NewDelete().
		Model(ev).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err := notFoundOr(res, err, "delete event"); err != nil {
		return nil, err
	}
	return ev, nil
}

func notFoundOr(res sql.Result, err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrEventNotFound
	}
	if err != nil {
		return &models.StoreError{Op: op, Err: err}
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		return models.ErrEventNotFound
	}
	return nil
}

func nonNil(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	return events
}
