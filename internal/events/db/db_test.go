package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-calendar/internal/events/db"
	"ms-calendar/internal/models"
	"ms-calendar/internal/testutil"
)

func setupTestDB(t *testing.T) *db.DB {
	return db.New(testutil.NewSQLiteDB(t), 5*time.Second)
}

func at(hour int) time.Time {
	return time.Date(2024, 3, 10, hour, 0, 0, 0, time.UTC)
}

func TestInsertAndGetEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, models.NewEventInput("Standup", "daily sync", at(9), 3))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, "Standup", created.Title)
	assert.Equal(t, "daily sync", created.Description)
	assert.Equal(t, 3, created.Priority)
	assert.True(t, created.StartDate.Equal(at(9)))
	assert.True(t, created.EndDate.Equal(at(10)))
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Standup", got.Title)
	assert.True(t, got.EndDate.Equal(models.DeriveEndDate(got.StartDate)))
}

func TestInsertWithoutDescription(t *testing.T) {
	store := setupTestDB(t)

	created, err := store.Insert(context.Background(), models.NewEventInput("Lunch", "", at(12), 1))
	require.NoError(t, err)
	assert.Empty(t, created.Description)
}

func TestInsertMissingTitleIsStoreError(t *testing.T) {
	store := setupTestDB(t)

	in := models.NewEventInput("x", "", at(9), 1)
	in.Title = nil
	_, err := store.Insert(context.Background(), in)
	require.Error(t, err)
	assert.True(t, models.IsStoreError(err))
}

func TestGetEventNotFound(t *testing.T) {
	store := setupTestDB(t)

	got, err := store.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assert.Nil(t, got)
}

func TestListAllOrderedByStart(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	empty, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, in := range []models.EventInput{
		models.NewEventInput("late", "", at(15), 1),
		models.NewEventInput("early", "", at(8), 5),
		models.NewEventInput("mid", "", at(11), 3),
	} {
		_, err := store.Insert(ctx, in)
		require.NoError(t, err)
	}

	events, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{events[0].Title, events[1].Title, events[2].Title})
}

func TestListByPriority(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, in := range []models.EventInput{
		models.NewEventInput("a", "", at(10), 4),
		models.NewEventInput("b", "", at(9), 4),
		models.NewEventInput("c", "", at(8), 2),
	} {
		_, err := store.Insert(ctx, in)
		require.NoError(t, err)
	}

	high, err := store.ListByPriority(ctx, 4)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, "b", high[0].Title)
	assert.Equal(t, "a", high[1].Title)

	none, err := store.ListByPriority(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, models.NewEventInput("Review", "draft", at(9), 2))
	require.NoError(t, err)

	updated, err := store.UpdateByID(ctx, created.ID, models.NewEventInput("Review v2", "", at(14), 5))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Review v2", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Equal(t, 5, updated.Priority)
	assert.True(t, updated.StartDate.Equal(at(14)))
	assert.True(t, updated.EndDate.Equal(at(15)))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Review v2", got.Title)
}

func TestStoreStampsTimestampsInUTC(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	est := time.FixedZone("EST", -5*60*60)

	createdAt := time.Date(2024, 3, 1, 8, 30, 0, 0, est)
	store.Now = func() time.Time { return createdAt }
	created, err := store.Insert(ctx, models.NewEventInput("Sync", "", at(9), 2))
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(createdAt), "created_at %s", created.CreatedAt)
	assert.True(t, created.UpdatedAt.Equal(createdAt))

	updatedAt := createdAt.Add(90 * time.Minute)
	store.Now = func() time.Time { return updatedAt }
	updated, err := store.UpdateByID(ctx, created.ID, models.NewEventInput("Sync", "", at(10), 2))
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(createdAt))
	assert.True(t, updated.UpdatedAt.Equal(updatedAt), "updated_at %s", updated.UpdatedAt)
}

func TestUpdateEventNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.UpdateByID(context.Background(), 42, models.NewEventInput("x", "", at(9), 1))
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestDeleteEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, models.NewEventInput("Dentist", "", at(16), 4))
	require.NoError(t, err)

	deleted, err := store.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Dentist", deleted.Title)

	_, err = store.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	_, err = store.DeleteByID(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func newMockStore(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		sqldb.Close()
	})
	return db.New(bun.NewDB(sqldb, pgdialect.New()), time.Second), mock
}

func TestDriverFailuresAreStoreErrors(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	mock.ExpectQuery("SELECT .+ FROM \"events\"").WillReturnError(refused)
	_, err := store.ListAll(ctx)
	require.Error(t, err)
	assert.True(t, models.IsStoreError(err))
	assert.ErrorIs(t, err, refused)

	mock.ExpectQuery("SELECT .+ WHERE \\(priority = 3\\)").WillReturnError(refused)
	_, err = store.ListByPriority(ctx, 3)
	assert.True(t, models.IsStoreError(err))

	mock.ExpectQuery("SELECT .+ WHERE \\(id = 7\\)").WillReturnError(refused)
	_, err = store.GetByID(ctx, 7)
	assert.True(t, models.IsStoreError(err))
	assert.NotErrorIs(t, err, models.ErrEventNotFound)

	mock.ExpectQuery("INSERT INTO \"events\"").WillReturnError(refused)
	_, err = store.Insert(ctx, models.NewEventInput("x", "", at(9), 1))
	assert.True(t, models.IsStoreError(err))

	mock.ExpectQuery("UPDATE \"events\"").WillReturnError(refused)
	_, err = store.UpdateByID(ctx, 7, models.NewEventInput("x", "", at(9), 1))
	assert.True(t, models.IsStoreError(err))

	mock.ExpectQuery("DELETE FROM \"events\"").WillReturnError(refused)
	_, err = store.DeleteByID(ctx, 7)
	assert.True(t, models.IsStoreError(err))
}

func TestUpdateNoRowsIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE \"events\" .+ RETURNING \\*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	_, err := store.UpdateByID(context.Background(), 7, models.NewEventInput("x", "", at(9), 1))
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestPingFailure(t *testing.T) {
	sqldb, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqldb.Close()

	mock.ExpectPing().WillReturnError(errors.New("too many clients already"))
	store := db.New(bun.NewDB(sqldb, pgdialect.New()), time.Second)

	err = store.Ping(context.Background())
	assert.True(t, models.IsStoreError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
