package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-calendar/internal/events/db"
	"ms-calendar/internal/models"
	"ms-calendar/internal/testutil"
)

func TestSeedInsertsSamples(t *testing.T) {
	store := db.New(testutil.NewSQLiteDB(t), 5*time.Second)
	now := time.Date(2024, 3, 11, 15, 4, 0, 0, time.UTC)

	n, err := seed(context.Background(), store, now)
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, len(samples))
	for _, ev := range events {
		assert.True(t, models.ValidPriority(ev.Priority))
		assert.True(t, ev.EndDate.Equal(models.DeriveEndDate(ev.StartDate)))
		assert.False(t, ev.StartDate.Before(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
	}
}
