package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

func testEvents() []schedule.Event {
	return []schedule.Event{
		{Date: "09/06/2025", Dow: "thứ 2", Start: "08:00", End: "09:30", Location: "P.A1", Title: "Họp giao ban", Raw: "8h00: Họp giao ban tại P.A1"},
		{Date: "09/06/2025", Dow: "thứ 2", Title: "Cả ngày trực ban", Raw: "Cả ngày: trực ban"},
		{Date: "09/06/2025", Dow: "thứ 2", Start: "14:00", Location: "Trực tuyến qua Zoom", Title: "Họp khoa", Raw: "14h00: Họp khoa qua Zoom"},
		{Date: "10/06/2025", Dow: "thứ 3", Start: "09:00", End: "11:00", Location: "Hội trường H1", Title: "Hội nghị", Raw: "9h-11h: Hội nghị tại Hội trường H1"},
	}
}

func newPopulatedDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.ReplaceEvents(context.Background(), testEvents()))
	return db
}

func TestReplaceEventsRejectsEmpty(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Error(t, db.ReplaceEvents(context.Background(), nil))
}

func TestReplaceEventsAssignsSequentialIDs(t *testing.T) {
	db := newPopulatedDB(t)

	events, err := db.AllEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, ev := range events {
		assert.Equal(t, i, ev.ID)
	}
}

func TestReplaceEventsOverwritesPrevious(t *testing.T) {
	db := newPopulatedDB(t)
	ctx := context.Background()

	replacement := []schedule.Event{
		{Date: "16/06/2025", Dow: "thứ 2", Title: "Tuần mới", Raw: "Tuần mới"},
	}
	require.NoError(t, db.ReplaceEvents(ctx, replacement))

	count, err := db.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ev, err := db.EventByID(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "Tuần mới", ev.Title)
}

func TestEventsByDateOrdering(t *testing.T) {
	db := newPopulatedDB(t)

	events, err := db.EventsByDate(context.Background(), "09/06/2025")
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Timed events first in start order; the all-day event sorts last.
	assert.Equal(t, "08:00", events[0].Start)
	assert.Equal(t, "14:00", events[1].Start)
	assert.Empty(t, events[2].Start)
	assert.Equal(t, "Cả ngày trực ban", events[2].Title)
}

func TestEventsByDateUnknownDate(t *testing.T) {
	db := newPopulatedDB(t)

	events, err := db.EventsByDate(context.Background(), "01/01/2030")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventByID(t *testing.T) {
	db := newPopulatedDB(t)
	ctx := context.Background()

	ev, err := db.EventByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "10/06/2025", ev.Date)
	assert.Equal(t, "Hội trường H1", ev.Location)

	missing, err := db.EventByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAllDates(t *testing.T) {
	db := newPopulatedDB(t)

	dates, err := db.AllDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"09/06/2025", "10/06/2025"}, dates)
}

func TestDateDowPairs(t *testing.T) {
	db := newPopulatedDB(t)

	pairs, err := db.DateDowPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, DateDow{Date: "09/06/2025", Dow: "thứ 2"}, pairs[0])
	assert.Equal(t, DateDow{Date: "10/06/2025", Dow: "thứ 3"}, pairs[1])
}
