package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-inbox/internal/storage/sqlstore"
	"github.com/tinywideclouds/go-notification-inbox/pkg/inbox"
)

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func seed(t *testing.T, s *sqlstore.Store, recipient string, at time.Time, read bool) *inbox.Record {
	t.Helper()
	rec := &inbox.Record{RecipientID: recipient, Title: "t", Body: "b", IsRead: read, CreatedAt: at}
	require.NoError(t, s.Create(context.Background(), rec))
	return rec
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &inbox.Record{RecipientID: "u1", Title: "Hello", Body: "World", Data: map[string]string{"k": "v"}}
	require.NoError(t, s.Create(ctx, rec))

	assert.NotEmpty(t, rec.ID, "ID is assigned on create")
	assert.False(t, rec.CreatedAt.IsZero(), "CreatedAt defaults to now")

	got, err := s.Query(ctx, inbox.RecordFilter{RecipientID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "Hello", got[0].Title)
	assert.Equal(t, map[string]string{"k": "v"}, got[0].Data)
	assert.False(t, got[0].IsRead)
	assert.True(t, rec.CreatedAt.Equal(got[0].CreatedAt))
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	older := seed(t, s, "u1", base.Add(-2*time.Hour), false)
	newer := seed(t, s, "u1", base, false)
	atEnd := seed(t, s, "u1", base.Add(time.Hour), false)
	seed(t, s, "u2", base, false)

	t.Run("Orders newest first and scopes to recipient", func(t *testing.T) {
		got, err := s.Query(ctx, inbox.RecordFilter{RecipientID: "u1"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{atEnd.ID, newer.ID, older.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("Range is half open", func(t *testing.T) {
		r := &inbox.TimeRange{GTE: base.Add(-2 * time.Hour), LT: base.Add(time.Hour)}
		got, err := s.Query(ctx, inbox.RecordFilter{RecipientID: "u1", Range: r})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
	})

	t.Run("No match is an empty slice", func(t *testing.T) {
		got, err := s.Query(ctx, inbox.RecordFilter{RecipientID: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestStore_CountAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	inRange := seed(t, s, "u1", base, false)
	seed(t, s, "u1", base.Add(-48*time.Hour), false)
	alreadyRead := seed(t, s, "u1", base.Add(time.Minute), true)
	seed(t, s, "u2", base, false)

	unread, err := s.Count(ctx, inbox.CountFilter{RecipientID: "u1", IsRead: false})
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	r := &inbox.TimeRange{GTE: base.Add(-time.Hour), LT: base.Add(time.Hour)}
	ids, err := s.UpdateIsRead(ctx, inbox.RecordFilter{RecipientID: "u1", Range: r}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{inRange.ID, alreadyRead.ID}, ids, "already-read rows still match")

	unread, err = s.Count(ctx, inbox.CountFilter{RecipientID: "u1", IsRead: false})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	otherUnread, err := s.Count(ctx, inbox.CountFilter{RecipientID: "u2", IsRead: false})
	require.NoError(t, err)
	assert.Equal(t, 1, otherUnread, "other recipients are untouched")

	none, err := s.UpdateIsRead(ctx, inbox.RecordFilter{RecipientID: "nobody"}, true)
	require.NoError(t, err)
	assert.Empty(t, none)
}
