package journal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttatard/attendance-frontend/internal/models"
)

func newJournal(t *testing.T) (*Journal, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, nil), mr
}

func TestRecordAndDequeue(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()

	o := models.Success("Jane Doe", "EVT-12345", time.Now())
	require.NoError(t, j.Record(ctx, NewEntry(42, PathCamera, o)))
	require.NoError(t, j.Record(ctx, NewEntry(7, PathManual, models.AlreadyRecorded("Ann", "AB12CD"))))

	n, err := j.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := j.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(42), first.EventID)
	assert.Equal(t, PathCamera, first.Path)
	assert.Equal(t, models.OutcomeSuccess, first.Kind)
	assert.Equal(t, "Jane Doe", first.AttendeeName)
	assert.NotEmpty(t, first.ID)

	second, err := j.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyRecorded, second.Kind)
	assert.Equal(t, "AB12CD", second.Code)
}

func TestDequeueSkipsMalformedEntries(t *testing.T) {
	j, mr := newJournal(t)
	_, err := mr.Push(Key, "not json")
	require.NoError(t, err)

	e, err := j.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestRecordFailureIsReported(t *testing.T) {
	j, mr := newJournal(t)
	mr.SetError("READONLY")
	err := j.Record(context.Background(), NewEntry(1, PathCamera, models.NetworkError()))
	assert.Error(t, err)
}

func TestNilJournalDiscards(t *testing.T) {
	var j *Journal
	assert.NoError(t, j.Record(context.Background(), NewEntry(1, PathCamera, models.NetworkError())))
}

func TestTally(t *testing.T) {
	tally := NewTally()
	tally.Add(Entry{EventID: 7, Kind: models.OutcomeSuccess})
	tally.Add(Entry{EventID: 7, Kind: models.OutcomeSuccess})
	counts := tally.Add(Entry{EventID: 7, Kind: models.OutcomeAlreadyRecorded})
	tally.Add(Entry{EventID: 9, Kind: models.OutcomeSuccess})

	assert.Equal(t, 2, counts[models.OutcomeSuccess])
	assert.Equal(t, 1, counts[models.OutcomeAlreadyRecorded])
	assert.Equal(t, 1, tally.Count(9, models.OutcomeSuccess))
	assert.Zero(t, tally.Count(9, models.OutcomeNetworkError))
}
