package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttatard/attendance-frontend/internal/journal"
	"github.com/ttatard/attendance-frontend/internal/models"
)

func TestRunTalliesJournal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	j := journal.New(client, nil)

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, journal.NewEntry(42, journal.PathCamera, models.Success("Jane Doe", "EVT-1", time.Now()))))
	require.NoError(t, j.Record(ctx, journal.NewEntry(42, journal.PathCamera, models.Success("John Roe", "EVT-2", time.Now()))))
	require.NoError(t, j.Record(ctx, journal.NewEntry(7, journal.PathManual, models.AlreadyRecorded("Ann", "AB12CD"))))

	p := NewTallyProcessor(j, 50*time.Millisecond, nil)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		p.Run(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return p.Tally().Count(42, models.OutcomeSuccess) == 2 &&
			p.Tally().Count(7, models.OutcomeAlreadyRecorded) == 1
	}, 2*time.Second, 10*time.Millisecond)

	n, err := j.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type flakySource struct {
	calls atomic.Int32
	entry *journal.Entry
}

func (s *flakySource) Dequeue(ctx context.Context, timeout time.Duration) (*journal.Entry, error) {
	switch s.calls.Add(1) {
	case 1:
		return nil, errors.New("connection refused")
	case 2:
		return s.entry, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunRetriesAfterError(t *testing.T) {
	e := journal.NewEntry(3, journal.PathManual, models.Success("Ann", "ZZ99ZZ", time.Now()))
	p := NewTallyProcessor(&flakySource{entry: &e}, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool {
		return p.Tally().Count(3, models.OutcomeSuccess) == 1
	}, 3*time.Second, 10*time.Millisecond)
}
