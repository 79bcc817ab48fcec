package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueueProcessesJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: id, Type: "mail"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	var attempts int32
	gaveUp := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("smtp down")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		OnGiveUp:   func(j Job, err error) { gaveUp <- j },
	})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "x"}))

	select {
	case j := <-gaveUp:
		require.Equal(t, 3, j.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never gave up")
	}
	q.Stop()
	require.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestQueueRejectsWhenClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewQueue("closed", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "early"}), ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	require.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "late"}), ErrQueueClosed)
}

func TestQueueStopCancelsPendingRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewQueue("slow-retry", func(ctx context.Context, job Job) error {
		return errors.New("fail")
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Hour})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "r"}))

	time.Sleep(20 * time.Millisecond)
	q.Stop()
}
