package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

func waitParked(t *testing.T, q *broadcast.Queue[int, string], getters, putters int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := q.Stats()
		return s.BlockedGetters == getters && s.BlockedPutters == putters
	}, 2*time.Second, time.Millisecond)
}

func TestQueue_PutBlocksUntilCapacityFrees(t *testing.T) {
	t.Parallel()

	q := newQueue(t, 2)
	require.NoError(t, q.Subscribe(1))
	put(t, q, "1", "2")

	done := make(chan error, 1)
	go func() { done <- q.Put(context.Background(), "3") }()

	waitParked(t, q, 0, 1)
	select {
	case <-done:
		t.Fatal("Put returned while the queue was full")
	default:
	}

	assert.Equal(t, "1", get(t, q, 1))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Put did not unblock after Get freed capacity")
	}
	assert.Equal(t, []string{"2", "3"}, payloads(q))
}

func TestQueue_SetSizeWakesPutters(t *testing.T) {
	t.Parallel()

	q := newQueue(t, 1)
	require.NoError(t, q.Subscribe(1))
	put(t, q, "1")

	done := make(chan error, 1)
	go func() { done <- q.Put(context.Background(), "2") }()
	waitParked(t, q, 0, 1)

	require.NoError(t, q.SetSize(2))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Put did not unblock after capacity grew")
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueue_ParkedPutDropsWhenLastSubscriberLeaves(t *testing.T) {
	t.Parallel()

	q := newQueue(t, 1)
	require.NoError(t, q.Subscribe(1))
	put(t, q, "1")

	done := make(chan error, 1)
	go func() { done <- q.Put(context.Background(), "2") }()
	waitParked(t, q, 0, 1)

	require.NoError(t, q.Unsubscribe(1))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Put stayed parked after the last subscriber left")
	}

	assert.Zero(t, q.Len())
	stats := q.Stats()
	assert.EqualValues(t, 1, stats.Dropped)
	assert.EqualValues(t, 1, stats.Published)
	assert.Zero(t, stats.BlockedPutters)
}

func TestQueue_GetBlocksUntilPut(t *testing.T) {
	t.Parallel()

	q := newQueue(t, 4)
	for i := range 3 {
		require.NoError(t, q.Subscribe(i))
	}

	var g errgroup.Group
	got := make([]string, 3)
	for i := range 3 {
		g.Go(func() error {
			msg, err := q.Get(context.Background(), i)
			got[i] = msg
			return err
		})
	}

	waitParked(t, q, 3, 0)
	put(t, q, "hello")

	require.NoError(t, g.Wait())
	assert.Equal(t, []string{"hello", "hello", "hello"}, got)
	assert.Zero(t, q.Len())
}

func TestQueue_ContextCancellation(t *testing.T) {
	t.Parallel()

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		q := newQueue(t, 1)
		require.NoError(t, q.Subscribe(1))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := q.Get(ctx, 1)
			done <- err
		}()

		waitParked(t, q, 1, 0)
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		waitParked(t, q, 0, 0)

		put(t, q, "still works")
		assert.Equal(t, "still works", get(t, q, 1))
	})

	t.Run("put", func(t *testing.T) {
		t.Parallel()
		q := newQueue(t, 1)
		require.NoError(t, q.Subscribe(1))
		put(t, q, "a")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, q.Put(ctx, "b"), context.DeadlineExceeded)
		assert.Equal(t, []string{"a"}, payloads(q))
		waitParked(t, q, 0, 0)
	})

	t.Run("already cancelled with data available", func(t *testing.T) {
		t.Parallel()
		q := newQueue(t, 1)
		require.NoError(t, q.Subscribe(1))
		put(t, q, "a")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		msg, err := q.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "a", msg)
	})
}

func TestQueue_UnsubscribeParkedGetter(t *testing.T) {
	t.Parallel()

	q := newQueue(t, 4)
	require.NoError(t, q.Subscribe(1))
	require.NoError(t, q.Subscribe(2))

	done := make(chan error, 1)
	go func() {
		_, err := q.Get(context.Background(), 1)
		done <- err
	}()
	waitParked(t, q, 1, 0)

	require.NoError(t, q.Unsubscribe(1))
	select {
	case <-done:
		t.Fatal("Unsubscribe alone released the parked Get")
	case <-time.After(20 * time.Millisecond):
	}

	put(t, q, "wake")
	assert.ErrorIs(t, <-done, broadcast.ErrNotSubscribed)
	assert.Equal(t, "wake", get(t, q, 2))
}

func TestQueue_DestroyReleasesWaiters(t *testing.T) {
	t.Parallel()

	const getters, putters = 5, 4

	q, err := broadcast.New[int, string](1)
	require.NoError(t, err)

	// Token 0 never reads, so the single slot stays full.
	require.NoError(t, q.Subscribe(0))
	for i := 1; i <= getters; i++ {
		require.NoError(t, q.Subscribe(i))
	}
	put(t, q, "only")
	for i := 1; i <= getters; i++ {
		assert.Equal(t, "only", get(t, q, i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, getters+putters)
	for i := 1; i <= getters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Get(context.Background(), i)
			errs <- err
		}()
	}
	for range putters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- q.Put(context.Background(), "blocked")
		}()
	}
	waitParked(t, q, getters, putters)

	var destroyed errgroup.Group
	results := make([]error, 3)
	for i := range results {
		destroyed.Go(func() error {
			results[i] = q.Destroy()
			return nil
		})
	}
	require.NoError(t, destroyed.Wait())
	wg.Wait()
	close(errs)

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, broadcast.ErrAlreadyDestroyed)
	}
	assert.Equal(t, 1, succeeded)

	n := 0
	for err := range errs {
		assert.ErrorIs(t, err, broadcast.ErrDestroyed)
		n++
	}
	assert.Equal(t, getters+putters, n)

	assert.Equal(t, broadcast.StateReleased, q.State())
	assert.ErrorIs(t, q.Destroy(), broadcast.ErrAlreadyDestroyed)
}

func TestQueue_ConcurrentPublishers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}
	t.Parallel()

	const (
		publishers   = 4
		publications = 200
		subscribers  = 8
	)

	q, err := broadcast.New[int, int](16, broadcast.WithBuckets(3))
	require.NoError(t, err)
	defer q.Destroy()

	for i := range subscribers {
		require.NoError(t, q.Subscribe(i))
	}

	ctx := context.Background()
	var g errgroup.Group
	received := make([][]int, subscribers)
	for i := range subscribers {
		g.Go(func() error {
			for range publishers * publications {
				v, err := q.Get(ctx, i)
				if err != nil {
					return err
				}
				received[i] = append(received[i], v)
			}
			return q.Unsubscribe(i)
		})
	}
	for p := range publishers {
		g.Go(func() error {
			for n := range publications {
				if err := q.Put(ctx, p*publications+n); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := range subscribers {
		require.Len(t, received[i], publishers*publications)
		assert.Equal(t, received[0], received[i], "subscribers must see the same publish order")

		// Each publisher's messages arrive in the order it sent them.
		last := make([]int, publishers)
		for p := range last {
			last[p] = -1
		}
		for _, v := range received[i] {
			p, n := v/publications, v%publications
			assert.Greater(t, n, last[p])
			last[p] = n
		}
	}
	assert.Zero(t, q.Len())
}
