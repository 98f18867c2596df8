package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

func newDemoQueue(t *testing.T, capacity int) *queue {
	t.Helper()
	q, err := broadcast.New[Token, *int](capacity, broadcast.WithBuckets(4))
	require.NoError(t, err)
	return q
}

func TestRunSingle(t *testing.T) {
	t.Parallel()

	cfg := Config{Publishers: 3, Subscribers: 5, Publications: 10}
	q := newDemoQueue(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runSingle(ctx, q, cfg, logger.Discard()))

	st := q.Stats()
	assert.EqualValues(t, 30, st.Published)
	assert.EqualValues(t, 150, st.Delivered)
	assert.Zero(t, st.Dropped)
	assert.Equal(t, broadcast.StateReleased, st.State)
}

func TestRunChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping demo run in short mode")
	}
	t.Parallel()

	cfg := Config{
		Publishers:   2,
		Subscribers:  4,
		Publications: 32,
		Resizes:      2,
		ResizeEvery:  20 * time.Millisecond,
	}
	q := newDemoQueue(t, 8)

	require.NoError(t, runChurn(context.Background(), q, cfg, logger.Discard()))

	st := q.Stats()
	assert.Equal(t, broadcast.StateReleased, st.State)
	assert.Positive(t, st.Published)
}

func TestRunInfinite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping demo run in short mode")
	}
	t.Parallel()

	cfg := Config{
		Publishers:   2,
		Subscribers:  3,
		Publications: 16,
		Removers:     1,
		Duration:     30 * time.Millisecond,
	}
	q := newDemoQueue(t, 8)

	require.NoError(t, runInfinite(context.Background(), q, cfg, logger.Discard()))
	assert.Equal(t, broadcast.StateReleased, q.Stats().State)
}

func TestRunInfinite_Interrupted(t *testing.T) {
	t.Parallel()

	cfg := Config{Publishers: 1, Subscribers: 1, Publications: 4, Removers: 1, Duration: time.Hour}
	q := newDemoQueue(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, runInfinite(ctx, q, cfg, logger.Discard()))
	assert.Equal(t, broadcast.StateReleased, q.Stats().State)
}

func TestStopped(t *testing.T) {
	t.Parallel()

	assert.NoError(t, stopped(broadcast.ErrDestroyed))
	assert.NoError(t, stopped(context.Canceled))
	assert.NoError(t, stopped(context.DeadlineExceeded))
	assert.ErrorIs(t, stopped(broadcast.ErrNotSubscribed), broadcast.ErrNotSubscribed)
}
