package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendWindowEvictsOldest(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewSendWindow(3)

	for i := 0; i < 5; i++ {
		w.Record(base.Add(time.Duration(i) * time.Second))
	}

	require.Equal(t, 3, w.Len())
	require.Equal(t, []time.Time{
		base.Add(2 * time.Second),
		base.Add(3 * time.Second),
		base.Add(4 * time.Second),
	}, w.Snapshot())

	oldest, ok := w.Oldest()
	require.True(t, ok)
	require.Equal(t, base.Add(2*time.Second), oldest)
}

func TestSendWindowWait(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewSendWindow(2)

	require.Zero(t, w.Wait(base))
	_, ok := w.Oldest()
	require.False(t, ok)

	w.Record(base)
	require.Zero(t, w.Wait(base.Add(time.Second)), "partial window never waits")

	w.Record(base.Add(10 * time.Second))
	require.Equal(t, 40*time.Second, w.Wait(base.Add(20*time.Second)))
	require.Zero(t, w.Wait(base.Add(time.Minute)))
}

func TestSendWindowMinimumCapacity(t *testing.T) {
	w := NewSendWindow(0)
	require.Equal(t, 1, w.Capacity())
}

func TestBackoffDelayBounds(t *testing.T) {
	low := func() float64 { return 0 }
	high := func() float64 { return 0.999999 }

	require.Zero(t, backoffDelay(0, low))

	for k := 1; k <= 8; k++ {
		base := 1.0
		for i := 1; i < k; i++ {
			base *= 1.5
		}
		minDelay := time.Duration(base * 0.5 * float64(time.Second))
		maxDelay := time.Duration(base * 1.5 * float64(time.Second))

		require.InDelta(t, float64(minDelay), float64(backoffDelay(k, low)), float64(time.Millisecond))
		require.Less(t, backoffDelay(k, high), maxDelay)
		require.GreaterOrEqual(t, backoffDelay(k, high), minDelay)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, sleep(context.Background(), time.Millisecond))
}
