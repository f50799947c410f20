package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTicker(t *testing.T, clock *clockwork.FakeClock) (*Ticker, context.CancelFunc, chan struct{}) {
	t.Helper()
	ticker := NewTicker(clock, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ticker.Run(ctx)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	return ticker, cancel, done
}

func receive(t *testing.T, ch <-chan time.Time) time.Time {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return time.Time{}
	}
}

func TestTicker_FansOutToAllSubscribers(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	ticker, cancel, done := startTicker(t, clock)
	defer func() {
		cancel()
		<-done
	}()

	a, unsubA := ticker.Subscribe()
	b, unsubB := ticker.Subscribe()
	defer unsubA()
	defer unsubB()
	assert.Equal(t, 2, ticker.Subscribers())

	clock.Advance(time.Second)

	assert.Equal(t, epoch.Add(time.Second), receive(t, a))
	assert.Equal(t, epoch.Add(time.Second), receive(t, b))
}

func TestTicker_SlowSubscriberDropsTicks(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	ticker, cancel, done := startTicker(t, clock)
	defer func() {
		cancel()
		<-done
	}()

	slow, unsub := ticker.Subscribe()
	defer unsub()

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return len(slow) == 1 }, 2*time.Second, 5*time.Millisecond)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return ticker.Dropped() == 1 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, epoch.Add(time.Second), receive(t, slow))
}

func TestTicker_UnsubscribeClosesChannel(t *testing.T) {
	ticker := NewTicker(clockwork.NewFakeClock(), 0)
	assert.Equal(t, DefaultTickInterval, ticker.Interval())

	ch, unsub := ticker.Subscribe()
	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, ticker.Subscribers())
}

func TestTicker_RunClosesSubscribersOnShutdown(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	ticker, cancel, done := startTicker(t, clock)

	ch, unsub := ticker.Subscribe()
	defer unsub()

	cancel()
	<-done

	_, ok := <-ch
	assert.False(t, ok)
}
