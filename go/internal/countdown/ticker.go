package countdown

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultTickInterval is the cadence countdowns are refreshed at
const DefaultTickInterval = time.Second

// Ticker is a single clock tick source shared by every countdown consumer.
// Each tick is fanned out to all subscribers; a subscriber that is not ready
// misses that tick instead of delaying the others.
type Ticker struct {
	clock    clockwork.Clock
	interval time.Duration

	mu          sync.RWMutex
	subscribers map[uint64]chan time.Time
	nextID      uint64

	dropped atomic.Uint64
}

// NewTicker creates a Ticker on the given clock. A nil clock uses the real clock.
func NewTicker(clock clockwork.Clock, interval time.Duration) *Ticker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		clock:       clock,
		interval:    interval,
		subscribers: make(map[uint64]chan time.Time),
	}
}

// Subscribe registers a new listener. The returned func unsubscribes and
// closes the channel; calling it more than once is safe.
func (t *Ticker) Subscribe() (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subscribers[id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			if sub, ok := t.subscribers[id]; ok {
				delete(t.subscribers, id)
				close(sub)
			}
			t.mu.Unlock()
		})
	}
}

// Run emits ticks until ctx is cancelled, then closes every subscriber channel.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", t.interval).Msg("countdown ticker started")

	for {
		select {
		case <-ctx.Done():
			t.closeAll()
			log.Info().Msg("countdown ticker stopped")
			return
		case now := <-ticker.Chan():
			t.broadcast(now)
		}
	}
}

func (t *Ticker) broadcast(now time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ch := range t.subscribers {
		select {
		case ch <- now:
		default:
			t.dropped.Add(1)
		}
	}
}

func (t *Ticker) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, ch := range t.subscribers {
		close(ch)
		delete(t.subscribers, id)
	}
}

// Subscribers returns the number of active listeners
func (t *Ticker) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subscribers)
}

// Dropped returns how many ticks were skipped because a subscriber was busy
func (t *Ticker) Dropped() uint64 {
	return t.dropped.Load()
}

// Interval returns the tick cadence
func (t *Ticker) Interval() time.Duration {
	return t.interval
}
