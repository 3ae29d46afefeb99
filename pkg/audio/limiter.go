package audio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one rate.Limiter per key. Impact sounds are keyed by
// boundary and sound kind so one busy boundary cannot drown out the others.
type Limiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows maxPerWindow events per window for every key, in a
// burst of up to maxPerWindow. Idle keys are dropped after two windows.
func NewLimiter(maxPerWindow int, window time.Duration) *Limiter {
	maxPerWindow = max(maxPerWindow, 1)
	l := &Limiter{
		limit:   rate.Every(window / time.Duration(maxPerWindow)),
		burst:   maxPerWindow,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*entry),
		cleanup: time.NewTicker(window),
		done:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether an event for key may happen now
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Keys returns the number of tracked keys
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanup.C:
			l.prune()
		case <-l.done:
			return
		}
	}
}

// prune drops keys idle for more than two windows
func (l *Limiter) prune() {
	cutoff := l.now().Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Close() {
	l.once.Do(func() {
		close(l.done)
		l.cleanup.Stop()
	})
}
