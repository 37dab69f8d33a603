// Package ratelimit implements fixed-window admission counting keyed by
// arbitrary strings.
//
// A window opens on the first admission for a key and lasts for its length.
// Each admission inside the window increments the count, including denied
// ones, and the admission is denied once the count exceeds the maximum.
// After the window has elapsed the next admission opens a fresh window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

type window struct {
	start  time.Time
	count  int
	length time.Duration
}

func (w *window) elapsed(now time.Time) bool {
	return now.Sub(w.start) > w.length
}

// Limiter is safe for concurrent use. The zero value is not usable; call New.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func New() *Limiter {
	return &Limiter{windows: make(map[string]*window)}
}

// Admit records one admission attempt for key at now.
//
// A window whose age equals its length is still current; it resets only once
// strictly more than length has passed.
func (l *Limiter) Admit(key string, max int, length time.Duration, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.elapsed(now) {
		l.windows[key] = &window{start: now, count: 1, length: length}
		if max < 1 {
			return Denied
		}
		return Allowed
	}

	w.count++
	if w.count > max {
		return Denied
	}
	return Allowed
}

// Sweep drops windows that have already elapsed and reports how many it
// removed. Dropping an elapsed window never changes a later decision.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if w.elapsed(now) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Run sweeps on every tick until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration, now func() time.Time) {
	if interval <= 0 {
		return
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(now())
		}
	}
}
