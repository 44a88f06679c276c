package raftstore

import "time"

// Ticker coalesces wall-clock time into discrete raft ticks: it invokes a
// callback once the configured period has fully elapsed, then reports how
// much time remains until the next one, so the Poller's select loop can use
// that value directly as its next receive timeout instead of waking up on
// every message to re-check the clock.
type Ticker struct {
	last      time.Time
	timeout   time.Duration
	remaining time.Duration
}

// NewTicker returns a Ticker that fires every period.
func NewTicker(period time.Duration) *Ticker {
	return &Ticker{
		last:      time.Now(),
		timeout:   period,
		remaining: period,
	}
}

// Tick invokes callback if the timeout has elapsed since the last firing,
// and returns the duration remaining until the next one either way.
func (t *Ticker) Tick(callback func()) time.Duration {
	now := time.Now()
	elapsed := now.Sub(t.last)
	if elapsed >= t.remaining {
		callback()
		t.last = time.Now()
		t.remaining = t.timeout
	} else {
		t.last = now
		t.remaining -= elapsed
	}
	return t.remaining
}
