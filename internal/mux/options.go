package mux

import (
	"log/slog"
	"time"
)

// Option configures a Mux at construction time.
type Option func(*Mux)

// WithMaxBatch caps how many inbound messages the receive loop drains
// before yielding to the scheduler, bounding how long one misbehaving
// peer can monopolize the loop.
func WithMaxBatch(n int) Option {
	return func(m *Mux) {
		if n > 0 {
			m.maxBatch = n
		}
	}
}

// WithSweepInterval sets how often the background sweep checks inflight
// queries against their deadlines.
func WithSweepInterval(d time.Duration) Option {
	return func(m *Mux) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// WithIDAttempts sets the rejection-sampling attempt budget for
// transaction ID allocation before IDExhausted is returned.
func WithIDAttempts(n int) Option {
	return func(m *Mux) {
		if n > 0 {
			m.maxIDAttempts = n
		}
	}
}

// WithLogger overrides the logger used for "log and drop" diagnostics.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mux) {
		if l != nil {
			m.log = l
		}
	}
}
