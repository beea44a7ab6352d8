package server

import "log/slog"

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the logger used for per-request diagnostics.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithWorkers sets how many concurrent handler goroutines service the
// accept loop. Defaults to 1.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}
