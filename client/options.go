package client

import "time"

// IPVersion selects which address family a Client binds its local socket
// under.
type IPVersion int

const (
	V4 IPVersion = iota
	V6
	Both
)

const (
	defaultBufferSize   = 512
	defaultBindTimeout  = 2 * time.Second
	defaultWriteTimeout = 2 * time.Second
	defaultReadTimeout  = 5 * time.Second
)

// Config holds a Client's tunables. Zero value is not valid; use
// NewConfig.
type Config struct {
	BufferSize   int
	BindTimeout  time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	IPVersion    IPVersion
	DSCP         int
}

// Option configures a Config at construction time.
type Option func(*Config)

// WithBufferSize sets the receive buffer size. Values below the 512-byte
// wire minimum are raised to it.
func WithBufferSize(n int) Option {
	return func(c *Config) {
		if n > defaultBufferSize {
			c.BufferSize = n
		}
	}
}

// WithBindTimeout sets how long socket bind may take before failing.
func WithBindTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.BindTimeout = d
		}
	}
}

// WithWriteTimeout sets how long a send may take before failing.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.WriteTimeout = d
		}
	}
}

// WithReadTimeout sets how long Query waits for a response.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ReadTimeout = d
		}
	}
}

// WithIPVersion selects the local bind address family.
func WithIPVersion(v IPVersion) Option {
	return func(c *Config) { c.IPVersion = v }
}

// WithDSCP marks the client's outgoing query traffic with the given
// DiffServ code point, for deployments that prioritize DNS queries on a
// congested link. Default is unmarked (0).
func WithDSCP(dscp int) Option {
	return func(c *Config) { c.DSCP = dscp }
}

// NewConfig builds a Config from defaults plus the given options.
func NewConfig(opts ...Option) Config {
	c := Config{
		BufferSize:   defaultBufferSize,
		BindTimeout:  defaultBindTimeout,
		WriteTimeout: defaultWriteTimeout,
		ReadTimeout:  defaultReadTimeout,
		IPVersion:    V4,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (v IPVersion) bindAddr() string {
	switch v {
	case V6:
		return "[::]:0"
	default:
		return "0.0.0.0:0"
	}
}
