// Package mux multiplexes concurrent queries over a single transport. It
// matches inbound responses to outstanding requests by transaction ID,
// sweeps timed-out queries, and bounds both the receive batch size and the
// transaction ID space a client can exhaust.
package mux

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"runtime"
	"sync"
	"time"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/transport"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

const (
	defaultMaxBatch      = 128
	defaultSweepInterval = 500 * time.Millisecond
	defaultIDAttempts    = 64
)

// Result is the outcome of one inflight query: either a matched response
// or an error (decode failure surfaced on this ID, or a swept timeout).
type Result struct {
	Message wire.Message
	Err     error
}

type pending struct {
	resultCh chan Result
	deadline time.Time
}

// Mux owns a Transport and fans its responses back out to callers of
// Query by transaction ID.
type Mux struct {
	tr transport.Transport

	mu       sync.Mutex
	inflight map[uint16]*pending

	maxBatch      int
	sweepInterval time.Duration
	maxIDAttempts int
	log           *slog.Logger

	done     chan struct{}
	closeErr error
	once     sync.Once
}

// New starts a Mux over tr. The Mux takes ownership of tr: closing the Mux
// closes tr too.
func New(tr transport.Transport, opts ...Option) *Mux {
	m := &Mux{
		tr:            tr,
		inflight:      make(map[uint16]*pending),
		maxBatch:      defaultMaxBatch,
		sweepInterval: defaultSweepInterval,
		maxIDAttempts: defaultIDAttempts,
		log:           slog.Default(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.recvLoop()
	go m.sweepLoop()
	return m
}

// Close stops the background loops and closes the underlying transport.
func (m *Mux) Close() error {
	m.once.Do(func() {
		close(m.done)
		m.closeErr = m.tr.Close()
	})
	return m.closeErr
}

// Query sends msg (after stamping it with a freshly allocated transaction
// ID) to target and blocks until a matching response arrives, ctx is
// done, or the Mux is closed.
func (m *Mux) Query(ctx context.Context, msg wire.Message, target net.Addr) (wire.Message, error) {
	return m.QueryWithWriteTimeout(ctx, msg, target, 0)
}

// QueryWithWriteTimeout behaves like Query but additionally bounds the send
// itself by writeTimeout (a zero value leaves the send bounded only by ctx),
// reporting a distinct write-timeout error if the send doesn't complete in
// time instead of the read-timeout error Query reports for the overall wait.
func (m *Mux) QueryWithWriteTimeout(ctx context.Context, msg wire.Message, target net.Addr, writeTimeout time.Duration) (wire.Message, error) {
	resultCh := make(chan Result, 1)
	var deadline time.Time
	var readTimeout time.Duration
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
		readTimeout = time.Until(dl)
	}

	id, err := m.register(resultCh, deadline)
	if err != nil {
		return wire.Message{}, err
	}
	defer m.unregister(id)

	msg.Header.ID = id

	sendCtx := ctx
	if writeTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, writeTimeout)
		defer cancel()
	}
	if err := m.tr.Send(sendCtx, transport.Request{Message: msg, Target: target}); err != nil {
		if sendCtx.Err() != nil && ctx.Err() == nil {
			return wire.Message{}, &derrors.TimeoutError{Op: "write", Duration: writeTimeout}
		}
		return wire.Message{}, err
	}

	select {
	case res := <-resultCh:
		return res.Message, res.Err
	case <-ctx.Done():
		return wire.Message{}, &derrors.TimeoutError{Op: "read", Duration: readTimeout}
	case <-m.done:
		return wire.Message{}, &derrors.RuntimeError{Op: "query", Err: net.ErrClosed}
	}
}

// register allocates a free transaction ID via rejection sampling and
// reserves it in the inflight table in the same critical section, so no
// other caller can be handed the same ID before it's recorded.
func (m *Mux) register(resultCh chan Result, deadline time.Time) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < m.maxIDAttempts; attempt++ {
		id := uint16(rand.IntN(1 << 16))
		if _, taken := m.inflight[id]; taken {
			continue
		}
		m.inflight[id] = &pending{resultCh: resultCh, deadline: deadline}
		return id, nil
	}
	return 0, &derrors.IDExhausted{Attempts: m.maxIDAttempts}
}

func (m *Mux) unregister(id uint16) {
	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
}

// recvLoop drains the transport's inbound stream, matching each message
// to its pending query by transaction ID. Messages with no matching
// inflight entry (late, duplicate, or spoofed) are logged and dropped. Every
// maxBatch messages the loop yields the scheduler rather than draining
// without bound.
func (m *Mux) recvLoop() {
	processed := 0
	for in := range m.tr.Inbound() {
		m.dispatch(in)
		processed++
		if processed >= m.maxBatch {
			processed = 0
			runtime.Gosched()
		}
	}
	m.drainAll(&derrors.IOError{Op: "mux.recv", Err: net.ErrClosed})
}

func (m *Mux) dispatch(in transport.Inbound) {
	if in.Err != nil {
		m.log.Warn("dropping undecodable datagram", "from", in.From, "error", in.Err)
		return
	}

	id := in.Message.Header.ID
	m.mu.Lock()
	p, ok := m.inflight[id]
	if ok {
		delete(m.inflight, id)
	}
	m.mu.Unlock()

	if !ok {
		m.log.Warn("dropping response with no matching inflight query", "id", id, "from", in.From)
		return
	}
	select {
	case p.resultCh <- Result{Message: in.Message}:
	default:
	}
}

// sweepLoop periodically completes inflight queries whose deadline has
// already passed, in case the caller's own ctx.Done() case loses the
// race with a late-arriving packet forever (the caller may have stopped
// selecting on ctx for unrelated reasons, e.g. a slow consumer upstream).
func (m *Mux) sweepLoop() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			m.sweepOnce(now)
		case <-m.done:
			return
		}
	}
}

func (m *Mux) sweepOnce(now time.Time) {
	m.mu.Lock()
	var expired []*pending
	for id, p := range m.inflight {
		if !p.deadline.IsZero() && now.After(p.deadline) {
			expired = append(expired, p)
			delete(m.inflight, id)
		}
	}
	m.mu.Unlock()

	for _, p := range expired {
		select {
		case p.resultCh <- Result{Err: &derrors.TimeoutError{Op: "read", Duration: 0}}:
		default:
		}
	}
}

func (m *Mux) drainAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.inflight {
		delete(m.inflight, id)
		select {
		case p.resultCh <- Result{Err: err}:
		default:
		}
	}
}
