package transport

import (
	"context"
	"net"
	"sync"

	"github.com/corvidlabs/dnsflow/internal/wire"
)

// Mock is a test double implementing Transport without any real socket.
// Tests push canned Inbound values with Deliver and inspect outgoing
// traffic with SendCalls.
type Mock struct {
	mu        sync.Mutex
	sendCalls []SendCall
	closed    bool

	inbound chan Inbound
}

// SendCall records a single Send invocation.
type SendCall struct {
	Message wire.Message
	Target  net.Addr
}

// NewMock returns an empty Mock transport.
func NewMock() *Mock {
	return &Mock{inbound: make(chan Inbound, 64)}
}

func (m *Mock) Inbound() <-chan Inbound { return m.inbound }

// Send records req instead of transmitting it.
func (m *Mock) Send(_ context.Context, req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, SendCall{Message: req.Message, Target: req.Target})
	return nil
}

// Close marks the mock closed and closes the inbound channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.inbound)
	}
	return nil
}

// Deliver pushes in onto the inbound stream, as if it had arrived off the
// wire. Panics if called after Close.
func (m *Mock) Deliver(in Inbound) {
	m.inbound <- in
}

// SendCalls returns a copy of every recorded Send invocation, in order.
func (m *Mock) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]SendCall, len(m.sendCalls))
	copy(calls, m.sendCalls)
	return calls
}
