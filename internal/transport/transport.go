// Package transport provides the socket abstraction the multiplexer runs
// over: a lazy stream of inbound messages and a back-pressured sink of
// outbound requests. UDP is the only concrete implementation; the
// interface is narrow enough that a length-prefixed TCP or DoT transport
// could implement it too.
package transport

import (
	"context"
	"net"

	"github.com/corvidlabs/dnsflow/internal/wire"
)

// MinBufferSize is the smallest receive buffer a Transport may be
// configured with.
const MinBufferSize = 512

// Request is an outbound message paired with its destination.
type Request struct {
	Message wire.Message
	Target  net.Addr
}

// Inbound is one item off a Transport's receive stream: either a
// successfully decoded message, or a decode error that the stream
// surfaces without closing (a bad packet never ends the stream).
type Inbound struct {
	Message wire.Message
	Length  int
	From    net.Addr
	Err     error
}

// Transport is the socket contract the multiplexer consumes. Inbound
// yields a channel that is closed when the underlying socket is closed.
// Send enqueues req for transmission and blocks until the single pending
// send slot is free, ctx is done, or the transport is closed.
type Transport interface {
	Inbound() <-chan Inbound
	Send(ctx context.Context, req Request) error
	Close() error
}
