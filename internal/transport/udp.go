package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/wire"
	"golang.org/x/net/ipv4"
)

// UDP is a Transport over a single bound *net.UDPConn. One goroutine drains
// the socket into Inbound; a second goroutine drains a single-slot outbound
// queue, giving Send the "one pending flush at a time" back-pressure the
// multiplexer relies on to avoid unbounded write buffering. Both loops read
// and write through an ipv4.PacketConn wrapping conn, the same wrapping the
// teacher's socket layer uses, so the per-packet send path can mark DSCP and
// the receive path goes through the same control-message-aware call the
// dependency exists for rather than the bare *net.UDPConn methods.
type UDP struct {
	conn    *net.UDPConn
	pconn   *ipv4.PacketConn
	bufSize int
	dscp    int

	inbound  chan Inbound
	outbound chan Request
	done     chan struct{}
	closeErr error
	once     sync.Once
}

// NewUDP wraps conn as a Transport. bufSize is the per-packet receive
// buffer; it must be at least MinBufferSize since any legal DNS response
// can be that large even without EDNS. opts may set the outgoing DSCP
// marking (default: unmarked).
func NewUDP(conn *net.UDPConn, bufSize int, opts ...Option) (*UDP, error) {
	if bufSize < MinBufferSize {
		return nil, &derrors.CodecError{Op: "transport.NewUDP", Offset: -1, Msg: "buffer size below minimum"}
	}

	t := &UDP{
		conn:     conn,
		pconn:    ipv4.NewPacketConn(conn),
		bufSize:  bufSize,
		inbound:  make(chan Inbound, 256),
		outbound: make(chan Request, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.SetDSCP(t.dscp); err != nil {
		return nil, &derrors.IOError{Op: "transport.NewUDP", Err: err}
	}
	go t.recvLoop()
	go t.sendLoop()
	return t, nil
}

func (t *UDP) Inbound() <-chan Inbound { return t.inbound }

// Send enqueues req for transmission, blocking until the prior send has
// been flushed, ctx is canceled, or the transport is closed.
func (t *UDP) Send(ctx context.Context, req Request) error {
	dur := time.Duration(0)
	if dl, ok := ctx.Deadline(); ok {
		dur = time.Until(dl)
	}
	select {
	case t.outbound <- req:
		return nil
	case <-ctx.Done():
		return &derrors.TimeoutError{Op: "write", Duration: dur}
	case <-t.done:
		return &derrors.IOError{Op: "transport.Send", Err: net.ErrClosed}
	}
}

// Close stops both loops and closes the underlying socket. Safe to call
// more than once.
func (t *UDP) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *UDP) recvLoop() {
	defer close(t.inbound)
	buf := make([]byte, t.bufSize)
	for {
		n, _, addr, err := t.pconn.ReadFrom(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.emit(Inbound{Err: &derrors.IOError{Op: "transport.recv", Err: err}})
			continue
		}

		msg, decErr := wire.DecodeMessage(buf[:n])
		if decErr != nil {
			t.emit(Inbound{Length: n, From: addr, Err: decErr})
			continue
		}
		t.emit(Inbound{Message: msg, Length: n, From: addr})
	}
}

func (t *UDP) emit(in Inbound) {
	select {
	case t.inbound <- in:
	case <-t.done:
	}
}

func (t *UDP) sendLoop() {
	for {
		select {
		case req := <-t.outbound:
			t.flush(req)
		case <-t.done:
			return
		}
	}
}

func (t *UDP) flush(req Request) {
	payload, err := wire.EncodeMessage(req.Message)
	if err != nil {
		return
	}
	udpAddr, ok := req.Target.(*net.UDPAddr)
	if !ok {
		return
	}
	_, _ = t.pconn.WriteTo(payload, nil, udpAddr)
}

// SetDSCP configures the outgoing DiffServ code point on the socket. DNS
// resolvers commonly mark query traffic for priority queuing; it is applied
// once at construction from the WithDSCP option (default: unmarked), and
// remains exported so a caller can re-mark an already-running transport.
func (t *UDP) SetDSCP(dscp int) error {
	t.dscp = dscp
	return t.pconn.SetTOS(dscp << 2)
}
