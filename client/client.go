// Package client implements a single-socket DNS client: one query builds
// a message with a fresh transaction ID, hands it to the multiplexer, and
// awaits the matching response within a read deadline.
package client

import (
	"context"
	"net"
	"time"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/mux"
	"github.com/corvidlabs/dnsflow/internal/transport"
	"github.com/corvidlabs/dnsflow/internal/wire"
	"golang.org/x/sync/errgroup"
)

// Client sends DNS queries over one bound UDP socket, multiplexing
// concurrent callers by transaction ID.
type Client struct {
	cfg Config
	mx  *mux.Mux
}

// New binds a socket per cfg's IP version preference and starts the
// multiplexer over it.
func New(cfg Config) (*Client, error) {
	network := "udp4"
	switch cfg.IPVersion {
	case V6:
		network = "udp6"
	case Both:
		network = "udp"
	}

	bindCtx, cancel := context.WithTimeout(context.Background(), cfg.BindTimeout)
	defer cancel()

	addr, err := net.ResolveUDPAddr(network, cfg.IPVersion.bindAddr())
	if err != nil {
		return nil, &derrors.IOError{Op: "client.bind", Err: err}
	}

	type bindResult struct {
		conn *net.UDPConn
		err  error
	}
	resultCh := make(chan bindResult, 1)
	go func() {
		conn, err := net.ListenUDP(network, addr)
		resultCh <- bindResult{conn, err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, &derrors.IOError{Op: "client.bind", Err: r.err}
		}
		tr, err := transport.NewUDP(r.conn, cfg.BufferSize, transport.WithDSCP(cfg.DSCP))
		if err != nil {
			r.conn.Close()
			return nil, err
		}
		return &Client{cfg: cfg, mx: mux.New(tr)}, nil
	case <-bindCtx.Done():
		return nil, &derrors.TimeoutError{Op: "bind", Duration: cfg.BindTimeout}
	}
}

// Close shuts down the client's socket and multiplexer.
func (c *Client) Close() error {
	return c.mx.Close()
}

// Response is the result of a successful query: the decoded message plus
// its encoded wire length.
type Response struct {
	Message wire.Message
	Length  int
}

// Query sends a single-question message to target and waits for the
// matching response. The send is bounded by the client's write timeout and
// the wait for a reply by its read timeout.
func (c *Client) Query(ctx context.Context, q wire.Question, target net.Addr) (Response, error) {
	msg := wire.Message{
		Header:    wire.Header{QR: false, RD: true, QDCount: 1},
		Questions: []wire.Question{q},
	}

	readCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	resp, err := c.mx.QueryWithWriteTimeout(readCtx, msg, target, c.cfg.WriteTimeout)
	if err != nil {
		return Response{}, err
	}

	encoded, err := wire.EncodeMessage(resp)
	if err != nil {
		return Response{}, err
	}
	return Response{Message: resp, Length: len(encoded)}, nil
}

// QueryMulti fans a query out to every target concurrently and returns
// the first successful response. If every target fails, the last error
// observed is returned; responses that arrive after the first success are
// discarded.
func (c *Client) QueryMulti(ctx context.Context, q wire.Question, targets []net.Addr) (Response, error) {
	if len(targets) == 0 {
		return Response{}, &derrors.ProtocolError{Kind: "no more targets"}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		resp Response
		err  error
	}
	results := make(chan outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			resp, err := c.Query(gctx, q, target)
			select {
			case results <- outcome{resp, err}:
			case <-ctx.Done():
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	var lastErr error
	for res := range results {
		if res.err == nil {
			cancel()
			return res.resp, nil
		}
		lastErr = res.err
	}
	if lastErr == nil {
		lastErr = &derrors.ProtocolError{Kind: "no more targets"}
	}
	return Response{}, lastErr
}

// QueryDuration behaves exactly like Query but also reports the wall time
// the whole operation took.
func (c *Client) QueryDuration(ctx context.Context, q wire.Question, target net.Addr) (Response, time.Duration, error) {
	start := time.Now()
	resp, err := c.Query(ctx, q, target)
	return resp, time.Since(start), err
}
