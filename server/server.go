// Package server implements the accept/classify/handle pipeline that
// turns inbound UDP datagrams into DNS responses: cache lookup first,
// falling through to a resolver, with the resolver's answers populating
// the cache for next time.
package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/corvidlabs/dnsflow/internal/cache"
	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/wire"
	"github.com/corvidlabs/dnsflow/resolver"
)

// Server owns a UDP socket and answers queries against a cache, falling
// back to a resolver on miss.
type Server struct {
	conn     *net.UDPConn
	cache    *cache.Cache
	resolver resolver.Resolver
	log      *slog.Logger
	workers  int

	bufSize int
}

// New binds a Server to conn. resolver may be nil, in which case every
// cache miss is answered with SERVFAIL rather than resolved.
func New(conn *net.UDPConn, c *cache.Cache, r resolver.Resolver, opts ...Option) *Server {
	s := &Server{
		conn:     conn,
		cache:    c,
		resolver: r,
		log:      slog.Default(),
		workers:  1,
		bufSize:  4096,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve reads datagrams until ctx is canceled or the socket errors,
// dispatching each to the handler pipeline on one of Server.workers
// goroutines.
func (s *Server) Serve(ctx context.Context) error {
	type datagram struct {
		buf  []byte
		from *net.UDPAddr
	}
	work := make(chan datagram, s.workers*4)

	done := make(chan struct{})
	for i := 0; i < s.workers; i++ {
		go func() {
			for d := range work {
				s.handleDatagram(ctx, d.buf, d.from)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		s.conn.Close()
		close(done)
	}()

	for {
		buf := make([]byte, s.bufSize)
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			close(work)
			select {
			case <-done:
				return nil
			default:
				return &derrors.IOError{Op: "server.recv", Err: err}
			}
		}
		select {
		case work <- datagram{buf: buf[:n], from: from}:
		case <-ctx.Done():
			close(work)
			return nil
		}
	}
}

func (s *Server) handleDatagram(ctx context.Context, buf []byte, from *net.UDPAddr) {
	header, err := wire.DecodeHeaderOnly(buf)
	if err != nil {
		s.log.Warn("dropping undecodable datagram header", "from", from, "error", err)
		return
	}

	switch Classify(header) {
	case Ignore:
		return
	case NoImpl:
		s.replyWithCode(buf, from, wire.RCodeNotImp)
	case Reject:
		s.replyWithCode(buf, from, wire.RCodeRefused)
	case Accept:
		s.handleQuery(ctx, buf, from)
	}
}

func (s *Server) replyWithCode(buf []byte, from *net.UDPAddr, rcode wire.RCode) {
	msg, err := wire.DecodeMessage(buf)
	if err != nil {
		s.log.Warn("dropping message that failed full decode after header accept", "from", from, "error", err)
		return
	}
	resp := msg
	resp.Header.QR = true
	resp.Header.RCode = rcode
	resp.Answers, resp.Authorities, resp.Additionals = nil, nil, nil
	s.send(resp, from)
}

func (s *Server) handleQuery(ctx context.Context, buf []byte, from *net.UDPAddr) {
	msg, err := wire.DecodeMessage(buf)
	if err != nil {
		s.log.Warn("dropping message that failed full decode after header accept", "from", from, "error", err)
		return
	}

	q := msg.Questions[0]
	if records, status := s.cache.Lookup(q.Name, q.Type); status == cache.Hit {
		s.send(buildResponse(msg, records, wire.RCodeNoError), from)
		return
	}

	if s.resolver == nil {
		s.send(buildResponse(msg, nil, wire.RCodeServFail), from)
		return
	}

	result, err := s.resolver.Resolve(ctx, msg)
	if err != nil {
		s.log.Warn("resolver failed", "question", q.Name.String(), "error", err)
		s.send(buildResponse(msg, nil, wire.RCodeServFail), from)
		return
	}

	s.populateCache(result)

	resp := result
	resp.Header.ID = msg.Header.ID
	resp.Header.QR = true
	resp.Questions = msg.Questions
	s.send(resp, from)
}

func buildResponse(query wire.Message, answers []wire.Record, rcode wire.RCode) wire.Message {
	return wire.Message{
		Header: wire.Header{
			ID:      query.Header.ID,
			QR:      true,
			RD:      query.Header.RD,
			RA:      true,
			RCode:   rcode,
			QDCount: uint16(len(query.Questions)),
		},
		Questions: query.Questions,
		Answers:   answers,
	}
}

// populateCache groups a resolved message's answer records by owner name
// and inserts each group, so a later lookup for the same name/type hits.
func (s *Server) populateCache(msg wire.Message) {
	groups := make(map[string][]wire.Record)
	order := make([]wire.Name, 0, len(msg.Answers))
	for _, rec := range msg.Answers {
		key := rec.Header.Name.String()
		if _, ok := groups[key]; !ok {
			order = append(order, rec.Header.Name)
		}
		groups[key] = append(groups[key], rec)
	}
	for _, name := range order {
		s.cache.Insert(name, groups[name.String()])
	}
}

func (s *Server) send(msg wire.Message, to *net.UDPAddr) {
	out, err := wire.EncodeMessage(msg)
	if err != nil {
		s.log.Error("failed to encode response", "error", err)
		return
	}
	if _, err := s.conn.WriteToUDP(out, to); err != nil {
		s.log.Warn("failed to send response", "to", to, "error", err)
	}
}
