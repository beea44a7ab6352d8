package resolver

import (
	"context"
	"net"

	"github.com/corvidlabs/dnsflow/client"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

// Querier is the subset of client.Client a resolver needs, kept narrow so
// resolvers can be tested against a fake.
type Querier interface {
	Query(ctx context.Context, q wire.Question, target net.Addr) (client.Response, error)
}

// Forwarding resolves every question by relaying it unchanged to a single
// upstream nameserver.
type Forwarding struct {
	client   Querier
	upstream net.Addr
}

// NewForwarding returns a resolver that forwards all questions to upstream.
func NewForwarding(c Querier, upstream net.Addr) *Forwarding {
	return &Forwarding{client: c, upstream: upstream}
}

// Resolve extracts msg's single question and relays it to the configured
// upstream, propagating client errors as resolver errors.
func (f *Forwarding) Resolve(ctx context.Context, msg wire.Message) (wire.Message, error) {
	q, err := singleQuestion(msg)
	if err != nil {
		return wire.Message{}, err
	}
	resp, err := f.client.Query(ctx, q, f.upstream)
	if err != nil {
		return wire.Message{}, err
	}
	return resp.Message, nil
}
