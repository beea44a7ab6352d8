package resolver

import (
	"context"
	"errors"
	"net"
	"sync"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/tree"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

// Hint is one root nameserver's address pair, as carried by an NS record
// at the root of a parsed zone plus its glue A/AAAA records.
type Hint struct {
	IPv4 net.IP
	IPv6 net.IP
}

// HintsFromTree collects root hints from t: every NS record at the root
// node, paired with whatever A/AAAA glue records exist for that NS's own
// name elsewhere in the tree.
func HintsFromTree(t *tree.Tree) []Hint {
	var hints []Hint
	for _, rec := range t.Root().Records() {
		ns, ok := rec.Data.(wire.RDataNS)
		if !ok {
			continue
		}
		nsNode := t.FindNode(ns.NS)
		if nsNode == nil {
			continue
		}

		var h Hint
		for _, glue := range nsNode.Records() {
			switch d := glue.Data.(type) {
			case wire.RDataA:
				h.IPv4 = d.Addr
			case wire.RDataAAAA:
				h.IPv6 = d.Addr
			}
		}
		hints = append(hints, h)
	}
	return hints
}

// Recursive implements full iterative/recursive resolution starting from
// a rotating set of root hints, following referrals until an answer is
// found or every candidate is exhausted.
type Recursive struct {
	client Querier

	mu        sync.Mutex
	hintIndex int
	hints     []Hint
}

// NewRecursive returns a recursive resolver seeded with hints. Calling it
// with no hints is legal but every resolution will fail with "no more
// targets".
func NewRecursive(c Querier, hints []Hint) *Recursive {
	return &Recursive{client: c, hints: hints}
}

// nextHint returns the next root hint in round-robin order under mutual
// exclusion, preferring the IPv4 address (the original targets always
// carried an IPv4-shaped candidate list).
func (r *Recursive) nextHint() (net.IP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.hints) == 0 {
		return nil, &derrors.ProtocolError{Kind: "no more targets", Msg: "no root hints configured"}
	}
	if r.hintIndex >= len(r.hints) {
		r.hintIndex = 0
	}
	h := r.hints[r.hintIndex]
	r.hintIndex++

	if h.IPv4 != nil {
		return h.IPv4, nil
	}
	return h.IPv6, nil
}

// Resolve implements Resolver by delegating straight to ResolveRaw.
func (r *Recursive) Resolve(ctx context.Context, msg wire.Message) (wire.Message, error) {
	q, err := singleQuestion(msg)
	if err != nil {
		return wire.Message{}, err
	}
	return r.ResolveRaw(ctx, q)
}

// ResolveRaw runs the referral-following state machine for a single
// question, independent of any enclosing message.
func (r *Recursive) ResolveRaw(ctx context.Context, q wire.Question) (wire.Message, error) {
	seed, err := r.nextHint()
	if err != nil {
		return wire.Message{}, err
	}
	candidates := []net.IP{seed}

	for {
		if len(candidates) == 0 {
			return wire.Message{}, &derrors.ProtocolError{Kind: "no more targets"}
		}
		target := candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]

		msg, err := r.queryOne(ctx, q, target)
		if err != nil {
			var timeout *derrors.TimeoutError
			if errors.As(err, &timeout) && timeout.Op == "read" {
				continue
			}
			return wire.Message{}, err
		}

		if msg.Header.ANCount > 0 || len(msg.Answers) > 0 {
			return msg, nil
		}
		if msg.Header.NSCount == 0 && len(msg.Authorities) == 0 {
			return wire.Message{}, &derrors.ProtocolError{Kind: "no answer"}
		}

		if glue := findGlueRecords(msg); len(glue) > 0 {
			candidates = glue
			continue
		}

		next, ok := r.resolveViaAuthorities(ctx, msg, q.Class)
		if ok {
			candidates = next
		}
		// If no NS name resolved to an address, the candidates still left
		// are tried next; once none remain the loop fails with "no more
		// targets".
	}
}

func (r *Recursive) queryOne(ctx context.Context, q wire.Question, target net.IP) (wire.Message, error) {
	addr := &net.UDPAddr{IP: target, Port: 53}
	resp, err := r.client.Query(ctx, q, addr)
	if err != nil {
		return wire.Message{}, err
	}
	return resp.Message, nil
}

// findGlueRecords scans msg's authority section for NS records and
// collects A/AAAA addresses from the additional section whose owner name
// matches the NS target. AAAA glue is matched in addition to A.
func findGlueRecords(msg wire.Message) []net.IP {
	var addrs []net.IP
	for _, auth := range msg.Authorities {
		ns, ok := auth.Data.(wire.RDataNS)
		if !ok {
			continue
		}
		for _, add := range msg.Additionals {
			if !add.Header.Name.Equal(ns.NS) {
				continue
			}
			switch d := add.Data.(type) {
			case wire.RDataA:
				addrs = append(addrs, d.Addr)
			case wire.RDataAAAA:
				addrs = append(addrs, d.Addr)
			}
		}
	}
	return addrs
}

// resolveViaAuthorities falls back to recursively resolving each NS
// record's own name to an A address when the server supplied no glue. A
// failed lookup for one NS name simply falls through to the next; the
// first NS whose name resolves successfully wins.
func (r *Recursive) resolveViaAuthorities(ctx context.Context, msg wire.Message, class wire.Class) ([]net.IP, bool) {
	for _, auth := range msg.Authorities {
		ns, ok := auth.Data.(wire.RDataNS)
		if !ok {
			continue
		}
		nsQ := wire.Question{Name: ns.NS, Type: wire.RTypeA, Class: class}
		result, err := r.ResolveRaw(ctx, nsQ)
		if err != nil {
			continue
		}
		var addrs []net.IP
		for _, ans := range result.Answers {
			if a, ok := ans.Data.(wire.RDataA); ok {
				addrs = append(addrs, a.Addr)
			}
		}
		if len(addrs) > 0 {
			return addrs, true
		}
	}
	return nil, false
}

// ResolveSOA queries for name's SOA record, for callers that need to
// discover the authoritative zone apex before issuing further queries.
// Neither spec.md nor the original implementation this repo learns from
// finished this path; this is a minimal supplement built the same way
// ResolveRaw is.
func (r *Recursive) ResolveSOA(ctx context.Context, name wire.Name, class wire.Class) (wire.RDataSOA, error) {
	msg, err := r.ResolveRaw(ctx, wire.Question{Name: name, Type: wire.RTypeSOA, Class: class})
	if err != nil {
		return wire.RDataSOA{}, err
	}
	for _, ans := range msg.Answers {
		if soa, ok := ans.Data.(wire.RDataSOA); ok {
			return soa, nil
		}
	}
	return wire.RDataSOA{}, &derrors.ProtocolError{Kind: "no soa"}
}
