package server

import "github.com/corvidlabs/dnsflow/internal/wire"

// Action is the server's disposition for one inbound datagram, decided
// from its header alone before the cost of a full decode is paid.
type Action int

const (
	Accept Action = iota
	Reject
	Ignore
	NoImpl
)

func (a Action) String() string {
	switch a {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case NoImpl:
		return "noimpl"
	default:
		return "ignore"
	}
}

// Classify decides what to do with an inbound message given only its
// header: drop responses and messages with no question, report
// unimplemented opcodes rather than silently dropping them, refuse a QUERY
// that batches multiple questions, and accept a single-question QUERY.
func Classify(h wire.Header) Action {
	if h.QR {
		return Ignore
	}
	if h.QDCount == 0 {
		return Ignore
	}
	if h.Opcode != wire.OpcodeQuery {
		return NoImpl
	}
	if h.QDCount > 1 {
		return Reject
	}
	return Accept
}
