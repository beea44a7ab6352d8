// Package resolver implements forwarding and recursive DNS resolution on
// top of client.Client.
package resolver

import (
	"context"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

// Resolver answers a full message's question by whatever means it
// implements (straight forwarding, or full recursive resolution).
type Resolver interface {
	Resolve(ctx context.Context, msg wire.Message) (wire.Message, error)
}

// singleQuestion extracts msg's lone question, returning a distinct error
// if the question section is empty.
func singleQuestion(msg wire.Message) (wire.Question, error) {
	if len(msg.Questions) == 0 {
		return wire.Question{}, &derrors.ProtocolError{Kind: "no question"}
	}
	return msg.Questions[0], nil
}
