package mux

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/corvidlabs/dnsflow/internal/transport"
	"github.com/corvidlabs/dnsflow/internal/wire"
)

func testTarget() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 53}
}

func TestQueryMatchesByTransactionID(t *testing.T) {
	mt := transport.NewMock()
	m := New(mt)
	defer m.Close()

	q := wire.Message{
		Header:    wire.Header{QDCount: 1},
		Questions: []wire.Question{{Name: wire.MustParseName("example.com."), Type: wire.RTypeA, Class: wire.ClassIN}},
	}

	done := make(chan struct{})
	var got wire.Message
	var gotErr error
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		got, gotErr = m.Query(ctx, q, testTarget())
		close(done)
	}()

	// Wait for the send to be recorded, then reply using the ID the mux
	// actually stamped onto the outgoing message.
	var sentID uint16
	for i := 0; i < 100; i++ {
		calls := mt.SendCalls()
		if len(calls) == 1 {
			sentID = calls[0].Message.Header.ID
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	response := wire.Message{Header: wire.Header{ID: sentID, QR: true, ANCount: 1}}
	mt.Deliver(transport.Inbound{Message: response})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Query did not return")
	}

	if gotErr != nil {
		t.Fatalf("Query error: %v", gotErr)
	}
	if got.Header.ID != sentID {
		t.Errorf("response ID = %#x, want %#x", got.Header.ID, sentID)
	}
}

func TestQueryTimesOutWithoutResponse(t *testing.T) {
	mt := transport.NewMock()
	m := New(mt)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.Query(ctx, wire.Message{}, testTarget())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestUnmatchedResponseIsDropped(t *testing.T) {
	mt := transport.NewMock()
	m := New(mt)
	defer m.Close()

	mt.Deliver(transport.Inbound{Message: wire.Message{Header: wire.Header{ID: 0xBEEF}}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := m.Query(ctx, wire.Message{}, testTarget())
	if err == nil {
		t.Fatal("expected timeout error since the delivered message matched no inflight query")
	}
}
