package server

import (
	"testing"

	"github.com/corvidlabs/dnsflow/internal/wire"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		h    wire.Header
		want Action
	}{
		{"not a query", wire.Header{QR: true, QDCount: 1}, Ignore},
		{"no question", wire.Header{QR: false, QDCount: 0}, Ignore},
		{"unimplemented opcode", wire.Header{QR: false, QDCount: 1, Opcode: wire.OpcodeStatus}, NoImpl},
		{"multiple questions", wire.Header{QR: false, QDCount: 2, Opcode: wire.OpcodeQuery}, Reject},
		{"accept", wire.Header{QR: false, QDCount: 1, Opcode: wire.OpcodeQuery}, Accept},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.h); got != tc.want {
				t.Errorf("Classify(%+v) = %v, want %v", tc.h, got, tc.want)
			}
		})
	}
}
