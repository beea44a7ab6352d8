package wire

import "testing"

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Header{
		{ID: 0x1234, QR: false, Opcode: OpcodeQuery, RD: true, QDCount: 1},
		{ID: 0xBEEF, QR: true, Opcode: OpcodeQuery, AA: true, RA: true, RCode: RCodeNXDomain, ANCount: 2},
		{ID: 0, QR: true, Opcode: OpcodeStatus, TC: true, RCode: RCodeServFail},
	}
	for _, h := range cases {
		w := NewWriter(12)
		EncodeHeader(w, h)
		if len(w.Bytes()) != 12 {
			t.Fatalf("encoded header is %d bytes, want 12", len(w.Bytes()))
		}
		got, err := DecodeHeader(NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if got != h {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
		}
	}
}

func TestHeaderReservedRCodeSentinel(t *testing.T) {
	w := NewWriter(12)
	// Hand-pack flags with RCODE nibble set to 9 (in the 6..15 reserved
	// range) without going through EncodeHeader's own RCode field.
	w.PutU16(0x0001)
	w.PutU16(0x0009)
	w.PutU16(0)
	w.PutU16(0)
	w.PutU16(0)
	w.PutU16(0)

	got, err := DecodeHeader(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.RCode != RCodeReserved {
		t.Errorf("RCode = %v, want RCodeReserved for wire value 9", got.RCode)
	}
}

func TestHeaderReservedOpcodeSentinel(t *testing.T) {
	w := NewWriter(12)
	// Hand-pack flags with OPCODE nibble set to 7 (in the 3..15 reserved
	// range) without going through EncodeHeader's own Opcode field.
	w.PutU16(0x0001)
	w.PutU16(7 << 11)
	w.PutU16(0)
	w.PutU16(0)
	w.PutU16(0)
	w.PutU16(0)

	got, err := DecodeHeader(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.Opcode != OpcodeReserved {
		t.Errorf("Opcode = %v, want OpcodeReserved for wire value 7", got.Opcode)
	}
}

func TestHeaderTooShort(t *testing.T) {
	if _, err := DecodeHeader(NewReader([]byte{0, 1, 2})); err == nil {
		t.Fatal("expected error decoding a truncated header")
	}
}
