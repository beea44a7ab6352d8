package wire

import (
	"bytes"
	"testing"
)

func TestOPTRecordRoundTrip(t *testing.T) {
	opt := OPT{
		UDPPayloadSize: 4096,
		ExtendedRCode:  0,
		Version:        0,
		Flags:          0x8000, // DO bit
		Options: []EDNSOption{
			{Code: OptionCodeCookie, Data: bytes.Repeat([]byte{0xAB}, 8)},
		},
	}
	rec := NewOPTRecord(opt)

	w := NewWriter(64)
	if err := EncodeRecord(w, rec); err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	got, err := DecodeRecord(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	gotOpt, ok := got.Data.(OPT)
	if !ok {
		t.Fatalf("decoded RData is %T, want OPT", got.Data)
	}
	if gotOpt.UDPPayloadSize != opt.UDPPayloadSize {
		t.Errorf("UDPPayloadSize = %d, want %d", gotOpt.UDPPayloadSize, opt.UDPPayloadSize)
	}
	if gotOpt.Flags != opt.Flags {
		t.Errorf("Flags = %#x, want %#x", gotOpt.Flags, opt.Flags)
	}
	if len(gotOpt.Options) != 1 || gotOpt.Options[0].Code != OptionCodeCookie {
		t.Fatalf("options mismatch: %#v", gotOpt.Options)
	}
}

func TestCookieOptionParsing(t *testing.T) {
	cases := []struct {
		name    string
		data    []byte
		wantOK  bool
		wantSrv bool
	}{
		{"client only", bytes.Repeat([]byte{1}, 8), true, false},
		{"client and server", append(bytes.Repeat([]byte{1}, 8), bytes.Repeat([]byte{2}, 16)...), true, true},
		{"too short", bytes.Repeat([]byte{1}, 4), false, false},
		{"server cookie too short", append(bytes.Repeat([]byte{1}, 8), bytes.Repeat([]byte{2}, 4)...), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt := EDNSOption{Code: OptionCodeCookie, Data: tc.data}
			client, server, ok := opt.Cookie()
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if len(client) != 8 {
				t.Errorf("client cookie length = %d, want 8", len(client))
			}
			if (len(server) > 0) != tc.wantSrv {
				t.Errorf("server cookie present = %v, want %v", len(server) > 0, tc.wantSrv)
			}
		})
	}
}

func TestUnknownEDNSOptionPreservedAsRawBytes(t *testing.T) {
	opt := OPT{Options: []EDNSOption{{Code: 65001, Data: []byte{1, 2, 3}}}}
	rec := NewOPTRecord(opt)

	w := NewWriter(64)
	if err := EncodeRecord(w, rec); err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	got, err := DecodeRecord(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	gotOpt := got.Data.(OPT)
	if len(gotOpt.Options) != 1 || gotOpt.Options[0].Code != 65001 || !bytes.Equal(gotOpt.Options[0].Data, []byte{1, 2, 3}) {
		t.Fatalf("unknown option not preserved: %#v", gotOpt.Options)
	}
}

func TestCombinedRCode(t *testing.T) {
	header := Header{RCode: RCodeNXDomain}
	if got := CombinedRCode(header, nil); got != RCodeNXDomain {
		t.Errorf("no-EDNS case: got %v, want %v", got, RCodeNXDomain)
	}

	opt := &OPT{ExtendedRCode: 1} // forms 0x1_3 = 0x13 = 19
	header = Header{RCode: RCodeNXDomain}
	if got := CombinedRCode(header, opt); got != RCode(0x13) {
		t.Errorf("combined: got %#x, want %#x", got, 0x13)
	}
}
