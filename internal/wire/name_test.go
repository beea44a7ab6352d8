package wire

import (
	"strings"
	"testing"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
)

func TestParseNameCaseInsensitiveEquality(t *testing.T) {
	a := MustParseName("EXAMPLE.COM")
	b := MustParseName("example.com")
	if !a.Equal(b) {
		t.Fatalf("expected %q and %q to compare equal", a, b)
	}
}

func TestNameEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		".",
		"example.com.",
		"www.example.com.",
		"a.b.c.",
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			n := MustParseName(s)
			w := NewWriter(64)
			if err := EncodeName(w, n); err != nil {
				t.Fatalf("EncodeName: %v", err)
			}
			r := NewReader(w.Bytes())
			got, err := DecodeName(r)
			if err != nil {
				t.Fatalf("DecodeName: %v", err)
			}
			if !got.Equal(n) {
				t.Errorf("round trip mismatch: got %q, want %q", got, n)
			}
		})
	}
}

func TestNameExactly255OctetsRoundTrips(t *testing.T) {
	// 63+1 three times plus a trailing label sized to land exactly on 255,
	// plus the terminating zero: (1+63)*3 + (1+61) + 1 = 192+62+1 = 255.
	label63 := strings.Repeat("a", 63)
	label61 := strings.Repeat("b", 61)
	dotted := strings.Join([]string{label63, label63, label63, label61}, ".") + "."

	n, err := ParseName(dotted)
	if err != nil {
		t.Fatalf("ParseName: %v", err)
	}
	if n.WireSize() != 255 {
		t.Fatalf("WireSize() = %d, want 255", n.WireSize())
	}

	w := NewWriter(256)
	if err := EncodeName(w, n); err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	if len(w.Bytes()) != 255 {
		t.Fatalf("encoded length = %d, want 255", len(w.Bytes()))
	}
	r := NewReader(w.Bytes())
	if _, err := DecodeName(r); err != nil {
		t.Fatalf("DecodeName: %v", err)
	}
}

func TestNameTooLongRejected(t *testing.T) {
	label63 := strings.Repeat("a", 63)
	label62 := strings.Repeat("b", 62) // pushes total to 256
	dotted := strings.Join([]string{label63, label63, label63, label62}, ".") + "."

	if _, err := ParseName(dotted); err == nil {
		t.Fatal("expected name-too-long error")
	}
}

func TestLabel63AcceptedLabel64Rejected(t *testing.T) {
	if _, err := NewLabel(strings.Repeat("a", 63)); err != nil {
		t.Fatalf("63-octet label should be accepted: %v", err)
	}
	if _, err := NewLabel(strings.Repeat("a", 64)); err == nil {
		t.Fatal("64-octet label should be rejected")
	}
}

func TestDecodeNameForwardPointerRejected(t *testing.T) {
	// A two-byte pointer living at offset 0 whose target (offset 5) is
	// forward of the pointer's own position: invalid per §4.2.
	buf := []byte{0xC0, 0x05, 0, 0, 0, 0}
	r := NewReader(buf)
	_, err := DecodeName(r)
	if err == nil {
		t.Fatal("expected invalid-pointer-location error")
	}
	var codecErr *derrors.CodecError
	if !asCodecError(err, &codecErr) {
		t.Fatalf("expected *derrors.CodecError, got %T", err)
	}
}

func TestDecodeNameCompressionPointerChain(t *testing.T) {
	// Message layout:
	//   offset 0: "a.b.c." uncompressed (7 bytes: 1a 1b 1c 00)
	//   offset 7: a pointer back to offset 0
	buf := []byte{
		1, 'a', 1, 'b', 1, 'c', 0,
		0xC0, 0x00,
	}
	r := NewReader(buf)
	first, err := DecodeName(r)
	if err != nil {
		t.Fatalf("DecodeName(first): %v", err)
	}
	if first.String() != "a.b.c." {
		t.Fatalf("first = %q, want a.b.c.", first)
	}
	if r.Offset() != 7 {
		t.Fatalf("offset after first name = %d, want 7", r.Offset())
	}

	second, err := DecodeName(r)
	if err != nil {
		t.Fatalf("DecodeName(second): %v", err)
	}
	if !second.Equal(first) {
		t.Fatalf("second = %q, want %q", second, first)
	}
	if r.Offset() != 9 {
		t.Fatalf("offset after pointer = %d, want 9 (right after the 2-byte pointer)", r.Offset())
	}
}

func asCodecError(err error, target **derrors.CodecError) bool {
	ce, ok := err.(*derrors.CodecError)
	if ok {
		*target = ce
	}
	return ok
}
