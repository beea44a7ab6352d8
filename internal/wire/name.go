package wire

import (
	"strings"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
)

const (
	// MaxLabelLength is the largest a single label may be, per RFC 1035 §3.1.
	MaxLabelLength = 63
	// MaxNameLength is the largest a name's encoded wire size may be,
	// including length octets and the terminating zero, per RFC 1035 §3.1.
	MaxNameLength = 255
)

// Label is a single DNS name component, stored case-folded (ASCII uppercase
// mapped to lowercase) so two labels compare and hash equal regardless of
// how they were written on the wire.
type Label string

// NewLabel lowercases raw and validates its length.
func NewLabel(raw string) (Label, error) {
	if len(raw) > MaxLabelLength {
		return "", &derrors.CodecError{
			Op:     "new label",
			Offset: -1,
			Msg:    "label too long",
		}
	}
	return Label(foldASCII(raw)), nil
}

func foldASCII(s string) string {
	needsFold := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsFold = true
			break
		}
	}
	if !needsFold {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Name is an ordered sequence of labels from most-specific to root. A name
// with zero labels is the root name.
type Name struct {
	labels []Label
}

// RootName is the zero-label name.
func RootName() Name { return Name{} }

// ParseName splits a dotted string ("www.example.com" or "www.example.com.")
// into a Name, case-folding and validating each label.
func ParseName(s string) (Name, error) {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return RootName(), nil
	}
	parts := strings.Split(s, ".")
	labels := make([]Label, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return Name{}, &derrors.CodecError{Op: "parse name", Offset: -1, Msg: "empty label"}
		}
		l, err := NewLabel(p)
		if err != nil {
			return Name{}, err
		}
		labels = append(labels, l)
	}
	n := Name{labels: labels}
	if n.WireSize() > MaxNameLength {
		return Name{}, &derrors.CodecError{Op: "parse name", Offset: -1, Msg: "name too long"}
	}
	return n, nil
}

// MustParseName is ParseName but panics on error; intended for constants in
// tests and root-hint tables, never for data off the wire or from users.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Labels returns the name's labels, most-specific first.
func (n Name) Labels() []Label { return n.labels }

// IsRoot reports whether n has zero labels.
func (n Name) IsRoot() bool { return len(n.labels) == 0 }

// WireSize returns the number of bytes n occupies on the wire: one length
// octet per label plus the label bytes plus the terminating zero octet.
func (n Name) WireSize() int {
	size := 1
	for _, l := range n.labels {
		size += 1 + len(l)
	}
	return size
}

// String renders the name in dotted form, with a trailing dot for
// non-root names, matching conventional DNS display.
func (n Name) String() string {
	if n.IsRoot() {
		return "."
	}
	parts := make([]string, len(n.labels))
	for i, l := range n.labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ".") + "."
}

// Equal reports whether n and other have the same labels. Labels are
// already case-folded at construction, so this is a plain comparison.
func (n Name) Equal(other Name) bool {
	if len(n.labels) != len(other.labels) {
		return false
	}
	for i := range n.labels {
		if n.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

// LabelsReversed returns the labels root-most first, the order the label
// tree traverses in.
func (n Name) LabelsReversed() []Label {
	rev := make([]Label, len(n.labels))
	for i, l := range n.labels {
		rev[len(n.labels)-1-i] = l
	}
	return rev
}

// EncodeName appends n's wire representation to w: each label as a length
// octet followed by its bytes, terminated by a zero octet. It does not
// emit compression pointers; compression is optional to emit and this
// codec always writes names in canonical (uncompressed) form.
func EncodeName(w *Writer, n Name) error {
	if n.WireSize() > MaxNameLength {
		return &derrors.CodecError{Op: "encode name", Offset: w.Len(), Msg: "name too long"}
	}
	for _, l := range n.labels {
		if len(l) > MaxLabelLength {
			return &derrors.CodecError{Op: "encode name", Offset: w.Len(), Msg: "label too long"}
		}
		w.PutByte(byte(len(l)))
		w.PutBytes([]byte(l))
	}
	w.PutByte(0)
	return nil
}

// nameDecodeState is the four-state machine driving DecodeName.
type nameDecodeState int

const (
	stateLabelLenOrPointer nameDecodeState = iota
	statePointer
	stateLabel
	stateRoot
)

// DecodeName decodes a name starting at r's current position, following
// compression pointers as needed. Every jumped-to offset is required to be
// strictly less than the offset it was read from, which guarantees
// termination against pointer loops.
func DecodeName(r *Reader) (Name, error) {
	// Special case: an immediate terminator is the root name.
	first, err := r.Peek()
	if err != nil {
		return RootName(), nil
	}
	if first == 0 {
		_, _ = r.Pop()
		return RootName(), nil
	}

	var labels []Label
	size := 1 // terminating zero
	jumped := false
	state := stateLabelLenOrPointer

	for {
		switch state {
		case stateLabelLenOrPointer:
			b, err := r.Peek()
			if err != nil {
				state = stateRoot
				continue
			}
			switch {
			case b == 0:
				state = stateRoot
			case b&0xC0 == 0xC0:
				state = statePointer
			case b&0xC0 == 0x00:
				state = stateLabel
			default:
				return Name{}, &derrors.CodecError{
					Op: "parse name", Offset: r.Offset(),
					Msg: "invalid label length or pointer",
				}
			}

		case statePointer:
			before := r.Offset()
			hi, err := r.ReadU16()
			if err != nil {
				return Name{}, err
			}
			target := int(hi & 0x3FFF)
			if target >= before {
				return Name{}, &derrors.CodecError{
					Op: "parse name", Offset: before,
					Msg: "invalid pointer location",
				}
			}
			if !jumped {
				if err := r.JumpTo(target); err != nil {
					return Name{}, err
				}
				jumped = true
			} else {
				r.Seek(target)
			}
			state = stateLabelLenOrPointer

		case stateLabel:
			str, err := r.ReadCharacterString(MaxLabelLength)
			if err != nil {
				return Name{}, err
			}
			label, err := NewLabel(string(str))
			if err != nil {
				return Name{}, err
			}
			size += 1 + len(label)
			if size > MaxNameLength {
				return Name{}, &derrors.CodecError{
					Op: "parse name", Offset: r.Offset(),
					Msg: "name too long",
				}
			}
			labels = append(labels, label)
			state = stateLabelLenOrPointer

		case stateRoot:
			if jumped {
				r.JumpReset()
			} else {
				// Consume the terminating zero, tolerating a buffer that
				// ended exactly at the name (Peek already failed above).
				if _, err := r.Peek(); err == nil {
					_, _ = r.Pop()
				}
			}
			return Name{labels: labels}, nil
		}
	}
}
