package wire

import (
	"fmt"
	"net"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
)

// RData is the parsed record-specific data of a resource record. Each
// concrete type below corresponds to exactly one RType; Record.RHeader.Type
// and the dynamic type of RData must agree: EncodeRecord rejects a mismatch,
// and decodeRData picks the concrete type from the header's type.
type RData interface {
	// Type returns the RType this RData decodes/encodes as.
	Type() RType
	encode(w *Writer) error
}

// RDataA is an IPv4 address record (4 octets, big-endian).
type RDataA struct{ Addr net.IP }

func (RDataA) Type() RType { return RTypeA }
func (r RDataA) encode(w *Writer) error {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return &derrors.CodecError{Op: "encode A", Offset: w.Len(), Msg: "not an IPv4 address"}
	}
	w.PutBytes(ip4)
	return nil
}

// RDataAAAA is an IPv6 address record (16 octets, big-endian).
type RDataAAAA struct{ Addr net.IP }

func (RDataAAAA) Type() RType { return RTypeAAAA }
func (r RDataAAAA) encode(w *Writer) error {
	ip6 := r.Addr.To16()
	if ip6 == nil {
		return &derrors.CodecError{Op: "encode AAAA", Offset: w.Len(), Msg: "not an IPv6 address"}
	}
	w.PutBytes(ip6)
	return nil
}

// RDataNS is an authoritative nameserver record.
type RDataNS struct{ NS Name }

func (RDataNS) Type() RType { return RTypeNS }
func (r RDataNS) encode(w *Writer) error { return EncodeName(w, r.NS) }

// RDataCNAME is a canonical name alias record.
type RDataCNAME struct{ Target Name }

func (RDataCNAME) Type() RType { return RTypeCNAME }
func (r RDataCNAME) encode(w *Writer) error { return EncodeName(w, r.Target) }

// RDataPTR is a domain-name pointer record (used for reverse lookups).
type RDataPTR struct{ Target Name }

func (RDataPTR) Type() RType { return RTypePTR }
func (r RDataPTR) encode(w *Writer) error { return EncodeName(w, r.Target) }

// RDataSOA is a start-of-authority record.
type RDataSOA struct {
	MName   Name
	RName   Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (RDataSOA) Type() RType { return RTypeSOA }
func (r RDataSOA) encode(w *Writer) error {
	if err := EncodeName(w, r.MName); err != nil {
		return err
	}
	if err := EncodeName(w, r.RName); err != nil {
		return err
	}
	w.PutU32(r.Serial)
	w.PutU32(r.Refresh)
	w.PutU32(r.Retry)
	w.PutU32(r.Expire)
	w.PutU32(r.Minimum)
	return nil
}

// RDataMX is a mail-exchange record.
type RDataMX struct {
	Preference uint16
	Exchange   Name
}

func (RDataMX) Type() RType { return RTypeMX }
func (r RDataMX) encode(w *Writer) error {
	w.PutU16(r.Preference)
	return EncodeName(w, r.Exchange)
}

// RDataHINFO describes host CPU and OS as two character-strings.
type RDataHINFO struct {
	CPU []byte
	OS  []byte
}

func (RDataHINFO) Type() RType { return RTypeHINFO }
func (r RDataHINFO) encode(w *Writer) error {
	if err := w.PutCharacterString(r.CPU); err != nil {
		return err
	}
	return w.PutCharacterString(r.OS)
}

// RDataMINFO names a mailbox responsible for a mailing list or mailbox.
type RDataMINFO struct {
	RMailbx Name
	EMailbx Name
}

func (RDataMINFO) Type() RType { return RTypeMINFO }
func (r RDataMINFO) encode(w *Writer) error {
	if err := EncodeName(w, r.RMailbx); err != nil {
		return err
	}
	return EncodeName(w, r.EMailbx)
}

// RDataTXT is one or more character-strings filling the record's RDATA.
type RDataTXT struct{ Strings [][]byte }

func (RDataTXT) Type() RType { return RTypeTXT }
func (r RDataTXT) encode(w *Writer) error {
	for _, s := range r.Strings {
		if err := w.PutCharacterString(s); err != nil {
			return err
		}
	}
	return nil
}

// RDataNULL is opaque RDATA of arbitrary length.
type RDataNULL struct{ Data []byte }

func (RDataNULL) Type() RType { return RTypeNULL }
func (r RDataNULL) encode(w *Writer) error { w.PutBytes(r.Data); return nil }

// RDataUnknown preserves the raw RDATA bytes of a record whose type this
// codec does not otherwise model, so messages round-trip even when they
// carry record types outside the known set.
type RDataUnknown struct {
	RType RType
	Data  []byte
}

func (r RDataUnknown) Type() RType { return r.RType }
func (r RDataUnknown) encode(w *Writer) error { w.PutBytes(r.Data); return nil }

// decodeRData dispatches on ty and reads exactly rdlen bytes of RDATA,
// verifying afterward that decoding consumed exactly that many bytes.
func decodeRData(r *Reader, ty RType, rdlen uint16) (RData, error) {
	start := r.Offset()

	rdata, err := decodeRDataBody(r, ty, rdlen)
	if err != nil {
		return nil, err
	}

	consumed := r.Offset() - start
	if consumed != int(rdlen) {
		return nil, &derrors.CodecError{
			Op: "decode rdata", Offset: start,
			Msg: fmt.Sprintf("invalid rdata length: expected %d, got %d", rdlen, consumed),
		}
	}
	return rdata, nil
}

func decodeRDataBody(r *Reader, ty RType, rdlen uint16) (RData, error) {
	switch ty {
	case RTypeA:
		b, err := r.ReadN(4)
		if err != nil {
			return nil, err
		}
		return RDataA{Addr: net.IP(append([]byte(nil), b...))}, nil

	case RTypeAAAA:
		b, err := r.ReadN(16)
		if err != nil {
			return nil, err
		}
		return RDataAAAA{Addr: net.IP(append([]byte(nil), b...))}, nil

	case RTypeNS:
		n, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		return RDataNS{NS: n}, nil

	case RTypeCNAME:
		n, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		return RDataCNAME{Target: n}, nil

	case RTypePTR:
		n, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		return RDataPTR{Target: n}, nil

	case RTypeSOA:
		mname, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		rname, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		serial, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		refresh, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		retry, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		expire, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		minimum, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return RDataSOA{mname, rname, serial, refresh, retry, expire, minimum}, nil

	case RTypeMX:
		pref, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		exch, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		return RDataMX{Preference: pref, Exchange: exch}, nil

	case RTypeHINFO:
		cpu, err := r.ReadCharacterString(0)
		if err != nil {
			return nil, err
		}
		os, err := r.ReadCharacterString(0)
		if err != nil {
			return nil, err
		}
		return RDataHINFO{CPU: append([]byte(nil), cpu...), OS: append([]byte(nil), os...)}, nil

	case RTypeMINFO:
		rmailbx, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		emailbx, err := DecodeName(r)
		if err != nil {
			return nil, err
		}
		return RDataMINFO{RMailbx: rmailbx, EMailbx: emailbx}, nil

	case RTypeTXT:
		end := r.Offset() + int(rdlen)
		var strs [][]byte
		for r.Offset() < end {
			s, err := r.ReadCharacterString(0)
			if err != nil {
				return nil, err
			}
			strs = append(strs, append([]byte(nil), s...))
		}
		return RDataTXT{Strings: strs}, nil

	case RTypeNULL:
		b, err := r.ReadN(int(rdlen))
		if err != nil {
			return nil, err
		}
		return RDataNULL{Data: append([]byte(nil), b...)}, nil

	default:
		b, err := r.ReadN(int(rdlen))
		if err != nil {
			return nil, err
		}
		return RDataUnknown{RType: ty, Data: append([]byte(nil), b...)}, nil
	}
}

// encodeRData writes rdata into a scoped region of w and backpatches rdlen
// (the two-octet length prefix already written at rdlenOffset) to the
// number of bytes produced.
func encodeRData(w *Writer, rdata RData, rdlenOffset int) error {
	w.Enter()
	if err := rdata.encode(w); err != nil {
		return err
	}
	n := w.Exit()
	putU16At(w, rdlenOffset, uint16(n))
	return nil
}

func putU16At(w *Writer, offset int, v uint16) {
	b := w.Bytes()
	b[offset] = byte(v >> 8)
	b[offset+1] = byte(v)
}
