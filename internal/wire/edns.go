package wire

import derrors "github.com/corvidlabs/dnsflow/internal/errors"

// EDNS option codes this codec understands structurally. Any other code is
// preserved as raw bytes in EDNSOption.Data rather than rejected.
const (
	OptionCodeCookie uint16 = 10
)

// EDNSOption is one {code, length, data} entry inside an OPT record's RDATA.
type EDNSOption struct {
	Code uint16
	Data []byte
}

// Cookie parses Data as an RFC 7873 COOKIE option if Code is
// OptionCodeCookie, returning the 8-byte client cookie and the optional
// 8-32 byte server cookie.
func (o EDNSOption) Cookie() (client, server []byte, ok bool) {
	if o.Code != OptionCodeCookie {
		return nil, nil, false
	}
	n := len(o.Data)
	if n != 8 && !(n >= 16 && n <= 40) {
		return nil, nil, false
	}
	client = o.Data[:8]
	if n > 8 {
		server = o.Data[8:]
	}
	return client, server, true
}

// OPT is the parsed RDATA of a pseudo-record of type OPT (RFC 6891). The
// OPT record repurposes its RHeader: Class carries the sender's UDP payload
// size and TTL is packed as (extended RCODE:8 | version:8 | flags:16).
type OPT struct {
	UDPPayloadSize uint16
	ExtendedRCode  uint8
	Version        uint8
	Flags          uint16
	Options        []EDNSOption
}

func (OPT) Type() RType { return RTypeOPT }

// NewOPTRecord builds the pseudo-record carrying opt, with the owner name
// fixed to root as RFC 6891 §6.1.1 requires.
func NewOPTRecord(opt OPT) Record {
	return Record{
		Header: RHeader{
			Name:  RootName(),
			Type:  RTypeOPT,
			Class: Class(opt.UDPPayloadSize),
			TTL:   opt.PackedTTL(),
		},
		Data: opt,
	}
}

func (o OPT) encode(w *Writer) error {
	for _, opt := range o.Options {
		w.PutU16(opt.Code)
		w.PutU16(uint16(len(opt.Data)))
		w.PutBytes(opt.Data)
	}
	return nil
}

// PackedTTL returns the 32-bit value OPT's header TTL field carries on the
// wire: extended RCODE in the upper 8 bits, version next, flags in the
// lowest 16 bits.
func (o OPT) PackedTTL() uint32 {
	return uint32(o.ExtendedRCode)<<24 | uint32(o.Version)<<16 | uint32(o.Flags)
}

// UnpackTTL reconstructs the extended-RCODE/version/flags fields from a raw
// OPT record's TTL word.
func UnpackTTL(ttl uint32) (extendedRCode, version uint8, flags uint16) {
	return uint8(ttl >> 24), uint8(ttl >> 16), uint16(ttl)
}

// decodeOPT parses an OPT record's RDATA: a sequence of {code, length,
// data} options filling exactly rdlen bytes. ttl and class come from the
// record header since OPT reinterprets both fields.
func decodeOPT(r *Reader, class Class, ttl uint32, rdlen uint16) (OPT, error) {
	extRCode, version, flags := UnpackTTL(ttl)
	opt := OPT{
		UDPPayloadSize: uint16(class),
		ExtendedRCode:  extRCode,
		Version:        version,
		Flags:          flags,
	}

	end := r.Offset() + int(rdlen)
	for r.Offset() < end {
		code, err := r.ReadU16()
		if err != nil {
			return OPT{}, err
		}
		length, err := r.ReadU16()
		if err != nil {
			return OPT{}, err
		}
		if r.Offset()+int(length) > end {
			return OPT{}, &derrors.CodecError{
				Op: "decode opt", Offset: r.Offset(),
				Msg: "option data overruns rdlen",
			}
		}
		data, err := r.ReadN(int(length))
		if err != nil {
			return OPT{}, err
		}
		opt.Options = append(opt.Options, EDNSOption{Code: code, Data: append([]byte(nil), data...)})
	}

	return opt, nil
}

// CombinedRCode folds a message header's 4-bit RCODE together with an OPT
// record's extended RCODE into the full 12-bit response code RFC 6891
// describes. A nil opt means no EDNS was present, so the header's rcode is
// returned unchanged (widened, not reinterpreted).
func CombinedRCode(header Header, opt *OPT) RCode {
	if opt == nil {
		return header.RCode
	}
	if header.RCode == RCodeReserved {
		return RCodeReserved
	}
	combined := uint16(opt.ExtendedRCode)<<4 | uint16(header.RCode&0xF)
	if combined > 0xFFF {
		return RCodeReserved
	}
	return RCode(combined)
}
