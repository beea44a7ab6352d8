package wire

import derrors "github.com/corvidlabs/dnsflow/internal/errors"

// RHeader is the fixed portion of a resource record that precedes its
// RDATA: owner name, type, class, TTL, and the RDATA length prefix.
type RHeader struct {
	Name  Name
	Type  RType
	Class Class
	TTL   uint32
	RDLen uint16
}

// Record is a complete resource record: its header plus parsed RDATA. The
// RData's dynamic type must match RHeader.Type.
type Record struct {
	Header RHeader
	Data   RData
}

// EncodeRecord appends r to w. The RDLen field is ignored on input and
// recomputed from the actual bytes the RData encoder produces, so callers
// never have to pre-compute it.
func EncodeRecord(w *Writer, r Record) error {
	if r.Data != nil && r.Data.Type() != r.Header.Type {
		return &derrors.CodecError{
			Op: "encode record", Offset: w.Len(),
			Msg: "rdata type does not match record header type",
		}
	}

	if err := EncodeName(w, r.Header.Name); err != nil {
		return err
	}
	w.PutU16(uint16(r.Header.Type))
	w.PutU16(uint16(r.Header.Class))
	w.PutU32(r.Header.TTL)

	rdlenOffset := w.Len()
	w.PutU16(0) // placeholder, backpatched below

	if r.Data == nil {
		return nil
	}
	return encodeRData(w, r.Data, rdlenOffset)
}

// DecodeRecord reads a header then dispatches on its type to parse RDATA,
// verifying the bytes consumed equal the declared RDLEN.
func DecodeRecord(r *Reader) (Record, error) {
	name, err := DecodeName(r)
	if err != nil {
		return Record{}, err
	}
	ty, err := r.ReadU16()
	if err != nil {
		return Record{}, err
	}
	class, err := r.ReadU16()
	if err != nil {
		return Record{}, err
	}
	ttl, err := r.ReadU32()
	if err != nil {
		return Record{}, err
	}
	rdlen, err := r.ReadU16()
	if err != nil {
		return Record{}, err
	}

	header := RHeader{Name: name, Type: RType(ty), Class: Class(class), TTL: ttl, RDLen: rdlen}

	var data RData
	if header.Type == RTypeOPT {
		start := r.Offset()
		opt, err := decodeOPT(r, header.Class, header.TTL, rdlen)
		if err != nil {
			return Record{}, err
		}
		if consumed := r.Offset() - start; consumed != int(rdlen) {
			return Record{}, &derrors.CodecError{
				Op: "decode record", Offset: start,
				Msg: "invalid rdata length",
			}
		}
		data = opt
	} else {
		data, err = decodeRData(r, header.Type, rdlen)
		if err != nil {
			return Record{}, err
		}
	}

	return Record{Header: header, Data: data}, nil
}
