// core/wire/records.go
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"bmalign/core/fasta"
)

// ErrMalformed marks any payload that fails to decode.
var ErrMalformed = errors.New("wire: malformed payload")

// EncodeRecords packs the parsed input for the startup broadcast.
func EncodeRecords(recs []fasta.Record) ([]byte, error) {
	var body bytes.Buffer
	for _, r := range recs {
		for _, field := range [][]byte{[]byte(r.Name), []byte(r.Description), r.Residues} {
			if bytes.IndexByte(field, 0) >= 0 {
				return nil, fmt.Errorf("wire: record %d (%s) contains a NUL byte", r.Index, r.Name)
			}
			body.Write(field)
			body.WriteByte(0)
		}
	}
	out := make([]byte, 4, 4+body.Len())
	binary.BigEndian.PutUint32(out, uint32(body.Len()))
	return append(out, body.Bytes()...), nil
}

// DecodeRecords reverses EncodeRecords. Record indices follow blob order.
func DecodeRecords(b []byte) ([]fasta.Record, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: records blob shorter than its header", ErrMalformed)
	}
	n := binary.BigEndian.Uint32(b)
	body := b[4:]
	if uint64(len(body)) != uint64(n) {
		return nil, fmt.Errorf("%w: records blob declares %d bytes, has %d", ErrMalformed, n, len(body))
	}
	if len(body) == 0 {
		return nil, nil
	}
	if body[len(body)-1] != 0 {
		return nil, fmt.Errorf("%w: records blob not NUL terminated", ErrMalformed)
	}
	fields := bytes.Split(body[:len(body)-1], []byte{0})
	if len(fields)%3 != 0 {
		return nil, fmt.Errorf("%w: %d fields is not a whole number of records", ErrMalformed, len(fields))
	}
	recs := make([]fasta.Record, 0, len(fields)/3)
	for i := 0; i < len(fields); i += 3 {
		recs = append(recs, fasta.Record{
			Index:       len(recs),
			Name:        string(fields[i]),
			Description: string(fields[i+1]),
			Residues:    append([]byte(nil), fields[i+2]...),
		})
	}
	return recs, nil
}
