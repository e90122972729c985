package dnastore

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/townmi/dnastore/oligo"
)

// TrailerIndex is the reserved index of the trailer record. Its data oligo
// packs the file length in the high 48 bits and a CRC-16 of the file in
// the low 16.
const TrailerIndex = ^uint64(0)

// MaxFileSize is the largest payload a trailer can describe.
const MaxFileSize = 1<<48 - 1

// Duplex is one read: the block index, the block data and, when parity is
// enabled, the Reed-Solomon parity over both.
type Duplex struct {
	Index  oligo.Oligo
	Data   oligo.Oligo
	Parity []oligo.Oligo
}

// Block returns the block number carried by the index oligo.
func (d Duplex) Block() uint64 { return d.Index.Uint64() }

// IsTrailer reports whether d is the trailer record.
func (d Duplex) IsTrailer() bool {
	return d.Index.Len() == OligoLen && d.Index.Uint64() == TrailerIndex
}

// Trailer unpacks the file length and checksum of a trailer record.
func (d Duplex) Trailer() (length uint64, sum uint16) {
	v := d.Data.Uint64()
	return v >> 16, uint16(v)
}

// String returns the read: index, data, then parity nucleotides.
func (d Duplex) String() string {
	var sb strings.Builder
	sb.Grow(2*OligoLen + len(d.Parity)*OligoLen)
	sb.WriteString(d.Index.String())
	sb.WriteString(d.Data.String())
	for _, p := range d.Parity {
		sb.WriteString(p.String())
	}
	return sb.String()
}

func trailerDuplex(length uint64, sum uint16) Duplex {
	return Duplex{
		Index: oligo.New(OligoLen, TrailerIndex),
		Data:  oligo.New(OligoLen, length<<16|uint64(sum)),
	}
}

// payload returns the index and data as the 16 bytes covered by parity.
func (d Duplex) payload() []byte {
	b := make([]byte, 2*BlockSize)
	binary.BigEndian.PutUint64(b, d.Index.Uint64())
	binary.BigEndian.PutUint64(b[BlockSize:], d.Data.Uint64())
	return b
}

// packOligos splits b into oligos of up to BlockSize bytes each.
func packOligos(b []byte) ([]oligo.Oligo, error) {
	out := make([]oligo.Oligo, 0, (len(b)+BlockSize-1)/BlockSize)
	for len(b) > 0 {
		n := BlockSize
		if len(b) < n {
			n = len(b)
		}
		o, err := oligo.FromBytes(b[:n])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		b = b[n:]
	}
	return out, nil
}

// seqBytes unpacks a read into bytes, OligoLen nucleotides at a time.
func seqBytes(seq string) ([]byte, error) {
	if len(seq)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a whole number of bytes", ErrFormat, len(seq))
	}
	out := make([]byte, 0, len(seq)/4)
	for len(seq) > 0 {
		n := OligoLen
		if len(seq) < n {
			n = len(seq)
		}
		o, err := oligo.Parse(seq[:n])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		b, err := o.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		out = append(out, b...)
		seq = seq[n:]
	}
	return out, nil
}
