// Package oligo packs short DNA sequences into a single uint64, two bits per
// nucleotide with the mapping 00=A, 01=T, 10=G, 11=C. The first nucleotide
// occupies the most significant pair of the low 2*Len() bits.
package oligo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// MaxLen is the number of nucleotides that fit in one Oligo.
const MaxLen = 32

var (
	ErrTooLong   = errors.New("oligo: sequence longer than 32 nucleotides")
	ErrBadSymbol = errors.New("oligo: unmapped nucleotide")
	ErrOverflow  = errors.New("oligo: combined length exceeds 32 nucleotides")
	ErrRange     = errors.New("oligo: invalid slice range")
	ErrNotBytes  = errors.New("oligo: length is not a whole number of bytes")
)

// Alphabet maps a 2-bit code to its nucleotide.
const Alphabet = "ATGC"

var codes = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// Code returns the 2-bit code of nucleotide c.
func Code(c byte) (uint8, bool) {
	v := codes[c]
	return uint8(v), v >= 0
}

func mask(n int) uint64 {
	if n <= 0 {
		return 0
	}
	return ^uint64(0) >> uint(64-2*n)
}

// Oligo is an immutable sequence of at most 32 nucleotides.
type Oligo struct {
	n uint8
	v uint64
}

// New returns the Oligo of length n whose packed value is v. n is clamped
// to [0, MaxLen] and bits above 2*n are dropped.
func New(n int, v uint64) Oligo {
	if n < 0 {
		n = 0
	}
	if n > MaxLen {
		n = MaxLen
	}
	return Oligo{n: uint8(n), v: v & mask(n)}
}

// Parse reads a sequence over ATGC.
func Parse(s string) (Oligo, error) {
	if len(s) > MaxLen {
		return Oligo{}, fmt.Errorf("%w: %d", ErrTooLong, len(s))
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c, ok := Code(s[i])
		if !ok {
			return Oligo{}, fmt.Errorf("%w: %q at %d", ErrBadSymbol, s[i], i)
		}
		v = v<<2 | uint64(c)
	}
	return Oligo{n: uint8(len(s)), v: v}, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Oligo {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// FromBytes packs up to 8 bytes, big-endian, four nucleotides per byte.
func FromBytes(b []byte) (Oligo, error) {
	if len(b) > MaxLen/4 {
		return Oligo{}, fmt.Errorf("%w: %d bytes", ErrTooLong, len(b))
	}
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return New(4*len(b), binary.BigEndian.Uint64(buf[:])), nil
}

// Len returns the number of nucleotides.
func (o Oligo) Len() int { return int(o.n) }

// Uint64 returns the packed value.
func (o Oligo) Uint64() uint64 { return o.v }

// Bytes returns the packed value as Len()/4 big-endian bytes.
func (o Oligo) Bytes() ([]byte, error) {
	if o.n%4 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotBytes, o.n)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], o.v)
	out := make([]byte, o.n/4)
	copy(out, buf[8-len(out):])
	return out, nil
}

// CodeAt returns the 2-bit code of the i-th nucleotide.
func (o Oligo) CodeAt(i int) uint8 {
	return uint8(o.v>>(2*(int(o.n)-i-1))) & 0x3
}

// At returns the i-th nucleotide, or 0 when i is out of range.
func (o Oligo) At(i int) byte {
	if i < 0 || i >= int(o.n) {
		return 0
	}
	return Alphabet[o.CodeAt(i)]
}

// String returns the nucleotide sequence.
func (o Oligo) String() string {
	var sb strings.Builder
	sb.Grow(int(o.n))
	for i := 0; i < int(o.n); i++ {
		sb.WriteByte(Alphabet[o.CodeAt(i)])
	}
	return sb.String()
}

// Slice returns nucleotides start through end inclusive. An end of zero or
// below, or past the last nucleotide, selects through the last nucleotide.
func (o Oligo) Slice(start, end int) (Oligo, error) {
	n := int(o.n)
	if end <= 0 || end > n-1 {
		end = n - 1
	}
	if start < 0 || start > end {
		return Oligo{}, fmt.Errorf("%w: [%d, %d] of %d", ErrRange, start, end, n)
	}
	return New(end-start+1, o.v>>(2*(n-1-end))), nil
}

// Append returns o followed by p.
func (o Oligo) Append(p Oligo) (Oligo, error) {
	if int(o.n)+int(p.n) > MaxLen {
		return Oligo{}, fmt.Errorf("%w: %d + %d", ErrOverflow, o.n, p.n)
	}
	if p.n == MaxLen {
		return p, nil
	}
	return Oligo{n: o.n + p.n, v: o.v<<(2*p.n) | p.v}, nil
}

// Compare orders first by length, then nucleotide by nucleotide. It returns
// -1, 0 or +1.
func (o Oligo) Compare(p Oligo) int {
	switch {
	case o.n < p.n:
		return -1
	case o.n > p.n:
		return 1
	case o.v < p.v:
		return -1
	case o.v > p.v:
		return 1
	}
	return 0
}

func (o Oligo) Equal(p Oligo) bool     { return o.Compare(p) == 0 }
func (o Oligo) Less(p Oligo) bool      { return o.Compare(p) < 0 }
func (o Oligo) LessEq(p Oligo) bool    { return o.Compare(p) <= 0 }
func (o Oligo) Greater(p Oligo) bool   { return o.Compare(p) > 0 }
func (o Oligo) GreaterEq(p Oligo) bool { return o.Compare(p) >= 0 }

// Succ returns the next sequence of the same length, or o itself when o is
// already all C.
func (o Oligo) Succ() Oligo {
	if o.v == mask(int(o.n)) {
		return o
	}
	return Oligo{n: o.n, v: o.v + 1}
}

// Complement pairs A with T and G with C, position by position.
func (o Oligo) Complement() Oligo {
	return Oligo{n: o.n, v: (o.v ^ 0x5555555555555555) & mask(int(o.n))}
}

// Reverse returns the sequence read backwards.
func (o Oligo) Reverse() Oligo {
	var v uint64
	x := o.v
	for i := 0; i < int(o.n); i++ {
		v = v<<2 | x&0x3
		x >>= 2
	}
	return Oligo{n: o.n, v: v}
}

// ReverseComplement returns the sequence of the opposite strand.
func (o Oligo) ReverseComplement() Oligo {
	return o.Reverse().Complement()
}

// GCCount returns the number of G and C nucleotides.
func (o Oligo) GCCount() int {
	gc := 0
	for i := 0; i < int(o.n); i++ {
		// G=10 and C=11 are the codes with the high bit set.
		if o.CodeAt(i)&0x2 != 0 {
			gc++
		}
	}
	return gc
}

// GCContent returns the fraction of G and C nucleotides, 0 for an empty
// sequence.
func (o Oligo) GCContent() float64 {
	if o.n == 0 {
		return 0
	}
	return float64(o.GCCount()) / float64(o.n)
}

// MaxHomopolymer returns the length of the longest run of one nucleotide.
func (o Oligo) MaxHomopolymer() int {
	best, run := 0, 0
	for i := 0; i < int(o.n); i++ {
		if i > 0 && o.CodeAt(i) == o.CodeAt(i-1) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
