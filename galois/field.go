// Package galois implements arithmetic over the binary extension fields
// GF(2^m) and polynomials whose coefficients are elements of such a field.
//
// Non-zero elements are handled through their discrete logarithm with respect
// to the primitive element 2, so multiplication, division, powers, inverses
// and square roots are table lookups plus arithmetic modulo 2^m-1. Addition
// and subtraction are XOR, the field having characteristic 2.
package galois

import (
	"errors"
	"fmt"
)

var (
	ErrDivideByZero     = errors.New("galois: division by zero")
	ErrUnsupportedPower = errors.New("galois: unsupported field power")
	ErrNotPrimitive     = errors.New("galois: polynomial is not primitive")
	ErrZeroLeading      = errors.New("galois: divisor has zero leading coefficient")
	ErrTrim             = errors.New("galois: trim exceeds polynomial length")
	ErrRootCount        = errors.New("galois: root count mismatch")
)

// Element is a member of GF(2^m). Only the low m bits are meaningful.
type Element uint32

const (
	MinPower = 2
	MaxPower = 16
)

// primitivePolys holds one primitive polynomial per supported field power,
// with the x^m term included.
var primitivePolys = [MaxPower + 1]uint32{
	2:  0x7,     // x^2 + x + 1
	3:  0xB,     // x^3 + x + 1
	4:  0x13,    // x^4 + x + 1
	5:  0x25,    // x^5 + x^2 + 1
	6:  0x43,    // x^6 + x + 1
	7:  0x89,    // x^7 + x^3 + 1
	8:  0x11D,   // x^8 + x^4 + x^3 + x^2 + 1
	9:  0x211,   // x^9 + x^4 + 1
	10: 0x409,   // x^10 + x^3 + 1
	11: 0x805,   // x^11 + x^2 + 1
	12: 0x1053,  // x^12 + x^6 + x^4 + x + 1
	13: 0x201B,  // x^13 + x^4 + x^3 + x + 1
	14: 0x4443,  // x^14 + x^10 + x^6 + x + 1
	15: 0x8003,  // x^15 + x + 1
	16: 0x1100B, // x^16 + x^12 + x^3 + x + 1
}

// Field is GF(2^m). It is immutable once built and safe for concurrent use.
type Field struct {
	power uint
	size  int // 2^m
	order int // 2^m - 1, number of non-zero elements
	poly  uint32

	powTable []Element // powTable[i] = 2^i, doubled to skip a modulo in Mul
	logTable []int     // logTable[v] = i such that 2^i = v; logTable[0] unused
}

// NewField builds GF(2^m) from the fixed primitive polynomial for m.
func NewField(m uint) (*Field, error) {
	if m < MinPower || m > MaxPower {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrUnsupportedPower, m, MinPower, MaxPower)
	}
	return NewFieldWithPoly(m, primitivePolys[m])
}

// NewFieldWithPoly builds GF(2^m) reduced by poly, which must include the
// x^m term and be primitive.
func NewFieldWithPoly(m uint, poly uint32) (*Field, error) {
	if m < MinPower || m > MaxPower {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrUnsupportedPower, m, MinPower, MaxPower)
	}
	size := 1 << m
	if poly>>m != 1 {
		return nil, fmt.Errorf("%w: %#x has no x^%d term", ErrNotPrimitive, poly, m)
	}

	f := &Field{
		power:    m,
		size:     size,
		order:    size - 1,
		poly:     poly,
		powTable: make([]Element, 2*(size-1)),
		logTable: make([]int, size),
	}

	x := uint32(1)
	for i := 0; i < f.order; i++ {
		if i > 0 && x == 1 {
			return nil, fmt.Errorf("%w: %#x cycles after %d steps", ErrNotPrimitive, poly, i)
		}
		f.powTable[i] = Element(x)
		f.logTable[x] = i

		x = uint32(f.MulNoLUT(Element(x), 2))
	}
	if x != 1 {
		return nil, fmt.Errorf("%w: %#x", ErrNotPrimitive, poly)
	}
	for i := 0; i < f.order; i++ {
		f.powTable[i+f.order] = f.powTable[i]
	}

	return f, nil
}

// Power returns m.
func (f *Field) Power() uint { return f.power }

// Size returns the number of elements, 2^m.
func (f *Field) Size() int { return f.size }

// Order returns the number of non-zero elements, 2^m-1.
func (f *Field) Order() int { return f.order }

// Poly returns the reducing primitive polynomial.
func (f *Field) Poly() uint32 { return f.poly }

// Contains reports whether a is an element of the field.
func (f *Field) Contains(a Element) bool { return int(a) < f.size }

// Add returns a + b. Addition in characteristic 2 is XOR.
func (f *Field) Add(a, b Element) Element { return a ^ b }

// Sub returns a - b, which equals a + b.
func (f *Field) Sub(a, b Element) Element { return a ^ b }

// Mul returns a * b.
func (f *Field) Mul(a, b Element) Element {
	if a == 0 || b == 0 {
		return 0
	}
	return f.powTable[f.logTable[a]+f.logTable[b]]
}

// MulNoLUT multiplies without the log tables: a carry-less product reduced
// by the primitive polynomial as it is formed.
func (f *Field) MulNoLUT(a, b Element) Element {
	var r uint32
	x, y := uint32(a), uint32(b)
	for i := uint(0); i < f.power; i++ {
		if y&1 != 0 {
			r ^= x
		}
		y >>= 1
		x <<= 1
		if x&uint32(f.size) != 0 {
			x ^= f.poly
		}
	}
	return Element(r)
}

// Div returns a / b. It panics with ErrDivideByZero when b is zero.
func (f *Field) Div(a, b Element) Element {
	if b == 0 {
		panic(fmt.Errorf("%w: %d / 0", ErrDivideByZero, a))
	}
	if a == 0 {
		return 0
	}
	return f.powTable[f.logTable[a]+f.order-f.logTable[b]]
}

// Inv returns the multiplicative inverse of a. It panics with
// ErrDivideByZero when a is zero.
func (f *Field) Inv(a Element) Element {
	if a == 0 {
		panic(fmt.Errorf("%w: inverse of 0", ErrDivideByZero))
	}
	return f.powTable[f.order-f.logTable[a]]
}

// Pow returns x^n. Negative exponents invert x first; 0^0 is 1.
func (f *Field) Pow(x Element, n int) Element {
	if n == 0 {
		return 1
	}
	if x == 0 {
		if n < 0 {
			panic(fmt.Errorf("%w: 0^%d", ErrDivideByZero, n))
		}
		return 0
	}
	e := (f.logTable[x] * (n % f.order)) % f.order
	if e < 0 {
		e += f.order
	}
	return f.powTable[e]
}

// Exp returns the generator raised to i.
func (f *Field) Exp(i int) Element {
	i %= f.order
	if i < 0 {
		i += f.order
	}
	return f.powTable[i]
}

// Log returns the discrete logarithm of a. It panics with ErrDivideByZero
// when a is zero, which has no logarithm.
func (f *Field) Log(a Element) int {
	if a == 0 {
		panic(fmt.Errorf("%w: log of 0", ErrDivideByZero))
	}
	return f.logTable[a]
}

// Sqrt returns the unique y with y*y == x. Every element of GF(2^m) is a
// square since squaring is the Frobenius automorphism.
func (f *Field) Sqrt(x Element) Element {
	if x == 0 {
		return 0
	}
	l := f.logTable[x]
	if l%2 != 0 {
		l += f.order
	}
	return f.powTable[l/2]
}
