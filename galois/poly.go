package galois

import "fmt"

// Poly is a polynomial over a Field, most significant coefficient first:
// p[0]*x^(n-1) + ... + p[n-1]. The empty Poly is the zero polynomial.
//
// Methods without a suffix never modify their receiver or arguments and
// always return freshly allocated coefficients. The InPlace variants write
// only into the receiver.
type Poly []Element

// NewPoly returns a copy of coefs as a Poly.
func NewPoly(coefs ...Element) Poly {
	return Poly(coefs).Clone()
}

// Monomial returns c*x^degree.
func Monomial(c Element, degree int) Poly {
	p := make(Poly, degree+1)
	p[0] = c
	return p
}

// Clone returns a copy of p.
func (p Poly) Clone() Poly {
	out := make(Poly, len(p))
	copy(out, p)
	return out
}

// Degree returns len(p)-1, counting leading zero coefficients.
func (p Poly) Degree() int { return len(p) - 1 }

// IsZero reports whether all coefficients are zero.
func (p Poly) IsZero() bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether p and q have the same coefficients, including
// padding.
func (p Poly) Equal(q Poly) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Add returns p + q, aligned at the constant term. The result has
// max(len(p), len(q)) coefficients.
func (p Poly) Add(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	for i, c := range p {
		out[i+n-len(p)] ^= c
	}
	for i, c := range q {
		out[i+n-len(q)] ^= c
	}
	return out
}

// AddInPlace adds q into p, growing p at the most significant end when q
// is longer.
func (p *Poly) AddInPlace(q Poly) {
	if len(q) > len(*p) {
		*p = p.Pad(len(q)-len(*p), 0)
	}
	off := len(*p) - len(q)
	for i, c := range q {
		(*p)[off+i] ^= c
	}
}

// Scale returns s*p.
func (p Poly) Scale(f *Field, s Element) Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = f.Mul(c, s)
	}
	return out
}

// ScaleInPlace multiplies every coefficient of p by s.
func (p Poly) ScaleInPlace(f *Field, s Element) {
	for i, c := range p {
		p[i] = f.Mul(c, s)
	}
}

// Mul returns p*q. The result has len(p)+len(q)-1 coefficients.
func (p Poly) Mul(f *Field, q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for j, b := range q {
		if b == 0 {
			continue
		}
		for i, a := range p {
			out[i+j] ^= f.Mul(a, b)
		}
	}
	return out
}

// Div divides p by q with synthetic division normalised by q's leading
// coefficient. The quotient has len(p)-len(q)+1 coefficients and the
// remainder len(q)-1. When p is shorter than q the quotient is empty and
// the remainder is p, left padded.
func (p Poly) Div(f *Field, q Poly) (quotient, remainder Poly, err error) {
	if len(q) == 0 || q[0] == 0 {
		return nil, nil, ErrZeroLeading
	}
	if len(p) < len(q) {
		return Poly{}, p.Pad(len(q)-1-len(p), 0), nil
	}

	out := p.Clone()
	lead := q[0]
	for i := 0; i < len(p)-len(q)+1; i++ {
		out[i] = f.Div(out[i], lead)
		coef := out[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(q); j++ {
			if q[j] != 0 {
				out[i+j] ^= f.Mul(q[j], coef)
			}
		}
	}

	sep := len(p) - len(q) + 1
	return out[:sep:sep], out[sep:].Clone(), nil
}

// Eval evaluates p at x using Horner's rule.
func (p Poly) Eval(f *Field, x Element) Element {
	var y Element
	for _, c := range p {
		y = f.Mul(y, x) ^ c
	}
	return y
}

// Pad returns p with left zero coefficients prepended and right zero
// coefficients appended. Padding on the right multiplies by x^right.
func (p Poly) Pad(left, right int) Poly {
	out := make(Poly, left+len(p)+right)
	copy(out[left:], p)
	return out
}

// Trim returns p without its first left and last right coefficients.
func (p Poly) Trim(left, right int) (Poly, error) {
	if left < 0 || right < 0 || left+right > len(p) {
		return nil, fmt.Errorf("%w: trim %d+%d of %d", ErrTrim, left, right, len(p))
	}
	return p[left : len(p)-right].Clone(), nil
}

// TrimLeadingZeros returns p without leading zero coefficients, keeping at
// least one coefficient.
func (p Poly) TrimLeadingZeros() Poly {
	i := 0
	for i < len(p)-1 && p[i] == 0 {
		i++
	}
	return p[i:].Clone()
}

// Reverse returns p with its coefficients in reverse order, the reciprocal
// polynomial when p has a non-zero constant term.
func (p Poly) Reverse() Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[len(p)-1-i] = c
	}
	return out
}

// ChienSearch evaluates p at 2^i for i in [0, maxExponent) and returns
// the exponents where p vanishes. It fails with ErrRootCount when the
// number of roots differs from expected.
func (f *Field) ChienSearch(p Poly, maxExponent, expected int) ([]int, error) {
	var roots []int
	for i := 0; i < maxExponent; i++ {
		if p.Eval(f, f.Exp(i)) == 0 {
			roots = append(roots, i)
		}
	}
	if len(roots) != expected {
		return roots, fmt.Errorf("%w: found %d, want %d", ErrRootCount, len(roots), expected)
	}
	return roots, nil
}
