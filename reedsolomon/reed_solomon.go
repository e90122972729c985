// Package reedsolomon implements a systematic Reed-Solomon code over
// GF(2^m): encoding by polynomial division with the generator
// g(x) = (x - 2^0)(x - 2^1)...(x - 2^(nsym-1)), and decoding of errors and
// declared erasures with a Berlekamp-Massey error locator, Chien search and
// the Forney algorithm.
//
// Syndromes are kept most significant first with a trailing zero sentinel:
// for a message of nsym parity symbols, synd[nsym-1-i] is the message
// evaluated at 2^i and synd[nsym] is 0.
package reedsolomon

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/townmi/dnastore/galois"
)

var (
	ErrInvalidParams   = errors.New("reedsolomon: invalid parameters")
	ErrTooManyErasures = errors.New("reedsolomon: too many erasures")
	ErrTooManyErrors   = errors.New("reedsolomon: too many errors to locate")
	ErrUnlocatable     = errors.New("reedsolomon: errors could not be located")
	ErrSingular        = errors.New("reedsolomon: could not find error magnitude")
	ErrUncorrectable   = errors.New("reedsolomon: message could not be corrected")
	ErrNotByteField    = errors.New("reedsolomon: byte codec requires GF(2^8)")
)

// Codec is a Reed-Solomon coder over one Galois field. It is safe for
// concurrent use.
type Codec struct {
	gf *galois.Field

	mu         sync.RWMutex
	generators map[int]galois.Poly
}

// New returns a Codec over GF(2^fieldPower).
func New(fieldPower uint) (*Codec, error) {
	gf, err := galois.NewField(fieldPower)
	if err != nil {
		return nil, err
	}
	return &Codec{gf: gf, generators: make(map[int]galois.Poly)}, nil
}

// Field returns the field the codec works in.
func (c *Codec) Field() *galois.Field { return c.gf }

// MaxCodewordLen returns the longest codeword the field supports, 2^m-1.
func (c *Codec) MaxCodewordLen() int { return c.gf.Order() }

// Generator returns the generator polynomial for nsym parity symbols.
func (c *Codec) Generator(nsym int) galois.Poly {
	c.mu.RLock()
	g, ok := c.generators[nsym]
	c.mu.RUnlock()
	if ok {
		return g.Clone()
	}

	g = galois.Poly{1}
	for i := 0; i < nsym; i++ {
		g = g.Mul(c.gf, galois.Poly{1, c.gf.Exp(i)})
	}

	c.mu.Lock()
	c.generators[nsym] = g
	c.mu.Unlock()
	return g.Clone()
}

func (c *Codec) checkParams(msgLen, nsym int) error {
	if nsym < 0 || msgLen < nsym {
		return fmt.Errorf("%w: %d symbols with %d parity", ErrInvalidParams, msgLen, nsym)
	}
	if msgLen > c.gf.Order() {
		return fmt.Errorf("%w: codeword length %d exceeds %d", ErrInvalidParams, msgLen, c.gf.Order())
	}
	return nil
}

func (c *Codec) checkSymbols(msg []galois.Element) error {
	for i, s := range msg {
		if !c.gf.Contains(s) {
			return fmt.Errorf("%w: symbol %d at %d outside GF(2^%d)", ErrInvalidParams, s, i, c.gf.Power())
		}
	}
	return nil
}

// Encode returns data followed by nsym parity symbols: the remainder of
// data*x^nsym divided by the generator.
func (c *Codec) Encode(data []galois.Element, nsym int) ([]galois.Element, error) {
	if err := c.checkParams(len(data)+nsym, nsym); err != nil {
		return nil, err
	}
	if err := c.checkSymbols(data); err != nil {
		return nil, err
	}

	msg := galois.Poly(data).Pad(0, nsym)
	_, remainder, err := msg.Div(c.gf, c.Generator(nsym))
	if err != nil {
		return nil, err
	}

	out := make([]galois.Element, 0, len(data)+nsym)
	out = append(out, data...)
	return append(out, remainder...), nil
}

// Syndromes returns the nsym syndromes of msg followed by a zero sentinel.
func (c *Codec) Syndromes(msg []galois.Element, nsym int) galois.Poly {
	synd := make(galois.Poly, nsym+1)
	p := galois.Poly(msg)
	for i := 0; i < nsym; i++ {
		synd[nsym-1-i] = p.Eval(c.gf, c.gf.Exp(i))
	}
	return synd
}

// CheckSyndromes reports whether every syndrome is zero, meaning no error
// was detected.
func CheckSyndromes(synd galois.Poly) bool {
	return synd.IsZero()
}

// Check reports whether codeword carries no detectable error.
func (c *Codec) Check(codeword []galois.Element, nsym int) bool {
	return CheckSyndromes(c.Syndromes(codeword, nsym))
}

// ErasureLocator returns the product of (1 + 2^i x) over the coefficient
// positions, counted from the constant term.
func (c *Codec) ErasureLocator(coefPos []int) galois.Poly {
	loc := galois.Poly{1}
	for _, i := range coefPos {
		loc = loc.Mul(c.gf, galois.Poly{c.gf.Exp(i), 1})
	}
	return loc
}

// ErrorLocator runs Berlekamp-Massey over synd and returns the error
// locator, most significant first. synd is either the full syndrome vector
// (nsym+1 entries) or Forney syndromes (nsym entries). When eraseLoc is
// given the iteration is seeded from it and the result locates erasures and
// errors together; otherwise eraseCount only shortens the iteration and
// tightens the bound.
func (c *Codec) ErrorLocator(synd galois.Poly, nsym int, eraseLoc galois.Poly, eraseCount int) (galois.Poly, error) {
	if eraseCount < 0 || eraseCount > nsym || len(synd) < nsym {
		return nil, fmt.Errorf("%w: %d syndromes, nsym %d, %d erasures", ErrInvalidParams, len(synd), nsym, eraseCount)
	}

	errLoc := galois.Poly{1}
	oldLoc := galois.Poly{1}
	seed := 0
	if len(eraseLoc) > 0 {
		errLoc = eraseLoc.Clone()
		oldLoc = eraseLoc.Clone()
		seed = eraseCount
	}

	last := len(synd) - 1
	shift := len(synd) - nsym
	for i := 0; i < nsym-eraseCount; i++ {
		k := last - (i + shift + seed)
		delta := synd[k]
		for j := 1; j < len(errLoc) && k+j <= last; j++ {
			delta ^= c.gf.Mul(errLoc[len(errLoc)-1-j], synd[k+j])
		}

		oldLoc = oldLoc.Pad(0, 1)
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := oldLoc.Scale(c.gf, delta)
				oldLoc = errLoc.Scale(c.gf, c.gf.Inv(delta))
				errLoc = newLoc
			}
			errLoc = errLoc.Add(oldLoc.Scale(c.gf, delta))
		}
	}

	errLoc = errLoc.TrimLeadingZeros()
	errs := errLoc.Degree()
	if len(eraseLoc) > 0 {
		if 2*errs-eraseCount > nsym {
			return errLoc, fmt.Errorf("%w: %d errata with %d erasures, nsym %d", ErrTooManyErrors, errs, eraseCount, nsym)
		}
	} else if 2*errs+eraseCount > nsym {
		return errLoc, fmt.Errorf("%w: %d errors with %d erasures, nsym %d", ErrTooManyErrors, errs, eraseCount, nsym)
	}
	return errLoc, nil
}

// FindErrors returns the message positions of the roots of errLoc for a
// message of n symbols.
func (c *Codec) FindErrors(errLoc galois.Poly, n int) ([]int, error) {
	errs := errLoc.Degree()

	var exps []int
	switch {
	case errs <= 0:
		return nil, nil
	case errs == 1:
		if errLoc[1] == 0 {
			return nil, fmt.Errorf("%w: degenerate linear locator", ErrUnlocatable)
		}
		exps = []int{c.gf.Log(c.gf.Div(errLoc[0], errLoc[1]))}
	default:
		var err error
		exps, err = c.gf.ChienSearch(errLoc.Reverse(), n, errs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnlocatable, err)
		}
	}

	pos := make([]int, len(exps))
	for i, e := range exps {
		if e >= n {
			return nil, fmt.Errorf("%w: root 2^%d beyond message length %d", ErrUnlocatable, e, n)
		}
		pos[i] = n - e - 1
	}
	return pos, nil
}

// ForneySyndromes removes the contribution of the erasures at pos from
// synd, leaving nsym syndromes of the unknown errors.
func (c *Codec) ForneySyndromes(synd galois.Poly, pos []int, n int) galois.Poly {
	fsynd := synd[:len(synd)-1].Clone()
	for _, p := range pos {
		x := c.gf.Exp(n - p - 1)
		for j := len(fsynd) - 1; j > 0; j-- {
			fsynd[j] = c.gf.Mul(fsynd[j], x) ^ fsynd[j-1]
		}
	}
	return fsynd
}

// ErrorEvaluator returns (synd * errLoc) mod x^nsym.
func (c *Codec) ErrorEvaluator(synd, errLoc galois.Poly, nsym int) galois.Poly {
	prod := synd.Mul(c.gf, errLoc)
	if len(prod) < nsym {
		return prod.Pad(nsym-len(prod), 0)
	}
	return prod[len(prod)-nsym:].Clone()
}

// CorrectErrata fixes msg at the given message positions using the Forney
// algorithm and returns the corrected copy.
func (c *Codec) CorrectErrata(msg []galois.Element, synd galois.Poly, errPos []int) ([]galois.Element, error) {
	coefPos := make([]int, len(errPos))
	for i, p := range errPos {
		coefPos[i] = len(msg) - 1 - p
	}

	errLoc := c.ErasureLocator(coefPos)
	errEval := c.ErrorEvaluator(synd, errLoc, len(errLoc))

	x := make([]galois.Element, len(coefPos))
	for i, p := range coefPos {
		x[i] = c.gf.Exp(p)
	}

	e := make(galois.Poly, len(msg))
	for i, xi := range x {
		xiInv := c.gf.Inv(xi)

		// Product over the other roots stands in for the formal derivative.
		prime := galois.Element(1)
		for j, xj := range x {
			if j != i {
				prime = c.gf.Mul(prime, 1^c.gf.Mul(xiInv, xj))
			}
		}
		if prime == 0 {
			return nil, fmt.Errorf("%w: position %d", ErrSingular, errPos[i])
		}

		y := c.gf.Mul(xi, errEval.Eval(c.gf, xiInv))
		e[errPos[i]] = c.gf.Div(y, prime)
	}

	return galois.Poly(msg).Add(e), nil
}

// Decode corrects codeword, which carries nsym parity symbols, and returns
// its leading data symbols. erasures lists known-bad positions; up to nsym
// erasures, or floor(nsym/2) unknown errors, or any mix with
// 2*errors+erasures <= nsym can be corrected.
func (c *Codec) Decode(codeword []galois.Element, nsym int, erasures []int) ([]galois.Element, error) {
	out, err := c.DecodeCodeword(codeword, nsym, erasures)
	if err != nil {
		return nil, err
	}
	return out[:len(out)-nsym], nil
}

// DecodeCodeword is Decode returning the whole corrected codeword.
func (c *Codec) DecodeCodeword(codeword []galois.Element, nsym int, erasures []int) ([]galois.Element, error) {
	n := len(codeword)
	if err := c.checkParams(n, nsym); err != nil {
		return nil, err
	}
	if err := c.checkSymbols(codeword); err != nil {
		return nil, err
	}

	erasePos, err := normalizeErasures(erasures, n)
	if err != nil {
		return nil, err
	}
	if len(erasePos) > nsym {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyErasures, len(erasePos), nsym)
	}

	msg := make([]galois.Element, n)
	copy(msg, codeword)
	for _, p := range erasePos {
		msg[p] = 0
	}

	synd := c.Syndromes(msg, nsym)
	if CheckSyndromes(synd) {
		return msg, nil
	}

	fsynd := c.ForneySyndromes(synd, erasePos, n)
	errLoc, err := c.ErrorLocator(fsynd, nsym, nil, len(erasePos))
	if err != nil {
		return nil, err
	}

	errPos, err := c.FindErrors(errLoc, n)
	if err != nil {
		return nil, err
	}
	if len(errPos) == 0 && len(erasePos) == 0 {
		return nil, fmt.Errorf("%w: non-zero syndromes without a locator", ErrUnlocatable)
	}

	msg, err = c.CorrectErrata(msg, synd, append(erasePos, errPos...))
	if err != nil {
		return nil, err
	}

	if !c.Check(msg, nsym) {
		return nil, ErrUncorrectable
	}
	return msg, nil
}

func normalizeErasures(erasures []int, n int) ([]int, error) {
	if len(erasures) == 0 {
		return nil, nil
	}
	pos := append([]int(nil), erasures...)
	sort.Ints(pos)
	out := pos[:0]
	for _, p := range pos {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: erasure %d outside codeword of %d", ErrInvalidParams, p, n)
		}
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func toElements(b []byte) []galois.Element {
	out := make([]galois.Element, len(b))
	for i, v := range b {
		out[i] = galois.Element(v)
	}
	return out
}

func toBytes(e []galois.Element) []byte {
	out := make([]byte, len(e))
	for i, v := range e {
		out[i] = byte(v)
	}
	return out
}

// EncodeBytes is Encode for a GF(2^8) codec working on bytes.
func (c *Codec) EncodeBytes(data []byte, nsym int) ([]byte, error) {
	if c.gf.Power() != 8 {
		return nil, ErrNotByteField
	}
	out, err := c.Encode(toElements(data), nsym)
	if err != nil {
		return nil, err
	}
	return toBytes(out), nil
}

// DecodeBytes is Decode for a GF(2^8) codec working on bytes.
func (c *Codec) DecodeBytes(codeword []byte, nsym int, erasures []int) ([]byte, error) {
	if c.gf.Power() != 8 {
		return nil, ErrNotByteField
	}
	out, err := c.Decode(toElements(codeword), nsym, erasures)
	if err != nil {
		return nil, err
	}
	return toBytes(out), nil
}

// CheckBytes is Check for a GF(2^8) codec working on bytes.
func (c *Codec) CheckBytes(codeword []byte, nsym int) bool {
	if c.gf.Power() != 8 {
		return false
	}
	return c.Check(toElements(codeword), nsym)
}
