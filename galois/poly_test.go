package galois

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randPoly(rng *rand.Rand, f *Field, n int) Poly {
	p := make(Poly, n)
	for i := range p {
		p[i] = Element(rng.Intn(f.Size()))
	}
	return p
}

func TestPoly_AddAlignsConstantTerm(t *testing.T) {
	a := NewPoly(1, 2, 3)
	b := NewPoly(7, 9)
	got := a.Add(b)
	assert.Equal(t, Poly{1, 2 ^ 7, 3 ^ 9}, got)
	assert.Equal(t, got, b.Add(a))
	assert.Equal(t, Poly{1, 2, 3}, a, "Add must not modify its receiver")
}

func TestPoly_AddInPlace(t *testing.T) {
	p := NewPoly(4, 5)
	p.AddInPlace(Poly{1, 1, 1})
	assert.Equal(t, Poly{1, 5, 4}, p)
}

func TestPoly_Scale(t *testing.T) {
	f := mustField(t, 8)
	p := NewPoly(1, 2, 3)
	assert.Equal(t, Poly{0, 0, 0}, p.Scale(f, 0))
	assert.Equal(t, Poly{2, 4, 6}, p.Scale(f, 2))

	q := p.Clone()
	q.ScaleInPlace(f, 2)
	assert.Equal(t, Poly{2, 4, 6}, q)
	assert.Equal(t, Poly{1, 2, 3}, p)
}

func TestPoly_MulLength(t *testing.T) {
	f := mustField(t, 8)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		a := randPoly(rng, f, 1+rng.Intn(10))
		b := randPoly(rng, f, 1+rng.Intn(10))
		assert.Len(t, a.Mul(f, b), len(a)+len(b)-1)
	}
}

func TestPoly_MulEvalHomomorphism(t *testing.T) {
	f := mustField(t, 8)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		a := randPoly(rng, f, 1+rng.Intn(8))
		b := randPoly(rng, f, 1+rng.Intn(8))
		x := Element(rng.Intn(f.Size()))
		require.Equal(t, f.Mul(a.Eval(f, x), b.Eval(f, x)), a.Mul(f, b).Eval(f, x))
		require.Equal(t, a.Eval(f, x)^b.Eval(f, x), a.Add(b).Eval(f, x))
	}
}

func TestPoly_DivReconstructs(t *testing.T) {
	f := mustField(t, 8)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		b := randPoly(rng, f, 1+rng.Intn(6))
		b[0] = Element(1 + rng.Intn(f.Order()))
		a := randPoly(rng, f, len(b)+rng.Intn(10))

		q, r, err := a.Div(f, b)
		require.NoError(t, err)
		require.Len(t, q, len(a)-len(b)+1)
		require.Len(t, r, len(b)-1)

		// a == q*b + r
		back := q.Mul(f, b).Add(r)
		require.True(t, a.Equal(back), "a=%v q=%v r=%v b=%v", a, q, r, b)
	}
}

func TestPoly_DivErrorsAndShortDividend(t *testing.T) {
	f := mustField(t, 8)
	_, _, err := NewPoly(1, 2, 3).Div(f, Poly{0, 1})
	assert.ErrorIs(t, err, ErrZeroLeading)
	_, _, err = NewPoly(1, 2, 3).Div(f, Poly{})
	assert.ErrorIs(t, err, ErrZeroLeading)

	q, r, err := NewPoly(5).Div(f, Poly{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, q)
	assert.Equal(t, Poly{0, 5}, r)
}

func TestPoly_Eval(t *testing.T) {
	f := mustField(t, 8)
	p := NewPoly(1, 0, 1) // x^2 + 1
	assert.Equal(t, Element(0), p.Eval(f, 1))
	assert.Equal(t, Element(5), p.Eval(f, 2))
	assert.Equal(t, Element(0), Poly{}.Eval(f, 9))
}

func TestPoly_PadTrimReverse(t *testing.T) {
	p := NewPoly(1, 2, 3)
	padded := p.Pad(2, 1)
	assert.Equal(t, Poly{0, 0, 1, 2, 3, 0}, padded)

	back, err := padded.Trim(2, 1)
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = p.Trim(2, 2)
	assert.ErrorIs(t, err, ErrTrim)
	_, err = p.Trim(-1, 0)
	assert.ErrorIs(t, err, ErrTrim)

	assert.Equal(t, Poly{3, 2, 1}, p.Reverse())
	assert.Equal(t, Poly{1, 2}, Poly{0, 0, 1, 2}.TrimLeadingZeros())
	assert.Equal(t, Poly{0}, Poly{0, 0}.TrimLeadingZeros())
	assert.Equal(t, Poly{3, 0, 0}, Monomial(3, 2))
}

func TestField_ChienSearch(t *testing.T) {
	f := mustField(t, 8)
	// (x - 2^3)(x - 2^10)
	p := NewPoly(1, f.Exp(3)).Mul(f, NewPoly(1, f.Exp(10)))

	roots, err := f.ChienSearch(p, 20, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 10}, roots)

	_, err = f.ChienSearch(p, 5, 2)
	assert.ErrorIs(t, err, ErrRootCount)
	_, err = f.ChienSearch(p, 20, 3)
	assert.ErrorIs(t, err, ErrRootCount)
}
