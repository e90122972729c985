package reedsolomon

import (
	"encoding/hex"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townmi/dnastore/galois"
)

func newCodec(t *testing.T, m uint) *Codec {
	t.Helper()
	c, err := New(m)
	require.NoError(t, err)
	return c
}

func randData(rng *rand.Rand, c *Codec, k int) []galois.Element {
	d := make([]galois.Element, k)
	for i := range d {
		d[i] = galois.Element(rng.Intn(c.Field().Size()))
	}
	return d
}

// corrupt flips the symbols at pos to a different value.
func corrupt(rng *rand.Rand, c *Codec, msg []galois.Element, pos []int) []galois.Element {
	out := append([]galois.Element(nil), msg...)
	for _, p := range pos {
		out[p] ^= galois.Element(1 + rng.Intn(c.Field().Order()))
	}
	return out
}

func TestGenerator_Degree7(t *testing.T) {
	c := newCodec(t, 8)
	g := c.Generator(7)
	require.Len(t, g, 8)

	logs := make([]int, len(g))
	for i, coef := range g {
		logs[i] = c.Field().Log(coef)
	}
	assert.Equal(t, []int{0, 87, 229, 146, 149, 238, 102, 21}, logs)

	for i := 0; i < 7; i++ {
		assert.Equal(t, galois.Element(0), g.Eval(c.Field(), c.Field().Exp(i)), "root 2^%d", i)
	}
}

func TestEncodeBytes_KnownAnswer(t *testing.T) {
	c := newCodec(t, 8)
	out, err := c.EncodeBytes([]byte("hello world"), 10)
	require.NoError(t, err)
	assert.Equal(t, "68656c6c6f20776f726c64ed2554c4fdfd89f3a8aa", hex.EncodeToString(out))
	assert.True(t, c.Check(toElements(out), 10))
}

func TestEncode_Systematic(t *testing.T) {
	c := newCodec(t, 8)
	rng := rand.New(rand.NewSource(10))
	data := randData(rng, c, 20)
	cw, err := c.Encode(data, 6)
	require.NoError(t, err)
	require.Len(t, cw, 26)
	assert.Equal(t, data, cw[:20])

	synd := c.Syndromes(cw, 6)
	require.Len(t, synd, 7)
	assert.True(t, CheckSyndromes(synd))
}

func TestEncode_InvalidParams(t *testing.T) {
	c := newCodec(t, 4)
	_, err := c.Encode(make([]galois.Element, 10), 6) // 16 > 15
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = c.Encode(make([]galois.Element, 3), -1)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = c.Encode([]galois.Element{1, 16}, 2)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = c.EncodeBytes([]byte{1}, 2)
	assert.ErrorIs(t, err, ErrNotByteField)
}

func TestSyndromes_Layout(t *testing.T) {
	c := newCodec(t, 8)
	gf := c.Field()
	msg := []galois.Element{3, 1, 4, 1, 5, 9, 2, 6}
	synd := c.Syndromes(msg, 4)
	require.Len(t, synd, 5)
	for i := 0; i < 4; i++ {
		assert.Equal(t, galois.Poly(msg).Eval(gf, gf.Exp(i)), synd[3-i])
	}
	assert.Equal(t, galois.Element(0), synd[4])
}

func TestDecode_RoundTripClean(t *testing.T) {
	for _, m := range []uint{4, 8, 10} {
		c := newCodec(t, m)
		rng := rand.New(rand.NewSource(int64(m)))
		for trial := 0; trial < 50; trial++ {
			nsym := rng.Intn(9)
			k := 1 + rng.Intn(c.MaxCodewordLen()-nsym)
			if k > 60 {
				k = 60
			}
			data := randData(rng, c, k)
			cw, err := c.Encode(data, nsym)
			require.NoError(t, err)
			got, err := c.Decode(cw, nsym, nil)
			require.NoError(t, err)
			require.Equal(t, data, got)
		}
	}
}

func TestDecode_CorrectsUpToHalfParity(t *testing.T) {
	c := newCodec(t, 8)
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 500; trial++ {
		nsym := 1 + rng.Intn(16)
		k := 1 + rng.Intn(48)
		data := randData(rng, c, k)
		cw, err := c.Encode(data, nsym)
		require.NoError(t, err)

		nerr := rng.Intn(nsym/2 + 1)
		pos := rng.Perm(k + nsym)[:nerr]
		got, err := c.Decode(corrupt(rng, c, cw, pos), nsym, nil)
		require.NoError(t, err, "trial %d: k=%d nsym=%d errors=%v", trial, k, nsym, pos)
		require.Equal(t, data, got)
	}
}

func TestDecode_CorrectsUpToParityErasures(t *testing.T) {
	c := newCodec(t, 8)
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		nsym := 1 + rng.Intn(16)
		k := 1 + rng.Intn(48)
		data := randData(rng, c, k)
		cw, err := c.Encode(data, nsym)
		require.NoError(t, err)

		nerase := 1 + rng.Intn(nsym)
		pos := rng.Perm(k + nsym)[:nerase]
		got, err := c.Decode(corrupt(rng, c, cw, pos), nsym, pos)
		require.NoError(t, err, "trial %d: k=%d nsym=%d erasures=%v", trial, k, nsym, pos)
		require.Equal(t, data, got)
	}
}

func TestDecode_MixedErrorsAndErasures(t *testing.T) {
	c := newCodec(t, 8)
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 500; trial++ {
		nsym := 2 + rng.Intn(14)
		k := 1 + rng.Intn(40)
		data := randData(rng, c, k)
		cw, err := c.Encode(data, nsym)
		require.NoError(t, err)

		nerr := rng.Intn(nsym/2 + 1)
		nerase := rng.Intn(nsym - 2*nerr + 1)
		pos := rng.Perm(k + nsym)[:nerr+nerase]
		got, err := c.Decode(corrupt(rng, c, cw, pos), nsym, pos[nerr:])
		require.NoError(t, err, "trial %d: k=%d nsym=%d errors=%v erasures=%v", trial, k, nsym, pos[:nerr], pos[nerr:])
		require.Equal(t, data, got)
	}
}

func TestDecode_DuplicateErasuresIgnored(t *testing.T) {
	c := newCodec(t, 8)
	cw, err := c.EncodeBytes([]byte("duplex"), 4)
	require.NoError(t, err)
	cw[1] = 0xFF
	got, err := c.DecodeBytes(cw, 4, []int{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("duplex"), got)
}

func TestDecode_TooManyErasures(t *testing.T) {
	c := newCodec(t, 8)
	cw, err := c.EncodeBytes([]byte("abcdef"), 4)
	require.NoError(t, err)
	_, err = c.DecodeBytes(cw, 4, []int{0, 1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrTooManyErasures)

	_, err = c.DecodeBytes(cw, 4, []int{10})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDecode_BeyondBoundFails(t *testing.T) {
	c := newCodec(t, 8)
	// Codewords for one data symbol and two parity symbols are d*(1, 3, 2).
	cw, err := c.Encode([]galois.Element{1}, 2)
	require.NoError(t, err)
	require.Equal(t, []galois.Element{1, 3, 2}, cw)

	// (0, 5, 7) is two symbols away from the zero codeword and at least two
	// away from every other codeword, so no single error explains it.
	_, err = c.Decode([]galois.Element{0, 5, 7}, 2, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnlocatable)
}

// Beyond the bound a decoder may fail or settle on a different codeword,
// but whatever it returns must be a codeword within floor(nsym/2) symbols
// of what it was given.
func TestDecode_BeyondBoundNeverInventsData(t *testing.T) {
	c := newCodec(t, 8)
	rng := rand.New(rand.NewSource(5))
	failures := 0
	for trial := 0; trial < 300; trial++ {
		nsym := 2 + rng.Intn(8)
		k := 4 + rng.Intn(20)
		data := randData(rng, c, k)
		cw, err := c.Encode(data, nsym)
		require.NoError(t, err)

		pos := rng.Perm(k + nsym)[:nsym/2+1+rng.Intn(2)]
		received := corrupt(rng, c, cw, pos)
		got, err := c.DecodeCodeword(received, nsym, nil)
		if err != nil {
			failures++
			continue
		}
		require.True(t, c.Check(got, nsym))
		diff := 0
		for i := range got {
			if got[i] != received[i] {
				diff++
			}
		}
		require.LessOrEqual(t, diff, nsym/2)
	}
	assert.Positive(t, failures)
}

func TestErrorLocator_SeededWithErasures(t *testing.T) {
	c := newCodec(t, 8)
	data := []galois.Element{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cw, err := c.Encode(data, 6)
	require.NoError(t, err)

	erasures := []int{2, 7, 11}
	msg := append([]galois.Element(nil), cw...)
	for _, p := range erasures {
		msg[p] = 0
	}
	coefPos := make([]int, len(erasures))
	for i, p := range erasures {
		coefPos[i] = len(msg) - 1 - p
	}
	eraseLoc := c.ErasureLocator(coefPos)

	synd := c.Syndromes(msg, 6)
	loc, err := c.ErrorLocator(synd, 6, eraseLoc, len(erasures))
	require.NoError(t, err)
	assert.True(t, loc.Equal(eraseLoc))

	pos, err := c.FindErrors(loc, len(msg))
	require.NoError(t, err)
	sort.Ints(pos)
	assert.Equal(t, erasures, pos)

	// One extra unknown error is folded into the same locator.
	msg[4] ^= 0x55
	synd = c.Syndromes(msg, 6)
	loc, err = c.ErrorLocator(synd, 6, eraseLoc, len(erasures))
	require.NoError(t, err)
	pos, err = c.FindErrors(loc, len(msg))
	require.NoError(t, err)
	sort.Ints(pos)
	assert.Equal(t, []int{2, 4, 7, 11}, pos)

	fixed, err := c.CorrectErrata(msg, synd, pos)
	require.NoError(t, err)
	assert.Equal(t, cw, fixed)
}

func TestFindErrors_ZeroDegree(t *testing.T) {
	c := newCodec(t, 8)
	pos, err := c.FindErrors(galois.Poly{1}, 20)
	require.NoError(t, err)
	assert.Empty(t, pos)
}

func TestFindErrors_LinearRootOutOfRange(t *testing.T) {
	c := newCodec(t, 8)
	gf := c.Field()
	// Root 2^30 does not map into a 10 symbol message.
	loc := galois.Poly{gf.Exp(30), 1}
	_, err := c.FindErrors(loc, 10)
	assert.ErrorIs(t, err, ErrUnlocatable)
}

func TestCorrectErrata_Singular(t *testing.T) {
	c := newCodec(t, 8)
	msg := make([]galois.Element, 8)
	synd := c.Syndromes(msg, 4)
	_, err := c.CorrectErrata(msg, synd, []int{3, 3})
	assert.ErrorIs(t, err, ErrSingular)
}

func TestForneySyndromes_NoErasuresDropsSentinel(t *testing.T) {
	c := newCodec(t, 8)
	synd := galois.Poly{9, 8, 7, 0}
	assert.Equal(t, galois.Poly{9, 8, 7}, c.ForneySyndromes(synd, nil, 10))
}

func TestDecode_ZeroParity(t *testing.T) {
	c := newCodec(t, 8)
	got, err := c.DecodeBytes([]byte("abc"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}
