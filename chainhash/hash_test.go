// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"crypto/sha256"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleHashB(t *testing.T) {
	data := []byte("lightspv")
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])

	assert.Equal(t, second[:], DoubleHashB(data))
	assert.Equal(t, Hash(second), DoubleHashH(data))
}

func TestDoubleHashRaw(t *testing.T) {
	want := DoubleHashH([]byte("header bytes"))
	got := DoubleHashRaw(func(w io.Writer) error {
		_, err := w.Write([]byte("header bytes"))
		return err
	})
	assert.Equal(t, want, got)
}

func TestDoubleHashRawReturnsZeroHashOnError(t *testing.T) {
	sentinel := assert.AnError
	got := DoubleHashRaw(func(w io.Writer) error {
		return sentinel
	})
	assert.Equal(t, Hash{}, got)
}

func TestHashStringRoundTrip(t *testing.T) {
	var h Hash
	h[0] = 0xde
	h[31] = 0xad

	parsed, err := NewHashFromStr(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, *parsed)
}

func TestDecodeOddLengthPadsLeadingZero(t *testing.T) {
	var dst Hash
	require.NoError(t, Decode(&dst, "abc"))

	var want Hash
	require.NoError(t, Decode(&want, "0abc"))
	assert.Equal(t, want, dst)
}

func TestDecodeTooLong(t *testing.T) {
	var dst Hash
	oversized := make([]byte, MaxHashStringSize+1)
	for i := range oversized {
		oversized[i] = 'a'
	}
	err := Decode(&dst, string(oversized))
	assert.ErrorIs(t, err, ErrHashStrSize)
}

func TestSetBytesWrongLength(t *testing.T) {
	var h Hash
	err := h.SetBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCloneBytesIsIndependentCopy(t *testing.T) {
	h := DoubleHashH([]byte("clone me"))
	clone := h.CloneBytes()
	clone[0] ^= 0xff
	assert.NotEqual(t, h[0], clone[0])
}

func TestIsEqual(t *testing.T) {
	a := DoubleHashH([]byte("a"))
	b := DoubleHashH([]byte("a"))
	c := DoubleHashH([]byte("b"))

	assert.True(t, a.IsEqual(&b))
	assert.False(t, a.IsEqual(&c))

	var nilHash *Hash
	assert.True(t, nilHash.IsEqual(nil))
	assert.False(t, a.IsEqual(nil))
}

func TestScryptRawDeterministic(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := w.Write([]byte("scrypt input"))
		return err
	}
	h1, err := ScryptRaw(write)
	require.NoError(t, err)
	h2, err := ScryptRaw(write)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestScryptRawDiffersFromDoubleSHA(t *testing.T) {
	write := func(w io.Writer) error {
		_, err := w.Write([]byte("distinct hash functions"))
		return err
	}
	scryptHash, err := ScryptRaw(write)
	require.NoError(t, err)
	shaHash := DoubleHashH([]byte("distinct hash functions"))
	assert.NotEqual(t, shaHash, scryptHash)
}
