// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactToBigRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		compact uint32
	}{
		{"bitcoin genesis bits", 0x1d00ffff},
		{"small exponent", 0x03123456},
		{"zero mantissa", 0x04000000},
		{"large exponent", 0x1e0fffff},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := CompactToBig(tc.compact)
			require.NoError(t, err)
			got := BigToCompact(n)
			back, err := CompactToBig(got)
			require.NoError(t, err)
			assert.Equal(t, 0, n.Cmp(back), "round trip through compact should preserve value %s", n)
		})
	}
}

func TestCompactToBigSignBitRejected(t *testing.T) {
	_, err := CompactToBig(0x01800000)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCompactToBigZeroMantissaIsZero(t *testing.T) {
	n, err := CompactToBig(0x04000000)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Sign())
}

func TestBigToCompactZero(t *testing.T) {
	assert.Equal(t, uint32(0), BigToCompact(big.NewInt(0)))
}

func TestCheckRange(t *testing.T) {
	powLimit, err := CompactToBig(0x1d00ffff)
	require.NoError(t, err)

	t.Run("zero target rejected", func(t *testing.T) {
		assert.ErrorIs(t, CheckRange(big.NewInt(0), powLimit), ErrInvalidTarget)
	})
	t.Run("negative target rejected", func(t *testing.T) {
		assert.ErrorIs(t, CheckRange(big.NewInt(-1), powLimit), ErrInvalidTarget)
	})
	t.Run("target exceeding pow limit rejected", func(t *testing.T) {
		tooHigh := new(big.Int).Add(powLimit, big.NewInt(1))
		assert.ErrorIs(t, CheckRange(tooHigh, powLimit), ErrInvalidTarget)
	})
	t.Run("target within range accepted", func(t *testing.T) {
		assert.NoError(t, CheckRange(big.NewInt(1), powLimit))
		assert.NoError(t, CheckRange(powLimit, powLimit))
	})
}

func TestWorkDecreasesAsTargetIncreases(t *testing.T) {
	small := big.NewInt(1000)
	large := big.NewInt(2000)

	workSmall := Work(small)
	workLarge := Work(large)

	assert.Equal(t, 1, workSmall.Cmp(workLarge), "a smaller target implies more expected work")
}

func TestWorkOfMaxTargetIsOne(t *testing.T) {
	// target = 2^256 - 1 implies floor(2^256 / 2^256) == 1, the minimal
	// possible amount of expected work.
	maxTarget := new(big.Int).Sub(oneLsh256, big.NewInt(1))
	assert.Equal(t, big.NewInt(1), Work(maxTarget))
}

func TestHashToBigEndianness(t *testing.T) {
	var hash [32]byte
	hash[0] = 0x01 // little-endian least-significant byte

	got := HashToBig(hash)
	assert.Equal(t, big.NewInt(1), got)
}

func TestHashToBigZero(t *testing.T) {
	var hash [32]byte
	assert.Equal(t, 0, HashToBig(hash).Sign())
}
