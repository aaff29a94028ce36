// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pow implements the compact-target <-> 256-bit-integer
// arithmetic used by every tracked chain's difficulty engine, per
// spec.md §4.2.
package pow

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidTarget is returned when a compact "bits" value decodes to a
// target with the sign bit set or a zero mantissa, per spec.md §4.2.
var ErrInvalidTarget = errors.New("invalid target")

// oneLsh256 is 2^256, used by Work to compute floor(2^256 / (target+1)).
var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CompactToBig converts a compact representation of a whole number N to
// an unsigned 256-bit integer. The representation is similar to IEEE754
// floating point numbers: mantissa × 256^(exponent-3), with the 0x00800000
// bit of the mantissa acting as a sign flag.
//
// It returns ErrInvalidTarget only if the sign bit is set (negative
// target). A zero mantissa is not an error here: it decodes to the
// integer zero. Callers that need a strictly positive target (i.e.
// anywhere a PoW comparison happens) must check for zero themselves; see
// CheckRange.
func CompactToBig(compact uint32) (*big.Int, error) {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	if isNegative {
		return nil, fmt.Errorf("%w: sign bit set in 0x%08x", ErrInvalidTarget, compact)
	}
	exponent := compact >> 24

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(uint(exponent)-3))
	}
	return bn, nil
}

// BigToCompact converts a whole number N to a compact representation
// using an relative exponent and a mantissa (see CompactToBig for the
// format). It truncates, as the compact representation is lossy for
// large integers; this matches every chain's reference encoding.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// When the mantissa's high bit would be interpreted as the sign
	// flag, shift it down a byte and bump the exponent, matching the
	// reference Bitcoin Core encoding.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent<<24) | mantissa
}

// CheckRange validates that a decoded target is strictly positive and
// does not exceed the chain's PoW limit. Both conditions must hold for a
// "bits" value to be consensus-valid.
func CheckRange(target, powLimit *big.Int) error {
	if target.Sign() <= 0 {
		return fmt.Errorf("%w: target is zero or negative", ErrInvalidTarget)
	}
	if target.Cmp(powLimit) > 0 {
		return fmt.Errorf("%w: target exceeds chain pow limit", ErrInvalidTarget)
	}
	return nil
}

// Work returns the expected number of hash attempts required to produce
// a block at the given target: floor(2^256 / (target+1)), per spec.md
// §4.2. The result is accumulated into HeaderRecord.ChainWork.
func Work(target *big.Int) *big.Int {
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(oneLsh256, denom)
}

// HashToBig interprets a 32-byte hash (little-endian, as produced by the
// chain's PoW function) as a 256-bit unsigned integer for comparison
// against a decoded target.
func HashToBig(hash [32]byte) *big.Int {
	// Reverse in place into a scratch buffer: hashes are produced
	// little-endian but big.Int.SetBytes expects big-endian.
	var buf [32]byte
	for i := 0; i < 32; i++ {
		buf[i] = hash[32-1-i]
	}
	return new(big.Int).SetBytes(buf[:])
}
