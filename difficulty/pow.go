// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"fmt"
	"math/big"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/pow"
)

// CheckProofOfWork validates that powHash, interpreted as a 256-bit
// number, does not exceed the target bits decodes to, and that the
// target itself is in range for powLimit. It is chain-agnostic: the
// caller supplies whichever hash the chain's PoW function produces
// (double-SHA256 for Bitcoin/Zcash, scrypt for Litecoin/Dogecoin).
func CheckProofOfWork(powHash chainhash.Hash, bits uint32, powLimit *big.Int) error {
	target, err := pow.CompactToBig(bits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDifficulty, err)
	}
	if err := pow.CheckRange(target, powLimit); err != nil {
		return fmt.Errorf("%w: %v", ErrBadDifficulty, err)
	}
	hashNum := pow.HashToBig([32]byte(powHash))
	if hashNum.Cmp(target) > 0 {
		return fmt.Errorf("%w: hash %s exceeds target for bits 0x%08x", ErrInsufficientPoW, powHash, bits)
	}
	return nil
}
