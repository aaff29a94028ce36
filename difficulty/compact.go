// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"fmt"
	"math/big"

	"github.com/toole-brendan/lightspv/pow"
)

// toTargetOrErr wraps pow.CompactToBig with the ErrBadDifficulty kind,
// since a stored header's bits are only ever decoded here in the context
// of computing a retarget.
func toTargetOrErr(bits uint32) (*big.Int, error) {
	target, err := pow.CompactToBig(bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDifficulty, err)
	}
	return target, nil
}

// bigToCompact re-exports pow.BigToCompact under this package's name for
// readability at retarget call sites.
func bigToCompact(n *big.Int) uint32 {
	return pow.BigToCompact(n)
}
