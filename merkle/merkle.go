// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle implements the inclusion-proof verifier from spec.md
// §4.7: folding a transaction hash up an authentication path to a claimed
// merkle root, with the CVE-2012-2459 duplicate-node guard.
package merkle

import (
	"errors"
	"fmt"
	"io"

	"github.com/toole-brendan/lightspv/chainhash"
)

// ErrIndexOutOfRange is returned when tx_index is not a valid leaf
// position for the declared tx_count.
var ErrIndexOutOfRange = errors.New("merkle: tx index out of range")

// ErrPathLengthMismatch is returned when the supplied path does not fold
// down to exactly the tree's root level for the declared tx_count.
var ErrPathLengthMismatch = errors.New("merkle: path length does not match tx count")

// ErrDuplicatedNode is returned when a sibling hash in the path equals
// the hash it would be paired with at a position where the real tree
// cannot have produced a duplicate, per the CVE-2012-2459 guard below.
var ErrDuplicatedNode = errors.New("merkle: disallowed duplicate node in path")

// hashBranches concatenates left and right and returns their double-
// SHA256, the per-level step of a Bitcoin-family merkle tree.
func hashBranches(left, right chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashRaw(func(w io.Writer) error {
		_, err := w.Write(buf[:])
		return err
	})
}

// VerifyPath folds txHash up through path (ordered leaf to root, as
// spec.md §4.7 defines it) using txIndex's bits to choose left/right
// concatenation order at each level, and reports whether the result
// equals merkleRoot.
//
// txCount is required to apply the CVE-2012-2459 guard: Bitmex/Bitcoin's
// original merkle tree duplicates a level's last node when that level
// has an odd width, which lets a malicious prover craft two different
// (tx_index, path) pairs that fold to the same root for two different
// transactions unless the duplicate is only accepted at the one position
// the real tree can produce it.
func VerifyPath(txHash chainhash.Hash, txIndex uint64, path []chainhash.Hash, merkleRoot chainhash.Hash, txCount uint64) (bool, error) {
	if txCount == 0 {
		return false, fmt.Errorf("%w: tx_count is zero", ErrIndexOutOfRange)
	}
	if txIndex >= txCount {
		return false, fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, txIndex, txCount)
	}

	hash := txHash
	idx := txIndex
	nodes := txCount
	for level, sibling := range path {
		isDegenerateDup := nodes%2 == 1 && idx == nodes-1
		if sibling == hash && !isDegenerateDup {
			return false, fmt.Errorf("%w: level %d", ErrDuplicatedNode, level)
		}
		if idx&1 == 0 {
			hash = hashBranches(hash, sibling)
		} else {
			hash = hashBranches(sibling, hash)
		}
		idx >>= 1
		nodes = (nodes + 1) / 2
	}

	if nodes != 1 {
		return false, fmt.Errorf("%w: got %d levels, tx_count %d needs %d", ErrPathLengthMismatch, len(path), txCount, levelsFor(txCount))
	}
	return hash == merkleRoot, nil
}

// levelsFor returns the number of fold levels a tree over n leaves needs
// to reach its root, used only to annotate ErrPathLengthMismatch.
func levelsFor(n uint64) int {
	levels := 0
	for n > 1 {
		n = (n + 1) / 2
		levels++
	}
	return levels
}
