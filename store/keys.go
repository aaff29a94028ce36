// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store implements the persistent header store from spec.md
// §4.4: a hash→HeaderRecord mapping, a height→main-chain-hash index, and
// the bounded-GC eviction policy, backed by goleveldb the way the
// teacher's ffldb backs btcd's block index.
package store

import "encoding/binary"

// Key prefixes partition the single goleveldb keyspace this store owns.
// A single-byte prefix keeps key comparison (and therefore iteration
// order) cheap, matching ffldb's own bucket-prefix convention.
const (
	prefixHeader byte = 'H' // H<32-byte hash>            -> encoded HeaderRecord
	prefixHeight byte = 'M' // M<8-byte big-endian height> -> 32-byte block hash (main chain only)
	prefixFork   byte = 'F' // F<32-byte tip hash>         -> encoded types.Fork
)

// Singleton keys live outside the above prefixes since they are not
// indexed by hash or height.
var (
	keyMainTip  = []byte("tip")
	keyConfig   = []byte("config")
	keyGCFloor  = []byte("gc_floor")
)

func headerKey(hash [32]byte) []byte {
	k := make([]byte, 1+32)
	k[0] = prefixHeader
	copy(k[1:], hash[:])
	return k
}

func heightKey(height uint64) []byte {
	k := make([]byte, 1+8)
	k[0] = prefixHeight
	binary.BigEndian.PutUint64(k[1:], height)
	return k
}

func forkKey(tipHash [32]byte) []byte {
	k := make([]byte, 1+32)
	k[0] = prefixFork
	copy(k[1:], tipHash[:])
	return k
}

// heightRangeKeys returns the [start, end) iteration bounds for every
// height key in [from, to].
func heightRangeKeys(from, to uint64) (lo, hi []byte) {
	return heightKey(from), heightKey(to + 1)
}
