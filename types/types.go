// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package types holds the data model entities from spec.md §3 shared by
// the store, fork registry, difficulty engine, and verifier packages.
// Keeping them in their own leaf package avoids an import cycle between
// the packages that produce them (chaincfg's genesis data) and the ones
// that persist/consume them (store, forks).
package types

import (
	"math/big"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/wire"
)

// HeaderRecord is a validated, positioned header: the fields spec.md §3
// says must be retained once a submitted header clears difficulty,
// linkage, and timestamp checks.
type HeaderRecord struct {
	BlockHash  chainhash.Hash
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Height     uint64
	Time       uint32
	Bits       uint32
	ChainWork  *big.Int

	// TxCount is the number of transactions committed to by MerkleRoot,
	// where known. The header never carries a transaction count, so only
	// the genesis records built by chaincfg set it (to 1); records accepted
	// through submission leave it zero. VerifyTransactionInclusion takes
	// the count as an argument alongside the proof (spec.md §4.7) and does
	// not read this field.
	TxCount uint64

	// Raw is the exact bytes the header was submitted as, kept so a
	// stored record can be re-serialized for audit or re-validated
	// without asking the relayer again.
	Raw []byte

	Chain wire.Chain
}

// CloneWork returns an independent copy of ChainWork, so callers that
// mutate a returned record's copy never alias storage-owned state.
func (r *HeaderRecord) CloneWork() *big.Int {
	if r.ChainWork == nil {
		return nil
	}
	return new(big.Int).Set(r.ChainWork)
}

// Fork tracks a competing tip per spec.md §3/§4.5: only the tip and its
// accumulated metadata are kept in the registry; the headers between the
// common ancestor and the tip live in the HeaderStore and are walked via
// PrevHash when needed (reorg, length accounting, GC retention).
type Fork struct {
	TipHash   chainhash.Hash
	TipHeight uint64
	ChainWork *big.Int

	// Length is the number of headers strictly above the common
	// ancestor with the main chain, per spec.md §3 invariant 5 and
	// §4.5.
	Length uint32
}

// Config is the immutable-after-init configuration for a tracked chain,
// per spec.md §3. It binds a static chaincfg.Params selection (passed in
// by the host at init time, so this package never needs to import
// chaincfg) to the runtime bounds the verifier enforces.
type Config struct {
	Network wire.Net
	Chain   wire.Chain

	// GCThreshold is the maximum history depth retained below the main
	// chain tip (spec.md §4.4).
	GCThreshold uint64

	// MaxForkLen bounds both an individual fork's length (spec.md §4.5)
	// and the per-call reorg depth (spec.md §5).
	MaxForkLen uint32

	// MaxForks bounds the number of simultaneously tracked competing
	// tips (spec.md §4.5).
	MaxForks int

	// MinConfirmations is the default confirmation depth
	// VerifyTransactionInclusion requires when the caller does not
	// override it (spec.md §4.7/§6).
	MinConfirmations uint64

	// MedianTimePastWindow is the number of ancestor blocks considered
	// by the median-time-past timestamp check (spec.md §4.6); Bitcoin
	// family chains use 11.
	MedianTimePastWindow int

	// SkipPoW disables the proof-of-work check entirely. Test-only; the
	// host must never set this for a public deployment (spec.md §4.3).
	SkipPoW bool
}
