// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"errors"
	"fmt"

	"github.com/toole-brendan/lightspv/chaincfg"
	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/merkle"
	"github.com/toole-brendan/lightspv/store"
	"github.com/toole-brendan/lightspv/types"
)

// MaxHeadersPerSubmit bounds how many headers a single submit_blocks call
// may carry, so a relayer cannot force unbounded per-call work regardless
// of how the host meters gas (spec.md §5).
const MaxHeadersPerSubmit = 2000

// Verifier is the external interface component (H) from spec.md §6: the
// operations a host calls directly, wrapping the Chain state machine
// (F), the header store (D), and the Merkle verifier (G).
type Verifier struct {
	store  *store.HeaderStore
	chain  *Chain
	params *chaincfg.Params
}

// Open opens (creating if necessary) the header store at path and wires
// it to a Chain configured for params. Init or Resume must be called
// before any mutating operation.
func Open(path string, params *chaincfg.Params) (*Verifier, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: open: %w", err)
	}
	return &Verifier{
		store:  st,
		chain:  NewChain(st, params),
		params: params,
	}, nil
}

// Close releases the underlying store handle.
func (v *Verifier) Close() error {
	return v.store.Close()
}

// Init activates a freshly opened store with the given configuration and
// genesis record (spec.md §6's init operation). Fails with
// AlreadyInitialized if called more than once against the same store.
func (v *Verifier) Init(cfg types.Config, genesis types.HeaderRecord) error {
	return v.chain.Init(cfg, genesis)
}

// Resume reactivates a Verifier against a store that was already
// initialized in a previous host session, rebuilding the in-memory fork
// registry from persisted state instead of writing a new genesis record.
func (v *Verifier) Resume(cfg types.Config) error {
	return v.chain.Resume(cfg)
}

// SetPaused gates submit_blocks behind the host's pause plugin; reads
// remain available while paused (spec.md §5).
func (v *Verifier) SetPaused(paused bool) {
	v.chain.SetPaused(paused)
}

// SubmitError reports the index of the first header in a submit_blocks
// batch that failed validation, alongside the underlying RuleError,
// satisfying spec.md §6's "surface its index" partial-batch requirement.
type SubmitError struct {
	Index int
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("header %d: %v", e.Index, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// SubmitBlocks validates and accepts each serialized header in order,
// stopping at the first failure (spec.md §6). It returns the number of
// headers accepted before that point; on success every header in headers
// was accepted. Every accepted header, whether or not it triggers a reorg,
// is committed in its own batch, so a failure partway through never rolls
// back headers already accepted earlier in the same call.
func (v *Verifier) SubmitBlocks(headers [][]byte) (int, error) {
	if len(headers) > MaxHeadersPerSubmit {
		return 0, ruleErrorf(ErrLimitExceeded, "submit_blocks: %d headers exceeds limit %d", len(headers), MaxHeadersPerSubmit)
	}
	for i, raw := range headers {
		if _, err := v.chain.SubmitHeader(raw); err != nil {
			return i, &SubmitError{Index: i, Err: err}
		}
	}
	return len(headers), nil
}

// GetLastBlockHeader returns the HeaderRecord at the current main-chain
// tip.
func (v *Verifier) GetLastBlockHeader() (*types.HeaderRecord, error) {
	if err := v.chain.requireActive(); err != nil {
		return nil, err
	}
	tip, _, err := v.store.MainTip()
	if err != nil {
		return nil, fmt.Errorf("verifier: get_last_block_header: %w", err)
	}
	return v.store.Get(tip)
}

// GetBlockHash returns the main-chain hash at height, failing with
// Pruned if height is below the GC floor and UnknownBlock if it is above
// the current main tip.
func (v *Verifier) GetBlockHash(height uint64) (chainhash.Hash, error) {
	if err := v.chain.requireActive(); err != nil {
		return chainhash.Hash{}, err
	}
	floor, err := v.store.GCFloor()
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("verifier: get_block_hash: %w", err)
	}
	if height < floor {
		return chainhash.Hash{}, ruleErrorf(ErrPruned, "height %d is below gc floor %d", height, floor)
	}
	hash, err := v.store.MainAt(height)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chainhash.Hash{}, ruleErrorf(ErrUnknownBlock, "no main-chain block at height %d", height)
		}
		return chainhash.Hash{}, fmt.Errorf("verifier: get_block_hash: %w", err)
	}
	return hash, nil
}

// GetHeader returns the stored record for hash, on any tracked chain
// (main or fork).
func (v *Verifier) GetHeader(hash chainhash.Hash) (*types.HeaderRecord, error) {
	if err := v.chain.requireActive(); err != nil {
		return nil, err
	}
	rec, err := v.store.Get(hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ruleErrorf(ErrUnknownBlock, "no header for hash %s", hash)
		}
		return nil, fmt.Errorf("verifier: get_header: %w", err)
	}
	return rec, nil
}

// VerifyTransactionInclusion validates a Merkle inclusion proof against
// the stored block's merkle_root and confirms the block is on the main
// chain with at least minConfirmations (or the chain's configured
// default, if minConfirmations is nil) confirmations, per spec.md §4.7.
func (v *Verifier) VerifyTransactionInclusion(
	txHash chainhash.Hash,
	blockHash chainhash.Hash,
	txIndex uint64,
	path []chainhash.Hash,
	txCount uint64,
	minConfirmations *uint64,
) (bool, error) {
	if err := v.chain.requireActive(); err != nil {
		return false, err
	}

	rec, err := v.store.Get(blockHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ruleErrorf(ErrUnknownBlock, "no header for hash %s", blockHash)
		}
		return false, fmt.Errorf("verifier: verify_transaction_inclusion: %w", err)
	}

	floor, err := v.store.GCFloor()
	if err != nil {
		return false, fmt.Errorf("verifier: verify_transaction_inclusion: %w", err)
	}
	if rec.Height < floor {
		return false, ruleErrorf(ErrPruned, "block at height %d is below gc floor %d", rec.Height, floor)
	}

	mainHash, err := v.store.MainAt(rec.Height)
	if err != nil || mainHash != blockHash {
		return false, ruleErrorf(ErrUnknownBlock, "block %s is not on the main chain", blockHash)
	}

	tipHash, _, err := v.store.MainTip()
	if err != nil {
		return false, fmt.Errorf("verifier: verify_transaction_inclusion: %w", err)
	}
	tip, err := v.store.Get(tipHash)
	if err != nil {
		return false, fmt.Errorf("verifier: verify_transaction_inclusion: %w", err)
	}

	required := v.chain.cfg.MinConfirmations
	if minConfirmations != nil {
		required = *minConfirmations
	}
	confirmations := tip.Height - rec.Height
	if confirmations < required {
		return false, ruleErrorf(ErrUnknownBlock, "only %d confirmations, need %d", confirmations, required)
	}

	ok, err := merkle.VerifyPath(txHash, txIndex, path, rec.MerkleRoot, txCount)
	if err != nil {
		return false, fmt.Errorf("verifier: verify_transaction_inclusion: %w", err)
	}
	return ok, nil
}

// ForkInfo is the shape get_forks reports to the host (spec.md §6).
type ForkInfo struct {
	TipHash   chainhash.Hash
	TipHeight uint64
	ChainWork string
	Length    uint32
}

// GetForks returns every live fork tracked by the registry.
func (v *Verifier) GetForks() ([]ForkInfo, error) {
	if err := v.chain.requireActive(); err != nil {
		return nil, err
	}
	all := v.chain.forks.All()
	out := make([]ForkInfo, 0, len(all))
	for _, f := range all {
		out = append(out, ForkInfo{
			TipHash:   f.TipHash,
			TipHeight: f.TipHeight,
			ChainWork: f.ChainWork.String(),
			Length:    f.Length,
		})
	}
	return out, nil
}
