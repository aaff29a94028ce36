// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package forks implements the bounded competing-tip registry from
// spec.md §4.5: forks are tracked in memory keyed by tip hash, evicted by
// lowest accumulated chain work when the configured limit is exceeded,
// and bounded individually by max fork length.
package forks

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
)

// ErrForkTooLong is returned when extending or creating a fork would
// exceed the configured max_fork_len.
var ErrForkTooLong = errors.New("fork too long")

// Registry holds the set of live forks, keyed by tip hash. It carries no
// knowledge of the header store; the chain state machine (component F)
// supplies chain_work and length values already computed from stored
// ancestry.
type Registry struct {
	maxLen   uint32
	maxForks int
	byTip    map[chainhash.Hash]*types.Fork
}

// New returns an empty registry bounded by maxLen (per-fork length) and
// maxForks (total live fork count).
func New(maxLen uint32, maxForks int) *Registry {
	return &Registry{
		maxLen:   maxLen,
		maxForks: maxForks,
		byTip:    make(map[chainhash.Hash]*types.Fork),
	}
}

// Load seeds the registry from persisted fork records, used at init/
// resume time to rebuild in-memory state from the header store's F:
// keyspace.
func Load(maxLen uint32, maxForks int, persisted []*types.Fork) *Registry {
	r := New(maxLen, maxForks)
	for _, f := range persisted {
		r.byTip[f.TipHash] = f
	}
	return r
}

// Get returns the fork whose tip is hash, if any.
func (r *Registry) Get(hash chainhash.Hash) (*types.Fork, bool) {
	f, ok := r.byTip[hash]
	return f, ok
}

// Len reports the number of live forks.
func (r *Registry) Len() int { return len(r.byTip) }

// All returns every live fork, for the get_forks external operation
// (spec.md §6). The returned slice is a fresh copy of the pointers; the
// Fork values themselves must not be mutated by the caller.
func (r *Registry) All() []*types.Fork {
	out := make([]*types.Fork, 0, len(r.byTip))
	for _, f := range r.byTip {
		out = append(out, f)
	}
	return out
}

// Insert adds a brand-new fork (the "new fork" dispatch case, spec.md
// §4.6), rejecting it with ErrForkTooLong if its length already exceeds
// the configured bound.
func (r *Registry) Insert(f *types.Fork) error {
	if f.Length > r.maxLen {
		return fmt.Errorf("%w: length %d exceeds %d", ErrForkTooLong, f.Length, r.maxLen)
	}
	r.byTip[f.TipHash] = f
	return nil
}

// Extend replaces the fork at oldTip with next, which must describe the
// same fork one block further along (the "extend fork" dispatch case).
// On ErrForkTooLong the registry is left exactly as it was: the caller
// never commits the rejected header's own store batch either, so a
// rejected extend cannot be allowed to silently drop the fork it failed
// to extend.
func (r *Registry) Extend(oldTip chainhash.Hash, next *types.Fork) error {
	if next.Length > r.maxLen {
		return fmt.Errorf("%w: length %d exceeds %d", ErrForkTooLong, next.Length, r.maxLen)
	}
	delete(r.byTip, oldTip)
	r.byTip[next.TipHash] = next
	return nil
}

// Remove deletes the fork at hash, if present. Used when a fork is
// discarded because the new main chain fully dominates it (spec.md
// §4.6's reorg protocol).
func (r *Registry) Remove(hash chainhash.Hash) {
	delete(r.byTip, hash)
}

// EnforceCapacity evicts the lowest-chain_work fork (tie-break: smallest
// tip height, then lexicographically smallest tip hash) if the registry
// holds more than maxForks entries, and returns the evicted fork. It
// returns ok=false if no eviction was needed.
func (r *Registry) EnforceCapacity() (evicted *types.Fork, ok bool) {
	if len(r.byTip) <= r.maxForks {
		return nil, false
	}

	var worst *types.Fork
	for _, f := range r.byTip {
		if worst == nil || isLighter(f, worst) {
			worst = f
		}
	}
	delete(r.byTip, worst.TipHash)
	log.Debugf("evicted fork tip=%s height=%d work=%s (capacity %d)",
		worst.TipHash, worst.TipHeight, worst.ChainWork, r.maxForks)
	return worst, true
}

// isLighter reports whether a should be evicted before b under the
// spec.md §4.5 tie-break order: lowest chain_work, then smallest tip
// height, then lexicographically smallest tip hash.
func isLighter(a, b *types.Fork) bool {
	if c := a.ChainWork.Cmp(b.ChainWork); c != 0 {
		return c < 0
	}
	if a.TipHeight != b.TipHeight {
		return a.TipHeight < b.TipHeight
	}
	return bytes.Compare(a.TipHash[:], b.TipHash[:]) < 0
}
