// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/toole-brendan/lightspv/chaincfg"
	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/difficulty"
	"github.com/toole-brendan/lightspv/forks"
	"github.com/toole-brendan/lightspv/pow"
	"github.com/toole-brendan/lightspv/store"
	"github.com/toole-brendan/lightspv/types"
	"github.com/toole-brendan/lightspv/wire"
)

// gcEvictionsPerSubmit bounds how many records a single accepted header
// can evict from storage, keeping the per-call resource cost predictable
// (spec.md §5) regardless of how far the GC floor has fallen behind.
const gcEvictionsPerSubmit = 16

// Chain is the state machine component (F) from spec.md §4.6: it owns
// the header store and fork registry and drives submission dispatch
// (extend-main / extend-fork / new-fork) and the reorg protocol.
type Chain struct {
	store  *store.HeaderStore
	forks  *forks.Registry
	params *chaincfg.Params
	cfg    types.Config

	initialized bool
	paused      bool
}

// NewChain wires a Chain to an already-open header store and the
// consensus parameters it will validate headers against. Init must be
// called once before any mutating operation is accepted.
func NewChain(st *store.HeaderStore, params *chaincfg.Params) *Chain {
	return &Chain{store: st, params: params}
}

// Init seeds the store with the genesis record and activates the chain.
// Calling it twice fails with ErrAlreadyInitialized; the host is expected
// to check whether a store already has a persisted tip before calling
// Init on a fresh deployment versus resuming an existing one (see
// Resume).
func (c *Chain) Init(cfg types.Config, genesis types.HeaderRecord) error {
	if c.initialized {
		return ruleError(ErrAlreadyInitialized, "chain already initialized")
	}
	if _, ok, err := c.store.MainTip(); err != nil {
		return fmt.Errorf("verifier: init: %w", err)
	} else if ok {
		return ruleError(ErrAlreadyInitialized, "store already initialized")
	}

	b := c.store.NewBatch()
	if err := b.Insert(&genesis); err != nil {
		return fmt.Errorf("verifier: init: %w", err)
	}
	b.SetMain(genesis.Height, genesis.BlockHash)
	b.SetTip(genesis.BlockHash)
	b.SetGCFloor(0)
	if err := b.Commit(); err != nil {
		return fmt.Errorf("verifier: init: %w", err)
	}

	c.cfg = cfg
	c.forks = forks.New(uint32(cfg.MaxForkLen), cfg.MaxForks)
	c.initialized = true
	log.Infof("initialized %s at genesis %s", c.params.Name, genesis.BlockHash)
	return nil
}

// Resume rebuilds in-memory state (the fork registry) from a store that
// was already initialized in a prior host session, rather than writing a
// fresh genesis record.
func (c *Chain) Resume(cfg types.Config) error {
	if c.initialized {
		return ruleError(ErrAlreadyInitialized, "chain already initialized")
	}
	if _, ok, err := c.store.MainTip(); err != nil {
		return fmt.Errorf("verifier: resume: %w", err)
	} else if !ok {
		return ruleError(ErrNotInitialized, "store has no main tip to resume from")
	}
	persisted, err := c.store.LoadForks()
	if err != nil {
		return fmt.Errorf("verifier: resume: %w", err)
	}
	c.cfg = cfg
	c.forks = forks.Load(uint32(cfg.MaxForkLen), cfg.MaxForks, persisted)
	c.initialized = true
	return nil
}

// SetPaused gates every mutating operation behind the host's
// upgrade/pause plugin (spec.md §5); reads are unaffected.
func (c *Chain) SetPaused(paused bool) {
	c.paused = paused
}

func (c *Chain) requireActive() error {
	if !c.initialized {
		return ruleError(ErrNotInitialized, "chain not initialized")
	}
	if c.paused {
		return ruleError(ErrPaused, "chain is paused")
	}
	return nil
}

// SubmitHeader validates and, if valid, accepts a single serialized
// header, implementing the extend-main/extend-fork/new-fork dispatch and
// reorg protocol of spec.md §4.6. A re-submission of a byte-identical
// already-stored header is a no-op success, per spec.md §4.6 step 1.
func (c *Chain) SubmitHeader(raw []byte) (*types.HeaderRecord, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}

	dh, err := wire.DecodeHeader(c.params.Chain, raw)
	if err != nil {
		return nil, ruleErrorf(ErrMalformedHeader, "%v", err)
	}

	if existing, err := c.store.Get(dh.BlockHash); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("verifier: submit: %w", err)
	}

	parent, err := c.store.Get(dh.PrevHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ruleErrorf(ErrPrevBlockNotFound, "prev block %s not found", dh.PrevHash)
		}
		return nil, fmt.Errorf("verifier: submit: %w", err)
	}

	newHeight := parent.Height + 1
	ancestors := newAncestryWalker(c.store, *parent)
	expectedBits, err := difficulty.NextBits(c.params, *parent, newHeight, dh.Time, ancestors)
	if err != nil {
		return nil, ruleErrorf(ErrBadDifficulty, "%v", err)
	}
	if dh.Bits != expectedBits {
		return nil, ruleErrorf(ErrBadDifficulty, "bits 0x%08x does not match expected 0x%08x", dh.Bits, expectedBits)
	}

	if !c.cfg.SkipPoW {
		if dh.AuxPow != nil {
			if err := difficulty.CheckAuxPow(dh.AuxPow, dh.BlockHash); err != nil {
				return nil, ruleErrorf(ErrInsufficientPoW, "%v", err)
			}
		}
		if err := difficulty.CheckProofOfWork(dh.PowHash, dh.Bits, c.params.PowLimit); err != nil {
			if errors.Is(err, difficulty.ErrBadDifficulty) {
				return nil, ruleErrorf(ErrBadDifficulty, "%v", err)
			}
			return nil, ruleErrorf(ErrInsufficientPoW, "%v", err)
		}
	}

	mtp := medianTimePast(ancestors, *parent, c.cfg.MedianTimePastWindow)
	if dh.Time <= mtp {
		return nil, ruleErrorf(ErrBadTimestamp, "time %d does not exceed median time past %d", dh.Time, mtp)
	}

	target, err := pow.CompactToBig(dh.Bits)
	if err != nil {
		return nil, ruleErrorf(ErrInvalidTarget, "%v", err)
	}
	rec := &types.HeaderRecord{
		BlockHash:  dh.BlockHash,
		PrevHash:   dh.PrevHash,
		MerkleRoot: dh.MerkleRoot,
		Height:     newHeight,
		Time:       dh.Time,
		Bits:       dh.Bits,
		ChainWork:  new(big.Int).Add(parent.ChainWork, pow.Work(target)),
		Raw:        raw,
		Chain:      c.params.Chain,
	}

	if err := c.dispatch(parent, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// dispatch routes an already-validated record to the extend-main,
// extend-fork, or new-fork case of spec.md §4.6, executing a reorg when
// the accepted record's chain exceeds the main tip's work.
func (c *Chain) dispatch(parent *types.HeaderRecord, rec *types.HeaderRecord) error {
	mainTip, hasTip, err := c.store.MainTip()
	if err != nil {
		return fmt.Errorf("verifier: dispatch: %w", err)
	}
	if !hasTip {
		return ruleError(ErrNotInitialized, "no main tip")
	}

	if parent.BlockHash == mainTip {
		return c.extendMain(rec)
	}

	if oldFork, ok := c.forks.Get(parent.BlockHash); ok {
		newFork := &types.Fork{
			TipHash:   rec.BlockHash,
			TipHeight: rec.Height,
			ChainWork: rec.CloneWork(),
			Length:    oldFork.Length + 1,
		}
		return c.extendOrReorg(parent.BlockHash, newFork, rec)
	}

	// New fork: parent is a stored header that is neither the main tip
	// nor a tracked fork tip. Walk its ancestry back to the common
	// ancestor with the main chain to learn the new fork's length.
	_, pathLen, err := c.forkDepth(parent)
	if err != nil {
		return err
	}
	newFork := &types.Fork{
		TipHash:   rec.BlockHash,
		TipHeight: rec.Height,
		ChainWork: rec.CloneWork(),
		Length:    pathLen + 1,
	}
	return c.insertOrReorg(newFork, rec)
}

// forkDepth walks backward from tip via PrevHash until it reaches a hash
// that is present in the main-chain height index, returning that
// ancestor's height and the number of headers from tip (inclusive) down
// to that ancestor (exclusive). The walk is bounded by max_fork_len+1
// so a relayer cannot force unbounded work by building off an
// arbitrarily deep untracked branch.
func (c *Chain) forkDepth(tip *types.HeaderRecord) (ancestorHeight uint64, length uint32, err error) {
	cur := tip
	var steps uint32
	for {
		if onMain, err := c.isOnMainChain(cur); err != nil {
			return 0, 0, err
		} else if onMain {
			return cur.Height, steps, nil
		}
		steps++
		if steps > c.cfg.MaxForkLen {
			return 0, 0, ruleErrorf(ErrForkTooLong, "fork depth exceeds %d", c.cfg.MaxForkLen)
		}
		prev, err := c.store.Get(cur.PrevHash)
		if err != nil {
			return 0, 0, fmt.Errorf("verifier: fork_depth: %w", err)
		}
		cur = prev
	}
}

func (c *Chain) isOnMainChain(rec *types.HeaderRecord) (bool, error) {
	hash, err := c.store.MainAt(rec.Height)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return hash == rec.BlockHash, nil
}

// extendMain appends rec to the main chain and runs one bounded GC pass.
func (c *Chain) extendMain(rec *types.HeaderRecord) error {
	b := c.store.NewBatch()
	if err := b.Insert(rec); err != nil {
		return fmt.Errorf("verifier: extend_main: %w", err)
	}
	b.SetMain(rec.Height, rec.BlockHash)
	b.SetTip(rec.BlockHash)

	if err := c.runGC(b, rec.Height); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("verifier: extend_main: %w", err)
	}
	return nil
}

// extendOrReorg replaces a tracked fork's tip with next, reorging onto it
// if its chain_work now exceeds the main tip's.
func (c *Chain) extendOrReorg(oldTip chainhash.Hash, next *types.Fork, rec *types.HeaderRecord) error {
	heavier, err := c.outweighsMain(next.ChainWork)
	if err != nil {
		return err
	}
	log.Tracef("extend_fork decision for %s: %v", next.TipHash, spew.Sdump(next))
	if heavier {
		b := c.store.NewBatch()
		if err := b.Insert(rec); err != nil {
			return fmt.Errorf("verifier: extend_fork: %w", err)
		}
		c.forks.Remove(oldTip)
		b.DeleteFork(oldTip)
		if err := c.reorgTo(b, rec); err != nil {
			return err
		}
		return b.Commit()
	}

	if err := c.forks.Extend(oldTip, next); err != nil {
		return ruleErrorf(ErrForkTooLong, "%v", err)
	}
	b := c.store.NewBatch()
	if err := b.Insert(rec); err != nil {
		return fmt.Errorf("verifier: extend_fork: %w", err)
	}
	b.DeleteFork(oldTip)
	b.PutFork(next)
	c.enforceForkCapacity(b)
	return b.Commit()
}

// insertOrReorg registers a brand-new fork, reorging onto it immediately
// if it already outweighs the main chain.
func (c *Chain) insertOrReorg(newFork *types.Fork, rec *types.HeaderRecord) error {
	heavier, err := c.outweighsMain(newFork.ChainWork)
	if err != nil {
		return err
	}
	if heavier {
		b := c.store.NewBatch()
		if err := b.Insert(rec); err != nil {
			return fmt.Errorf("verifier: new_fork: %w", err)
		}
		if err := c.reorgTo(b, rec); err != nil {
			return err
		}
		return b.Commit()
	}

	if err := c.forks.Insert(newFork); err != nil {
		return ruleErrorf(ErrForkTooLong, "%v", err)
	}
	b := c.store.NewBatch()
	if err := b.Insert(rec); err != nil {
		return fmt.Errorf("verifier: new_fork: %w", err)
	}
	b.PutFork(newFork)
	c.enforceForkCapacity(b)
	return b.Commit()
}

func (c *Chain) outweighsMain(work *big.Int) (bool, error) {
	mainTipHash, _, err := c.store.MainTip()
	if err != nil {
		return false, fmt.Errorf("verifier: outweighs_main: %w", err)
	}
	mainTip, err := c.store.Get(mainTipHash)
	if err != nil {
		return false, fmt.Errorf("verifier: outweighs_main: %w", err)
	}
	return work.Cmp(mainTip.ChainWork) > 0, nil
}

func (c *Chain) enforceForkCapacity(b *store.Batch) {
	if evicted, ok := c.forks.EnforceCapacity(); ok {
		b.DeleteFork(evicted.TipHash)
	}
}

// reorgTo executes spec.md §4.6's reorg protocol: the old main-chain
// segment above the common ancestor is demoted (bounded to max_fork_len,
// trimming its ancestor-most records if longer), newTip's ancestry is
// promoted into the height index, and any registered fork whose tip fell
// within the demoted segment is discarded. b already has newTip staged
// for insertion; reorgTo only adds the height-index and fork-registry
// mutations, it does not commit.
func (c *Chain) reorgTo(b *store.Batch, newTip *types.HeaderRecord) error {
	ancestorHeight, path, err := c.collectForkPath(newTip)
	if err != nil {
		return err
	}

	oldTipHash, _, err := c.store.MainTip()
	if err != nil {
		return fmt.Errorf("verifier: reorg: %w", err)
	}
	oldTip, err := c.store.Get(oldTipHash)
	if err != nil {
		return fmt.Errorf("verifier: reorg: %w", err)
	}
	if oldTip.Height < ancestorHeight {
		return ruleError(ErrReorgFailed, "common ancestor above current main tip")
	}

	var demoted []*types.HeaderRecord
	for h := ancestorHeight + 1; h <= oldTip.Height; h++ {
		hash, err := c.store.MainAt(h)
		if err != nil {
			return ruleErrorf(ErrReorgFailed, "missing main-chain entry at height %d: %v", h, err)
		}
		old, err := c.store.Get(hash)
		if err != nil {
			return ruleErrorf(ErrReorgFailed, "missing header for demoted height %d: %v", h, err)
		}
		demoted = append(demoted, old)
		b.ClearMain(h)
	}

	retained := demoted
	if uint32(len(retained)) > c.cfg.MaxForkLen {
		cut := uint32(len(retained)) - c.cfg.MaxForkLen
		for _, dropped := range retained[:cut] {
			b.Evict(dropped)
		}
		retained = retained[cut:]
	}

	// Staged after the evictions above, since Evict also deletes the
	// height index entry at the dropped record's height.
	for _, rec := range path {
		b.SetMain(rec.Height, rec.BlockHash)
	}
	b.SetTip(newTip.BlockHash)

	demotedSet := make(map[chainhash.Hash]struct{}, len(demoted))
	for _, rec := range demoted {
		demotedSet[rec.BlockHash] = struct{}{}
	}
	for _, f := range c.forks.All() {
		if _, dominated := demotedSet[f.TipHash]; dominated {
			c.forks.Remove(f.TipHash)
			b.DeleteFork(f.TipHash)
		}
	}

	c.forks.Remove(newTip.BlockHash)
	b.DeleteFork(newTip.BlockHash)

	if len(retained) > 0 {
		oldFork := &types.Fork{
			TipHash:   oldTip.BlockHash,
			TipHeight: oldTip.Height,
			ChainWork: oldTip.CloneWork(),
			Length:    uint32(len(retained)),
		}
		if err := c.forks.Insert(oldFork); err == nil {
			b.PutFork(oldFork)
			c.enforceForkCapacity(b)
		}
	}

	if err := c.runGC(b, newTip.Height); err != nil {
		return err
	}
	log.Infof("reorg: tip %s -> %s at height %d (demoted %d, promoted %d)",
		oldTip.BlockHash, newTip.BlockHash, newTip.Height, len(demoted), len(path))
	return nil
}

// collectForkPath walks backward from tip via PrevHash until it reaches
// the common ancestor with the main chain, returning that ancestor's
// height and the path from ancestor+1 to tip in root-to-tip order.
func (c *Chain) collectForkPath(tip *types.HeaderRecord) (ancestorHeight uint64, path []*types.HeaderRecord, err error) {
	cur := tip
	for {
		onMain, err := c.isOnMainChain(cur)
		if err != nil {
			return 0, nil, fmt.Errorf("verifier: collect_fork_path: %w", err)
		}
		if onMain {
			break
		}
		path = append(path, cur)
		if uint32(len(path)) > c.cfg.MaxForkLen {
			return 0, nil, ruleErrorf(ErrForkTooLong, "fork path exceeds %d", c.cfg.MaxForkLen)
		}
		prev, err := c.store.Get(cur.PrevHash)
		if err != nil {
			return 0, nil, ruleErrorf(ErrReorgFailed, "missing ancestor %s: %v", cur.PrevHash, err)
		}
		cur = prev
	}
	ancestorHeight = cur.Height

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return ancestorHeight, path, nil
}

// runGC evicts up to gcEvictionsPerSubmit records below the new GC floor
// (tip height − gc_threshold) that no live fork still references, per
// spec.md §4.4's amortized-bounded GC requirement. The persisted floor is
// set to tip height − gc_threshold whether or not every record below it
// has been evicted yet.
func (c *Chain) runGC(b *store.Batch, tipHeight uint64) error {
	if tipHeight <= c.cfg.GCThreshold {
		return nil
	}
	floor := tipHeight - c.cfg.GCThreshold

	keep := make(map[chainhash.Hash]struct{})
	for _, f := range c.forks.All() {
		cur, err := c.store.Get(f.TipHash)
		if err != nil {
			continue
		}
		for cur.Height >= floor {
			keep[cur.BlockHash] = struct{}{}
			if cur.Height == 0 {
				break
			}
			prev, err := c.store.Get(cur.PrevHash)
			if err != nil {
				break
			}
			cur = prev
		}
		// The record the fork's lowest retained header links to may sit
		// below the floor; it is still referenced, so keep it too.
		keep[cur.BlockHash] = struct{}{}
	}

	if _, err := c.store.EvictBelow(b, floor, keep, gcEvictionsPerSubmit); err != nil {
		return fmt.Errorf("verifier: gc: %w", err)
	}
	b.SetGCFloor(floor)
	return nil
}

// ancestryWalker implements difficulty.AncestorReader by walking a
// header's own prev_hash chain rather than the store's main-chain height
// index, so retarget and median-time-past lookups resolve correctly for
// a header extending a tracked fork, not just the main tip: a fork
// shares the main chain's history only up to its common ancestor, and
// MainAt would silently substitute the main chain's block at any height
// above that. Looked-up ancestors are cached since every caller in this
// package walks strictly backward one height at a time from a shared
// starting point.
type ancestryWalker struct {
	store    *store.HeaderStore
	frontier types.HeaderRecord
	cache    map[uint64]types.HeaderRecord
}

// newAncestryWalker returns a walker that resolves ancestor lookups
// starting from start (inclusive), which must be the immediate parent of
// the header currently being validated.
func newAncestryWalker(st *store.HeaderStore, start types.HeaderRecord) *ancestryWalker {
	return &ancestryWalker{
		store:    st,
		frontier: start,
		cache:    map[uint64]types.HeaderRecord{start.Height: start},
	}
}

// HeaderAtHeight implements difficulty.AncestorReader.
func (w *ancestryWalker) HeaderAtHeight(height uint64) (types.HeaderRecord, bool) {
	if rec, ok := w.cache[height]; ok {
		return rec, true
	}
	if height > w.frontier.Height {
		return types.HeaderRecord{}, false
	}
	for w.frontier.Height > height {
		prev, err := w.store.Get(w.frontier.PrevHash)
		if err != nil {
			return types.HeaderRecord{}, false
		}
		w.frontier = *prev
		w.cache[w.frontier.Height] = w.frontier
	}
	return w.frontier, true
}

// medianTimePast computes the median of up to window timestamps ending
// at parent, matching the Bitcoin Core median-time-past rule spec.md
// §4.6 requires a submitted header's time to strictly exceed.
func medianTimePast(ancestors difficulty.AncestorReader, parent types.HeaderRecord, window int) uint32 {
	times := make([]uint32, 0, window)
	times = append(times, parent.Time)
	cur := parent
	for i := 1; i < window; i++ {
		if cur.Height == 0 {
			break
		}
		anc, ok := ancestors.HeaderAtHeight(cur.Height - 1)
		if !ok {
			break
		}
		times = append(times, anc.Time)
		cur = anc
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}
