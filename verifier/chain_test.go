// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
)

func submitOne(t *testing.T, v *Verifier, raw []byte) {
	t.Helper()
	n, err := v.SubmitBlocks([][]byte{raw})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSubmitHeaderExtendsMainChain(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	block1 := buildChild(t, genesis, "block1", 600)
	submitOne(t, v, block1)

	tip, err := v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tip.Height)
	assert.Equal(t, blockHashOf(t, block1), tip.BlockHash)
}

func TestSubmitHeaderIdempotentResubmission(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())
	block1 := buildChild(t, genesis, "block1", 600)
	submitOne(t, v, block1)

	// Resubmitting the identical bytes is a no-op success, not a
	// duplicate-hash failure.
	n, err := v.SubmitBlocks([][]byte{block1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tip, err := v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tip.Height)
}

func TestSubmitHeaderRejectsUnknownParent(t *testing.T) {
	v, _ := newTestVerifier(t, testConfig())

	detachedParent := types.HeaderRecord{
		BlockHash: chainhash.DoubleHashH([]byte("never submitted")),
		Height:    0,
		Time:      1000,
		Bits:      0x1d00ffff,
	}
	orphan := buildChild(t, detachedParent, "orphan-child", 600)

	_, err := v.SubmitBlocks([][]byte{orphan})
	require.Error(t, err)
	var subErr *SubmitError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, errors.Is(subErr.Err, RuleError{Kind: ErrPrevBlockNotFound}))
}

func TestSubmitHeaderRejectsBadTimestamp(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())
	// A header timestamped no later than its parent fails the
	// median-time-past check.
	stale := buildChild(t, genesis, "stale", 0)

	_, err := v.SubmitBlocks([][]byte{stale})
	require.Error(t, err)
	var subErr *SubmitError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, errors.Is(subErr.Err, RuleError{Kind: ErrBadTimestamp}))
}

func TestSubmitHeaderRejectsMalformedHeader(t *testing.T) {
	v, _ := newTestVerifier(t, testConfig())
	_, err := v.SubmitBlocks([][]byte{{0x01, 0x02, 0x03}})
	require.Error(t, err)
	var subErr *SubmitError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, errors.Is(subErr.Err, RuleError{Kind: ErrMalformedHeader}))
}

// TestThreeBlockForkOvertakesTwoBlockMainChain builds a two-block main
// chain, then a three-block fork branching off genesis, and confirms the
// fork becomes the new main chain once its accumulated chain_work
// exceeds the original chain's (spec.md §4.6/§8).
func TestThreeBlockForkOvertakesTwoBlockMainChain(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	mainA1 := buildChild(t, genesis, "mainA1", 600)
	submitOne(t, v, mainA1)
	mainA1Rec := submittedRecord(t, v, mainA1)

	mainA2 := buildChild(t, mainA1Rec, "mainA2", 600)
	submitOne(t, v, mainA2)

	tip, err := v.GetLastBlockHeader()
	require.NoError(t, err)
	require.Equal(t, uint64(2), tip.Height)
	mainA2Hash := blockHashOf(t, mainA2)

	forkB1 := buildChild(t, genesis, "forkB1", 600)
	submitOne(t, v, forkB1)
	forkB1Rec := submittedRecord(t, v, forkB1)

	// Still height 2 on main: the one-block fork does not yet outweigh.
	tip, err = v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, mainA2Hash, tip.BlockHash)

	forkB2 := buildChild(t, forkB1Rec, "forkB2", 600)
	submitOne(t, v, forkB2)
	forkB2Rec := submittedRecord(t, v, forkB2)

	// Equal work (two blocks each): still no reorg since the fork must
	// strictly exceed, not merely tie.
	tip, err = v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, mainA2Hash, tip.BlockHash)

	forkB3 := buildChild(t, forkB2Rec, "forkB3", 600)
	submitOne(t, v, forkB3)

	tip, err = v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tip.Height)
	assert.Equal(t, blockHashOf(t, forkB3), tip.BlockHash)

	// The promoted fork's own height-1 block should now be on the main
	// chain's height index.
	h1, err := v.GetBlockHash(1)
	require.NoError(t, err)
	assert.Equal(t, forkB1Rec.BlockHash, h1)

	// The demoted old main chain should now be tracked as a fork.
	infos, err := v.GetForks()
	require.NoError(t, err)
	found := false
	for _, f := range infos {
		if f.TipHeight == 2 {
			found = true
		}
	}
	assert.True(t, found, "demoted main chain should be tracked as a fork")
}

func TestForkTooLongRejectedWithoutTriggeringReorg(t *testing.T) {
	cfg := testConfig()
	cfg.MaxForkLen = 3
	v, genesis := newTestVerifier(t, cfg)

	// Grow the main chain to height 5 so the fork's work never catches up
	// within the lengths this test builds.
	parent := genesis
	for i := 1; i <= 5; i++ {
		raw := buildChild(t, parent, mainLabel(i), 600)
		submitOne(t, v, raw)
		parent = submittedRecord(t, v, raw)
	}

	forkParent := genesis
	for i := 1; i <= 3; i++ {
		raw := buildChild(t, forkParent, forkLabel(i), 600)
		submitOne(t, v, raw)
		forkParent = submittedRecord(t, v, raw)
	}

	existingForkTip := forkParent.BlockHash

	// A fourth fork block exceeds max_fork_len (3) while still carrying
	// less chain_work than the five-block main chain, so it must fail
	// without reorging.
	tooLong := buildChild(t, forkParent, forkLabel(4), 600)
	_, err := v.SubmitBlocks([][]byte{tooLong})
	require.Error(t, err)
	var subErr *SubmitError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, errors.Is(subErr.Err, RuleError{Kind: ErrForkTooLong}))

	tip, err := v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tip.Height, "main chain must be unaffected by the rejected fork block")

	// The rejected header itself must never have been persisted.
	_, err = v.GetHeader(blockHashOf(t, tooLong))
	assert.True(t, errors.Is(err, RuleError{Kind: ErrUnknownBlock}))

	// The fork being extended must still be tracked: the rejected header's
	// own batch is never committed, so a rejected extend must not silently
	// drop the fork it failed to extend from get_forks.
	infos, err := v.GetForks()
	require.NoError(t, err)
	found := false
	for _, f := range infos {
		if f.TipHash == existingForkTip {
			found = true
			assert.Equal(t, uint32(3), f.Length)
		}
	}
	assert.True(t, found, "rejected extend must not remove the fork's prior tip from the registry")
}

func TestSubmitBlocksStopsAtFirstFailureAndReportsIndex(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	block1 := buildChild(t, genesis, "ok1", 600)
	block1Rec := types.HeaderRecord{
		BlockHash: blockHashOf(t, block1),
		Height:    1,
		Time:      genesis.Time + 600,
		Bits:      genesis.Bits,
	}
	block2 := buildChild(t, block1Rec, "ok2", 600)
	bad := []byte{0xde, 0xad, 0xbe, 0xef}

	n, err := v.SubmitBlocks([][]byte{block1, bad, block2})
	require.Error(t, err)
	var subErr *SubmitError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 1, subErr.Index)
	assert.Equal(t, 1, n)

	tip, err := v.GetLastBlockHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tip.Height, "the header before the failure should still have committed")
}

// TestMedianTimePastUsesForksOwnAncestryNotMainChain builds a main chain
// and a same-length fork whose timestamps diverge sharply at every
// height past the common ancestor (genesis), then submits a fifth fork
// block whose time sits strictly above the fork's own median-time-past
// but strictly below what the main chain's timestamps at those same
// heights would imply. If ancestor lookups for a fork-extending header
// resolved through the main-chain height index (as store.HeaderStore
// would, via MainAt) rather than the fork's own prev_hash chain, this
// submission would be wrongly rejected with ErrBadTimestamp.
func TestMedianTimePastUsesForksOwnAncestryNotMainChain(t *testing.T) {
	cfg := testConfig()
	cfg.MedianTimePastWindow = 5
	cfg.MaxForkLen = 5
	v, genesis := newTestVerifier(t, cfg)

	// Main chain: five blocks, each jumping the clock forward by a huge
	// amount, so any ancestor substituted from this chain dwarfs every
	// timestamp the fork itself carries.
	mainParent := genesis
	for i := 1; i <= 5; i++ {
		raw := buildChild(t, mainParent, mainLabel(i), 1_000_000)
		submitOne(t, v, raw)
		mainParent = submittedRecord(t, v, raw)
	}

	// Fork: four blocks branching off genesis, clock advancing by a tiny
	// amount each time, kept lighter than the main chain throughout (so
	// nothing here reorgs and the fifth fork block below is validated
	// purely as an extend-fork case).
	forkParent := genesis
	for i := 1; i <= 4; i++ {
		raw := buildChild(t, forkParent, forkLabel(i), 10)
		submitOne(t, v, raw)
		forkParent = submittedRecord(t, v, raw)
	}

	// The fifth fork block ties the main chain's accumulated work
	// (five blocks each, identical bits throughout) rather than
	// exceeding it, so this stays an extend-fork submission and never
	// triggers a reorg; the timestamp check below is exercised in
	// isolation.
	fork5 := buildChild(t, forkParent, forkLabel(5), 10)
	_, err := v.SubmitBlocks([][]byte{fork5})
	require.NoError(t, err, "fork5's own ancestry puts its median time well below its timestamp")

	rec := submittedRecord(t, v, fork5)
	assert.Equal(t, uint64(5), rec.Height)
}

func mainLabel(i int) string { return "main-" + string(rune('0'+i)) }
func forkLabel(i int) string { return "fork-" + string(rune('0'+i)) }
