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
	"github.com/toole-brendan/lightspv/wire"
)

// buildTreeFixture mirrors the merkle package's own test helper, building
// a small transaction tree so VerifyTransactionInclusion has a real root
// and authentication path to check against.
func buildTreeFixture(leaves []chainhash.Hash, leafIndex int) (root chainhash.Hash, path []chainhash.Hash) {
	level := append([]chainhash.Hash(nil), leaves...)
	idx := leafIndex
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		siblingIdx := idx ^ 1
		path = append(path, level[siblingIdx])
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = doubleHashPair(level[i], level[i+1])
		}
		level = next
		idx >>= 1
	}
	return level[0], path
}

func doubleHashPair(left, right chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// buildHeaderWithRoot is like buildChild but lets the caller supply an
// explicit merkle root, for inclusion-proof fixtures where the root must
// match a specific transaction tree rather than an arbitrary label hash.
func buildHeaderWithRoot(t *testing.T, parent types.HeaderRecord, timeOffset uint32, root chainhash.Hash) []byte {
	t.Helper()
	h := wire.BaseHeader{
		Version:    1,
		PrevBlock:  parent.BlockHash,
		MerkleRoot: root,
		Timestamp:  parent.Time + timeOffset,
		Bits:       parent.Bits,
		Nonce:      0,
	}
	raw, err := h.Serialize()
	require.NoError(t, err)
	return raw
}

func TestVerifyTransactionInclusionSucceeds(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH([]byte("tx0")),
		chainhash.DoubleHashH([]byte("tx1")),
		chainhash.DoubleHashH([]byte("tx2")),
	}
	root, path := buildTreeFixture(leaves, 1)

	h := buildHeaderWithRoot(t, genesis, 600, root)
	submitOne(t, v, h)
	submitOne(t, v, buildChild(t, submittedRecord(t, v, h), "confirm", 600))
	blockHash := blockHashOf(t, h)

	ok, err := v.VerifyTransactionInclusion(leaves[1], blockHash, 1, path, uint64(len(leaves)), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyTransactionInclusionFailsForUnknownBlock(t *testing.T) {
	v, _ := newTestVerifier(t, testConfig())
	_, err := v.VerifyTransactionInclusion(
		chainhash.Hash{}, chainhash.DoubleHashH([]byte("nope")), 0, nil, 1, nil)
	assert.True(t, errors.Is(err, RuleError{Kind: ErrUnknownBlock}))
}

func TestVerifyTransactionInclusionRequiresConfirmations(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	leaves := []chainhash.Hash{chainhash.DoubleHashH([]byte("only-tx"))}
	root, path := buildTreeFixture(leaves, 0)

	h := buildHeaderWithRoot(t, genesis, 600, root)
	submitOne(t, v, h)
	blockHash := blockHashOf(t, h)

	required := uint64(10)
	ok, err := v.VerifyTransactionInclusion(leaves[0], blockHash, 0, path, 1, &required)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, RuleError{Kind: ErrUnknownBlock}))
}

func TestVerifyTransactionInclusionRejectsForgedProof(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())

	leaves := []chainhash.Hash{
		chainhash.DoubleHashH([]byte("a")), chainhash.DoubleHashH([]byte("b")),
	}
	root, path := buildTreeFixture(leaves, 0)

	h := buildHeaderWithRoot(t, genesis, 600, root)
	submitOne(t, v, h)
	submitOne(t, v, buildChild(t, submittedRecord(t, v, h), "confirm", 600))
	blockHash := blockHashOf(t, h)

	wrongTx := chainhash.DoubleHashH([]byte("not actually included"))
	ok, err := v.VerifyTransactionInclusion(wrongTx, blockHash, 0, path, uint64(len(leaves)), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetBlockHashBelowGCFloorIsPruned(t *testing.T) {
	cfg := testConfig()
	cfg.GCThreshold = 2
	v, genesis := newTestVerifier(t, cfg)

	parent := genesis
	for i := 1; i <= 6; i++ {
		raw := buildChild(t, parent, mainLabel(i), 600)
		submitOne(t, v, raw)
		parent = submittedRecord(t, v, raw)
	}

	_, err := v.GetBlockHash(0)
	assert.True(t, errors.Is(err, RuleError{Kind: ErrPruned}))
}

func TestGetBlockHashAboveTipIsUnknown(t *testing.T) {
	v, _ := newTestVerifier(t, testConfig())
	_, err := v.GetBlockHash(999)
	assert.True(t, errors.Is(err, RuleError{Kind: ErrUnknownBlock}))
}

func TestSubmitBlocksRejectsOversizedBatch(t *testing.T) {
	v, genesis := newTestVerifier(t, testConfig())
	headers := make([][]byte, MaxHeadersPerSubmit+1)
	for i := range headers {
		headers[i] = buildChild(t, genesis, mainLabel(i%9+1), 600)
	}
	_, err := v.SubmitBlocks(headers)
	assert.True(t, errors.Is(err, RuleError{Kind: ErrLimitExceeded}))
}
