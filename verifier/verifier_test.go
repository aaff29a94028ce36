// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/toole-brendan/lightspv/chaincfg"
	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
	"github.com/toole-brendan/lightspv/wire"
)

// testConfig returns a Config permissive enough for fast, deterministic
// fixture-building: PoW checking is disabled so test headers never need
// real mining, and fork bounds default small enough to exercise the
// length limits explicitly where a test cares about them.
func testConfig() types.Config {
	return types.Config{
		Network:              wire.BitcoinMainNet,
		Chain:                wire.Bitcoin,
		GCThreshold:          1000,
		MaxForkLen:           5,
		MaxForks:             3,
		MinConfirmations:     1,
		MedianTimePastWindow: 11,
		SkipPoW:              true,
	}
}

// newTestVerifier opens a freshly initialized Verifier over Bitcoin
// mainnet parameters at a temporary store path, returning it alongside
// its genesis record.
func newTestVerifier(t *testing.T, cfg types.Config) (*Verifier, types.HeaderRecord) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "headers")
	v, err := Open(dir, &chaincfg.BitcoinMainNetParams)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	genesis := chaincfg.Genesis(&chaincfg.BitcoinMainNetParams)
	require.NoError(t, v.Init(cfg, genesis))
	return v, genesis
}

// submittedRecord decodes raw to find its block hash and returns the
// record the Verifier has stored for it, for use as the next buildChild
// call's parent.
func submittedRecord(t *testing.T, v *Verifier, raw []byte) types.HeaderRecord {
	t.Helper()
	rec, err := v.GetHeader(blockHashOf(t, raw))
	require.NoError(t, err)
	return *rec
}

// blockHashOf decodes raw far enough to report its block hash, without
// requiring it to already be stored.
func blockHashOf(t *testing.T, raw []byte) chainhash.Hash {
	t.Helper()
	dh, err := wire.DecodeHeader(wire.Bitcoin, raw)
	require.NoError(t, err)
	return dh.BlockHash
}

// buildChild constructs a serialized header extending parent, tagged with
// a unique label so its merkle root (and therefore block hash) differs
// from every other header built in the same test. Bits are carried over
// unchanged from the parent, which is valid as long as the test never
// crosses a retarget-epoch boundary (2016 blocks on Bitcoin mainnet).
func buildChild(t *testing.T, parent types.HeaderRecord, label string, timeOffset uint32) []byte {
	t.Helper()
	h := wire.BaseHeader{
		Version:    1,
		PrevBlock:  parent.BlockHash,
		MerkleRoot: chainhash.DoubleHashH([]byte(label)),
		Timestamp:  parent.Time + timeOffset,
		Bits:       parent.Bits,
		Nonce:      0,
	}
	raw, err := h.Serialize()
	require.NoError(t, err)
	return raw
}
