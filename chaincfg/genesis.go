// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"fmt"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/pow"
	"github.com/toole-brendan/lightspv/types"
	"github.com/toole-brendan/lightspv/wire"
)

// mustHash panics on a malformed literal; used only for the well-known
// genesis hash/root constants below, never on untrusted input.
func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(fmt.Sprintf("chaincfg: bad hash literal %q: %v", s, err))
	}
	return *h
}

// recordFromBase builds a height-zero HeaderRecord from a serializable
// base header, computing its block hash and the chain work its own
// target contributes.
func recordFromBase(chain wire.Chain, h *wire.BaseHeader) types.HeaderRecord {
	raw, err := h.Serialize()
	if err != nil {
		panic(fmt.Sprintf("chaincfg: genesis header for %s does not serialize: %v", chain, err))
	}
	target, err := pow.CompactToBig(h.Bits)
	if err != nil {
		panic(fmt.Sprintf("chaincfg: genesis bits for %s invalid: %v", chain, err))
	}
	return types.HeaderRecord{
		BlockHash:  h.BlockHash(),
		PrevHash:   h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Height:     0,
		Time:       h.Timestamp,
		Bits:       h.Bits,
		ChainWork:  pow.Work(target),
		TxCount:    1,
		Raw:        raw,
		Chain:      chain,
	}
}

// bitcoinGenesisHeader is Bitcoin mainnet's block 0 header.
var bitcoinGenesisHeader = wire.BaseHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: mustHash("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"),
	Timestamp:  1231006505,
	Bits:       0x1d00ffff,
	Nonce:      2083236893,
}

// litecoinGenesisHeader is Litecoin mainnet's block 0 header.
var litecoinGenesisHeader = wire.BaseHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: mustHash("97ddfbbae6be97fd6cdf3e7ca13232a3afff2353e29badfab7f73011edd4ced9"),
	Timestamp:  1317972665,
	Bits:       0x1e0ffff0,
	Nonce:      2084524493,
}

// dogecoinGenesisHeader is Dogecoin mainnet's block 0 header (pre-AuxPoW;
// the version AuxPoW flag is unset at genesis).
var dogecoinGenesisHeader = wire.BaseHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: mustHash("5b2a3f53f605d62c53e62932dac6925e3d74afa5a4b459745c36d42d0ed26a69"),
	Timestamp:  1386325540,
	Bits:       0x1e0ffff0,
	Nonce:      99943,
}

// zcashGenesisHeader is Zcash mainnet's block 0 header fields; Solution is
// a placeholder of the correct on-wire length (spec.md §9's Open Question:
// Equihash validity is never re-derived, so only the length matters for a
// well-formed constant, not its content).
var zcashGenesisHeader = wire.ZcashHeader{
	Version:              4,
	PrevBlock:            chainhash.Hash{},
	MerkleRoot:           mustHash("c4eaa58879081de3c24a7b117ed2b28300e7ec4c4c0a3ebd17beb71bdb3331c"),
	HashFinalSaplingRoot: chainhash.Hash{},
	Timestamp:            1477641360,
	Bits:                 0x1f07ffff,
	Nonce:                [32]byte{},
	Solution:             make([]byte, wire.EquihashSolutionSize),
}

func zcashGenesisRecord() types.HeaderRecord {
	raw, err := zcashGenesisHeader.Serialize()
	if err != nil {
		panic(fmt.Sprintf("chaincfg: zcash genesis header does not serialize: %v", err))
	}
	dh, err := wire.DecodeHeader(wire.Zcash, raw)
	if err != nil {
		panic(fmt.Sprintf("chaincfg: zcash genesis header does not decode: %v", err))
	}
	target, err := pow.CompactToBig(dh.Bits)
	if err != nil {
		panic(fmt.Sprintf("chaincfg: zcash genesis bits invalid: %v", err))
	}
	return types.HeaderRecord{
		BlockHash:  dh.BlockHash,
		PrevHash:   dh.PrevHash,
		MerkleRoot: dh.MerkleRoot,
		Height:     0,
		Time:       dh.Time,
		Bits:       dh.Bits,
		ChainWork:  pow.Work(target),
		TxCount:    1,
		Raw:        raw,
		Chain:      wire.Zcash,
	}
}

// Genesis returns the height-zero HeaderRecord a host seeds a new tracked
// chain with at init time (spec.md §6's init operation). The returned
// record's ChainWork is the work contributed by the genesis block alone;
// callers treat it as the base of the chain's cumulative work.
func Genesis(p *Params) types.HeaderRecord {
	switch p.Chain {
	case wire.Bitcoin:
		return recordFromBase(wire.Bitcoin, &bitcoinGenesisHeader)
	case wire.Litecoin:
		return recordFromBase(wire.Litecoin, &litecoinGenesisHeader)
	case wire.Dogecoin:
		return recordFromBase(wire.Dogecoin, &dogecoinGenesisHeader)
	case wire.Zcash:
		return zcashGenesisRecord()
	default:
		panic(fmt.Sprintf("chaincfg: unknown chain %s", p.Chain))
	}
}
