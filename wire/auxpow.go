// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/toole-brendan/lightspv/chainhash"
)

// MaxChainMerkleBranchHashes bounds a merge-mining chain merkle branch, in
// line with the similar bound used by merge-mined coins in production
// (e.g. Namecoin/Dogecoin derivatives).
const MaxChainMerkleBranchHashes = 30

// MaxCoinbaseTxSize bounds the opaque parent coinbase transaction bytes
// accepted in an AuxPoW payload, so a malicious relayer cannot force
// unbounded storage/gas cost per header (spec.md §5).
const MaxCoinbaseTxSize = 100_000

// mergedMiningHeader is the magic byte sequence a merge-mined coinbase's
// scriptSig carries immediately before the commitment hash.
var mergedMiningHeader = [4]byte{0xfa, 0xbe, 'm', 'm'}

// MerkleBranch is an authentication path plus a side-mask indicating, bit
// by bit, whether each sibling hash is the left or right operand. It is
// used both for the coinbase-transaction branch (proving the coinbase is
// included in the parent block) and the chain merkle branch (proving
// which merge-mined chain slot this header occupies, for parent chains
// that merge-mine more than one coin at once).
type MerkleBranch struct {
	Hashes   []chainhash.Hash
	SideMask uint32
}

func (mb *MerkleBranch) decode(r io.Reader) error {
	n, err := readVarInt(r)
	if err != nil {
		return err
	}
	if n > MaxChainMerkleBranchHashes {
		return fmt.Errorf("merkle branch too large: %d > %d", n, MaxChainMerkleBranchHashes)
	}
	mb.Hashes = make([]chainhash.Hash, n)
	for i := range mb.Hashes {
		if _, err := io.ReadFull(r, mb.Hashes[i][:]); err != nil {
			return err
		}
	}
	return binary.Read(r, binary.LittleEndian, &mb.SideMask)
}

// DetermineRoot folds component up through the branch, choosing the
// left/right concatenation order per bit of SideMask, and returns the
// resulting root hash.
func (mb *MerkleBranch) DetermineRoot(component chainhash.Hash) chainhash.Hash {
	h := component
	mask := mb.SideMask
	var buf [chainhash.HashSize * 2]byte
	for _, sibling := range mb.Hashes {
		if mask&1 != 0 {
			copy(buf[:chainhash.HashSize], sibling[:])
			copy(buf[chainhash.HashSize:], h[:])
		} else {
			copy(buf[:chainhash.HashSize], h[:])
			copy(buf[chainhash.HashSize:], sibling[:])
		}
		h = chainhash.DoubleHashH(buf[:])
		mask >>= 1
	}
	return h
}

// AuxPowHeader is the merge-mining payload Dogecoin (and other
// Namecoin-derived AuxPoW chains) append after the base 80-byte header
// once the version AuxPoW flag is set. The parent chain's coinbase
// transaction is kept as opaque bytes: the verifier only needs its
// double-SHA256 txid and the merge-mining commitment bytes within it, not
// its parsed inputs/outputs, which is transaction semantics spec.md
// places out of scope.
type AuxPowHeader struct {
	// CoinbaseTx is the raw serialized parent-chain coinbase
	// transaction containing the merge-mining commitment.
	CoinbaseTx []byte

	// CoinbaseBranch proves CoinbaseTx is included in ParentBlock's
	// merkle tree.
	CoinbaseBranch MerkleBranch

	// ChainBranch proves this chain's slot within the parent's set of
	// simultaneously merge-mined chains. For single-chain merge mining
	// (the only case this verifier validates end-to-end, see
	// DESIGN.md's Open Question notes) it is typically empty.
	ChainBranch MerkleBranch

	// ParentBlock is the parent chain's own block header, whose PoW is
	// what actually secures this header.
	ParentBlock BaseHeader
}

func decodeAuxPowHeader(raw []byte) (*AuxPowHeader, error) {
	r := bytes.NewReader(raw)

	coinbaseLen, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("coinbase length: %w", err)
	}
	if coinbaseLen > MaxCoinbaseTxSize {
		return nil, fmt.Errorf("coinbase tx too large: %d > %d", coinbaseLen, MaxCoinbaseTxSize)
	}
	coinbaseTx := make([]byte, coinbaseLen)
	if _, err := io.ReadFull(r, coinbaseTx); err != nil {
		return nil, fmt.Errorf("coinbase tx: %w", err)
	}

	aux := &AuxPowHeader{CoinbaseTx: coinbaseTx}
	if err := aux.CoinbaseBranch.decode(r); err != nil {
		return nil, fmt.Errorf("coinbase branch: %w", err)
	}
	if err := aux.ChainBranch.decode(r); err != nil {
		return nil, fmt.Errorf("chain branch: %w", err)
	}
	if err := readBaseHeader(r, &aux.ParentBlock); err != nil {
		return nil, fmt.Errorf("parent header: %w", err)
	}
	return aux, nil
}

// CoinbaseTxID is the double-SHA256 hash of the opaque coinbase bytes.
func (a *AuxPowHeader) CoinbaseTxID() chainhash.Hash {
	return chainhash.DoubleHashH(a.CoinbaseTx)
}

// CommitmentHash locates the merge-mining commitment within the coinbase
// scriptSig: the bytes immediately following mergedMiningHeader. It
// returns ok=false if the magic sequence is not present.
func (a *AuxPowHeader) CommitmentHash() (hash chainhash.Hash, ok bool) {
	idx := bytes.Index(a.CoinbaseTx, mergedMiningHeader[:])
	if idx < 0 || idx+len(mergedMiningHeader)+chainhash.HashSize > len(a.CoinbaseTx) {
		return chainhash.Hash{}, false
	}
	copy(hash[:], a.CoinbaseTx[idx+len(mergedMiningHeader):idx+len(mergedMiningHeader)+chainhash.HashSize])
	return hash, true
}

// readVarInt reads a Bitcoin-style CompactSize integer.
func readVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xfd:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 0xfe:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 0xff:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return v, nil
	default:
		return uint64(prefix[0]), nil
	}
}
