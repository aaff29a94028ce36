// Copyright (c) 2019-2020 The Zcash developers
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

// EquihashSolutionSize is the length in bytes of a mainnet/testnet
// Equihash(200,9) solution. Regtest networks use smaller Equihash
// parameters; the codec below reads whatever length the CompactSize
// prefix declares, up to this value as the upper bound (longer solutions
// are rejected). It is also exported for callers constructing test
// headers.
const EquihashSolutionSize = 1344

// ZcashHeader is the Zcash block header layout (Zcash Protocol Spec
// §7.6): it carries the same version/prev-hash/merkle-root/time/bits
// prefix as Bitcoin, but a wider nonce (32 bytes), an extra
// hashFinalSaplingRoot commitment field, and a variable-length
// CompactSize-prefixed Equihash solution.
//
// Equihash solution validation is deliberately not implemented (spec.md
// §9's Open Question): the trust assumption for Zcash headers is the
// relayer plus the cumulative proof-of-work rule, exactly as for the
// other three chains. Only the header hash is consumed downstream.
type ZcashHeader struct {
	Version              int32
	PrevBlock            chainhash.Hash
	MerkleRoot           chainhash.Hash
	HashFinalSaplingRoot chainhash.Hash
	Timestamp            uint32
	Bits                 uint32
	Nonce                [32]byte
	Solution             []byte
}

func decodeZcash(raw []byte) (*DecodedHeader, error) {
	r := bytes.NewReader(raw)
	var h ZcashHeader

	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformedHeader, err)
	}
	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return nil, fmt.Errorf("%w: prev hash: %v", ErrMalformedHeader, err)
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return nil, fmt.Errorf("%w: merkle root: %v", ErrMalformedHeader, err)
	}
	if _, err := io.ReadFull(r, h.HashFinalSaplingRoot[:]); err != nil {
		return nil, fmt.Errorf("%w: sapling root: %v", ErrMalformedHeader, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: time: %v", ErrMalformedHeader, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Bits); err != nil {
		return nil, fmt.Errorf("%w: bits: %v", ErrMalformedHeader, err)
	}
	if _, err := io.ReadFull(r, h.Nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformedHeader, err)
	}

	solLen, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: solution length: %v", ErrMalformedHeader, err)
	}
	// Real Equihash(200,9) solutions are always 1344 bytes on main/test
	// networks and smaller on regtest; bound generously rather than
	// hard-coding a single network's size.
	if solLen == 0 || solLen > EquihashSolutionSize {
		return nil, fmt.Errorf("%w: implausible equihash solution length %d", ErrMalformedHeader, solLen)
	}
	h.Solution = make([]byte, solLen)
	if _, err := io.ReadFull(r, h.Solution); err != nil {
		return nil, fmt.Errorf("%w: solution: %v", ErrMalformedHeader, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedHeader, r.Len())
	}

	blockHash := chainhash.DoubleHashB(raw)
	var bh chainhash.Hash
	copy(bh[:], blockHash)

	return &DecodedHeader{
		Chain:      Zcash,
		Version:    h.Version,
		PrevHash:   h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Time:       h.Timestamp,
		Bits:       h.Bits,
		BlockHash:  bh,
		// Zcash's PoW hash is the header's own double-SHA256; Equihash
		// validity is not re-derived from Solution (see doc comment).
		PowHash: bh,
		Raw:     raw,
	}, nil
}

// Serialize returns the canonical encoding of a Zcash header.
func (h *ZcashHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h.Version); err != nil {
		return nil, err
	}
	buf.Write(h.PrevBlock[:])
	buf.Write(h.MerkleRoot[:])
	buf.Write(h.HashFinalSaplingRoot[:])
	if err := binary.Write(&buf, binary.LittleEndian, h.Timestamp); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, h.Bits); err != nil {
		return nil, err
	}
	buf.Write(h.Nonce[:])
	writeVarInt(&buf, uint64(len(h.Solution)))
	buf.Write(h.Solution)
	return buf.Bytes(), nil
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		binary.Write(buf, binary.LittleEndian, uint16(v))
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		binary.Write(buf, binary.LittleEndian, uint32(v))
	default:
		buf.WriteByte(0xff)
		binary.Write(buf, binary.LittleEndian, v)
	}
}
