// Copyright (c) 2013-2024 The btcsuite developers
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

// BaseHeaderLen is the length in bytes of the fixed Bitcoin/Litecoin/
// Dogecoin block header: version, prev hash, merkle root, time, bits,
// nonce.
const BaseHeaderLen = 80

// auxPowVersionFlag is the block version bit Dogecoin (inherited from
// Namecoin/merge-mining conventions) sets to indicate AuxPoW data follows
// the base 80-byte header.
const auxPowVersionFlag = 1 << 8

// DecodedHeader is the chain-independent view the rest of the verifier
// operates on. Every chain variant's codec produces one of these; only
// the fields spec.md §4.1 names downstream of the codec are kept
// (prev_hash, merkle_root, time, bits, block_hash, pow_hash), plus the
// raw bytes for storage/audit and chain-specific extras needed to
// re-validate AuxPoW later.
type DecodedHeader struct {
	Chain      Chain
	Version    int32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Time       uint32
	Bits       uint32
	BlockHash  chainhash.Hash
	PowHash    chainhash.Hash
	Raw        []byte

	// AuxPow is non-nil only for Dogecoin headers with the AuxPoW
	// version flag set.
	AuxPow *AuxPowHeader
}

// BaseHeader is the canonical 80-byte Bitcoin-family block header: the
// wire layout Bitcoin, Litecoin, and pre-AuxPoW-fork Dogecoin all share,
// and the leading 80 bytes of every post-fork Dogecoin AuxPoW header.
type BaseHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

func readBaseHeader(r io.Reader, h *BaseHeader) error {
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Bits); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &h.Nonce)
}

func writeBaseHeader(w io.Writer, h *BaseHeader) error {
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Bits); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Nonce)
}

// Serialize returns the canonical 80-byte encoding of the base header.
func (h *BaseHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(BaseHeaderLen)
	if err := writeBaseHeader(&buf, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BlockHash is the double-SHA256 identifying hash of the header. This is
// the chain's canonical block hash for every variant built on BaseHeader,
// including post-AuxPoW-fork Dogecoin (the AuxPoW payload that may follow
// is never part of the hashed preimage).
func (h *BaseHeader) BlockHash() chainhash.Hash {
	return chainhash.DoubleHashRaw(func(w io.Writer) error {
		return writeBaseHeader(w, h)
	})
}

// scryptPowHash computes the scrypt proof-of-work hash Litecoin and
// Dogecoin mine against, over the same 80-byte serialization used for
// BlockHash.
func (h *BaseHeader) scryptPowHash() (chainhash.Hash, error) {
	return chainhash.ScryptRaw(func(w io.Writer) error {
		return writeBaseHeader(w, h)
	})
}

// DecodeHeader parses raw wire bytes into a DecodedHeader for the given
// chain family, dispatching to the chain-appropriate codec. It fails
// with ErrMalformedHeader when the length or field ranges are invalid.
func DecodeHeader(chain Chain, raw []byte) (*DecodedHeader, error) {
	switch chain {
	case Bitcoin, Litecoin:
		return decodeBaseOnly(chain, raw)
	case Dogecoin:
		return decodeDogecoin(raw)
	case Zcash:
		return decodeZcash(raw)
	default:
		return nil, fmt.Errorf("%w: unknown chain %v", ErrMalformedHeader, chain)
	}
}

func decodeBaseOnly(chain Chain, raw []byte) (*DecodedHeader, error) {
	if len(raw) != BaseHeaderLen {
		return nil, fmt.Errorf("%w: header is %d bytes, want %d", ErrMalformedHeader, len(raw), BaseHeaderLen)
	}
	var h BaseHeader
	if err := readBaseHeader(bytes.NewReader(raw), &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	dh := &DecodedHeader{
		Chain:      chain,
		Version:    h.Version,
		PrevHash:   h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Time:       h.Timestamp,
		Bits:       h.Bits,
		BlockHash:  h.BlockHash(),
		Raw:        raw,
	}
	switch chain {
	case Bitcoin:
		dh.PowHash = dh.BlockHash
	case Litecoin:
		pow, err := h.scryptPowHash()
		if err != nil {
			return nil, fmt.Errorf("%w: scrypt pow hash: %v", ErrMalformedHeader, err)
		}
		dh.PowHash = pow
	}
	return dh, nil
}

func decodeDogecoin(raw []byte) (*DecodedHeader, error) {
	if len(raw) < BaseHeaderLen {
		return nil, fmt.Errorf("%w: header is %d bytes, want at least %d", ErrMalformedHeader, len(raw), BaseHeaderLen)
	}
	var h BaseHeader
	if err := readBaseHeader(bytes.NewReader(raw[:BaseHeaderLen]), &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	dh := &DecodedHeader{
		Chain:      Dogecoin,
		Version:    h.Version,
		PrevHash:   h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Time:       h.Timestamp,
		Bits:       h.Bits,
		BlockHash:  h.BlockHash(),
		Raw:        raw,
	}

	if h.Version&auxPowVersionFlag == 0 {
		if len(raw) != BaseHeaderLen {
			return nil, fmt.Errorf("%w: trailing bytes on non-AuxPoW Dogecoin header", ErrMalformedHeader)
		}
		pow, err := h.scryptPowHash()
		if err != nil {
			return nil, fmt.Errorf("%w: scrypt pow hash: %v", ErrMalformedHeader, err)
		}
		dh.PowHash = pow
		return dh, nil
	}

	aux, err := decodeAuxPowHeader(raw[BaseHeaderLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: auxpow: %v", ErrMalformedHeader, err)
	}
	dh.AuxPow = aux
	// The PoW is the parent chain's PoW hash; dogecoind/namecoind set the
	// auxpow flag precisely so the child chain's own nonce/bits are not
	// remined, and the difficulty check is against the parent block's
	// hash instead (see difficulty.CheckAuxPow).
	parentPow, err := aux.ParentBlock.scryptPowHash()
	if err != nil {
		return nil, fmt.Errorf("%w: parent scrypt pow hash: %v", ErrMalformedHeader, err)
	}
	dh.PowHash = parentPow
	return dh, nil
}
