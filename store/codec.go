// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
	"github.com/toole-brendan/lightspv/wire"
)

// encodeHeaderRecord serializes a HeaderRecord to its on-disk form: the
// fixed-width fields followed by a length-prefixed ChainWork and a
// length-prefixed Raw header. This mirrors ffldb's own append-fixed-
// then-variable layout for block index entries.
func encodeHeaderRecord(r *types.HeaderRecord) []byte {
	workBytes := r.ChainWork.Bytes()

	var buf bytes.Buffer
	buf.Write(r.PrevHash[:])
	buf.Write(r.MerkleRoot[:])
	binary.Write(&buf, binary.BigEndian, r.Height)
	binary.Write(&buf, binary.BigEndian, r.Time)
	binary.Write(&buf, binary.BigEndian, r.Bits)
	binary.Write(&buf, binary.BigEndian, r.TxCount)
	buf.WriteByte(byte(r.Chain))
	binary.Write(&buf, binary.BigEndian, uint16(len(workBytes)))
	buf.Write(workBytes)
	binary.Write(&buf, binary.BigEndian, uint32(len(r.Raw)))
	buf.Write(r.Raw)
	return buf.Bytes()
}

// decodeHeaderRecord is the inverse of encodeHeaderRecord. blockHash is
// supplied by the caller (it is the record's own storage key, so it is
// not re-serialized).
func decodeHeaderRecord(blockHash chainhash.Hash, data []byte) (*types.HeaderRecord, error) {
	r := bytes.NewReader(data)
	rec := &types.HeaderRecord{BlockHash: blockHash}

	if _, err := io.ReadFull(r, rec.PrevHash[:]); err != nil {
		return nil, fmt.Errorf("prev hash: %w", err)
	}
	if _, err := io.ReadFull(r, rec.MerkleRoot[:]); err != nil {
		return nil, fmt.Errorf("merkle root: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &rec.Height); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &rec.Time); err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &rec.Bits); err != nil {
		return nil, fmt.Errorf("bits: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &rec.TxCount); err != nil {
		return nil, fmt.Errorf("tx count: %w", err)
	}
	chainByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	rec.Chain = wire.Chain(chainByte)

	var workLen uint16
	if err := binary.Read(r, binary.BigEndian, &workLen); err != nil {
		return nil, fmt.Errorf("chain work length: %w", err)
	}
	workBytes := make([]byte, workLen)
	if _, err := io.ReadFull(r, workBytes); err != nil {
		return nil, fmt.Errorf("chain work: %w", err)
	}
	rec.ChainWork = new(big.Int).SetBytes(workBytes)

	var rawLen uint32
	if err := binary.Read(r, binary.BigEndian, &rawLen); err != nil {
		return nil, fmt.Errorf("raw length: %w", err)
	}
	rec.Raw = make([]byte, rawLen)
	if _, err := io.ReadFull(r, rec.Raw); err != nil {
		return nil, fmt.Errorf("raw: %w", err)
	}
	return rec, nil
}

// encodeFork and decodeFork serialize a types.Fork for the F: keyspace,
// so fork metadata survives across calls the same way header records do.
func encodeFork(f *types.Fork) []byte {
	workBytes := f.ChainWork.Bytes()
	var buf bytes.Buffer
	buf.Write(f.TipHash[:])
	binary.Write(&buf, binary.BigEndian, f.TipHeight)
	binary.Write(&buf, binary.BigEndian, f.Length)
	binary.Write(&buf, binary.BigEndian, uint16(len(workBytes)))
	buf.Write(workBytes)
	return buf.Bytes()
}

func decodeFork(data []byte) (*types.Fork, error) {
	r := bytes.NewReader(data)
	f := &types.Fork{}
	if _, err := io.ReadFull(r, f.TipHash[:]); err != nil {
		return nil, fmt.Errorf("tip hash: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &f.TipHeight); err != nil {
		return nil, fmt.Errorf("tip height: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &f.Length); err != nil {
		return nil, fmt.Errorf("length: %w", err)
	}
	var workLen uint16
	if err := binary.Read(r, binary.BigEndian, &workLen); err != nil {
		return nil, fmt.Errorf("chain work length: %w", err)
	}
	workBytes := make([]byte, workLen)
	if _, err := io.ReadFull(r, workBytes); err != nil {
		return nil, fmt.Errorf("chain work: %w", err)
	}
	f.ChainWork = new(big.Int).SetBytes(workBytes)
	return f, nil
}
