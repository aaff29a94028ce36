// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the 32-byte hash type and double-SHA256
// hashing primitives shared by every chain variant the verifier tracks.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// HashSize is the number of bytes in the array used to represent a hash.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified
// a hash string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxHashStringSize)

// Hash is a 32-byte array used to represent the double sha256 of block
// headers and transactions. Stored internally as little-endian, as
// produced directly by the hashing function; displayed as big-endian to
// match the convention of block explorers.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash, matching the big-endian display convention.
func (h Hash) String() string {
	var reversed Hash
	for i, b := range h[:HashSize/2] {
		reversed[i], reversed[HashSize-1-i] = h[HashSize-1-i], b
	}
	return hex.EncodeToString(reversed[:])
}

// CloneBytes returns a copy of the bytes which represent the hash as a
// byte slice.
func (h *Hash) CloneBytes() []byte {
	newHash := make([]byte, HashSize)
	copy(newHash, h[:])
	return newHash
}

// SetBytes sets the bytes which represent the hash. An error is returned
// if the number of bytes passed in is not HashSize.
func (h *Hash) SetBytes(newHash []byte) error {
	nhlen := len(newHash)
	if nhlen != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", nhlen, HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// IsEqual returns true if target is the same as the hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// NewHash returns a new Hash from a byte slice.
func NewHash(newHash []byte) (*Hash, error) {
	var sh Hash
	if err := sh.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &sh, nil
}

// NewHashFromStr creates a Hash from a hash string. The string should be
// the hexadecimal string of a byte-reversed hash, but any missing
// characters result in zero padding at the end of the Hash.
func NewHashFromStr(hash string) (*Hash, error) {
	ret := new(Hash)
	if err := Decode(ret, hash); err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode decodes the byte-reversed hexadecimal string encoding of a Hash
// into dst.
func Decode(dst *Hash, src string) error {
	if len(src) > MaxHashStringSize {
		return ErrHashStrSize
	}

	var srcBytes []byte
	if len(src)%2 == 0 {
		srcBytes = []byte(src)
	} else {
		srcBytes = make([]byte, 1+len(src))
		srcBytes[0] = '0'
		copy(srcBytes[1:], src)
	}

	var reversedHash Hash
	_, err := hex.Decode(reversedHash[HashSize-hex.DecodedLen(len(srcBytes)):], srcBytes)
	if err != nil {
		return err
	}

	for i, b := range reversedHash[:HashSize/2] {
		dst[i], dst[HashSize-1-i] = reversedHash[HashSize-1-i], b
	}
	return nil
}

// HashB calculates the single SHA-256 hash of the given byte slice and
// returns it as a plain byte slice.
func HashB(b []byte) []byte {
	first := sha256.Sum256(b)
	return first[:]
}

// DoubleHashB calculates the double-SHA256 hash of the given byte slice
// and returns it as a plain byte slice.
func DoubleHashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// DoubleHashH calculates the double-SHA256 hash of the given byte slice
// and returns it as a Hash.
func DoubleHashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return Hash(sha256.Sum256(first[:]))
}

// DoubleHashRaw calculates the double-SHA256 hash of the serialization
// produced by writing into a buffer via the given function, avoiding a
// separate []byte allocation step at call sites that already have a
// writer-based Serialize method.
func DoubleHashRaw(f func(w io.Writer) error) Hash {
	var buf hashWriter
	if err := f(&buf); err != nil {
		return Hash{}
	}
	return DoubleHashH(buf)
}

// hashWriter is an io.Writer backed by a growable byte slice, used to
// avoid the extra allocation from bytes.Buffer for the small, fixed-size
// writes Serialize methods perform.
type hashWriter []byte

func (w *hashWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}

// ScryptPoWParams are the parameters Litecoin and Dogecoin use for their
// scrypt-based proof-of-work hash, per spec.md §4.1.
const (
	ScryptN      = 1024
	ScryptR      = 1
	ScryptP      = 1
	ScryptKeyLen = 32
)

// ScryptRaw computes the scrypt proof-of-work hash of the serialization
// produced by f, using the fixed N/r/p/dkLen parameters Litecoin and
// Dogecoin share. Unlike DoubleHashRaw this can fail (scrypt is memory
// bound and its underlying parameter validation can error), so the error
// is surfaced to the caller.
func ScryptRaw(f func(w io.Writer) error) (Hash, error) {
	var buf hashWriter
	if err := f(&buf); err != nil {
		return Hash{}, err
	}
	sum, err := scrypt.Key(buf, buf, ScryptN, ScryptR, ScryptP, ScryptKeyLen)
	if err != nil {
		return Hash{}, err
	}
	return Hash(sum), nil
}
