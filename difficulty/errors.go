// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package difficulty implements the proof-of-work check and the
// chain-specific retarget algorithms from spec.md §4.3: the
// Bitcoin-style epoch retarget (Bitcoin, Litecoin), Dogecoin's
// DigiShield per-block retarget plus AuxPoW parent-chain validation, and
// Zcash's EWMA retarget.
package difficulty

import "errors"

// ErrInsufficientPoW is returned when a header's pow hash exceeds its
// claimed target.
var ErrInsufficientPoW = errors.New("insufficient proof of work")

// ErrBadDifficulty is returned when a header's bits field does not match
// the bits this engine computes from chain rules, or when the ancestor
// data needed to compute it is unavailable.
var ErrBadDifficulty = errors.New("bad difficulty")

// ErrAuxPowInvalid is returned when an AuxPoW payload fails merge-mining
// commitment verification. The parent chain's PoW hash is checked by
// CheckProofOfWork, whose failures are ErrInsufficientPoW instead.
var ErrAuxPowInvalid = errors.New("invalid auxpow")
