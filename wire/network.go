// Copyright (c) 2013-2024 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// Chain identifies which proof-of-work chain family a header belongs to.
// Each chain selects its own codec, PoW hash function, and retarget rule
// (see the difficulty package); DecodeHeader and difficulty.NextBits
// switch on this value for every submitted header, taking it from the
// configured chaincfg.Params.
type Chain uint8

const (
	// Bitcoin is the reference chain: fixed 80-byte header, double-SHA256
	// PoW, 2016-block epoch retarget.
	Bitcoin Chain = iota

	// Litecoin is wire-compatible with Bitcoin but uses scrypt for its
	// PoW hash (the block hash identifying the header remains
	// double-SHA256).
	Litecoin

	// Dogecoin is wire-compatible with Bitcoin/Litecoin, uses scrypt PoW,
	// and after its AuxPoW fork height may carry an auxiliary
	// merge-mining payload appended to the base 80-byte header.
	Dogecoin

	// Zcash extends the header layout with a Sapling-root field, a
	// 32-byte nonce, and a variable-length Equihash solution.
	Zcash
)

// String returns the human-readable chain family name.
func (c Chain) String() string {
	switch c {
	case Bitcoin:
		return "bitcoin"
	case Litecoin:
		return "litecoin"
	case Dogecoin:
		return "dogecoin"
	case Zcash:
		return "zcash"
	default:
		return fmt.Sprintf("unknown chain (%d)", uint8(c))
	}
}

// Net identifies a network magic value, used only to tag configuration;
// the core never opens a network connection itself (spec Non-goal).
type Net uint32

// Network magic values. Values match each chain's real P2P message magic
// so that a host operator configuring a tracked network can copy them
// directly from the chain's own documentation.
const (
	BitcoinMainNet  Net = 0xd9b4bef9
	BitcoinTestNet3 Net = 0x0709110b
	BitcoinRegtest  Net = 0xdab5bffa

	LitecoinMainNet  Net = 0xdbb6c0fb
	LitecoinTestNet4 Net = 0xf1c8d2fd

	DogecoinMainNet Net = 0xc0c0c0c0
	DogecoinTestNet Net = 0xfcc1b7dc

	ZcashMainNet Net = 0x6427e924
	ZcashTestNet Net = 0xbff91afa
)

var netStrings = map[Net]string{
	BitcoinMainNet:   "bitcoin-mainnet",
	BitcoinTestNet3:  "bitcoin-testnet3",
	BitcoinRegtest:   "bitcoin-regtest",
	LitecoinMainNet:  "litecoin-mainnet",
	LitecoinTestNet4: "litecoin-testnet4",
	DogecoinMainNet:  "dogecoin-mainnet",
	DogecoinTestNet:  "dogecoin-testnet",
	ZcashMainNet:     "zcash-mainnet",
	ZcashTestNet:     "zcash-testnet",
}

// String returns the Net in human-readable form.
func (n Net) String() string {
	if s, ok := netStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("unknown net (0x%08x)", uint32(n))
}
