// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the per-chain, per-network consensus
// parameters (proof-of-work limits, retarget constants, AuxPoW/Zcash
// fork heights) and genesis headers the difficulty engine and verifier
// are configured from at init time.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/toole-brendan/lightspv/pow"
	"github.com/toole-brendan/lightspv/wire"
)

// bigOne is 1 represented as a big.Int, defined once to avoid the
// overhead of recreating it.
var bigOne = big.NewInt(1)

// Proof-of-work limits: the highest (easiest) target each network
// permits. Mirrors the values each reference client ships.
var (
	bitcoinMainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	bitcoinTestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	litecoinMainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	dogecoinMainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	zcashMainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 243), bigOne)
)

// Params holds the static, per-network consensus rules the difficulty
// engine and chain state machine need. One Params value selects both a
// chain family (wire.Chain) and the retarget algorithm that applies to
// it (see the difficulty package).
type Params struct {
	Name  string
	Chain wire.Chain
	Net   wire.Net

	// PowLimit is the easiest allowed target; PowLimitBits is its
	// compact encoding, used as the initial/minimum difficulty.
	PowLimit     *big.Int
	PowLimitBits uint32

	// TargetTimespan is the total time a retarget epoch should take;
	// TargetTimePerBlock is the desired spacing between blocks.
	// BlocksPerRetarget = TargetTimespan / TargetTimePerBlock for the
	// Bitcoin-style epoch retarget (spec.md §4.3).
	TargetTimespan     time.Duration
	TargetTimePerBlock time.Duration
	BlocksPerRetarget  int64

	// RetargetAdjustmentFactor bounds how much the computed timespan may
	// clamp by in a single retarget (4 == the target_timespan/4 ..
	// target_timespan*4 rule).
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty enables the "20-minute rule" minimum-difficulty
	// allowance on networks that define one (testnet only, in practice).
	ReduceMinDifficulty  bool
	MinDiffReductionTime time.Duration

	// DigishieldForkHeight records the height at which Dogecoin switched
	// from the legacy Bitcoin-style epoch retarget to per-block DigiShield
	// retargeting (spec.md §4.3). The difficulty package does not read
	// it: DigiShield applies to every Dogecoin header at any height, and
	// the legacy epoch retarget is not implemented, so the host chooses a
	// genesis at or above the real historical fork height.
	DigishieldForkHeight int64

	// AuxPowForkHeight records the height at which Dogecoin headers began
	// to carry an AuxPoW payload. wire.DecodeHeader does not read it: a
	// Dogecoin header with the AuxPoW version flag set is decoded and
	// checked as AuxPoW at any height.
	AuxPowForkHeight int64

	// Zcash EWMA retarget parameters (spec.md §4.3): averaging window in
	// blocks, and the damping factor applied to the computed adjustment
	// as DampingNumerator/DampingDenominator, clamped to
	// [-PowMaxAdjustDownPct, +PowMaxAdjustUpPct] percent per block.
	AveragingWindow     int64
	DampingNumerator    int64
	DampingDenominator  int64
	PowMaxAdjustUpPct   int64
	PowMaxAdjustDownPct int64

	// MedianTimePastWindow is this network's median-time-past window
	// (spec.md §4.6); 11 for every chain tracked here. The verifier reads
	// the window from types.Config.MedianTimePastWindow, not from here.
	MedianTimePastWindow int

	// MinConfirmations is this network's customary confirmation depth
	// (spec.md §4.7). VerifyTransactionInclusion reads its default from
	// types.Config.MinConfirmations, not from here.
	MinConfirmations uint64
}

// BitcoinMainNetParams are Bitcoin's mainnet consensus rules.
var BitcoinMainNetParams = Params{
	Name:                     "bitcoin-mainnet",
	Chain:                    wire.Bitcoin,
	Net:                      wire.BitcoinMainNet,
	PowLimit:                 bitcoinMainPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	BlocksPerRetarget:        2016,
	RetargetAdjustmentFactor: 4,
	MedianTimePastWindow:     11,
	MinConfirmations:         6,
}

// BitcoinTestNet3Params are Bitcoin testnet3's consensus rules, including
// the 20-minute minimum-difficulty allowance.
var BitcoinTestNet3Params = Params{
	Name:                     "bitcoin-testnet3",
	Chain:                    wire.Bitcoin,
	Net:                      wire.BitcoinTestNet3,
	PowLimit:                 bitcoinTestPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	BlocksPerRetarget:        2016,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,
	MedianTimePastWindow:     11,
	MinConfirmations:         1,
}

// LitecoinMainNetParams are Litecoin mainnet's consensus rules: the same
// 2016-block epoch length as Bitcoin but a 2.5-minute block target, so
// the epoch spans roughly 3.5 days instead of two weeks.
var LitecoinMainNetParams = Params{
	Name:                     "litecoin-mainnet",
	Chain:                    wire.Litecoin,
	Net:                      wire.LitecoinMainNet,
	PowLimit:                 litecoinMainPowLimit,
	PowLimitBits:             0x1e0fffff,
	TargetTimespan:           time.Hour * 84,
	TargetTimePerBlock:       time.Minute*2 + time.Second*30,
	BlocksPerRetarget:        2016,
	RetargetAdjustmentFactor: 4,
	MedianTimePastWindow:     11,
	MinConfirmations:         6,
}

// DogecoinMainNetParams are Dogecoin mainnet's consensus rules: DigiShield
// per-block retargeting and AuxPoW merge-mining are both active
// unconditionally for every header this verifier is configured to track
// (the genesis height the host picks is expected to already be past both
// historical fork heights).
var DogecoinMainNetParams = Params{
	Name:                 "dogecoin-mainnet",
	Chain:                wire.Dogecoin,
	Net:                  wire.DogecoinMainNet,
	PowLimit:             dogecoinMainPowLimit,
	PowLimitBits:         0x1e0fffff,
	TargetTimespan:       time.Minute * 1,
	TargetTimePerBlock:   time.Minute * 1,
	DigishieldForkHeight: 0,
	AuxPowForkHeight:     0,
	MedianTimePastWindow: 11,
	MinConfirmations:     20,
}

// ZcashMainNetParams are Zcash mainnet's consensus rules: a 17-block EWMA
// retarget window evaluated every block rather than an epoch retarget.
var ZcashMainNetParams = Params{
	Name:                 "zcash-mainnet",
	Chain:                wire.Zcash,
	Net:                  wire.ZcashMainNet,
	PowLimit:             zcashMainPowLimit,
	PowLimitBits:         0x1f07ffff,
	TargetTimePerBlock:   time.Minute*2 + time.Second*30,
	AveragingWindow:      17,
	DampingNumerator:     3,
	DampingDenominator:   4,
	PowMaxAdjustUpPct:    32,
	PowMaxAdjustDownPct:  16,
	MedianTimePastWindow: 11,
	MinConfirmations:     10,
}

// ByName returns one of the Params values above by its Name field, for
// host configuration code that selects a network from a string (e.g. a
// CLI flag or contract init argument). It is the only lookup helper this
// package provides; the core itself always takes an explicit *Params.
func ByName(name string) (*Params, bool) {
	for _, p := range []*Params{
		&BitcoinMainNetParams, &BitcoinTestNet3Params,
		&LitecoinMainNetParams, &DogecoinMainNetParams, &ZcashMainNetParams,
	} {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// CalcWorkLimit returns the chain work of a single block mined exactly at
// PowLimit, i.e. the minimum possible per-block work contribution.
func (p *Params) CalcWorkLimit() *big.Int {
	return pow.Work(p.PowLimit)
}
