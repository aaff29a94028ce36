// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package forks

import (
	"math/big"
	"testing"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
	"pgregory.net/rapid"
)

// TestEnforceCapacityNeverExceedsBoundRapid checks spec.md §4.5's capacity
// invariant against arbitrary insert/enforce sequences: no matter what mix
// of chain_work, height, and tip hash values arrive, the registry never
// holds more than maxForks entries once EnforceCapacity has been given a
// chance to run after every insert.
func TestEnforceCapacityNeverExceedsBoundRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxForks := rapid.IntRange(1, 6).Draw(rt, "maxForks")
		r := New(1000, maxForks)

		inserts := rapid.IntRange(0, 40).Draw(rt, "inserts")
		for i := 0; i < inserts; i++ {
			label := rapid.IntRange(0, 1<<30).Draw(rt, "label")
			work := rapid.Int64Range(1, 1<<40).Draw(rt, "work")
			height := rapid.Uint64Range(0, 1<<20).Draw(rt, "height")

			f := &types.Fork{
				TipHash:   chainhash.DoubleHashH([]byte{byte(label), byte(label >> 8), byte(label >> 16), byte(label >> 24)}),
				TipHeight: height,
				ChainWork: big.NewInt(work),
				Length:    1,
			}
			if err := r.Insert(f); err != nil {
				continue
			}
			r.EnforceCapacity()

			if r.Len() > maxForks {
				rt.Fatalf("registry holds %d forks, exceeding cap %d", r.Len(), maxForks)
			}
		}
	})
}

// TestEnforceCapacityAlwaysEvictsTheLightestRapid confirms EnforceCapacity
// never evicts a fork while a strictly lighter one survives: the eviction
// choice must always be the global minimum under the tie-break order, not
// an arbitrary one.
func TestEnforceCapacityAlwaysEvictsTheLightestRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(rt, "n")
		r := New(1000, n-1)

		forksInOrder := make([]*types.Fork, 0, n)
		for i := 0; i < n; i++ {
			work := rapid.Int64Range(1, 1<<40).Draw(rt, "work")
			height := rapid.Uint64Range(0, 1<<20).Draw(rt, "height")
			f := &types.Fork{
				TipHash:   chainhash.DoubleHashH([]byte{byte(i), byte(work), byte(height)}),
				TipHeight: height,
				ChainWork: big.NewInt(work),
				Length:    1,
			}
			_ = r.Insert(f)
			forksInOrder = append(forksInOrder, f)
		}

		evicted, ok := r.EnforceCapacity()
		if !ok {
			rt.Fatalf("expected an eviction with %d forks over cap %d", n, n-1)
		}

		for _, f := range forksInOrder {
			if f.TipHash == evicted.TipHash {
				continue
			}
			if _, stillPresent := r.Get(f.TipHash); stillPresent && isLighter(f, evicted) {
				rt.Fatalf("fork %s is lighter than evicted %s but was not the one removed", f.TipHash, evicted.TipHash)
			}
		}
	})
}
