// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/toole-brendan/lightspv/chainhash"
	"github.com/toole-brendan/lightspv/types"
)

// ErrDuplicateHash is returned by Insert when a hash is already stored
// with a record that differs from the one being inserted. Re-inserting
// byte-identical records is a no-op success, per spec.md §4.4.
var ErrDuplicateHash = errors.New("duplicate hash")

// ErrNotFound is returned by Get/MainAt when the requested key is absent.
var ErrNotFound = errors.New("not found")

// defaultHotCacheSize bounds the in-memory LRU used to avoid a goleveldb
// round trip for repeatedly touched records (fork tips during a reorg
// walk, the current main tip on every submit).
const defaultHotCacheSize = 2048

// HeaderStore is the persistent hash→HeaderRecord and height→hash index
// from spec.md §4.4, backed by goleveldb the way the teacher's ffldb
// backs its block index, with a small LRU of hot records in front of it.
type HeaderStore struct {
	db    *leveldb.DB
	cache *hotCache
}

// Open opens (creating if necessary) a HeaderStore at path.
func Open(path string) (*HeaderStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &HeaderStore{
		db:    db,
		cache: newHotCache(defaultHotCacheSize),
	}, nil
}

// hotCache is a small fixed-capacity LRU of recently touched
// HeaderRecords, keyed by block hash. It exists purely to avoid a
// goleveldb round trip for records the verifier revisits within a single
// call (a fork tip during a reorg walk, the current main tip on every
// submit); a cache miss always falls back to goleveldb, so it carries no
// correctness weight.
type hotCache struct {
	limit int
	ll    *list.List
	items map[string]*list.Element
}

type hotCacheEntry struct {
	key string
	rec *types.HeaderRecord
}

func newHotCache(limit int) *hotCache {
	return &hotCache{
		limit: limit,
		ll:    list.New(),
		items: make(map[string]*list.Element, limit),
	}
}

func (c *hotCache) Get(key string) (*types.HeaderRecord, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*hotCacheEntry).rec, true
}

func (c *hotCache) Put(key string, rec *types.HeaderRecord) {
	if el, ok := c.items[key]; ok {
		el.Value.(*hotCacheEntry).rec = rec
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&hotCacheEntry{key: key, rec: rec})
	c.items[key] = el
	if c.ll.Len() > c.limit {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*hotCacheEntry).key)
		}
	}
}

// Close releases the underlying database handle.
func (s *HeaderStore) Close() error {
	return s.db.Close()
}

func cacheKey(hash chainhash.Hash) string {
	return string(hash[:])
}

// Get returns the stored record for hash, consulting the hot cache
// before goleveldb.
func (s *HeaderStore) Get(hash chainhash.Hash) (*types.HeaderRecord, error) {
	if rec, ok := s.cache.Get(cacheKey(hash)); ok {
		return rec, nil
	}
	data, err := s.db.Get(headerKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", hash, err)
	}
	rec, err := decodeHeaderRecord(hash, data)
	if err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", hash, err)
	}
	s.cache.Put(cacheKey(hash), rec)
	return rec, nil
}

// Has reports whether hash is already stored, without paying the cost of
// decoding its record.
func (s *HeaderStore) Has(hash chainhash.Hash) (bool, error) {
	ok, err := s.db.Has(headerKey(hash), nil)
	if err != nil {
		return false, fmt.Errorf("store: has %s: %w", hash, err)
	}
	return ok, nil
}

// MainAt returns the block hash at height on the main chain.
func (s *HeaderStore) MainAt(height uint64) (chainhash.Hash, error) {
	data, err := s.db.Get(heightKey(height), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return chainhash.Hash{}, ErrNotFound
	}
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("store: main_at %d: %w", height, err)
	}
	var h chainhash.Hash
	copy(h[:], data)
	return h, nil
}

// HeaderAtHeight implements difficulty.AncestorReader by composing MainAt
// and Get.
func (s *HeaderStore) HeaderAtHeight(height uint64) (types.HeaderRecord, bool) {
	hash, err := s.MainAt(height)
	if err != nil {
		return types.HeaderRecord{}, false
	}
	rec, err := s.Get(hash)
	if err != nil {
		return types.HeaderRecord{}, false
	}
	return *rec, true
}

// MainTip returns the current main-chain tip hash.
func (s *HeaderStore) MainTip() (chainhash.Hash, bool, error) {
	data, err := s.db.Get(keyMainTip, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return chainhash.Hash{}, false, nil
	}
	if err != nil {
		return chainhash.Hash{}, false, fmt.Errorf("store: main tip: %w", err)
	}
	var h chainhash.Hash
	copy(h[:], data)
	return h, true, nil
}

// GCFloor returns the lowest height at which records are guaranteed to
// still be retained.
func (s *HeaderStore) GCFloor() (uint64, error) {
	data, err := s.db.Get(keyGCFloor, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: gc floor: %w", err)
	}
	return decodeUint64(data), nil
}

// LoadForks returns every persisted fork record, used to rebuild the
// in-memory fork registry when a host resumes an already-initialized
// store.
func (s *HeaderStore) LoadForks() ([]*types.Fork, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{prefixFork}), nil)
	defer iter.Release()

	var out []*types.Fork
	for iter.Next() {
		f, err := decodeFork(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("store: load forks: %w", err)
		}
		out = append(out, f)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: load forks: %w", err)
	}
	return out, nil
}

// Batch accumulates the writes a single submit_blocks call makes so they
// can be committed atomically, matching the host's transactional
// execution model (spec.md §5): either every write in the batch lands, or
// none do.
type Batch struct {
	s   *HeaderStore
	wb  *leveldb.Batch
	add []*types.HeaderRecord // touched records, applied to the hot cache on Commit
}

// NewBatch starts a new atomic write batch.
func (s *HeaderStore) NewBatch() *Batch {
	return &Batch{s: s, wb: new(leveldb.Batch)}
}

// Insert stages a new header record. It is idempotent: inserting a
// byte-identical record a second time is a no-op; inserting a record
// under a hash that already maps to a different record is rejected with
// ErrDuplicateHash (the caller is expected to check this before staging
// further work for the same header).
func (b *Batch) Insert(rec *types.HeaderRecord) error {
	existing, err := b.s.Get(rec.BlockHash)
	if err == nil {
		if !sameRecord(existing, rec) {
			return fmt.Errorf("%w: %s", ErrDuplicateHash, rec.BlockHash)
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	b.wb.Put(headerKey(rec.BlockHash), encodeHeaderRecord(rec))
	b.add = append(b.add, rec)
	return nil
}

func sameRecord(a, b *types.HeaderRecord) bool {
	return a.BlockHash == b.BlockHash &&
		a.PrevHash == b.PrevHash &&
		a.MerkleRoot == b.MerkleRoot &&
		a.Height == b.Height &&
		a.Time == b.Time &&
		a.Bits == b.Bits &&
		a.Chain == b.Chain
}

// SetMain stages the height→hash mapping for the main chain.
func (b *Batch) SetMain(height uint64, hash chainhash.Hash) {
	b.wb.Put(heightKey(height), hash[:])
}

// ClearMain stages removal of a height index entry, used when demoting a
// segment of the main chain during a reorg.
func (b *Batch) ClearMain(height uint64) {
	b.wb.Delete(heightKey(height))
}

// SetTip stages the new main-chain tip pointer.
func (b *Batch) SetTip(hash chainhash.Hash) {
	b.wb.Put(keyMainTip, hash[:])
}

// PutFork and DeleteFork stage fork-registry persistence alongside the
// header-store mutations in the same atomic batch.
func (b *Batch) PutFork(f *types.Fork) {
	b.wb.Put(forkKey(f.TipHash), encodeFork(f))
}

func (b *Batch) DeleteFork(tipHash chainhash.Hash) {
	b.wb.Delete(forkKey(tipHash))
}

// Evict stages deletion of a header record and its height index entry
// (if any). Used by GC and by reorg when the demoted main-chain tail
// exceeds max_fork_len.
func (b *Batch) Evict(rec *types.HeaderRecord) {
	b.wb.Delete(headerKey(rec.BlockHash))
	b.wb.Delete(heightKey(rec.Height))
	if el, ok := b.s.cache.items[cacheKey(rec.BlockHash)]; ok {
		b.s.cache.ll.Remove(el)
		delete(b.s.cache.items, cacheKey(rec.BlockHash))
	}
}

// SetGCFloor stages an update to the lowest guaranteed-retained height.
func (b *Batch) SetGCFloor(floor uint64) {
	b.wb.Put(keyGCFloor, encodeUint64(floor))
}

// Commit atomically applies every staged write and updates the hot
// cache. A failed Commit leaves the store entirely unchanged, satisfying
// the atomicity spec.md §4.6/§5 require of submit_blocks.
func (b *Batch) Commit() error {
	if err := b.s.db.Write(b.wb, nil); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	for _, rec := range b.add {
		b.s.cache.Put(cacheKey(rec.BlockHash), rec)
	}
	return nil
}

// EvictBelow runs one bounded GC pass: it evicts up to maxEvictions
// header records below floor whose hash is not in keep (the set of
// hashes still referenced as a live fork's ancestry), returning the
// number evicted. Callers loop this across calls if more remain; spec.md
// §4.4 requires GC cost stay amortized-bounded per submit, not that a
// single call finishes pruning everything below floor immediately.
func (s *HeaderStore) EvictBelow(b *Batch, floor uint64, keep map[chainhash.Hash]struct{}, maxEvictions int) (int, error) {
	if floor == 0 || maxEvictions <= 0 {
		return 0, nil
	}
	iter := s.db.NewIterator(&util.Range{Limit: heightKey(floor)}, nil)
	defer iter.Release()

	evicted := 0
	for iter.Next() && evicted < maxEvictions {
		key := iter.Key()
		if len(key) != 9 || key[0] != prefixHeight {
			continue
		}
		var hash chainhash.Hash
		copy(hash[:], iter.Value())
		if _, keepIt := keep[hash]; keepIt {
			continue
		}
		rec, err := s.Get(hash)
		if err != nil {
			continue
		}
		if rec.Height >= floor {
			continue
		}
		b.Evict(rec)
		evicted++
	}
	if err := iter.Error(); err != nil {
		return evicted, fmt.Errorf("store: evict_below: %w", err)
	}
	if evicted > 0 {
		log.Debugf("evicted %d header(s) below floor %d", evicted, floor)
	}
	return evicted, nil
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func decodeUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
