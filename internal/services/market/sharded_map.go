package market

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/split-swapper/internal/domain"
)

const numShards = 16

// ShardedPoolMap is a sharded map for pools to reduce lock contention
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey]*domain.Pool
}

func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[solana.PublicKey]*domain.Pool)
	}
	return m
}

// first byte of the key picks the shard
func (m *ShardedPoolMap) getShard(key solana.PublicKey) *poolShard {
	return &m.shards[key[0]%numShards]
}

// GetCopy returns a clone of the stored pool taken under the shard read lock.
func (m *ShardedPoolMap) GetCopy(key solana.PublicKey) (*domain.Pool, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	pool, ok := shard.pools[key]
	if !ok {
		return nil, false
	}
	return pool.Clone(), true
}

// Delete removes key and reports whether it was present.
func (m *ShardedPoolMap) Delete(key solana.PublicKey) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.pools[key]; !ok {
		return false
	}
	delete(shard.pools, key)
	return true
}

// SetIfAbsent stores pool unless the key is taken and reports whether it stored.
func (m *ShardedPoolMap) SetIfAbsent(key solana.PublicKey, pool *domain.Pool) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.pools[key]; ok {
		return false
	}
	shard.pools[key] = pool
	return true
}

// Update runs fn on the stored pool under the shard write lock.
func (m *ShardedPoolMap) Update(key solana.PublicKey, fn func(pool *domain.Pool)) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	pool, ok := shard.pools[key]
	if !ok {
		return false
	}
	fn(pool)
	return true
}

func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// GetAll returns clones of every stored pool.
func (m *ShardedPoolMap) GetAll() []*domain.Pool {
	result := make([]*domain.Pool, 0, m.Len())
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for _, pool := range m.shards[i].pools {
			result = append(result, pool.Clone())
		}
		m.shards[i].mu.RUnlock()
	}
	return result
}

// ShardedMintIndex maps a mint to the shared pools listing it.
type ShardedMintIndex struct {
	shards [numShards]mintShard
}

type mintShard struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey][]solana.PublicKey
}

func NewShardedMintIndex() *ShardedMintIndex {
	m := &ShardedMintIndex{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[solana.PublicKey][]solana.PublicKey)
	}
	return m
}

func (m *ShardedMintIndex) getShard(mint solana.PublicKey) *mintShard {
	return &m.shards[mint[0]%numShards]
}

func (m *ShardedMintIndex) Add(mint, pool solana.PublicKey) {
	shard := m.getShard(mint)
	shard.mu.Lock()
	shard.pools[mint] = append(shard.pools[mint], pool)
	shard.mu.Unlock()
}

// Remove drops pool from the list of mint.
func (m *ShardedMintIndex) Remove(mint, pool solana.PublicKey) {
	shard := m.getShard(mint)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	pools := shard.pools[mint]
	for i, p := range pools {
		if p.Equals(pool) {
			shard.pools[mint] = append(pools[:i:i], pools[i+1:]...)
			break
		}
	}
	if len(shard.pools[mint]) == 0 {
		delete(shard.pools, mint)
	}
}

// Get returns a copy of the pools listing mint.
func (m *ShardedMintIndex) Get(mint solana.PublicKey) []solana.PublicKey {
	shard := m.getShard(mint)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	pools := shard.pools[mint]
	out := make([]solana.PublicKey, len(pools))
	copy(out, pools)
	return out
}
