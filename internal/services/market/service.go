// Package market is the catalogue of liquidity pools backing the venues: a
// pair factory index for constant-product pairs and a registry of shared
// multi-asset pools ranked by liquidity.
package market

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/metrics"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

var (
	ErrPoolExists  = errors.New("pool already registered")
	ErrPairExists  = errors.New("pair already registered")
	ErrInvalidPool = errors.New("invalid pool")
)

// PoolStore persists pool metadata.
type PoolStore interface {
	SavePool(pool *domain.Pool) error
}

type pairKey struct {
	lo, hi solana.PublicKey
}

func newPairKey(a, b solana.PublicKey) pairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type Service struct {
	ledger     *ledger.Ledger
	store      PoolStore
	validators validatorSet

	pools      *ShardedPoolMap
	sharedMint *ShardedMintIndex

	// regMu serialises registration; pairs is only written under it
	regMu   sync.Mutex
	pairsMu sync.RWMutex
	pairs   map[pairKey]solana.PublicKey

	updateCount atomic.Uint64
}

// NewService builds an empty catalogue. store may be nil.
func NewService(l *ledger.Ledger, store PoolStore) *Service {
	return &Service{
		ledger:     l,
		store:      store,
		validators: defaultValidators(),
		pools:      NewShardedPoolMap(),
		pairs:      make(map[pairKey]solana.PublicKey),
		sharedMint: NewShardedMintIndex(),
	}
}

func validatePool(pool *domain.Pool) error {
	if pool == nil || pool.Address.IsZero() {
		return fmt.Errorf("%w: missing address", ErrInvalidPool)
	}
	if pool.FeeBps >= domain.BpsDenominator {
		return fmt.Errorf("%w: fee %d bps", ErrInvalidPool, pool.FeeBps)
	}
	switch pool.Type {
	case domain.PoolTypePair:
		if len(pool.Mints) != 2 {
			return fmt.Errorf("%w: pair needs 2 mints, got %d", ErrInvalidPool, len(pool.Mints))
		}
	case domain.PoolTypeShared:
		if len(pool.Mints) < 2 {
			return fmt.Errorf("%w: shared pool needs at least 2 mints", ErrInvalidPool)
		}
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidPool, pool.Type)
	}
	seen := make(map[solana.PublicKey]struct{}, len(pool.Mints))
	for _, m := range pool.Mints {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: duplicate mint %s", ErrInvalidPool, m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// RegisterPool lists a new pool as active and ready, and seeds its reserves
// into the ledger.
func (svc *Service) RegisterPool(pool *domain.Pool, reserves map[solana.PublicKey]*uint256.Int) error {
	if err := validatePool(pool); err != nil {
		return err
	}
	for mint := range reserves {
		if !containsMint(pool.Mints, mint) {
			return fmt.Errorf("%w: reserve for unlisted mint %s", ErrInvalidPool, mint)
		}
	}

	pool.Active = true
	pool.Ready = true
	if err := svc.index(pool); err != nil {
		return err
	}

	if len(reserves) > 0 {
		err := svc.ledger.Update(func(tx *ledger.Tx) error {
			for _, mint := range pool.Mints {
				if err := tx.Credit(pool.Address, mint, reserves[mint]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			svc.unindex(pool)
			return fmt.Errorf("seed reserves for %s: %w", pool.Address, err)
		}
	}

	if svc.store != nil {
		if err := svc.store.SavePool(pool); err != nil {
			log.Error().Err(err).Str("pool", pool.Address.String()).Msg("[marketService] failed to persist pool")
		}
	}

	svc.updateCount.Add(1)
	metrics.PoolUpdates.Inc()
	log.Info().
		Str("pool", pool.Address.String()).
		Str("type", pool.Type.String()).
		Int("mints", len(pool.Mints)).
		Uint16("feeBps", pool.FeeBps).
		Msg("[marketService] registered pool")
	return nil
}

// LoadPools indexes pools restored from storage. Reserves come back with the ledger.
func (svc *Service) LoadPools(pools []*domain.Pool) {
	for _, pool := range pools {
		if err := validatePool(pool); err != nil {
			log.Warn().Err(err).Msg("[marketService] skipping stored pool")
			continue
		}
		if err := svc.index(pool); err != nil {
			log.Warn().Err(err).Str("pool", pool.Address.String()).Msg("[marketService] skipping stored pool")
		}
	}
	log.Info().Int("count", svc.pools.Len()).Msg("[marketService] pools loaded")
}

func (svc *Service) index(pool *domain.Pool) error {
	svc.regMu.Lock()
	defer svc.regMu.Unlock()

	pool.UpdateFlags()
	if pool.Type == domain.PoolTypePair {
		key := newPairKey(pool.Mints[0], pool.Mints[1])
		if existing, ok := svc.lookupPair(key); ok {
			return fmt.Errorf("%w: %s", ErrPairExists, existing)
		}
		if !svc.pools.SetIfAbsent(pool.Address, pool) {
			return fmt.Errorf("%w: %s", ErrPoolExists, pool.Address)
		}
		svc.pairsMu.Lock()
		svc.pairs[key] = pool.Address
		svc.pairsMu.Unlock()
	} else {
		if !svc.pools.SetIfAbsent(pool.Address, pool) {
			return fmt.Errorf("%w: %s", ErrPoolExists, pool.Address)
		}
		for _, m := range pool.Mints {
			svc.sharedMint.Add(m, pool.Address)
		}
	}
	metrics.PoolCount.Set(float64(svc.pools.Len()))
	return nil
}

// unindex reverses index for a pool whose registration failed.
func (svc *Service) unindex(pool *domain.Pool) {
	svc.regMu.Lock()
	defer svc.regMu.Unlock()

	if !svc.pools.Delete(pool.Address) {
		return
	}
	if pool.Type == domain.PoolTypePair {
		svc.pairsMu.Lock()
		delete(svc.pairs, newPairKey(pool.Mints[0], pool.Mints[1]))
		svc.pairsMu.Unlock()
	} else {
		for _, m := range pool.Mints {
			svc.sharedMint.Remove(m, pool.Address)
		}
	}
	metrics.PoolCount.Set(float64(svc.pools.Len()))
}

// SetPoolActive toggles whether a pool may be traded.
func (svc *Service) SetPoolActive(address solana.PublicKey, active bool) error {
	var snapshot *domain.Pool
	ok := svc.pools.Update(address, func(pool *domain.Pool) {
		pool.SetActive(active)
		snapshot = pool.Clone()
	})
	if !ok {
		return fmt.Errorf("%w: pool %s", domain.ErrNotFound, address)
	}
	svc.updateCount.Add(1)
	metrics.PoolUpdates.Inc()
	if svc.store != nil {
		if err := svc.store.SavePool(snapshot); err != nil {
			log.Error().Err(err).Str("pool", address.String()).Msg("[marketService] failed to persist pool")
		}
	}
	return nil
}

// GetPool returns a copy of the pool taken under the shard lock.
func (svc *Service) GetPool(address solana.PublicKey) (*domain.Pool, bool) {
	return svc.pools.GetCopy(address)
}

func (svc *Service) IsPoolReady(pool *domain.Pool) bool {
	return svc.validators.IsPoolReady(pool)
}

// GetPair is the pair factory lookup: the constant-product pair for (a, b).
func (svc *Service) GetPair(a, b solana.PublicKey) (solana.PublicKey, bool) {
	if a.Equals(b) {
		return solana.PublicKey{}, false
	}
	return svc.lookupPair(newPairKey(a, b))
}

func (svc *Service) lookupPair(key pairKey) (solana.PublicKey, bool) {
	svc.pairsMu.RLock()
	defer svc.pairsMu.RUnlock()
	addr, ok := svc.pairs[key]
	return addr, ok
}

// GetBestPools is the registry lookup: ready shared pools trading in for out,
// ranked by the reserve of out they hold and capped at limit (limit <= 0 means all).
func (svc *Service) GetBestPools(view ledger.View, in, out solana.PublicKey, limit int) []solana.PublicKey {
	type candidate struct {
		address   solana.PublicKey
		liquidity *uint256.Int
	}

	var candidates []candidate
	for _, addr := range svc.sharedMint.Get(in) {
		pool, ok := svc.GetPool(addr)
		if !ok || !pool.Trades(in, out) || !svc.IsPoolReady(pool) {
			continue
		}
		liquidity := view.Balance(addr, out)
		if liquidity.IsZero() {
			continue
		}
		candidates = append(candidates, candidate{address: addr, liquidity: liquidity})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if c := candidates[i].liquidity.Cmp(candidates[j].liquidity); c != 0 {
			return c > 0
		}
		return bytes.Compare(candidates[i].address[:], candidates[j].address[:]) < 0
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ranked := make([]solana.PublicKey, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.address
	}
	return ranked
}

func (svc *Service) AllPools() []*domain.Pool {
	pools := svc.pools.GetAll()
	sort.Slice(pools, func(i, j int) bool {
		return bytes.Compare(pools[i].Address[:], pools[j].Address[:]) < 0
	})
	return pools
}

// GetStats returns pool count and registration/update count.
func (svc *Service) GetStats() (int, uint64) {
	return svc.pools.Len(), svc.updateCount.Load()
}

func containsMint(mints []solana.PublicKey, mint solana.PublicKey) bool {
	for _, m := range mints {
		if m.Equals(mint) {
			return true
		}
	}
	return false
}
