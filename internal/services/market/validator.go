package market

import (
	"github.com/hxuan190/split-swapper/internal/domain"
)

// PoolValidator decides whether a pool of a given type can be traded.
type PoolValidator interface {
	IsReady(pool *domain.Pool) bool
	SupportsPoolType(poolType domain.PoolType) bool
}

// PairValidator implements PoolValidator for constant-product pairs
type PairValidator struct{}

func (PairValidator) IsReady(pool *domain.Pool) bool {
	return pool.HasFlags(domain.FlagReadyPairMask) && len(pool.Mints) == 2
}

func (PairValidator) SupportsPoolType(poolType domain.PoolType) bool {
	return poolType == domain.PoolTypePair
}

// SharedValidator implements PoolValidator for registry pools
type SharedValidator struct{}

func (SharedValidator) IsReady(pool *domain.Pool) bool {
	return pool.HasFlags(domain.FlagReadySharedMask) && len(pool.Mints) >= 2
}

func (SharedValidator) SupportsPoolType(poolType domain.PoolType) bool {
	return poolType == domain.PoolTypeShared
}

type validatorSet []PoolValidator

func defaultValidators() validatorSet {
	return validatorSet{PairValidator{}, SharedValidator{}}
}

func (vs validatorSet) IsPoolReady(pool *domain.Pool) bool {
	for _, v := range vs {
		if v.SupportsPoolType(pool.Type) {
			return v.IsReady(pool)
		}
	}
	return pool.Active && pool.Ready
}
