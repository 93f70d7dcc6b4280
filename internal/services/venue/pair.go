package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

// PairVenue swaps through constant-product pairs found via a pair factory.
type PairVenue struct {
	factory PairFactory
}

func NewPairVenue(factory PairFactory) *PairVenue {
	return &PairVenue{factory: factory}
}

func (v *PairVenue) Kind() domain.VenueSelector {
	return domain.VenuePair
}

func (v *PairVenue) ResolvePool(view ledger.View, order *Order) (*domain.Pool, error) {
	addr, ok := v.factory.GetPair(order.InputMint, order.OutputMint)
	if !ok {
		return nil, fmt.Errorf("%w: no pair for %s/%s", domain.ErrVenueNotFound, order.InputMint, order.OutputMint)
	}
	if !order.PoolRef.IsZero() && !order.PoolRef.Equals(addr) {
		return nil, fmt.Errorf("%w: %s is not the %s/%s pair", domain.ErrVenueNotFound, order.PoolRef, order.InputMint, order.OutputMint)
	}
	pool, ok := v.factory.GetPool(addr)
	if !ok || pool.Type != domain.PoolTypePair || !v.factory.IsPoolReady(pool) {
		return nil, fmt.Errorf("%w: pair %s not tradable", domain.ErrVenueNotFound, addr)
	}
	return pool, nil
}

func (v *PairVenue) Quote(view ledger.View, pool *domain.Pool, in, out solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error) {
	return quoteCP(view, pool, in, out, amountIn)
}

func (v *PairVenue) ExecuteSwap(ctx context.Context, tx *ledger.Tx, order *Order) (*Fill, error) {
	pool, err := v.ResolvePool(tx, order)
	if err != nil {
		return nil, err
	}
	return settle(ctx, tx, pool, order)
}
