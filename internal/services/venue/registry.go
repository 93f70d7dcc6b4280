package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

// DefaultCandidateLimit caps how many registry pools are quoted per leg.
const DefaultCandidateLimit = 4

// RegistryVenue swaps through shared pools listed in a pool registry.
type RegistryVenue struct {
	registry       PoolRegistry
	candidateLimit int
}

func NewRegistryVenue(registry PoolRegistry, candidateLimit int) *RegistryVenue {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &RegistryVenue{registry: registry, candidateLimit: candidateLimit}
}

func (v *RegistryVenue) Kind() domain.VenueSelector {
	return domain.VenueRegistry
}

// ResolvePool validates an explicit pool reference, or quotes the registry's
// best candidates and keeps the one with the highest output.
func (v *RegistryVenue) ResolvePool(view ledger.View, order *Order) (*domain.Pool, error) {
	if !order.PoolRef.IsZero() {
		pool, ok := v.registry.GetPool(order.PoolRef)
		if !ok || pool.Type != domain.PoolTypeShared {
			return nil, fmt.Errorf("%w: %s is not a registry pool", domain.ErrVenueNotFound, order.PoolRef)
		}
		if !pool.Trades(order.InputMint, order.OutputMint) || !v.registry.IsPoolReady(pool) {
			return nil, fmt.Errorf("%w: pool %s cannot trade %s/%s", domain.ErrVenueNotFound, order.PoolRef, order.InputMint, order.OutputMint)
		}
		return pool, nil
	}

	candidates := v.registry.GetBestPools(view, order.InputMint, order.OutputMint, v.candidateLimit)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no registry pool for %s/%s", domain.ErrVenueNotFound, order.InputMint, order.OutputMint)
	}

	var (
		best    *domain.Pool
		bestOut *uint256.Int
	)
	for _, addr := range candidates {
		pool, ok := v.registry.GetPool(addr)
		if !ok {
			continue
		}
		if best == nil {
			best = pool
		}
		if order.AmountIn == nil || order.AmountIn.IsZero() {
			break
		}
		out, err := quoteCP(view, pool, order.InputMint, order.OutputMint, order.AmountIn)
		if err != nil {
			continue
		}
		if bestOut == nil || out.Gt(bestOut) {
			best, bestOut = pool, out
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: registry candidates vanished for %s/%s", domain.ErrVenueNotFound, order.InputMint, order.OutputMint)
	}
	return best, nil
}

func (v *RegistryVenue) Quote(view ledger.View, pool *domain.Pool, in, out solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error) {
	return quoteCP(view, pool, in, out, amountIn)
}

func (v *RegistryVenue) ExecuteSwap(ctx context.Context, tx *ledger.Tx, order *Order) (*Fill, error) {
	pool, err := v.ResolvePool(tx, order)
	if err != nil {
		return nil, err
	}
	return settle(ctx, tx, pool, order)
}
