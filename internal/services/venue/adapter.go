// Package venue adapts liquidity venues to one swap interface. Pool
// references supplied by callers are never trusted: every adapter re-resolves
// the pool against its own backend before touching balances.
package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

// PoolSource resolves pool metadata and readiness.
type PoolSource interface {
	GetPool(address solana.PublicKey) (*domain.Pool, bool)
	IsPoolReady(pool *domain.Pool) bool
}

// PairFactory is the lookup surface of a constant-product pair factory.
type PairFactory interface {
	PoolSource
	GetPair(a, b solana.PublicKey) (solana.PublicKey, bool)
}

// PoolRegistry is the lookup surface of a shared liquidity pool registry.
type PoolRegistry interface {
	PoolSource
	GetBestPools(view ledger.View, in, out solana.PublicKey, limit int) []solana.PublicKey
}

// Order is one leg handed to a venue. The venue pulls AmountIn of InputMint
// from Custody and credits the output back to Custody.
type Order struct {
	Custody    solana.PublicKey
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	AmountIn   *uint256.Int
	PoolRef    solana.PublicKey
	MinOut     *uint256.Int
}

type Fill struct {
	Pool      solana.PublicKey
	AmountOut *uint256.Int
}

type Adapter interface {
	Kind() domain.VenueSelector
	// ResolvePool picks the pool the order would execute against.
	ResolvePool(view ledger.View, order *Order) (*domain.Pool, error)
	// Quote prices amountIn against pool without moving balances.
	Quote(view ledger.View, pool *domain.Pool, in, out solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error)
	ExecuteSwap(ctx context.Context, tx *ledger.Tx, order *Order) (*Fill, error)
}

func quoteCP(view ledger.View, pool *domain.Pool, in, out solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error) {
	return GetAmountOut(amountIn, view.Balance(pool.Address, in), view.Balance(pool.Address, out), pool.FeeBps)
}

// settle executes a constant-product swap against pool inside tx.
func settle(ctx context.Context, tx *ledger.Tx, pool *domain.Pool, order *Order) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSwapExecutionFailed, err)
	}
	if order.AmountIn == nil || order.AmountIn.IsZero() {
		return nil, fmt.Errorf("%w: zero input", domain.ErrSwapExecutionFailed)
	}

	out, err := quoteCP(tx, pool, order.InputMint, order.OutputMint, order.AmountIn)
	if err != nil {
		return nil, err
	}
	if order.MinOut != nil && out.Lt(order.MinOut) {
		return nil, fmt.Errorf("%w: slippage, got %s want at least %s", domain.ErrSwapExecutionFailed, out.Dec(), order.MinOut.Dec())
	}

	if err := tx.Transfer(order.Custody, pool.Address, order.InputMint, order.AmountIn); err != nil {
		return nil, fmt.Errorf("%w: pay pool %s: %v", domain.ErrSwapExecutionFailed, pool.Address, err)
	}
	if err := tx.Transfer(pool.Address, order.Custody, order.OutputMint, out); err != nil {
		return nil, fmt.Errorf("%w: withdraw from pool %s: %v", domain.ErrSwapExecutionFailed, pool.Address, err)
	}
	return &Fill{Pool: pool.Address, AmountOut: out}, nil
}
