package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
	"github.com/hxuan190/split-swapper/internal/services/venue"
)

// session is owned by one invocation and never shared.
type session struct {
	payer      solana.PublicKey
	recipient  solana.PublicKey
	plan       *domain.DistributionPlan
	gross      *uint256.Int
	minVersion domain.EngineVersion
	dryRun     bool

	state   domain.EngineState
	routes  []Route
	receipt *domain.Receipt
}

func newReceiptID() string {
	return uuid.NewString()
}

// execute runs inside the ledger window. Any error discards every transfer
// made through tx, pool reserves included.
func (e *Engine) execute(ctx context.Context, tx *ledger.Tx, s *session) error {
	custody, inputMint := e.cfg.Custody, e.cfg.InputMint

	before := map[solana.PublicKey]*uint256.Int{inputMint: tx.Balance(custody, inputMint)}
	for _, leg := range s.plan.Legs() {
		if _, ok := before[leg.Asset]; !ok {
			before[leg.Asset] = tx.Balance(custody, leg.Asset)
		}
	}

	if s.dryRun {
		if err := tx.Credit(custody, inputMint, s.gross); err != nil {
			return err
		}
	} else if err := tx.Transfer(s.payer, custody, inputMint, s.gross); err != nil {
		return fmt.Errorf("collect payment: %w", err)
	}

	fee, net, err := e.fees.Settle(tx, custody, inputMint, s.gross, s.state.Fee)
	if err != nil {
		return err
	}

	amounts, dust := s.plan.Split(net)
	legs := make([]domain.LegReceipt, 0, s.plan.Len())
	for i, leg := range s.plan.Legs() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: leg %d: %v", domain.ErrSwapExecutionFailed, i, err)
		}

		route := s.routes[i]
		adapter, err := e.venues.Resolve(route.Venue)
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		fill, err := adapter.ExecuteSwap(ctx, tx, &venue.Order{
			Custody:    custody,
			InputMint:  inputMint,
			OutputMint: leg.Asset,
			AmountIn:   amounts[i],
			PoolRef:    route.PoolRef,
			MinOut:     route.MinOut,
		})
		if err != nil {
			return fmt.Errorf("leg %d (%s via %s): %w", i, leg.Asset, adapter.Kind(), err)
		}
		if err := tx.Transfer(custody, s.recipient, leg.Asset, fill.AmountOut); err != nil {
			return fmt.Errorf("leg %d: deliver to %s: %w", i, s.recipient, err)
		}

		legs = append(legs, domain.LegReceipt{
			Asset:     leg.Asset,
			Venue:     adapter.Kind(),
			Pool:      fill.Pool,
			WeightBps: leg.WeightBps,
			AmountIn:  amounts[i],
			AmountOut: fill.AmountOut,
		})
	}

	for mint, was := range before {
		if now := tx.Balance(custody, mint); !now.Eq(was) {
			return fmt.Errorf("%w: %s went from %s to %s", domain.ErrResidualBalance, mint, was.Dec(), now.Dec())
		}
	}

	s.receipt = &domain.Receipt{
		Version:             s.state.Version,
		Payer:               s.payer,
		Recipient:           s.recipient,
		InputMint:           inputMint,
		GrossAmount:         s.gross.Clone(),
		FeeAmount:           fee,
		FeeRecipient:        s.state.Fee.Recipient,
		NetAmount:           net,
		DustAmount:          dust,
		Legs:                legs,
		EngineBalanceBefore: before[inputMint],
		EngineBalanceAfter:  tx.Balance(custody, inputMint),
		DryRun:              s.dryRun,
	}
	return nil
}
