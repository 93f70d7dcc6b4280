// Package feeledger owns the protocol fee: its configuration, how it is
// computed on a gross amount and how it is paid out.
package feeledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/metrics"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
	"github.com/hxuan190/split-swapper/internal/services/state"
)

type FeeLedger struct {
	store *state.Store
}

func New(store *state.Store) *FeeLedger {
	f := &FeeLedger{store: store}
	metrics.FeeBps.Set(float64(f.Config().FeeBps))
	return f
}

// Config is the fee configuration in effect, whatever routing logic is active.
func (f *FeeLedger) Config() domain.FeeConfig {
	return f.store.Snapshot().Fee
}

// Settle takes floor(gross*FeeBps/10000) of asset from the from account and
// pays it to the fee recipient. cfg is the session's snapshot.
func (f *FeeLedger) Settle(tx *ledger.Tx, from, asset solana.PublicKey, gross *uint256.Int, cfg domain.FeeConfig) (fee, net *uint256.Int, err error) {
	fee, net = cfg.Split(gross)
	if fee.IsZero() {
		return fee, net, nil
	}
	if cfg.Recipient.IsZero() {
		return nil, nil, fmt.Errorf("%w: no fee recipient", domain.ErrFeeTransferFailed)
	}
	if err := tx.Transfer(from, cfg.Recipient, asset, fee); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrFeeTransferFailed, err)
	}
	return fee, net, nil
}

// SetFee replaces the fee configuration. Only the engine admin may call it.
func (f *FeeLedger) SetFee(caller solana.PublicKey, bps uint16, recipient solana.PublicKey) (domain.FeeConfig, error) {
	next, err := f.store.Mutate(func(st *domain.EngineState) error {
		if st.Admin.IsZero() || !caller.Equals(st.Admin) {
			return fmt.Errorf("%w: %s is not the engine admin", domain.ErrUnauthorized, caller)
		}
		cfg := domain.FeeConfig{FeeBps: bps, Recipient: recipient}
		if err := cfg.Validate(); err != nil {
			return err
		}
		st.Fee = cfg
		return nil
	})
	if err != nil {
		return domain.FeeConfig{}, err
	}

	metrics.FeeConfigUpdates.Inc()
	metrics.FeeBps.Set(float64(next.Fee.FeeBps))
	log.Info().
		Uint16("feeBps", next.Fee.FeeBps).
		Str("recipient", next.Fee.Recipient.String()).
		Msg("[feeLedger] fee configuration updated")
	return next.Fee, nil
}
