// Package upgrade switches the active routing logic version while leaving the
// rest of the engine state as it was.
package upgrade

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/metrics"
	"github.com/hxuan190/split-swapper/internal/services/state"
)

type Controller struct {
	store *state.Store
}

func NewController(store *state.Store) *Controller {
	c := &Controller{store: store}
	metrics.EngineVersion.Set(float64(c.CurrentVersion()))
	return c
}

func (c *Controller) CurrentVersion() domain.EngineVersion {
	return c.store.Snapshot().Version
}

// Migrate moves the engine from one version to the next. Only the version tag
// is written; fee configuration and admin are carried over untouched.
func (c *Controller) Migrate(caller solana.PublicKey, from, to domain.EngineVersion) (domain.EngineState, error) {
	next, err := c.store.Mutate(func(st *domain.EngineState) error {
		if st.Admin.IsZero() || !caller.Equals(st.Admin) {
			return fmt.Errorf("%w: %s is not the engine admin", domain.ErrUnauthorized, caller)
		}
		if from != st.Version {
			return fmt.Errorf("%w: engine is at %s, not %s", domain.ErrInvalidMigration, st.Version, from)
		}
		if to != from+1 || !to.Valid() {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidMigration, from, to)
		}
		st.Version = to
		return nil
	})
	if err != nil {
		metrics.Migrations.WithLabelValues("rejected").Inc()
		return domain.EngineState{}, err
	}

	metrics.Migrations.WithLabelValues("ok").Inc()
	metrics.EngineVersion.Set(float64(next.Version))
	log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Uint16("feeBps", next.Fee.FeeBps).
		Msg("[upgradeController] engine migrated")
	return next, nil
}
