// Package swapper wires the routing engine and its collaborators into one DI
// service and exposes the operations the HTTP layer serves.
package swapper

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/split-swapper/internal/adapters/persistence"
	"github.com/hxuan190/split-swapper/internal/config"
	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services"
	"github.com/hxuan190/split-swapper/internal/services/engine"
	"github.com/hxuan190/split-swapper/internal/services/feeledger"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
	"github.com/hxuan190/split-swapper/internal/services/market"
	"github.com/hxuan190/split-swapper/internal/services/state"
	"github.com/hxuan190/split-swapper/internal/services/upgrade"
	"github.com/hxuan190/split-swapper/internal/services/venue"
)

const SWAPPER_SERVICE = "swapper-service"

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger
	config *config.EngineConfig

	storage  *persistence.Storage
	ledger   *ledger.Ledger
	market   *market.Service
	state    *state.Store
	fees     *feeledger.FeeLedger
	upgrades *upgrade.Controller
	venues   *venue.Set
	engine   *engine.Engine
}

func (svc *Service) ID() string {
	return SWAPPER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	if general, ok := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig); ok && general != nil {
		services.ConfigureGlobalLogger(general.LogLevel, general.Env)
	}

	cfg, ok := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	if !ok || cfg == nil {
		return errors.New("invalid engine config")
	}
	return svc.Init(cfg)
}

// Init builds every component from cfg and restores persisted data. Configure
// calls it; tests call it directly.
func (svc *Service) Init(cfg *config.EngineConfig) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.config = cfg
	svc.ledger = ledger.New()

	var (
		poolStore    market.PoolStore
		statePersist state.Persister
		receiptStore engine.ReceiptStore
	)
	if cfg.PersistenceEnabled {
		storage, err := persistence.NewStorage(cfg.DBPath)
		if err != nil {
			return err
		}
		svc.storage = storage
		poolStore, statePersist, receiptStore = storage, storage, storage
	}

	initial, err := svc.initialState()
	if err != nil {
		return err
	}
	if svc.state, err = state.NewStore(initial, statePersist); err != nil {
		return fmt.Errorf("engine state: %w", err)
	}

	svc.market = market.NewService(svc.ledger, poolStore)
	svc.fees = feeledger.New(svc.state)
	svc.upgrades = upgrade.NewController(svc.state)

	svc.venues, err = venue.NewSet(cfg.DefaultVenue,
		venue.NewPairVenue(svc.market),
		venue.NewRegistryVenue(svc.market, cfg.RegistryCandidates),
	)
	if err != nil {
		return err
	}

	svc.engine, err = engine.New(engine.Config{
		Custody:          cfg.CustodyAccount,
		InputMint:        cfg.InputMint,
		ReceiptCacheSize: cfg.ReceiptCacheSize,
	}, svc.ledger, svc.state, svc.fees, svc.venues, svc.market, receiptStore)
	if err != nil {
		return err
	}

	if svc.storage != nil {
		svc.restore()
		svc.ledger.OnCommit(func(changes []ledger.Change) {
			if err := svc.storage.SaveBalances(changes); err != nil {
				svc.logger.Error().Err(err).Int("changes", len(changes)).Msg("[swapperService] failed to persist balances")
			}
		})
	}
	return nil
}

// initialState prefers the persisted state; config only seeds a fresh database.
func (svc *Service) initialState() (domain.EngineState, error) {
	seed := domain.EngineState{
		Version: domain.EngineV1,
		Fee:     domain.FeeConfig{FeeBps: svc.config.FeeBps, Recipient: svc.config.FeeRecipient},
		Admin:   svc.config.AdminWallet,
	}
	if svc.storage == nil {
		return seed, nil
	}

	stored, ok, err := svc.storage.LoadState()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[swapperService] no readable engine state, seeding from config")
	}
	if !ok {
		if err := svc.storage.SaveState(&seed); err != nil {
			return seed, fmt.Errorf("seed engine state: %w", err)
		}
		return seed, nil
	}
	if !svc.config.AdminWallet.IsZero() && !svc.config.AdminWallet.Equals(stored.Admin) {
		svc.logger.Warn().
			Str("stored", stored.Admin.String()).
			Str("configured", svc.config.AdminWallet.String()).
			Msg("[swapperService] configured admin differs from stored admin, keeping stored")
	}
	return stored, nil
}

func (svc *Service) restore() {
	balances, err := svc.storage.LoadBalances()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[swapperService] failed to load balances")
	} else {
		svc.ledger.Restore(balances)
	}

	pools, err := svc.storage.LoadAllPools()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[swapperService] failed to load pools")
		return
	}
	svc.market.LoadPools(pools)
}

func (svc *Service) Start() error {
	st := svc.state.Snapshot()
	count, _ := svc.market.GetStats()
	svc.logger.Info().
		Str("version", st.Version.String()).
		Uint16("feeBps", st.Fee.FeeBps).
		Str("custody", svc.config.CustodyAccount.String()).
		Str("inputMint", svc.config.InputMint.String()).
		Str("defaultVenue", svc.venues.Default().String()).
		Int("pools", count).
		Msg("[swapperService] engine ready")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

func (svc *Service) requireAdmin(caller solana.PublicKey) error {
	admin := svc.state.Snapshot().Admin
	if admin.IsZero() || !caller.Equals(admin) {
		return fmt.Errorf("%w: %s is not the engine admin", domain.ErrUnauthorized, caller)
	}
	return nil
}

// Routing

func (svc *Service) Swap(ctx context.Context, req engine.SwapRequest) (*domain.Receipt, error) {
	return svc.engine.Swap(ctx, req)
}

func (svc *Service) SwapV2(ctx context.Context, req engine.SwapV2Request) (*domain.Receipt, error) {
	return svc.engine.SwapV2(ctx, req)
}

func (svc *Service) Quote(ctx context.Context, req engine.SwapV2Request) (*domain.Receipt, error) {
	return svc.engine.Quote(ctx, req)
}

func (svc *Service) Receipt(id string) (*domain.Receipt, error) {
	return svc.engine.Receipt(id)
}

// Fee and version

func (svc *Service) FeeConfig() domain.FeeConfig {
	return svc.fees.Config()
}

func (svc *Service) SetFee(caller solana.PublicKey, bps uint16, recipient solana.PublicKey) (domain.FeeConfig, error) {
	if recipient.Equals(svc.config.CustodyAccount) {
		return domain.FeeConfig{}, fmt.Errorf("%w: fee recipient cannot be the custody account", domain.ErrInvalidRecipient)
	}
	if _, ok := svc.market.GetPool(recipient); ok {
		return domain.FeeConfig{}, fmt.Errorf("%w: fee recipient cannot be a pool account", domain.ErrInvalidRecipient)
	}
	return svc.fees.SetFee(caller, bps, recipient)
}

func (svc *Service) EngineVersion() domain.EngineVersion {
	return svc.upgrades.CurrentVersion()
}

func (svc *Service) Migrate(caller solana.PublicKey, from, to domain.EngineVersion) (domain.EngineState, error) {
	return svc.upgrades.Migrate(caller, from, to)
}

func (svc *Service) Custody() solana.PublicKey {
	return svc.engine.Custody()
}

func (svc *Service) InputMint() solana.PublicKey {
	return svc.engine.InputMint()
}

// Pools

func (svc *Service) RegisterPool(caller solana.PublicKey, pool *domain.Pool, reserves map[solana.PublicKey]*uint256.Int) error {
	if err := svc.requireAdmin(caller); err != nil {
		return err
	}
	if pool == nil {
		return fmt.Errorf("%w: missing pool", market.ErrInvalidPool)
	}
	if pool.Address.Equals(svc.config.CustodyAccount) {
		return fmt.Errorf("%w: pool cannot use the custody account", domain.ErrInvalidRecipient)
	}
	if pool.Address.Equals(svc.fees.Config().Recipient) {
		return fmt.Errorf("%w: pool cannot use the fee recipient account", domain.ErrInvalidRecipient)
	}
	return svc.market.RegisterPool(pool, reserves)
}

func (svc *Service) SetPoolActive(caller, address solana.PublicKey, active bool) error {
	if err := svc.requireAdmin(caller); err != nil {
		return err
	}
	return svc.market.SetPoolActive(address, active)
}

func (svc *Service) GetPool(address solana.PublicKey) (*domain.Pool, bool) {
	return svc.market.GetPool(address)
}

func (svc *Service) AllPools() []*domain.Pool {
	return svc.market.AllPools()
}

func (svc *Service) GetStats() (int, uint64) {
	return svc.market.GetStats()
}

// PoolReserves returns the ledger balance of every mint the pool lists.
func (svc *Service) PoolReserves(pool *domain.Pool) map[solana.PublicKey]*uint256.Int {
	reserves := make(map[solana.PublicKey]*uint256.Int, len(pool.Mints))
	_ = svc.ledger.View(func(v ledger.View) error {
		for _, m := range pool.Mints {
			reserves[m] = v.Balance(pool.Address, m)
		}
		return nil
	})
	return reserves
}

// Balances

func (svc *Service) Balance(account, mint solana.PublicKey) *uint256.Int {
	return svc.ledger.Balance(account, mint)
}

func (svc *Service) IsFrozen(account, mint solana.PublicKey) bool {
	return svc.ledger.IsFrozen(account, mint)
}

// Mint credits amount to account. Admin only; used to fund payers and top up reserves.
func (svc *Service) Mint(caller, account, mint solana.PublicKey, amount *uint256.Int) error {
	if err := svc.requireAdmin(caller); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: mint amount must be positive", domain.ErrInvalidAmount)
	}
	if account.Equals(svc.config.CustodyAccount) {
		return fmt.Errorf("%w: cannot mint into custody", domain.ErrInvalidRecipient)
	}
	if err := svc.ledger.Mint(account, mint, amount); err != nil {
		return err
	}
	svc.logger.With("caller", caller.String()).Info().
		Str("account", account.String()).
		Str("mint", mint.String()).
		Str("amount", amount.Dec()).
		Msg("[swapperService] minted")
	return nil
}

// SetFrozen freezes or thaws account for mint. Admin only.
func (svc *Service) SetFrozen(caller, account, mint solana.PublicKey, frozen bool) error {
	if err := svc.requireAdmin(caller); err != nil {
		return err
	}
	if frozen {
		svc.ledger.Freeze(account, mint)
	} else {
		svc.ledger.Thaw(account, mint)
	}
	svc.logger.With("caller", caller.String()).Info().
		Str("account", account.String()).
		Str("mint", mint.String()).
		Bool("frozen", frozen).
		Msg("[swapperService] freeze state changed")
	return nil
}
