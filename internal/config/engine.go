package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"

	appcommon "github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/domain"
)

type EngineConfig struct {
	// DBPath is the path to the BoltDB file for pools, engine state, receipts and balances.
	// Default: "./data/split-swapper.db"
	DBPath string

	// PersistenceEnabled controls whether engine data is persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// CustodyAccount is the engine's own ledger account. Defaults to an
	// address derived from common.CustodySeed.
	CustodyAccount solana.PublicKey

	// InputMint is the asset payments are made in. Default: wrapped SOL.
	InputMint solana.PublicKey

	// AdminWallet may change the fee and migrate the engine. Zero disables admin operations.
	AdminWallet solana.PublicKey

	// FeeBps and FeeRecipient seed the fee configuration on first start only;
	// afterwards the persisted configuration wins.
	FeeBps       uint16
	FeeRecipient solana.PublicKey

	DefaultVenue       domain.VenueSelector
	RegistryCandidates int
	ReceiptCacheSize   int
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/split-swapper.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.RegistryCandidates = common.GetEnvOrDefaultInt("ENGINE_REGISTRY_CANDIDATES", 4)
	c.ReceiptCacheSize = common.GetEnvOrDefaultInt("ENGINE_RECEIPT_CACHE_SIZE", 4096)

	feeBps := common.GetEnvOrDefaultInt("ENGINE_FEE_BPS", 0)
	if feeBps < 0 || feeBps > domain.MaxFeeBps {
		return fmt.Errorf("%w: ENGINE_FEE_BPS=%d", domain.ErrFeeTooHigh, feeBps)
	}
	c.FeeBps = uint16(feeBps)

	var err error
	if c.CustodyAccount, err = optionalKey("ENGINE_CUSTODY_ACCOUNT"); err != nil {
		return err
	}
	if c.CustodyAccount.IsZero() {
		if c.CustodyAccount, err = appcommon.DefaultCustodyAccount(); err != nil {
			return fmt.Errorf("derive custody account: %w", err)
		}
	}
	if c.InputMint, err = optionalKey("ENGINE_INPUT_MINT"); err != nil {
		return err
	}
	if c.InputMint.IsZero() {
		c.InputMint = appcommon.NativeMint
	}
	if c.AdminWallet, err = optionalKey("ENGINE_ADMIN_WALLET"); err != nil {
		return err
	}
	if c.FeeRecipient, err = optionalKey("ENGINE_FEE_RECIPIENT"); err != nil {
		return err
	}
	if c.DefaultVenue, err = domain.ParseVenueSelector(common.GetEnvOrDefault("ENGINE_DEFAULT_VENUE", "pair")); err != nil {
		return err
	}
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.PersistenceEnabled && c.DBPath == "" {
		return errors.New("ENGINE_DB_PATH is required when persistence is enabled")
	}
	if c.DefaultVenue == domain.VenueAuto {
		return errors.New("ENGINE_DEFAULT_VENUE must be pair or registry")
	}
	if c.RegistryCandidates <= 0 {
		return errors.New("ENGINE_REGISTRY_CANDIDATES must be positive")
	}
	if c.CustodyAccount.Equals(c.FeeRecipient) {
		return errors.New("fee recipient cannot be the custody account")
	}
	return domain.FeeConfig{FeeBps: c.FeeBps, Recipient: c.FeeRecipient}.Validate()
}

func optionalKey(env string) (solana.PublicKey, error) {
	raw := strings.TrimSpace(common.GetEnvOrDefault(env, ""))
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", env, err)
	}
	return key, nil
}
