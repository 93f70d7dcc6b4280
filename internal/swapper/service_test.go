package swapper

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/config"
	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/engine"
	"github.com/hxuan190/split-swapper/internal/services/market"
)

var (
	admin     = solana.PublicKey{0xad}
	treasury  = solana.PublicKey{0x0f}
	payer     = solana.PublicKey{0xa0}
	recipient = solana.PublicKey{0xb0}
	usdc      = solana.PublicKey{0x02}
	bonk      = solana.PublicKey{0x03}
	usdcPair  = solana.PublicKey{0x50}
	bonkPair  = solana.PublicKey{0x51}
)

func testConfig(t *testing.T, dbPath string) *config.EngineConfig {
	t.Helper()
	custody, err := common.DefaultCustodyAccount()
	require.NoError(t, err)
	return &config.EngineConfig{
		DBPath:             dbPath,
		PersistenceEnabled: dbPath != "",
		CustodyAccount:     custody,
		InputMint:          common.NativeMint,
		AdminWallet:        admin,
		FeeBps:             100,
		FeeRecipient:       treasury,
		DefaultVenue:       domain.VenuePair,
		RegistryCandidates: 4,
	}
}

func newService(t *testing.T, cfg *config.EngineConfig) *Service {
	t.Helper()
	svc := &Service{}
	require.NoError(t, svc.Init(cfg))
	require.NoError(t, svc.Start())
	return svc
}

func seedMarket(t *testing.T, svc *Service) {
	t.Helper()
	deep := uint256.NewInt(1_000_000_000_000)
	for addr, mint := range map[solana.PublicKey]solana.PublicKey{usdcPair: usdc, bonkPair: bonk} {
		require.NoError(t, svc.RegisterPool(admin, &domain.Pool{
			Address: addr,
			Type:    domain.PoolTypePair,
			Mints:   []solana.PublicKey{common.NativeMint, mint},
			FeeBps:  30,
		}, map[solana.PublicKey]*uint256.Int{common.NativeMint: deep, mint: deep}))
	}
	require.NoError(t, svc.Mint(admin, payer, common.NativeMint, uint256.NewInt(10_000_000_000)))
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	svc := newService(t, testConfig(t, ""))

	require.ErrorIs(t, svc.Mint(payer, payer, common.NativeMint, uint256.NewInt(1)), domain.ErrUnauthorized)
	require.ErrorIs(t, svc.SetFrozen(payer, treasury, common.NativeMint, true), domain.ErrUnauthorized)
	require.ErrorIs(t, svc.RegisterPool(payer, &domain.Pool{}, nil), domain.ErrUnauthorized)
	_, err := svc.SetFee(payer, 1, treasury)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Migrate(payer, domain.EngineV1, domain.EngineV2)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.SetFee(admin, 1, svc.Custody())
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)
	require.ErrorIs(t, svc.Mint(admin, svc.Custody(), common.NativeMint, uint256.NewInt(1)), domain.ErrInvalidRecipient)
}

func TestPoolAddressesStayClearOfCustodyAndFeeRecipient(t *testing.T) {
	svc := newService(t, testConfig(t, ""))
	seedMarket(t, svc)
	mints := []solana.PublicKey{common.NativeMint, {0x04}}

	require.ErrorIs(t, svc.RegisterPool(admin, nil, nil), market.ErrInvalidPool)
	err := svc.RegisterPool(admin, &domain.Pool{Address: svc.Custody(), Type: domain.PoolTypePair, Mints: mints}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)
	err = svc.RegisterPool(admin, &domain.Pool{Address: treasury, Type: domain.PoolTypePair, Mints: mints}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)

	_, ok := svc.GetPool(svc.Custody())
	assert.False(t, ok)
	_, ok = svc.GetPool(treasury)
	assert.False(t, ok)

	_, err = svc.SetFee(admin, 50, usdcPair)
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)
	assert.Equal(t, treasury, svc.FeeConfig().Recipient)
}

func TestRestartRestoresStateBalancesPoolsAndReceipts(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "engine.db"))
	svc := newService(t, cfg)
	seedMarket(t, svc)
	ctx := context.Background()

	receipt, err := svc.Swap(ctx, engine.SwapRequest{
		Payer:      payer,
		Recipient:  recipient,
		Assets:     []solana.PublicKey{usdc, bonk},
		WeightsBps: []uint16{3000, 7000},
		Amount:     uint256.NewInt(1_000_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), receipt.FeeAmount.Uint64())

	_, err = svc.SetFee(admin, 250, treasury)
	require.NoError(t, err)
	_, err = svc.Migrate(admin, domain.EngineV1, domain.EngineV2)
	require.NoError(t, err)
	usdcOut := svc.Balance(recipient, usdc)
	require.NoError(t, svc.Stop())

	// config values only seed a fresh database
	cfg.FeeBps = 5
	restarted := newService(t, cfg)
	t.Cleanup(func() { _ = restarted.Stop() })

	assert.Equal(t, domain.EngineV2, restarted.EngineVersion())
	assert.Equal(t, domain.FeeConfig{FeeBps: 250, Recipient: treasury}, restarted.FeeConfig())
	assert.Equal(t, usdcOut, restarted.Balance(recipient, usdc))
	assert.Equal(t, uint64(10_000_000), restarted.Balance(treasury, common.NativeMint).Uint64())
	assert.True(t, restarted.Balance(restarted.Custody(), common.NativeMint).IsZero())

	count, _ := restarted.GetStats()
	assert.Equal(t, 2, count)

	got, err := restarted.Receipt(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.FeeAmount, got.FeeAmount)
	assert.Equal(t, receipt.Legs[1].AmountOut, got.Legs[1].AmountOut)

	v2, err := restarted.SwapV2(ctx, engine.SwapV2Request{
		Payer:     payer,
		Recipient: recipient,
		Amount:    uint256.NewInt(1_000_000_000),
		Legs:      []domain.DistributionLeg{{Asset: bonk, WeightBps: 10000, PoolRef: bonkPair}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(25_000_000), v2.FeeAmount.Uint64())
}
