package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

var (
	wsol     = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdc     = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	treasury = solana.PublicKey{0x0f}
	admin    = solana.PublicKey{0xad}
)

func openStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "nested", "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPoolRoundTrip(t *testing.T) {
	s := openStorage(t)
	pool := &domain.Pool{
		Address: solana.PublicKey{0x50},
		Type:    domain.PoolTypeShared,
		Mints:   []solana.PublicKey{wsol, usdc},
		FeeBps:  25,
		Active:  true,
		Ready:   true,
	}
	pool.UpdateFlags()
	require.NoError(t, s.SavePool(pool))

	pools, err := s.LoadAllPools()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, pool, pools[0])
}

func TestEngineStateKeepsBorshLayout(t *testing.T) {
	s := openStorage(t)
	st := domain.EngineState{
		Version: domain.EngineV2,
		Fee:     domain.FeeConfig{FeeBps: 100, Recipient: treasury},
		Admin:   admin,
	}
	require.NoError(t, s.SaveState(&st))

	got, ok, err := s.LoadState()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, got)

	// version(1) | feeBps(2, LE) | recipient(32) | admin(32)
	raw, err := s.db.List(StateBucket)
	require.NoError(t, err)
	encoded := raw[stateKey]
	require.Len(t, encoded, 67)
	assert.Equal(t, byte(2), encoded[0])
	assert.Equal(t, []byte{100, 0}, encoded[1:3])
	assert.Equal(t, treasury[:], encoded[3:35])
}

func TestReceiptRoundTrip(t *testing.T) {
	s := openStorage(t)
	r := &domain.Receipt{
		ID:           "6f1c7a52-6a38-4c43-9d73-0c4cbb0e2d11",
		Version:      domain.EngineV1,
		Payer:        solana.PublicKey{0xa0},
		Recipient:    solana.PublicKey{0xb0},
		InputMint:    wsol,
		GrossAmount:  uint256.NewInt(1_000_000_000),
		FeeAmount:    uint256.NewInt(10_000_000),
		FeeRecipient: treasury,
		NetAmount:    uint256.NewInt(990_000_000),
		DustAmount:   new(uint256.Int),
		Legs: []domain.LegReceipt{{
			Asset:     usdc,
			Venue:     domain.VenueRegistry,
			Pool:      solana.PublicKey{0x60},
			WeightBps: 10000,
			AmountIn:  uint256.NewInt(990_000_000),
			AmountOut: uint256.NewInt(150_000_000),
		}},
		EngineBalanceBefore: new(uint256.Int),
		EngineBalanceAfter:  new(uint256.Int),
		CreatedAt:           time.UnixMilli(1_760_000_000_000).UTC(),
	}
	require.NoError(t, s.SaveReceipt(r))

	got, err := s.LoadReceipt(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = s.LoadReceipt("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBalancesRoundTrip(t *testing.T) {
	s := openStorage(t)
	require.NoError(t, s.SaveBalances([]ledger.Change{
		{Account: treasury, Mint: wsol, Amount: uint256.NewInt(42)},
		{Account: admin, Mint: usdc, Amount: uint256.NewInt(7)},
	}))
	require.NoError(t, s.SaveBalances([]ledger.Change{
		{Account: admin, Mint: usdc, Amount: new(uint256.Int)},
	}))

	changes, err := s.LoadBalances()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, treasury, changes[0].Account)
	assert.Equal(t, uint64(42), changes[0].Amount.Uint64())

	l := ledger.New()
	l.Restore(changes)
	assert.Equal(t, uint64(42), l.Balance(treasury, wsol).Uint64())
}
