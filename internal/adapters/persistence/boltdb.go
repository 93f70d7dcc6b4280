package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/metrics"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
)

const (
	PoolsBucket    = "pools"
	StateBucket    = "engine_state"
	ReceiptsBucket = "receipts"
	BalancesBucket = "balances"

	stateKey = "current"

	DefaultDBPath = "./data/split-swapper.db"
)

type StoredPool struct {
	Address string   `json:"address"`
	Type    uint8    `json:"type"`
	Mints   []string `json:"mints"`
	FeeBps  uint16   `json:"feeBps"`
	Active  bool     `json:"active"`
	Ready   bool     `json:"ready"`
}

type StoredLeg struct {
	Asset     string `json:"asset"`
	Venue     string `json:"venue"`
	Pool      string `json:"pool"`
	WeightBps uint16 `json:"weightBps"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
}

type StoredReceipt struct {
	ID                  string      `json:"id"`
	Version             uint8       `json:"version"`
	Payer               string      `json:"payer"`
	Recipient           string      `json:"recipient"`
	InputMint           string      `json:"inputMint"`
	GrossAmount         string      `json:"grossAmount"`
	FeeAmount           string      `json:"feeAmount"`
	FeeRecipient        string      `json:"feeRecipient"`
	NetAmount           string      `json:"netAmount"`
	DustAmount          string      `json:"dustAmount"`
	Legs                []StoredLeg `json:"legs"`
	EngineBalanceBefore string      `json:"engineBalanceBefore"`
	EngineBalanceAfter  string      `json:"engineBalanceAfter"`
	CreatedAt           int64       `json:"createdAt"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[swapperStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	data, err := sonic.Marshal(poolToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}
	if err := s.db.Set(PoolsBucket, []byte(pool.Address.String()), data); err != nil {
		metrics.PersistErrors.WithLabelValues(PoolsBucket).Inc()
		return err
	}
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	failed := 0
	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[swapperStorage] failed to unmarshal pool, skipping")
			failed++
			continue
		}
		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[swapperStorage] failed to convert stored pool, skipping")
			failed++
			continue
		}
		pools = append(pools, pool)
	}

	log.Info().
		Int("total_in_db", len(data)).
		Int("loaded", len(pools)).
		Int("failed", failed).
		Msg("[swapperStorage] pool loading completed")
	return pools, nil
}

// SaveState writes the engine state in its fixed borsh layout.
func (s *Storage) SaveState(st *domain.EngineState) error {
	data, err := bin.MarshalBorsh(st)
	if err != nil {
		return fmt.Errorf("failed to encode engine state: %w", err)
	}
	if err := s.db.Set(StateBucket, []byte(stateKey), data); err != nil {
		metrics.PersistErrors.WithLabelValues(StateBucket).Inc()
		return err
	}
	return nil
}

// LoadState returns the stored engine state, or ok=false if none was saved.
func (s *Storage) LoadState() (st domain.EngineState, ok bool, err error) {
	data, err := s.db.List(StateBucket)
	if err != nil {
		return st, false, fmt.Errorf("failed to list engine state: %w", err)
	}
	raw, ok := data[stateKey]
	if !ok {
		return st, false, nil
	}
	if err := bin.UnmarshalBorsh(&st, raw); err != nil {
		return st, false, fmt.Errorf("failed to decode engine state: %w", err)
	}
	return st, true, nil
}

func (s *Storage) SaveReceipt(r *domain.Receipt) error {
	data, err := sonic.Marshal(receiptToStored(r))
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	if err := s.db.Set(ReceiptsBucket, []byte(r.ID), data); err != nil {
		metrics.PersistErrors.WithLabelValues(ReceiptsBucket).Inc()
		return err
	}
	return nil
}

func (s *Storage) LoadReceipt(id string) (*domain.Receipt, error) {
	data, err := s.db.List(ReceiptsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	raw, ok := data[id]
	if !ok {
		return nil, fmt.Errorf("%w: receipt %s", domain.ErrNotFound, id)
	}
	var stored StoredReceipt
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt %s: %w", id, err)
	}
	return storedToReceipt(&stored)
}

// SaveBalances writes committed ledger balances in one batch. Zero balances
// are stored as "0" and dropped on load.
func (s *Storage) SaveBalances(changes []ledger.Change) error {
	if len(changes) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, c := range changes {
		value := []byte(c.Amount.Dec())
		op := &boltdb.WriteOperation{
			Bucket: []byte(BalancesBucket),
			Key:    []byte(balanceKey(c.Account, c.Mint)),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add balance %s to batch: %w", balanceKey(c.Account, c.Mint), err)
		}
	}

	if err := batch.Execute(); err != nil {
		metrics.PersistErrors.WithLabelValues(BalancesBucket).Inc()
		log.Error().Err(err).Int("count", len(changes)).Msg("[swapperStorage] FAILED to execute balance batch")
		return err
	}
	return nil
}

func (s *Storage) LoadBalances() ([]ledger.Change, error) {
	data, err := s.db.List(BalancesBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	changes := make([]ledger.Change, 0, len(data))
	for key, value := range data {
		account, mint, err := parseBalanceKey(key)
		if err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[swapperStorage] invalid balance key, skipping")
			continue
		}
		amount, err := uint256.FromDecimal(string(value))
		if err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[swapperStorage] invalid balance, skipping")
			continue
		}
		if amount.IsZero() {
			continue
		}
		changes = append(changes, ledger.Change{Account: account, Mint: mint, Amount: amount})
	}
	return changes, nil
}

func balanceKey(account, mint solana.PublicKey) string {
	return account.String() + ":" + mint.String()
}

func parseBalanceKey(key string) (account, mint solana.PublicKey, err error) {
	acct, m, ok := strings.Cut(key, ":")
	if !ok {
		return account, mint, fmt.Errorf("missing separator")
	}
	if account, err = solana.PublicKeyFromBase58(acct); err != nil {
		return account, mint, err
	}
	mint, err = solana.PublicKeyFromBase58(m)
	return account, mint, err
}

func poolToStored(pool *domain.Pool) *StoredPool {
	mints := make([]string, len(pool.Mints))
	for i, m := range pool.Mints {
		mints[i] = m.String()
	}
	return &StoredPool{
		Address: pool.Address.String(),
		Type:    uint8(pool.Type),
		Mints:   mints,
		FeeBps:  pool.FeeBps,
		Active:  pool.Active,
		Ready:   pool.Ready,
	}
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	mints := make([]solana.PublicKey, 0, len(stored.Mints))
	for _, m := range stored.Mints {
		mint, err := solana.PublicKeyFromBase58(m)
		if err != nil {
			return nil, fmt.Errorf("invalid mint %q: %w", m, err)
		}
		mints = append(mints, mint)
	}

	pool := &domain.Pool{
		Address: address,
		Type:    domain.PoolType(stored.Type),
		Mints:   mints,
		FeeBps:  stored.FeeBps,
		Active:  stored.Active,
		Ready:   stored.Ready,
	}
	pool.UpdateFlags()
	return pool, nil
}

func receiptToStored(r *domain.Receipt) *StoredReceipt {
	legs := make([]StoredLeg, len(r.Legs))
	for i, leg := range r.Legs {
		legs[i] = StoredLeg{
			Asset:     leg.Asset.String(),
			Venue:     leg.Venue.String(),
			Pool:      leg.Pool.String(),
			WeightBps: leg.WeightBps,
			AmountIn:  leg.AmountIn.Dec(),
			AmountOut: leg.AmountOut.Dec(),
		}
	}
	return &StoredReceipt{
		ID:                  r.ID,
		Version:             uint8(r.Version),
		Payer:               r.Payer.String(),
		Recipient:           r.Recipient.String(),
		InputMint:           r.InputMint.String(),
		GrossAmount:         r.GrossAmount.Dec(),
		FeeAmount:           r.FeeAmount.Dec(),
		FeeRecipient:        r.FeeRecipient.String(),
		NetAmount:           r.NetAmount.Dec(),
		DustAmount:          r.DustAmount.Dec(),
		Legs:                legs,
		EngineBalanceBefore: r.EngineBalanceBefore.Dec(),
		EngineBalanceAfter:  r.EngineBalanceAfter.Dec(),
		CreatedAt:           r.CreatedAt.UnixMilli(),
	}
}

func storedToReceipt(stored *StoredReceipt) (*domain.Receipt, error) {
	var conv converter
	r := &domain.Receipt{
		ID:                  stored.ID,
		Version:             domain.EngineVersion(stored.Version),
		Payer:               conv.key(stored.Payer),
		Recipient:           conv.key(stored.Recipient),
		InputMint:           conv.key(stored.InputMint),
		GrossAmount:         conv.amount(stored.GrossAmount),
		FeeAmount:           conv.amount(stored.FeeAmount),
		FeeRecipient:        conv.key(stored.FeeRecipient),
		NetAmount:           conv.amount(stored.NetAmount),
		DustAmount:          conv.amount(stored.DustAmount),
		EngineBalanceBefore: conv.amount(stored.EngineBalanceBefore),
		EngineBalanceAfter:  conv.amount(stored.EngineBalanceAfter),
		CreatedAt:           time.UnixMilli(stored.CreatedAt).UTC(),
	}
	for _, leg := range stored.Legs {
		venue, err := domain.ParseVenueSelector(leg.Venue)
		if err != nil && conv.err == nil {
			conv.err = err
		}
		r.Legs = append(r.Legs, domain.LegReceipt{
			Asset:     conv.key(leg.Asset),
			Venue:     venue,
			Pool:      conv.key(leg.Pool),
			WeightBps: leg.WeightBps,
			AmountIn:  conv.amount(leg.AmountIn),
			AmountOut: conv.amount(leg.AmountOut),
		})
	}
	if conv.err != nil {
		return nil, fmt.Errorf("invalid stored receipt %s: %w", stored.ID, conv.err)
	}
	return r, nil
}

// converter keeps the first parse error so conversions can be chained.
type converter struct {
	err error
}

func (c *converter) key(s string) solana.PublicKey {
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil && c.err == nil {
		c.err = err
	}
	return k
}

func (c *converter) amount(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return new(uint256.Int)
	}
	return v
}
