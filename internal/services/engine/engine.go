// Package engine runs routing sessions: one inbound payment is charged the
// protocol fee, split across the plan's legs, swapped leg by leg and delivered
// to the recipient, all inside a single atomic ledger window.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/metrics"
	"github.com/hxuan190/split-swapper/internal/services/ledger"
	"github.com/hxuan190/split-swapper/internal/services/venue"
)

const defaultReceiptCacheSize = 4096

type StateReader interface {
	Snapshot() domain.EngineState
}

type FeeSettler interface {
	Settle(tx *ledger.Tx, from, asset solana.PublicKey, gross *uint256.Int, cfg domain.FeeConfig) (fee, net *uint256.Int, err error)
}

type VenueResolver interface {
	Resolve(sel domain.VenueSelector) (venue.Adapter, error)
	Default() domain.VenueSelector
}

// PoolDirectory tells pool accounts apart from user accounts.
type PoolDirectory interface {
	GetPool(address solana.PublicKey) (*domain.Pool, bool)
}

// ReceiptStore persists committed receipts. LoadReceipt returns
// domain.ErrNotFound for unknown ids.
type ReceiptStore interface {
	SaveReceipt(r *domain.Receipt) error
	LoadReceipt(id string) (*domain.Receipt, error)
}

type Config struct {
	// Custody is the engine's own account. It must hold the same balances
	// before and after every session.
	Custody solana.PublicKey
	// InputMint is the asset inbound payments are made in.
	InputMint        solana.PublicKey
	ReceiptCacheSize int
}

type SwapRequest struct {
	Payer      solana.PublicKey
	Recipient  solana.PublicKey
	Assets     []solana.PublicKey
	WeightsBps []uint16
	Amount     *uint256.Int
}

type SwapV2Request struct {
	Payer     solana.PublicKey
	Recipient solana.PublicKey
	Legs      []domain.DistributionLeg
	Amount    *uint256.Int
}

type Engine struct {
	cfg      Config
	ledger   *ledger.Ledger
	state    StateReader
	fees     FeeSettler
	venues   VenueResolver
	pools    PoolDirectory
	receipts ReceiptStore
	recent   *lru.Cache[string, *domain.Receipt]
	logics   map[domain.EngineVersion]RoutingLogic
	now      func() time.Time
}

// New builds an engine. receipts may be nil, in which case receipts only live
// in the in-memory cache.
func New(cfg Config, l *ledger.Ledger, st StateReader, fees FeeSettler, venues VenueResolver, pools PoolDirectory, receipts ReceiptStore) (*Engine, error) {
	if pools == nil {
		return nil, errors.New("engine pool directory is required")
	}
	if cfg.Custody.IsZero() {
		return nil, errors.New("engine custody account is required")
	}
	if cfg.InputMint.IsZero() {
		return nil, errors.New("engine input mint is required")
	}
	if cfg.ReceiptCacheSize <= 0 {
		cfg.ReceiptCacheSize = defaultReceiptCacheSize
	}
	recent, err := lru.New[string, *domain.Receipt](cfg.ReceiptCacheSize)
	if err != nil {
		return nil, fmt.Errorf("receipt cache: %w", err)
	}
	return &Engine{
		cfg:      cfg,
		ledger:   l,
		state:    st,
		fees:     fees,
		venues:   venues,
		pools:    pools,
		receipts: receipts,
		recent:   recent,
		logics:   defaultLogics(),
		now:      time.Now,
	}, nil
}

func (e *Engine) Custody() solana.PublicKey {
	return e.cfg.Custody
}

func (e *Engine) InputMint() solana.PublicKey {
	return e.cfg.InputMint
}

// Swap splits amount across assets by weight. Every leg goes through the
// engine's default venue. Available in every engine version.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (*domain.Receipt, error) {
	plan, err := domain.NewWeightedPlan(req.Assets, req.WeightsBps)
	if err != nil {
		metrics.SwapSessions.WithLabelValues("swap", "", "rejected").Inc()
		return nil, err
	}
	return e.run(ctx, "swap", &session{
		payer:     req.Payer,
		recipient: req.Recipient,
		plan:      plan,
		gross:     req.Amount,
	})
}

// SwapV2 executes explicit legs with their own venue selectors and pool
// references. Requires the V2 routing logic to be active.
func (e *Engine) SwapV2(ctx context.Context, req SwapV2Request) (*domain.Receipt, error) {
	plan, err := domain.NewDistributionPlan(req.Legs)
	if err != nil {
		metrics.SwapSessions.WithLabelValues("swap_v2", "", "rejected").Inc()
		return nil, err
	}
	return e.run(ctx, "swap_v2", &session{
		payer:      req.Payer,
		recipient:  req.Recipient,
		plan:       plan,
		gross:      req.Amount,
		minVersion: domain.EngineV2,
	})
}

// Quote runs the session against a discarded transaction and returns the
// receipt a swap with the same inputs would produce now. The payment is
// credited to custody directly, so the payer need not hold it. Legs that pick
// their own venue, pool or minimum output need the V2 routing logic.
func (e *Engine) Quote(ctx context.Context, req SwapV2Request) (*domain.Receipt, error) {
	plan, err := domain.NewDistributionPlan(req.Legs)
	if err != nil {
		return nil, err
	}
	s := &session{
		payer:     req.Payer,
		recipient: req.Recipient,
		plan:      plan,
		gross:     req.Amount,
		dryRun:    true,
	}
	if hasLegOverrides(plan) {
		s.minVersion = domain.EngineV2
	}
	return e.run(ctx, "quote", s)
}

func hasLegOverrides(plan *domain.DistributionPlan) bool {
	for _, leg := range plan.Legs() {
		if leg.Venue != domain.VenueAuto || !leg.PoolRef.IsZero() || leg.MinOut != nil {
			return true
		}
	}
	return false
}

// Receipt looks up a committed session by id.
func (e *Engine) Receipt(id string) (*domain.Receipt, error) {
	if r, ok := e.recent.Get(id); ok {
		return r, nil
	}
	if e.receipts == nil {
		return nil, fmt.Errorf("%w: receipt %s", domain.ErrNotFound, id)
	}
	r, err := e.receipts.LoadReceipt(id)
	if err != nil {
		return nil, err
	}
	e.recent.Add(id, r)
	return r, nil
}

func (e *Engine) run(ctx context.Context, method string, s *session) (*domain.Receipt, error) {
	start := time.Now()
	defer func() {
		metrics.SwapDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	s.state = e.state.Snapshot()
	version := s.state.Version.String()
	if s.minVersion != 0 && s.state.Version < s.minVersion {
		metrics.SwapSessions.WithLabelValues(method, version, "rejected").Inc()
		return nil, fmt.Errorf("%w: %s needs %s, engine is at %s", domain.ErrUnsupportedVersion, method, s.minVersion, s.state.Version)
	}

	logic, ok := e.logics[s.state.Version]
	if !ok {
		metrics.SwapSessions.WithLabelValues(method, version, "rejected").Inc()
		return nil, fmt.Errorf("%w: no routing logic for %s", domain.ErrUnsupportedVersion, s.state.Version)
	}
	if err := e.validate(s); err != nil {
		metrics.SwapSessions.WithLabelValues(method, version, "rejected").Inc()
		return nil, err
	}
	s.routes = logic.Route(s.plan, e.venues.Default())

	var err error
	if s.dryRun {
		err = e.ledger.Simulate(func(tx *ledger.Tx) error {
			return e.execute(ctx, tx, s)
		})
	} else {
		err = e.ledger.Update(func(tx *ledger.Tx) error {
			return e.execute(ctx, tx, s)
		})
	}
	if err != nil {
		metrics.SwapSessions.WithLabelValues(method, version, "aborted").Inc()
		if !s.dryRun {
			log.Warn().
				Err(err).
				Str("payer", s.payer.String()).
				Str("version", version).
				Int("legs", s.plan.Len()).
				Msg("[swapEngine] session aborted")
		}
		return nil, err
	}

	receipt := s.receipt
	receipt.CreatedAt = e.now().UTC()
	metrics.SwapSessions.WithLabelValues(method, version, "ok").Inc()
	if s.dryRun {
		return receipt, nil
	}
	receipt.ID = newReceiptID()

	e.recent.Add(receipt.ID, receipt)
	if e.receipts != nil {
		if err := e.receipts.SaveReceipt(receipt); err != nil {
			log.Error().Err(err).Str("receipt", receipt.ID).Msg("[swapEngine] failed to persist receipt")
		}
	}
	metrics.LegsPerSession.Observe(float64(len(receipt.Legs)))
	if !receipt.FeeAmount.IsZero() {
		metrics.FeeTransfers.Inc()
	}
	for _, leg := range receipt.Legs {
		metrics.SwapLegs.WithLabelValues(leg.Venue.String()).Inc()
	}
	log.Info().
		Str("receipt", receipt.ID).
		Str("version", version).
		Str("gross", receipt.GrossAmount.Dec()).
		Str("fee", receipt.FeeAmount.Dec()).
		Str("dust", receipt.DustAmount.Dec()).
		Int("legs", len(receipt.Legs)).
		Msg("[swapEngine] session complete")
	return receipt, nil
}

func (e *Engine) validate(s *session) error {
	if s.gross == nil || s.gross.IsZero() {
		return fmt.Errorf("%w: payment must be positive", domain.ErrInvalidAmount)
	}
	if !s.dryRun && (s.payer.IsZero() || s.payer.Equals(e.cfg.Custody)) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPayer, s.payer)
	}
	if !s.payer.IsZero() && e.isPool(s.payer) {
		return fmt.Errorf("%w: %s is a pool account", domain.ErrInvalidPayer, s.payer)
	}
	if s.recipient.IsZero() || s.recipient.Equals(e.cfg.Custody) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRecipient, s.recipient)
	}
	if e.isPool(s.recipient) {
		return fmt.Errorf("%w: %s is a pool account", domain.ErrInvalidRecipient, s.recipient)
	}
	return nil
}

func (e *Engine) isPool(account solana.PublicKey) bool {
	_, ok := e.pools.GetPool(account)
	return ok
}
