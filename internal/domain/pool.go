package domain

import (
	"github.com/gagliardetto/solana-go"
)

type PoolType uint8

const (
	// PoolTypePair is a two-asset constant-product pair created by a factory.
	PoolTypePair PoolType = iota
	// PoolTypeShared is a multi-asset pool listed in the shared liquidity registry.
	PoolTypeShared
)

type PoolFlags uint64

const (
	FlagActive PoolFlags = 1 << 0
	FlagReady  PoolFlags = 1 << 1
	FlagPair   PoolFlags = 1 << 2
	FlagShared PoolFlags = 1 << 3
	FlagLowFee PoolFlags = 1 << 4
)

const (
	FlagReadyMask       = FlagActive | FlagReady
	FlagReadyPairMask   = FlagActive | FlagReady | FlagPair
	FlagReadySharedMask = FlagActive | FlagReady | FlagShared
)

func (p PoolType) String() string {
	switch p {
	case PoolTypePair:
		return "Pair"
	case PoolTypeShared:
		return "Shared"
	default:
		return "UNKNOWN"
	}
}

// Pool describes a liquidity pool. Reserves are not stored here: they are the
// ledger balances of the pool account, so swaps join the session's atomic window.
type Pool struct {
	Address solana.PublicKey   `json:"address"`
	Type    PoolType           `json:"type"`
	Mints   []solana.PublicKey `json:"mints"`
	FeeBps  uint16             `json:"feeBps"`
	Active  bool               `json:"active"`
	Ready   bool               `json:"ready"`
	Flags   PoolFlags          `json:"-"`
}

func (p *Pool) IsReady() bool {
	return p.Flags&FlagReadyMask == FlagReadyMask
}

func (p *Pool) UpdateFlags() {
	p.Flags = 0
	if p.Active {
		p.Flags |= FlagActive
	}
	if p.Ready {
		p.Flags |= FlagReady
	}
	switch p.Type {
	case PoolTypePair:
		p.Flags |= FlagPair
	case PoolTypeShared:
		p.Flags |= FlagShared
	}
	if p.FeeBps < 30 {
		p.Flags |= FlagLowFee
	}
}

func (p *Pool) SetActive(active bool) {
	p.Active = active
	if active {
		p.Flags |= FlagActive
	} else {
		p.Flags &^= FlagActive
	}
}

func (p *Pool) SetReady(ready bool) {
	p.Ready = ready
	if ready {
		p.Flags |= FlagReady
	} else {
		p.Flags &^= FlagReady
	}
}

func (p *Pool) HasFlags(mask PoolFlags) bool {
	return p.Flags&mask == mask
}

// Trades reports whether both mints are listed by the pool.
func (p *Pool) Trades(a, b solana.PublicKey) bool {
	if a.Equals(b) {
		return false
	}
	var hasA, hasB bool
	for _, m := range p.Mints {
		if m.Equals(a) {
			hasA = true
		}
		if m.Equals(b) {
			hasB = true
		}
	}
	return hasA && hasB
}

// Clone returns a deep copy that shares nothing with p.
func (p *Pool) Clone() *Pool {
	cp := *p
	cp.Mints = append([]solana.PublicKey(nil), p.Mints...)
	return &cp
}
