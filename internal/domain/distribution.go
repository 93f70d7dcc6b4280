package domain

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// BpsDenominator is the fixed total every distribution must sum to.
const BpsDenominator = 10000

var u256BpsDenom = uint256.NewInt(BpsDenominator)

// VenueSelector picks the liquidity venue for one leg.
type VenueSelector uint8

const (
	VenueAuto VenueSelector = iota
	VenuePair
	VenueRegistry
)

func (v VenueSelector) String() string {
	switch v {
	case VenueAuto:
		return "auto"
	case VenuePair:
		return "pair"
	case VenueRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// ParseVenueSelector accepts the names returned by String and the positional
// aliases "0" (pair) and "1" (registry). An empty string means auto.
func ParseVenueSelector(s string) (VenueSelector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return VenueAuto, nil
	case "pair", "0":
		return VenuePair, nil
	case "registry", "1":
		return VenueRegistry, nil
	default:
		return VenueAuto, fmt.Errorf("unknown venue %q", s)
	}
}

type DistributionLeg struct {
	Asset     solana.PublicKey
	WeightBps uint16
	Venue     VenueSelector
	// PoolRef is optional; the zero key lets the venue resolve a pool itself.
	PoolRef solana.PublicKey
	// MinOut is the slippage floor for the leg output; nil means no floor.
	MinOut *uint256.Int
}

// DistributionPlan is a validated, immutable sequence of legs.
type DistributionPlan struct {
	legs []DistributionLeg
}

// NewDistributionPlan validates legs: at least one leg, every weight positive,
// weights summing to exactly BpsDenominator. Duplicate assets are kept as
// independent legs.
func NewDistributionPlan(legs []DistributionLeg) (*DistributionPlan, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidDistribution)
	}

	var total uint64
	for i, leg := range legs {
		if leg.WeightBps == 0 {
			return nil, fmt.Errorf("%w: leg %d has zero weight", ErrInvalidDistribution, i)
		}
		if leg.Venue > VenueRegistry {
			return nil, fmt.Errorf("%w: leg %d has unknown venue %d", ErrInvalidDistribution, i, leg.Venue)
		}
		total += uint64(leg.WeightBps)
	}
	if total != BpsDenominator {
		return nil, fmt.Errorf("%w: weights sum to %d, want %d", ErrInvalidDistribution, total, BpsDenominator)
	}

	copied := make([]DistributionLeg, len(legs))
	for i, leg := range legs {
		copied[i] = leg
		if leg.MinOut != nil {
			copied[i].MinOut = leg.MinOut.Clone()
		}
	}
	return &DistributionPlan{legs: copied}, nil
}

// NewWeightedPlan builds a plan from parallel asset/weight slices, the V1 call shape.
func NewWeightedPlan(assets []solana.PublicKey, weightsBps []uint16) (*DistributionPlan, error) {
	if len(assets) != len(weightsBps) {
		return nil, fmt.Errorf("%w: %d assets but %d weights", ErrInvalidDistribution, len(assets), len(weightsBps))
	}
	legs := make([]DistributionLeg, len(assets))
	for i := range assets {
		legs[i] = DistributionLeg{Asset: assets[i], WeightBps: weightsBps[i]}
	}
	return NewDistributionPlan(legs)
}

func (p *DistributionPlan) Len() int {
	return len(p.legs)
}

func (p *DistributionPlan) Leg(i int) DistributionLeg {
	return p.legs[i]
}

// Legs returns a copy of the plan's legs.
func (p *DistributionPlan) Legs() []DistributionLeg {
	out := make([]DistributionLeg, len(p.legs))
	copy(out, p.legs)
	return out
}

// Split computes per-leg input amounts as floor(amount*weight/10000). The
// rounding remainder is added to the last leg so the amounts always sum to
// amount; the remainder is returned as dust and is at most Len()-1.
func (p *DistributionPlan) Split(amount *uint256.Int) (amounts []*uint256.Int, dust *uint256.Int) {
	amounts = make([]*uint256.Int, len(p.legs))
	allocated := new(uint256.Int)
	for i, leg := range p.legs {
		share, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(leg.WeightBps)), u256BpsDenom)
		amounts[i] = share
		allocated.Add(allocated, share)
	}
	dust = new(uint256.Int).Sub(amount, allocated)
	last := amounts[len(amounts)-1]
	last.Add(last, dust)
	return amounts, dust
}
