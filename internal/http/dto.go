package http

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/domain"
)

func parseKey(field, raw string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, common.HTTPErrorBadRequest(fmt.Sprintf("invalid %s address", field))
	}
	return key, nil
}

// parseOptionalKey returns the zero key for an empty string.
func parseOptionalKey(field, raw string) (solana.PublicKey, error) {
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(field, raw)
}

// parseAmount reads a base-10 integer in smallest units.
func parseAmount(field, raw string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, common.HTTPErrorBadRequest(fmt.Sprintf("invalid %s: must be a non-negative integer", field))
	}
	return amount, nil
}

func decString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// LegRequest is one weighted leg of a per-leg routed payment
type LegRequest struct {
	// Output asset mint address
	Asset string `json:"asset" binding:"required" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Share of the net amount in basis points; all legs must sum to 10000
	WeightBps uint16 `json:"weightBps" example:"3000"`

	// Venue for this leg: "auto", "pair" or "registry"
	Venue string `json:"venue,omitempty" enums:"auto,pair,registry" example:"pair"`

	// Optional pool to trade against; must be a pool the venue trusts
	PoolRef string `json:"poolRef,omitempty" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// Optional slippage floor for this leg's output, in smallest units
	MinOut string `json:"minOut,omitempty" example:"290000000"`
}

func (r LegRequest) toDomain(i int) (domain.DistributionLeg, error) {
	field := fmt.Sprintf("legs[%d]", i)
	asset, err := parseKey(field+".asset", r.Asset)
	if err != nil {
		return domain.DistributionLeg{}, err
	}
	venue, err := domain.ParseVenueSelector(r.Venue)
	if err != nil {
		return domain.DistributionLeg{}, common.HTTPErrorBadRequest(field + ": " + err.Error())
	}
	poolRef, err := parseOptionalKey(field+".poolRef", r.PoolRef)
	if err != nil {
		return domain.DistributionLeg{}, err
	}
	leg := domain.DistributionLeg{Asset: asset, WeightBps: r.WeightBps, Venue: venue, PoolRef: poolRef}
	if r.MinOut != "" {
		if leg.MinOut, err = parseAmount(field+".minOut", r.MinOut); err != nil {
			return domain.DistributionLeg{}, err
		}
	}
	return leg, nil
}

func legsToDomain(in []LegRequest) ([]domain.DistributionLeg, error) {
	legs := make([]domain.DistributionLeg, len(in))
	for i, r := range in {
		leg, err := r.toDomain(i)
		if err != nil {
			return nil, err
		}
		legs[i] = leg
	}
	return legs, nil
}

// LegReceiptResponse reports what one leg delivered
type LegReceiptResponse struct {
	Asset     string `json:"asset"`
	Venue     string `json:"venue"`
	Pool      string `json:"pool"`
	WeightBps uint16 `json:"weightBps"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
}

// ReceiptResponse is the completion record of a routing session
type ReceiptResponse struct {
	// Receipt id, empty for quotes
	ID      string `json:"id,omitempty" example:"3f0c5a4e-9b1d-4c2a-8f55-1d2e3c4b5a69"`
	Version string `json:"version" example:"v1"`

	Payer     string `json:"payer"`
	Recipient string `json:"recipient"`
	InputMint string `json:"inputMint"`

	// Amount paid in, before the protocol fee
	GrossAmount  string `json:"grossAmount" example:"1000000000"`
	FeeAmount    string `json:"feeAmount" example:"10000000"`
	FeeRecipient string `json:"feeRecipient,omitempty"`
	// Amount distributed across the legs
	NetAmount string `json:"netAmount" example:"990000000"`
	// Rounding remainder folded into the last leg
	DustAmount string `json:"dustAmount" example:"0"`

	Legs []LegReceiptResponse `json:"legs"`

	// Custody balance of the input mint around the session; always equal
	EngineBalanceBefore string `json:"engineBalanceBefore"`
	EngineBalanceAfter  string `json:"engineBalanceAfter"`

	DryRun    bool      `json:"dryRun"`
	CreatedAt time.Time `json:"createdAt"`
}

func newReceiptResponse(r *domain.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:                  r.ID,
		Version:             r.Version.String(),
		Payer:               r.Payer.String(),
		Recipient:           r.Recipient.String(),
		InputMint:           r.InputMint.String(),
		GrossAmount:         decString(r.GrossAmount),
		FeeAmount:           decString(r.FeeAmount),
		NetAmount:           decString(r.NetAmount),
		DustAmount:          decString(r.DustAmount),
		EngineBalanceBefore: decString(r.EngineBalanceBefore),
		EngineBalanceAfter:  decString(r.EngineBalanceAfter),
		DryRun:              r.DryRun,
		CreatedAt:           r.CreatedAt,
		Legs:                make([]LegReceiptResponse, len(r.Legs)),
	}
	if !r.FeeRecipient.IsZero() {
		resp.FeeRecipient = r.FeeRecipient.String()
	}
	for i, leg := range r.Legs {
		resp.Legs[i] = LegReceiptResponse{
			Asset:     leg.Asset.String(),
			Venue:     leg.Venue.String(),
			Pool:      leg.Pool.String(),
			WeightBps: leg.WeightBps,
			AmountIn:  decString(leg.AmountIn),
			AmountOut: decString(leg.AmountOut),
		}
	}
	return resp
}
