package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

type LegReceipt struct {
	Asset     solana.PublicKey
	Venue     VenueSelector
	Pool      solana.PublicKey
	WeightBps uint16
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

// Receipt is the completion record of one routing session.
type Receipt struct {
	ID           string
	Version      EngineVersion
	Payer        solana.PublicKey
	Recipient    solana.PublicKey
	InputMint    solana.PublicKey
	GrossAmount  *uint256.Int
	FeeAmount    *uint256.Int
	FeeRecipient solana.PublicKey
	NetAmount    *uint256.Int
	DustAmount   *uint256.Int
	Legs         []LegReceipt

	EngineBalanceBefore *uint256.Int
	EngineBalanceAfter  *uint256.Int

	DryRun    bool
	CreatedAt time.Time
}
