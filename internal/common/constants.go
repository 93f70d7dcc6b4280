// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	// NativeMint is the wrapped SOL mint, the default payment asset.
	NativeMint      = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	SystemProgramID = solana.SystemProgramID
	CustodySeed     = "split-swapper-custody"
)

// DefaultCustodyAccount derives the engine custody address from CustodySeed.
func DefaultCustodyAccount() (solana.PublicKey, error) {
	return solana.CreateWithSeed(SystemProgramID, CustodySeed, SystemProgramID)
}
