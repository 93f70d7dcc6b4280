package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// MaxFeeBps is the hard ceiling for the protocol fee rate.
const MaxFeeBps = BpsDenominator

type EngineVersion uint8

const (
	// EngineV1 routes every leg through one fixed venue.
	EngineV1 EngineVersion = 1
	// EngineV2 adds per-leg venue selection and explicit pool references.
	EngineV2 EngineVersion = 2
)

// LatestVersion is the highest routing logic version this build knows.
const LatestVersion = EngineV2

func (v EngineVersion) String() string {
	switch v {
	case EngineV1:
		return "v1"
	case EngineV2:
		return "v2"
	default:
		return fmt.Sprintf("v?(%d)", uint8(v))
	}
}

func (v EngineVersion) Valid() bool {
	return v >= EngineV1 && v <= LatestVersion
}

type FeeConfig struct {
	FeeBps    uint16
	Recipient solana.PublicKey
}

func (c FeeConfig) Validate() error {
	if c.FeeBps > MaxFeeBps {
		return fmt.Errorf("%w: %d > %d", ErrFeeTooHigh, c.FeeBps, MaxFeeBps)
	}
	if c.FeeBps > 0 && c.Recipient.IsZero() {
		return fmt.Errorf("%w: fee recipient required when fee is set", ErrInvalidRecipient)
	}
	return nil
}

// Split returns floor(gross*FeeBps/10000) and the remainder.
func (c FeeConfig) Split(gross *uint256.Int) (fee, net *uint256.Int) {
	fee, _ = new(uint256.Int).MulDivOverflow(gross, uint256.NewInt(uint64(c.FeeBps)), u256BpsDenom)
	net = new(uint256.Int).Sub(gross, fee)
	return fee, net
}

// EngineState is everything that survives across sessions and logic upgrades.
// Field order is the persisted layout; append only.
type EngineState struct {
	Version EngineVersion
	Fee     FeeConfig
	Admin   solana.PublicKey
}
