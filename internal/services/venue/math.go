package venue

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
)

var u256BpsDenom = uint256.NewInt(domain.BpsDenominator)

// GetAmountOut is the constant-product output for amountIn against the given
// reserves, with the pool fee taken from the input:
//
//	out = in*(10000-fee)*rOut / (rIn*10000 + in*(10000-fee))
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint16) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, fmt.Errorf("%w: zero input", domain.ErrSwapExecutionFailed)
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: empty reserves", domain.ErrSwapExecutionFailed)
	}
	if feeBps >= domain.BpsDenominator {
		return nil, fmt.Errorf("%w: fee %d bps", domain.ErrSwapExecutionFailed, feeBps)
	}

	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(uint64(domain.BpsDenominator-feeBps)))
	if overflow {
		return nil, fmt.Errorf("%w: input overflow", domain.ErrSwapExecutionFailed)
	}
	den, overflow := new(uint256.Int).MulOverflow(reserveIn, u256BpsDenom)
	if overflow {
		return nil, fmt.Errorf("%w: reserve overflow", domain.ErrSwapExecutionFailed)
	}
	if _, overflow = den.AddOverflow(den, inWithFee); overflow {
		return nil, fmt.Errorf("%w: reserve overflow", domain.ErrSwapExecutionFailed)
	}

	out, _ := new(uint256.Int).MulDivOverflow(inWithFee, reserveOut, den)
	if out.IsZero() {
		return nil, fmt.Errorf("%w: input too small for any output", domain.ErrSwapExecutionFailed)
	}
	return out, nil
}
