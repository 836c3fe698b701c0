package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"swap-router/internal/types"
)

var u256FeeDenominator = uint256.NewInt(FeeDenominator)

// V2Pool prices swaps on a constant product curve (Uniswap V2 and forks).
type V2Pool struct {
	base
	reserve0 *uint256.Int
	reserve1 *uint256.Int
}

func NewV2Pool(record *types.Pool) (*V2Pool, error) {
	if record.Reserve0 == nil || record.Reserve1 == nil {
		return nil, fmt.Errorf("pool %s: %w: missing reserves", record.Key(), ErrNoState)
	}
	r0, overflow0 := toU256(record.Reserve0)
	r1, overflow1 := toU256(record.Reserve1)
	if overflow0 || overflow1 {
		return nil, fmt.Errorf("pool %s: %w: reserves", record.Key(), ErrOverflow)
	}
	return &V2Pool{base: newBase(record), reserve0: r0, reserve1: r1}, nil
}

func (p *V2Pool) Reserves() (*big.Int, *big.Int) {
	return p.reserve0.ToBig(), p.reserve1.ToBig()
}

// SimulateSwap computes
//
//	out = amountIn*(1e6-fee)*reserveOut / (reserveIn*1e6 + amountIn*(1e6-fee))
func (p *V2Pool) SimulateSwap(currencyIn types.Currency, amountIn *big.Int) (*big.Int, error) {
	zeroForOne, err := p.zeroForOne(currencyIn)
	if err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	amt, overflow := toU256(amountIn)
	if overflow {
		return nil, ErrOverflow
	}

	reserveIn, reserveOut := p.reserve0, p.reserve1
	if !zeroForOne {
		reserveIn, reserveOut = p.reserve1, p.reserve0
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}

	feeFactor := uint256.NewInt(FeeDenominator - uint64(p.fee))
	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amt, feeFactor)
	if overflow {
		return nil, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, u256FeeDenominator)
	if overflow {
		return nil, ErrOverflow
	}
	if _, overflow = denominator.AddOverflow(denominator, amountInWithFee); overflow {
		return nil, ErrOverflow
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amountInWithFee, reserveOut, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return out.ToBig(), nil
}

// toU256 converts a non-negative big integer, reporting overflow for values
// that do not fit (negative values included).
func toU256(v *big.Int) (*uint256.Int, bool) {
	if v.Sign() < 0 {
		return nil, true
	}
	return uint256.FromBig(v)
}
