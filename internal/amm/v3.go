package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"swap-router/internal/types"
)

var u256Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

// V3Pool simulates a concentrated liquidity pool inside its current price
// range. Tick crossings are not modeled: the whole trade is priced against the
// active liquidity L and sqrt price. V4 pools share the same math.
type V3Pool struct {
	base
	sqrtPriceX96 *uint256.Int
	liquidity    *uint256.Int
}

func NewV3Pool(record *types.Pool) (*V3Pool, error) {
	if record.SqrtPriceX96 == nil || record.Liquidity == nil {
		return nil, fmt.Errorf("pool %s: %w: missing sqrtPriceX96 or liquidity", record.Key(), ErrNoState)
	}
	sqrtP, overflowP := toU256(record.SqrtPriceX96)
	liq, overflowL := toU256(record.Liquidity)
	if overflowP || overflowL {
		return nil, fmt.Errorf("pool %s: %w: state", record.Key(), ErrOverflow)
	}
	if sqrtP.IsZero() {
		return nil, fmt.Errorf("pool %s: %w: zero sqrt price", record.Key(), ErrNoState)
	}
	return &V3Pool{base: newBase(record), sqrtPriceX96: sqrtP, liquidity: liq}, nil
}

// Reserves returns the virtual reserves x = L*Q96/sqrtP and y = L*sqrtP/Q96.
func (p *V3Pool) Reserves() (*big.Int, *big.Int) {
	x, overflowX := new(uint256.Int).MulDivOverflow(p.liquidity, u256Q96, p.sqrtPriceX96)
	y, overflowY := new(uint256.Int).MulDivOverflow(p.liquidity, p.sqrtPriceX96, u256Q96)
	if overflowX || overflowY {
		return new(big.Int), new(big.Int)
	}
	return x.ToBig(), y.ToBig()
}

func (p *V3Pool) SimulateSwap(currencyIn types.Currency, amountIn *big.Int) (*big.Int, error) {
	zeroForOne, err := p.zeroForOne(currencyIn)
	if err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	if p.liquidity.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	amt, overflow := toU256(amountIn)
	if overflow {
		return nil, ErrOverflow
	}

	feeFactor := uint256.NewInt(FeeDenominator - uint64(p.fee))
	amtLessFee, overflow := new(uint256.Int).MulDivOverflow(amt, feeFactor, u256FeeDenominator)
	if overflow {
		return nil, ErrOverflow
	}
	if amtLessFee.IsZero() {
		return new(big.Int), nil
	}

	var out *uint256.Int
	if zeroForOne {
		out, err = p.swapZeroForOne(amtLessFee)
	} else {
		out, err = p.swapOneForZero(amtLessFee)
	}
	if err != nil {
		return nil, err
	}
	return out.ToBig(), nil
}

// swapZeroForOne moves the price down:
//
//	sqrtNew = L*Q96*sqrtP / (L*Q96 + amountIn*sqrtP)   (rounded up)
//	out     = L*(sqrtP - sqrtNew) / Q96
func (p *V3Pool) swapZeroForOne(amountIn *uint256.Int) (*uint256.Int, error) {
	numerator, overflow := new(uint256.Int).MulOverflow(p.liquidity, u256Q96)
	if overflow {
		return nil, ErrOverflow
	}
	product, overflow := new(uint256.Int).MulOverflow(amountIn, p.sqrtPriceX96)
	if overflow {
		return nil, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(numerator, product)
	if overflow {
		return nil, ErrOverflow
	}

	sqrtNew, overflow := new(uint256.Int).MulDivOverflow(numerator, p.sqrtPriceX96, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	if !new(uint256.Int).MulMod(numerator, p.sqrtPriceX96, denominator).IsZero() {
		sqrtNew.AddUint64(sqrtNew, 1)
	}
	if !sqrtNew.Lt(p.sqrtPriceX96) {
		return new(uint256.Int), nil
	}

	delta := new(uint256.Int).Sub(p.sqrtPriceX96, sqrtNew)
	out, overflow := new(uint256.Int).MulDivOverflow(p.liquidity, delta, u256Q96)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// swapOneForZero moves the price up:
//
//	sqrtNew = sqrtP + amountIn*Q96/L
//	out     = L*Q96*(sqrtNew - sqrtP) / sqrtNew / sqrtP
func (p *V3Pool) swapOneForZero(amountIn *uint256.Int) (*uint256.Int, error) {
	step, overflow := new(uint256.Int).MulDivOverflow(amountIn, u256Q96, p.liquidity)
	if overflow {
		return nil, ErrOverflow
	}
	if step.IsZero() {
		return new(uint256.Int), nil
	}
	sqrtNew, overflow := new(uint256.Int).AddOverflow(p.sqrtPriceX96, step)
	if overflow {
		return nil, ErrOverflow
	}

	numerator, overflow := new(uint256.Int).MulOverflow(p.liquidity, u256Q96)
	if overflow {
		return nil, ErrOverflow
	}
	scaled, overflow := new(uint256.Int).MulDivOverflow(numerator, step, sqrtNew)
	if overflow {
		return nil, ErrOverflow
	}
	return scaled.Div(scaled, p.sqrtPriceX96), nil
}
