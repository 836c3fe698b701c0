package amm

import (
	"math/big"

	"github.com/shopspring/decimal"

	"swap-router/internal/types"
)

// PriceSource supplies USD prices per currency.
type PriceSource interface {
	USDPrice(c types.Currency) (decimal.Decimal, bool)
}

// LiquidityChecker decides whether a pool holds enough value to be routed through.
type LiquidityChecker struct {
	minUSD decimal.Decimal
	prices PriceSource
}

func NewLiquidityChecker(minUSD float64, prices PriceSource) *LiquidityChecker {
	return &LiquidityChecker{minUSD: decimal.NewFromFloat(minUSD), prices: prices}
}

// HasSufficientLiquidity requires non-zero reserves on both sides and, when
// at least one side is priced, a pool value of at least the configured
// minimum. A side without a price is valued like the priced one. Pools with
// no priced side pass on reserves alone.
func (c *LiquidityChecker) HasSufficientLiquidity(p Pool) bool {
	r0, r1 := p.Reserves()
	if r0 == nil || r1 == nil || r0.Sign() <= 0 || r1.Sign() <= 0 {
		return false
	}
	if !c.minUSD.IsPositive() || c.prices == nil {
		return true
	}

	v0, ok0 := c.sideValue(p.Currency0(), r0)
	v1, ok1 := c.sideValue(p.Currency1(), r1)
	var total decimal.Decimal
	switch {
	case ok0 && ok1:
		total = v0.Add(v1)
	case ok0:
		total = v0.Mul(decimal.NewFromInt(2))
	case ok1:
		total = v1.Mul(decimal.NewFromInt(2))
	default:
		return true
	}
	return total.GreaterThanOrEqual(c.minUSD)
}

func (c *LiquidityChecker) sideValue(cur types.Currency, reserve *big.Int) (decimal.Decimal, bool) {
	price, ok := c.prices.USDPrice(cur)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromBigInt(reserve, -int32(cur.Decimals)).Mul(price), true
}
