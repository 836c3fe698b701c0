package aggregator

import (
	"math/big"

	"github.com/shopspring/decimal"

	"swap-router/internal/types"
)

// EmptyQuote is the "no route" answer: it carries the request but no route.
func EmptyQuote(in, out types.Currency, amountIn *big.Int) *types.Quote {
	return &types.Quote{
		CurrencyIn:  in,
		CurrencyOut: out,
		AmountIn:    copyAmount(amountIn),
		AmountOut:   new(big.Int),
		GasCostUSD:  decimal.Zero,
	}
}

func BuildSingleQuote(in, out types.Currency, amountIn *big.Int, route EvaluatedRoute, steps []types.RouteStep) *types.Quote {
	q := EmptyQuote(in, out, amountIn)
	if len(steps) == 0 {
		return q
	}
	q.Route = make([]types.PoolRef, len(steps))
	for i, s := range steps {
		q.Route[i] = s.Pool
	}
	q.SwapSteps = steps
	q.AmountOut = new(big.Int).Set(steps[len(steps)-1].AmountOut)
	q.GasUnits = route.GasUnits
	q.GasCostUSD = route.GasCostUSD
	return q
}

func BuildSplitQuote(in, out types.Currency, amountIn *big.Int, split *SplitResult) *types.Quote {
	q := EmptyQuote(in, out, amountIn)
	if split.empty() {
		return q
	}
	q.SplitRoutes = split.Routes
	for _, r := range split.Routes {
		q.SwapSteps = append(q.SwapSteps, r.Steps...)
	}
	q.AmountOut = new(big.Int).Set(split.AmountOut)
	q.GasUnits = split.GasUnits
	q.GasCostUSD = split.GasCostUSD
	return q
}

func copyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
