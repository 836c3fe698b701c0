package aggregator

import (
	"math/big"
	"sort"

	"swap-router/internal/types"
)

// better orders routes by net value, highest first, then by discovery index.
func better(a, b EvaluatedRoute) bool {
	if c := a.NetValueUSD.Cmp(b.NetValueUSD); c != 0 {
		return c > 0
	}
	return a.Index < b.Index
}

// SelectBestRoute returns the route with the highest net value. The boolean
// is false when there is nothing to select.
func SelectBestRoute(routes []EvaluatedRoute) (EvaluatedRoute, bool) {
	if len(routes) == 0 {
		return EvaluatedRoute{}, false
	}
	best := routes[0]
	for _, r := range routes[1:] {
		if better(r, best) {
			best = r
		}
	}
	return best, true
}

// RankRoutes returns a sorted copy of routes, best first.
func RankRoutes(routes []EvaluatedRoute) []EvaluatedRoute {
	ranked := make([]EvaluatedRoute, len(routes))
	copy(ranked, routes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return better(ranked[i], ranked[j])
	})
	return ranked
}

// BuildSteps re-simulates path at amountIn and records every hop.
func BuildSteps(path Path, amountIn *big.Int) ([]types.RouteStep, *big.Int, error) {
	steps := make([]types.RouteStep, 0, path.Hops())
	amount := new(big.Int).Set(amountIn)
	for i, pool := range path.Pools {
		out, err := pool.SimulateSwap(path.Currencies[i], amount)
		if err != nil {
			return nil, nil, err
		}
		if out == nil || out.Sign() <= 0 {
			return nil, nil, ErrZeroOutput
		}
		steps = append(steps, types.RouteStep{
			Pool:        pool.Ref(),
			CurrencyIn:  path.Currencies[i],
			CurrencyOut: path.Currencies[i+1],
			AmountIn:    amount,
			AmountOut:   out,
		})
		amount = out
	}
	return steps, amount, nil
}
