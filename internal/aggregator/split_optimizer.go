package aggregator

import (
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"swap-router/internal/logger"
	"swap-router/internal/types"
)

const DefaultSplitIterations = 100

// SplitResult is the outcome of distributing one trade over several routes.
type SplitResult struct {
	Routes     []types.SplitRoute
	AmountOut  *big.Int
	GasUnits   uint64
	GasCostUSD decimal.Decimal
}

func (r *SplitResult) empty() bool {
	return r == nil || len(r.Routes) == 0
}

// SplitOptimizer spreads an input amount over candidate routes in equal
// chunks, always handing the next chunk to the route with the largest
// marginal output.
type SplitOptimizer struct {
	iterations int
	workers    int
	logger     zerolog.Logger
}

func NewSplitOptimizer(iterations, workers int) *SplitOptimizer {
	if iterations <= 0 {
		iterations = DefaultSplitIterations
	}
	if workers <= 0 {
		workers = 1
	}
	return &SplitOptimizer{
		iterations: iterations,
		workers:    workers,
		logger:     logger.For("split_optimizer"),
	}
}

// Optimize returns one allocation per candidate; the allocations sum to
// amountIn exactly. Candidate 0 takes the division remainder, and the whole
// amount when it is smaller than the iteration count.
func (so *SplitOptimizer) Optimize(candidates []EvaluatedRoute, amountIn *big.Int) []*big.Int {
	if len(candidates) == 0 || amountIn == nil || amountIn.Sign() <= 0 {
		return nil
	}

	alloc := make([]*big.Int, len(candidates))
	outs := make([]*big.Int, len(candidates))
	for i := range candidates {
		alloc[i] = new(big.Int)
		outs[i] = new(big.Int)
	}

	chunk, remainder := new(big.Int).QuoRem(amountIn, big.NewInt(int64(so.iterations)), new(big.Int))
	if chunk.Sign() == 0 {
		alloc[0].Set(amountIn)
		return alloc
	}

	for iter := 0; iter < so.iterations; iter++ {
		gains, next := so.marginalGains(candidates, alloc, outs, chunk)

		best := 0
		for i := 1; i < len(gains); i++ {
			if gains[i].Cmp(gains[best]) > 0 {
				best = i
			}
		}
		alloc[best] = new(big.Int).Add(alloc[best], chunk)
		outs[best] = next[best]
	}
	alloc[0] = new(big.Int).Add(alloc[0], remainder)
	return alloc
}

// marginalGains simulates every candidate at its allocation plus one chunk.
// Gains never go below zero; a failed simulation gains nothing.
func (so *SplitOptimizer) marginalGains(candidates []EvaluatedRoute, alloc, outs []*big.Int, chunk *big.Int) ([]*big.Int, []*big.Int) {
	gains := make([]*big.Int, len(candidates))
	next := make([]*big.Int, len(candidates))

	var g errgroup.Group
	g.SetLimit(so.workers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			amount := new(big.Int).Add(alloc[i], chunk)
			out, err := simulatePath(candidates[i].Path, amount)
			if err != nil {
				gains[i] = new(big.Int)
				next[i] = new(big.Int)
				return nil
			}
			gain := new(big.Int).Sub(out, outs[i])
			if gain.Sign() < 0 {
				gain.SetInt64(0)
			}
			gains[i] = gain
			next[i] = out
			return nil
		})
	}
	g.Wait() // failures land in gains, never as errors
	return gains, next
}

// Split allocates amountIn over candidates (ranked best first) and
// materializes the routes that received input. The split never returns less
// than the best candidate would on its own: if it would, or a route fails to
// re-simulate, the whole amount goes to that candidate.
func (so *SplitOptimizer) Split(candidates []EvaluatedRoute, amountIn *big.Int) *SplitResult {
	alloc := so.Optimize(candidates, amountIn)
	if alloc == nil {
		return nil
	}

	result, err := so.materialize(candidates, alloc, amountIn)
	fallback := bestUnsplit(candidates)
	if err != nil || result.AmountOut.Cmp(candidates[fallback].AmountOut) < 0 {
		so.logger.Debug().
			Err(err).
			Int("route", candidates[fallback].Index).
			Msg("split falls back to single best route")
		single := make([]*big.Int, len(candidates))
		for i := range single {
			single[i] = new(big.Int)
		}
		single[fallback].Set(amountIn)
		if result, err = so.materialize(candidates, single, amountIn); err != nil {
			return nil
		}
	}

	so.logger.Debug().
		Int("candidates", len(candidates)).
		Int("routes", len(result.Routes)).
		Str("amount_out", result.AmountOut.String()).
		Msg("split computed")
	return result
}

func (so *SplitOptimizer) materialize(candidates []EvaluatedRoute, alloc []*big.Int, amountIn *big.Int) (*SplitResult, error) {
	result := &SplitResult{AmountOut: new(big.Int), GasCostUSD: decimal.Zero}
	total := decimal.NewFromBigInt(amountIn, 0)
	for i, a := range alloc {
		if a.Sign() == 0 {
			continue
		}
		steps, out, err := BuildSteps(candidates[i].Path, a)
		if err != nil {
			return nil, err
		}
		route := make([]types.PoolRef, len(steps))
		for j, s := range steps {
			route[j] = s.Pool
		}
		result.Routes = append(result.Routes, types.SplitRoute{
			Route:      route,
			Steps:      steps,
			AmountIn:   new(big.Int).Set(a),
			AmountOut:  out,
			Percentage: decimal.NewFromBigInt(a, 0).Mul(decimal.NewFromInt(100)).Div(total).InexactFloat64(),
		})
		result.AmountOut.Add(result.AmountOut, out)
		result.GasUnits += candidates[i].GasUnits
		result.GasCostUSD = result.GasCostUSD.Add(candidates[i].GasCostUSD)
	}
	return result, nil
}

// bestUnsplit is the candidate with the highest raw output at the full amount.
func bestUnsplit(candidates []EvaluatedRoute) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].AmountOut.Cmp(candidates[best].AmountOut) > 0 {
			best = i
		}
	}
	return best
}
