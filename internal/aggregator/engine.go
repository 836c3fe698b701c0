package aggregator

import (
	"math/big"

	"github.com/rs/zerolog"

	"swap-router/config"
	"swap-router/internal/amm"
	"swap-router/internal/logger"
	"swap-router/internal/types"
)

// Snapshot is the fixed view of liquidity one quote is computed against.
// Liquidity and Prices may be nil: every pool is then usable and nothing is
// priced. A nil Connectors set lets any currency be an intermediate hop.
type Snapshot struct {
	Pools      []amm.Pool
	Liquidity  LiquidityFilter
	Prices     amm.PriceSource
	Connectors ConnectorSet
}

type QuoteParams struct {
	CurrencyIn     types.Currency
	CurrencyOut    types.Currency
	AmountIn       *big.Int
	MaxHops        int
	MaxSplitRoutes int
	Gas            GasParams
}

// Stats describes how much work a quote took.
type Stats struct {
	Paths  int
	Routes int
	Split  int
}

// Engine computes quotes. It performs no I/O and keeps no state between calls.
type Engine struct {
	finder    *PathFinder
	evaluator *RouteEvaluator
	splitter  *SplitOptimizer
	logger    zerolog.Logger
}

func NewEngine(cfg config.RoutingConfig) *Engine {
	return &Engine{
		finder:    NewPathFinder(),
		evaluator: NewRouteEvaluator(cfg.MaxConcurrentPaths),
		splitter:  NewSplitOptimizer(cfg.SplitIterations, cfg.MaxConcurrentPaths),
		logger:    logger.For("engine"),
	}
}

// Quote returns the single best route, or an empty quote.
func (e *Engine) Quote(s Snapshot, p QuoteParams) *types.Quote {
	q, _ := e.Run(s, p, false)
	return q
}

// QuoteSplit distributes the amount over the MaxSplitRoutes best routes.
func (e *Engine) QuoteSplit(s Snapshot, p QuoteParams) *types.Quote {
	q, _ := e.Run(s, p, true)
	return q
}

func (e *Engine) Run(s Snapshot, p QuoteParams, split bool) (*types.Quote, Stats) {
	var stats Stats
	empty := EmptyQuote(p.CurrencyIn, p.CurrencyOut, p.AmountIn)
	if p.AmountIn == nil || p.AmountIn.Sign() < 0 {
		return empty, stats
	}

	paths := e.finder.FindPathsVia(s.Pools, s.Liquidity, s.Connectors, p.CurrencyIn, p.CurrencyOut, p.MaxHops)
	stats.Paths = len(paths)
	routes := e.evaluator.Evaluate(paths, p.AmountIn, p.Gas, s.Prices)
	stats.Routes = len(routes)
	if len(routes) == 0 {
		e.logger.Debug().Int("paths", stats.Paths).Msg("no route survived evaluation")
		return empty, stats
	}

	if !split {
		best, _ := SelectBestRoute(routes)
		steps, _, err := BuildSteps(best.Path, p.AmountIn)
		if err != nil {
			e.logger.Warn().Err(err).Str("path", best.Path.String()).Msg("best route failed re-simulation")
			return empty, stats
		}
		e.logger.Debug().
			Str("path", best.Path.String()).
			Str("net_usd", best.NetValueUSD.String()).
			Msg("single route selected")
		return BuildSingleQuote(p.CurrencyIn, p.CurrencyOut, p.AmountIn, best, steps), stats
	}

	k := p.MaxSplitRoutes
	if k < 1 {
		k = 1
	}
	ranked := RankRoutes(routes)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	result := e.splitter.Split(ranked, p.AmountIn)
	if result.empty() {
		return empty, stats
	}
	stats.Split = len(result.Routes)
	return BuildSplitQuote(p.CurrencyIn, p.CurrencyOut, p.AmountIn, result), stats
}
