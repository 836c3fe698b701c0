package aggregator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"swap-router/internal/amm"
	"swap-router/internal/logger"
	"swap-router/internal/types"
)

const (
	// BaseGas covers the router call and the first swap.
	BaseGas uint64 = 140000
	// HopGas is added for every hop after the first.
	HopGas uint64 = 80000
)

var ErrZeroOutput = errors.New("hop returned zero output")

// GasParams are per-call gas prices in wei.
type GasParams struct {
	BaseFee     *big.Int
	PriorityFee *big.Int
}

func (g GasParams) pricePerGas() *big.Int {
	total := new(big.Int)
	if g.BaseFee != nil {
		total.Add(total, g.BaseFee)
	}
	if g.PriorityFee != nil {
		total.Add(total, g.PriorityFee)
	}
	return total
}

// EstimateGas returns the gas units for a route with the given hop count.
func EstimateGas(hops int) uint64 {
	if hops <= 1 {
		return BaseGas
	}
	return BaseGas + HopGas*uint64(hops-1)
}

// EvaluatedRoute is a path simulated at a trial amount. Index is the path's
// discovery position and breaks ranking ties.
type EvaluatedRoute struct {
	Path        Path
	Index       int
	AmountIn    *big.Int
	AmountOut   *big.Int
	GasUnits    uint64
	GasCostUSD  decimal.Decimal
	OutputUSD   decimal.Decimal
	NetValueUSD decimal.Decimal
}

type RouteEvaluator struct {
	workers int
	logger  zerolog.Logger
}

func NewRouteEvaluator(workers int) *RouteEvaluator {
	if workers <= 0 {
		workers = 1
	}
	return &RouteEvaluator{workers: workers, logger: logger.For("route_evaluator")}
}

// Evaluate simulates every path at amountIn and prices it net of gas. Paths
// whose simulation fails anywhere are left out. The result keeps discovery
// order regardless of scheduling.
func (re *RouteEvaluator) Evaluate(paths []Path, amountIn *big.Int, gas GasParams, prices amm.PriceSource) []EvaluatedRoute {
	if len(paths) == 0 || amountIn == nil || amountIn.Sign() <= 0 {
		return nil
	}

	slots := make([]*EvaluatedRoute, len(paths))
	var g errgroup.Group
	g.SetLimit(re.workers)
	for i := range paths {
		i := i
		g.Go(func() error {
			route, err := re.evaluate(i, paths[i], amountIn, gas, prices)
			if err != nil {
				re.logger.Debug().Err(err).Str("path", paths[i].String()).Msg("path discarded")
				return nil
			}
			slots[i] = route
			return nil
		})
	}
	g.Wait() // discarded paths leave their slot nil, never an error

	routes := make([]EvaluatedRoute, 0, len(paths))
	for _, r := range slots {
		if r != nil {
			routes = append(routes, *r)
		}
	}
	return routes
}

func (re *RouteEvaluator) evaluate(index int, path Path, amountIn *big.Int, gas GasParams, prices amm.PriceSource) (*EvaluatedRoute, error) {
	amountOut, err := simulatePath(path, amountIn)
	if err != nil {
		return nil, err
	}

	gasUnits := EstimateGas(path.Hops())
	out := path.Currencies[len(path.Currencies)-1]
	gasUSD := gasCostUSD(out.ChainID, gasUnits, gas, prices)

	// without an output price the route is ranked on raw output in whole units
	outputValue := decimal.NewFromBigInt(amountOut, -int32(out.Decimals))
	netValue := outputValue
	if price, ok := usdPrice(prices, out); ok {
		outputValue = outputValue.Mul(price)
		netValue = outputValue.Sub(gasUSD)
	}

	return &EvaluatedRoute{
		Path:        path,
		Index:       index,
		AmountIn:    new(big.Int).Set(amountIn),
		AmountOut:   amountOut,
		GasUnits:    gasUnits,
		GasCostUSD:  gasUSD,
		OutputUSD:   outputValue,
		NetValueUSD: netValue,
	}, nil
}

// simulatePath feeds amountIn through every hop. A zero input yields zero; a
// hop that returns zero for a non-zero input fails the whole path.
func simulatePath(path Path, amountIn *big.Int) (*big.Int, error) {
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	amount := amountIn
	for i, pool := range path.Pools {
		out, err := pool.SimulateSwap(path.Currencies[i], amount)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s): %w", i, pool.Address().Hex(), err)
		}
		if out == nil || out.Sign() <= 0 {
			return nil, fmt.Errorf("hop %d (%s): %w", i, pool.Address().Hex(), ErrZeroOutput)
		}
		amount = out
	}
	return amount, nil
}

// gasCostUSD converts (baseFee+priorityFee)*gasUnits to USD through the
// chain's native asset price. An unknown price costs nothing.
func gasCostUSD(chainID uint64, gasUnits uint64, gas GasParams, prices amm.PriceSource) decimal.Decimal {
	native, ok := types.NativeCurrency(chainID)
	if !ok {
		return decimal.Zero
	}
	price, ok := usdPrice(prices, native)
	if !ok {
		return decimal.Zero
	}
	costWei := new(big.Int).Mul(gas.pricePerGas(), new(big.Int).SetUint64(gasUnits))
	return decimal.NewFromBigInt(costWei, -int32(native.Decimals)).Mul(price)
}

func usdPrice(prices amm.PriceSource, c types.Currency) (decimal.Decimal, bool) {
	if prices == nil {
		return decimal.Zero, false
	}
	return prices.USDPrice(c)
}
