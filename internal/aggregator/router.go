package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"swap-router/config"
	"swap-router/internal/amm"
	"swap-router/internal/cache"
	"swap-router/internal/logger"
	"swap-router/internal/metrics"
	"swap-router/internal/price"
	"swap-router/internal/types"
)

var (
	ErrInvalidRequest = errors.New("invalid quote request")
	ErrUnknownToken   = errors.New("unknown token")
)

// Router answers quote requests: it loads a pool snapshot from the store,
// resolves the request into engine parameters and runs the engine.
type Router struct {
	store   cache.Store
	prices  *price.Table
	engine  *Engine
	cfg     config.RoutingConfig
	chainID uint64
	logger  zerolog.Logger

	// connectors limits intermediate hops; empty means unrestricted
	connectors []common.Address
}

func NewRouter(store cache.Store, prices *price.Table, cfg config.RoutingConfig, chainID uint64) *Router {
	if prices == nil {
		prices = price.NewTable()
	}
	return &Router{
		store:   store,
		prices:  prices,
		engine:  NewEngine(cfg),
		cfg:     cfg,
		chainID: chainID,
		logger:  logger.For("router"),
	}
}

// WithConnectors restricts intermediate hops to the given token addresses.
// Malformed entries are skipped.
func (r *Router) WithConnectors(addresses []string) *Router {
	r.connectors = r.connectors[:0]
	for _, a := range addresses {
		if !common.IsHexAddress(a) {
			r.logger.Warn().Str("address", a).Msg("ignoring malformed connector token")
			continue
		}
		r.connectors = append(r.connectors, common.HexToAddress(a))
	}
	return r
}

func (r *Router) connectorSet() ConnectorSet {
	currencies := make([]types.Currency, len(r.connectors))
	for i, a := range r.connectors {
		currencies[i] = types.Currency{ChainID: r.chainID, Address: a, Native: types.IsNativeAddress(a)}
	}
	return NewConnectorSet(currencies)
}

// GetQuote returns the best quote for req. A quote with no route is returned
// as an empty quote, not an error.
func (r *Router) GetQuote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error) {
	start := time.Now()
	mode := metrics.ModeSingle
	if req != nil && req.Split {
		mode = metrics.ModeSplit
	}

	quote, stats, err := r.quote(ctx, req)
	metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.QuoteRequests.WithLabelValues(mode, metrics.StatusError).Inc()
		r.logger.Warn().Err(err).Str("mode", mode).Msg("quote failed")
		return nil, err
	case quote.IsEmpty():
		metrics.QuoteRequests.WithLabelValues(mode, metrics.StatusNoRoute).Inc()
	default:
		metrics.QuoteRequests.WithLabelValues(mode, metrics.StatusOK).Inc()
	}
	metrics.PathsDiscovered.Observe(float64(stats.Paths))
	metrics.RoutesEvaluated.Observe(float64(stats.Routes))
	if stats.Split > 0 {
		metrics.SplitRoutesUsed.Observe(float64(stats.Split))
	}

	r.logger.Info().
		Str("mode", mode).
		Str("token_in", quote.CurrencyIn.String()).
		Str("token_out", quote.CurrencyOut.String()).
		Str("amount_in", quote.AmountIn.String()).
		Str("amount_out", quote.AmountOut.String()).
		Int("paths", stats.Paths).
		Int("routes", stats.Routes).
		Bool("found", !quote.IsEmpty()).
		Dur("elapsed", time.Since(start)).
		Msg("quote computed")
	return quote, nil
}

func (r *Router) quote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, Stats, error) {
	if err := r.validate(req); err != nil {
		return nil, Stats{}, err
	}

	records, err := r.store.GetAllPools(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load pools: %w", err)
	}
	in, err := r.ResolveCurrency(ctx, req.TokenIn, records)
	if err != nil {
		return nil, Stats{}, err
	}
	out, err := r.ResolveCurrency(ctx, req.TokenOut, records)
	if err != nil {
		return nil, Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	pools := r.decodePools(records)
	metrics.PoolCount.Set(float64(len(pools)))

	prices := r.prices.Snapshot()
	snapshot := Snapshot{
		Pools:      pools,
		Liquidity:  amm.NewLiquidityChecker(r.cfg.MinLiquidityUSD, prices),
		Prices:     prices,
		Connectors: r.connectorSet(),
	}
	qp := QuoteParams{
		CurrencyIn:     in,
		CurrencyOut:    out,
		AmountIn:       req.AmountIn,
		MaxHops:        r.maxHops(req),
		MaxSplitRoutes: r.maxSplitRoutes(req),
		Gas:            r.gasParams(req),
	}

	q, stats := r.engine.Run(snapshot, qp, req.Split)
	return q, stats, nil
}

func (r *Router) validate(req *types.QuoteRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if !common.IsHexAddress(req.TokenIn) || !common.IsHexAddress(req.TokenOut) {
		return fmt.Errorf("%w: tokenIn and tokenOut must be hex addresses", ErrInvalidRequest)
	}
	if req.AmountIn == nil || req.AmountIn.Sign() < 0 {
		return fmt.Errorf("%w: amountIn must be a non-negative integer", ErrInvalidRequest)
	}
	if req.MaxHops < 0 || req.MaxHops > r.cfg.MaxHops {
		return fmt.Errorf("%w: maxHops must be between 1 and %d", ErrInvalidRequest, r.cfg.MaxHops)
	}
	if req.MaxSplitRoutes < 0 {
		return fmt.Errorf("%w: maxSplitRoutes must not be negative", ErrInvalidRequest)
	}
	if (req.BaseFee != nil && req.BaseFee.Sign() < 0) || (req.PriorityFee != nil && req.PriorityFee.Sign() < 0) {
		return fmt.Errorf("%w: gas fees must not be negative", ErrInvalidRequest)
	}
	return nil
}

// ResolveCurrency turns a request address into a currency. The native
// sentinel and the zero address mean the chain's native asset; tokens come
// from the store, falling back to the metadata carried by pool records.
func (r *Router) ResolveCurrency(ctx context.Context, address string, records []*types.Pool) (types.Currency, error) {
	if !common.IsHexAddress(address) {
		return types.Currency{}, fmt.Errorf("%w: %q is not an address", ErrInvalidRequest, address)
	}
	addr := common.HexToAddress(address)
	if types.IsNativeAddress(addr) {
		native, ok := types.NativeCurrency(r.chainID)
		if !ok {
			return types.Currency{}, fmt.Errorf("%w: no native asset for chain %d", ErrUnknownToken, r.chainID)
		}
		return native, nil
	}

	token, err := r.store.GetToken(ctx, strings.ToLower(addr.Hex()))
	if err == nil {
		return *token, nil
	}
	if !errors.Is(err, cache.ErrTokenNotFound) {
		return types.Currency{}, fmt.Errorf("load token %s: %w", address, err)
	}
	for _, rec := range records {
		switch addr {
		case rec.Token0.Address:
			return rec.Token0, nil
		case rec.Token1.Address:
			return rec.Token1, nil
		}
	}
	return types.Currency{}, fmt.Errorf("%w: %s", ErrUnknownToken, address)
}

// decodePools builds oracles for every usable record, ordered by address so
// path discovery order does not depend on the store.
func (r *Router) decodePools(records []*types.Pool) []amm.Pool {
	sorted := make([]*types.Pool, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	pools := make([]amm.Pool, 0, len(sorted))
	for _, rec := range sorted {
		p, err := amm.NewPool(rec)
		if err != nil {
			r.logger.Debug().Err(err).Str("pool", rec.Key()).Msg("skipping pool")
			continue
		}
		pools = append(pools, p)
	}
	return pools
}

func (r *Router) maxHops(req *types.QuoteRequest) int {
	if req.MaxHops > 0 {
		return req.MaxHops
	}
	return r.cfg.MaxHops
}

func (r *Router) maxSplitRoutes(req *types.QuoteRequest) int {
	if req.MaxSplitRoutes > 0 {
		return req.MaxSplitRoutes
	}
	return r.cfg.MaxSplitRoutes
}

func (r *Router) gasParams(req *types.QuoteRequest) GasParams {
	gas := GasParams{
		BaseFee:     gweiToWei(r.cfg.BaseFeeGwei),
		PriorityFee: gweiToWei(r.cfg.PriorityFeeGwei),
	}
	if req.BaseFee != nil {
		gas.BaseFee = new(big.Int).Set(req.BaseFee)
	}
	if req.PriorityFee != nil {
		gas.PriorityFee = new(big.Int).Set(req.PriorityFee)
	}
	return gas
}

func gweiToWei(gwei float64) *big.Int {
	if gwei <= 0 {
		return new(big.Int)
	}
	return decimal.NewFromFloat(gwei).Mul(decimal.NewFromInt(params.GWei)).BigInt()
}
