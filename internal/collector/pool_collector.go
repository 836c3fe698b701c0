package collector

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"swap-router/internal/cache"
	"swap-router/internal/logger"
	"swap-router/internal/price"
	"swap-router/internal/types"
)

var (
	WETH = types.Currency{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}
	USDT = types.Currency{ChainID: 1, Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Symbol: "USDT", Decimals: 6}
	USDC = types.Currency{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	DAI  = types.Currency{ChainID: 1, Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Symbol: "DAI", Decimals: 18}
)

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

type pairSeed struct {
	a, b       types.Currency
	amtA, amtB string // whole units
}

// MockPoolCollector seeds a fixed mainnet-like pool universe, its token
// metadata and USD prices. It stands in for an on-chain pool synchronizer.
type MockPoolCollector struct {
	store  cache.Store
	prices *price.Table
	logger zerolog.Logger
}

func NewMockPoolCollector(store cache.Store, prices *price.Table) *MockPoolCollector {
	return &MockPoolCollector{
		store:  store,
		prices: prices,
		logger: logger.For("collector"),
	}
}

func (mpc *MockPoolCollector) Tokens() []types.Currency {
	return []types.Currency{WETH, USDT, USDC, DAI}
}

// InitMockPools stores tokens, prices and pools. It fails only when no pool
// could be stored at all.
func (mpc *MockPoolCollector) InitMockPools(ctx context.Context) error {
	for _, token := range mpc.Tokens() {
		if err := mpc.store.StoreToken(ctx, &token); err != nil {
			mpc.logger.Warn().Err(err).Str("token", token.Symbol).Msg("failed to store token")
		}
	}
	if mpc.prices != nil {
		mpc.prices.Set(WETH, decimal.NewFromInt(2000))
		mpc.prices.Set(USDT, decimal.NewFromInt(1))
		mpc.prices.Set(USDC, decimal.NewFromInt(1))
		mpc.prices.Set(DAI, decimal.NewFromInt(1))
	}

	v2Pairs := []pairSeed{
		{WETH, USDT, "1000", "2000000"},
		{WETH, USDC, "1500", "3000000"},
		{WETH, DAI, "800", "1600000"},
		{USDC, USDT, "2000000", "2000000"},
		{USDC, DAI, "1000000", "1000000"},
	}
	v3Pairs := []struct {
		seed pairSeed
		fee  uint32
	}{
		{pairSeed{WETH, USDC, "2500", "5000000"}, 500},
		{pairSeed{WETH, USDT, "1200", "2400000"}, 3000},
		{pairSeed{USDC, USDT, "5000000", "5000000"}, 100},
	}

	var pools []*types.Pool
	for _, dex := range []types.DexKind{types.DexUniswapV2, types.DexSushiSwap} {
		for i, pair := range v2Pairs {
			// the fork carries thinner books
			scale := int64(1)
			if dex == types.DexSushiSwap {
				scale = 2
			}
			r0, r1, t0, t1 := orderedReserves(pair, scale)
			pools = append(pools, &types.Pool{
				Address:  poolAddress(dex, t0, t1, 3000, i),
				Exchange: dex,
				Token0:   t0,
				Token1:   t1,
				Fee:      3000,
				Reserve0: r0,
				Reserve1: r1,
			})
		}
	}
	for i, p := range v3Pairs {
		r0, r1, t0, t1 := orderedReserves(p.seed, 1)
		sqrtPrice, liquidity := V3StateFromReserves(r0, r1)
		pools = append(pools, &types.Pool{
			Address:      poolAddress(types.DexUniswapV3, t0, t1, p.fee, i),
			Exchange:     types.DexUniswapV3,
			Token0:       t0,
			Token1:       t1,
			Fee:          p.fee,
			SqrtPriceX96: sqrtPrice,
			Liquidity:    liquidity,
		})
	}

	stored := 0
	now := time.Now()
	for _, pool := range pools {
		pool.LastUpdated = now
		if err := mpc.store.StorePool(ctx, pool); err != nil {
			mpc.logger.Warn().Err(err).Str("pool", pool.Key()).Msg("failed to store pool")
			continue
		}
		stored++
		mpc.logger.Debug().
			Str("pool", pool.Key()).
			Str("exchange", string(pool.Exchange)).
			Str("pair", pool.Token0.Symbol+"/"+pool.Token1.Symbol).
			Msg("mock pool created")
	}
	if stored == 0 {
		return fmt.Errorf("no mock pools stored out of %d", len(pools))
	}

	mpc.logger.Info().Int("pools", stored).Int("tokens", len(mpc.Tokens())).Msg("mock pools initialized")
	return nil
}

// orderedReserves sorts the pair the way pool contracts do (lower address is
// token0) and converts whole-unit amounts to raw reserves.
func orderedReserves(p pairSeed, scale int64) (*big.Int, *big.Int, types.Currency, types.Currency) {
	ra := toRaw(p.amtA, p.a.Decimals, scale)
	rb := toRaw(p.amtB, p.b.Decimals, scale)
	if p.a.Address.Cmp(p.b.Address) < 0 {
		return ra, rb, p.a, p.b
	}
	return rb, ra, p.b, p.a
}

func toRaw(whole string, decimals int, scale int64) *big.Int {
	return decimal.RequireFromString(whole).Shift(int32(decimals)).Div(decimal.NewFromInt(scale)).BigInt()
}

// V3StateFromReserves returns the sqrt price and liquidity whose virtual
// reserves are (r0, r1): sqrtPriceX96 = sqrt(r1/r0)*2^96, L = sqrt(r0*r1).
func V3StateFromReserves(r0, r1 *big.Int) (*big.Int, *big.Int) {
	ratio := new(big.Int).Mul(r1, q192)
	ratio.Quo(ratio, r0)
	sqrtPrice := new(big.Int).Sqrt(ratio)
	liquidity := new(big.Int).Sqrt(new(big.Int).Mul(r0, r1))
	return sqrtPrice, liquidity
}

// poolAddress derives a stable pseudo address for a seeded pool.
func poolAddress(dex types.DexKind, t0, t1 types.Currency, fee uint32, salt int) common.Address {
	h := crypto.Keccak256(
		[]byte(dex),
		t0.Address.Bytes(),
		t1.Address.Bytes(),
		big.NewInt(int64(fee)).Bytes(),
		big.NewInt(int64(salt)).Bytes(),
	)
	return common.BytesToAddress(h[12:])
}
