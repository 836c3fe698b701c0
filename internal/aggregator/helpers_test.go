package aggregator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"swap-router/config"
	"swap-router/internal/amm"
	"swap-router/internal/types"
)

var (
	tokA = types.Currency{ChainID: 1, Address: common.HexToAddress("0x000000000000000000000000000000000000000a"), Symbol: "A", Decimals: 18}
	tokB = types.Currency{ChainID: 1, Address: common.HexToAddress("0x000000000000000000000000000000000000000b"), Symbol: "B", Decimals: 18}
	tokC = types.Currency{ChainID: 1, Address: common.HexToAddress("0x000000000000000000000000000000000000000c"), Symbol: "C", Decimals: 18}
	tokD = types.Currency{ChainID: 1, Address: common.HexToAddress("0x000000000000000000000000000000000000000d"), Symbol: "D", Decimals: 18}
	weth, _ = types.WrappedNative(1)
	eth, _  = types.NativeCurrency(1)
)

func testRoutingConfig() config.RoutingConfig {
	return config.RoutingConfig{
		MaxHops:            3,
		MaxSplitRoutes:     3,
		SplitIterations:    100,
		MaxConcurrentPaths: 4,
		BaseFeeGwei:        20,
		PriorityFeeGwei:    1,
	}
}

// curvePool is an oracle with the same response curve in both directions.
type curvePool struct {
	addr   common.Address
	c0, c1 types.Currency
	curve  func(*big.Int) *big.Int
	err    error
}

func newCurvePool(addr string, c0, c1 types.Currency, curve func(*big.Int) *big.Int) *curvePool {
	return &curvePool{addr: common.HexToAddress(addr), c0: c0, c1: c1, curve: curve}
}

func (p *curvePool) Address() common.Address   { return p.addr }
func (p *curvePool) Currency0() types.Currency { return p.c0 }
func (p *curvePool) Currency1() types.Currency { return p.c1 }
func (p *curvePool) Fee() uint32               { return 3000 }
func (p *curvePool) DexKind() types.DexKind    { return types.DexUniswapV2 }

func (p *curvePool) Reserves() (*big.Int, *big.Int) {
	return big.NewInt(1_000_000), big.NewInt(1_000_000)
}

func (p *curvePool) Ref() types.PoolRef {
	return types.PoolRef{Address: p.addr, Exchange: types.DexUniswapV2, Fee: 3000, Token0: p.c0, Token1: p.c1}
}

func (p *curvePool) SimulateSwap(currencyIn types.Currency, amountIn *big.Int) (*big.Int, error) {
	if _, ok := amm.OtherCurrency(p, currencyIn); !ok {
		return nil, amm.ErrUnknownCurrency
	}
	if p.err != nil {
		return nil, p.err
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	return p.curve(amountIn), nil
}

// linear returns x*num/den.
func linear(num, den int64) func(*big.Int) *big.Int {
	return func(x *big.Int) *big.Int {
		out := new(big.Int).Mul(x, big.NewInt(num))
		return out.Quo(out, big.NewInt(den))
	}
}

// saturating returns scale*x/(x+k), a strictly concave curve.
func saturating(scale, k int64) func(*big.Int) *big.Int {
	return func(x *big.Int) *big.Int {
		num := new(big.Int).Mul(x, big.NewInt(scale))
		den := new(big.Int).Add(x, big.NewInt(k))
		return num.Quo(num, den)
	}
}

func v2Pool(addr string, c0, c1 types.Currency, r0, r1 string) amm.Pool {
	reserve0, _ := new(big.Int).SetString(r0, 10)
	reserve1, _ := new(big.Int).SetString(r1, 10)
	p, err := amm.NewPool(&types.Pool{
		Address:  common.HexToAddress(addr),
		Exchange: types.DexUniswapV2,
		Token0:   c0,
		Token1:   c1,
		Fee:      3000,
		Reserve0: reserve0,
		Reserve1: reserve1,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// v4NativePool is a native-ETH pool at price 1 with active liquidity L.
func v4NativePool(addr string, other types.Currency, liquidity string) amm.Pool {
	p, err := amm.NewPool(&types.Pool{
		Address:      common.HexToAddress(addr),
		Exchange:     types.DexUniswapV4,
		Token0:       eth,
		Token1:       other,
		Fee:          500,
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    bigInt(liquidity),
	})
	if err != nil {
		panic(err)
	}
	return p
}

func bigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return v
}

// MockStore for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) StorePool(ctx context.Context, pool *types.Pool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockStore) GetPool(ctx context.Context, address string) (*types.Pool, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Pool), args.Error(1)
}

func (m *MockStore) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*types.Pool, error) {
	args := m.Called(ctx, tokenA, tokenB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Pool), args.Error(1)
}

func (m *MockStore) GetAllPools(ctx context.Context) ([]*types.Pool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Pool), args.Error(1)
}

func (m *MockStore) StoreToken(ctx context.Context, token *types.Currency) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockStore) GetToken(ctx context.Context, address string) (*types.Currency, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Currency), args.Error(1)
}
