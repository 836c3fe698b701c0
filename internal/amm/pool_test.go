package amm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-router/internal/types"
)

var (
	weth, _ = types.WrappedNative(1)
	eth, _  = types.NativeCurrency(1)
	usdc    = types.Currency{ChainID: 1, Address: common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"), Symbol: "USDC", Decimals: 6}
	dai     = types.Currency{ChainID: 1, Address: common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f"), Symbol: "DAI", Decimals: 18}
)

func v2Record(r0, r1 int64) *types.Pool {
	return &types.Pool{
		Address:  common.HexToAddress("0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc"),
		Exchange: types.DexUniswapV2,
		Token0:   usdc,
		Token1:   weth,
		Fee:      3000,
		Reserve0: big.NewInt(r0),
		Reserve1: big.NewInt(r1),
	}
}

func v3Record() *types.Pool {
	liquidity, _ := new(big.Int).SetString("1000000000000000000", 10)
	return &types.Pool{
		Address:      common.HexToAddress("0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640"),
		Exchange:     types.DexUniswapV3,
		Token0:       dai,
		Token1:       weth,
		Fee:          500,
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    liquidity,
	}
}

// v4Record is a native ETH/DAI pool at price 1.
func v4Record() *types.Pool {
	rec := v3Record()
	rec.Address = common.HexToAddress("0x21c67e77068de97969ba93d4aab21826d33ca12b")
	rec.Exchange = types.DexUniswapV4
	rec.Token0 = eth
	return rec
}

func TestNewPool_Dispatch(t *testing.T) {
	p, err := NewPool(v2Record(1000000, 2000000))
	require.NoError(t, err)
	assert.IsType(t, &V2Pool{}, p)

	p, err = NewPool(v3Record())
	require.NoError(t, err)
	assert.IsType(t, &V3Pool{}, p)

	p, err = NewPool(v4Record())
	require.NoError(t, err)
	assert.IsType(t, &V3Pool{}, p)
	assert.Equal(t, types.DexUniswapV4, p.DexKind())

	rec := v2Record(1, 1)
	rec.Exchange = "Curve"
	_, err = NewPool(rec)
	assert.ErrorIs(t, err, ErrUnsupportedDex)

	rec = v2Record(1, 1)
	rec.Reserve1 = nil
	_, err = NewPool(rec)
	assert.ErrorIs(t, err, ErrNoState)

	rec = v2Record(1, 1)
	rec.Fee = FeeDenominator
	_, err = NewPool(rec)
	assert.Error(t, err)
}

func TestV2Pool_SimulateSwap(t *testing.T) {
	p, err := NewV2Pool(v2Record(1000000, 2000000))
	require.NoError(t, err)

	out, err := p.SimulateSwap(usdc, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "1992", out.String())

	out, err = p.SimulateSwap(usdc, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Sign())

	// native currency sells through the wrapped side
	out, err = p.SimulateSwap(eth, big.NewInt(2000))
	require.NoError(t, err)
	assert.Equal(t, "996", out.String())

	_, err = p.SimulateSwap(dai, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestV2Pool_EmptyReserves(t *testing.T) {
	p, err := NewV2Pool(v2Record(0, 2000000))
	require.NoError(t, err)

	_, err = p.SimulateSwap(usdc, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestV3Pool_SimulateSwap(t *testing.T) {
	p, err := NewV3Pool(v3Record())
	require.NoError(t, err)

	amountIn := big.NewInt(1_000_000_000_000_000) // 1e15
	lower := big.NewInt(998_000_000_000_000)
	upper := big.NewInt(999_500_000_000_000)

	out0, err := p.SimulateSwap(dai, amountIn)
	require.NoError(t, err)
	assert.True(t, out0.Cmp(lower) > 0, "zeroForOne output %s too low", out0)
	assert.True(t, out0.Cmp(upper) < 0, "zeroForOne output %s above fee-adjusted input", out0)

	out1, err := p.SimulateSwap(weth, amountIn)
	require.NoError(t, err)
	assert.True(t, out1.Cmp(lower) > 0, "oneForZero output %s too low", out1)
	assert.True(t, out1.Cmp(upper) < 0, "oneForZero output %s above fee-adjusted input", out1)
}

func TestV3Pool_Reserves(t *testing.T) {
	p, err := NewV3Pool(v3Record())
	require.NoError(t, err)

	r0, r1 := p.Reserves()
	assert.Equal(t, "1000000000000000000", r0.String())
	assert.Equal(t, "1000000000000000000", r1.String())
}

func TestV3Pool_ZeroLiquidity(t *testing.T) {
	rec := v3Record()
	rec.Liquidity = big.NewInt(0)
	p, err := NewV3Pool(rec)
	require.NoError(t, err)

	_, err = p.SimulateSwap(dai, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestSimulateSwap_Monotonic(t *testing.T) {
	v2, err := NewV2Pool(v2Record(5_000_000_000, 3_000_000_000))
	require.NoError(t, err)
	v3, err := NewV3Pool(v3Record())
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		pool Pool
		in   types.Currency
	}{
		{"v2 zeroForOne", v2, usdc},
		{"v2 oneForZero", v2, weth},
		{"v3 zeroForOne", v3, dai},
		{"v3 oneForZero", v3, weth},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prev := big.NewInt(0)
			amount := big.NewInt(1)
			for i := 0; i < 40; i++ {
				out, err := tc.pool.SimulateSwap(tc.in, amount)
				require.NoError(t, err)
				assert.True(t, out.Cmp(prev) >= 0, "output decreased at amount %s", amount)
				prev = out
				amount = new(big.Int).Mul(amount, big.NewInt(3))
			}
		})
	}
}

func TestOtherCurrency(t *testing.T) {
	p, err := NewV2Pool(v2Record(1, 1))
	require.NoError(t, err)

	c, ok := OtherCurrency(p, eth)
	require.True(t, ok)
	assert.True(t, c.Equal(usdc))

	_, ok = OtherCurrency(p, dai)
	assert.False(t, ok)
}

func TestV4Pool_KeepsNativeCurrency(t *testing.T) {
	p, err := NewPool(v4Record())
	require.NoError(t, err)

	assert.True(t, p.Currency0().IsNative())
	assert.True(t, p.Ref().Token0.IsNative())
	assert.True(t, p.Currency1().Equal(dai))

	amountIn := big.NewInt(1_000_000_000_000_000)
	viaNative, err := p.SimulateSwap(eth, amountIn)
	require.NoError(t, err)
	viaWrapped, err := p.SimulateSwap(weth, amountIn)
	require.NoError(t, err)
	assert.Equal(t, viaNative.String(), viaWrapped.String())
	assert.Positive(t, viaNative.Sign())

	_, err = p.SimulateSwap(dai, amountIn)
	require.NoError(t, err)
	_, err = p.SimulateSwap(usdc, amountIn)
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	out, ok := OtherCurrency(p, dai)
	require.True(t, ok)
	assert.True(t, out.IsNative())
	out, ok = OtherCurrency(p, weth)
	require.True(t, ok)
	assert.True(t, out.Equal(dai))
}

func TestV2Pool_WrapsNativeRecord(t *testing.T) {
	rec := v2Record(1000, 1000)
	rec.Token1 = eth
	p, err := NewPool(rec)
	require.NoError(t, err)

	assert.False(t, p.Currency1().IsNative())
	assert.True(t, p.Currency1().Equal(weth))
	assert.True(t, p.Ref().Token1.Equal(weth))
}

type priceMap map[types.CurrencyKey]decimal.Decimal

func (m priceMap) USDPrice(c types.Currency) (decimal.Decimal, bool) {
	p, ok := m[c.Wrapped().Key()]
	return p, ok
}

func TestLiquidityChecker(t *testing.T) {
	prices := priceMap{
		usdc.Key(): decimal.NewFromInt(1),
	}
	checker := NewLiquidityChecker(1000, prices)

	// 400 USDC priced side, doubled for the unpriced WETH side: 800 < 1000
	small, err := NewV2Pool(v2Record(400_000_000, 1_000_000))
	require.NoError(t, err)
	assert.False(t, checker.HasSufficientLiquidity(small))

	large, err := NewV2Pool(v2Record(600_000_000, 1_000_000))
	require.NoError(t, err)
	assert.True(t, checker.HasSufficientLiquidity(large))

	empty, err := NewV2Pool(v2Record(0, 1_000_000))
	require.NoError(t, err)
	assert.False(t, checker.HasSufficientLiquidity(empty))

	// no priced side: reserves alone decide
	unpriced, err := NewV3Pool(v3Record())
	require.NoError(t, err)
	assert.True(t, checker.HasSufficientLiquidity(unpriced))

	assert.True(t, NewLiquidityChecker(0, nil).HasSufficientLiquidity(small))
}

func TestLiquidityChecker_UnpricedSides(t *testing.T) {
	t.Run("no priced side passes on reserves", func(t *testing.T) {
		checker := NewLiquidityChecker(1_000_000, priceMap{})

		dust, err := NewV2Pool(v2Record(1, 1))
		require.NoError(t, err)
		assert.True(t, checker.HasSufficientLiquidity(dust))

		drained, err := NewV2Pool(v2Record(1, 0))
		require.NoError(t, err)
		assert.False(t, checker.HasSufficientLiquidity(drained))
	})

	t.Run("single priced side is doubled", func(t *testing.T) {
		checker := NewLiquidityChecker(1000, priceMap{weth.Key(): decimal.NewFromInt(2000)})

		// 0.25 WETH = 500 USD, counted twice
		atMin, err := NewV2Pool(v2Record(1, 250_000_000_000_000_000))
		require.NoError(t, err)
		assert.True(t, checker.HasSufficientLiquidity(atMin))

		below, err := NewV2Pool(v2Record(1, 249_999_999_999_999_999))
		require.NoError(t, err)
		assert.False(t, checker.HasSufficientLiquidity(below))
	})

	t.Run("both priced sides are summed", func(t *testing.T) {
		checker := NewLiquidityChecker(1000, priceMap{
			usdc.Key(): decimal.NewFromInt(1),
			weth.Key(): decimal.NewFromInt(2000),
		})

		// 400 USDC + 0.2 WETH = 800 USD
		p, err := NewV2Pool(v2Record(400_000_000, 200_000_000_000_000_000))
		require.NoError(t, err)
		assert.False(t, checker.HasSufficientLiquidity(p))
	})
}
