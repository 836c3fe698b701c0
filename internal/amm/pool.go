package amm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swap-router/internal/types"
)

// FeeDenominator is the fee scale: fees are expressed in hundredths of a bip.
const FeeDenominator = 1_000_000

var (
	ErrUnknownCurrency       = errors.New("currency not traded by pool")
	ErrNoState               = errors.New("pool has no usable state")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrOverflow              = errors.New("swap math overflow")
	ErrUnsupportedDex        = errors.New("unsupported dex kind")
)

// Pool is a read-only swap oracle over one pool snapshot. Implementations
// never mutate their state, so a Pool may be simulated concurrently.
type Pool interface {
	Address() common.Address
	Currency0() types.Currency
	Currency1() types.Currency
	// Fee in hundredths of a bip.
	Fee() uint32
	DexKind() types.DexKind
	// SimulateSwap returns the output amount for selling amountIn of currencyIn.
	SimulateSwap(currencyIn types.Currency, amountIn *big.Int) (*big.Int, error)
	// Reserves returns the (possibly virtual) reserves of currency0 and currency1.
	Reserves() (*big.Int, *big.Int)
	Ref() types.PoolRef
}

// NewPool decodes a stored pool record into its swap oracle.
func NewPool(record *types.Pool) (Pool, error) {
	if record == nil {
		return nil, ErrNoState
	}
	if record.Fee >= FeeDenominator {
		return nil, fmt.Errorf("pool %s: fee %d out of range", record.Key(), record.Fee)
	}
	switch {
	case record.Exchange.IsV2():
		return NewV2Pool(record)
	case record.Exchange.IsV3(), record.Exchange.IsV4():
		return NewV3Pool(record)
	default:
		return nil, fmt.Errorf("pool %s: %w: %q", record.Key(), ErrUnsupportedDex, record.Exchange)
	}
}

// base holds the identity shared by every pool variant.
type base struct {
	address common.Address
	kind    types.DexKind
	fee     uint32
	token0  types.Currency
	token1  types.Currency
}

// newBase keeps a V4 pool's native side as is; older protocols only ever
// hold the wrapped form.
func newBase(record *types.Pool) base {
	t0, t1 := record.Token0, record.Token1
	if !record.Exchange.IsV4() {
		t0, t1 = t0.Wrapped(), t1.Wrapped()
	}
	return base{
		address: record.Address,
		kind:    record.Exchange,
		fee:     record.Fee,
		token0:  t0,
		token1:  t1,
	}
}

func (b *base) Address() common.Address   { return b.address }
func (b *base) Currency0() types.Currency { return b.token0 }
func (b *base) Currency1() types.Currency { return b.token1 }
func (b *base) Fee() uint32               { return b.fee }
func (b *base) DexKind() types.DexKind    { return b.kind }

func (b *base) Ref() types.PoolRef {
	return types.PoolRef{
		Address:  b.address,
		Exchange: b.kind,
		Fee:      b.fee,
		Token0:   b.token0,
		Token1:   b.token1,
	}
}

// zeroForOne resolves the swap direction for currencyIn.
func (b *base) zeroForOne(currencyIn types.Currency) (bool, error) {
	side, ok := sideOf(b.token0, b.token1, currencyIn)
	if !ok {
		return false, fmt.Errorf("pool %s: %w: %s", b.address.Hex(), ErrUnknownCurrency, currencyIn)
	}
	return side == 0, nil
}

// sideOf locates c among a pool's two currencies. An exact match wins; a
// native and its wrapped form otherwise stand for each other.
func sideOf(c0, c1, c types.Currency) (int, bool) {
	switch c.Key() {
	case c0.Key():
		return 0, true
	case c1.Key():
		return 1, true
	}
	switch c.Wrapped().Key() {
	case c0.Wrapped().Key():
		return 0, true
	case c1.Wrapped().Key():
		return 1, true
	}
	return 0, false
}

// OtherCurrency returns the currency a pool pays out when selling currencyIn.
func OtherCurrency(p Pool, currencyIn types.Currency) (types.Currency, bool) {
	side, ok := sideOf(p.Currency0(), p.Currency1(), currencyIn)
	switch {
	case !ok:
		return types.Currency{}, false
	case side == 0:
		return p.Currency1(), true
	default:
		return p.Currency0(), true
	}
}
