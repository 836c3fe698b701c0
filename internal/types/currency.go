package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSentinel is the pseudo-address API callers use for a chain's native asset.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Currency is either a chain's native asset or an ERC20 token.
type Currency struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals int            `json:"decimals"`
	Native   bool           `json:"native,omitempty"`
}

// CurrencyKey identifies a currency independently of its display metadata.
type CurrencyKey struct {
	ChainID uint64
	Address common.Address
	Native  bool
}

func (c Currency) IsNative() bool {
	return c.Native
}

func (c Currency) Key() CurrencyKey {
	return CurrencyKey{ChainID: c.ChainID, Address: c.Address, Native: c.Native}
}

func (c Currency) Equal(other Currency) bool {
	return c.Key() == other.Key()
}

// Wrapped returns the canonical ERC20 form: the wrapped native token for a
// native currency, the currency itself otherwise.
func (c Currency) Wrapped() Currency {
	if !c.Native {
		return c
	}
	if w, ok := WrappedNative(c.ChainID); ok {
		return w
	}
	return c
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.Native {
		return fmt.Sprintf("native(%d)", c.ChainID)
	}
	return strings.ToLower(c.Address.Hex())
}

type nativeInfo struct {
	symbol  string
	wrapped Currency
}

var nativeByChain = map[uint64]nativeInfo{
	1: {"ETH", Currency{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}},
	10: {"ETH", Currency{ChainID: 10, Address: common.HexToAddress("0x4200000000000000000000000000000000000006"), Symbol: "WETH", Decimals: 18}},
	56: {"BNB", Currency{ChainID: 56, Address: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), Symbol: "WBNB", Decimals: 18}},
	8453: {"ETH", Currency{ChainID: 8453, Address: common.HexToAddress("0x4200000000000000000000000000000000000006"), Symbol: "WETH", Decimals: 18}},
	42161: {"ETH", Currency{ChainID: 42161, Address: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), Symbol: "WETH", Decimals: 18}},
}

// NativeCurrency returns the native asset of a supported chain.
func NativeCurrency(chainID uint64) (Currency, bool) {
	info, ok := nativeByChain[chainID]
	if !ok {
		return Currency{}, false
	}
	return Currency{ChainID: chainID, Symbol: info.symbol, Decimals: 18, Native: true}, true
}

// WrappedNative returns the wrapped native token of a supported chain.
func WrappedNative(chainID uint64) (Currency, bool) {
	info, ok := nativeByChain[chainID]
	if !ok {
		return Currency{}, false
	}
	return info.wrapped, true
}

// IsNativeAddress reports whether a request address denotes the native asset.
func IsNativeAddress(addr common.Address) bool {
	return addr == NativeSentinel || addr == (common.Address{})
}
