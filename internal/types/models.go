package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DexKind names the protocol variant a pool belongs to.
type DexKind string

const (
	DexUniswapV2     DexKind = "Uniswap V2"
	DexSushiSwap     DexKind = "SushiSwap"
	DexPancakeSwapV2 DexKind = "PancakeSwap V2"
	DexUniswapV3     DexKind = "Uniswap V3"
	DexPancakeSwapV3 DexKind = "PancakeSwap V3"
	DexUniswapV4     DexKind = "Uniswap V4"
)

// IsV2 reports whether the protocol prices trades with a constant product curve.
func (k DexKind) IsV2() bool {
	switch k {
	case DexUniswapV2, DexSushiSwap, DexPancakeSwapV2:
		return true
	}
	return false
}

// IsV3 reports whether the protocol uses concentrated liquidity.
func (k DexKind) IsV3() bool {
	return k == DexUniswapV3 || k == DexPancakeSwapV3
}

// IsV4 reports a singleton-manager pool. These are the only pools that can
// hold a chain's native asset directly.
func (k DexKind) IsV4() bool {
	return k == DexUniswapV4
}

// Pool is a point-in-time snapshot of a liquidity pool as kept by the store.
// Fee is expressed in hundredths of a bip (3000 = 0.30%).
type Pool struct {
	Address      common.Address `json:"address"`
	Exchange     DexKind        `json:"exchange"`
	Token0       Currency       `json:"token0"`
	Token1       Currency       `json:"token1"`
	Fee          uint32         `json:"fee"`
	Reserve0     *big.Int       `json:"reserve0"`
	Reserve1     *big.Int       `json:"reserve1"`
	SqrtPriceX96 *big.Int       `json:"sqrtPriceX96"`
	Liquidity    *big.Int       `json:"liquidity"`
	LastUpdated  time.Time      `json:"last_updated"`
}

// Key is the lowercase hex address used to index the pool.
func (p *Pool) Key() string {
	return strings.ToLower(p.Address.Hex())
}

// MarshalJSON custom marshaler for Pool to handle big.Int
func (p *Pool) MarshalJSON() ([]byte, error) {
	type Alias Pool
	return json.Marshal(&struct {
		Reserve0     string `json:"reserve0,omitempty"`
		Reserve1     string `json:"reserve1,omitempty"`
		SqrtPriceX96 string `json:"sqrtPriceX96,omitempty"`
		Liquidity    string `json:"liquidity,omitempty"`
		*Alias
	}{
		Reserve0:     bigString(p.Reserve0),
		Reserve1:     bigString(p.Reserve1),
		SqrtPriceX96: bigString(p.SqrtPriceX96),
		Liquidity:    bigString(p.Liquidity),
		Alias:        (*Alias)(p),
	})
}

// UnmarshalJSON custom unmarshaler for Pool to handle big.Int
func (p *Pool) UnmarshalJSON(data []byte) error {
	type Alias Pool
	aux := &struct {
		Reserve0     string `json:"reserve0"`
		Reserve1     string `json:"reserve1"`
		SqrtPriceX96 string `json:"sqrtPriceX96"`
		Liquidity    string `json:"liquidity"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.Reserve0, err = parseBig("reserve0", aux.Reserve0); err != nil {
		return err
	}
	if p.Reserve1, err = parseBig("reserve1", aux.Reserve1); err != nil {
		return err
	}
	if p.SqrtPriceX96, err = parseBig("sqrtPriceX96", aux.SqrtPriceX96); err != nil {
		return err
	}
	if p.Liquidity, err = parseBig("liquidity", aux.Liquidity); err != nil {
		return err
	}
	return nil
}

// PoolRef is the identity of a pool as needed by the transaction encoder.
type PoolRef struct {
	Address  common.Address `json:"address"`
	Exchange DexKind        `json:"exchange"`
	Fee      uint32         `json:"fee"`
	Token0   Currency       `json:"token0"`
	Token1   Currency       `json:"token1"`
}

// QuoteRequest request for price quote
type QuoteRequest struct {
	TokenIn        string   `json:"tokenIn"`
	TokenOut       string   `json:"tokenOut"`
	AmountIn       *big.Int `json:"amountIn"`
	MaxHops        int      `json:"maxHops,omitempty"`
	Split          bool     `json:"split,omitempty"`
	MaxSplitRoutes int      `json:"maxSplitRoutes,omitempty"`
	// BaseFee and PriorityFee are in wei; nil means the configured default.
	BaseFee     *big.Int `json:"baseFee,omitempty"`
	PriorityFee *big.Int `json:"priorityFee,omitempty"`
}

// UnmarshalJSON custom unmarshaler for QuoteRequest to handle big.Int
func (q *QuoteRequest) UnmarshalJSON(data []byte) error {
	type Alias QuoteRequest
	aux := &struct {
		AmountIn    string `json:"amountIn"`
		BaseFee     string `json:"baseFee"`
		PriorityFee string `json:"priorityFee"`
		*Alias
	}{
		Alias: (*Alias)(q),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if q.AmountIn, err = parseBig("amountIn", aux.AmountIn); err != nil {
		return err
	}
	if q.BaseFee, err = parseBig("baseFee", aux.BaseFee); err != nil {
		return err
	}
	if q.PriorityFee, err = parseBig("priorityFee", aux.PriorityFee); err != nil {
		return err
	}
	return nil
}

// MarshalJSON custom marshaler for QuoteRequest to handle big.Int
func (q *QuoteRequest) MarshalJSON() ([]byte, error) {
	type Alias QuoteRequest
	return json.Marshal(&struct {
		AmountIn    string `json:"amountIn"`
		BaseFee     string `json:"baseFee,omitempty"`
		PriorityFee string `json:"priorityFee,omitempty"`
		*Alias
	}{
		AmountIn:    bigString(q.AmountIn),
		BaseFee:     bigString(q.BaseFee),
		PriorityFee: bigString(q.PriorityFee),
		Alias:       (*Alias)(q),
	})
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func parseBig(field, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s format: %s", field, s)
	}
	return v, nil
}
