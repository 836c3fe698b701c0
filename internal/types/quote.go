package types

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// RouteStep is one hop of an executed route.
type RouteStep struct {
	Pool        PoolRef  `json:"pool"`
	CurrencyIn  Currency `json:"currencyIn"`
	CurrencyOut Currency `json:"currencyOut"`
	AmountIn    *big.Int `json:"amountIn"`
	AmountOut   *big.Int `json:"amountOut"`
}

// MarshalJSON custom marshaler for RouteStep to handle big.Int
func (s RouteStep) MarshalJSON() ([]byte, error) {
	type Alias RouteStep
	return json.Marshal(&struct {
		AmountIn  string `json:"amountIn"`
		AmountOut string `json:"amountOut"`
		Alias
	}{
		AmountIn:  bigString(s.AmountIn),
		AmountOut: bigString(s.AmountOut),
		Alias:     (Alias)(s),
	})
}

// SplitRoute is one branch of a split quote together with its share of the input.
type SplitRoute struct {
	Route      []PoolRef   `json:"route"`
	Steps      []RouteStep `json:"steps"`
	AmountIn   *big.Int    `json:"amountIn"`
	AmountOut  *big.Int    `json:"amountOut"`
	Percentage float64     `json:"percentage"`
}

// MarshalJSON custom marshaler for SplitRoute to handle big.Int
func (s SplitRoute) MarshalJSON() ([]byte, error) {
	type Alias SplitRoute
	return json.Marshal(&struct {
		AmountIn  string `json:"amountIn"`
		AmountOut string `json:"amountOut"`
		Alias
	}{
		AmountIn:  bigString(s.AmountIn),
		AmountOut: bigString(s.AmountOut),
		Alias:     (Alias)(s),
	})
}

// Quote is the answer to a quote request. A quote with no route and no split
// routes means no route exists between the two currencies.
type Quote struct {
	CurrencyIn  Currency     `json:"currencyIn"`
	CurrencyOut Currency     `json:"currencyOut"`
	AmountIn    *big.Int     `json:"amountIn"`
	AmountOut   *big.Int     `json:"amountOut"`
	Route       []PoolRef    `json:"route"`
	SplitRoutes []SplitRoute `json:"splitRoutes,omitempty"`
	SwapSteps   []RouteStep  `json:"swapSteps"`
	// GasUnits is the estimated gas consumption of the whole quote.
	GasUnits   uint64          `json:"gasUnits"`
	GasCostUSD decimal.Decimal `json:"gasCostUsd"`
}

// IsEmpty reports whether the quote carries no route at all.
func (q *Quote) IsEmpty() bool {
	return q == nil || (len(q.Route) == 0 && len(q.SplitRoutes) == 0)
}

// MarshalJSON custom marshaler for Quote to handle big.Int
func (q *Quote) MarshalJSON() ([]byte, error) {
	type Alias Quote
	route := q.Route
	if route == nil {
		route = []PoolRef{}
	}
	steps := q.SwapSteps
	if steps == nil {
		steps = []RouteStep{}
	}
	return json.Marshal(&struct {
		AmountIn  string      `json:"amountIn"`
		AmountOut string      `json:"amountOut"`
		Route     []PoolRef   `json:"route"`
		SwapSteps []RouteStep `json:"swapSteps"`
		*Alias
	}{
		AmountIn:  bigString(q.AmountIn),
		AmountOut: bigString(q.AmountOut),
		Route:     route,
		SwapSteps: steps,
		Alias:     (*Alias)(q),
	})
}
