package price

import (
	"sync"

	"github.com/shopspring/decimal"

	"swap-router/internal/types"
)

// Table is an in-memory USD price table. Native currencies resolve to the
// price of their wrapped token.
type Table struct {
	mu     sync.RWMutex
	prices map[types.CurrencyKey]decimal.Decimal
}

func NewTable() *Table {
	return &Table{prices: make(map[types.CurrencyKey]decimal.Decimal)}
}

func (t *Table) Set(c types.Currency, usd decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[c.Wrapped().Key()] = usd
}

// USDPrice returns the price of one whole unit of c.
func (t *Table) USDPrice(c types.Currency) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[c.Wrapped().Key()]
	return p, ok
}

// Snapshot copies the table so a quote sees one consistent set of prices.
func (t *Table) Snapshot() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := make(map[types.CurrencyKey]decimal.Decimal, len(t.prices))
	for k, v := range t.prices {
		cp[k] = v
	}
	return &Table{prices: cp}
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.prices)
}
