package aggregator

import (
	"strings"

	"github.com/rs/zerolog"

	"swap-router/internal/amm"
	"swap-router/internal/logger"
	"swap-router/internal/types"
)

// LiquidityFilter marks which pools may take part in routing.
type LiquidityFilter interface {
	HasSufficientLiquidity(p amm.Pool) bool
}

// Path is an acyclic sequence of pools. Currencies[i] is sold into Pools[i]
// and Currencies[i+1] comes out of it.
type Path struct {
	Pools      []amm.Pool
	Currencies []types.Currency
}

func (p Path) Hops() int {
	return len(p.Pools)
}

func (p Path) String() string {
	symbols := make([]string, len(p.Currencies))
	for i, c := range p.Currencies {
		symbols[i] = c.String()
	}
	return strings.Join(symbols, " -> ")
}

// contains reports whether c (or its wrapped form) is already on the path.
func (p Path) contains(c types.Currency) bool {
	key := c.Wrapped().Key()
	for _, cur := range p.Currencies {
		if cur.Wrapped().Key() == key {
			return true
		}
	}
	return false
}

func (p Path) extend(pool amm.Pool, next types.Currency) Path {
	pools := make([]amm.Pool, len(p.Pools), len(p.Pools)+1)
	copy(pools, p.Pools)
	currencies := make([]types.Currency, len(p.Currencies), len(p.Currencies)+1)
	copy(currencies, p.Currencies)
	return Path{
		Pools:      append(pools, pool),
		Currencies: append(currencies, next),
	}
}

type edge struct {
	next types.Currency
	pool amm.Pool
}

type PathFinder struct {
	logger zerolog.Logger
}

func NewPathFinder() *PathFinder {
	return &PathFinder{logger: logger.For("path_finder")}
}

// ConnectorSet restricts which currencies may sit inside a path. Matching is
// on the wrapped key. A nil set admits every currency.
type ConnectorSet map[types.CurrencyKey]struct{}

func NewConnectorSet(currencies []types.Currency) ConnectorSet {
	if len(currencies) == 0 {
		return nil
	}
	set := make(ConnectorSet, len(currencies))
	for _, c := range currencies {
		set[c.Wrapped().Key()] = struct{}{}
	}
	return set
}

func (s ConnectorSet) allows(c types.Currency) bool {
	if s == nil {
		return true
	}
	_, ok := s[c.Wrapped().Key()]
	return ok
}

// buildGraph indexes pools by the canonical (wrapped) key of each side, in
// pool order, so a native currency shares a node with its wrapped token. Each
// edge carries the currency the pool actually pays out.
func buildGraph(pools []amm.Pool, filter LiquidityFilter) map[types.CurrencyKey][]edge {
	graph := make(map[types.CurrencyKey][]edge)
	seen := make(map[string]struct{}, len(pools))
	for _, p := range pools {
		id := strings.ToLower(p.Address().Hex())
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if filter != nil && !filter.HasSufficientLiquidity(p) {
			continue
		}
		if p.Currency0().Wrapped().Key() == p.Currency1().Wrapped().Key() {
			continue
		}
		for _, side := range []types.Currency{p.Currency0(), p.Currency1()} {
			next, _ := amm.OtherCurrency(p, side)
			key := side.Wrapped().Key()
			graph[key] = append(graph[key], edge{next: next, pool: p})
		}
	}
	return graph
}

// FindAllPaths enumerates every acyclic path of at most maxHops pools from
// start to end, breadth first, through any intermediate currency.
func (pf *PathFinder) FindAllPaths(pools []amm.Pool, filter LiquidityFilter, start, end types.Currency, maxHops int) []Path {
	return pf.FindPathsVia(pools, filter, nil, start, end, maxHops)
}

// FindPathsVia is FindAllPaths with intermediate currencies limited to
// connectors. Results are in discovery order: shorter paths first, ties in
// pool order. The first and last currency of each path are the requested
// start and end as given; an interior currency is whatever the previous pool
// pays out, so a native pool keeps the native asset on the path.
func (pf *PathFinder) FindPathsVia(pools []amm.Pool, filter LiquidityFilter, connectors ConnectorSet, start, end types.Currency, maxHops int) []Path {
	if maxHops <= 0 || len(pools) == 0 {
		return nil
	}
	startKey, endKey := start.Wrapped().Key(), end.Wrapped().Key()
	if startKey == endKey {
		return nil
	}

	graph := buildGraph(pools, filter)
	if len(graph[startKey]) == 0 {
		pf.logger.Debug().Str("start", start.String()).Msg("no pools touch start currency")
		return nil
	}

	var results []Path
	queue := []Path{{Currencies: []types.Currency{start}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Hops() >= maxHops {
			continue
		}

		tail := cur.Currencies[len(cur.Currencies)-1]
		for _, e := range graph[tail.Wrapped().Key()] {
			if cur.contains(e.next) {
				continue
			}
			if e.next.Wrapped().Key() == endKey {
				// the end currency can never be left again without revisiting it,
				// so a completed path is not extended further
				results = append(results, cur.extend(e.pool, end))
				continue
			}
			if !connectors.allows(e.next) {
				continue
			}
			queue = append(queue, cur.extend(e.pool, e.next))
		}
	}

	pf.logger.Debug().
		Str("from", start.String()).
		Str("to", end.String()).
		Int("max_hops", maxHops).
		Int("connectors", len(connectors)).
		Int("paths", len(results)).
		Msg("paths discovered")
	return results
}
