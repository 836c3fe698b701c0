package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"swap-router/internal/logger"
	"swap-router/internal/types"
)

type MemoryStore struct {
	pools      map[string]*types.Pool
	tokens     map[string]*types.Currency
	tokenPairs map[string]map[string][]string
	mutex      sync.RWMutex
	logger     zerolog.Logger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:      make(map[string]*types.Pool),
		tokens:     make(map[string]*types.Currency),
		tokenPairs: make(map[string]map[string][]string),
		logger:     logger.For("memory_store"),
	}
}

func (ms *MemoryStore) StorePool(ctx context.Context, pool *types.Pool) error {
	if pool == nil {
		return fmt.Errorf("nil pool")
	}
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	key := pool.Key()
	_, exists := ms.pools[key]
	ms.pools[key] = pool
	if exists {
		return nil
	}

	token0 := tokenKey(pool.Token0)
	token1 := tokenKey(pool.Token1)
	if ms.tokenPairs[token0] == nil {
		ms.tokenPairs[token0] = make(map[string][]string)
	}
	if ms.tokenPairs[token1] == nil {
		ms.tokenPairs[token1] = make(map[string][]string)
	}
	ms.tokenPairs[token0][token1] = append(ms.tokenPairs[token0][token1], key)
	if token0 != token1 {
		ms.tokenPairs[token1][token0] = append(ms.tokenPairs[token1][token0], key)
	}

	ms.logger.Debug().
		Str("pool", key).
		Str("exchange", string(pool.Exchange)).
		Str("pair", pool.Token0.Symbol+"/"+pool.Token1.Symbol).
		Msg("pool indexed")
	return nil
}

func (ms *MemoryStore) GetPool(ctx context.Context, address string) (*types.Pool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	pool, exists := ms.pools[normalizeAddress(address)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	return pool, nil
}

func (ms *MemoryStore) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*types.Pool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	var pools []*types.Pool
	if pairs, ok := ms.tokenPairs[normalizeAddress(tokenA)]; ok {
		for _, addr := range pairs[normalizeAddress(tokenB)] {
			if pool, exists := ms.pools[addr]; exists {
				pools = append(pools, pool)
			}
		}
	}
	return pools, nil
}

// GetAllPools returns every pool ordered by address.
func (ms *MemoryStore) GetAllPools(ctx context.Context) ([]*types.Pool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	pools := make([]*types.Pool, 0, len(ms.pools))
	for _, pool := range ms.pools {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Key() < pools[j].Key() })
	return pools, nil
}

func (ms *MemoryStore) StoreToken(ctx context.Context, token *types.Currency) error {
	if token == nil {
		return fmt.Errorf("nil token")
	}
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	cp := *token
	ms.tokens[tokenKey(cp)] = &cp
	return nil
}

func (ms *MemoryStore) GetToken(ctx context.Context, address string) (*types.Currency, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	token, ok := ms.tokens[normalizeAddress(address)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, address)
	}
	cp := *token
	return &cp, nil
}

// Clear drops every pool and token.
func (ms *MemoryStore) Clear() {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	ms.pools = make(map[string]*types.Pool)
	ms.tokens = make(map[string]*types.Currency)
	ms.tokenPairs = make(map[string]map[string][]string)
}

func (ms *MemoryStore) Len() int {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	return len(ms.pools)
}
