package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"swap-router/internal/logger"
	"swap-router/internal/types"
)

// TwoLevelCache fronts a shared store (Redis in production) with a local
// memory copy whose pool entries expire after localTTL.
type TwoLevelCache struct {
	localCache *MemoryStore
	remote     Store
	localTTL   time.Duration
	expiry     map[string]time.Time
	mutex      sync.Mutex
	stats      cacheCounters
	logger     zerolog.Logger
}

// CacheStats is a point-in-time copy of the hit and miss counters.
type CacheStats struct {
	LocalHits    int64 `json:"local_hits"`
	LocalMisses  int64 `json:"local_misses"`
	RemoteHits   int64 `json:"remote_hits"`
	RemoteMisses int64 `json:"remote_misses"`
}

type cacheCounters struct {
	localHits    atomic.Int64
	localMisses  atomic.Int64
	remoteHits   atomic.Int64
	remoteMisses atomic.Int64
}

func NewTwoLevelCache(remote Store, localTTL time.Duration) *TwoLevelCache {
	return &TwoLevelCache{
		localCache: NewMemoryStore(),
		remote:     remote,
		localTTL:   localTTL,
		expiry:     make(map[string]time.Time),
		logger:     logger.For("two_level_cache"),
	}
}

func (tlc *TwoLevelCache) storeLocal(ctx context.Context, pool *types.Pool) {
	if err := tlc.localCache.StorePool(ctx, pool); err != nil {
		tlc.logger.Warn().Err(err).Str("pool", pool.Key()).Msg("failed to store pool locally")
		return
	}
	tlc.mutex.Lock()
	tlc.expiry[pool.Key()] = time.Now().Add(tlc.localTTL)
	tlc.mutex.Unlock()
}

func (tlc *TwoLevelCache) fresh(address string) bool {
	tlc.mutex.Lock()
	defer tlc.mutex.Unlock()
	exp, ok := tlc.expiry[normalizeAddress(address)]
	return ok && time.Now().Before(exp)
}

// StorePool writes through to the remote store; the local copy is best effort.
func (tlc *TwoLevelCache) StorePool(ctx context.Context, pool *types.Pool) error {
	tlc.storeLocal(ctx, pool)
	if err := tlc.remote.StorePool(ctx, pool); err != nil {
		return fmt.Errorf("failed to store pool remotely: %w", err)
	}
	return nil
}

func (tlc *TwoLevelCache) GetPool(ctx context.Context, address string) (*types.Pool, error) {
	if tlc.fresh(address) {
		if pool, err := tlc.localCache.GetPool(ctx, address); err == nil {
			tlc.stats.localHits.Add(1)
			return pool, nil
		}
	}
	tlc.stats.localMisses.Add(1)

	pool, err := tlc.remote.GetPool(ctx, address)
	if err != nil {
		if errors.Is(err, ErrPoolNotFound) {
			tlc.stats.remoteMisses.Add(1)
		}
		return nil, err
	}
	tlc.stats.remoteHits.Add(1)
	tlc.storeLocal(ctx, pool)
	return pool, nil
}

// GetAllPools always reads the remote store, which is the source of truth,
// and refreshes the local copy with the result.
func (tlc *TwoLevelCache) GetAllPools(ctx context.Context) ([]*types.Pool, error) {
	pools, err := tlc.remote.GetAllPools(ctx)
	if err != nil {
		return nil, err
	}
	for _, pool := range pools {
		tlc.storeLocal(ctx, pool)
	}
	return pools, nil
}

func (tlc *TwoLevelCache) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*types.Pool, error) {
	return tlc.remote.GetPoolsByTokens(ctx, tokenA, tokenB)
}

func (tlc *TwoLevelCache) StoreToken(ctx context.Context, token *types.Currency) error {
	if err := tlc.localCache.StoreToken(ctx, token); err != nil {
		tlc.logger.Warn().Err(err).Msg("failed to store token locally")
	}
	return tlc.remote.StoreToken(ctx, token)
}

// GetToken serves token metadata locally when present; it never goes stale.
func (tlc *TwoLevelCache) GetToken(ctx context.Context, address string) (*types.Currency, error) {
	if token, err := tlc.localCache.GetToken(ctx, address); err == nil {
		return token, nil
	}
	token, err := tlc.remote.GetToken(ctx, address)
	if err != nil {
		return nil, err
	}
	_ = tlc.localCache.StoreToken(ctx, token)
	return token, nil
}

func (tlc *TwoLevelCache) GetStats() CacheStats {
	return CacheStats{
		LocalHits:    tlc.stats.localHits.Load(),
		LocalMisses:  tlc.stats.localMisses.Load(),
		RemoteHits:   tlc.stats.remoteHits.Load(),
		RemoteMisses: tlc.stats.remoteMisses.Load(),
	}
}

// ClearLocalCache drops the local copy; the next reads go to the remote store.
func (tlc *TwoLevelCache) ClearLocalCache() {
	tlc.localCache.Clear()
	tlc.mutex.Lock()
	tlc.expiry = make(map[string]time.Time)
	tlc.mutex.Unlock()
	tlc.logger.Info().Msg("local cache cleared")
}
