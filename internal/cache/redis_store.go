package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"swap-router/internal/logger"
	"swap-router/internal/types"
)

const defaultRedisTTL = 24 * time.Hour

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(client, "swap:")
}

func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    defaultRedisTTL,
		logger: logger.For("redis_store"),
	}
}

func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) poolKey(address string) string {
	return fmt.Sprintf("%spool:%s", rs.prefix, normalizeAddress(address))
}

func (rs *RedisStore) pairKey(tokenA, tokenB string) string {
	return fmt.Sprintf("%stoken_pair:%s:%s", rs.prefix, normalizeAddress(tokenA), normalizeAddress(tokenB))
}

func (rs *RedisStore) allPoolsKey() string {
	return rs.prefix + "all_pools"
}

func (rs *RedisStore) StorePool(ctx context.Context, pool *types.Pool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}

	pairKey := rs.pairKey(tokenKey(pool.Token0), tokenKey(pool.Token1))
	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.poolKey(pool.Key()), data, rs.ttl)
	pipe.SAdd(ctx, pairKey, pool.Key())
	pipe.Expire(ctx, pairKey, rs.ttl)
	pipe.SAdd(ctx, rs.allPoolsKey(), pool.Key())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store pool %s: %w", pool.Key(), err)
	}
	return nil
}

func (rs *RedisStore) GetPool(ctx context.Context, address string) (*types.Pool, error) {
	data, err := rs.client.Get(ctx, rs.poolKey(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
		}
		return nil, err
	}

	var pool types.Pool
	if err := json.Unmarshal([]byte(data), &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetAllPools loads every indexed pool in one pipeline. Entries that expired
// or fail to decode are skipped.
func (rs *RedisStore) GetAllPools(ctx context.Context) ([]*types.Pool, error) {
	addrs, err := rs.client.SMembers(ctx, rs.allPoolsKey()).Result()
	if err != nil {
		return nil, err
	}
	return rs.getPools(ctx, addrs)
}

func (rs *RedisStore) getPools(ctx context.Context, addrs []string) ([]*types.Pool, error) {
	if len(addrs) == 0 {
		return []*types.Pool{}, nil
	}
	sort.Strings(addrs)

	pipe := rs.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(addrs))
	for i, addr := range addrs {
		cmds[i] = pipe.Get(ctx, rs.poolKey(addr))
	}
	// redis.Nil only means some keys expired
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	pools := make([]*types.Pool, 0, len(addrs))
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				rs.logger.Warn().Err(err).Str("pool", addrs[i]).Msg("failed to read pool")
			}
			continue
		}
		var pool types.Pool
		if err := json.Unmarshal([]byte(data), &pool); err != nil {
			rs.logger.Warn().Err(err).Str("pool", addrs[i]).Msg("failed to decode pool")
			continue
		}
		pools = append(pools, &pool)
	}
	return pools, nil
}

func (rs *RedisStore) GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*types.Pool, error) {
	addrs, err := rs.client.SUnion(ctx, rs.pairKey(tokenA, tokenB), rs.pairKey(tokenB, tokenA)).Result()
	if err != nil {
		return nil, err
	}
	return rs.getPools(ctx, addrs)
}

func (rs *RedisStore) StoreToken(ctx context.Context, token *types.Currency) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%stoken:%s", rs.prefix, tokenKey(*token))
	return rs.client.Set(ctx, key, data, rs.ttl).Err()
}

func (rs *RedisStore) GetToken(ctx context.Context, address string) (*types.Currency, error) {
	key := fmt.Sprintf("%stoken:%s", rs.prefix, normalizeAddress(address))
	data, err := rs.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, address)
		}
		return nil, err
	}

	var token types.Currency
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, err
	}
	return &token, nil
}
