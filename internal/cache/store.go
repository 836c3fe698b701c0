package cache

import (
	"context"
	"errors"
	"strings"

	"swap-router/internal/types"
)

var (
	ErrPoolNotFound  = errors.New("pool not found")
	ErrTokenNotFound = errors.New("token not found")
)

// Store keeps pool snapshots and token metadata. Addresses are matched
// case-insensitively.
type Store interface {
	StorePool(ctx context.Context, pool *types.Pool) error
	GetPool(ctx context.Context, address string) (*types.Pool, error)
	GetPoolsByTokens(ctx context.Context, tokenA, tokenB string) ([]*types.Pool, error)
	GetAllPools(ctx context.Context) ([]*types.Pool, error)
	StoreToken(ctx context.Context, token *types.Currency) error
	GetToken(ctx context.Context, address string) (*types.Currency, error)
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func tokenKey(c types.Currency) string {
	return strings.ToLower(c.Address.Hex())
}
