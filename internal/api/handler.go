package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"swap-router/config"
	"swap-router/internal/aggregator"
	"swap-router/internal/cache"
	"swap-router/internal/logger"
	"swap-router/internal/types"
)

// statsSource is implemented by stores that track hit rates.
type statsSource interface {
	GetStats() cache.CacheStats
}

type Handler struct {
	router  *aggregator.Router
	store   cache.Store
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHandler builds the HTTP handlers. A zero timeout leaves quote requests
// bounded only by the client's context.
func NewHandler(router *aggregator.Router, store cache.Store, timeout time.Duration) *Handler {
	return &Handler{
		router:  router,
		store:   store,
		timeout: timeout,
		logger:  logger.For("api"),
	}
}

// Register mounts every endpoint on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/quote", h.GetQuote).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/pools", h.GetPools).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/pools/search", h.GetPoolsByTokens).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/pools/{address}", h.GetPoolByAddress).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/tokens/{address}", h.GetToken).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cache/stats", h.GetCacheStats).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/config", h.GetConfig).Methods(http.MethodGet)
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		h.logger.Debug().Str("content_type", ct).Msg("rejected quote request")
		writeError(w, ErrBadRequest("Content-Type must be application/json"))
		return
	}

	var req types.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrBadRequest("Invalid JSON format: "+err.Error()))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	quote, err := h.router.GetQuote(ctx, &req)
	switch {
	case errors.Is(err, aggregator.ErrInvalidRequest), errors.Is(err, aggregator.ErrUnknownToken):
		writeError(w, ErrBadRequest(err.Error()))
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, ErrTimeout(""))
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("quote calculation failed")
		writeError(w, ErrInternal("Quote calculation failed"))
		return
	case quote.IsEmpty():
		writeError(w, ErrNoRoute())
		return
	}

	h.logger.Info().
		Str("token_in", req.TokenIn).
		Str("token_out", req.TokenOut).
		Str("amount_in", quote.AmountIn.String()).
		Str("amount_out", quote.AmountOut.String()).
		Int("split_routes", len(quote.SplitRoutes)).
		Msg("quote served")
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) GetPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.store.GetAllPools(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch pools")
		writeError(w, ErrInternal("Failed to fetch pools"))
		return
	}
	if pools == nil {
		pools = []*types.Pool{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(pools),
		"pools": pools,
	})
}

func (h *Handler) GetPoolByAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		writeError(w, ErrBadRequest("Invalid pool address"))
		return
	}

	pool, err := h.store.GetPool(r.Context(), address)
	switch {
	case errors.Is(err, cache.ErrPoolNotFound):
		writeError(w, ErrNotFound("Pool not found"))
		return
	case err != nil:
		h.logger.Error().Err(err).Str("pool", address).Msg("failed to fetch pool")
		writeError(w, ErrInternal("Failed to fetch pool"))
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *Handler) GetPoolsByTokens(w http.ResponseWriter, r *http.Request) {
	tokenA := r.URL.Query().Get("tokenA")
	tokenB := r.URL.Query().Get("tokenB")
	if tokenA == "" || tokenB == "" {
		writeError(w, ErrBadRequest("Both tokenA and tokenB parameters are required"))
		return
	}
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		writeError(w, ErrBadRequest("Invalid token address"))
		return
	}

	pools, err := h.store.GetPoolsByTokens(r.Context(), tokenA, tokenB)
	if err != nil {
		h.logger.Error().Err(err).Str("token_a", tokenA).Str("token_b", tokenB).Msg("pool search failed")
		writeError(w, ErrInternal("Failed to fetch pools"))
		return
	}
	if pools == nil {
		pools = []*types.Pool{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokenA": strings.ToLower(tokenA),
		"tokenB": strings.ToLower(tokenB),
		"count":  len(pools),
		"pools":  pools,
	})
}

func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		writeError(w, ErrBadRequest("Invalid token address"))
		return
	}

	token, err := h.store.GetToken(r.Context(), address)
	switch {
	case errors.Is(err, cache.ErrTokenNotFound):
		writeError(w, ErrNotFound("Token not found"))
		return
	case err != nil:
		writeError(w, ErrInternal("Failed to fetch token"))
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	src, ok := h.store.(statsSource)
	if !ok {
		writeError(w, ErrNotFound("Store does not track cache statistics"))
		return
	}
	writeJSON(w, http.StatusOK, src.GetStats())
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := config.AppConfig
	if cfg == nil {
		writeError(w, ErrInternal("Configuration not loaded"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":          cfg.Server.Port,
			"read_timeout":  cfg.Server.ReadTimeout,
			"write_timeout": cfg.Server.WriteTimeout,
		},
		"store": map[string]interface{}{
			"backend": cfg.Redis.Backend,
			"addr":    cfg.Redis.Addr,
			"db":      cfg.Redis.DB,
		},
		"ethereum": map[string]interface{}{
			"chain_id": cfg.Ethereum.ChainID,
		},
		"routing": cfg.Routing,
		"dex": map[string]interface{}{
			"base_tokens": cfg.DEX.BaseTokens,
			"token_count": len(cfg.DEX.BaseTokens),
		},
		"performance": map[string]interface{}{
			"cache_ttl":       cfg.Performance.CacheTTL.String(),
			"request_timeout": cfg.Performance.RequestTimeout.String(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *HTTPError) {
	writeJSON(w, e.StatusCode, e)
}
