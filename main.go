package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"swap-router/config"
	"swap-router/internal/aggregator"
	"swap-router/internal/api"
	"swap-router/internal/cache"
	"swap-router/internal/collector"
	"swap-router/internal/logger"
	"swap-router/internal/price"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize config")
	}
	cfg := config.AppConfig
	lg := logger.New(cfg.Log)

	lg.Info().
		Str("backend", cfg.Redis.Backend).
		Uint64("chain_id", cfg.Ethereum.ChainID).
		Msg("starting swap router")

	ctx := context.Background()
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer closeStore()

	prices := price.NewTable()
	if cfg.Ethereum.ChainID != 1 {
		lg.Warn().Uint64("chain_id", cfg.Ethereum.ChainID).Msg("mock pools are mainnet tokens; native routing will not reach them")
	}
	if err := collector.NewMockPoolCollector(store, prices).InitMockPools(ctx); err != nil {
		lg.Fatal().Err(err).Msg("failed to initialize mock data")
	}

	router := aggregator.NewRouter(store, prices, cfg.Routing, cfg.Ethereum.ChainID).
		WithConnectors(cfg.DEX.BaseTokens)
	handler := api.NewHandler(router, store, cfg.Performance.RequestTimeout)
	server := newServer(cfg, handler)

	go func() {
		lg.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	lg.Info().Str("signal", s.String()).Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}
	lg.Info().Msg("shutdown complete")
}

// newStore builds the pool store selected by STORE_BACKEND. The returned
// function releases any connection it holds.
func newStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	noop := func() {}
	switch cfg.Redis.Backend {
	case "", "memory":
		return cache.NewMemoryStore(), noop, nil
	case "redis", "two-level":
		rs := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		closeFn := func() { _ = rs.Close() }
		if cfg.Redis.Backend == "redis" {
			return rs, closeFn, nil
		}
		return cache.NewTwoLevelCache(rs, cfg.Performance.CacheTTL), closeFn, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Redis.Backend)
	}
}

func newServer(cfg *config.Config, handler *api.Handler) *http.Server {
	r := mux.NewRouter()
	handler.Register(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(accessLog)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	lg := logger.For("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := zerolog.DebugLevel
		if rec.status >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		lg.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
