package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-router/config"
	"swap-router/internal/aggregator"
	"swap-router/internal/api"
	"swap-router/internal/cache"
	"swap-router/internal/collector"
	"swap-router/internal/price"
	"swap-router/internal/types"
)

func startService(t *testing.T, store cache.Store) *httptest.Server {
	t.Helper()
	require.NoError(t, config.Init())

	prices := price.NewTable()
	require.NoError(t, collector.NewMockPoolCollector(store, prices).InitMockPools(context.Background()))

	router := aggregator.NewRouter(store, prices, config.AppConfig.Routing, 1).
		WithConnectors(config.AppConfig.DEX.BaseTokens)
	server := newServer(config.AppConfig, api.NewHandler(router, store, 10*time.Second))
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postQuote(t *testing.T, ts *httptest.Server, req types.QuoteRequest) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(&req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/quote", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// TestIntegration_CompleteFlow drives a quote through HTTP, router, engine
// and the seeded store.
func TestIntegration_CompleteFlow(t *testing.T) {
	ts := startService(t, cache.NewMemoryStore())
	amountIn, _ := new(big.Int).SetString("5000000000000000000", 10)

	single := types.QuoteRequest{
		TokenIn:  collector.WETH.Address.Hex(),
		TokenOut: collector.DAI.Address.Hex(),
		AmountIn: amountIn,
	}
	resp, body := postQuote(t, ts, single)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var singleQuote struct {
		AmountOut string          `json:"amountOut"`
		SwapSteps []interface{}   `json:"swapSteps"`
		Route     []types.PoolRef `json:"route"`
	}
	require.NoError(t, json.Unmarshal(body, &singleQuote))
	assert.NotEmpty(t, singleQuote.Route)
	assert.Len(t, singleQuote.SwapSteps, len(singleQuote.Route))

	split := single
	split.Split = true
	resp, body = postQuote(t, ts, split)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var splitQuote struct {
		AmountOut string `json:"amountOut"`
	}
	require.NoError(t, json.Unmarshal(body, &splitQuote))

	singleOut, _ := new(big.Int).SetString(singleQuote.AmountOut, 10)
	splitOut, _ := new(big.Int).SetString(splitQuote.AmountOut, 10)
	assert.True(t, splitOut.Cmp(singleOut) >= 0, "split %s < single %s", splitOut, singleOut)
}

func TestIntegration_ConcurrentQuotesAgree(t *testing.T) {
	ts := startService(t, cache.NewMemoryStore())
	amountIn, _ := new(big.Int).SetString("20000000000000000000", 10)
	req := types.QuoteRequest{
		TokenIn:  collector.WETH.Address.Hex(),
		TokenOut: collector.USDC.Address.Hex(),
		AmountIn: amountIn,
		Split:    true,
	}

	payload, err := json.Marshal(&req)
	require.NoError(t, err)

	const n = 16
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/api/v1/quote", "application/json", bytes.NewReader(payload))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(resp.Body)
			if assert.Equal(t, http.StatusOK, resp.StatusCode) {
				results[i] = buf.String()
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.JSONEq(t, results[0], results[i])
	}
}

func TestIntegration_MetricsExposed(t *testing.T) {
	ts := startService(t, cache.NewMemoryStore())
	amountIn := big.NewInt(1_000_000_000)
	resp, _ := postQuote(t, ts, types.QuoteRequest{
		TokenIn:  collector.USDC.Address.Hex(),
		TokenOut: collector.USDT.Address.Hex(),
		AmountIn: amountIn,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "swap_router_quote_requests_total")
	assert.Contains(t, buf.String(), "swap_router_pool_count")
}

func TestIntegration_TwoLevelRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rs := cache.NewRedisStore(addr, "", 15)
	t.Cleanup(func() { _ = rs.Close() })
	tlc := cache.NewTwoLevelCache(rs, time.Minute)

	ts := startService(t, tlc)
	resp, body := postQuote(t, ts, types.QuoteRequest{
		TokenIn:  collector.WETH.Address.Hex(),
		TokenOut: collector.USDT.Address.Hex(),
		AmountIn: big.NewInt(1_000_000_000_000_000),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	stats, err := http.Get(ts.URL + "/api/v1/cache/stats")
	require.NoError(t, err)
	defer stats.Body.Close()
	assert.Equal(t, http.StatusOK, stats.StatusCode)
}
