package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}
}

func TestDexScreenerClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "bonk", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"schemaVersion": "1.0.0",
			"pairs": [{
				"chainId": "solana",
				"baseToken": {"address": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", "name": "Bonk", "symbol": "BONK"},
				"priceNative": "0.0000001234",
				"priceUsd": "0.00002",
				"txns": {"h1": {"buys": 10, "sells": "5"}, "h24": {"buys": 100, "sells": 90}},
				"volume": {"h1": 1500.5, "h24": "250000"},
				"priceChange": {"h1": -1.2, "h24": null},
				"liquidity": {"usd": 1000000},
				"marketCap": 1500000000,
				"pairCreatedAt": {"unexpected": true}
			}]
		}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0))
	resp, err := client.Search(context.Background(), "bonk")
	require.NoError(t, err)
	require.Len(t, resp.Pairs, 1)

	p := resp.Pairs[0]
	assert.Equal(t, "BONK", p.BaseToken.Symbol)
	assert.Equal(t, Number("0.0000001234"), p.PriceNative)
	assert.Equal(t, Number("5"), p.Txns.H1.Sells)
	assert.Equal(t, Number("250000"), p.Volume.H24)
	assert.Equal(t, Number(""), p.PriceChange.H24)
	assert.Equal(t, Number(""), p.PairCreatedAt)
	require.NotNil(t, p.Liquidity)
	assert.Equal(t, Number("1000000"), p.Liquidity.Usd)
}

func TestClient_RetriesOn429WithBackoff(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		n := len(stamps)
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0), WithRetryPolicy(fastRetry()))
	_, err := client.Search(context.Background(), "pump")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 50*time.Millisecond)
}

func TestClient_RetriesOn503(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0), WithRetryPolicy(fastRetry()))
	_, err := client.Search(context.Background(), "pump")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ExhaustedRetriesReturnAPIError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0), WithRetryPolicy(fastRetry()))
	_, err := client.Search(context.Background(), "pump")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0), WithRetryPolicy(fastRetry()))
	_, err := client.Search(context.Background(), "pump")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoesNotRetryMalformedBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(0), WithRetryPolicy(fastRetry()))
	_, err := client.Search(context.Background(), "pump")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitAppliesToEveryCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL, WithRateLimit(600)) // 100ms spacing
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), "pump")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestGeckoTerminalClient_TokensMulti(t *testing.T) {
	addrs := []string{
		"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		"EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/solana/tokens/multi/"+strings.Join(addrs, ","), r.URL.Path)
		assert.Equal(t, "top_pools", r.URL.Query().Get("include"))

		resp := map[string]any{
			"data": []map[string]any{{
				"id":   "solana_" + addrs[0],
				"type": "token",
				"attributes": map[string]any{
					"address":              addrs[0],
					"name":                 "Bonk",
					"symbol":               "BONK",
					"market_cap_usd":       nil,
					"fdv_usd":              "1800000000",
					"total_reserve_in_usd": "2500000.5",
					"volume_usd":           map[string]any{"h24": "50000"},
				},
				"relationships": map[string]any{
					"top_pools": map[string]any{"data": []map[string]any{{"id": "solana_pool1", "type": "pool"}}},
				},
			}},
			"included": []map[string]any{{
				"id":   "solana_pool1",
				"type": "pool",
				"attributes": map[string]any{
					"base_token_price_native_currency": "0.000000125",
					"transactions":                     map[string]any{"h1": map[string]any{"buys": 3, "sells": 4}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeckoTerminalClient(server.URL, WithRateLimit(0))
	resp, err := client.TokensMulti(context.Background(), addrs)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.Len(t, resp.Included, 1)

	assert.Equal(t, Number("1800000000"), resp.Data[0].Attributes.FdvUSD)
	assert.Equal(t, Number(""), resp.Data[0].Attributes.MarketCapUSD)
	assert.Equal(t, "solana_pool1", resp.Data[0].Relationships.TopPools.Data[0].ID)
	assert.Equal(t, Number("4"), resp.Included[0].Attributes.Transactions.H1.Sells)
}

func TestGeckoTerminalClient_RejectsOversizedBatch(t *testing.T) {
	client := NewGeckoTerminalClient("http://127.0.0.1:0", WithRateLimit(0))
	addrs := make([]string, GeckoTerminalMaxBatch+1)
	for i := range addrs {
		addrs[i] = "So11111111111111111111111111111111111111112"
	}

	_, err := client.TokensMulti(context.Background(), addrs)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestGeckoTerminalClient_WithMaxBatch(t *testing.T) {
	client := NewGeckoTerminalClient("http://127.0.0.1:0")
	assert.Equal(t, GeckoTerminalMaxBatch, client.MaxBatch())

	assert.Equal(t, 10, client.WithMaxBatch(10).MaxBatch())
	assert.Equal(t, 10, client.WithMaxBatch(0).MaxBatch())
	assert.Equal(t, 10, client.WithMaxBatch(GeckoTerminalMaxBatch+1).MaxBatch())
}

func TestGeckoTerminalClient_EmptyBatch(t *testing.T) {
	client := NewGeckoTerminalClient("http://127.0.0.1:0", WithRateLimit(0))
	resp, err := client.TokensMulti(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 1.5, "b": " 42 ", "c": null, "d": [1], "e": true}`), &v)
	require.NoError(t, err)

	assert.Equal(t, Number("1.5"), v.A)
	assert.Equal(t, Number("42"), v.B)
	assert.Equal(t, Number(""), v.C)
	assert.Equal(t, Number(""), v.D)
	assert.Equal(t, Number(""), v.E)
}
