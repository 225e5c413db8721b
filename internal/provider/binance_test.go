package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBinanceProviderFetchPrice(t *testing.T) {
	var gotPath, gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"65200.00000000"}`)
	}))
	t.Cleanup(srv.Close)

	p := NewBinanceProvider(testTracer, srv.Client())
	p.baseURL = srv.URL

	price, err := p.FetchPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "/api/v3/ticker/price", gotPath)
	require.Equal(t, "BTCUSDT", gotSymbol)
	require.InDelta(t, 65200, price, 1e-9)
}

func TestBinanceProviderInvalidSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	p := NewBinanceProvider(testTracer, srv.Client())
	p.baseURL = srv.URL
	p.retry = RetryPolicy{Attempts: 2, Delay: time.Millisecond}

	_, err := p.FetchPrice(context.Background(), "NOPEUSDT")
	require.Error(t, err)
	require.Contains(t, err.Error(), "binance API error 400")
	require.Contains(t, err.Error(), "NOPEUSDT")
}

func TestBinanceProviderTransportError(t *testing.T) {
	p := NewBinanceProvider(testTracer, &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})})
	p.retry = RetryPolicy{Attempts: 2, Delay: time.Millisecond}

	_, err := p.FetchPrice(context.Background(), "BTCUSDT")
	require.ErrorContains(t, err, "connection refused")
}

func TestBinanceProviderBadPrice(t *testing.T) {
	p := NewBinanceProvider(testTracer, &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]string{"symbol": "BTCUSDT", "price": "n/a"}), nil
	})})
	p.retry = RetryPolicy{Attempts: 1}

	_, err := p.FetchPrice(context.Background(), "BTCUSDT")
	require.ErrorContains(t, err, "parse binance price")
}
