package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rotchain-bot/internal/domain"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubSpot struct {
	prices map[string]float64
	err    error
	calls  [][]string
}

func (s *stubSpot) FetchPrices(_ context.Context, ids []string, _ string) (map[string]float64, error) {
	s.calls = append(s.calls, ids)
	if s.err != nil {
		return nil, s.err
	}
	return s.prices, nil
}

type stubPair struct {
	prices map[string]float64
	err    error
}

func (s *stubPair) FetchPrice(_ context.Context, pair string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	p, ok := s.prices[pair]
	if !ok {
		return 0, errors.New("unknown pair")
	}
	return p, nil
}

func newTestPriceService(spot *stubSpot, pair *stubPair) *PriceService {
	return NewPriceService(noop.NewTracerProvider().Tracer("test"), spot, pair, "usd")
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "bitcoin", NormalizeSymbol(" BTC "))
	require.Equal(t, "the-open-network", NormalizeSymbol("ton"))
	require.Equal(t, "dogecoin", NormalizeSymbol("DogeCoin"))
	require.Equal(t, []string{"ethereum", "solana"}, NormalizeSymbols([]string{"eth", "sol"}))
}

func TestBinancePair(t *testing.T) {
	require.Equal(t, "BTCUSDT", BinancePair("btc", "usd"))
	require.Equal(t, "BTCUSDT", BinancePair("bitcoin", "usd"))
	require.Equal(t, "BTCUSDT", BinancePair("btcusdt", "usd"))
	require.Equal(t, "ETHEUR", BinancePair("eth", "eur"))
}

func TestPricesBatchesAndDropsNonPositive(t *testing.T) {
	spot := &stubSpot{prices: map[string]float64{"bitcoin": 65000, "ethereum": 0}}
	s := newTestPriceService(spot, &stubPair{})

	got := s.Prices(context.Background(), []string{"BTC", "eth", "btc"})
	require.Equal(t, map[string]float64{"btc": 65000}, got)
	require.Len(t, spot.calls, 1)
	require.Equal(t, []string{"bitcoin", "ethereum"}, spot.calls[0])
}

func TestPricesDegradesOnFailure(t *testing.T) {
	s := newTestPriceService(&stubSpot{err: errors.New("boom")}, &stubPair{})
	require.Empty(t, s.Prices(context.Background(), []string{"btc"}))
}

func TestCompareComputesSpread(t *testing.T) {
	s := newTestPriceService(
		&stubSpot{prices: map[string]float64{"bitcoin": 65000}},
		&stubPair{prices: map[string]float64{"BTCUSDT": 65200}},
	)

	q := s.Compare(context.Background(), "btc")
	require.True(t, q.HasSpread())
	require.InDelta(t, 0.3077, *q.SpreadPct, 0.001)

	out := FormatQuotes([]domain.PriceQuote{q}, "usd")
	require.Contains(t, out, "65000.00 USD")
	require.Contains(t, out, "65200.00 USDT")
	require.Contains(t, out, "+0.31%")
}

func TestCompareWithOneSourceMissing(t *testing.T) {
	s := newTestPriceService(
		&stubSpot{err: errors.New("rate limited")},
		&stubPair{prices: map[string]float64{"ETHUSDT": 3100}},
	)

	q := s.Compare(context.Background(), "eth")
	require.False(t, q.HasSpread())
	require.Zero(t, q.CoinGecko)
	require.Equal(t, 3100.0, q.Binance)
}

func TestQuotesSingleSymbolMatchesCompare(t *testing.T) {
	spot := &stubSpot{prices: map[string]float64{"bitcoin": 65000}}
	s := newTestPriceService(spot, &stubPair{prices: map[string]float64{"BTCUSDT": 65200}})

	quotes := s.Quotes(context.Background(), []string{"btc"})
	require.Len(t, quotes, 1)
	require.Len(t, spot.calls, 1)
	require.Equal(t, s.Compare(context.Background(), "btc"), quotes[0])
}

func TestQuotesKeepsInputOrder(t *testing.T) {
	s := newTestPriceService(
		&stubSpot{prices: map[string]float64{"bitcoin": 100, "ethereum": 10}},
		&stubPair{prices: map[string]float64{"BTCUSDT": 101}},
	)

	quotes := s.Quotes(context.Background(), []string{"eth", "btc", "xyz"})
	require.Len(t, quotes, 3)
	require.Equal(t, "eth", quotes[0].Symbol)
	require.Equal(t, "btc", quotes[1].Symbol)
	require.True(t, quotes[1].HasSpread())

	lines := strings.Split(FormatQuotes(quotes, "usd"), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "• <b>ETH</b> CG: <code>10.00 USD</code> | insufficient data.", lines[1])
	require.Equal(t, "• <b>XYZ</b> insufficient data.", lines[3])
}

func TestMoveAlerts(t *testing.T) {
	s := newTestPriceService(&stubSpot{}, &stubPair{})
	first := []domain.PriceQuote{{Symbol: "btc", CoinGecko: 100}, {Symbol: "eth", CoinGecko: 100}}
	require.Empty(t, s.MoveAlerts(first, 3, 3))

	next := []domain.PriceQuote{{Symbol: "btc", CoinGecko: 104}, {Symbol: "eth", CoinGecko: 96}, {Symbol: "sol"}}
	alerts := s.MoveAlerts(next, 3, 3)
	require.Len(t, alerts, 2)
	require.Contains(t, alerts[0], "BTC")
	require.Contains(t, alerts[0], "+4.00%")
	require.Contains(t, alerts[1], "-4.00%")
}
