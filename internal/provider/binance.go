package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"rotchain-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com"

// BinanceProvider fetches last-trade prices for exchange pairs such as BTCUSDT.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	retry   RetryPolicy
}

func NewBinanceProvider(tracer trace.Tracer, client *http.Client) *BinanceProvider {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &BinanceProvider{
		client:  client,
		baseURL: binanceBaseURL,
		tracer:  tracer,
		retry:   DefaultRetryPolicy,
	}
}

// FetchPrice returns the latest price of one pair.
func (p *BinanceProvider) FetchPrice(ctx context.Context, pair string) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-price")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair))

	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?%s", p.baseURL, url.Values{"symbol": {pair}}.Encode())

	price, err := WithRetry(ctx, p.retry, func(ctx context.Context) (float64, error) {
		var body struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		}
		if err := getJSON(ctx, p.client, "binance", endpoint, &body); err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(body.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("parse binance price %q: %w", body.Price, err)
		}
		return v, nil
	})
	metrics.UpstreamRequests.WithLabelValues("binance", metrics.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("fetch binance price for %s: %w", pair, err)
	}
	return price, nil
}
