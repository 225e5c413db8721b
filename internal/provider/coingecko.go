package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rotchain-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches spot prices from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	retry   RetryPolicy
}

// NewCoinGeckoProvider creates a provider limited to 8 requests per minute
// (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, client *http.Client) *CoinGeckoProvider {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &CoinGeckoProvider{
		client:  client,
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
		retry:   DefaultRetryPolicy,
	}
}

// FetchPrices returns the price of every CoinGecko id in a single batched call.
// Ids missing from the response are absent from the map.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, ids []string, vs string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("ids", ids), attribute.String("vs", vs))

	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vs)
	endpoint := fmt.Sprintf("%s/simple/price?%s", p.baseURL, q.Encode())

	// Response shape: {"bitcoin": {"usd": 65000}, ...}
	raw, err := WithRetry(ctx, p.retry, func(ctx context.Context) (map[string]map[string]float64, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		var body map[string]map[string]float64
		if err := getJSON(ctx, p.client, "coingecko", endpoint, &body); err != nil {
			return nil, err
		}
		return body, nil
	})
	metrics.UpstreamRequests.WithLabelValues("coingecko", metrics.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch coingecko prices: %w", err)
	}

	out := make(map[string]float64, len(raw))
	for id, quotes := range raw {
		out[id] = quotes[vs]
	}
	return out, nil
}
