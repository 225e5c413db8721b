// Package mcpserver exposes the read-only bot views as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/marketing"
	"rotchain-bot/internal/metrics"
	"rotchain-bot/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName      = "rotchain-bot"
	maxAirdropLimit = 50
	maxPriceSymbols = 10
)

type PriceQuoter interface {
	Quotes(ctx context.Context, symbols []string) []domain.PriceQuote
	Currency() string
}

type PromotionLister interface {
	Promotions() []domain.Promotion
}

type DigestReader interface {
	Latest(ctx context.Context, job string) (domain.Digest, bool, error)
}

type Services struct {
	Prices     PriceQuoter
	Symbols    []string
	Promotions PromotionLister
	Marketing  *marketing.Marketing
	Digests    DigestReader
}

type PricesInput struct {
	Symbols []string `json:"symbols,omitempty" jsonschema:"tickers such as btc or eth; defaults to the configured watch list"`
}

type PricesOutput struct {
	Currency string              `json:"currency"`
	Quotes   []domain.PriceQuote `json:"quotes"`
}

type AirdropsInput struct {
	Status  string `json:"status,omitempty" jsonschema:"status filter such as open or upcoming"`
	Network string `json:"network,omitempty" jsonschema:"network filter such as ton, bsc or eth"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type AirdropsOutput struct {
	Airdrops []domain.Promotion `json:"airdrops"`
	Count    int                `json:"count"`
}

type RandomAirdropInput struct {
	Status  string `json:"status,omitempty" jsonschema:"preferred status; falls back to every entry"`
	Network string `json:"network,omitempty" jsonschema:"preferred network; falls back to every entry"`
}

type TextOutput struct {
	Text string `json:"text"`
}

type DigestInput struct {
	Job string `json:"job" jsonschema:"digest name: prices, airdrop or faucet"`
}

type DigestOutput struct {
	Job       string `json:"job"`
	Found     bool   `json:"found"`
	Text      string `json:"text,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func New(svc Services, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	t := &tools{svc: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prices",
		Description: "Compare CoinGecko and Binance prices and the spread between them.",
	}, t.getPrices)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_airdrops",
		Description: "List airdrop promotions from the local catalog.",
	}, t.listAirdrops)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "random_airdrop",
		Description: "Pick one airdrop promotion at random.",
	}, t.randomAirdrop)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "latest_digest",
		Description: "Return the last digest a scheduled job sent to the broadcast chat.",
	}, t.latestDigest)

	return server
}

type tools struct {
	svc Services
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func (t *tools) getPrices(ctx context.Context, _ *mcp.CallToolRequest, in PricesInput) (*mcp.CallToolResult, PricesOutput, error) {
	metrics.Commands.WithLabelValues("mcp_get_prices").Inc()
	var symbols []string
	for _, s := range in.Symbols {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) > maxPriceSymbols {
		return nil, PricesOutput{}, fmt.Errorf("at most %d symbols per call, got %d", maxPriceSymbols, len(symbols))
	}
	if len(symbols) == 0 {
		symbols = t.svc.Symbols
	}
	quotes := t.svc.Prices.Quotes(ctx, symbols)
	if quotes == nil {
		quotes = []domain.PriceQuote{}
	}
	out := PricesOutput{Currency: t.svc.Prices.Currency(), Quotes: quotes}
	return textResult(service.FormatQuotes(quotes, out.Currency)), out, nil
}

func (t *tools) listAirdrops(_ context.Context, _ *mcp.CallToolRequest, in AirdropsInput) (*mcp.CallToolResult, AirdropsOutput, error) {
	metrics.Commands.WithLabelValues("mcp_list_airdrops").Inc()
	if in.Limit < 0 {
		return nil, AirdropsOutput{}, fmt.Errorf("limit must not be negative, got %d", in.Limit)
	}
	limit := min(in.Limit, maxAirdropLimit)
	if limit == 0 {
		limit = service.AirdropListLimit
	}

	all := t.svc.Promotions.Promotions()
	items := marketing.FilterPromotions(all, in.Status, in.Network)
	if len(items) > limit {
		items = items[:limit]
	}
	items = append(make([]domain.Promotion, 0, len(items)), items...)
	for i := range items {
		if items[i].Tags == nil {
			items[i].Tags = []string{}
		}
	}

	text := t.svc.Marketing.FormatPromotions(all, domain.PromotionFilter{Status: in.Status, Network: in.Network, Limit: limit})
	return textResult(text), AirdropsOutput{Airdrops: items, Count: len(items)}, nil
}

func (t *tools) randomAirdrop(_ context.Context, _ *mcp.CallToolRequest, in RandomAirdropInput) (*mcp.CallToolResult, TextOutput, error) {
	metrics.Commands.WithLabelValues("mcp_random_airdrop").Inc()
	text := t.svc.Marketing.RandomPromotion(t.svc.Promotions.Promotions(), in.Status, in.Network)
	return textResult(text), TextOutput{Text: text}, nil
}

func (t *tools) latestDigest(ctx context.Context, _ *mcp.CallToolRequest, in DigestInput) (*mcp.CallToolResult, DigestOutput, error) {
	metrics.Commands.WithLabelValues("mcp_latest_digest").Inc()
	if !slices.Contains(domain.DigestJobs, in.Job) {
		return nil, DigestOutput{}, fmt.Errorf("%w: %q", service.ErrUnknownJob, in.Job)
	}
	if t.svc.Digests == nil {
		return textResult("No digest stored yet."), DigestOutput{Job: in.Job}, nil
	}

	d, ok, err := t.svc.Digests.Latest(ctx, in.Job)
	if err != nil {
		return nil, DigestOutput{}, fmt.Errorf("read digest %s: %w", in.Job, err)
	}
	if !ok {
		return textResult("No digest stored yet."), DigestOutput{Job: in.Job}, nil
	}
	return textResult(d.Text), DigestOutput{Job: d.Job, Found: true, Text: d.Text, CreatedAt: d.CreatedAt.Format(time.RFC3339)}, nil
}
