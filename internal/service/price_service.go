package service

import (
	"context"
	"fmt"
	"strings"

	"rotchain-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SpotPriceSource is the batched source keyed by CoinGecko id.
type SpotPriceSource interface {
	FetchPrices(ctx context.Context, ids []string, vs string) (map[string]float64, error)
}

// PairPriceSource is the per-pair exchange source.
type PairPriceSource interface {
	FetchPrice(ctx context.Context, pair string) (float64, error)
}

// PriceService compares quotes from the two market data sources.
type PriceService struct {
	tracer    trace.Tracer
	coingecko SpotPriceSource
	binance   PairPriceSource
	vs        string
	memory    *PriceMemory
}

func NewPriceService(tracer trace.Tracer, coingecko SpotPriceSource, binance PairPriceSource, vs string) *PriceService {
	if vs == "" {
		vs = "usd"
	}
	return &PriceService{
		tracer:    tracer,
		coingecko: coingecko,
		binance:   binance,
		vs:        strings.ToLower(vs),
		memory:    NewPriceMemory(),
	}
}

// Currency is the valuation currency used for CoinGecko lookups.
func (s *PriceService) Currency() string {
	return s.vs
}

// NormalizeSymbol maps a well-known ticker to its CoinGecko id. Anything else
// is passed through lowercased.
func NormalizeSymbol(symbol string) string {
	k := strings.ToLower(strings.TrimSpace(symbol))
	if id, ok := domain.TickerToCoinGeckoID[k]; ok {
		return id
	}
	return k
}

func NormalizeSymbols(symbols []string) []string {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		ids = append(ids, NormalizeSymbol(s))
	}
	return ids
}

// QuoteSuffix is the Binance quote asset for a valuation currency.
func QuoteSuffix(vs string) string {
	vs = strings.ToUpper(strings.TrimSpace(vs))
	if vs == "" || vs == "USD" {
		return "USDT"
	}
	return vs
}

// BinancePair turns btc (or bitcoin) into BTCUSDT. Pairs that already carry the
// suffix are kept.
func BinancePair(symbol, vs string) string {
	suffix := QuoteSuffix(vs)
	s := strings.ToLower(strings.TrimSpace(symbol))
	for ticker, id := range domain.TickerToCoinGeckoID {
		if s == id {
			s = ticker
			break
		}
	}
	s = strings.ToUpper(s)
	if strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}

// Prices returns the CoinGecko price of each symbol in one batched call,
// keyed by the lowercased symbol. A failed call yields an empty map.
func (s *PriceService) Prices(ctx context.Context, symbols []string) map[string]float64 {
	ctx, span := s.tracer.Start(ctx, "price-service.prices")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("symbols", symbols))

	out := make(map[string]float64, len(symbols))
	ids := NormalizeSymbols(symbols)
	if len(ids) == 0 {
		return out
	}

	raw, err := s.coingecko.FetchPrices(ctx, uniqueStrings(ids), s.vs)
	if err != nil {
		logrus.WithError(err).Warn("CoinGecko prices unavailable")
		return out
	}
	for i, sym := range symbols {
		if p := raw[ids[i]]; p > 0 {
			out[strings.ToLower(strings.TrimSpace(sym))] = p
		}
	}
	return out
}

// Compare quotes one symbol on both sources.
func (s *PriceService) Compare(ctx context.Context, symbol string) domain.PriceQuote {
	ctx, span := s.tracer.Start(ctx, "price-service.compare")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	key := strings.ToLower(strings.TrimSpace(symbol))
	return s.quote(ctx, symbol, s.Prices(ctx, []string{symbol})[key])
}

// Quotes compares every symbol, in input order. CoinGecko is queried once for
// the whole list; a single symbol goes through Compare.
func (s *PriceService) Quotes(ctx context.Context, symbols []string) []domain.PriceQuote {
	if len(symbols) == 1 {
		return []domain.PriceQuote{s.Compare(ctx, symbols[0])}
	}

	ctx, span := s.tracer.Start(ctx, "price-service.quotes")
	defer span.End()

	cg := s.Prices(ctx, symbols)
	quotes := make([]domain.PriceQuote, 0, len(symbols))
	for _, sym := range symbols {
		quotes = append(quotes, s.quote(ctx, sym, cg[strings.ToLower(strings.TrimSpace(sym))]))
	}
	return quotes
}

func (s *PriceService) quote(ctx context.Context, symbol string, cgPrice float64) domain.PriceQuote {
	q := domain.PriceQuote{Symbol: symbol}
	if cgPrice > 0 {
		q.CoinGecko = cgPrice
	}

	pair := BinancePair(symbol, s.vs)
	bn, err := s.binance.FetchPrice(ctx, pair)
	if err != nil {
		logrus.WithError(err).Warnf("Binance price unavailable for %s", pair)
	} else if bn > 0 {
		q.Binance = bn
	}

	if q.CoinGecko > 0 && q.Binance > 0 {
		spread := (q.Binance - q.CoinGecko) / q.CoinGecko * 100
		q.SpreadPct = &spread
	}
	return q
}

// MoveAlerts feeds each CoinGecko price into the price memory and returns one
// line per symbol that moved at least upPct up or downPct down since the
// previous observation. A threshold of zero disables that direction.
func (s *PriceService) MoveAlerts(quotes []domain.PriceQuote, upPct, downPct float64) []string {
	var lines []string
	for _, q := range quotes {
		if q.CoinGecko <= 0 {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(q.Symbol))
		pct := s.memory.DiffPct(sym, q.CoinGecko)
		switch {
		case upPct > 0 && pct >= upPct:
			lines = append(lines, fmt.Sprintf("🚀 <b>%s</b> up <b>%+.2f%%</b> since last check", sym, pct))
		case downPct > 0 && pct <= -downPct:
			lines = append(lines, fmt.Sprintf("🔻 <b>%s</b> down <b>%+.2f%%</b> since last check", sym, pct))
		}
	}
	return lines
}

// FormatQuotes renders one line per quote. Quotes without a spread say so
// explicitly instead of being dropped.
func FormatQuotes(quotes []domain.PriceQuote, vs string) string {
	cur := strings.ToUpper(vs)
	if cur == "" {
		cur = "USD"
	}
	suffix := QuoteSuffix(vs)

	lines := []string{"💹 Prices & spread:"}
	for _, q := range quotes {
		sym := strings.ToUpper(strings.TrimSpace(q.Symbol))
		switch {
		case q.HasSpread():
			lines = append(lines, fmt.Sprintf("• <b>%s</b> CG: <code>%.2f %s</code> | BN: <code>%.2f %s</code> | Δ <b>%+.2f%%</b>",
				sym, q.CoinGecko, cur, q.Binance, suffix, *q.SpreadPct))
		case q.CoinGecko > 0:
			lines = append(lines, fmt.Sprintf("• <b>%s</b> CG: <code>%.2f %s</code> | insufficient data.", sym, q.CoinGecko, cur))
		case q.Binance > 0:
			lines = append(lines, fmt.Sprintf("• <b>%s</b> BN: <code>%.2f %s</code> | insufficient data.", sym, q.Binance, suffix))
		default:
			lines = append(lines, fmt.Sprintf("• <b>%s</b> insufficient data.", sym))
		}
	}
	return strings.Join(lines, "\n")
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
