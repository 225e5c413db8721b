package domain

// PriceQuote compares the CoinGecko and Binance price of one asset.
// A zero price means the source had no usable data.
type PriceQuote struct {
	Symbol    string   `json:"symbol"`
	CoinGecko float64  `json:"coingecko,omitempty"`
	Binance   float64  `json:"binance,omitempty"`
	SpreadPct *float64 `json:"spread_pct,omitempty"`
}

// HasSpread reports whether both sources answered and a spread was computed.
func (q PriceQuote) HasSpread() bool {
	return q.SpreadPct != nil
}

// TickerToCoinGeckoID maps well-known tickers to CoinGecko API identifiers.
var TickerToCoinGeckoID = map[string]string{
	"btc": "bitcoin",
	"eth": "ethereum",
	"bnb": "binancecoin",
	"sol": "solana",
	"ton": "the-open-network",
}
