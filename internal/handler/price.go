package handler

import (
	"fmt"
	"net/http"
	"strings"

	"rotchain-bot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// MaxQuerySymbols bounds ?symbols=; every symbol costs a Binance call and a
// CoinGecko limiter token shared with the scheduled digest.
const MaxQuerySymbols = 10

type pricesResponse struct {
	Currency string              `json:"currency"`
	Quotes   []domain.PriceQuote `json:"quotes"`
}

// GetPrices godoc
// @Summary      Cross-source price quotes
// @Description  Returns CoinGecko and Binance prices with the percent spread for each symbol
// @Tags         prices
// @Produce      json
// @Param        symbols  query  string  false  "Comma separated symbols (defaults to SYMBOLS)"
// @Success      200  {object}  pricesResponse
// @Failure      400  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	symbols := h.symbols
	if raw := c.Query("symbols"); raw != "" {
		symbols = nil
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	span.SetAttributes(attribute.StringSlice("symbols", symbols))
	if len(symbols) > MaxQuerySymbols {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d symbols per request", MaxQuerySymbols)})
		return
	}

	c.JSON(http.StatusOK, pricesResponse{
		Currency: h.prices.Currency(),
		Quotes:   h.prices.Quotes(ctx, symbols),
	})
}
