package handler

import (
	"context"

	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
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

type ProbeHistory interface {
	RecentReports(ctx context.Context, limit int) ([]domain.ProbeReport, error)
}

// Deps are the read-only views served over HTTP. History may be nil when
// persistence is disabled.
type Deps struct {
	Prices     PriceQuoter
	Symbols    []string
	Promotions PromotionLister
	Digests    DigestReader
	History    ProbeHistory
}

type Handler struct {
	tracer     trace.Tracer
	prices     PriceQuoter
	symbols    []string
	promotions PromotionLister
	digests    DigestReader
	history    ProbeHistory
}

func New(tracer trace.Tracer, deps Deps) *Handler {
	return &Handler{
		tracer:     tracer,
		prices:     deps.Prices,
		symbols:    deps.Symbols,
		promotions: deps.Promotions,
		digests:    deps.Digests,
		history:    deps.History,
	}
}

// RegisterRoutes mounts the public routes and the API-key protected group.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/prices", h.GetPrices)
	api.GET("/airdrops", h.GetAirdrops)

	private := api.Group("", APIKeyAuth(apiKey))
	private.GET("/digests/:job", h.GetDigest)
	private.GET("/faucet/runs", h.GetFaucetRuns)
}
