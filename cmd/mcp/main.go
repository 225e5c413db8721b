package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"rotchain-bot/internal/cache"
	"rotchain-bot/internal/config"
	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/marketing"
	"rotchain-bot/internal/mcpserver"
	"rotchain-bot/internal/provider"
	"rotchain-bot/internal/service"
	"rotchain-bot/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

const version = "1.0.0"

var (
	loadEnvFunc     = godotenv.Load
	loadConfigFunc  = config.Load
	initRedisFunc   = cache.InitRedis
	initTracerFunc  = tracing.InitTracer
	newPriceService = func(tracer trace.Tracer, vs string) *service.PriceService {
		client := provider.NewHTTPClient(10 * time.Second)
		return service.NewPriceService(tracer,
			provider.NewCoinGeckoProvider(tracer, client),
			provider.NewBinanceProvider(tracer, client),
			vs)
	}
	runServerFunc = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	config.SetupLogging(cfg)
	// stdout carries the protocol.
	logrus.SetOutput(os.Stderr)

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: tracing.DefaultServiceName + "-mcp",
		Version:     version,
	})
	if err != nil {
		logrus.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logrus.Warnf("error shutting down tracer provider: %v", err)
		}
	}()

	svc := mcpserver.Services{
		Prices:     newPriceService(tracer, cfg.BaseCurrency),
		Symbols:    cfg.Symbols,
		Promotions: marketingCatalog{marketing.NewCatalog(cfg.AirdropsPath)},
		Marketing:  marketing.New(cfg.LandingURL, cfg.Keywords, nil),
	}

	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, latest_digest will report nothing stored")
	}
	if rdb != nil {
		defer rdb.Close()
		svc.Digests = cache.NewRedisDigestStore(rdb)
	}

	logrus.Infof("MCP server %s ready on stdio", version)
	if err := runServerFunc(ctx, mcpserver.New(svc, version)); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Errorf("MCP server stopped: %v", err)
	}
}

type marketingCatalog struct {
	*marketing.Catalog
}

func (c marketingCatalog) Promotions() []domain.Promotion {
	return c.Load()
}
