package main

import (
	"context"
	"testing"
	"time"

	"rotchain-bot/internal/config"
	"rotchain-bot/internal/service"
	"rotchain-bot/pkg/tracing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewPriceService := newPriceService
	origRun := runServerFunc
	defer func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newPriceService = origNewPriceService
		runServerFunc = origRun
	}()

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{Symbols: []string{"btc"}, BaseCurrency: "usd", AirdropsPath: "missing.json"}
	}
	initRedisFunc = func(context.Context, string) (*redis.Client, error) { return nil, nil }
	initTracerFunc = func(context.Context, tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newPriceService = func(trace.Tracer, string) *service.PriceService { return nil }

	var served *mcp.Server
	runServerFunc = func(_ context.Context, s *mcp.Server) error {
		served = s
		return nil
	}

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	require.NotNil(t, served)
}
