package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rotchain-bot/internal/bot"
	"rotchain-bot/internal/cache"
	"rotchain-bot/internal/config"
	"rotchain-bot/internal/db"
	"rotchain-bot/internal/faucet"
	"rotchain-bot/internal/handler"
	"rotchain-bot/internal/job"
	"rotchain-bot/internal/marketing"
	"rotchain-bot/internal/provider"
	"rotchain-bot/internal/repository"
	"rotchain-bot/internal/service"
	"rotchain-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "rotchain-bot/docs"
)

const version = "1.0.0"

// gateway is the part of the Telegram bot main needs after startup.
type gateway interface {
	Sender() bot.Sender
	Stop()
}

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initTracerFunc   = tracing.InitTracer
	initPostgresFunc = db.InitPostgres
	migrateUpFunc    = db.MigrateUp
	initRedisFunc    = cache.InitRedis
	newPriceService  = func(tracer trace.Tracer, vs string) *service.PriceService {
		client := provider.NewHTTPClient(10 * time.Second)
		return service.NewPriceService(tracer,
			provider.NewCoinGeckoProvider(tracer, client),
			provider.NewBinanceProvider(tracer, client),
			vs)
	}
	startTelegramBotFunc = func(ctx context.Context, cfg *config.Config, d *service.Digests) (gateway, error) {
		tb, err := bot.StartTelegramBot(ctx, cfg, d)
		if err != nil {
			return nil, err
		}
		return tb, nil
	}
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           ROTCHAIN Bot API
// @version         1.0
// @description     Read-only views over the ROTCHAIN Telegram bot: prices, airdrops, digests and faucet runs.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	config.SetupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: tracing.DefaultServiceName,
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

	// Persistence is optional; without a pool probe runs are only reported.
	var (
		reports service.ReportSaver
		history handler.ProbeHistory
	)
	pool, err := initPostgresFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Warn("Postgres unavailable, probe runs will not be stored")
	}
	if pool != nil {
		defer pool.Close()
		if err := migrateUpFunc(ctx, cfg.DatabaseURL); err != nil {
			logrus.Fatalf("failed to run migrations: %v", err)
		}
		repo := repository.NewProbeRunRepository(pool, tracer)
		reports, history = repo, repo
	}

	store, closeStore := digestStore(ctx, cfg)
	defer closeStore()

	prober, err := faucet.NewProber(tracer, faucetOptions(cfg))
	if err != nil {
		logrus.Fatalf("failed to create faucet prober: %v", err)
	}

	priceService := newPriceService(tracer, cfg.BaseCurrency)
	digests := service.NewDigests(cfg, service.DigestDeps{
		Prices:    priceService,
		Catalog:   marketing.NewCatalog(cfg.AirdropsPath),
		Marketing: marketing.New(cfg.LandingURL, cfg.Keywords, nil),
		Prober:    prober,
		Reports:   reports,
		Store:     store,
	})

	tg, err := startTelegramBotFunc(ctx, cfg, digests)
	if err != nil {
		logrus.Fatalf("failed to start Telegram bot: %v", err)
	}
	defer tg.Stop()

	scheduler := job.NewScheduler(cfg.ChatID, cfg.Location, tg.Sender(), digests, job.Definitions(cfg, digests))
	if err := scheduler.Start(ctx); err != nil {
		logrus.Fatalf("failed to start scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logrus.Warnf("scheduler shutdown: %v", err)
		}
	}()

	h := handler.New(tracer, handler.Deps{
		Prices:     priceService,
		Symbols:    cfg.Symbols,
		Promotions: digests,
		Digests:    digests,
		History:    history,
	})

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.DefaultServiceName))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logrus.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logrus.Errorf("HTTP server forced to shutdown: %v", err)
	}

	logrus.Info("Bot exiting")
}

// digestStore prefers Redis so other processes can read the digests, and
// falls back to an in-process cache.
func digestStore(ctx context.Context, cfg *config.Config) (cache.DigestStore, func()) {
	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, keeping digests in memory")
	}
	if rdb != nil {
		return cache.NewRedisDigestStore(rdb), func() { _ = rdb.Close() }
	}

	local, err := cache.NewLocalDigestStore()
	if err != nil {
		logrus.WithError(err).Warn("In-memory digest cache unavailable, digests will not be kept")
		return nil, func() {}
	}
	return local, local.Close
}

func faucetOptions(cfg *config.Config) faucet.Options {
	opts := faucet.DefaultOptions()
	opts.Proxy = cfg.FaucetProxy
	return opts
}
