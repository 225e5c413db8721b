package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"rotchain-bot/internal/cache"
	"rotchain-bot/internal/config"
	"rotchain-bot/internal/marketing"
	"rotchain-bot/internal/provider"
	"rotchain-bot/internal/service"
	"rotchain-bot/internal/tui"
	"rotchain-bot/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

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
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	config.SetupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: tracing.DefaultServiceName + "-ssh",
	})
	if err != nil {
		logrus.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logrus.Warnf("error shutting down tracer provider: %v", err)
		}
	}()

	// Digests are written by the bot process, so only Redis can share them.
	deps := service.DigestDeps{
		Prices:    newPriceService(tracer, cfg.BaseCurrency),
		Catalog:   marketing.NewCatalog(cfg.AirdropsPath),
		Marketing: marketing.New(cfg.LandingURL, cfg.Keywords, nil),
	}
	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, digests tab will be empty")
	}
	if rdb != nil {
		defer rdb.Close()
		deps.Store = cache.NewRedisDigestStore(rdb)
	}
	digests := service.NewDigests(cfg, deps)

	if len(cfg.SSHAuthorizedFingerprints) == 0 {
		logrus.Warn("SSH_AUTHORIZED_FINGERPRINTS is empty, every login will be refused")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(publicKeyAuth(cfg.SSHAuthorizedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewAppModel(tui.Services{
					Prices:     deps.Prices,
					Symbols:    cfg.Symbols,
					Promotions: digests,
					Digests:    digests,
					Username:   s.User(),
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		logrus.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			logrus.Infof("SSH dashboard listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				logrus.Errorf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logrus.Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("SSH server shutdown error: %v", err)
		}
	}

	logrus.Info("SSH server exited")
}

// publicKeyAuth accepts keys whose SHA256 fingerprint is listed. An empty
// list refuses everyone.
func publicKeyAuth(fingerprints []string) ssh.PublicKeyHandler {
	allowed := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		if fp = strings.TrimSpace(fp); fp != "" {
			allowed[fp] = struct{}{}
		}
	}
	return func(_ ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if _, ok := allowed[fingerprint]; !ok {
			logrus.Infof("SSH auth denied: fingerprint=%s", fingerprint)
			return false
		}
		logrus.Infof("SSH auth accepted: fingerprint=%s", fingerprint)
		return true
	}
}
