package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rotchain-bot/internal/config"
	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/marketing"
	"rotchain-bot/internal/service"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubSpot struct{}

func (stubSpot) FetchPrices(context.Context, []string, string) (map[string]float64, error) {
	return map[string]float64{"bitcoin": 65000}, nil
}

type stubPair struct{}

func (stubPair) FetchPrice(_ context.Context, pair string) (float64, error) {
	if pair == "BTCUSDT" {
		return 65200, nil
	}
	return 0, errors.New("unknown pair")
}

type stubCatalog struct{}

func (stubCatalog) Load() []domain.Promotion {
	return []domain.Promotion{{Name: "TonDrop", Status: "open", Network: "ton"}}
}

type stubProber struct{ runs int }

func (s *stubProber) Run(_ context.Context, specs []domain.EndpointSpec) domain.ProbeReport {
	s.runs++
	results := make([]domain.ProbeResult, 0, len(specs))
	for _, sp := range specs {
		results = append(results, domain.ProbeResult{URL: sp.URL, Method: "GET", Status: 200, OK: true})
	}
	return domain.ProbeReport{Results: results}
}

type recordingSender struct {
	chatID int64
	texts  []string
	err    error
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string) error {
	s.chatID = chatID
	s.texts = append(s.texts, text)
	return s.err
}

type memStore struct{ digests map[string]domain.Digest }

func (m *memStore) Save(_ context.Context, d domain.Digest) error {
	m.digests[d.Job] = d
	return nil
}

func (m *memStore) Latest(_ context.Context, job string) (domain.Digest, bool, error) {
	d, ok := m.digests[job]
	return d, ok, nil
}

type firstPicker struct{}

func (firstPicker) IntN(int) int { return 0 }

func testConfig() *config.Config {
	cfg := &config.Config{
		BotToken:   "token",
		ChatID:     -1001,
		AdminIDs:   map[int64]struct{}{42: {}},
		LandingURL: "https://rotchain.click",
		Keywords:   config.DefaultKeywords,
		Symbols:    []string{"btc"},
		Location:   time.UTC,
	}
	return cfg
}

type routerFixture struct {
	router *Router
	sender *recordingSender
	prober *stubProber
	store  *memStore
}

func newRouterFixture(cfg *config.Config) routerFixture {
	prober := &stubProber{}
	store := &memStore{digests: map[string]domain.Digest{}}
	digests := service.NewDigests(cfg, service.DigestDeps{
		Prices:    service.NewPriceService(noop.NewTracerProvider().Tracer("test"), stubSpot{}, stubPair{}, "usd"),
		Catalog:   stubCatalog{},
		Marketing: marketing.New(cfg.LandingURL, cfg.Keywords, firstPicker{}),
		Prober:    prober,
		Store:     store,
	})
	sender := &recordingSender{}
	return routerFixture{router: NewRouter(cfg, digests, sender), sender: sender, prober: prober, store: store}
}

func TestHelpListsCommands(t *testing.T) {
	f := newRouterFixture(testConfig())
	help := f.router.Help()
	for _, cmd := range []string{"/airdrop", "/airdrop_random", "/prices", "/faucet", "/help"} {
		require.Contains(t, help, cmd)
	}
	require.True(t, strings.HasSuffix(help, "👉 Details: https://rotchain.click"))
}

func TestReadOnlyCommands(t *testing.T) {
	f := newRouterFixture(testConfig())
	ctx := context.Background()

	require.Equal(t, "pong 🏓", f.router.Ping())
	require.Contains(t, f.router.Airdrops(ctx), "1. <b>TonDrop</b>")
	require.Contains(t, f.router.RandomAirdrop(ctx), "🚀 <b>TonDrop</b>")
	require.Contains(t, f.router.Prices(ctx), "Δ <b>+0.31%</b>")
}

func TestFaucetRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.FaucetEnabled = true
	cfg.FaucetEndpoints = []domain.EndpointSpec{{URL: "http://a.test"}}
	f := newRouterFixture(cfg)

	require.Equal(t, msgAdminOnly, f.router.Faucet(context.Background(), 7))
	require.Zero(t, f.prober.runs)
}

func TestFaucetDisabled(t *testing.T) {
	f := newRouterFixture(testConfig())
	require.Equal(t, msgFaucetDisabled, f.router.Faucet(context.Background(), 42))
}

func TestFaucetRunsAndStoresDigest(t *testing.T) {
	cfg := testConfig()
	cfg.FaucetEnabled = true
	cfg.FaucetEndpoints = []domain.EndpointSpec{{URL: "http://a.test"}}
	f := newRouterFixture(cfg)

	out := f.router.Faucet(context.Background(), 42)
	require.Contains(t, out, "OK 1/1")
	require.Equal(t, 1, f.prober.runs)
	require.Equal(t, out, f.store.digests[domain.JobFaucet].Text)
}

func TestBroadcast(t *testing.T) {
	f := newRouterFixture(testConfig())
	ctx := context.Background()

	require.Equal(t, msgAdminOnly, f.router.Broadcast(ctx, 7, "hello"))
	require.Empty(t, f.sender.texts)

	require.Equal(t, msgSent, f.router.Broadcast(ctx, 42, ""))
	require.Equal(t, int64(-1001), f.sender.chatID)
	require.Equal(t, defaultBroadcast, f.sender.texts[0])

	require.Equal(t, msgSent, f.router.Broadcast(ctx, 42, "Launch | Staking live | Bonus week"))
	require.Equal(t, "📢 <b>Launch</b>\n• Staking live\n• Bonus week\n\n👉 Details: https://rotchain.click", f.sender.texts[1])
}

func TestBroadcastFromBroadcastChatAfterValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	f := newRouterFixture(cfg)
	require.Equal(t, msgSent, f.router.Broadcast(context.Background(), cfg.ChatID, "hi all"))
}

func TestBroadcastSendFailure(t *testing.T) {
	f := newRouterFixture(testConfig())
	f.sender.err = errors.New("chat not found")
	require.Equal(t, msgSendFailed, f.router.Broadcast(context.Background(), 42, "hello"))
}

func TestQuickReply(t *testing.T) {
	f := newRouterFixture(testConfig())

	reply, ok := f.router.QuickReply("Ping?")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(reply, "Pong 🏓"))

	_, ok = f.router.QuickReply("what is up")
	require.False(t, ok)
}
