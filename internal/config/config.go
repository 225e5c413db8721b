package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"rotchain-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	defaultLandingURL = "https://rotchain.click"
	defaultTimezone   = "Asia/Ho_Chi_Minh"
	defaultFaucetMin  = 30
)

// DefaultKeywords is the quick-reply table used when KEYWORDS is not set.
var DefaultKeywords = []domain.Keyword{
	{Word: "hi", Reply: "Hi there 👋"},
	{Word: "hello", Reply: "Hello! 👋"},
	{Word: "alo", Reply: "I'm listening!"},
	{Word: "ping", Reply: "Pong 🏓"},
	{Word: "giá", Reply: "Prices and offers are at the link:"},
}

type Config struct {
	BotToken   string
	ChatID     int64
	AdminIDs   map[int64]struct{}
	LandingURL string
	Keywords   []domain.Keyword

	CryptoWatchEnabled bool
	Symbols            []string
	AlertUpPct         float64
	AlertDownPct       float64
	BaseCurrency       string

	FaucetEnabled     bool
	FaucetEndpoints   []domain.EndpointSpec
	FaucetIntervalMin int
	FaucetProxy       string

	Debug        bool
	LogLevel     string
	Location     *time.Location
	AirdropsPath string

	DatabaseURL string
	RedisURL    string
	HTTPAddr    string
	APIKey      string

	TracingEnabled bool
	OTLPEndpoint   string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string
}

// Load reads configuration from the environment. Malformed optional values
// fall back to their defaults with a warning; required values are checked by Validate.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LP_URL", defaultLandingURL)
	v.SetDefault("CRYPTO_WATCH_ENABLED", true)
	v.SetDefault("SYMBOLS", "btc,eth,bnb")
	v.SetDefault("ALERT_UP_PCT", 3.0)
	v.SetDefault("ALERT_DOWN_PCT", 3.0)
	v.SetDefault("PRICE_BASE_CURRENCY", "usd")
	v.SetDefault("FAUCET_ENABLED", false)
	v.SetDefault("FAUCET_INTERVAL_MIN", defaultFaucetMin)
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TZ", defaultTimezone)
	v.SetDefault("AIRDROPS_PATH", "airdrops.json")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("TRACING_ENABLED", true)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("SSH_PORT", 2222)
	v.SetDefault("SSH_HOST_KEY_PATH", ".ssh/rotchain_ed25519")

	cfg := &Config{
		BotToken:           strings.TrimSpace(v.GetString("BOT_TOKEN")),
		ChatID:             v.GetInt64("TELEGRAM_CHAT_ID"),
		AdminIDs:           parseIDSet(v.GetString("ADMIN_IDS")),
		LandingURL:         strings.TrimSpace(v.GetString("LP_URL")),
		Keywords:           DefaultKeywords,
		CryptoWatchEnabled: v.GetBool("CRYPTO_WATCH_ENABLED"),
		Symbols:            splitList(v.GetString("SYMBOLS")),
		AlertUpPct:         v.GetFloat64("ALERT_UP_PCT"),
		AlertDownPct:       v.GetFloat64("ALERT_DOWN_PCT"),
		BaseCurrency:       strings.ToLower(strings.TrimSpace(v.GetString("PRICE_BASE_CURRENCY"))),
		FaucetEnabled:      v.GetBool("FAUCET_ENABLED"),
		FaucetIntervalMin:  v.GetInt("FAUCET_INTERVAL_MIN"),
		FaucetProxy:        strings.TrimSpace(v.GetString("FAUCET_PROXY")),
		Debug:              v.GetBool("DEBUG"),
		LogLevel:           strings.TrimSpace(v.GetString("LOG_LEVEL")),
		AirdropsPath:       strings.TrimSpace(v.GetString("AIRDROPS_PATH")),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(v.GetString("REDIS_URL")),
		HTTPAddr:           strings.TrimSpace(v.GetString("HTTP_ADDR")),
		APIKey:             strings.TrimSpace(v.GetString("API_KEY")),
		TracingEnabled:     v.GetBool("TRACING_ENABLED"),
		OTLPEndpoint:       strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		SSHPort:            v.GetInt("SSH_PORT"),
		SSHHostKeyPath:     strings.TrimSpace(v.GetString("SSH_HOST_KEY_PATH")),

		SSHAuthorizedFingerprints: splitList(v.GetString("SSH_AUTHORIZED_FINGERPRINTS")),
	}

	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"btc", "eth", "bnb"}
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "usd"
	}

	if raw := strings.TrimSpace(v.GetString("KEYWORDS")); raw != "" {
		if kw := parseKeywords(raw); len(kw) > 0 {
			cfg.Keywords = kw
		} else {
			logrus.Warnf("KEYWORDS=%q has no word=reply pairs, using defaults", raw)
		}
	}

	endpoints, err := ParseEndpoints(v.GetString("FAUCET_ENDPOINTS"))
	if err != nil {
		logrus.WithError(err).Warn("Ignoring malformed FAUCET_ENDPOINTS")
	}
	cfg.FaucetEndpoints = endpoints

	tz := strings.TrimSpace(v.GetString("TZ"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logrus.Warnf("Unknown TZ=%q, defaulting to UTC", tz)
		loc = time.UTC
	}
	cfg.Location = loc

	return cfg
}

// Validate checks the settings the bot cannot start without. On success the
// broadcast chat is also granted admin rights.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.ChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	if c.AdminIDs == nil {
		c.AdminIDs = make(map[int64]struct{})
	}
	c.AdminIDs[c.ChatID] = struct{}{}
	return nil
}

// IsAdmin reports whether the user may run privileged commands.
func (c *Config) IsAdmin(userID int64) bool {
	_, ok := c.AdminIDs[userID]
	return ok
}

// FaucetReady reports whether probing is enabled and has something to probe.
func (c *Config) FaucetReady() bool {
	return c.FaucetEnabled && len(c.FaucetEndpoints) > 0
}

// FaucetInterval is the probe cadence, never shorter than five minutes.
func (c *Config) FaucetInterval() time.Duration {
	return time.Duration(max(5, c.FaucetIntervalMin)) * time.Minute
}

// ParseEndpoints accepts either a comma separated URL list or a JSON array
// whose items are URL strings or endpoint objects.
func ParseEndpoints(raw string) ([]domain.EndpointSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "[") {
		urls := splitList(raw)
		specs := make([]domain.EndpointSpec, 0, len(urls))
		for _, u := range urls {
			specs = append(specs, domain.EndpointSpec{URL: u})
		}
		return specs, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode endpoint list: %w", err)
	}

	specs := make([]domain.EndpointSpec, 0, len(items))
	for i, item := range items {
		var u string
		if err := json.Unmarshal(item, &u); err == nil {
			if u = strings.TrimSpace(u); u != "" {
				specs = append(specs, domain.EndpointSpec{URL: u})
			}
			continue
		}

		var obj struct {
			domain.EndpointSpec
			TimeoutSecs float64 `json:"timeout"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("decode endpoint %d: %w", i, err)
		}
		if strings.TrimSpace(obj.URL) == "" {
			return nil, fmt.Errorf("endpoint %d has no url", i)
		}
		spec := obj.EndpointSpec
		spec.URL = strings.TrimSpace(spec.URL)
		spec.Timeout = time.Duration(obj.TimeoutSecs * float64(time.Second))
		specs = append(specs, spec)
	}
	return specs, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDSet(raw string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logrus.Warnf("Ignoring invalid admin id %q", part)
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

// parseKeywords reads "word=reply;word=reply" keeping the given order.
func parseKeywords(raw string) []domain.Keyword {
	var out []domain.Keyword
	for _, pair := range strings.Split(raw, ";") {
		word, reply, ok := strings.Cut(pair, "=")
		word = strings.ToLower(strings.TrimSpace(word))
		if !ok || word == "" {
			continue
		}
		out = append(out, domain.Keyword{Word: word, Reply: strings.TrimSpace(reply)})
	}
	return out
}
