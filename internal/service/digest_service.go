package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rotchain-bot/internal/cache"
	"rotchain-bot/internal/config"
	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/faucet"
	"rotchain-bot/internal/marketing"

	"github.com/sirupsen/logrus"
)

const (
	// AirdropListLimit bounds the /airdrop listing.
	AirdropListLimit = 8
	defaultStatus    = "open"
)

// ErrFaucetDisabled is returned when probing is off or has no endpoints.
var ErrFaucetDisabled = errors.New("faucet is not enabled or has no endpoints")

// ErrUnknownJob is returned by Build for names outside domain.DigestJobs.
var ErrUnknownJob = errors.New("unknown digest job")

type PromotionSource interface {
	Load() []domain.Promotion
}

type ProbeRunner interface {
	Run(ctx context.Context, specs []domain.EndpointSpec) domain.ProbeReport
}

type ReportSaver interface {
	SaveReport(ctx context.Context, report domain.ProbeReport) error
}

// Digests renders the messages shared by chat commands and scheduled jobs.
type Digests struct {
	cfg       *config.Config
	prices    *PriceService
	catalog   PromotionSource
	marketing *marketing.Marketing
	prober    ProbeRunner
	reports   ReportSaver
	store     cache.DigestStore
	now       func() time.Time
}

type DigestDeps struct {
	Prices    *PriceService
	Catalog   PromotionSource
	Marketing *marketing.Marketing
	Prober    ProbeRunner
	Reports   ReportSaver
	Store     cache.DigestStore
}

func NewDigests(cfg *config.Config, deps DigestDeps) *Digests {
	return &Digests{
		cfg:       cfg,
		prices:    deps.Prices,
		catalog:   deps.Catalog,
		marketing: deps.Marketing,
		prober:    deps.Prober,
		reports:   deps.Reports,
		store:     deps.Store,
		now:       time.Now,
	}
}

func (d *Digests) Marketing() *marketing.Marketing {
	return d.marketing
}

func (d *Digests) Promotions() []domain.Promotion {
	return d.catalog.Load()
}

// PriceBoard is the plain quote table for the configured symbols.
func (d *Digests) PriceBoard(ctx context.Context) string {
	quotes := d.prices.Quotes(ctx, d.cfg.Symbols)
	return FormatQuotes(quotes, d.prices.Currency())
}

// PriceDigest is the scheduled variant of PriceBoard. It carries a timestamp
// and the move alerts since the previous digest.
func (d *Digests) PriceDigest(ctx context.Context) (string, error) {
	quotes := d.prices.Quotes(ctx, d.cfg.Symbols)

	loc := d.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 %s (%s)\n", d.now().In(loc).Format("2006-01-02 15:04"), loc.String())
	b.WriteString(FormatQuotes(quotes, d.prices.Currency()))

	if alerts := d.prices.MoveAlerts(quotes, d.cfg.AlertUpPct, d.cfg.AlertDownPct); len(alerts) > 0 {
		b.WriteString("\n\n⚡ Price moves:\n")
		b.WriteString(strings.Join(alerts, "\n"))
	}
	return b.String(), nil
}

// AirdropList renders the open airdrops for the /airdrop command.
func (d *Digests) AirdropList() string {
	return d.marketing.FormatPromotions(d.catalog.Load(), domain.PromotionFilter{
		Status: defaultStatus,
		Limit:  AirdropListLimit,
	})
}

// AirdropDigest picks one open airdrop.
func (d *Digests) AirdropDigest(_ context.Context) (string, error) {
	return d.marketing.RandomPromotion(d.catalog.Load(), defaultStatus, ""), nil
}

// FaucetRun probes every configured endpoint and persists the report when a
// repository is wired.
func (d *Digests) FaucetRun(ctx context.Context) (domain.ProbeReport, error) {
	if !d.cfg.FaucetReady() {
		return domain.ProbeReport{}, ErrFaucetDisabled
	}
	report := d.prober.Run(ctx, d.cfg.FaucetEndpoints)
	if d.reports != nil {
		if err := d.reports.SaveReport(ctx, report); err != nil {
			logrus.WithError(err).Warnf("Failed to persist faucet run %s", report.ID)
		}
	}
	return report, nil
}

func (d *Digests) FaucetDigest(ctx context.Context) (string, error) {
	report, err := d.FaucetRun(ctx)
	if err != nil {
		return "", err
	}
	return faucet.FormatReport(report), nil
}

// Build renders the digest of the named job.
func (d *Digests) Build(ctx context.Context, job string) (string, error) {
	switch job {
	case domain.JobPrices:
		return d.PriceDigest(ctx)
	case domain.JobAirdrop:
		return d.AirdropDigest(ctx)
	case domain.JobFaucet:
		return d.FaucetDigest(ctx)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
}

// HasStore reports whether digests are kept anywhere.
func (d *Digests) HasStore() bool {
	return d.store != nil
}

// Record keeps text as the latest digest of job. Without a store it is a no-op.
func (d *Digests) Record(ctx context.Context, job, text string) error {
	if d.store == nil {
		return nil
	}
	return d.store.Save(ctx, domain.Digest{Job: job, Text: text, CreatedAt: d.now().UTC()})
}

func (d *Digests) Latest(ctx context.Context, job string) (domain.Digest, bool, error) {
	if d.store == nil {
		return domain.Digest{}, false, nil
	}
	return d.store.Latest(ctx, job)
}
