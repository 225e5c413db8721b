package job

import (
	"context"
	"time"

	"rotchain-bot/internal/config"
	"rotchain-bot/internal/domain"
)

const (
	PriceInterval   = 30 * time.Minute
	PriceFirstRun   = 10 * time.Second
	AirdropInterval = 90 * time.Minute
	AirdropFirstRun = 30 * time.Second
	FaucetFirstRun  = 60 * time.Second
)

type DigestBuilder interface {
	PriceDigest(ctx context.Context) (string, error)
	AirdropDigest(ctx context.Context) (string, error)
	FaucetDigest(ctx context.Context) (string, error)
}

// Definitions returns the digests enabled by cfg. Prices need
// CRYPTO_WATCH_ENABLED; the faucet needs FAUCET_ENABLED and at least one
// endpoint.
func Definitions(cfg *config.Config, digests DigestBuilder) []Definition {
	var defs []Definition
	if cfg.CryptoWatchEnabled {
		defs = append(defs, Definition{
			Name:     domain.JobPrices,
			Interval: PriceInterval,
			FirstRun: PriceFirstRun,
			Run:      digests.PriceDigest,
		})
	}
	defs = append(defs, Definition{
		Name:     domain.JobAirdrop,
		Interval: AirdropInterval,
		FirstRun: AirdropFirstRun,
		Run:      digests.AirdropDigest,
	})
	if cfg.FaucetReady() {
		defs = append(defs, Definition{
			Name:     domain.JobFaucet,
			Interval: cfg.FaucetInterval(),
			FirstRun: FaucetFirstRun,
			Run:      digests.FaucetDigest,
		})
	}
	return defs
}
