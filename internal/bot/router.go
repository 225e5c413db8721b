package bot

import (
	"context"
	"errors"
	"strings"

	"rotchain-bot/internal/config"
	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	msgAdminOnly      = "⛔ This command is for admins only."
	msgFaucetDisabled = "Faucet is not enabled or has no endpoints."
	msgSent           = "✅ Sent."
	msgSendFailed     = "Could not deliver the announcement, try again later."
	msgPong           = "pong 🏓"
	defaultBroadcast  = "General announcement from the system."
)

// Sender pushes a message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Router turns commands into reply text. It holds no gateway state so every
// command can be exercised without Telegram.
type Router struct {
	cfg     *config.Config
	digests *service.Digests
	sender  Sender
}

func NewRouter(cfg *config.Config, digests *service.Digests, sender Sender) *Router {
	return &Router{cfg: cfg, digests: digests, sender: sender}
}

func (r *Router) Help() string {
	return strings.Join([]string{
		"👋 Hi! I'm the ROTCHAIN project assistant.",
		"",
		"• /airdrop – Open airdrops",
		"• /airdrop_random – One random airdrop (FOMO)",
		"• /prices – Prices and spread (CG vs Binance)",
		"• /faucet – Check faucet endpoints (admin)",
		"• /help – Help",
		"",
		r.digests.Marketing().CTA(),
	}, "\n")
}

func (r *Router) Airdrops(_ context.Context) string {
	return r.digests.AirdropList()
}

func (r *Router) RandomAirdrop(ctx context.Context) string {
	text, _ := r.digests.AirdropDigest(ctx)
	return text
}

func (r *Router) Prices(ctx context.Context) string {
	return r.digests.PriceBoard(ctx)
}

func (r *Router) Ping() string {
	return msgPong
}

// Faucet runs a probe cycle on demand. The result also becomes the latest
// faucet digest.
func (r *Router) Faucet(ctx context.Context, userID int64) string {
	if !r.cfg.IsAdmin(userID) {
		return msgAdminOnly
	}
	text, err := r.digests.FaucetDigest(ctx)
	if errors.Is(err, service.ErrFaucetDisabled) {
		return msgFaucetDisabled
	}
	if err != nil {
		logrus.WithError(err).Error("Faucet command failed")
		return msgFaucetDisabled
	}
	if err := r.digests.Record(ctx, domain.JobFaucet, text); err != nil {
		logrus.WithError(err).Warn("Failed to store faucet digest")
	}
	return text
}

// Broadcast posts text to the broadcast chat. "Title | point | point" is
// rendered as a campaign with bullet points.
func (r *Router) Broadcast(ctx context.Context, userID int64, text string) string {
	if !r.cfg.IsAdmin(userID) {
		return msgAdminOnly
	}

	msg := strings.TrimSpace(text)
	switch {
	case msg == "":
		msg = defaultBroadcast
	case strings.Contains(msg, "|"):
		parts := strings.Split(msg, "|")
		var bullets []string
		for _, p := range parts[1:] {
			if p = strings.TrimSpace(p); p != "" {
				bullets = append(bullets, p)
			}
		}
		msg = r.digests.Marketing().BuildCampaign(strings.TrimSpace(parts[0]), bullets)
	}

	if err := r.sender.Send(ctx, r.cfg.ChatID, msg); err != nil {
		logrus.WithError(err).Error("Broadcast failed")
		return msgSendFailed
	}
	return msgSent
}

// QuickReply answers free text that mentions a configured keyword.
func (r *Router) QuickReply(text string) (string, bool) {
	return r.digests.Marketing().QuickReply(text)
}
