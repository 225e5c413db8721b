package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"rotchain-bot/internal/config"
	"rotchain-bot/internal/metrics"
	"rotchain-bot/internal/service"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

var newTeleBot = tele.NewBot

// TelegramBot binds a Router to the Telegram long-poll gateway.
type TelegramBot struct {
	ctx    context.Context
	bot    *tele.Bot
	router *Router
	sender Sender
}

type telebotSender struct {
	bot *tele.Bot
}

func (s *telebotSender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(tele.ChatID(chatID), text)
	return err
}

// NewTelegramBot creates the gateway client and registers every command.
// ctx bounds the work started by handlers.
func NewTelegramBot(ctx context.Context, cfg *config.Config, digests *service.Digests) (*TelegramBot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	b, err := newTeleBot(tele.Settings{
		Token:     cfg.BotToken,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			logrus.WithError(err).Error("Telegram update failed")
		},
	})
	if err != nil {
		return nil, err
	}

	sender := &telebotSender{bot: b}
	t := &TelegramBot{
		ctx:    ctx,
		bot:    b,
		sender: sender,
		router: NewRouter(cfg, digests, sender),
	}
	t.register()
	return t, nil
}

// StartTelegramBot creates the bot and starts polling in the background.
func StartTelegramBot(ctx context.Context, cfg *config.Config, digests *service.Digests) (*TelegramBot, error) {
	t, err := NewTelegramBot(ctx, cfg, digests)
	if err != nil {
		return nil, err
	}
	go t.bot.Start()
	logrus.Info("Telegram bot started")
	return t, nil
}

func (t *TelegramBot) Sender() Sender {
	return t.sender
}

func (t *TelegramBot) Router() *Router {
	return t.router
}

func (t *TelegramBot) Stop() {
	t.bot.Stop()
}

func (t *TelegramBot) register() {
	t.bot.Handle("/start", t.command("start", func(tele.Context) string { return t.router.Help() }))
	t.bot.Handle("/help", t.command("help", func(tele.Context) string { return t.router.Help() }))
	t.bot.Handle("/airdrop", t.command("airdrop", func(tele.Context) string { return t.router.Airdrops(t.ctx) }))
	t.bot.Handle("/airdrop_random", t.command("airdrop_random", func(tele.Context) string { return t.router.RandomAirdrop(t.ctx) }))
	t.bot.Handle("/prices", t.command("prices", func(tele.Context) string { return t.router.Prices(t.ctx) }))
	t.bot.Handle("/ping", t.command("ping", func(tele.Context) string { return t.router.Ping() }))
	t.bot.Handle("/faucet", t.command("faucet", func(c tele.Context) string {
		return t.router.Faucet(t.ctx, senderID(c))
	}))
	t.bot.Handle("/broadcast", t.command("broadcast", func(c tele.Context) string {
		return t.router.Broadcast(t.ctx, senderID(c), strings.Join(c.Args(), " "))
	}))
	t.bot.Handle(tele.OnText, t.onText)
}

func (t *TelegramBot) command(name string, fn func(tele.Context) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.Commands.WithLabelValues(name).Inc()
		return c.Send(fn(c))
	}
}

func (t *TelegramBot) onText(c tele.Context) error {
	text := c.Text()
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}
	reply, ok := t.router.QuickReply(text)
	if !ok {
		return nil
	}
	return c.Send(reply)
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
