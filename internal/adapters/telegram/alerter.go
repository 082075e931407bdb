package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sentinel/internal/domain/risk"
	"sentinel/pkg/logger"
)

// Alerter sends liquidation-risk alerts to a Telegram chat.
// It is a thin presentation adapter over the monitoring snapshot.
type Alerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewAlerter creates a Telegram alerter
func NewAlerter(botToken string, chatID int64) (*Alerter, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}

	return &Alerter{
		bot:    bot,
		chatID: chatID,
		log:    logger.Get().With("component", "telegram_alerter"),
	}, nil
}

// NotifyThresholdAlert sends a message describing the at-risk positions
func (a *Alerter) NotifyThresholdAlert(ctx context.Context, snapshot *risk.Snapshot) error {
	msg := tgbotapi.NewMessage(a.chatID, formatAlert(snapshot))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := a.bot.Send(msg); err != nil {
		return err
	}

	a.log.Infow("Threshold alert sent", "wallet", snapshot.Wallet, "chat_id", a.chatID)
	return nil
}

// formatAlert renders the alert text for a snapshot
func formatAlert(snapshot *risk.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "⚠️ *Liquidation risk alert*\n")
	fmt.Fprintf(&b, "Wallet: `%s`\n", snapshot.Wallet)
	fmt.Fprintf(&b, "Alert threshold: %s%%\n\n", humanize.CommafWithDigits(snapshot.AlertThresholdPct, 1))

	for _, p := range snapshot.AtRiskPositions() {
		fmt.Fprintf(&b, "*%s* (%s)\n", p.PositionID, p.ProtocolID)
		if p.HealthFactor.IsUnbounded() {
			fmt.Fprintf(&b, "  health factor: ∞\n")
		} else {
			fmt.Fprintf(&b, "  health factor: %s\n", humanize.CommafWithDigits(p.HealthFactor.Value(), 3))
		}
		fmt.Fprintf(&b, "  buffer: %s%% (%s)\n", humanize.CommafWithDigits(p.Buffer.Percent(), 1), p.Severity)
		fmt.Fprintf(&b, "  %s liquidates at $%s (now $%s)\n",
			p.CollateralAsset,
			humanize.CommafWithDigits(p.LiquidationPrice, 2),
			humanize.CommafWithDigits(p.CurrentPrice, 2),
		)
	}

	return b.String()
}
