// Package telegram sends period comparison digests through the Telegram Bot API.
// It formats month-over-month and year-over-year tier movement into a MarkdownV2
// message and delivers it with linear-backoff retries.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Quintas0658/olist-ecommerce-project/internal/analyzer"
	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// maxListed bounds the sellers listed per direction in a digest.
const maxListed = 5

// sender is the part of the bot API the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendComparison sends the comparison digest for a target month.
func (c *Client) SendComparison(ctx context.Context, res *analyzer.PeriodComparisonResult, sessionID string) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(res, sessionID))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			logger.Info("Sent comparison digest for %s", res.TargetMonth)
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats a period comparison into a MarkdownV2 message
func formatMessage(res *analyzer.PeriodComparisonResult, sessionID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Seller tier movement: %s*\n", escapeMarkdownV2(res.TargetMonth.String()))
	fmt.Fprintf(&b, "Lookback: %d months\n\n", res.Lookback)

	writeComparison(&b, "Month over month", res.TargetMonth.AddMonths(-1), res.MoM)
	writeComparison(&b, "Year over year", res.TargetMonth.AddMonths(-12), res.YoY)

	if sessionID != "" {
		fmt.Fprintf(&b, "_session %s_\n", escapeMarkdownV2(sessionID))
	}
	return b.String()
}

func writeComparison(b *strings.Builder, title string, companion models.Month, c *analyzer.Comparison) {
	fmt.Fprintf(b, "*%s* \\(vs %s\\)\n", escapeMarkdownV2(title), escapeMarkdownV2(companion.String()))
	if c == nil {
		b.WriteString("   No data for this month\n\n")
		return
	}

	s := c.Summary
	fmt.Fprintf(b, "   Common sellers: %d\n", s.Total)
	fmt.Fprintf(b, "   📈 Upgraded: %d \\(%s\\)\n", s.Upgraded, pct(s.UpgradeRate))
	fmt.Fprintf(b, "   📉 Downgraded: %d \\(%s\\)\n", s.Downgraded, pct(s.DowngradeRate))
	fmt.Fprintf(b, "   ⏸ Stable: %d \\(%s\\)\n", s.Stable, pct(s.StabilityRate))

	writeChanges(b, "Top upgrades", c.Upgraded)
	writeChanges(b, "Top downgrades", c.Downgraded)
	b.WriteString("\n")
}

func writeChanges(b *strings.Builder, title string, changes []analyzer.SellerTierChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "   _%s_\n", escapeMarkdownV2(title))
	for i, ch := range changes {
		if i == maxListed {
			fmt.Fprintf(b, "   …and %d more\n", len(changes)-maxListed)
			break
		}
		fmt.Fprintf(b, "   %d\\. `%s` %s → %s\n", i+1, ch.SellerID, ch.From, ch.To)
	}
}

func pct(fraction float64) string {
	return escapeMarkdownV2(fmt.Sprintf("%.1f%%", fraction*100))
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
