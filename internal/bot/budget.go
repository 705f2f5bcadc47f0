package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-grocery/internal/model"
	"smart-grocery/internal/money"
	"smart-grocery/internal/service"
)

const maxHistoryEntries = 10

func (b *Bot) handleBudget(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendBudget(msg.Chat.ID)
	}
	amount, err := parsePrice(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The budget must be a non-negative number, e.g. /budget 450")
	}
	if err := b.deps.Budget.SetBudget(ctx, amount); err != nil {
		if errors.Is(err, service.ErrInvalidBudget) {
			return b.sendText(msg.Chat.ID, "The budget must be a non-negative number, e.g. /budget 450")
		}
		return err
	}
	b.logger.Infow("budget updated", "amount", amount)
	currency := b.deps.State.Snapshot().Currency
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("🎯 Monthly budget set to %s.", money.Format(amount, currency))); err != nil {
		return err
	}
	return b.sendBudget(msg.Chat.ID)
}

func (b *Bot) sendBudget(chatID int64) error {
	return b.sendText(chatID, formatBudget(b.deps.Budget.Summary(b.now())))
}

func (b *Bot) handleHistory(msg *tgbotapi.Message) error {
	filter := ""
	if msg.IsCommand() {
		filter = strings.TrimSpace(msg.CommandArguments())
	}
	entries := b.deps.History.Search(filter)
	more := 0
	if len(entries) > maxHistoryEntries {
		more = len(entries) - maxHistoryEntries
		entries = entries[:maxHistoryEntries]
	}
	text := formatHistory(entries, filter, b.deps.State.Snapshot().Currency)
	if more > 0 {
		text += fmt.Sprintf("\n\n…and %d older trips. Narrow it down with /history &lt;date or item&gt;.", more)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCategories(msg *tgbotapi.Message) error {
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, c := range model.Categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(c)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}
