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

func (b *Bot) sendList(chatID int64) error {
	st := b.deps.State.Snapshot()
	text := formatList(st.CurrentList, b.deps.List.Totals(), st.Currency)
	if len(st.CurrentList) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, listKeyboard(st.CurrentList))
}

// refreshList redraws a list message in place after a button press.
func (b *Bot) refreshList(chatID int64, messageID int) error {
	st := b.deps.State.Snapshot()
	text := formatList(st.CurrentList, b.deps.List.Totals(), st.Currency)
	return b.editWithMarkup(chatID, messageID, text, listKeyboard(st.CurrentList))
}

func (b *Bot) startAddItem(msg *tgbotapi.Message) error {
	b.logger.Infow("start add item conversation", "user", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageItemName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New item.\n<b>Step 1:</b> what do you need to buy?", cancelKeyboard())
}

func (b *Bot) startEditItem(msg *tgbotapi.Message) error {
	n, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the item number: /edit 2")
	}
	item, err := b.deps.List.ItemAt(n)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Item not found. Check /list.")
	}
	b.setConversation(msg.From.ID, &conversationState{
		stage:  stageItemName,
		itemID: item.ID,
		input:  service.ItemInput{Name: item.Name, Price: item.Price, Category: item.Category},
	})
	text := fmt.Sprintf("✏️ Editing <b>%s</b>.\n<b>Step 1:</b> new name (or Skip to keep it).", escape(item.Name))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, skipKeyboard())
}

func (b *Bot) continueItemDialog(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	editing := state.itemID != ""

	switch state.stage {
	case stageItemName:
		if !(editing && isSkipInput(text)) {
			if text == "" {
				return b.sendWithReplyMarkup(msg.Chat.ID, "The name can't be empty.", cancelKeyboard())
			}
			state.input.Name = text
		}
		state.stage = stageItemPrice
		prompt := "💵 <b>Step 2:</b> how much does it cost? e.g. <code>3.49</code>"
		if editing {
			return b.sendWithReplyMarkup(msg.Chat.ID, prompt, skipKeyboard())
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, cancelKeyboard())
	case stageItemPrice:
		if !(editing && isSkipInput(text)) {
			price, err := parsePrice(text)
			if err != nil {
				return b.sendText(msg.Chat.ID, "Send the price as a number, e.g. <code>3.49</code>.")
			}
			state.input.Price = price
		}
		state.stage = stageItemCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 <b>Step 3:</b> pick a category.", categoryKeyboard(editing))
	case stageItemCategory:
		if !(editing && isSkipInput(text)) {
			state.input.Category = text
		}
		b.clearConversation(msg.From.ID)
		return b.finishItemDialog(ctx, msg.Chat.ID, state)
	}
	return nil
}

func (b *Bot) finishItemDialog(ctx context.Context, chatID int64, state *conversationState) error {
	var (
		item model.GroceryItem
		err  error
	)
	if state.itemID != "" {
		item, err = b.deps.List.Edit(ctx, state.itemID, state.input)
	} else {
		item, err = b.deps.List.Add(ctx, state.input)
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the item: %s", escape(err.Error())))
	}
	b.logger.Infow("item saved", "id", item.ID, "edited", state.itemID != "")

	currency := b.deps.State.Snapshot().Currency
	summary := fmt.Sprintf("✅ <b>Saved</b>: %s · %s · %s",
		escape(item.Name), categoryLabel(item.Category), money.Format(item.Price, currency))
	if err := b.sendText(chatID, summary); err != nil {
		return err
	}
	return b.sendList(chatID)
}

func (b *Bot) handleBuy(ctx context.Context, msg *tgbotapi.Message) error {
	n, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the item number: /buy 1")
	}
	item, err := b.deps.List.ItemAt(n)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Item not found. Check /list.")
	}
	if _, err := b.deps.List.TogglePurchased(ctx, item.ID); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendList(msg.Chat.ID)
}

func (b *Bot) toggleItem(ctx context.Context, chatID int64, messageID int, itemID string) error {
	if _, err := b.deps.List.TogglePurchased(ctx, itemID); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			return b.sendText(chatID, "That item is no longer on the list.")
		}
		return err
	}
	return b.refreshList(chatID, messageID)
}

func (b *Bot) handleDelete(msg *tgbotapi.Message) error {
	n, err := parsePosition(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the item number: /delete 3")
	}
	item, err := b.deps.List.ItemAt(n)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Item not found. Check /list.")
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, item.ID)
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, itemID string) error {
	item, err := b.deps.List.Get(itemID)
	if err != nil {
		return b.sendText(chatID, "That item is no longer on the list.")
	}
	b.setConfirmation(userID, confirmationRequest{action: actionDeleteItem, itemID: item.ID})
	text := fmt.Sprintf("Delete \"%s\" from the list?", escape(normalizeTitle(item.Name)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteItem(ctx context.Context, chatID int64, itemID string) error {
	item, err := b.deps.List.Get(itemID)
	if err != nil {
		return b.sendText(chatID, "Item not found or already deleted.")
	}
	if err := b.deps.List.Delete(ctx, itemID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	b.logger.Infow("item deleted", "id", itemID)
	if err := b.sendText(chatID, fmt.Sprintf("🗑 \"%s\" deleted.", escape(normalizeTitle(item.Name)))); err != nil {
		return err
	}
	return b.sendList(chatID)
}

func (b *Bot) handleSave(ctx context.Context, msg *tgbotapi.Message) error {
	entry, err := b.deps.List.SaveToHistory(ctx)
	if errors.Is(err, service.ErrEmptyList) {
		return b.sendText(msg.Chat.ID, "Nothing to save: the list is empty.")
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't save the trip: %s", escape(err.Error())))
	}
	b.logger.Infow("trip saved", "id", entry.ID, "items", len(entry.Items), "spent", entry.TotalSpent)

	currency := b.deps.State.Snapshot().Currency
	text := fmt.Sprintf("📦 Trip saved: %d items, %s spent.\nA fresh list is ready.",
		len(entry.Items), money.Format(entry.TotalSpent, currency))
	return b.sendText(msg.Chat.ID, text)
}
