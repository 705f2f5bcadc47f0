package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-grocery/internal/reminder"
)

func (b *Bot) handleRemind(msg *tgbotapi.Message) error {
	now := b.now()
	args := ""
	if msg.IsCommand() {
		args = strings.TrimSpace(msg.CommandArguments())
	}
	if args != "" {
		at, err := parseReminderArgs(args, now)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Use /remind <code>2025-11-30 18:00</code> or just /remind for a guided setup.")
		}
		return b.setReminder(msg.Chat.ID, at)
	}

	b.setConversation(msg.From.ID, &conversationState{stage: stageReminderDate})
	text := formatReminder(b.deps.Reminders.Target(), now) +
		"\n\n📅 <b>Step 1:</b> which day? Send <code>YYYY-MM-DD</code> or tap a button."
	return b.sendWithReplyMarkup(msg.Chat.ID, text, dateKeyboard())
}

// continueReminderDialog collects a date and then a time; a reminder is only
// offered for confirmation once both are present.
func (b *Bot) continueReminderDialog(msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageReminderDate:
		date, err := parseReminderDate(text, b.now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2025-11-30</code>.", dateKeyboard())
		}
		state.date = date
		state.stage = stageReminderTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "🕒 <b>Step 2:</b> what time? Send <code>HH:MM</code>, e.g. <code>18:30</code>.", cancelKeyboard())
	case stageReminderTime:
		at, err := combineDateTime(state.date, text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that time. Use <code>18:30</code>.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		b.setConfirmation(msg.From.ID, confirmationRequest{action: actionSetReminder, at: at})
		prompt := fmt.Sprintf("Remind you to go shopping on <b>%s</b>?", at.Format(shortDateTime))
		if !at.After(b.now()) {
			prompt += "\n⚠️ That time has already passed, so the alert will go off right away."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
	return nil
}

func (b *Bot) setReminder(chatID int64, at time.Time) error {
	if err := b.deps.Reminders.SetTarget(at); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't set the reminder: %s", escape(err.Error())))
	}
	return b.sendText(chatID, formatReminder(b.deps.Reminders.Target(), b.now()))
}

func (b *Bot) handleUnremind(msg *tgbotapi.Message) error {
	if b.deps.Reminders.Target() == nil {
		return b.sendText(msg.Chat.ID, "⏰ There is no reminder to cancel.")
	}
	if err := b.deps.Reminders.ClearTarget(); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't cancel the reminder: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, "🔕 Reminder cancelled.")
}

func (b *Bot) handleDismiss(chatID int64) error {
	sounding := b.deps.Alerts.State() == reminder.Sounding
	b.deps.Alerts.Dismiss()
	if !sounding {
		return b.sendPlain(chatID, "🔕 No alert is sounding.")
	}
	return b.sendPlain(chatID, "🔕 Alert dismissed. Happy shopping!")
}
