package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-grocery/internal/service"
)

// handleLocked serves the lock screen: only unlocking and dismissing an
// alert get through.
func (b *Bot) handleLocked(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		switch msg.Command() {
		case "unlock":
			return b.handleUnlock(ctx, msg, strings.TrimSpace(msg.CommandArguments()))
		case "dismiss":
			return b.handleDismiss(msg.Chat.ID)
		}
		return b.sendLockedPrompt(msg.Chat.ID)
	}

	text := strings.TrimSpace(msg.Text)
	if service.ValidPin(text) {
		b.deleteMessage(msg.Chat.ID, msg.MessageID)
		return b.handleUnlock(ctx, msg, text)
	}
	return b.sendLockedPrompt(msg.Chat.ID)
}

func (b *Bot) sendLockedPrompt(chatID int64) error {
	text := "🔒 <b>Locked.</b> Send your 4-digit PIN to unlock."
	if b.deps.State.Snapshot().UseBiometrics {
		text += "\n👆 Or send /unlock to use biometric unlock."
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleUnlock(ctx context.Context, msg *tgbotapi.Message, pin string) error {
	var err error
	if pin == "" {
		err = b.deps.Security.UnlockBiometric(ctx, msg.From.ID)
	} else {
		err = b.deps.Security.Unlock(ctx, pin)
	}
	switch {
	case err == nil:
		b.logger.Infow("unlocked", "user", msg.From.ID, "biometric", pin == "")
		return b.sendText(msg.Chat.ID, "🔓 Unlocked. Welcome back!")
	case errors.Is(err, service.ErrWrongPin):
		b.logger.Warnw("wrong pin", "user", msg.From.ID)
		return b.sendPlain(msg.Chat.ID, "❌ Wrong PIN. Try again.")
	case errors.Is(err, service.ErrBiometricsDisabled):
		return b.sendPlain(msg.Chat.ID, "Biometric unlock is off. Send your PIN.")
	case errors.Is(err, service.ErrUntrustedIdentity):
		return b.sendPlain(msg.Chat.ID, "❌ Biometric check failed. Send your PIN.")
	default:
		return err
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debugw("delete message", "error", err)
	}
}

func (b *Bot) handlePin(ctx context.Context, msg *tgbotapi.Message) error {
	pin := strings.TrimSpace(msg.CommandArguments())
	b.deleteMessage(msg.Chat.ID, msg.MessageID)
	if err := b.deps.Security.SetPin(ctx, pin); err != nil {
		if errors.Is(err, service.ErrInvalidPin) {
			return b.sendText(msg.Chat.ID, "The PIN must be exactly 4 digits: /pin 1234")
		}
		return err
	}
	return b.sendText(msg.Chat.ID, "🔐 PIN set. Use /lock to lock the app.")
}

func (b *Bot) handleNoPin(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.deps.Security.RemovePin(ctx); err != nil {
		if errors.Is(err, service.ErrNoPin) {
			return b.sendText(msg.Chat.ID, "No PIN is set.")
		}
		return err
	}
	return b.sendText(msg.Chat.ID, "🔓 PIN removed. Biometric unlock is off too.")
}

func (b *Bot) handleLock(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.deps.Security.Lock(ctx); err != nil {
		if errors.Is(err, service.ErrNoPin) {
			return b.sendText(msg.Chat.ID, "Set a PIN first: /pin 1234")
		}
		return err
	}
	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	return b.sendLockedPrompt(msg.Chat.ID)
}

func (b *Bot) handleBiometrics(ctx context.Context, chatID int64) error {
	enabled, err := b.deps.Security.ToggleBiometrics(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoPin) {
			return b.sendText(chatID, "Biometric unlock needs a PIN. Set one with /pin 1234")
		}
		return err
	}
	return b.sendText(chatID, "👆 Biometric unlock: "+onOff(enabled)+".")
}
