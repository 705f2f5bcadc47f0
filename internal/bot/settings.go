package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-grocery/internal/model"
	"smart-grocery/internal/service"
)

const avatarDownloadTimeout = 20 * time.Second

func (b *Bot) sendSettings(chatID int64) error {
	st := b.deps.State.Snapshot()
	return b.sendWithReplyMarkup(chatID, formatSettings(st), settingsKeyboard(st))
}

func (b *Bot) toggleSetting(ctx context.Context, chatID int64, messageID int, key string) error {
	var err error
	switch key {
	case settingTheme:
		_, err = b.deps.Settings.ToggleTheme(ctx)
	case settingBiometrics:
		_, err = b.deps.Security.ToggleBiometrics(ctx)
	default:
		_, err = b.deps.Settings.Toggle(ctx, key)
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't change the setting: %s", escape(err.Error())))
	}
	b.logger.Infow("setting toggled", "setting", key)

	st := b.deps.State.Snapshot()
	return b.editWithMarkup(chatID, messageID, formatSettings(st), settingsKeyboard(st))
}

func (b *Bot) handleCurrency(ctx context.Context, msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("💱 Currency: %s\nChange it with /currency &lt;ISO code&gt;, e.g. /currency EUR\nKnown: %s",
			escape(b.deps.State.Snapshot().Currency), strings.Join(model.Currencies(), ", ")))
	}
	if err := b.deps.Settings.SetCurrency(ctx, code); err != nil {
		if errors.Is(err, service.ErrUnknownCurrency) {
			return b.sendText(msg.Chat.ID, "Unknown currency. Use an ISO code such as USD, EUR or INR.")
		}
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("💱 Currency set to %s.", escape(strings.ToUpper(code))))
}

func (b *Bot) handleCountry(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, "🌍 Send /country &lt;code&gt;, e.g. /country DE, or /country &lt;name&gt; to search.")
	}
	country, err := b.deps.Settings.SetCountry(ctx, arg)
	if errors.Is(err, service.ErrUnknownCountry) {
		matches := model.SearchCountries(arg)
		if len(matches) == 0 {
			return b.sendText(msg.Chat.ID, "No country matches that.")
		}
		var sb strings.Builder
		sb.WriteString("🌍 Did you mean:\n")
		for _, code := range matches {
			c, _ := model.LookupCountry(code)
			sb.WriteString(fmt.Sprintf("• /country %s — %s (%s)\n", code, escape(c.Name), c.Currency))
		}
		return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Country set to %s, currency %s.", escape(country.Name), country.Currency))
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "👤 Use /profile &lt;name&gt; | &lt;email&gt; (email optional).")
	}
	name, email, _ := strings.Cut(args, "|")
	if err := b.deps.Settings.UpdateProfile(ctx, name, email); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't update the profile: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, "👤 Profile updated.")
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	largest := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadFile(ctx, largest.FileID)
	if err != nil {
		b.logger.Warnw("download avatar", "error", err)
		return b.sendText(msg.Chat.ID, "Couldn't download the photo. Try again.")
	}
	if err := b.deps.Settings.SetAvatar(ctx, data); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't set the avatar: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, "🖼 Avatar updated.")
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, avatarDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, service.MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (b *Bot) askWipeConfirmation(msg *tgbotapi.Message) error {
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionWipe})
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"⚠️ Delete <b>all</b> data: list, history, budget, PIN and settings? This can't be undone.", confirmKeyboard())
}

func (b *Bot) wipe(ctx context.Context, chatID, userID int64) error {
	b.deps.Alerts.Dismiss()
	if err := b.deps.Reminders.ClearTarget(); err != nil {
		b.logger.Warnw("clear reminder before wipe", "error", err)
	}
	if err := b.deps.Settings.Wipe(ctx); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't wipe the data: %s", escape(err.Error())))
	}
	b.logger.Infow("data wiped", "user", userID)
	if err := b.deps.Reminders.Refresh(); err != nil {
		b.logger.Warnw("refresh reminder after wipe", "error", err)
	}
	return b.sendText(chatID, "🧹 All data deleted. Send /start to begin again.")
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.deps.Settings.SignOut(ctx); err != nil {
		return err
	}
	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	return b.sendWithReplyMarkup(msg.Chat.ID, "👋 Signed out. Your list and history are kept; send /start to sign in again.",
		tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleTestSound(msg *tgbotapi.Message) error {
	audio := tgbotapi.NewAudio(msg.Chat.ID, tgbotapi.FileBytes{Name: "reminder.wav", Bytes: b.deps.Sound.WAV()})
	audio.Caption = "🔔 This is the reminder tone."
	_, err := b.api.Send(audio)
	return err
}
