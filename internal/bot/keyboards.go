package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-grocery/internal/model"
	"smart-grocery/internal/service"
)

const (
	cbBuyPrefix     = "buy:"
	cbDeletePrefix  = "delete:"
	cbSettingPrefix = "set:"
	cbAlertDismiss  = "alert:dismiss"
)

// Settings toggled from the inline settings keyboard, besides the
// service.Pref* alert preferences.
const (
	settingTheme      = "theme"
	settingBiometrics = "biometrics"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop"
	btnToday        = "📅 Today"
	btnTomorrow     = "📅 Tomorrow"
	btnDismiss      = "🔕 Dismiss"

	menuLabelList     = "🛒 List"
	menuLabelAdd      = "➕ Add item"
	menuLabelBudget   = "💰 Budget"
	menuLabelHistory  = "📜 History"
	menuLabelRemind   = "⏰ Reminder"
	menuLabelSettings = "⚙️ Settings"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelList),
			tgbotapi.NewKeyboardButton(menuLabelAdd),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelBudget),
			tgbotapi.NewKeyboardButton(menuLabelHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRemind),
			tgbotapi.NewKeyboardButton(menuLabelSettings),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard(allowSkip bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range model.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(c))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	last := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if allowSkip {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, last...)
	}
	rows = append(rows, last)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dateKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToday),
			tgbotapi.NewKeyboardButton(btnTomorrow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func listKeyboard(items []model.GroceryItem) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, item := range items {
		mark := "⬜"
		if item.IsPurchased {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", mark, i+1, shortTitle(item.Name, 22)), cbBuyPrefix+item.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+item.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard(st model.AppState) tgbotapi.InlineKeyboardMarkup {
	toggle := func(label string, on bool, key string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s: %s", label, onOff(on)), cbSettingPrefix+key)
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			toggle("🔊 Sound", st.SoundEnabled, service.PrefSound),
			toggle("📳 Vibration", st.VibrationEnabled, service.PrefVibration),
		),
		tgbotapi.NewInlineKeyboardRow(
			toggle("🔔 Notifications", st.NotificationsEnabled, service.PrefNotifications),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🎨 Theme: %s", st.Theme), cbSettingPrefix+settingTheme),
		),
	}
	if st.SecurityPin != nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			toggle("👆 Biometrics", st.UseBiometrics, settingBiometrics),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dismissKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnDismiss, cbAlertDismiss),
		),
	)
}
