package bot

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"smart-grocery/internal/model"
	"smart-grocery/internal/money"
	"smart-grocery/internal/service"
)

const (
	reminderDateLayout = "2006-01-02"
	reminderTimeLayout = "15:04"
	shortDateTime      = "Mon, 02 Jan 15:04"
	progressCells      = 10
)

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func categoryLabel(name string) string {
	var icon string
	switch name {
	case "Dairy":
		icon = "🥛"
	case "Vegetables":
		icon = "🥦"
	case "Fruits":
		icon = "🍎"
	case "Meat":
		icon = "🥩"
	case "Bakery":
		icon = "🥖"
	case "Pantry":
		icon = "🥫"
	case "Household":
		icon = "🧽"
	case "Personal Care":
		icon = "🧴"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(name))
}

// parsePrice accepts "3.5", "3,50" and a leading currency sign.
func parsePrice(raw string) (float64, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimLeftFunc(clean, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.' && r != ',' && r != '-'
	})
	clean = strings.ReplaceAll(clean, ",", ".")
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return value, nil
}

// parseReminderDate accepts YYYY-MM-DD, "today" and "tomorrow".
func parseReminderDate(raw string, now time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	y, m, d := now.Date()
	switch value {
	case "today", strings.ToLower(btnToday):
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case "tomorrow", strings.ToLower(btnTomorrow):
		return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()), nil
	}
	parsed, err := time.ParseInLocation(reminderDateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return parsed, nil
}

// combineDateTime joins a date with an HH:MM clock time.
func combineDateTime(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse(reminderTimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// parseReminderArgs parses "YYYY-MM-DD HH:MM" from /remind.
func parseReminderArgs(args string, now time.Time) (time.Time, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("expected a date and a time, got %q", args)
	}
	date, err := parseReminderDate(fields[0], now)
	if err != nil {
		return time.Time{}, err
	}
	return combineDateTime(date, fields[1])
}

// parsePosition reads the 1-based item number of /edit, /buy and /delete.
func parsePosition(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args), "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid item number %q", args)
	}
	return n, nil
}

func formatItem(n int, item model.GroceryItem, currency string) string {
	check := "⬜"
	name := escape(normalizeTitle(item.Name))
	if item.IsPurchased {
		check = "✅"
		name = "<s>" + name + "</s>"
	}
	return fmt.Sprintf("%s <b>%d.</b> %s · %s · %s\n", check, n, name, categoryLabel(item.Category), money.Format(item.Price, currency))
}

func formatList(items []model.GroceryItem, totals service.ListTotals, currency string) string {
	var b strings.Builder
	b.WriteString("🛒 <b>Shopping list</b>\n")
	if len(items) == 0 {
		b.WriteString("Your list is empty. Add something with /add.")
		return b.String()
	}
	b.WriteString("Tap a button to mark an item as bought.\n\n")
	for i, item := range items {
		b.WriteString(formatItem(i+1, item, currency))
	}
	b.WriteString(fmt.Sprintf("\n🧾 Bill: <b>%s</b>\n", money.Format(totals.Bill, currency)))
	b.WriteString(fmt.Sprintf("💳 In cart: %s (%d/%d)", money.Format(totals.Spent, currency), totals.Purchased, totals.Items))
	return b.String()
}

func progressBar(sum service.BudgetSummary) string {
	cell := "🟩"
	switch sum.Colour {
	case service.ColourAmber:
		cell = "🟧"
	case service.ColourRed:
		cell = "🟥"
	}
	filled := int(math.Round(sum.Percentage / 100 * progressCells))
	return strings.Repeat(cell, filled) + strings.Repeat("⬜", progressCells-filled)
}

func formatBudget(sum service.BudgetSummary) string {
	cur := sum.Currency
	var b strings.Builder
	b.WriteString("💰 <b>Monthly budget</b>\n")
	b.WriteString(fmt.Sprintf("%s %.0f%%\n\n", progressBar(sum), sum.Percentage))
	b.WriteString(fmt.Sprintf("🎯 Budget: %s\n", money.Format(sum.Budget, cur)))
	b.WriteString(fmt.Sprintf("📉 Spent: <b>%s</b>\n", money.Format(sum.Spent, cur)))
	b.WriteString(fmt.Sprintf("📈 Remaining: %s\n", money.Format(sum.Remaining, cur)))

	switch sum.Level {
	case service.LevelOver:
		b.WriteString(fmt.Sprintf("\n🚨 You've exceeded your budget by <b>%s</b>. Consider reviewing your \"Other\" category items to save next month.\n",
			money.Format(sum.Overspent, cur)))
	case service.LevelWarning:
		b.WriteString("\n⚠️ You've used more than 80% of your budget.\n")
	}

	if len(sum.Categories) > 0 {
		b.WriteString("\n🏷 <b>Spending by category</b>\n")
		for _, c := range sum.Categories {
			b.WriteString(fmt.Sprintf("• %s: %s\n", categoryLabel(c.Category), money.Format(c.Total, cur)))
		}
	}
	b.WriteString("\nChange it with /budget &lt;amount&gt;.")
	return b.String()
}

func formatHistory(entries []model.HistoryEntry, filter, currency string) string {
	var b strings.Builder
	b.WriteString("📜 <b>Shopping history</b>\n")
	if filter != "" {
		b.WriteString(fmt.Sprintf("🔎 %s\n", escape(filter)))
	}
	if len(entries) == 0 {
		b.WriteString("\nNo trips found.")
		return b.String()
	}
	b.WriteByte('\n')
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("🗓 <b>%s</b> · %d items · %s spent\n",
			e.Date.Local().Format(service.HistoryDateLayout), len(e.Items), money.Format(e.TotalSpent, currency)))
		names := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			names = append(names, escape(item.Name))
		}
		if len(names) > 0 {
			b.WriteString(fmt.Sprintf("   %s\n", strings.Join(names, ", ")))
		}
	}
	return strings.TrimSpace(b.String())
}

func formatReminder(target *time.Time, now time.Time) string {
	if target == nil {
		return "⏰ No reminder set. Use /remind to plan your next trip."
	}
	if !target.After(now) {
		return fmt.Sprintf("⏰ Reminder due now (%s).", target.Format(shortDateTime))
	}
	left := target.Sub(now).Round(time.Minute)
	return fmt.Sprintf("⏰ Reminder set for <b>%s</b> (in %s).", target.Format(shortDateTime), humanDuration(left))
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int((d - time.Duration(hours)*time.Hour) / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatSettings(st model.AppState) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Settings</b>\n\n")
	if st.User != nil {
		b.WriteString(fmt.Sprintf("👤 %s", escape(st.User.Name)))
		if st.User.Email != "" {
			b.WriteString(fmt.Sprintf(" · %s", escape(st.User.Email)))
		}
		if st.User.Avatar != "" {
			b.WriteString(" · 🖼")
		}
		b.WriteByte('\n')
	}
	country := "not set"
	if c, ok := model.LookupCountry(st.CountryCode); ok {
		country = c.Name
	}
	b.WriteString(fmt.Sprintf("🌍 Country: %s\n", escape(country)))
	b.WriteString(fmt.Sprintf("💱 Currency: %s\n", escape(st.Currency)))
	b.WriteString(fmt.Sprintf("🎨 Theme: %s\n", st.Theme))
	b.WriteString(fmt.Sprintf("🔔 Notifications: %s\n", onOff(st.NotificationsEnabled)))
	b.WriteString(fmt.Sprintf("🔊 Sound: %s\n", onOff(st.SoundEnabled)))
	b.WriteString(fmt.Sprintf("📳 Vibration: %s\n", onOff(st.VibrationEnabled)))
	if st.SecurityPin != nil {
		b.WriteString(fmt.Sprintf("🔐 PIN: set · biometrics %s\n", onOff(st.UseBiometrics)))
	} else {
		b.WriteString("🔓 PIN: not set\n")
	}
	b.WriteString("\n/currency &lt;ISO&gt; · /country &lt;code&gt; · /profile &lt;name&gt; | &lt;email&gt;\n")
	b.WriteString("/pin &lt;4 digits&gt; · /nopin · /lock · /wipe · /logout\n")
	b.WriteString("Send a photo to set your avatar.")
	return b.String()
}
