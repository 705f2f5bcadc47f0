package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"smart-grocery/internal/model"
	"smart-grocery/internal/money"
)

// ReportService builds human-readable budget digests.
type ReportService struct {
	state *StateService
}

func NewReportService(state *StateService) *ReportService {
	return &ReportService{state: state}
}

// Digest renders the HTML budget summary sent to the owner.
func (s *ReportService) Digest(now time.Time) string {
	return BuildDigest(s.state.Snapshot(), now)
}

func BuildDigest(st model.AppState, now time.Time) string {
	sum := Summarize(st, now)
	cur := st.Currency

	var builder strings.Builder
	builder.WriteString("📊 <b>Budget digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("January 2006")))

	builder.WriteString(fmt.Sprintf("%s Spent: <b>%s</b> of %s (%.0f%%)\n",
		LevelIcon(sum.Level), money.Format(sum.Spent, cur), money.Format(sum.Budget, cur), sum.Percentage))
	switch sum.Level {
	case LevelOver:
		builder.WriteString(fmt.Sprintf("🚨 Over budget by <b>%s</b>\n", money.Format(sum.Overspent, cur)))
	case LevelWarning:
		builder.WriteString(fmt.Sprintf("⚠️ Only %s left this month\n", money.Format(sum.Remaining, cur)))
	default:
		builder.WriteString(fmt.Sprintf("💰 Remaining: %s\n", money.Format(sum.Remaining, cur)))
	}

	if len(sum.Categories) > 0 {
		builder.WriteString("\n🏷 <b>Top categories</b>\n")
		for i, c := range sum.Categories {
			if i == 3 {
				break
			}
			builder.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(c.Category), money.Format(c.Total, cur)))
		}
	}

	builder.WriteString("\n🛒 <b>Shopping list</b>\n")
	pending := pendingItems(st.CurrentList)
	if pending == 0 {
		builder.WriteString("— nothing left to buy\n")
	} else {
		for _, item := range st.CurrentList {
			if item.IsPurchased {
				continue
			}
			builder.WriteString(fmt.Sprintf("▫️ %s <i>(%s)</i> %s\n",
				html.EscapeString(strings.TrimSpace(item.Name)), html.EscapeString(item.Category), money.Format(item.Price, cur)))
		}
	}

	if st.ReminderTime != nil {
		builder.WriteString(fmt.Sprintf("\n⏰ Next reminder: %s\n", st.ReminderTime.Format("2006-01-02 15:04")))
	}

	return strings.TrimSpace(builder.String())
}

// LevelIcon is the emoji used for a budget level.
func LevelIcon(level BudgetLevel) string {
	switch level {
	case LevelOver:
		return "🔴"
	case LevelWarning:
		return "🟠"
	default:
		return "🟢"
	}
}
