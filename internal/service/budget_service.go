package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"smart-grocery/internal/model"
)

var ErrInvalidBudget = errors.New("budget must be a non-negative number")

// BudgetLevel classifies spending against the monthly budget.
type BudgetLevel string

const (
	LevelOK      BudgetLevel = "ok"
	LevelWarning BudgetLevel = "warning"
	LevelOver    BudgetLevel = "over"
)

// ProgressColour is the colour of the budget progress bar.
type ProgressColour string

const (
	ColourGreen ProgressColour = "green"
	ColourAmber ProgressColour = "amber"
	ColourRed   ProgressColour = "red"
)

const warningPercentage = 80

// CategoryTotal is the purchased amount for one category this month.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// BudgetSummary describes spending for the current month.
type BudgetSummary struct {
	Budget     float64         `json:"budget"`
	Spent      float64         `json:"spent"`
	Remaining  float64         `json:"remaining"`
	Overspent  float64         `json:"overspent"`
	Percentage float64         `json:"percentage"`
	Level      BudgetLevel     `json:"level"`
	Colour     ProgressColour  `json:"colour"`
	Currency   string          `json:"currency"`
	Categories []CategoryTotal `json:"categories"`
}

type BudgetService struct {
	state *StateService
}

func NewBudgetService(state *StateService) *BudgetService {
	return &BudgetService{state: state}
}

func (s *BudgetService) SetBudget(ctx context.Context, amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidBudget
	}
	err := s.state.Update(ctx, func(st *model.AppState) error {
		st.MonthlyBudget = amount
		return nil
	})
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// Summary computes the budget for the month containing now: purchases on
// the active list plus trips saved this month.
func (s *BudgetService) Summary(now time.Time) BudgetSummary {
	return Summarize(s.state.Snapshot(), now)
}

// Summarize is Summary over an explicit state.
func Summarize(st model.AppState, now time.Time) BudgetSummary {
	byCategory := make(map[string]float64)
	spent := 0.0

	for _, item := range st.CurrentList {
		if item.IsPurchased {
			spent += item.Price
			byCategory[model.NormalizeCategory(item.Category)] += item.Price
		}
	}
	year, month, _ := now.Date()
	for _, entry := range st.History {
		d := entry.Date.In(now.Location())
		if d.Year() != year || d.Month() != month {
			continue
		}
		spent += entry.TotalSpent
		for _, item := range entry.Items {
			if item.IsPurchased {
				byCategory[model.NormalizeCategory(item.Category)] += item.Price
			}
		}
	}

	sum := BudgetSummary{
		Budget:     st.MonthlyBudget,
		Spent:      spent,
		Remaining:  math.Max(0, st.MonthlyBudget-spent),
		Overspent:  math.Max(0, spent-st.MonthlyBudget),
		Percentage: percentage(spent, st.MonthlyBudget),
		Currency:   st.Currency,
		Categories: make([]CategoryTotal, 0, len(byCategory)),
	}
	sum.Level = level(spent, st.MonthlyBudget, sum.Percentage)
	sum.Colour = colour(sum.Percentage)

	for cat, total := range byCategory {
		sum.Categories = append(sum.Categories, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(sum.Categories, func(i, j int) bool {
		if sum.Categories[i].Total == sum.Categories[j].Total {
			return sum.Categories[i].Category < sum.Categories[j].Category
		}
		return sum.Categories[i].Total > sum.Categories[j].Total
	})
	return sum
}

func percentage(spent, budget float64) float64 {
	if budget <= 0 {
		if spent > 0 {
			return 100
		}
		return 0
	}
	return math.Min(spent/budget*100, 100)
}

func level(spent, budget, pct float64) BudgetLevel {
	switch {
	case spent > budget:
		return LevelOver
	case pct > warningPercentage:
		return LevelWarning
	default:
		return LevelOK
	}
}

func colour(pct float64) ProgressColour {
	switch {
	case pct > 90:
		return ColourRed
	case pct > 75:
		return ColourAmber
	default:
		return ColourGreen
	}
}
