package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"smart-grocery/internal/model"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrEmptyList    = errors.New("shopping list is empty")
	ErrInvalidItem  = errors.New("invalid item")
)

// ListTotals summarises the current list.
type ListTotals struct {
	Items     int     `json:"items"`
	Purchased int     `json:"purchased"`
	Bill      float64 `json:"bill"`  // all prices
	Spent     float64 `json:"spent"` // purchased prices
}

// ListService manages the current shopping list and saved trips.
type ListService struct {
	state *StateService
	now   func() time.Time
}

func NewListService(state *StateService) *ListService {
	return &ListService{state: state, now: time.Now}
}

// ItemInput is the editable part of an item.
type ItemInput struct {
	Name     string
	Price    float64
	Category string
}

func (in ItemInput) normalize() (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return in, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidItem)
	}
	in.Category = model.NormalizeCategory(in.Category)
	return in, nil
}

// Add puts a new unpurchased item at the top of the list.
func (s *ListService) Add(ctx context.Context, in ItemInput) (model.GroceryItem, error) {
	in, err := in.normalize()
	if err != nil {
		return model.GroceryItem{}, err
	}
	item := model.GroceryItem{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Price:    in.Price,
		Category: in.Category,
	}
	err = s.state.Update(ctx, func(st *model.AppState) error {
		st.CurrentList = append([]model.GroceryItem{item}, st.CurrentList...)
		return nil
	})
	if err != nil {
		return model.GroceryItem{}, fmt.Errorf("add item: %w", err)
	}
	return item, nil
}

// Edit replaces the name, price and category of an item.
func (s *ListService) Edit(ctx context.Context, id string, in ItemInput) (model.GroceryItem, error) {
	in, err := in.normalize()
	if err != nil {
		return model.GroceryItem{}, err
	}
	return s.mutate(ctx, id, "edit item", func(item *model.GroceryItem) {
		item.Name = in.Name
		item.Price = in.Price
		item.Category = in.Category
	})
}

// TogglePurchased flips the purchased flag.
func (s *ListService) TogglePurchased(ctx context.Context, id string) (model.GroceryItem, error) {
	return s.mutate(ctx, id, "toggle item", func(item *model.GroceryItem) {
		item.IsPurchased = !item.IsPurchased
	})
}

func (s *ListService) mutate(ctx context.Context, id, op string, fn func(*model.GroceryItem)) (model.GroceryItem, error) {
	var out model.GroceryItem
	err := s.state.Update(ctx, func(st *model.AppState) error {
		for i := range st.CurrentList {
			if st.CurrentList[i].ID == id {
				fn(&st.CurrentList[i])
				out = st.CurrentList[i]
				return nil
			}
		}
		return ErrItemNotFound
	})
	if err != nil {
		return model.GroceryItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ListService) Delete(ctx context.Context, id string) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		for i, item := range st.CurrentList {
			if item.ID == id {
				st.CurrentList = append(st.CurrentList[:i], st.CurrentList[i+1:]...)
				return nil
			}
		}
		return ErrItemNotFound
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Items returns the current list, newest first.
func (s *ListService) Items() []model.GroceryItem {
	return s.state.Snapshot().CurrentList
}

// Get finds an item by id.
func (s *ListService) Get(id string) (model.GroceryItem, error) {
	for _, item := range s.Items() {
		if item.ID == id {
			return item, nil
		}
	}
	return model.GroceryItem{}, ErrItemNotFound
}

// ItemAt resolves a 1-based position as shown by /list.
func (s *ListService) ItemAt(n int) (model.GroceryItem, error) {
	items := s.Items()
	if n < 1 || n > len(items) {
		return model.GroceryItem{}, fmt.Errorf("%w: no item #%d", ErrItemNotFound, n)
	}
	return items[n-1], nil
}

func (s *ListService) Totals() ListTotals {
	return totalsOf(s.Items())
}

func totalsOf(items []model.GroceryItem) ListTotals {
	var t ListTotals
	for _, item := range items {
		t.Items++
		t.Bill += item.Price
		if item.IsPurchased {
			t.Purchased++
			t.Spent += item.Price
		}
	}
	return t
}

// PendingCount is the number of unpurchased items.
func (s *ListService) PendingCount() int {
	return s.state.PendingCount()
}

// SaveToHistory records the whole list as a trip costing the purchased
// total and starts a new empty list.
func (s *ListService) SaveToHistory(ctx context.Context) (model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if len(st.CurrentList) == 0 {
			return ErrEmptyList
		}
		entry = model.HistoryEntry{
			ID:         uuid.NewString(),
			Date:       s.now(),
			Items:      append([]model.GroceryItem(nil), st.CurrentList...),
			TotalSpent: totalsOf(st.CurrentList).Spent,
		}
		st.History = append([]model.HistoryEntry{entry}, st.History...)
		st.CurrentList = []model.GroceryItem{}
		return nil
	})
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("save list: %w", err)
	}
	return entry, nil
}
