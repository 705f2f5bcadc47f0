package model

import "time"

// GroceryItem is a single entry on the shopping list.
type GroceryItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	IsPurchased bool    `json:"isPurchased"`
}

// HistoryEntry is a saved shopping trip.
type HistoryEntry struct {
	ID         string        `json:"id"`
	Date       time.Time     `json:"date"`
	Items      []GroceryItem `json:"items"`
	TotalSpent float64       `json:"totalSpent"`
}

// Clone returns a copy that shares no slices with e.
func (e HistoryEntry) Clone() HistoryEntry {
	e.Items = append([]GroceryItem(nil), e.Items...)
	return e
}
