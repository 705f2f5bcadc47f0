package service

import (
	"strings"

	"smart-grocery/internal/model"
)

// HistoryDateLayout is how trip dates are shown and searched.
const HistoryDateLayout = "1/2/2006"

type HistoryService struct {
	state *StateService
}

func NewHistoryService(state *StateService) *HistoryService {
	return &HistoryService{state: state}
}

// Search returns trips, newest first, whose date contains filter or that
// include an item whose name contains it (case-insensitive). An empty
// filter matches everything.
func (s *HistoryService) Search(filter string) []model.HistoryEntry {
	return SearchHistory(s.state.Snapshot().History, filter)
}

func SearchHistory(history []model.HistoryEntry, filter string) []model.HistoryEntry {
	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]model.HistoryEntry, 0, len(history))
	for _, entry := range history {
		if filter == "" || matchesEntry(entry, filter) {
			out = append(out, entry)
		}
	}
	return out
}

func matchesEntry(entry model.HistoryEntry, filter string) bool {
	if strings.Contains(entry.Date.Local().Format(HistoryDateLayout), filter) {
		return true
	}
	for _, item := range entry.Items {
		if strings.Contains(strings.ToLower(item.Name), filter) {
			return true
		}
	}
	return false
}

// Get finds a trip by id.
func (s *HistoryService) Get(id string) (model.HistoryEntry, bool) {
	for _, entry := range s.state.Snapshot().History {
		if entry.ID == id {
			return entry, true
		}
	}
	return model.HistoryEntry{}, false
}
