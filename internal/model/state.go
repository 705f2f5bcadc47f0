package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StorageKey is the fixed key the application state blob is stored under.
const StorageKey = "smart_grocery_budget_data"

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultMonthlyBudget applies when nothing has been stored yet.
const DefaultMonthlyBudget = 500

// AppState is the single serialized record holding everything the app persists.
type AppState struct {
	CurrentList          []GroceryItem  `json:"currentList"`
	MonthlyBudget        float64        `json:"monthlyBudget"`
	History              []HistoryEntry `json:"history"`
	Theme                Theme          `json:"theme"`
	User                 *UserProfile   `json:"user"`
	IsAuthenticated      bool           `json:"isAuthenticated"`
	SecurityPin          *string        `json:"securityPin"`
	UseBiometrics        bool           `json:"useBiometrics"`
	Currency             string         `json:"currency"`
	CountryCode          string         `json:"countryCode,omitempty"`
	SoundEnabled         bool           `json:"soundEnabled"`
	VibrationEnabled     bool           `json:"vibrationEnabled"`
	NotificationsEnabled bool           `json:"notificationsEnabled"`
	ReminderTime         *LocalTime     `json:"reminderTime"`
}

// DefaultState returns the state used on first launch or when storage is unreadable.
func DefaultState() AppState {
	return AppState{
		CurrentList:          []GroceryItem{},
		MonthlyBudget:        DefaultMonthlyBudget,
		History:              []HistoryEntry{},
		Theme:                ThemeLight,
		Currency:             "USD",
		SoundEnabled:         true,
		VibrationEnabled:     true,
		NotificationsEnabled: true,
	}
}

// Clone deep-copies the state so callers can read it without holding locks.
func (s AppState) Clone() AppState {
	out := s
	out.CurrentList = append([]GroceryItem{}, s.CurrentList...)
	out.History = make([]HistoryEntry, len(s.History))
	for i, e := range s.History {
		out.History[i] = e.Clone()
	}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.SecurityPin != nil {
		p := *s.SecurityPin
		out.SecurityPin = &p
	}
	if s.ReminderTime != nil {
		t := *s.ReminderTime
		out.ReminderTime = &t
	}
	return out
}

// DecodeState parses a stored blob on top of the defaults, so fields missing
// from older blobs keep their default values.
func DecodeState(data []byte) (AppState, error) {
	state := DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), fmt.Errorf("decode state: %w", err)
	}
	if state.CurrentList == nil {
		state.CurrentList = []GroceryItem{}
	}
	if state.History == nil {
		state.History = []HistoryEntry{}
	}
	return state, nil
}

// EncodeState serializes the state blob.
func EncodeState(state AppState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// LocalTimeLayout is the ISO-8601 local datetime format used for reminderTime.
const LocalTimeLayout = "2006-01-02T15:04:05"

var localTimeLayouts = []string{LocalTimeLayout, "2006-01-02T15:04"}

// LocalTime is a wall-clock instant serialized without a zone offset and
// interpreted in the device's local zone.
type LocalTime struct {
	time.Time
}

// NewLocalTime wraps t.
func NewLocalTime(t time.Time) *LocalTime {
	return &LocalTime{Time: t}
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.In(time.Local).Format(LocalTimeLayout))
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("reminder time: %w", err)
	}
	parsed, err := ParseLocalTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseLocalTime accepts the local datetime layouts, with or without seconds.
func ParseLocalTime(raw string) (time.Time, error) {
	for _, layout := range localTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local datetime %q", raw)
}
