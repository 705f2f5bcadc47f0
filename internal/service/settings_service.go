package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"smart-grocery/internal/model"
	"smart-grocery/internal/money"
)

var (
	ErrUnknownCountry  = errors.New("unknown country code")
	ErrUnknownCurrency = errors.New("unknown currency code")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrNotImage        = errors.New("avatar must be an image")
)

// MaxAvatarBytes bounds the avatar stored inside the state blob.
const MaxAvatarBytes = 1 << 20

// SettingsService edits the profile and preferences.
type SettingsService struct {
	state *StateService
}

func NewSettingsService(state *StateService) *SettingsService {
	return &SettingsService{state: state}
}

// Register records the Telegram account talking to the bot and marks the
// session authenticated unless a PIN is set.
func (s *SettingsService) Register(ctx context.Context, telegramID, chatID int64, name string) (model.UserProfile, error) {
	var out model.UserProfile
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.User == nil {
			st.User = &model.UserProfile{Name: strings.TrimSpace(name)}
		}
		st.User.TelegramID = telegramID
		st.User.ChatID = chatID
		if st.User.Name == "" {
			st.User.Name = strings.TrimSpace(name)
		}
		if st.SecurityPin == nil {
			st.IsAuthenticated = true
		}
		out = *st.User
		return nil
	})
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("register user: %w", err)
	}
	return out, nil
}

// UpdateProfile sets the display name and optional email.
func (s *SettingsService) UpdateProfile(ctx context.Context, name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("%w: email %q", ErrInvalidProfile, email)
		}
	}
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.User == nil {
			st.User = &model.UserProfile{}
		}
		st.User.Name = name
		st.User.Email = email
		return nil
	})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetAvatar stores an uploaded image as a data URL.
func (s *SettingsService) SetAvatar(ctx context.Context, image []byte) error {
	if len(image) == 0 || len(image) > MaxAvatarBytes {
		return fmt.Errorf("%w: size %d bytes", ErrNotImage, len(image))
	}
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return fmt.Errorf("%w: got %s", ErrNotImage, mime)
	}
	url := AvatarDataURL(mime, image)
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.User == nil {
			st.User = &model.UserProfile{}
		}
		st.User.Avatar = url
		return nil
	})
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return nil
}

func AvatarDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *SettingsService) ToggleTheme(ctx context.Context) (model.Theme, error) {
	var theme model.Theme
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.Theme == model.ThemeDark {
			st.Theme = model.ThemeLight
		} else {
			st.Theme = model.ThemeDark
		}
		theme = st.Theme
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("toggle theme: %w", err)
	}
	return theme, nil
}

// SetCountry selects a country and switches to its currency.
func (s *SettingsService) SetCountry(ctx context.Context, code string) (model.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	country, ok := model.LookupCountry(code)
	if !ok {
		return model.Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
	err := s.state.Update(ctx, func(st *model.AppState) error {
		st.CountryCode = code
		st.Currency = country.Currency
		return nil
	})
	if err != nil {
		return model.Country{}, fmt.Errorf("set country: %w", err)
	}
	return country, nil
}

func (s *SettingsService) SetCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !money.ValidCurrency(code) {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	err := s.state.Update(ctx, func(st *model.AppState) error {
		st.Currency = code
		return nil
	})
	if err != nil {
		return fmt.Errorf("set currency: %w", err)
	}
	return nil
}

// Preference names accepted by Toggle.
const (
	PrefSound         = "sound"
	PrefVibration     = "vibration"
	PrefNotifications = "notifications"
)

// Toggle flips one alert preference and returns its new value.
func (s *SettingsService) Toggle(ctx context.Context, pref string) (bool, error) {
	var value bool
	err := s.state.Update(ctx, func(st *model.AppState) error {
		var field *bool
		switch pref {
		case PrefSound:
			field = &st.SoundEnabled
		case PrefVibration:
			field = &st.VibrationEnabled
		case PrefNotifications:
			field = &st.NotificationsEnabled
		default:
			return fmt.Errorf("unknown preference %q", pref)
		}
		*field = !*field
		value = *field
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle %s: %w", pref, err)
	}
	return value, nil
}

// SignOut forgets the profile and ends the session. List, history and
// preferences are kept.
func (s *SettingsService) SignOut(ctx context.Context) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		st.User = nil
		st.IsAuthenticated = false
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Wipe deletes everything and restores defaults.
func (s *SettingsService) Wipe(ctx context.Context) error {
	return s.state.Reset(ctx)
}
