package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"smart-grocery/internal/model"
)

var (
	ErrInvalidPin         = errors.New("PIN must be exactly 4 digits")
	ErrNoPin              = errors.New("no PIN is set")
	ErrWrongPin           = errors.New("wrong PIN")
	ErrBiometricsDisabled = errors.New("biometric unlock is disabled")
	ErrUntrustedIdentity  = errors.New("identity does not match the owner")
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// SecurityService implements the app lock. The PIN is compared in plain
// text; it guards against casual access only.
type SecurityService struct {
	state *StateService
}

func NewSecurityService(state *StateService) *SecurityService {
	return &SecurityService{state: state}
}

// ValidPin reports whether pin has the accepted form.
func ValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// IsLocked is true when a PIN is set and the session is not authenticated.
func (s *SecurityService) IsLocked() bool {
	st := s.state.Snapshot()
	return st.SecurityPin != nil && !st.IsAuthenticated
}

func (s *SecurityService) HasPin() bool {
	return s.state.Snapshot().SecurityPin != nil
}

// SetPin sets or replaces the PIN and keeps the current session unlocked.
func (s *SecurityService) SetPin(ctx context.Context, pin string) error {
	if !ValidPin(pin) {
		return ErrInvalidPin
	}
	err := s.state.Update(ctx, func(st *model.AppState) error {
		st.SecurityPin = &pin
		st.IsAuthenticated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// RemovePin drops the PIN and biometric unlock with it.
func (s *SecurityService) RemovePin(ctx context.Context) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.SecurityPin == nil {
			return ErrNoPin
		}
		st.SecurityPin = nil
		st.UseBiometrics = false
		st.IsAuthenticated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove pin: %w", err)
	}
	return nil
}

func (s *SecurityService) Lock(ctx context.Context) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.SecurityPin == nil {
			return ErrNoPin
		}
		st.IsAuthenticated = false
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	return nil
}

func (s *SecurityService) Unlock(ctx context.Context, pin string) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.SecurityPin == nil {
			return ErrNoPin
		}
		if *st.SecurityPin != pin {
			return ErrWrongPin
		}
		st.IsAuthenticated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}

// UnlockBiometric unlocks when biometrics are enabled and telegramID is the
// registered owner. The platform's verified sender id stands in for a
// fingerprint or face check.
func (s *SecurityService) UnlockBiometric(ctx context.Context, telegramID int64) error {
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.SecurityPin == nil {
			return ErrNoPin
		}
		if !st.UseBiometrics {
			return ErrBiometricsDisabled
		}
		if st.User == nil || st.User.TelegramID != telegramID {
			return ErrUntrustedIdentity
		}
		st.IsAuthenticated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("biometric unlock: %w", err)
	}
	return nil
}

// ToggleBiometrics flips biometric unlock and returns the new value.
func (s *SecurityService) ToggleBiometrics(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.state.Update(ctx, func(st *model.AppState) error {
		if st.SecurityPin == nil {
			return ErrNoPin
		}
		st.UseBiometrics = !st.UseBiometrics
		enabled = st.UseBiometrics
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle biometrics: %w", err)
	}
	return enabled, nil
}
