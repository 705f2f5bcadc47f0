package model

// UserProfile stores the owner's profile and Telegram identity.
type UserProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Avatar     string `json:"avatar,omitempty"` // data URL
	TelegramID int64  `json:"telegramId"`
	ChatID     int64  `json:"chatId"`
}
