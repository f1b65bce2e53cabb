package workspace

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/zhouzirui/docchat/internal/model/widget"
)

const (
	MaxBotNameLength        = 100
	MaxWelcomeMessageLength = 500
)

var ErrInvalidSettings = errors.New("invalid chatbot settings")

// Workspace is a tenant-scoped collection of documents with its chatbot
// customization. Unset settings fields are empty strings.
type Workspace struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Settings  widget.Settings `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
}

// ResolvedSettings fills every unset or malformed field with its default.
func (w Workspace) ResolvedSettings() widget.Settings {
	return w.Settings.Profile().Settings()
}

// SettingsUpdate is a partial settings change: nil fields are left alone.
type SettingsUpdate struct {
	BotName        *string `json:"bot_name,omitempty"`
	PrimaryColor   *string `json:"primary_color,omitempty"`
	ChatPosition   *string `json:"chat_position,omitempty"`
	WelcomeMessage *string `json:"welcome_message,omitempty"`
}

// Validate checks the fields that are set.
func (u SettingsUpdate) Validate() error {
	if u.BotName != nil && utf8.RuneCountInString(*u.BotName) > MaxBotNameLength {
		return fmt.Errorf("%w: bot_name exceeds %d characters", ErrInvalidSettings, MaxBotNameLength)
	}
	if u.PrimaryColor != nil && !widget.IsHexColor(*u.PrimaryColor) {
		return fmt.Errorf("%w: primary_color must look like #3b82f6", ErrInvalidSettings)
	}
	if u.ChatPosition != nil {
		if _, ok := widget.ParseAnchorSide(*u.ChatPosition); !ok {
			return fmt.Errorf("%w: chat_position must be left or right", ErrInvalidSettings)
		}
	}
	if u.WelcomeMessage != nil && utf8.RuneCountInString(*u.WelcomeMessage) > MaxWelcomeMessageLength {
		return fmt.Errorf("%w: welcome_message exceeds %d characters", ErrInvalidSettings, MaxWelcomeMessageLength)
	}
	return nil
}

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u.BotName == nil && u.PrimaryColor == nil && u.ChatPosition == nil && u.WelcomeMessage == nil
}
