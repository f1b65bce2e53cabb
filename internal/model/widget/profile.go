package widget

import (
	"regexp"
	"strings"
)

// AnchorSide is the screen edge the chat bubble is pinned to.
type AnchorSide string

const (
	AnchorLeft  AnchorSide = "left"
	AnchorRight AnchorSide = "right"
)

// Defaults applied to every field the backend omits or sends malformed.
const (
	DefaultDisplayName = "AI Assistant"
	DefaultAccentColor = "#3b82f6"
	DefaultAnchorSide  = AnchorRight
	DefaultGreeting    = "Hi! How can I assist you?"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// PresentationProfile is the visual configuration applied to a mounted widget.
// Every field is always populated.
type PresentationProfile struct {
	DisplayName string     `json:"displayName"`
	AccentColor string     `json:"accentColor"`
	AnchorSide  AnchorSide `json:"anchorSide"`
	Greeting    string     `json:"greeting"`
}

// DefaultProfile returns the profile used before (or instead of) the remote one.
func DefaultProfile() PresentationProfile {
	return PresentationProfile{
		DisplayName: DefaultDisplayName,
		AccentColor: DefaultAccentColor,
		AnchorSide:  DefaultAnchorSide,
		Greeting:    DefaultGreeting,
	}
}

// Settings is the wire shape of a workspace's chatbot customization.
// Any field may be empty on the way in.
type Settings struct {
	BotName        string `json:"bot_name,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	ChatPosition   string `json:"chat_position,omitempty"`
	WelcomeMessage string `json:"welcome_message,omitempty"`
}

// Profile rebuilds a full profile from settings, taking each field only when
// it is present and well formed.
func (s Settings) Profile() PresentationProfile {
	profile := DefaultProfile()

	if name := strings.TrimSpace(s.BotName); name != "" {
		profile.DisplayName = name
	}
	if IsHexColor(s.PrimaryColor) {
		profile.AccentColor = s.PrimaryColor
	}
	if side, ok := ParseAnchorSide(s.ChatPosition); ok {
		profile.AnchorSide = side
	}
	if greeting := strings.TrimSpace(s.WelcomeMessage); greeting != "" {
		profile.Greeting = greeting
	}

	return profile
}

// Settings converts the profile back into its wire shape.
func (p PresentationProfile) Settings() Settings {
	return Settings{
		BotName:        p.DisplayName,
		PrimaryColor:   p.AccentColor,
		ChatPosition:   string(p.AnchorSide),
		WelcomeMessage: p.Greeting,
	}
}

// IsHexColor reports whether value is a 6-digit hex color such as #3b82f6.
func IsHexColor(value string) bool {
	return hexColorPattern.MatchString(value)
}

// ParseAnchorSide accepts exactly "left" or "right".
func ParseAnchorSide(value string) (AnchorSide, bool) {
	switch AnchorSide(value) {
	case AnchorLeft:
		return AnchorLeft, true
	case AnchorRight:
		return AnchorRight, true
	default:
		return "", false
	}
}
