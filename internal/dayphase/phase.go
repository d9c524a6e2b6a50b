package dayphase

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase is the part of the day a timestamp falls into.
type Phase int

const (
	Night Phase = iota
	Morning
	Afternoon
	Evening
)

// Theme selects the light or dark palette.
type Theme int

const (
	Dark Theme = iota
	Light
)

// Icon assets
const (
	IconMoon    = "/moon.png"
	IconSunrise = "/sunrise.png"
)

func (p Phase) String() string {
	switch p {
	case Night:
		return "night"
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Evening:
		return "evening"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("phase %d: %w", int(p), ErrInvalidInput)
	}
	return []byte(p.String()), nil
}

func (p Phase) valid() bool {
	return p >= Night && p <= Evening
}

func (t Theme) String() string {
	switch t {
	case Dark:
		return "dark"
	case Light:
		return "light"
	default:
		return "unknown"
	}
}

func (t Theme) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("theme %d: %w", int(t), ErrInvalidInput)
	}
	return []byte(t.String()), nil
}

func (t Theme) valid() bool {
	return t == Dark || t == Light
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Phases lists every phase in evaluation order.
func Phases() []Phase {
	return []Phase{Night, Morning, Afternoon, Evening}
}

// Themes lists every theme.
func Themes() []Theme {
	return []Theme{Light, Dark}
}

// ParseTheme accepts "light" or "dark" in any case. An empty string is the dark default.
func ParseTheme(value string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dark":
		return Dark, nil
	case "light":
		return Light, nil
	default:
		return Dark, fmt.Errorf("theme %q: %w", value, ErrInvalidInput)
	}
}

// ParseEpoch parses an epoch-seconds value supplied at an input boundary.
func ParseEpoch(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("missing timestamp: %w", ErrInvalidInput)
	}
	epoch, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", value, ErrInvalidInput)
	}
	return epoch, nil
}
