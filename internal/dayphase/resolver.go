// Package dayphase classifies a moment relative to a sunrise/sunset pair and picks the
// background gradient and icon to render for it.
//
// Everything here is a pure function of its arguments. The caller always passes the current
// time; nothing in this package reads the clock.
package dayphase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWindow = errors.New("invalid day window")
	ErrInvalidInput  = errors.New("invalid input")
)

// DayWindow is the sunrise and sunset of one location and date, in epoch seconds.
type DayWindow struct {
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}

// Validate reports ErrInvalidWindow unless Sunset is strictly after Sunrise.
func (w DayWindow) Validate() error {
	if w.Sunset <= w.Sunrise || w.Sunset-w.Sunrise <= 0 {
		return fmt.Errorf("sunrise=%d sunset=%d: %w", w.Sunrise, w.Sunset, ErrInvalidWindow)
	}
	return nil
}

// Length is the day length in seconds. Only meaningful for a valid window.
func (w DayWindow) Length() int64 {
	return w.Sunset - w.Sunrise
}

// Result is what the renderer needs for one moment.
type Result struct {
	Phase    Phase        `json:"phase"`
	Theme    Theme        `json:"theme"`
	Gradient GradientSpec `json:"gradient"`
	CSS      string       `json:"css"`
	Icon     string       `json:"icon"`
}

// Classify returns the phase of now within the window.
//
// The day is split at quarter points: morning ends at sunrise+D/4 and evening starts at
// sunset-D/4, where D/4 is an exact quarter (not truncated). Predicates are checked in the
// order Night, Morning, Afternoon, Evening and the first match wins.
func Classify(now int64, w DayWindow) (Phase, error) {
	if err := w.Validate(); err != nil {
		return Night, err
	}

	if now < w.Sunrise || now >= w.Sunset {
		return Night, nil
	}

	quarter, rem := w.Length()/4, w.Length()%4

	// elapsed < quarter + rem/4, with 0 <= rem/4 < 1
	elapsed := now - w.Sunrise
	if elapsed < quarter || (rem > 0 && elapsed == quarter) {
		return Morning, nil
	}

	// now < sunset - D/4  <=>  remaining > quarter + rem/4  <=>  remaining > quarter
	remaining := w.Sunset - now
	if remaining > quarter {
		return Afternoon, nil
	}

	return Evening, nil
}

// Resolve classifies now and looks up the gradient and icon for the phase and theme.
func Resolve(now int64, w DayWindow, theme Theme) (Result, error) {
	if !theme.valid() {
		return Result{}, fmt.Errorf("theme %d: %w", int(theme), ErrInvalidInput)
	}

	phase, err := Classify(now, w)
	if err != nil {
		return Result{}, err
	}

	gradient, _ := Gradient(phase, theme)
	return Result{
		Phase:    phase,
		Theme:    theme,
		Gradient: gradient,
		CSS:      gradient.CSS(),
		Icon:     IconFor(phase),
	}, nil
}
