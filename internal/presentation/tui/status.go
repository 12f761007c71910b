package tui

import (
	"github.com/muesli/termenv"
)

// Palette colors status lines. Accent may be an ANSI code ("0" to "255") or a
// hex color; empty values fall back to the defaults.
type Palette struct {
	accent termenv.Color
	ok     termenv.Color
	fail   termenv.Color
}

// NewPalette builds a palette for the terminal's color profile.
func NewPalette(accent string) Palette {
	p := termenv.ColorProfile()
	if accent == "" {
		accent = "#818cf8"
	}
	return Palette{
		accent: p.Color(accent),
		ok:     p.Color("#34d399"),
		fail:   p.Color("#f87171"),
	}
}

// Accent highlights s, such as a prim path.
func (p Palette) Accent(s string) string {
	return termenv.String(s).Foreground(p.accent).Bold().String()
}

// Success formats a completed action.
func (p Palette) Success(s string) string {
	return termenv.String("✔ " + s).Foreground(p.ok).String()
}

// Failure formats a rejected action.
func (p Palette) Failure(s string) string {
	return termenv.String("✘ " + s).Foreground(p.fail).String()
}
