package waveform

import (
	"fmt"
	"image/color"
	"strings"
)

// Theme is the colour set of one display mode.
type Theme struct {
	Name            string
	Background      color.NRGBA
	GradientTop     color.NRGBA
	GradientBottom  color.NRGBA
	Unplayed        color.NRGBA
	Playhead        color.NRGBA
	SelectionFill   color.NRGBA
	SelectionBorder color.NRGBA
	Hover           color.NRGBA
	Placeholder     color.NRGBA
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func rgba(r, g, b uint8, alpha float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

var (
	LightTheme = Theme{
		Name:            "light",
		Background:      hex(0xF3F4F6),
		GradientTop:     hex(0x6366F1),
		GradientBottom:  hex(0x818CF8),
		Unplayed:        rgba(0, 0, 0, 0.06),
		Playhead:        hex(0x4F46E5),
		SelectionFill:   rgba(99, 102, 241, 0.1),
		SelectionBorder: rgba(99, 102, 241, 0.4),
		Hover:           rgba(0, 0, 0, 0.3),
		Placeholder:     hex(0xCBD5E1),
	}

	DarkTheme = Theme{
		Name:            "dark",
		Background:      hex(0x18181B),
		GradientTop:     hex(0x8B5CF6),
		GradientBottom:  hex(0xC084FC),
		Unplayed:        rgba(255, 255, 255, 0.1),
		Playhead:        hex(0xFFFFFF),
		SelectionFill:   rgba(139, 92, 246, 0.2),
		SelectionBorder: rgba(167, 139, 250, 0.5),
		Hover:           rgba(255, 255, 255, 0.3),
		Placeholder:     hex(0x475569),
	}
)

// ThemeByName resolves "light" or "dark" (case-insensitive).
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "light":
		return LightTheme, nil
	case "dark":
		return DarkTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}
