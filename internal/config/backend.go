package config

import (
	"fmt"
	"strings"
)

const (
	PlaybackOto  = "oto"
	PlaybackNull = "null"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

func NormalizePlaybackBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = PlaybackOto
	}
	switch backend {
	case PlaybackOto, PlaybackNull:
		return backend, nil
	case "none", "silent":
		return PlaybackNull, nil
	default:
		return "", fmt.Errorf("invalid playback backend %q (expected %s|%s)", raw, PlaybackOto, PlaybackNull)
	}
}

func NormalizeTheme(raw string) (string, error) {
	theme := strings.ToLower(strings.TrimSpace(raw))
	if theme == "" {
		theme = ThemeLight
	}
	switch theme {
	case ThemeLight, ThemeDark:
		return theme, nil
	default:
		return "", fmt.Errorf("invalid theme %q (expected %s|%s)", raw, ThemeLight, ThemeDark)
	}
}
