package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/synth"
)

// newSynthesizer is swapped out by tests.
var newSynthesizer = func(cfg config.SynthConfig) (synth.Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("synthesis API key not set; use --synth-api-key, VOICESTUDIO_SYNTH_API_KEY or GEMINI_API_KEY")
	}

	return synth.NewClient(cfg), nil
}

// mapSynthError adds a hint to failures the user can fix.
func mapSynthError(err error) error {
	var reqErr *synth.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("synth failed: the API rejected the key; check --synth-api-key: %w", err)
		case http.StatusNotFound:
			return fmt.Errorf("synth failed: unknown model or endpoint; check --synth-model and --synth-endpoint: %w", err)
		}
	}

	return err
}

func loadLibrary(cfg config.Config) (*synth.Library, error) {
	lib, err := synth.NewLibrary(cfg.Paths.ProfilesPath)
	if err != nil {
		return nil, err
	}
	if len(lib.List()) == 0 {
		return nil, fmt.Errorf("profile manifest %s lists no profiles", cfg.Paths.ProfilesPath)
	}

	return lib, nil
}

// resolveProfile returns the profile with id, or the first profile when id
// is empty.
func resolveProfile(lib *synth.Library, id string) (synth.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return lib.List()[0], nil
	}

	return lib.Get(id)
}

// outputCloser is the audio output plus whatever must be released on exit.
type outputCloser struct {
	playback.Context
	close func() error
}

func (o outputCloser) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// openOutput opens the configured playback backend. With fallback set, an
// unavailable device degrades to the silent null output instead of failing.
func openOutput(cfg config.Config, fallback bool) (outputCloser, error) {
	backend, err := config.NormalizePlaybackBackend(cfg.Playback.Backend)
	if err != nil {
		return outputCloser{}, err
	}

	if backend == config.PlaybackNull {
		return outputCloser{Context: playback.NewNullContext()}, nil
	}

	oto, err := playback.NewOtoContext(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		if !fallback {
			return outputCloser{}, err
		}
		slog.Warn("audio device unavailable, using silent output", slog.String("error", err.Error()))
		return outputCloser{Context: playback.NewNullContext()}, nil
	}

	return outputCloser{Context: oto, close: oto.Close}, nil
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}

func writeOutput(outPath string, data []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
