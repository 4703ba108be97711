// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestLiveSynthesis(t *testing.T) {
//	    key := testutil.RequireAPIKey(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/voicestudio/internal/audio"
)

// apiKeyEnv lists the variables the synthesis API key is read from, in order.
var apiKeyEnv = []string{"VOICESTUDIO_SYNTH_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// RequireAPIKey skips the test unless a synthesis API key is set and returns it.
func RequireAPIKey(tb testing.TB) string {
	tb.Helper()

	for _, env := range apiKeyEnv {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}

	tb.Skipf("synthesis API key not set; export one of %v to run live tests", apiKeyEnv)

	return ""
}

// RequireAudioDevice skips the test unless VOICESTUDIO_AUDIO_DEVICE=1, which
// asserts that a real output device is available to the oto backend.
func RequireAudioDevice(tb testing.TB) {
	tb.Helper()

	if os.Getenv("VOICESTUDIO_AUDIO_DEVICE") != "1" {
		tb.Skip("audio device tests disabled; set VOICESTUDIO_AUDIO_DEVICE=1")
	}
}

// RequireFile skips the test when path does not exist.
func RequireFile(tb testing.TB, path string) {
	tb.Helper()

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("fixture %q not available: %v", path, err)
	}
}

// Tone returns a buffer holding a constant level on every channel.
func Tone(tb testing.TB, sampleRate, channels, frames int, level float32) *audio.Buffer {
	tb.Helper()

	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
		for i := range data[c] {
			data[c][i] = level
		}
	}

	buf, err := audio.NewBuffer(sampleRate, data)
	if err != nil {
		tb.Fatalf("build tone: %v", err)
	}

	return buf
}

// WriteWAV encodes buf into dir/name and returns the path.
func WriteWAV(tb testing.TB, dir, name string, buf *audio.Buffer) string {
	tb.Helper()

	data, err := audio.EncodeWAV(buf)
	if err != nil {
		tb.Fatalf("encode fixture: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture: %v", err)
	}

	return path
}
