// Package doctor provides environment preflight checks for voicestudio.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/synth"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds the inputs and injectable probes for each check.
type Config struct {
	// APIKey is the synthesis key; only its presence is checked.
	APIKey string
	// LoadProfiles reads the profile manifest.
	LoadProfiles func() ([]synth.Profile, error)
	// OutputDir must exist and accept new files.
	OutputDir string
	// Theme is the configured waveform theme.
	Theme string
	// OpenAudio opens and closes the output device, returning a description.
	OpenAudio func() (string, error)
	// SkipAudio skips the device check (null backend).
	SkipAudio bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all checks and writes one line per check to w.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	pass := func(format string, args ...any) {
		fmt.Fprintf(w, "%s %s\n", PassMark, fmt.Sprintf(format, args...))
	}
	fail := func(name string, err error) {
		res.fail(fmt.Sprintf("%s: %v", name, err))
		fmt.Fprintf(w, "%s %s: %v\n", FailMark, name, err)
	}

	// ---- API key ------------------------------------------------------------
	if key := strings.TrimSpace(cfg.APIKey); key == "" {
		fail("api key", fmt.Errorf("not set (use --synth-api-key or GEMINI_API_KEY)"))
	} else {
		pass("api key: %s", MaskKey(key))
	}

	// ---- profiles -----------------------------------------------------------
	if cfg.LoadProfiles != nil {
		profiles, err := cfg.LoadProfiles()
		switch {
		case err != nil:
			fail("profiles", err)
		case len(profiles) == 0:
			fail("profiles", fmt.Errorf("manifest lists no profiles"))
		default:
			pass("profiles: %d loaded", len(profiles))
			checkSamples(profiles, pass, fail)
		}
	}

	// ---- output directory ---------------------------------------------------
	if err := checkWritable(cfg.OutputDir); err != nil {
		fail("output dir", err)
	} else {
		pass("output dir: %s", cfg.OutputDir)
	}

	// ---- theme --------------------------------------------------------------
	if theme, err := config.NormalizeTheme(cfg.Theme); err != nil {
		fail("theme", err)
	} else {
		pass("theme: %s", theme)
	}

	// ---- audio output -------------------------------------------------------
	switch {
	case cfg.SkipAudio || cfg.OpenAudio == nil:
		pass("audio output: skipped (silent backend)")
	default:
		desc, err := cfg.OpenAudio()
		if err != nil {
			fail("audio output", err)
		} else {
			pass("audio output: %s", desc)
		}
	}

	return res
}

// checkSamples verifies that local reference samples of cloned profiles
// exist. Remote and inline samples are not fetched.
func checkSamples(profiles []synth.Profile, pass func(string, ...any), fail func(string, error)) {
	for _, p := range profiles {
		if !p.Cloned() || isRemote(p.AudioSampleURL) {
			continue
		}

		name := fmt.Sprintf("reference sample of %s", p.ID)
		if _, err := os.Stat(p.AudioSampleURL); err != nil {
			fail(name, err)
			continue
		}
		pass("%s: %s", name, p.AudioSampleURL)
	}
}

func isRemote(url string) bool {
	for _, prefix := range []string{"http://", "https://", "data:", "blob:"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}

	return false
}

// checkWritable creates and removes a probe file in dir.
func checkWritable(dir string) error {
	if dir == "" {
		dir = "."
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".voicestudio-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}

// MaskKey keeps the last four characters of a secret.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}

	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
