package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/synth"
	"github.com/example/voicestudio/internal/testutil"
)

const testRate = 8000

const testManifest = `{
  "profiles": [
    {"id": "ava", "name": "Ava", "vibe": "Friendly", "category": "Narration",
     "settings": {"language": "EN", "speed": 1, "pitch": 1, "temperature": 0.7, "stability": 0.7, "accent": "Neutral EN"}},
    {"id": "grim", "name": "Grim Reader", "vibe": "Ominous", "category": "Background Horror",
     "settings": {"language": "EN", "speed": 0.9, "pitch": 0.8, "reverb": 0.6, "creepiness": 0.9}}
  ]
}`

// stubSynth returns seconds of silence and records what it was asked for.
type stubSynth struct {
	mu       sync.Mutex
	seconds  float64
	err      error
	scripts  []string
	profiles []synth.Profile
}

func (s *stubSynth) Synthesize(_ context.Context, script string, p synth.Profile) (*synth.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scripts = append(s.scripts, script)
	s.profiles = append(s.profiles, p)
	if s.err != nil {
		return nil, s.err
	}

	frames := int(s.seconds * testRate)
	if frames == 0 {
		frames = testRate / 10
	}

	return &synth.Result{PCM: make([]byte, frames*2), SampleRate: testRate, Channels: 1}, nil
}

// useStubSynth swaps the synthesizer factory for the duration of the test.
func useStubSynth(t *testing.T, s *stubSynth) {
	t.Helper()

	orig := newSynthesizer
	t.Cleanup(func() { newSynthesizer = orig })
	newSynthesizer = func(config.SynthConfig) (synth.Synthesizer, error) { return s, nil }
}

func writeManifest(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append(args, "--playback", "null", "--log-level", "error"))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(bytes.NewReader(nil))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"profiles", "synth", "render", "export", "play", "studio", "serve", "health", "doctor", "bench"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}
	if root.PersistentFlags().Lookup("synth-api-key") == nil {
		t.Error("expected config flags on the root command")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	// Should not panic on invalid level.
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Synth.Model != config.DefaultConfig().Synth.Model {
		t.Errorf("unexpected model: %q", got.Synth.Model)
	}
}

func TestProfilesCommand(t *testing.T) {
	out, err := execute(t, "profiles", "--profiles", writeManifest(t))
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}

	for _, want := range []string{"ID", "ava", "Grim Reader", synth.VoiceKore, synth.VoiceCharon} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestProfilesCommand_MissingManifest(t *testing.T) {
	_, err := execute(t, "profiles", "--profiles", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
}

func TestServeAndStudio_RequireAPIKey(t *testing.T) {
	for _, env := range []string{"VOICESTUDIO_SYNTH_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(env, "")
	}

	for _, name := range []string{"serve", "studio", "synth"} {
		t.Run(name, func(t *testing.T) {
			args := []string{name, "--profiles", writeManifest(t)}
			if name != "serve" {
				args = append(args, "--text", "hi")
			}
			_, err := execute(t, args...)
			if err == nil || !bytes.Contains([]byte(err.Error()), []byte("API key")) {
				t.Fatalf("err = %v; want a missing API key error", err)
			}
		})
	}
}

func TestLoadLibrary_SampleManifest(t *testing.T) {
	path := filepath.Join("..", "..", "profiles", "manifest.json")
	testutil.RequireFile(t, path)

	cfg := config.DefaultConfig()
	cfg.Paths.ProfilesPath = path
	lib, err := loadLibrary(cfg)
	if err != nil {
		t.Fatalf("loadLibrary: %v", err)
	}

	first, err := resolveProfile(lib, "")
	if err != nil {
		t.Fatalf("resolveProfile: %v", err)
	}
	if first.ID != lib.List()[0].ID {
		t.Errorf("default profile = %s; want the first one", first.ID)
	}
	for _, p := range lib.List() {
		if synth.SelectVoice(p) == "" {
			t.Errorf("profile %s maps to no voice", p.ID)
		}
	}
}

func TestLoadLibrary_EmptyManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte(`{"profiles": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Paths.ProfilesPath = path
	if _, err := loadLibrary(cfg); err == nil {
		t.Fatal("expected an error for a manifest without profiles")
	}
}

func TestHealthCommand_ReportsProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"dev","profile":"grim","takes":2,"generating":true}`))
	}))
	defer srv.Close()

	out, err := execute(t, "health", "--addr", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if want := "ok profile=grim takes=2 generating\n"; out != want {
		t.Errorf("output = %q; want %q", out, want)
	}
}

func TestHealthCommand_Unreachable(t *testing.T) {
	_, err := execute(t, "health", "--addr", "127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Fatalf("err = %v; want an error naming the address", err)
	}
}
