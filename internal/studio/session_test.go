package studio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/synth"
	"github.com/example/voicestudio/internal/text"
)

const testRate = 8000

// fakeSynth returns one second of silence per call unless fail says otherwise.
type fakeSynth struct {
	mu      sync.Mutex
	calls   []synth.Profile
	fail    func(call int) error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeSynth) Synthesize(ctx context.Context, _ string, p synth.Profile) (*synth.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	call := len(f.calls)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail != nil {
		if err := f.fail(call); err != nil {
			return nil, err
		}
	}

	return &synth.Result{PCM: make([]byte, testRate*2), SampleRate: testRate, Channels: 1}, nil
}

func (f *fakeSynth) profiles() []synth.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]synth.Profile(nil), f.calls...)
}

// idleFrames never fires; the tests drive the engine clock-free.
type idleFrames struct{}

func (idleFrames) RequestFrame(func()) playback.FrameHandle { return 1 }
func (idleFrames) CancelFrame(playback.FrameHandle)         {}

var (
	ava = synth.Profile{ID: "ava", Name: "Ava", Vibe: "Friendly", Settings: synth.DefaultSettings()}
	bob = synth.Profile{ID: "bob", Name: "Bob", Vibe: "Sincere", Settings: synth.DefaultSettings()}
)

func newTestSession(t *testing.T, fs *fakeSynth) *Session {
	t.Helper()

	engine := playback.NewEngine(playback.NewNullContext(), idleFrames{})

	return NewSession(fs, engine, ava,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
}

func messages(l *Log) []string {
	var out []string
	for _, e := range l.Entries() {
		out = append(out, e.Message)
	}

	return out
}

func TestSession_Generate(t *testing.T) {
	fs := &fakeSynth{}
	s := newTestSession(t, fs)

	take, err := s.Generate(context.Background(), "  Hello there  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if take.Label != LabelOriginal || take.ProfileID != "ava" || take.ID == "" {
		t.Errorf("take = %+v", take)
	}
	if take.Duration() != 1 {
		t.Errorf("Duration = %v; want 1", take.Duration())
	}

	active, ok := s.ActiveTake()
	if !ok || active.ID != take.ID {
		t.Errorf("ActiveTake = %v, %v; want %s", active.ID, ok, take.ID)
	}
	if s.Engine().Buffer() != take.Buffer {
		t.Error("engine does not play the new take")
	}

	// A second generation replaces the list.
	second, err := s.Generate(context.Background(), "again")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if takes := s.Takes(); len(takes) != 1 || takes[0].ID != second.ID {
		t.Errorf("Takes = %v; want only the second take", takes)
	}

	got := messages(s.Log())
	want := []string{`Audio generated successfully.`, `Generating audio for "Ava"...`}
	if len(got) < 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("log = %q; want newest first %q", got, want)
	}
}

func TestSession_GenerateErrors(t *testing.T) {
	t.Run("empty script", func(t *testing.T) {
		s := newTestSession(t, &fakeSynth{})
		if _, err := s.Generate(context.Background(), " \n "); !errors.Is(err, text.ErrEmptyText) {
			t.Errorf("error = %v; want ErrEmptyText", err)
		}
	})

	t.Run("synthesis failure is logged", func(t *testing.T) {
		boom := errors.New("boom")
		s := newTestSession(t, &fakeSynth{fail: func(int) error { return boom }})

		if _, err := s.Generate(context.Background(), "hi"); !errors.Is(err, boom) {
			t.Fatalf("error = %v; want boom", err)
		}
		if got := messages(s.Log())[0]; got != "Error: boom" {
			t.Errorf("latest log = %q", got)
		}
		if s.Generating() {
			t.Error("session still busy after failure")
		}
	})
}

func TestSession_GenerateVariations(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		fs := &fakeSynth{}
		s := newTestSession(t, fs)

		takes, err := s.GenerateVariations(context.Background(), "hi")
		if err != nil {
			t.Fatalf("GenerateVariations: %v", err)
		}

		labels := []string{"Original", "Expressive", "Energetic"}
		if len(takes) != 3 {
			t.Fatalf("takes = %d; want 3", len(takes))
		}
		for i, l := range labels {
			if takes[i].Label != l {
				t.Errorf("take %d label = %q; want %q", i, takes[i].Label, l)
			}
		}
		if active, _ := s.ActiveTake(); active.ID != takes[0].ID {
			t.Error("first variation is not active")
		}

		calls := fs.profiles()
		if calls[1].Settings.EmotionalDepth <= ava.Settings.EmotionalDepth {
			t.Errorf("Expressive depth = %v; want raised", calls[1].Settings.EmotionalDepth)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		s := newTestSession(t, &fakeSynth{fail: func(call int) error {
			if call == 2 {
				return errors.New("overloaded")
			}
			return nil
		}})

		takes, err := s.GenerateVariations(context.Background(), "hi")
		if err != nil {
			t.Fatalf("GenerateVariations: %v", err)
		}
		if len(takes) != 2 || takes[1].Label != "Energetic" {
			t.Errorf("takes = %v", takes)
		}

		log := strings.Join(messages(s.Log()), "\n")
		for _, want := range []string{"Failed to generate Expressive", "Successfully generated 2 variations."} {
			if !strings.Contains(log, want) {
				t.Errorf("log missing %q:\n%s", want, log)
			}
		}
	})

	t.Run("all fail", func(t *testing.T) {
		s := newTestSession(t, &fakeSynth{fail: func(int) error { return errors.New("down") }})

		_, err := s.GenerateVariations(context.Background(), "hi")
		if !errors.Is(err, ErrNoVariations) {
			t.Fatalf("error = %v; want ErrNoVariations", err)
		}
		if len(s.Takes()) != 0 {
			t.Error("takes created despite total failure")
		}
	})
}

func TestSession_GenerateHighPitchAppends(t *testing.T) {
	fs := &fakeSynth{}
	s := newTestSession(t, fs)

	first, err := s.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	hp, err := s.GenerateHighPitch(context.Background(), "hi")
	if err != nil {
		t.Fatalf("GenerateHighPitch: %v", err)
	}

	takes := s.Takes()
	if len(takes) != 2 || takes[0].ID != first.ID || takes[1].ID != hp.ID {
		t.Fatalf("Takes = %v", takes)
	}
	if hp.Label != LabelHighPitch {
		t.Errorf("label = %q", hp.Label)
	}
	if active, _ := s.ActiveTake(); active.ID != hp.ID {
		t.Error("high pitch take is not active")
	}

	calls := fs.profiles()
	if got := calls[1].Settings.Pitch; got < 1.0999 || got > 1.1001 {
		t.Errorf("pitch = %v; want 1.1", got)
	}
}

func TestSession_BusyWhileGenerating(t *testing.T) {
	fs := &fakeSynth{gate: make(chan struct{}), started: make(chan struct{}, 4)}
	s := newTestSession(t, fs)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "hi")
		done <- err
	}()
	<-fs.started

	if !s.Generating() {
		t.Error("Generating() = false during generation")
	}
	if _, err := s.Generate(context.Background(), "hi"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Generate error = %v; want ErrBusy", err)
	}

	close(fs.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Generate: %v", err)
	}
}

func TestSession_LateResultForOtherProfileIsParked(t *testing.T) {
	fs := &fakeSynth{gate: make(chan struct{}), started: make(chan struct{}, 4)}
	s := newTestSession(t, fs)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "hi")
		done <- err
	}()
	<-fs.started

	s.SelectProfile(bob)
	close(fs.gate)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(s.Takes()) != 0 {
		t.Errorf("bob has %d takes; want 0", len(s.Takes()))
	}
	if _, ok := s.ActiveTake(); ok {
		t.Error("late take was activated for another profile")
	}
	if s.Engine().Buffer() != nil {
		t.Error("engine holds a buffer after profile switch")
	}

	s.SelectProfile(ava)
	takes := s.Takes()
	if len(takes) != 1 || takes[0].ProfileID != "ava" {
		t.Fatalf("ava takes = %v; want the parked take", takes)
	}
	if _, ok := s.ActiveTake(); ok {
		t.Error("restored take should not be active")
	}
}

func TestSession_LateResultAfterReselectIsAppended(t *testing.T) {
	fs := &fakeSynth{gate: make(chan struct{}), started: make(chan struct{}, 4)}
	s := newTestSession(t, fs)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "hi")
		done <- err
	}()
	<-fs.started

	s.SelectProfile(bob)
	s.SelectProfile(ava)
	close(fs.gate)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(s.Takes()) != 1 {
		t.Errorf("takes = %d; want 1", len(s.Takes()))
	}
	if _, ok := s.ActiveTake(); ok {
		t.Error("late take activated after the view was reset")
	}
}

func TestSession_LateResultKeepsPickedTake(t *testing.T) {
	fs := &fakeSynth{}
	s := newTestSession(t, fs)

	prev, err := s.GenerateVariations(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	fs.gate = make(chan struct{})
	fs.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "again")
		done <- err
	}()
	<-fs.started

	if err := s.SelectTake(prev[1].ID); err != nil {
		t.Fatalf("SelectTake: %v", err)
	}
	s.SetSelection(&audio.Selection{Start: 0.2, End: 0.6})

	close(fs.gate)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}

	takes := s.Takes()
	if len(takes) != len(prev)+1 {
		t.Fatalf("takes = %d; want %d", len(takes), len(prev)+1)
	}
	if takes[len(takes)-1].Label != LabelOriginal {
		t.Errorf("appended take = %q; want %q", takes[len(takes)-1].Label, LabelOriginal)
	}

	active, ok := s.ActiveTake()
	if !ok || active.ID != prev[1].ID {
		t.Errorf("active = %q; want the picked %q", active.Label, prev[1].Label)
	}
	if s.Engine().Buffer() != prev[1].Buffer {
		t.Error("engine buffer replaced by the late take")
	}
	st := s.Engine().State()
	if st.Selection == nil || st.Selection.Start != 0.2 || st.Selection.End != 0.6 {
		t.Errorf("selection = %+v; want 0.2..0.6 kept", st.Selection)
	}
}

func TestSession_SelectTake(t *testing.T) {
	s := newTestSession(t, &fakeSynth{})

	takes, err := s.GenerateVariations(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	s.SetSelection(&audio.Selection{Start: 0.1, End: 0.4})

	if err := s.SelectTake(takes[2].ID); err != nil {
		t.Fatalf("SelectTake: %v", err)
	}

	st := s.Engine().State()
	if st.Selection != nil || st.CurrentTime != 0 || st.Playing {
		t.Errorf("state after take switch = %+v", st)
	}
	if s.Engine().Buffer() != takes[2].Buffer {
		t.Error("engine buffer not switched")
	}

	if err := s.SelectTake("nope"); !errors.Is(err, ErrUnknownTake) {
		t.Errorf("SelectTake(nope) = %v; want ErrUnknownTake", err)
	}
}

func TestSession_TrimToSelection(t *testing.T) {
	s := newTestSession(t, &fakeSynth{})

	if _, err := s.TrimToSelection(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("trim without selection = %v; want ErrNoSelection", err)
	}

	if _, err := s.Generate(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	s.SetSelection(&audio.Selection{Start: 0.25, End: 0.75})

	trimmed, err := s.TrimToSelection()
	if err != nil {
		t.Fatalf("TrimToSelection: %v", err)
	}

	if trimmed.Label != LabelTrimmed || trimmed.Duration() != 0.5 {
		t.Errorf("trimmed = %s %vs; want Trimmed 0.5s", trimmed.Label, trimmed.Duration())
	}
	if len(s.Takes()) != 2 {
		t.Errorf("takes = %d; want 2", len(s.Takes()))
	}
	if active, _ := s.ActiveTake(); active.ID != trimmed.ID {
		t.Error("trimmed take not active")
	}
}

func TestSession_Export(t *testing.T) {
	s := newTestSession(t, &fakeSynth{})

	if _, err := s.Export("wav"); !errors.Is(err, ErrNoTake) {
		t.Errorf("Export without take = %v; want ErrNoTake", err)
	}

	if _, err := s.Generate(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format       string
		wantFilename string
	}{
		{"wav", "ava_original.wav"},
		{"", "ava_original.wav"},
		{"MP3", "ava_original.mp3"},
		{"ogg", "ava_original.ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := s.Export(tt.format)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if out.Filename != tt.wantFilename {
				t.Errorf("Filename = %q; want %q", out.Filename, tt.wantFilename)
			}
			if len(out.Data) != audio.WAVHeaderSize+testRate*2 {
				t.Errorf("len = %d; want %d", len(out.Data), audio.WAVHeaderSize+testRate*2)
			}
			if !bytes.HasPrefix(out.Data, []byte("RIFF")) {
				t.Error("export payload is not WAV")
			}
		})
	}

	if _, err := s.Export("flac"); err == nil {
		t.Error("Export(flac) = nil error")
	}

	if got := messages(s.Log())[0]; got != "Download started: ava_original.ogg" {
		t.Errorf("latest log = %q", got)
	}
}

func TestSession_TogglePlay(t *testing.T) {
	s := newTestSession(t, &fakeSynth{})

	if err := s.TogglePlay(context.Background()); !errors.Is(err, playback.ErrNoBuffer) {
		t.Errorf("TogglePlay without take = %v; want ErrNoBuffer", err)
	}

	if _, err := s.Generate(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	if err := s.TogglePlay(context.Background()); err != nil {
		t.Fatalf("TogglePlay: %v", err)
	}
	if !s.Engine().IsPlaying() {
		t.Error("not playing after toggle")
	}

	if err := s.TogglePlay(context.Background()); err != nil {
		t.Fatalf("TogglePlay: %v", err)
	}
	if s.Engine().IsPlaying() {
		t.Error("still playing after second toggle")
	}

	if err := s.Seek(context.Background(), 5); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := s.Engine().CurrentTime(); got != 1 {
		t.Errorf("CurrentTime after clamped seek = %v; want 1", got)
	}
}
