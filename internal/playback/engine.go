package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/voicestudio/internal/audio"
)

// ErrNoBuffer is returned by Play when no take is loaded.
var ErrNoBuffer = errors.New("no audio loaded")

// State is a snapshot of the engine.
type State struct {
	Playing     bool
	CurrentTime float64
	Duration    float64
	Selection   *audio.Selection
}

// Engine plays one buffer at a time against the output clock and keeps the
// playhead in sync by polling once per frame.
type Engine struct {
	out    Context
	frames FrameScheduler
	logger *slog.Logger
	notify func(State)

	mu        sync.Mutex
	buf       *audio.Buffer
	selection *audio.Selection
	source    Source
	playing   bool
	current   float64
	clockZero float64
	stopAt    float64
	frame     FrameHandle
	armed     bool
	// gen invalidates frame callbacks and Resume waits that belong to an
	// earlier play.
	gen uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNotify registers a callback invoked with the new state after every
// frame and every transport change. It runs without the engine lock held.
func WithNotify(fn func(State)) Option {
	return func(e *Engine) { e.notify = fn }
}

// NewEngine binds an engine to an output context and frame scheduler. A nil
// out makes Play fail with ErrPlaybackUnavailable; a nil frames polls with a
// TimerScheduler.
func NewEngine(out Context, frames FrameScheduler, opts ...Option) *Engine {
	if frames == nil {
		frames = NewTimerScheduler(DefaultFrameRate)
	}
	e := &Engine{
		out:    out,
		frames: frames,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetBuffer makes buf the active take. Playback stops, the playhead returns
// to 0 and the selection is cleared.
func (e *Engine) SetBuffer(buf *audio.Buffer) {
	e.mu.Lock()
	e.teardownLocked()
	e.buf = buf
	e.current = 0
	e.selection = nil
	st := e.stateLocked()
	e.mu.Unlock()

	e.emit(st)
}

// Buffer returns the active take's audio.
func (e *Engine) Buffer() *audio.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.buf
}

// SetSelection replaces the selection; nil clears it. A running playback
// adopts the new stop point.
func (e *Engine) SetSelection(sel *audio.Selection) {
	e.mu.Lock()
	if sel != nil && e.buf != nil {
		clamped := audio.NewSelection(sel.Start, sel.End, e.buf.Duration())
		sel = &clamped
	}
	e.selection = sel
	if e.playing {
		e.stopAt = e.stopPointLocked(e.current)
	}
	st := e.stateLocked()
	e.mu.Unlock()

	e.emit(st)
}

// Play starts playback at from, replacing any playback in progress.
func (e *Engine) Play(ctx context.Context, from float64) error {
	if e.out == nil {
		return ErrPlaybackUnavailable
	}

	e.mu.Lock()
	if e.buf == nil {
		e.mu.Unlock()
		return ErrNoBuffer
	}
	e.teardownLocked()
	gen := e.gen
	e.mu.Unlock()

	if err := e.out.Resume(ctx); err != nil {
		return fmt.Errorf("resume audio output: %w", err)
	}

	e.mu.Lock()
	if gen != e.gen {
		// Another transport call won while we were waiting.
		e.mu.Unlock()
		return nil
	}

	from = audio.ClampTime(from, e.buf.Duration())
	src, err := e.out.Start(e.buf, from)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start playback at %.3fs: %w", from, err)
	}

	e.source = src
	e.playing = true
	e.current = from
	e.clockZero = e.out.Now() - from
	e.stopAt = e.stopPointLocked(from)
	e.armLocked()
	stopAt := e.stopAt
	st := e.stateLocked()
	e.mu.Unlock()

	e.logger.Debug("playback started", "offset", from, "stop_at", stopAt)
	e.emit(st)

	return nil
}

// Pause stops playback and keeps the playhead where it is.
func (e *Engine) Pause() { e.Stop(false) }

// Stop halts playback, optionally rewinding to 0. It is safe to call when
// nothing is playing.
func (e *Engine) Stop(resetToZero bool) {
	e.mu.Lock()
	if e.playing {
		e.current = min(e.elapsedLocked(), e.stopAt)
	}
	e.teardownLocked()
	if resetToZero {
		e.current = 0
	}
	st := e.stateLocked()
	e.mu.Unlock()

	e.emit(st)
}

// Seek moves the playhead. A running playback restarts from t.
func (e *Engine) Seek(ctx context.Context, t float64) error {
	e.mu.Lock()
	if e.buf == nil {
		e.mu.Unlock()
		return ErrNoBuffer
	}
	t = audio.ClampTime(t, e.buf.Duration())
	playing := e.playing
	if !playing {
		e.current = t
	}
	st := e.stateLocked()
	e.mu.Unlock()

	if playing {
		return e.Play(ctx, t)
	}
	e.emit(st)

	return nil
}

// Toggle pauses a running playback or resumes a paused one. Resuming from
// the end of the take restarts at the selection start, or at 0.
func (e *Engine) Toggle(ctx context.Context) error {
	e.mu.Lock()
	if e.playing {
		e.mu.Unlock()
		e.Pause()
		return nil
	}
	if e.buf == nil {
		e.mu.Unlock()
		return ErrNoBuffer
	}

	from := e.current
	if from >= e.buf.Duration() {
		from = 0
		if e.selection != nil {
			from = e.selection.Start
		}
	}
	e.mu.Unlock()

	return e.Play(ctx, from)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stateLocked()
}

func (e *Engine) CurrentTime() float64 { return e.State().CurrentTime }

func (e *Engine) IsPlaying() bool { return e.State().Playing }

// tick is the per-frame poll. It re-arms itself only while playing.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.playing {
		e.mu.Unlock()
		return
	}
	e.armed = false

	elapsed := e.elapsedLocked()
	if elapsed >= e.stopAt {
		e.teardownLocked()
		e.current = e.stopAt
	} else {
		e.current = max(e.current, elapsed)
		e.armLocked()
	}
	st := e.stateLocked()
	e.mu.Unlock()

	e.emit(st)
}

// stopPointLocked is where playback started at from must end: the selection
// end when from lies before it, otherwise the end of the buffer.
func (e *Engine) stopPointLocked(from float64) float64 {
	if sel := e.selection; sel != nil && !sel.Empty() && from < sel.End {
		return sel.End
	}

	return e.buf.Duration()
}

func (e *Engine) elapsedLocked() float64 {
	elapsed := e.out.Now() - e.clockZero

	return audio.ClampTime(max(elapsed, e.current), e.buf.Duration())
}

func (e *Engine) armLocked() {
	gen := e.gen
	e.frame = e.frames.RequestFrame(func() { e.tick(gen) })
	e.armed = true
}

// teardownLocked releases the live source and pending frame. Every caller
// that starts new playback goes through here first, so at most one source
// is ever live.
func (e *Engine) teardownLocked() {
	e.gen++
	if e.armed {
		e.frames.CancelFrame(e.frame)
		e.armed = false
	}
	if e.source != nil {
		e.source.Stop()
		e.source = nil
	}
	e.playing = false
}

func (e *Engine) stateLocked() State {
	st := State{Playing: e.playing, CurrentTime: e.current}
	if e.buf != nil {
		st.Duration = e.buf.Duration()
	}
	if e.selection != nil {
		sel := *e.selection
		st.Selection = &sel
	}

	return st
}

func (e *Engine) emit(st State) {
	if e.notify != nil {
		e.notify(st)
	}
}
