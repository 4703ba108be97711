package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/synth"
	"github.com/example/voicestudio/internal/text"
)

var (
	// ErrBusy is returned when a generation for the same profile is in flight.
	ErrBusy = errors.New("generation already in progress")
	// ErrNoTake is returned by operations that need an active take.
	ErrNoTake = errors.New("no active take")
	// ErrUnknownTake is returned when a take id does not exist.
	ErrUnknownTake = errors.New("unknown take")
	// ErrNoSelection is returned by TrimToSelection without a usable selection.
	ErrNoSelection = errors.New("no selection")
	// ErrNoVariations is returned when every variation request failed.
	ErrNoVariations = errors.New("failed to generate any variations")
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithLog replaces the generation log.
func WithLog(l *Log) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces the take timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithMaxScriptBytes rejects longer scripts. 0 disables the check.
func WithMaxScriptBytes(n int) Option {
	return func(s *Session) { s.maxScript = n }
}

// Session owns the takes of the selected profile and drives the playback
// engine. It is safe for concurrent use; synthesis runs without the lock so
// completions may arrive after the user has moved on.
type Session struct {
	synth     synth.Synthesizer
	engine    *playback.Engine
	log       *Log
	logger    *slog.Logger
	now       func() time.Time
	maxScript int

	mu      sync.Mutex
	profile synth.Profile
	// epoch changes on every profile selection so late results can tell
	// whether the view they were requested from is still current.
	epoch uint64
	// picks counts explicit take choices; a generation that finishes after
	// the user picked a take must not take over the player.
	picks  uint64
	takes  []Take
	active string
	parked map[string][]Take
	busy   map[string]bool
}

func NewSession(s synth.Synthesizer, engine *playback.Engine, profile synth.Profile, opts ...Option) *Session {
	sess := &Session{
		synth:   s,
		engine:  engine,
		log:     NewLog(DefaultLogCapacity),
		logger:  slog.Default(),
		now:     time.Now,
		profile: profile,
		parked:  make(map[string][]Take),
		busy:    make(map[string]bool),
	}
	for _, fn := range opts {
		fn(sess)
	}

	return sess
}

func (s *Session) Log() *Log                { return s.log }
func (s *Session) Engine() *playback.Engine { return s.engine }

func (s *Session) Profile() synth.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.profile
}

// Generating reports whether a generation for the current profile is running.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.busy[s.profile.ID]
}

// Takes returns the takes of the current profile in creation order.
func (s *Session) Takes() []Take {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Take(nil), s.takes...)
}

// ActiveTake returns the take feeding the renderer and player.
func (s *Session) ActiveTake() (Take, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findLocked(s.active)
}

func (s *Session) Take(id string) (Take, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findLocked(id)
}

func (s *Session) findLocked(id string) (Take, bool) {
	if id == "" {
		return Take{}, false
	}
	for _, t := range s.takes {
		if t.ID == id {
			return t, true
		}
	}

	return Take{}, false
}

// SelectProfile switches profiles. Playback stops and the take list, active
// take and selection reset. Takes that completed for p while it was not
// selected are restored without activating any of them.
func (s *Session) SelectProfile(p synth.Profile) {
	s.mu.Lock()
	s.epoch++
	s.profile = p
	s.takes = s.parked[p.ID]
	delete(s.parked, p.ID)
	s.active = ""
	s.mu.Unlock()

	s.engine.SetBuffer(nil)
}

// SelectTake activates a take. Playback stops, time returns to 0 and the
// selection is cleared.
func (s *Session) SelectTake(id string) error {
	s.mu.Lock()
	t, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownTake, id)
	}
	s.active = t.ID
	s.picks++
	s.mu.Unlock()

	s.engine.SetBuffer(t.Buffer)

	return nil
}

// ---------------------------------------------------------------------------
// Generation flows
// ---------------------------------------------------------------------------

// ticket identifies the profile view a generation was started from.
type ticket struct {
	profile synth.Profile
	epoch   uint64
	picks   uint64
}

func (s *Session) begin(script string) (string, ticket, error) {
	script, err := text.NormalizeScript(script, s.maxScript)
	if err != nil {
		return "", ticket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[s.profile.ID] {
		return "", ticket{}, ErrBusy
	}
	s.busy[s.profile.ID] = true

	return script, ticket{profile: s.profile, epoch: s.epoch, picks: s.picks}, nil
}

func (s *Session) finish(tk ticket) {
	s.mu.Lock()
	delete(s.busy, tk.profile.ID)
	s.mu.Unlock()
}

// clearActive detaches the active take from the player, used while a
// replacing generation runs.
func (s *Session) clearActive(tk ticket) {
	s.mu.Lock()
	current := s.epoch == tk.epoch
	if current {
		s.active = ""
	}
	s.mu.Unlock()

	if current {
		s.engine.SetBuffer(nil)
	}
}

func (s *Session) render(ctx context.Context, script string, p synth.Profile) (*audio.Buffer, error) {
	res, err := s.synth.Synthesize(ctx, script, p)
	if err != nil {
		return nil, err
	}

	buf, err := res.Buffer()
	if err != nil {
		return nil, fmt.Errorf("decode synthesized audio: %w", err)
	}

	return buf, nil
}

func (s *Session) newTake(profileID, label string, buf *audio.Buffer) Take {
	return Take{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Label:     label,
		CreatedAt: s.now(),
		Buffer:    buf,
	}
}

// deliver lands finished takes. Results for a profile that is no longer
// selected are parked under it. Results for the selected profile whose view
// was reset, or whose active take the user picked in the meantime, are
// appended without activating.
func (s *Session) deliver(tk ticket, takes []Take, replace bool) bool {
	s.mu.Lock()

	if tk.profile.ID != s.profile.ID {
		s.parked[tk.profile.ID] = append(s.parked[tk.profile.ID], takes...)
		s.mu.Unlock()
		s.logger.Info("late takes parked", slog.String("profile", tk.profile.ID), slog.Int("takes", len(takes)))
		return false
	}

	if tk.epoch != s.epoch || tk.picks != s.picks {
		s.takes = append(s.takes, takes...)
		s.mu.Unlock()
		s.logger.Info("late takes appended", slog.String("profile", tk.profile.ID), slog.Int("takes", len(takes)))
		return false
	}

	if replace {
		s.takes = append([]Take(nil), takes...)
	} else {
		s.takes = append(s.takes, takes...)
	}
	s.active = takes[0].ID
	buf := takes[0].Buffer
	s.mu.Unlock()

	s.engine.SetBuffer(buf)
	s.logger.Info("take activated", slog.String("profile", tk.profile.ID), slog.String("take", takes[0].ID), slog.String("label", takes[0].Label))

	return true
}

func (s *Session) fail(err error) error {
	s.log.Add("Error: " + err.Error())
	return err
}

// Generate synthesizes the script with the current profile and replaces the
// take list with a single "Original" take.
func (s *Session) Generate(ctx context.Context, script string) (Take, error) {
	script, tk, err := s.begin(script)
	if err != nil {
		return Take{}, err
	}
	defer s.finish(tk)

	s.clearActive(tk)
	s.log.Addf("Generating audio for %q...", tk.profile.Name)

	buf, err := s.render(ctx, script, tk.profile)
	if err != nil {
		return Take{}, s.fail(err)
	}

	take := s.newTake(tk.profile.ID, LabelOriginal, buf)
	s.deliver(tk, []Take{take}, true)
	s.log.Add("Audio generated successfully.")

	return take, nil
}

// GenerateVariations renders the standard variations sequentially and
// replaces the take list with those that succeeded. It fails only when none
// did.
func (s *Session) GenerateVariations(ctx context.Context, script string) ([]Take, error) {
	script, tk, err := s.begin(script)
	if err != nil {
		return nil, err
	}
	defer s.finish(tk)

	s.clearActive(tk)
	s.log.Addf("Generating variations for %q...", tk.profile.Name)

	var takes []Take
	for _, v := range synth.StandardVariations() {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(err)
		}

		s.log.Addf("Processing: %s...", v.Label)

		buf, err := s.render(ctx, script, v.WithSettings(tk.profile))
		if err != nil {
			s.logger.Warn("variation failed", slog.String("label", v.Label), slog.String("error", err.Error()))
			s.log.Addf("Failed to generate %s", v.Label)
			continue
		}
		takes = append(takes, s.newTake(tk.profile.ID, v.Label, buf))
	}

	if len(takes) == 0 {
		return nil, s.fail(ErrNoVariations)
	}

	s.deliver(tk, takes, true)
	s.log.Addf("Successfully generated %d variations.", len(takes))

	return takes, nil
}

// GenerateHighPitch appends a "High Pitch" take rendered with pitch x1.1.
func (s *Session) GenerateHighPitch(ctx context.Context, script string) (Take, error) {
	script, tk, err := s.begin(script)
	if err != nil {
		return Take{}, err
	}
	defer s.finish(tk)

	s.engine.Pause()
	s.log.Addf("Generating high pitch take for %q...", tk.profile.Name)

	buf, err := s.render(ctx, script, synth.HighPitch.WithSettings(tk.profile))
	if err != nil {
		return Take{}, s.fail(err)
	}

	take := s.newTake(tk.profile.ID, LabelHighPitch, buf)
	s.deliver(tk, []Take{take}, false)
	s.log.Add("High pitch audio generated successfully.")

	return take, nil
}

// ---------------------------------------------------------------------------
// Transport and editing
// ---------------------------------------------------------------------------

// TogglePlay pauses a running playback or resumes it. Resuming at the end of
// the take restarts from the selection start, or from 0.
func (s *Session) TogglePlay(ctx context.Context) error {
	return s.engine.Toggle(ctx)
}

func (s *Session) Seek(ctx context.Context, t float64) error {
	return s.engine.Seek(ctx, t)
}

func (s *Session) SetSelection(sel *audio.Selection) {
	s.engine.SetSelection(sel)
}

// TrimToSelection appends a "Trimmed" take cut from the active take's
// selection and activates it.
func (s *Session) TrimToSelection() (Take, error) {
	st := s.engine.State()
	if st.Selection == nil || st.Selection.Empty() {
		return Take{}, ErrNoSelection
	}

	s.mu.Lock()
	src, ok := s.findLocked(s.active)
	tk := ticket{profile: s.profile, epoch: s.epoch, picks: s.picks}
	s.mu.Unlock()
	if !ok {
		return Take{}, ErrNoTake
	}

	buf, err := audio.Slice(src.Buffer, st.Selection.Start, st.Selection.End)
	if err != nil {
		return Take{}, fmt.Errorf("trim take: %w", err)
	}

	take := s.newTake(tk.profile.ID, LabelTrimmed, buf)
	if s.deliver(tk, []Take{take}, false) {
		s.mu.Lock()
		s.picks++
		s.mu.Unlock()
	}
	s.log.Addf("Trimmed %s to %s - %s.", src.Label, FormatTime(st.Selection.Start), FormatTime(st.Selection.End))

	return take, nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Export formats offered to the user. The payload is WAV for all of them.
const (
	FormatWAV = "wav"
	FormatMP3 = "mp3"
	FormatOGG = "ogg"
)

// Export is a downloadable rendition of a take.
type Export struct {
	Filename string
	Format   string
	Data     []byte
}

// NormalizeFormat maps user input to an export format; empty means wav.
func NormalizeFormat(raw string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(raw))
	switch f {
	case "":
		return FormatWAV, nil
	case FormatWAV, FormatMP3, FormatOGG:
		return f, nil
	default:
		return "", fmt.Errorf("invalid export format %q (expected %s|%s|%s)", raw, FormatWAV, FormatMP3, FormatOGG)
	}
}

// Export encodes the active take.
func (s *Session) Export(format string) (Export, error) {
	s.mu.Lock()
	take, ok := s.findLocked(s.active)
	profile := s.profile
	s.mu.Unlock()
	if !ok {
		return Export{}, ErrNoTake
	}

	return s.ExportTake(profile, take, format)
}

// ExportTake encodes a specific take of profile.
func (s *Session) ExportTake(profile synth.Profile, take Take, format string) (Export, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return Export{}, err
	}

	s.log.Addf("Preparing download for %s format...", strings.ToUpper(format))

	data, err := audio.EncodeWAV(take.Buffer)
	if err != nil {
		return Export{}, s.fail(fmt.Errorf("encode take: %w", err))
	}

	out := Export{
		Filename: text.ExportFilename(profile.Name, take.Label, format),
		Format:   format,
		Data:     data,
	}
	s.log.Addf("Download started: %s", out.Filename)

	return out, nil
}
