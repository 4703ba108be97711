package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/studio"
	"github.com/example/voicestudio/internal/synth"
	"github.com/example/voicestudio/internal/text"
	"github.com/example/voicestudio/internal/waveform"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ProfileLister resolves voice profiles by id.
type ProfileLister interface {
	List() []synth.Profile
	Get(id string) (synth.Profile, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	waveform       config.WaveformConfig
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		workers:        2,
		requestTimeout: 60 * time.Second,
		waveform:       config.DefaultConfig().Waveform,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed script length in bytes for POST /takes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent synthesis calls.
// Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request synthesis deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithWaveform sets the default geometry and theme of rendered waveforms.
func WithWaveform(cfg config.WaveformConfig) Option {
	return func(o *options) { o.waveform = cfg }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	session  *studio.Session
	profiles ProfileLister
	opts     options
	sem      chan struct{} // semaphore for worker pool
	log      *slog.Logger
}

// NewHandler returns an http.Handler serving the studio session.
func NewHandler(session *studio.Session, profiles ProfileLister, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		session:  session,
		profiles: profiles,
		opts:     opts,
		log:      opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /profiles", h.handleProfiles)
	mux.HandleFunc("GET /log", h.handleLog)
	mux.HandleFunc("GET /takes", h.handleListTakes)
	mux.HandleFunc("POST /takes", h.handleGenerate)
	mux.HandleFunc("POST /takes/{id}/activate", h.handleActivate)
	mux.HandleFunc("GET /takes/{id}/peaks", h.handlePeaks)
	mux.HandleFunc("GET /takes/{id}/waveform.png", h.handleWaveform)
	mux.HandleFunc("GET /takes/{id}/export", h.handleExport)

	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// Health is the body of GET /health.
type Health struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Profile    string `json:"profile"`
	Takes      int    `json:"takes"`
	Generating bool   `json:"generating"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:     "ok",
		Version:    buildVersion(),
		Profile:    h.session.Profile().ID,
		Takes:      len(h.session.Takes()),
		Generating: h.session.Generating(),
	})
}

func (h *handler) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles := h.profiles.List()
	if profiles == nil {
		profiles = []synth.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *handler) handleLog(w http.ResponseWriter, _ *http.Request) {
	entries := h.session.Log().Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	writeJSON(w, http.StatusOK, lines)
}

// takeJSON is the wire form of a take.
type takeJSON struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
	Active     bool      `json:"active"`
}

func (h *handler) toJSON(takes []studio.Take) []takeJSON {
	active, _ := h.session.ActiveTake()
	out := make([]takeJSON, 0, len(takes))
	for _, t := range takes {
		j := takeJSON{
			ID:        t.ID,
			ProfileID: t.ProfileID,
			Label:     t.Label,
			CreatedAt: t.CreatedAt,
			Duration:  t.Duration(),
			Active:    t.ID == active.ID,
		}
		if t.Buffer != nil {
			j.SampleRate = t.Buffer.SampleRate()
			j.Channels = t.Buffer.NumChannels()
		}
		out = append(out, j)
	}

	return out
}

func (h *handler) handleListTakes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": h.session.Profile().ID,
		"takes":   h.toJSON(h.session.Takes()),
	})
}

// Generation modes accepted by POST /takes.
const (
	modeGenerate   = "generate"
	modeVariations = "variations"
	modeHighPitch  = "high_pitch"
)

type generateRequest struct {
	Text    string `json:"text"`
	Profile string `json:"profile"`
	Mode    string `json:"mode"`
}

func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = modeGenerate
	}
	if mode != modeGenerate && mode != modeVariations && mode != modeHighPitch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	if req.Profile != "" && req.Profile != h.session.Profile().ID {
		p, err := h.profiles.Get(req.Profile)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.session.SelectProfile(p)
	}

	// Acquire a worker slot; honour context cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	profile := h.session.Profile().ID
	start := time.Now()

	var takes []studio.Take
	var err error
	switch mode {
	case modeVariations:
		takes, err = h.session.GenerateVariations(ctx, req.Text)
	case modeHighPitch:
		var t studio.Take
		t, err = h.session.GenerateHighPitch(ctx, req.Text)
		takes = []studio.Take{t}
	default:
		var t studio.Take
		t, err = h.session.Generate(ctx, req.Text)
		takes = []studio.Take{t}
	}
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		status := generationStatus(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError || status == http.StatusGatewayTimeout {
			level = slog.LevelWarn
		}
		h.log.Log(r.Context(), level, "generation failed",
			slog.String("profile", profile),
			slog.String("mode", mode),
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, status, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "generation complete",
		slog.String("profile", profile),
		slog.String("mode", mode),
		slog.Int("text_len", len(req.Text)),
		slog.Int("takes", len(takes)),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusCreated, h.toJSON(takes))
}

func generationStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, text.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, text.ErrTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, synth.ErrSynthesisFailed), errors.Is(err, studio.ErrNoVariations):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) lookupTake(w http.ResponseWriter, r *http.Request) (studio.Take, bool) {
	id := r.PathValue("id")
	t, ok := h.session.Take(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown take %q", id))
		return studio.Take{}, false
	}

	return t, true
}

func (h *handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SelectTake(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.toJSON(h.session.Takes()))
}

// maxWaveformPixels bounds the device-pixel area of one rendered PNG.
const maxWaveformPixels = 16 << 20

// geometry reads waveform sizing from the query, falling back to defaults.
type geometry struct {
	width, height, dpr float64
	bars               waveform.BarLayout
}

// devicePixels is the backing store area the renderer will allocate.
func (g geometry) devicePixels() float64 {
	return math.Ceil(g.width*g.dpr) * math.Ceil(g.height*g.dpr)
}

func (h *handler) geometry(r *http.Request) (geometry, error) {
	d := h.opts.waveform
	g := geometry{
		width:  float64(d.Width),
		height: float64(d.Height),
		dpr:    d.DPR,
		bars:   waveform.BarLayout{Width: d.BarWidth, Gap: d.BarGap},
	}

	fields := []struct {
		name string
		dst  *float64
		max  float64
	}{
		{"width", &g.width, 8192},
		{"height", &g.height, 4096},
		{"dpr", &g.dpr, 4},
		{"bar_width", &g.bars.Width, 256},
		{"bar_gap", &g.bars.Gap, 256},
	}
	q := r.URL.Query()
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > f.max {
			return geometry{}, fmt.Errorf("invalid %s %q", f.name, raw)
		}
		*f.dst = v
	}
	if g.dpr <= 0 {
		g.dpr = 1
	}

	return g, nil
}

func (h *handler) handlePeaks(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTake(w, r)
	if !ok {
		return
	}

	g, err := h.geometry(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"take":     t.ID,
		"duration": t.Duration(),
		"peaks":    waveform.ComputePeaks(t.Buffer, g.width, g.bars.Width, g.bars.Gap),
	})
}

func (h *handler) handleWaveform(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTake(w, r)
	if !ok {
		return
	}

	g, err := h.geometry(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if g.devicePixels() > maxWaveformPixels {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("waveform of %.0fx%.0f at dpr %g exceeds %d device pixels", g.width, g.height, g.dpr, maxWaveformPixels))
		return
	}

	themeName := r.URL.Query().Get("theme")
	if themeName == "" {
		themeName = h.opts.waveform.Theme
	}
	theme, err := waveform.ThemeByName(themeName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rd := waveform.NewRenderer(g.width, g.height, g.dpr)
	rd.Bars = g.bars
	rd.Theme = theme

	av := &waveform.AudioView{Peaks: rd.Peaks(t.Buffer), Duration: t.Duration()}
	// The playhead and selection belong to the active take only.
	if active, ok := h.session.ActiveTake(); ok && active.ID == t.ID {
		st := h.session.Engine().State()
		av.CurrentTime = st.CurrentTime
		av.Selection = st.Selection
	}
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid t %q", raw))
			return
		}
		av.CurrentTime = audio.ClampTime(v, av.Duration)
	}

	raster := waveform.NewRaster()
	rd.Draw(raster, waveform.View{Audio: av})

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := raster.EncodePNG(w); err != nil {
		h.log.ErrorContext(r.Context(), "waveform encode failed", slog.String("take", t.ID), slog.String("error", err.Error()))
	}
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTake(w, r)
	if !ok {
		return
	}

	out, err := h.session.ExportTake(h.session.Profile(), t, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "take exported",
		slog.String("take", t.ID),
		slog.String("filename", out.Filename),
		slog.Int("wav_bytes", len(out.Data)),
	)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into an http.Server with graceful shutdown.
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	session         *studio.Session
	profiles        ProfileLister
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, session *studio.Session, profiles ProfileLister) *Server {
	return &Server{
		cfg:             cfg,
		session:         session,
		profiles:        profiles,
		logger:          slog.Default(),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler builds the configured request handler.
func (s *Server) Handler() http.Handler {
	return NewHandler(s.session, s.profiles,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithWaveform(s.cfg.Waveform),
		WithLogger(s.logger),
	)
}

func (s *Server) Start(ctx context.Context) error {
	if _, err := config.NormalizeTheme(s.cfg.Waveform.Theme); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("studio server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) (Health, error) {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return Health{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode health response: %w", err)
	}

	return h, nil
}
