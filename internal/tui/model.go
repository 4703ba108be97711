package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/voicestudio/internal/studio"
	"github.com/example/voicestudio/internal/synth"
	"github.com/example/voicestudio/internal/waveform"
)

const (
	// waveTop is the screen row of the first waveform line.
	waveTop = 3
	// DefaultWaveRows is the waveform height in terminal rows.
	DefaultWaveRows = 8
	seekStep        = 1.0
	logLines        = 5
)

var formats = []string{studio.FormatWAV, studio.FormatMP3, studio.FormatOGG}

// Generation modes bound to keys.
const (
	modeGenerate   = "generate"
	modeVariations = "variations"
	modeHighPitch  = "high pitch"
)

type generatedMsg struct {
	mode string
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

// Saver persists an export and returns where it went.
type Saver func(name string, data []byte) (string, error)

// DirSaver writes exports into dir.
func DirSaver(dir string) Saver {
	return func(name string, data []byte) (string, error) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}

		return path, nil
	}
}

// peakCache keeps the terminal peaks of the active take.
type peakCache struct {
	takeID string
	cols   int
	peaks  []float64
}

// Model is the terminal studio: one profile at a time, its takes, the
// waveform with playhead and selection, and the generation log.
type Model struct {
	ctx      context.Context
	session  *studio.Session
	profiles []synth.Profile
	relay    *Relay
	save     Saver
	styles   Styles
	rows     int

	script  string
	editing bool
	format  int
	flash   string

	interaction *waveform.Interaction
	cache       *peakCache

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

func WithScript(s string) Option { return func(m *Model) { m.script = s } }

// WithRelay subscribes the model to engine notifications.
func WithRelay(r *Relay) Option { return func(m *Model) { m.relay = r } }

func WithSaver(s Saver) Option { return func(m *Model) { m.save = s } }

func WithTheme(t waveform.Theme) Option {
	return func(m *Model) { m.styles = StylesFromTheme(t) }
}

func WithWaveRows(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.rows = n
		}
	}
}

// NewModel builds the studio model. profiles is the selectable library; the
// session's current profile should be one of them.
func NewModel(ctx context.Context, session *studio.Session, profiles []synth.Profile, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		session:  session,
		profiles: profiles,
		save:     DirSaver("."),
		styles:   StylesFromTheme(waveform.LightTheme),
		rows:     DefaultWaveRows,
		cache:    &peakCache{},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.interaction = &waveform.Interaction{
		OnSeek: func(t float64) {
			_ = session.Seek(ctx, t)
		},
		OnSelect: session.SetSelection,
	}

	return m
}

func (m Model) Init() tea.Cmd {
	if m.relay == nil {
		return nil
	}

	return m.relay.Wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StateMsg:
		if m.relay != nil {
			return m, m.relay.Wait()
		}
	case generatedMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("%s failed: %v", msg.mode, msg.err)
		} else {
			m.flash = ""
		}
	case exportedMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.flash = "saved " + msg.path
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Engine().Stop(false)
		return m, tea.Quit
	case " ":
		m.report(m.session.TogglePlay(m.ctx))
	case "left":
		m.report(m.session.Seek(m.ctx, m.session.Engine().CurrentTime()-seekStep))
	case "right":
		m.report(m.session.Seek(m.ctx, m.session.Engine().CurrentTime()+seekStep))
	case "home":
		m.report(m.session.Seek(m.ctx, 0))
	case "esc":
		m.session.SetSelection(nil)
	case "tab":
		m.cycleTake(1)
	case "shift+tab":
		m.cycleTake(-1)
	case "p":
		m.cycleProfile(1)
	case "P":
		m.cycleProfile(-1)
	case "i":
		m.editing = true
	case "f":
		m.format = (m.format + 1) % len(formats)
	case "t":
		_, err := m.session.TrimToSelection()
		m.report(err)
	case "g":
		return m, m.generate(modeGenerate)
	case "v":
		return m, m.generate(modeVariations)
	case "h":
		return m, m.generate(modeHighPitch)
	case "e":
		return m, m.export()
	}

	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.editing = false
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.script); len(r) > 0 {
			m.script = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.script += " "
	case tea.KeyRunes:
		m.script += string(msg.Runes)
	}

	return m, nil
}

// handleMouse routes pointer events over the waveform rows into the shared
// click-vs-drag interaction.
func (m Model) handleMouse(msg tea.MouseMsg) {
	cols := m.waveCols()
	st := m.session.Engine().State()
	m.interaction.Width = float64(cols)
	m.interaction.Duration = st.Duration

	inside := msg.Y >= waveTop && msg.Y < waveTop+m.rows && msg.X >= 0 && msg.X < cols
	x := float64(min(max(msg.X, 0), cols))

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && inside {
			m.interaction.PointerDown(x)
		}
	case tea.MouseActionMotion:
		if inside || m.interaction.State() == waveform.Dragging {
			m.interaction.PointerMove(x)
		} else {
			m.interaction.PointerLeave()
		}
	case tea.MouseActionRelease:
		m.interaction.PointerUp(x)
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.flash = err.Error()
	}
}

func (m *Model) cycleTake(step int) {
	takes := m.session.Takes()
	if len(takes) == 0 {
		return
	}

	idx := -1
	if active, ok := m.session.ActiveTake(); ok {
		for i, t := range takes {
			if t.ID == active.ID {
				idx = i
			}
		}
	}
	next := (idx + step + len(takes)) % len(takes)
	if idx < 0 && step < 0 {
		next = len(takes) - 1
	}
	m.report(m.session.SelectTake(takes[next].ID))
}

func (m *Model) cycleProfile(step int) {
	if len(m.profiles) == 0 {
		return
	}

	cur := m.session.Profile().ID
	idx := 0
	for i, p := range m.profiles {
		if p.ID == cur {
			idx = i
		}
	}
	next := (idx + step + len(m.profiles)) % len(m.profiles)
	m.session.SelectProfile(m.profiles[next])
}

func (m Model) generate(mode string) tea.Cmd {
	ctx, session, script := m.ctx, m.session, m.script

	return func() tea.Msg {
		var err error
		switch mode {
		case modeVariations:
			_, err = session.GenerateVariations(ctx, script)
		case modeHighPitch:
			_, err = session.GenerateHighPitch(ctx, script)
		default:
			_, err = session.Generate(ctx, script)
		}

		return generatedMsg{mode: mode, err: err}
	}
}

func (m Model) export() tea.Cmd {
	session, save, format := m.session, m.save, formats[m.format]

	return func() tea.Msg {
		ex, err := session.Export(format)
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := save(ex.Filename, ex.Data)

		return exportedMsg{path: path, err: err}
	}
}

func (m Model) waveCols() int {
	return max(10, m.width)
}

// peaks returns the active take's terminal peaks, recomputing them only
// when the take or the width changes.
func (m Model) peaks(take studio.Take, cols int) []float64 {
	if m.cache.takeID != take.ID || m.cache.cols != cols {
		m.cache.takeID = take.ID
		m.cache.cols = cols
		m.cache.peaks = waveform.ComputePeaks(take.Buffer, float64(cols), 1, 0)
	}

	return m.cache.peaks
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderWave())
	b.WriteString("\n")
	b.WriteString(m.renderTakes())
	b.WriteString(m.renderScript())
	b.WriteString(m.renderLog())
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderHeader is exactly waveTop lines so mouse rows line up.
func (m Model) renderHeader() string {
	p := m.session.Profile()
	st := m.session.Engine().State()

	status := "Paused"
	switch {
	case m.session.Generating():
		status = "Generating..."
	case st.Playing:
		status = "Playing"
	}

	clock := fmt.Sprintf("%s / %s", studio.FormatTime(st.CurrentTime), studio.FormatTime(st.Duration))
	if st.Selection != nil && !st.Selection.Empty() {
		clock += fmt.Sprintf("  sel %s - %s", studio.FormatTime(st.Selection.Start), studio.FormatTime(st.Selection.End))
	}

	return titleStyle.Render("VoiceStudio") + "\n" +
		labelStyle.Render("Profile: ") + fmt.Sprintf("%s (%s) - %s", p.Name, p.Category, p.Vibe) + "\n" +
		labelStyle.Render("Status:  ") + status + "  " + clock + "\n"
}

func (m Model) renderWave() string {
	cols := m.waveCols()
	take, ok := m.session.ActiveTake()
	if !ok {
		return Placeholder(cols, m.rows, m.styles) + "\n"
	}

	st := m.session.Engine().State()

	return RenderWave(Wave{
		Peaks:     m.peaks(take, cols),
		Duration:  take.Duration(),
		Current:   st.CurrentTime,
		Selection: st.Selection,
	}, m.rows, m.styles) + "\n"
}

func (m Model) renderTakes() string {
	takes := m.session.Takes()
	if len(takes) == 0 {
		return faintStyle.Render("No takes yet. Press g to generate.") + "\n"
	}

	active, _ := m.session.ActiveTake()
	parts := make([]string, len(takes))
	for i, t := range takes {
		label := fmt.Sprintf("%d. %s (%s)", i+1, t.Label, studio.FormatTime(t.Duration()))
		if t.ID == active.ID {
			label = activeStyle.Render("> " + label)
		}
		parts[i] = label
	}

	return labelStyle.Render("Takes: ") + strings.Join(parts, "  ") + "\n"
}

func (m Model) renderScript() string {
	script := m.script
	if script == "" {
		script = faintStyle.Render("(empty)")
	}
	prefix := "Script: "
	if m.editing {
		prefix = "Script [editing, enter to finish]: "
		script += "_"
	}

	s := labelStyle.Render(prefix) + script + "\n"
	if m.flash != "" {
		s += errorStyle.Render(m.flash) + "\n"
	}

	return s
}

func (m Model) renderLog() string {
	entries := m.session.Log().Entries()
	if len(entries) > logLines {
		entries = entries[:logLines]
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(faintStyle.Render(e.String()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderHelp() string {
	return faintStyle.Render(fmt.Sprintf(
		"space:play/pause  ←/→:seek  tab:take  p:profile  g:generate  v:variations  h:high pitch  t:trim  e:export(%s)  f:format  i:edit  q:quit",
		formats[m.format]))
}
