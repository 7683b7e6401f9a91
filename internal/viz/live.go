package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/isph/internal/particle"
	"github.com/san-kum/isph/internal/sim"
)

const (
	width           = 64
	height          = 22
	historyCapacity = 600
	maxPerFrame     = 64
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a particle simulation inside a bubbletea program and draws
// the particles with their solver statistics.
type Model struct {
	name     string
	stepper  sim.Stepper
	sets     []*particle.Set
	cfg      sim.Config
	t, dt    float64
	steps    int
	perFrame int

	canvas *Canvas
	bounds Bounds
	solids bool

	records  []sim.StepRecord
	sweeps   []float64
	dts      []float64
	running  bool
	done     bool
	err      error
	status   string
	outDir   string
	showHelp bool

	recording bool
	frames    []*image.Paletted
}

// NewModel prepares a live view of stepper. sets are the particles
// drawn; the view is fitted to their initial positions.
func NewModel(name string, stepper sim.Stepper, sets []*particle.Set, cfg sim.Config) Model {
	m := Model{
		name:     name,
		stepper:  stepper,
		sets:     sets,
		cfg:      cfg,
		dt:       cfg.Dt,
		perFrame: 1,
		canvas:   NewCanvas(width, height),
		bounds:   FitBounds(PointsFromSets(sets), 0.02),
		solids:   true,
		records:  make([]sim.StepRecord, 0, historyCapacity),
		sweeps:   make([]float64, 0, historyCapacity),
		dts:      make([]float64, 0, historyCapacity),
		running:  true,
		outDir:   ".",
	}
	m.draw()
	return m
}

// SetOutputDir sets where snapshots and recordings are written.
func (m *Model) SetOutputDir(dir string) { m.outDir = dir }

// SetStepsPerFrame sets how many timesteps each frame advances.
func (m *Model) SetStepsPerFrame(n int) { m.perFrame = min(max(n, 1), maxPerFrame) }

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.perFrame = min(2*m.perFrame, maxPerFrame)
		case "-", "_":
			m.perFrame = max(m.perFrame/2, 1)
		case "n":
			if !m.running && !m.done {
				m.step()
				m.draw()
			}
		case "w":
			m.solids = !m.solids
			m.draw()
		case "s":
			m.saveSVG()
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done {
			for k := 0; k < m.perFrame && !m.done; k++ {
				m.step()
			}
			m.draw()
			if m.recording {
				m.captureFrame()
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances the simulation by one timestep.
func (m *Model) step() {
	if m.cfg.Adaptive && m.steps > 0 {
		m.dt, _ = sim.NextDt(m.stepper, m.cfg)
	}
	dt := math.Min(m.dt, m.cfg.Duration-m.t)

	rep, err := m.stepper.Step(m.t, dt)
	if err != nil {
		m.err, m.done = err, true
		return
	}
	m.t += dt

	rec := sim.NewRecord(m.steps, m.t, dt, rep, m.stepper.Sets())
	m.steps++
	m.push(rec)

	if !sim.Valid(m.stepper.Sets()) {
		m.err = sim.SimError{Time: m.t, Step: rec.Step, Message: "invalid state (NaN/Inf)"}
		m.done = true
		return
	}
	if m.cfg.Duration-m.t <= 1e-9*m.cfg.Duration {
		m.done = true
	}
}

func (m *Model) push(rec sim.StepRecord) {
	m.records = append(m.records, rec)
	m.sweeps = append(m.sweeps, float64(rec.Sweeps))
	m.dts = append(m.dts, rec.Dt)
	if len(m.records) > historyCapacity {
		m.records = m.records[1:]
		m.sweeps = m.sweeps[1:]
		m.dts = m.dts[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	DrawBounds(m.canvas)
	DrawParticles(m.canvas, PointsFromSets(m.sets), m.bounds, m.solids)
}

// View renders the TUI interface.
func (m Model) View() string {
	theme := CurrentTheme
	canvasView := canvasStyle.Foreground(theme.Fluid).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	progress := 0.0
	if m.cfg.Duration > 0 {
		progress = m.t / m.cfg.Duration
	}
	s.WriteString(ProgressBar(progress, 30, theme) + "\n")

	if len(m.sweeps) > 1 {
		chart := asciigraph.Plot(m.sweeps, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("PPE sweeps"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.5f / %.5f", m.t, m.cfg.Duration))
	row("Step", fmt.Sprintf("%d (x%d)", m.steps, m.perFrame))
	if n := len(m.records); n > 0 {
		rec := m.records[n-1]
		row("dt", fmt.Sprintf("%.3e", rec.Dt))
		row("Sweeps", fmt.Sprintf("%d", rec.Sweeps))
		row("Residual", formatResidual(rec))
		row("max p", fmt.Sprintf("%.4g", rec.MaxP))
		row("max |u|", fmt.Sprintf("%.4g", rec.MaxVmag))
		row("Momentum", fmt.Sprintf("%.3e", rec.Momentum))
	}
	if m.cfg.Adaptive && len(m.dts) > 0 {
		s.WriteString(labelStyle.Render("dt") + Sparkline(m.dts, 30) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + subtleStyle.Render(m.status) + "\n")
	}

	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause N:Step Q:Quit\n+/-:Speed W:Walls T:Theme\nS:SVG G:Record ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  N        - Single step when paused  ║
║  + / -    - Steps per frame x2 / /2  ║
║  W        - Toggle wall particles    ║
║  S        - Save SVG snapshot        ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func (m Model) statusLine() string {
	var status string
	switch {
	case m.err != nil:
		status = statusError.Render("ERROR: " + m.err.Error())
	case m.done:
		status = statusDone.Render("DONE")
	case m.running:
		status = statusRunning.Render("RUNNING")
	default:
		status = statusPaused.Render("PAUSED")
	}
	if m.recording {
		status += " " + statusRecording.Render("● REC")
	}
	return status
}

func formatResidual(rec sim.StepRecord) string {
	if math.IsInf(rec.Conv, 0) || math.IsNaN(rec.Conv) {
		return "n/a"
	}
	s := fmt.Sprintf("%.2e", rec.Conv)
	if !rec.Converged {
		s += " (unconverged)"
	}
	return s
}

func (m *Model) saveSVG() {
	svg, err := ParticlesToSVG(PointsFromSets(m.sets), 800, 600, CurrentTheme)
	if err != nil {
		m.status = err.Error()
		return
	}
	path := filepath.Join(m.outDir, fmt.Sprintf("%s_%06d.svg", m.name, m.steps))
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "saved " + path
}

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.canvas.Width*charW, m.canvas.Height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	m.canvas.Each(func(x, y int) {
		for py := 0; py < dotH; py++ {
			for px := 0; px < dotW; px++ {
				img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
			}
		}
	})
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 3)
	}
	path := filepath.Join(m.outDir, m.name+".gif")
	f, err := os.Create(path)
	if err != nil {
		m.status = err.Error()
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("saved %s (%d frames)", path, len(m.frames))
}

// RunLive runs m full screen until the user quits.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
