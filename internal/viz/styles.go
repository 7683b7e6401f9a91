package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))

	statusRunning   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusDone      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	statusError     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	statusRecording = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")).Blink(true)
)

// sparkline values in the top fifth of their range are highlighted
const sparkHigh = 0.8

// ProgressBar renders percent in [0, 1] as a bar of width cells whose
// colour runs from th.LowPressure to th.HighPressure as it fills.
func ProgressBar(percent float64, width int, th Theme) string {
	percent = clamp01(percent)
	filled := int(percent * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	fill, err := lerpColor(th.LowPressure, th.HighPressure, percent)
	if err != nil {
		return bar
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Render(bar)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline draws the last width values as block heights over their
// range. Non-finite values are drawn as a gap.
func Sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if finite(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return strings.Repeat("─", width)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		if !finite(v) {
			b.WriteRune(' ')
			continue
		}
		norm := (v - lo) / span
		c := string(sparkChars[int(norm*float64(len(sparkChars)-1))])
		if norm >= sparkHigh {
			b.WriteString(statusError.Render(c))
		} else {
			b.WriteString(valueStyle.Render(c))
		}
	}
	return b.String()
}

func Separator(width int) string {
	mid := width / 2
	return subtleStyle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

// lerpColor blends two #rrggbb colours in RGB; t is clamped to [0, 1].
func lerpColor(from, to string, t float64) (string, error) {
	a, err := colorful.Hex(from)
	if err != nil {
		return "", fmt.Errorf("viz: colour %q: %w", from, err)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return "", fmt.Errorf("viz: colour %q: %w", to, err)
	}
	return a.BlendRgb(b, clamp01(t)).Hex(), nil
}

func clamp01(t float64) float64 { return math.Max(0, math.Min(1, t)) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
