package viz

import (
	"fmt"
	"math"
	"strings"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	writeHeader(&sb, width, height, ThemeOcean.Background)
	fmt.Fprintf(&sb, `<g fill="%s">`+"\n", ThemeOcean.Fluid)

	r := scale * 0.4
	canvas.Each(func(x, y int) {
		cx := float64(x)*scale + scale/2
		cy := float64(y)*scale + scale/2
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, r)
	})

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ParticlesToSVG draws one dot per particle. Fluid particles are shaded
// over the pressure range of the fluid, from th.LowPressure to
// th.HighPressure; solids get th.Solid. An empty pts gives "".
func ParticlesToSVG(pts []Point, width, height int, th Theme) (string, error) {
	if len(pts) == 0 {
		return "", nil
	}
	if _, err := lerpColor(th.LowPressure, th.HighPressure, 0); err != nil {
		return "", err
	}
	b := FitBounds(pts, 0.05)

	pmin, pmax := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		if p.Solid || !finite(p.P) {
			continue
		}
		pmin = math.Min(pmin, p.P)
		pmax = math.Max(pmax, p.P)
	}
	prange := pmax - pmin
	if !(prange > 0) {
		prange = 1
	}

	// dot radius from the spacing a square lattice of the same count would have
	r := 0.4 * math.Min(float64(width), float64(height)) / math.Sqrt(float64(len(pts)))
	r = math.Max(r, 0.5)

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height), th.Background)
	for _, p := range pts {
		x, y := b.Project(p.X, p.Y, width, height)
		fill := th.Solid
		if !p.Solid {
			// colours were checked above
			fill, _ = lerpColor(th.LowPressure, th.HighPressure, (p.P-pmin)/prange)
		}
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%.1f" fill="%s"/>`+"\n", x, y, r, fill)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// SeriesToSVG draws values against their index as a polyline.
// Non-finite values break the line.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	ymin, ymax := math.Inf(1), math.Inf(-1)
	n := 0
	for _, v := range values {
		if !finite(v) {
			continue
		}
		ymin = math.Min(ymin, v)
		ymax = math.Max(ymax, v)
		n++
	}
	if n < 2 {
		return ""
	}

	rangeX := float64(len(values) - 1)
	rangeY := ymax - ymin
	if rangeY == 0 {
		rangeY = 1
	}
	ymin -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height), ThemeOcean.Background)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, strokeColor)

	move := true
	for i, v := range values {
		if !finite(v) {
			move = true
			continue
		}
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-ymin)/rangeY*float64(height)
		if move {
			fmt.Fprintf(&sb, "M%.1f,%.1f ", x, y)
			move = false
		} else {
			fmt.Fprintf(&sb, "L%.1f,%.1f ", x, y)
		}
	}

	sb.WriteString(`"/>` + "\n</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64, background string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
