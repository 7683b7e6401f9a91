package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the particle views. Fluid dots are shaded from
// LowPressure to HighPressure in SVG output; the terminal canvas has one
// colour and uses Fluid.
type Theme struct {
	Name         string
	Fluid        lipgloss.Color
	Background   string
	Solid        string
	LowPressure  string
	HighPressure string
}

var (
	ThemeOcean = Theme{
		Name:         "ocean",
		Fluid:        lipgloss.Color("#00a8cc"),
		Background:   "#0a0a0a",
		Solid:        "#666688",
		LowPressure:  "#0077be",
		HighPressure: "#ff4444",
	}

	ThemeThermal = Theme{
		Name:         "thermal",
		Fluid:        lipgloss.Color("#ff9f43"),
		Background:   "#1a0f0a",
		Solid:        "#5c5c5c",
		LowPressure:  "#2d1b6e",
		HighPressure: "#ffe066",
	}

	ThemeMono = Theme{
		Name:         "mono",
		Fluid:        lipgloss.Color("#ffffff"),
		Background:   "#000000",
		Solid:        "#444444",
		LowPressure:  "#333333",
		HighPressure: "#ffffff",
	}

	ThemeRetro = Theme{
		Name:         "retro",
		Fluid:        lipgloss.Color("#00ff00"),
		Background:   "#001100",
		Solid:        "#005500",
		LowPressure:  "#004400",
		HighPressure: "#88ff88",
	}

	CurrentTheme = ThemeOcean

	Themes = []Theme{
		ThemeOcean,
		ThemeThermal,
		ThemeMono,
		ThemeRetro,
	}
)

// GetTheme returns a theme by name, or ocean when name is unknown.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme makes the theme after the current one current.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(names[0])
}
