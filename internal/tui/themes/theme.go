package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Selected      lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Title         lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Highlighted   lipgloss.Style
	Secondary     lipgloss.Color
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Background    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// palette is the set of colours a theme is built from.
type palette struct {
	primary, secondary, success, warning, errorColor, info string
	background, foreground, border, muted, surface         string
}

func build(p palette) Theme {
	return Theme{
		// Colors
		Primary:    lipgloss.Color(p.primary),
		Secondary:  lipgloss.Color(p.secondary),
		Success:    lipgloss.Color(p.success),
		Warning:    lipgloss.Color(p.warning),
		Error:      lipgloss.Color(p.errorColor),
		Info:       lipgloss.Color(p.info),
		Background: lipgloss.Color(p.background),
		Foreground: lipgloss.Color(p.foreground),
		Border:     lipgloss.Color(p.border),
		Muted:      lipgloss.Color(p.muted),

		// Text styles
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.foreground)).
			MarginBottom(1),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.foreground)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.foreground)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(p.primary)).
			Foreground(lipgloss.Color(p.background)).
			Bold(true),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color(p.surface)).
			Foreground(lipgloss.Color(p.foreground)),

		// Status styles
		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.errorColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.info)).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    "#7c3aed",
	secondary:  "#a78bfa",
	success:    "#10b981",
	warning:    "#f59e0b",
	errorColor: "#ef4444",
	info:       "#3b82f6",
	background: "#1a1a1a",
	foreground: "#fafafa",
	border:     "#404040",
	muted:      "#737373",
	surface:    "#404040",
})

// CatppuccinMocha is the Catppuccin Mocha theme. Its base matches the canvas
// background.
var CatppuccinMocha = build(palette{
	primary:    "#cba6f7",
	secondary:  "#f5c2e7",
	success:    "#a6e3a1",
	warning:    "#f9e2af",
	errorColor: "#f38ba8",
	info:       "#89dceb",
	background: "#1e1e2e",
	foreground: "#cdd6f4",
	border:     "#45475a",
	muted:      "#6c7086",
	surface:    "#45475a",
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
