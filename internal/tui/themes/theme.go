// Package themes holds the lipgloss palettes used by the TUI and the CLI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	Badge         lipgloss.Style
	Box           lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusPending lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

type palette struct {
	primary, muted, border, foreground, subtle string
	info, errorC, warning, success, onPrimary  string
}

func build(p palette) Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	return Theme{
		Primary:    c(p.primary),
		Muted:      c(p.muted),
		Border:     c(p.border),
		Foreground: c(p.foreground),
		Info:       c(p.info),
		Error:      c(p.errorC),
		Warning:    c(p.warning),
		Success:    c(p.success),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(p.foreground)),
		Subtitle: lipgloss.NewStyle().
			Foreground(c(p.subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(c(p.foreground)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(p.foreground)),
		Selected: lipgloss.NewStyle().
			Background(c(p.primary)).
			Foreground(c(p.onPrimary)).
			Bold(true),
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(c(p.border)).
			BorderBottom(true).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Background(c(p.primary)).
			Foreground(c(p.onPrimary)).
			Padding(0, 1),
		Box: lipgloss.NewStyle().
			Padding(1, 2),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.border)).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(c(p.success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(c(p.warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(c(p.errorC)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(c(p.info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(c(p.muted)).
			Italic(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    "#7c3aed",
	muted:      "#737373",
	border:     "#404040",
	foreground: "#fafafa",
	subtle:     "#a3a3a3",
	info:       "#3b82f6",
	errorC:     "#ef4444",
	warning:    "#f59e0b",
	success:    "#10b981",
	onPrimary:  "#fafafa",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    "#cba6f7",
	muted:      "#6c7086",
	border:     "#45475a",
	foreground: "#cdd6f4",
	subtle:     "#a6adc8",
	info:       "#89dceb",
	errorC:     "#f38ba8",
	warning:    "#f9e2af",
	success:    "#a6e3a1",
	onPrimary:  "#1e1e2e",
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
