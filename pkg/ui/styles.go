package ui

import "github.com/charmbracelet/lipgloss"

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	dimWhite    = lipgloss.Color("#B0B0B0")

	headerStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Padding(0, 1)

	videoStyle = cellStyle.
			Foreground(neonGreen)

	borderStyle = lipgloss.NewStyle().
			Foreground(neonMagenta)

	labelStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 2)
)
