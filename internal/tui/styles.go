package tui

import "github.com/charmbracelet/lipgloss"

var (
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))            // purple
	markStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
	markSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // green
	nameSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))            // green
	inProgressStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // dark gray
	headerStyle       = lipgloss.NewStyle().Bold(true)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("227")) // yellow
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	uninstallStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("#e74c3c")).Padding(0, 1)

	alertStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

// Choose color for size: red > orange > yellow > green > light gray > dark gray
func sizeColorStyle(b int64) lipgloss.Style {
	const MB = 1024 * 1024
	switch {
	case b >= 500*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	case b >= 100*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // orange
	case b >= 25*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // yellow
	case b >= 5*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46")) // green
	case b >= 1*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("250")) // light gray
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // dark gray
	}
}
