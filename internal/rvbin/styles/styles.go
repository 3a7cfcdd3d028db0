package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	// Path renders the output file name.
	Path = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Malibu.Hex())).Bold(true)
	// Count renders the byte count.
	Count = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Guac.Hex()))
	// Muted renders the surrounding text.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Smoke.Hex()))
)
