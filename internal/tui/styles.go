package tui

import "github.com/charmbracelet/lipgloss"

// WhatsApp-ish palette on the 256-colour terminal table.
var (
	colorAccent = lipgloss.Color("35")  // green
	colorTeal   = lipgloss.Color("30")  // dark cyan
	colorDim    = lipgloss.Color("242") // gray
	colorSelect = lipgloss.Color("229") // pale yellow
	colorFrame  = lipgloss.Color("237") // near black
)

var (
	styleInputPrompt = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleInput       = lipgloss.NewStyle().Foreground(colorAccent)

	styleListSelected = lipgloss.NewStyle().Foreground(colorSelect).Bold(true)
	styleChatName     = lipgloss.NewStyle().Foreground(colorAccent)
	styleSender       = lipgloss.NewStyle().Foreground(colorTeal)
	styleDim          = lipgloss.NewStyle().Foreground(colorDim)

	stylePanelBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame)
	styleActiveBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent)

	styleStatusBar = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
)
