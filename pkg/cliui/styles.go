package cliui

import "github.com/charmbracelet/lipgloss"

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	StepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	WarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// PromptStyle is the chat input prompt.
	PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)
