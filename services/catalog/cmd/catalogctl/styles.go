package main

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
)

var styles = struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	muted   lipgloss.Style
	active  lipgloss.Style
	error   lipgloss.Style
	loading lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	header:  lipgloss.NewStyle().Bold(true).PaddingRight(2),
	cell:    lipgloss.NewStyle().PaddingRight(2),
	muted:   lipgloss.NewStyle().Foreground(colorMuted),
	active:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	error:   lipgloss.NewStyle().Foreground(colorError),
	loading: lipgloss.NewStyle().Italic(true).Foreground(colorWarning),
}
