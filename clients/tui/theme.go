// Package tui provides a terminal user interface for the tim space gateway.
package tui

import "charm.land/lipgloss/v2"

// Adaptive colors (light/dark terminal detection).
var (
	ColorSelf     = lipgloss.AdaptiveColor{Light: "#0070F3", Dark: "#79C0FF"}
	ColorOther    = lipgloss.AdaptiveColor{Light: "#6B21A8", Dark: "#D8A6FF"}
	ColorAbility  = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"}
	ColorPresence = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorError    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF6B6B"}
	ColorMuted    = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorStatusBg = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
	ColorStatusFg = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}
	ColorBorder   = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
)

// Component styles.
var (
	SelfStyle = lipgloss.NewStyle().
			Foreground(ColorSelf).
			Bold(true)

	OtherStyle = lipgloss.NewStyle().
			Foreground(ColorOther).
			Bold(true)

	AbilityStyle = lipgloss.NewStyle().
			Foreground(ColorAbility)

	PresenceStyle = lipgloss.NewStyle().
			Foreground(ColorPresence).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorStatusBg).
			Foreground(ColorStatusFg).
			Padding(0, 1)

	PanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1)
)
