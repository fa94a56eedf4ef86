// Package theme provides the Lip Gloss color palette and reusable styles
// for the terminal feed. It is a leaf package apart from the event
// taxonomy, to avoid import cycles.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ps2-census/census-stream/pkg/events"
)

// Faction colors.
var (
	ColorVS   = lipgloss.Color("#a855f7")
	ColorNC   = lipgloss.Color("#3b82f6")
	ColorTR   = lipgloss.Color("#dc2626")
	ColorNSO  = lipgloss.Color("#9ca3af")
	ColorNone = lipgloss.Color("#6b7280")
)

// Family colors.
var (
	ColorCharacter  = lipgloss.Color("#06b6d4")
	ColorWorld      = lipgloss.Color("#f59e0b")
	ColorStatus     = lipgloss.Color("#22c55e")
	ColorConnection = lipgloss.Color("#7c3aed")
	ColorDefault    = lipgloss.Color("#9ca3af")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// FactionColor returns the color for a faction id.
func FactionColor(id uint8) lipgloss.Color {
	switch id {
	case 1:
		return ColorVS
	case 2:
		return ColorNC
	case 3:
		return ColorTR
	case 4:
		return ColorNSO
	default:
		return ColorNone
	}
}

// FamilyColor returns the color for an event family.
func FamilyColor(f events.Family) lipgloss.Color {
	switch f {
	case events.FamilyCharacter:
		return ColorCharacter
	case events.FamilyWorld:
		return ColorWorld
	case events.FamilyStatus:
		return ColorStatus
	case events.FamilyConnection:
		return ColorConnection
	default:
		return ColorDefault
	}
}

// WeightColor returns the color for a reconnect weight against its ceiling.
func WeightColor(weight, ceiling float64) lipgloss.Color {
	switch {
	case ceiling <= 0:
		return ColorDimmed
	case weight/ceiling > 0.7:
		return ColorDanger
	case weight > 1:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)
)

// FamilyGlyph returns a glyph for an event family.
func FamilyGlyph(f events.Family) string {
	switch f {
	case events.FamilyCharacter:
		return "●"
	case events.FamilyWorld:
		return "◆"
	case events.FamilyStatus:
		return "○"
	case events.FamilyConnection:
		return "◎"
	default:
		return "·"
	}
}
