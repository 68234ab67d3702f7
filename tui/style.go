package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nathoo/kaiwa/types"
	"github.com/nathoo/kaiwa/world"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleKeys = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlayerLine = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleCharacterLine = lipgloss.NewStyle().
				Foreground(lipgloss.Color("228"))

	styleGloss = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleEvent = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleFeedback = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180"))

	styleSubtitle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 1)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleDone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleLocked = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// Scene tiles.
	styleFloor    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleWall     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	styleObstacle = lipgloss.NewStyle().Foreground(lipgloss.Color("94"))
	styleDoor     = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	stylePlayer   = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	styleNPC      = lipgloss.NewStyle().Foreground(lipgloss.Color("228"))
	styleNPCNear  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("228"))
)

// lineKind identifies the type of a feed line for styling.
type lineKind int

const (
	kindSystem lineKind = iota
	kindPlayer
	kindCharacter
	kindGloss
	kindEvent
	kindError
	kindFeedback
)

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindPlayer:
		return stylePlayerLine.Render(line)
	case kindCharacter:
		return styleCharacterLine.Render(line)
	case kindGloss:
		return styleGloss.Render(line)
	case kindEvent:
		return styleEvent.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindFeedback:
		return styleFeedback.Render(line)
	default:
		return styleSystem.Render(line)
	}
}

// moodColor maps a mood to the colour of its status badge.
func moodColor(m types.Mood) lipgloss.Color {
	switch m {
	case types.MoodHappy:
		return lipgloss.Color("46")
	case types.MoodAnnoyed:
		return lipgloss.Color("214")
	case types.MoodAngry:
		return lipgloss.Color("196")
	case types.MoodSad:
		return lipgloss.Color("75")
	}
	return lipgloss.Color("252")
}

// tileGlyph returns the two-cell glyph for a non-character tile.
func tileGlyph(t world.Tile) string {
	switch t {
	case world.Wall:
		return styleWall.Render("██")
	case world.Obstacle:
		return styleObstacle.Render("▒▒")
	case world.Door:
		return styleDoor.Render("⌂ ")
	case world.Player:
		return stylePlayer.Render("@ ")
	}
	return styleFloor.Render("· ")
}
