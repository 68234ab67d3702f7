package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/types"
	"github.com/nathoo/kaiwa/world"
)

// renderTop lays the scene (with its subtitle) beside the quest panel.
func (m Model) renderTop() string {
	scene := m.renderScene()
	left := scene
	if sub := m.renderSubtitle(lipgloss.Width(scene)); sub != "" {
		left = lipgloss.JoinVertical(lipgloss.Left, scene, sub)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.renderPanel())
}

// renderScene draws the room grid, two cells per tile.
func (m Model) renderScene() string {
	if m.scene == nil {
		return ""
	}
	room := m.scene.Room()
	rows := make([]string, 0, room.Height)
	for y := 0; y < room.Height; y++ {
		var b strings.Builder
		for x := 0; x < room.Width; x++ {
			p := types.Point{X: x, Y: y}
			t := m.scene.TileAt(p)
			if t != world.Character {
				b.WriteString(tileGlyph(t))
				continue
			}
			c, _ := m.scene.CharacterAt(p)
			b.WriteString(m.characterGlyph(c))
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// characterGlyph is the first rune of the character's name, padded to two
// cells and highlighted while the character is in reach.
func (m Model) characterGlyph(c types.CharacterDef) string {
	glyph := "? "
	if r := []rune(c.Name); len(r) > 0 {
		glyph = string(r[0])
		if lipgloss.Width(glyph) < 2 {
			glyph += " "
		}
	}
	if near, ok := m.scene.Nearest(); ok && near.ID == c.ID {
		return styleNPCNear.Render(glyph)
	}
	return styleNPC.Render(glyph)
}

// renderSubtitle shows the latest line, or a thinking indicator.
func (m Model) renderSubtitle(width int) string {
	var text string
	switch {
	case m.feed.thinking != "":
		text = m.characterName(m.feed.thinking) + " …"
	case m.feed.subtitle != "" && m.engine.Sessions.IsActive():
		text = m.feed.speaker + ": " + m.feed.subtitle
	default:
		return ""
	}
	if width < 40 {
		width = 40
	}
	return styleSubtitle.Width(width - 2).Render(text)
}

// renderPanel lists the tiers, the current tier's quests, and moods.
func (m Model) renderPanel() string {
	room, ok := m.engine.Room()
	if !ok {
		return ""
	}
	ledger := m.engine.Ledger
	var lines []string

	// Tiers.
	var tiers []string
	for _, t := range quest.Tiers {
		label := string(t)
		switch {
		case t == m.engine.Tier():
			label = "[" + label + "]"
		case ledger.IsTierRecorded(room.ID, t):
			label = styleDone.Render(label + "✓")
		case !ledger.IsTierUnlocked(room.ID, t):
			label = styleLocked.Render(label)
		}
		tiers = append(tiers, label)
	}
	lines = append(lines, strings.Join(tiers, " "), "")

	// Quests.
	quests := m.engine.TierQuests()
	done := ledger.CompletedCount(state.QuestIDs(quests))
	lines = append(lines, fmt.Sprintf("Quests %d/%d", done, len(quests)))
	for _, q := range quests {
		box := "○"
		title := q.Title
		if s, _ := ledger.Status(q.ID); s == types.QuestCompleted {
			box = styleDone.Render("●")
			title = styleDone.Render(title)
		}
		lines = append(lines, fmt.Sprintf(" %s %s · %s", box, title, m.characterName(q.TargetCharacterID)))
		if q.GrammarPoint != "" {
			lines = append(lines, styleKeys.Render("     "+q.GrammarPoint))
		}
	}
	lines = append(lines, "")

	// Moods.
	for _, c := range room.Characters {
		ms := m.engine.Moods.Get(c.ID)
		badge := lipgloss.NewStyle().Foreground(moodColor(ms.Mood)).Render(string(ms.Mood))
		line := fmt.Sprintf(" %s %s", c.Name, badge)
		if ms.RefuseService {
			line += styleError.Render(" ✗")
		}
		lines = append(lines, line)
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

// renderStatusBar produces a full-width inverted status line showing the
// room, the tier, the conversation partner, and the microphone.
func (m Model) renderStatusBar() string {
	room, _ := m.engine.Room()
	left := fmt.Sprintf(" %s | %s", room.Name, m.engine.Tier())

	var right string
	if id := m.engine.Sessions.CharacterID(); id != "" {
		right = "Talking to " + m.characterName(id)
		if m.engine.Sessions.Recording() {
			right += " | ● REC"
		}
	} else if m.feed.near != "" {
		right = "Near " + m.characterName(m.feed.near)
	}
	right += " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

func (m Model) characterName(id string) string {
	if room, ok := m.engine.Room(); ok {
		if c, ok := state.Character(room, id); ok && c.Name != "" {
			return c.Name
		}
	}
	return id
}
