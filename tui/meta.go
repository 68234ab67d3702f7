package tui

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/parser"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/save"
	"github.com/nathoo/kaiwa/types"
)

// handleMeta dispatches meta-commands. Returns true if the program should exit.
func (m *Model) handleMeta(input string) bool {
	cmd := parser.Parse(input)
	arg := cmd.Arg(0)

	switch cmd.Name {
	case "quit":
		return true

	case "talk":
		if m.scene != nil {
			m.talkToNearest()
		}

	case "leave":
		m.engine.Leave()

	case "tier":
		m.cmdTier(types.Tier(arg))

	case "room":
		tier := quest.Tiers[0]
		if t := cmd.Arg(1); t != "" {
			tier = types.Tier(t)
		}
		m.enter(arg, tier)

	case "quests":
		m.cmdQuests()

	case "mood":
		m.cmdMood()

	case "history":
		m.cmdHistory()

	case "feedback":
		m.addFeedback()

	case "mic":
		m.toggleMic()

	case "save":
		m.cmdSave(arg)

	case "load":
		m.cmdLoad(arg)

	case "help":
		m.cmdHelp()

	default:
		m.feed.add(kindError, "[Unknown command: /%s. Type /help for available commands.]", cmd.Name)
	}
	return false
}

func (m *Model) cmdTier(tier types.Tier) {
	if tier == "" {
		m.feed.add(kindSystem, "[Usage: /tier easy|normal|hard|hell]")
		return
	}
	m.enter(m.engine.RoomID(), tier)
}

func (m *Model) enter(roomID string, tier types.Tier) {
	if err := m.engine.EnterRoom(roomID, tier); err != nil {
		switch {
		case errors.Is(err, engine.ErrTierLocked):
			m.feed.add(kindError, "[Tier %q is locked. Clear the previous tier first.]", tier)
		case errors.Is(err, engine.ErrUnknownRoom):
			m.feed.add(kindError, "[No such room: %s.]", roomID)
		default:
			m.feed.add(kindError, "[%v]", err)
		}
		return
	}
	m.syncScene()
	m.describeRoom()
}

func (m *Model) cmdQuests() {
	for _, q := range m.engine.TierQuests() {
		m.feed.add(kindSystem, "%s (%s): %s", q.Title, m.characterName(q.TargetCharacterID), q.Description)
		for _, h := range q.Hints {
			m.feed.add(kindGloss, "    hint: %s", h)
		}
		for _, v := range q.RewardVocab {
			m.feed.add(kindGloss, "    vocab: %s (%s) %s", v.Word, v.Reading, v.Meaning)
		}
	}
}

func (m *Model) cmdMood() {
	room, _ := m.engine.Room()
	for _, c := range room.Characters {
		ms := m.engine.Moods.Get(c.ID)
		line := c.Name + ": " + string(ms.Mood)
		if ms.RefuseService {
			line += " (refusing service)"
		}
		m.feed.add(kindSystem, "  %s", line)
	}
}

func (m *Model) cmdHistory() {
	lines := m.engine.Sessions.Transcript()
	if len(lines) == 0 {
		m.feed.add(kindSystem, "[Nothing said yet.]")
		return
	}
	for _, msg := range lines {
		kind := kindCharacter
		if msg.Speaker == types.SpeakerPlayer {
			kind = kindPlayer
		}
		m.feed.add(kind, "%s: %s", msg.DisplayName, msg.Text)
	}
}

func (m *Model) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.engine)
	if err != nil {
		m.feed.add(kindError, "[Save failed: %v]", err)
		return
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		m.feed.add(kindError, "[Save failed: %v]", err)
		return
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.feed.add(kindError, "[Save failed: %v]", err)
		return
	}

	m.feed.add(kindSystem, "[Progress saved to %s.]", name)
}

func (m *Model) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		m.feed.add(kindError, "[Load failed: %v]", err)
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		m.feed.add(kindError, "[Load failed: %v]", err)
		return
	}
	if err := save.Apply(m.engine, sd); err != nil {
		m.feed.add(kindError, "[Load failed: %v]", err)
		return
	}

	m.syncScene()
	m.feed.add(kindSystem, "[Progress loaded from %s.]", name)
	m.describeRoom()
}

func (m *Model) cmdHelp() {
	help := []string{
		"Walking:",
		"  arrows / wasd       — Move",
		"  z / enter           — Talk to the person next to you",
		"  m                   — Toggle the microphone",
		"  / or :              — Type a command",
		"  q                   — Quit",
		"",
		"Talking:",
		"  enter               — Say the line",
		"  esc                 — Walk away",
		"  up / down           — Recall earlier lines",
		"",
		"Commands:",
		"  /tier <tier>        — Switch tier (easy, normal, hard, hell)",
		"  /room <id> [tier]   — Enter a room",
		"  /quests             — Show hints and vocabulary",
		"  /feedback           — Feedback on your last line",
		"  /mood, /history     — Moods, this conversation so far",
		"  /mic, /leave        — Microphone, end conversation",
		"  /save [name]        — Save progress (default: quicksave)",
		"  /load [name]        — Load progress (default: quicksave)",
		"  /quit               — Exit",
		"",
		"PgUp/PgDn scroll the transcript.",
	}
	for _, line := range help {
		m.feed.add(kindSystem, "%s", line)
	}
}
