package tui

import (
	"fmt"
	"strings"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/state"
)

// feedLine is an unstyled output line with its classification, so it can
// be re-wrapped and re-styled when the terminal is resized.
type feedLine struct {
	text string
	kind lineKind
}

// feed collects what bus handlers observe. The Model is copied on every
// Update, so handlers write here through a shared pointer.
type feed struct {
	lines    []feedLine
	subtitle string // last character line, shown over the scene
	speaker  string
	thinking string // character ID while a reply is outstanding
	near     string // character in reach
}

func (f *feed) add(kind lineKind, format string, args ...any) {
	f.lines = append(f.lines, feedLine{text: fmt.Sprintf(format, args...), kind: kind})
}

// subscribe registers the feed's bus handlers.
func (f *feed) subscribe(eng *engine.Engine) {
	name := func(id string) string {
		if room, ok := eng.Room(); ok {
			if c, ok := state.Character(room, id); ok && c.Name != "" {
				return c.Name
			}
		}
		return id
	}
	bus := eng.Bus

	events.On(bus, func(e events.PlayerNearCharacter) {
		f.near = e.CharacterID
		f.add(kindSystem, "[%s is nearby. Press z to talk.]", name(e.CharacterID))
	})
	events.On(bus, func(e events.PlayerLeftCharacter) {
		if f.near == e.CharacterID {
			f.near = ""
		}
	})
	events.On(bus, func(e events.SessionOpened) {
		f.subtitle, f.speaker = "", ""
		f.add(kindEvent, "── %s ──", name(e.CharacterID))
	})
	events.On(bus, func(e events.SessionEnded) {
		f.thinking = ""
		f.add(kindSystem, "[You stop talking to %s.]", name(e.CharacterID))
	})
	events.On(bus, func(e events.PlayerSpoke) {
		f.add(kindPlayer, "あなた: %s", strings.TrimSpace(e.Text))
	})
	events.On(bus, func(e events.NPCThinkingStarted) {
		f.thinking = e.CharacterID
	})
	events.On(bus, func(e events.NPCThinkingEnded) {
		// A dropped turn from an earlier session ends its own character's wait.
		if e.CharacterID == f.thinking {
			f.thinking = ""
		}
	})
	events.On(bus, func(e events.NPCSubtitle) {
		f.subtitle, f.speaker = e.Text, e.Name
		f.add(kindCharacter, "%s: %s", e.Name, e.Text)
	})
	events.On(bus, func(e events.MoodChanged) {
		msg := fmt.Sprintf("%s is now %s", e.DisplayName, e.Mood)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		if e.RefuseService {
			msg += " (refusing service)"
		}
		f.add(kindEvent, "[%s]", msg)
	})
	events.On(bus, func(e events.QuestCompleted) {
		title := e.QuestID
		if room, ok := eng.Room(); ok {
			if q, ok := state.Quest(room, e.QuestID); ok && q.Title != "" {
				title = q.Title
			}
		}
		f.add(kindEvent, "★ Quest complete: %s", title)
	})
	events.On(bus, func(e events.TierCleared) {
		msg := fmt.Sprintf("★ Tier %s cleared!", e.Tier)
		if i := quest.TierIndex(e.Tier); i >= 0 && i+1 < len(quest.Tiers) {
			msg += fmt.Sprintf(" /tier %s is now unlocked.", quest.Tiers[i+1])
		}
		f.add(kindEvent, "%s", msg)
	})
	events.On(bus, func(events.RecordingStarted) {
		f.add(kindSystem, "[Microphone on.]")
	})
	events.On(bus, func(events.RecordingStopped) {
		f.add(kindSystem, "[Microphone off.]")
	})
}
