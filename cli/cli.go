// Package cli provides a plain line-based front end for kaiwa: free text
// is spoken to the current character and /commands drive everything else.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/dialogue"
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/engine/parser"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/save"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: "saves",
	}
}

// Run starts the loop. It shows the intro and the room, then loops:
// prompt → input → dispatch → output. It returns when input ends, on
// /quit, or when ctx is done.
func (c *CLI) Run(ctx context.Context) {
	c.subscribe()

	if intro := c.Engine.Defs.Game.Intro; intro != "" {
		c.printLine(intro)
		c.printLine("")
	}
	c.describeRoom()

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		c.print(c.prompt())
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if parser.IsCommand(input) {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		c.say(ctx, input)
	}
}

func (c *CLI) prompt() string {
	if id := c.Engine.Sessions.CharacterID(); id != "" {
		return c.displayName(id) + "> "
	}
	return "> "
}

// say submits one utterance and prints the reply.
func (c *CLI) say(ctx context.Context, text string) {
	if !c.Engine.Sessions.IsActive() {
		c.printSystem("You are not talking to anyone. Use /talk <character>.")
		return
	}
	outcome, ok := c.Engine.Submit(ctx, text)
	if !ok {
		c.printSystem("Still waiting for a reply.")
		return
	}
	switch outcome {
	case dialogue.Replied:
		c.printReplyDetails()
	case dialogue.Failed:
		c.printSystem(dialogue.FailureText)
	case dialogue.Dropped:
		c.printSystem("The conversation ended before the reply arrived.")
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	cmd := parser.Parse(input)
	arg := cmd.Arg(0)

	switch cmd.Name {
	case "quit":
		c.Engine.Leave()
		c.printSystem("さようなら。")
		return true

	case "talk":
		c.cmdTalk(arg)

	case "leave":
		if !c.Engine.Sessions.IsActive() {
			c.printSystem("You are not talking to anyone.")
			return false
		}
		c.Engine.Leave()

	case "room":
		c.cmdRoom(arg, types.Tier(cmd.Arg(1)))

	case "tier":
		c.cmdRoom(c.Engine.RoomID(), types.Tier(arg))

	case "quests":
		c.cmdQuests()

	case "mood":
		c.cmdMood()

	case "feedback":
		c.cmdFeedback()

	case "history":
		c.cmdHistory()

	case "mic":
		c.cmdMic()

	case "save":
		c.cmdSave(arg)

	case "load":
		c.cmdLoad(arg)

	case "help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", cmd.Name))
	}

	return false
}

func (c *CLI) cmdTalk(id string) {
	room, _ := c.Engine.Room()
	if id == "" {
		c.printSystem("Talk to whom?")
		c.listCharacters(room)
		return
	}
	if _, ok := state.Character(room, id); !ok {
		c.printSystem(fmt.Sprintf("There is no %q here.", id))
		c.listCharacters(room)
		return
	}
	// Walking over to someone else ends the current conversation.
	if cur := c.Engine.Sessions.CharacterID(); cur != "" && cur != id {
		c.Engine.Leave()
	}
	opened, err := c.Engine.Talk(id)
	if err != nil {
		c.printSystem(err.Error())
		return
	}
	if !opened {
		c.printSystem(fmt.Sprintf("You are already talking to %s.", c.displayName(id)))
	}
}

func (c *CLI) cmdRoom(roomID string, tier types.Tier) {
	if roomID == "" {
		c.printSystem("Rooms: " + strings.Join(c.Engine.Defs.RoomIDs(), ", "))
		return
	}
	if tier == "" {
		tier = quest.Tiers[0]
	}
	if err := c.Engine.EnterRoom(roomID, tier); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownRoom):
			c.printSystem(fmt.Sprintf("No such room: %s.", roomID))
		case errors.Is(err, engine.ErrTierLocked):
			c.printSystem(fmt.Sprintf("Tier %q is locked. Clear the previous tier first.", tier))
		default:
			c.printSystem(err.Error())
		}
		return
	}
	c.describeRoom()
}

func (c *CLI) cmdQuests() {
	room, ok := c.Engine.Room()
	if !ok {
		c.printSystem("No room entered.")
		return
	}
	for _, t := range quest.Tiers {
		marker := "  "
		if t == c.Engine.Tier() {
			marker = "> "
		}
		lock := ""
		switch {
		case c.Engine.Ledger.IsTierRecorded(room.ID, t):
			lock = " (cleared)"
		case !c.Engine.Ledger.IsTierUnlocked(room.ID, t):
			lock = " (locked)"
		}
		c.printLine(fmt.Sprintf("%s%s%s", marker, t, lock))
	}
	c.printLine("")

	quests := c.Engine.TierQuests()
	done := c.Engine.Ledger.CompletedCount(state.QuestIDs(quests))
	c.printLine(fmt.Sprintf("%s: %d/%d", c.Engine.Tier(), done, len(quests)))
	for _, q := range quests {
		box := "[ ]"
		if s, _ := c.Engine.Ledger.Status(q.ID); s == types.QuestCompleted {
			box = "[x]"
		}
		c.printLine(fmt.Sprintf("  %s %s (%s) — %s", box, q.Title, c.displayName(q.TargetCharacterID), q.Description))
		if q.GrammarPoint != "" {
			c.printLine("        grammar: " + q.GrammarPoint)
		}
		for _, h := range q.Hints {
			c.printLine("        hint: " + h)
		}
	}
}

func (c *CLI) cmdMood() {
	room, _ := c.Engine.Room()
	for _, ch := range room.Characters {
		ms := c.Engine.Moods.Get(ch.ID)
		line := fmt.Sprintf("  %s: %s", ch.Name, ms.Mood)
		if ms.RefuseService {
			line += " (refusing service)"
		}
		c.printLine(line)
	}
}

func (c *CLI) cmdFeedback() {
	fb := c.Engine.Sessions.Feedback()
	if fb == nil {
		c.printSystem("No feedback yet.")
		return
	}
	c.printFeedback(fb)
}

func (c *CLI) cmdHistory() {
	lines := c.Engine.Sessions.Transcript()
	if len(lines) == 0 {
		c.printSystem("Nothing said yet.")
		return
	}
	for _, m := range lines {
		c.printMessage(m)
	}
}

func (c *CLI) cmdMic() {
	s := c.Engine.Sessions
	if !s.IsActive() {
		c.printSystem("Start a conversation first.")
		return
	}
	s.SetRecording(!s.Recording())
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Engine)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Progress saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if err := save.Apply(c.Engine, sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Progress loaded from %s.", name))
	c.describeRoom()
}

func (c *CLI) cmdHelp() {
	help := []string{
		"Conversation:",
		"  <text>             — Say something to the character you are talking to",
		"  /talk <character>  — Start talking to someone in the room",
		"  /leave             — End the conversation",
		"  /mic               — Toggle the microphone indicator",
		"  /feedback          — Show feedback on your last line",
		"  /history           — Show the conversation so far",
		"",
		"Progress:",
		"  /quests            — Show tiers and quests",
		"  /mood              — Show how everyone feels",
		"  /tier <tier>       — Switch tier (easy, normal, hard, hell)",
		"  /room <id> [tier]  — Enter a room",
		"",
		"System:",
		"  /save [name]       — Save progress (default: quicksave)",
		"  /load [name]       — Load progress (default: quicksave)",
		"  /help              — Show this help",
		"  /quit              — Exit",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

// subscribe prints bus events as they happen.
func (c *CLI) subscribe() {
	bus := c.Engine.Bus
	events.On(bus, func(e events.SessionOpened) {
		c.printSystem(fmt.Sprintf("You start talking to %s.", c.displayName(e.CharacterID)))
	})
	events.On(bus, func(e events.SessionEnded) {
		c.printSystem(fmt.Sprintf("You stop talking to %s.", c.displayName(e.CharacterID)))
	})
	events.On(bus, func(e events.NPCThinkingStarted) {
		c.printSystem(fmt.Sprintf("%s is thinking...", c.displayName(e.CharacterID)))
	})
	events.On(bus, func(e events.NPCSubtitle) {
		c.printLine(fmt.Sprintf("%s: %s", e.Name, e.Text))
	})
	events.On(bus, func(e events.MoodChanged) {
		msg := fmt.Sprintf("%s is now %s", e.DisplayName, e.Mood)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		if e.RefuseService {
			msg += " (refusing service)"
		}
		c.printSystem(msg)
	})
	events.On(bus, func(e events.QuestCompleted) {
		title := e.QuestID
		if room, ok := c.Engine.Room(); ok {
			if q, ok := state.Quest(room, e.QuestID); ok && q.Title != "" {
				title = q.Title
			}
		}
		c.printSystem("Quest complete: " + title)
	})
	events.On(bus, func(e events.TierCleared) {
		msg := fmt.Sprintf("Tier %s cleared!", e.Tier)
		if i := quest.TierIndex(e.Tier); i >= 0 && i+1 < len(quest.Tiers) {
			msg += fmt.Sprintf(" %s is now unlocked.", quest.Tiers[i+1])
		}
		c.printSystem(msg)
	})
	events.On(bus, func(events.RecordingStarted) {
		c.printSystem("Microphone on.")
	})
	events.On(bus, func(events.RecordingStopped) {
		c.printSystem("Microphone off.")
	})
}

func (c *CLI) describeRoom() {
	room, ok := c.Engine.Room()
	if !ok {
		return
	}
	title := room.Name
	if room.Subtitle != "" {
		title += " (" + room.Subtitle + ")"
	}
	c.printLine(fmt.Sprintf("== %s — %s ==", title, c.Engine.Tier()))
	if room.Description != "" {
		c.printLine(room.Description)
	}
	c.listCharacters(room)
}

func (c *CLI) listCharacters(room types.RoomDef) {
	for _, ch := range room.Characters {
		line := fmt.Sprintf("  %s  %s", ch.ID, ch.Name)
		if ch.Role != "" {
			line += "  " + ch.Role
		}
		c.printLine(line)
	}
}

// printReplyDetails shows the reading and translation of the last line,
// and corrections when the player's line was unnatural.
func (c *CLI) printReplyDetails() {
	lines := c.Engine.Sessions.Transcript()
	if len(lines) > 0 {
		last := lines[len(lines)-1]
		if last.Reading != "" && last.Reading != last.Text {
			c.printLine("    " + last.Reading)
		}
		if last.Translation != "" {
			c.printLine("    " + last.Translation)
		}
	}
	if fb := c.Engine.Sessions.Feedback(); fb != nil && !fb.IsNatural {
		c.printFeedback(fb)
	}
}

func (c *CLI) printFeedback(fb *types.Feedback) {
	if fb.IsNatural {
		c.printSystem("That sounded natural.")
	} else {
		c.printSystem("That sounded a little unnatural.")
	}
	for _, corr := range fb.Corrections {
		c.printLine("  correction: " + corr)
	}
	if fb.BetterExpression != "" {
		c.printLine("  try: " + fb.BetterExpression)
	}
	for _, v := range fb.NewVocab {
		c.printLine(fmt.Sprintf("  vocab: %s (%s) %s", v.Word, v.Reading, v.Meaning))
	}
}

func (c *CLI) printMessage(m types.Message) {
	switch m.Speaker {
	case types.SpeakerSystem:
		c.printSystem(m.Text)
	default:
		c.printLine(fmt.Sprintf("%s %s: %s", m.Timestamp.Format("15:04"), m.DisplayName, m.Text))
	}
}

// displayName returns the character's name in the current room, or id.
func (c *CLI) displayName(id string) string {
	if room, ok := c.Engine.Room(); ok {
		if ch, ok := state.Character(room, id); ok && ch.Name != "" {
			return ch.Name
		}
	}
	return id
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
