// Package dialogue coordinates one player-utterance to model-reply turn
// across the session, mood, and quest stores.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/engine/mood"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/session"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/types"
)

// Display names for lines not spoken by a character.
const (
	PlayerDisplayName = "あなた"
	SystemDisplayName = "System"
)

// FailureText is appended to the transcript when a reply cannot be obtained.
const FailureText = "The reply could not be retrieved. Please try again."

// Speaker reads a character line aloud.
type Speaker interface {
	Speak(text string)
}

// Outcome reports how a turn resolved.
type Outcome int

const (
	// Replied means the reply was applied.
	Replied Outcome = iota
	// Failed means the exchange failed and a system line was appended.
	Failed
	// Dropped means the session ended before the reply arrived.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Replied:
		return "replied"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Turn is an in-flight exchange. It is immutable after Begin.
type Turn struct {
	Token     string
	Character types.CharacterDef
	Request   protocol.Request
	ctx       context.Context
}

// Options configures a Coordinator.
type Options struct {
	Logger        *slog.Logger
	Speaker       Speaker // optional
	HistoryWindow int     // 0 means protocol.DefaultHistoryWindow
	Now           func() time.Time
}

// Coordinator runs turns for the active session in the current scene.
type Coordinator struct {
	sessions *session.Manager
	moods    *mood.Machine
	ledger   *quest.Ledger
	bus      *events.Bus
	client   protocol.Client
	speaker  Speaker
	logger   *slog.Logger
	window   int
	now      func() time.Time

	room types.RoomDef
	tier types.Tier
}

// New creates a coordinator over the given stores.
func New(sessions *session.Manager, moods *mood.Machine, ledger *quest.Ledger,
	bus *events.Bus, client protocol.Client, opts Options) *Coordinator {
	c := &Coordinator{
		sessions: sessions,
		moods:    moods,
		ledger:   ledger,
		bus:      bus,
		client:   client,
		speaker:  opts.Speaker,
		logger:   opts.Logger,
		window:   opts.HistoryWindow,
		now:      opts.Now,
		tier:     quest.Tiers[0],
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// SetScene points the coordinator at a room and its selected tier.
func (c *Coordinator) SetScene(room types.RoomDef, tier types.Tier) {
	c.room = room
	c.tier = tier
}

// Room returns the current room definition.
func (c *Coordinator) Room() types.RoomDef { return c.room }

// Tier returns the current tier.
func (c *Coordinator) Tier() types.Tier { return c.tier }

// ActiveQuests returns the current tier's quests targeting characterID
// that are not yet completed, in display order.
func (c *Coordinator) ActiveQuests(characterID string) []types.QuestDef {
	var out []types.QuestDef
	for _, q := range state.QuestsInTier(c.room, c.tier) {
		if q.TargetCharacterID != characterID {
			continue
		}
		if s, _ := c.ledger.Status(q.ID); s == types.QuestCompleted {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (c *Coordinator) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func (c *Coordinator) message(speaker, name, text string) types.Message {
	return types.Message{
		ID:          uuid.NewString(),
		Speaker:     speaker,
		DisplayName: name,
		Text:        text,
		Timestamp:   c.now(),
	}
}

// Begin records the player utterance and marks a reply as outstanding.
// It returns false without side effects when the text is blank, no session
// is active, or a reply is already outstanding.
func (c *Coordinator) Begin(raw string) (*Turn, bool) {
	text := strings.TrimSpace(raw)
	if text == "" || !c.sessions.IsActive() || c.sessions.AwaitingReply() {
		c.logger.Debug("submit ignored",
			"blank", text == "",
			"active", c.sessions.IsActive(),
			"awaiting", c.sessions.AwaitingReply())
		return nil, false
	}

	charID := c.sessions.CharacterID()
	char, ok := state.Character(c.room, charID)
	if !ok {
		c.logger.Warn("session character not in room", "character", charID, "room", c.room.ID)
		return nil, false
	}
	token := c.sessions.Token()
	prior := c.sessions.Transcript()

	// 1. Player line.
	c.sessions.Append(token, c.message(types.SpeakerPlayer, PlayerDisplayName, text))
	c.publish(events.PlayerSpoke{Text: raw})

	// 2. Shape the request from the state at this instant.
	req := protocol.BuildRequest(protocol.Input{
		Utterance:  text,
		Character:  char,
		RoomName:   c.room.Name,
		Mood:       c.moods.Get(charID),
		Quests:     c.ActiveQuests(charID),
		Transcript: prior,
		Window:     c.window,
	})

	// 3. Outstanding reply.
	c.sessions.SetAwaiting(token, true)
	c.publish(events.NPCThinkingStarted{CharacterID: charID})

	return &Turn{
		Token:     token,
		Character: char,
		Request:   req,
		ctx:       c.sessions.Context(),
	}, true
}

// Exchange performs the model call for turn. It reads no engine state and
// may run off the game loop. The call is cancelled when ctx is done or the
// turn's session ends.
func (c *Coordinator) Exchange(ctx context.Context, turn *Turn) (*protocol.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if turn.ctx != nil {
		stop := context.AfterFunc(turn.ctx, cancel)
		defer stop()
	}
	return c.client.Exchange(ctx, turn.Request)
}

// Finish applies the result of Exchange. A result for a session that has
// since ended is dropped without touching any store.
func (c *Coordinator) Finish(turn *Turn, resp *protocol.Response, err error) Outcome {
	charID := turn.Character.ID
	defer c.publish(events.NPCThinkingEnded{CharacterID: charID})

	if !c.sessions.Valid(turn.Token) {
		c.logger.Info("stale reply dropped", "character", charID)
		return Dropped
	}
	defer c.sessions.SetAwaiting(turn.Token, false)

	if err == nil && resp == nil {
		err = protocol.ErrMalformed
	}
	if err != nil {
		c.logger.Warn("exchange failed",
			"character", charID,
			"transport", errors.Is(err, protocol.ErrTransport),
			"error", err)
		c.sessions.Append(turn.Token, c.message(types.SpeakerSystem, SystemDisplayName, FailureText))
		return Failed
	}

	c.applyReply(turn, resp)
	return Replied
}

func (c *Coordinator) applyReply(turn *Turn, resp *protocol.Response) {
	char := turn.Character

	// 1. Character line and subtitle.
	line := c.message(char.ID, char.Name, resp.Reply)
	line.Reading = resp.ReplyReading
	line.Translation = resp.Translation
	c.sessions.Append(turn.Token, line)
	c.publish(events.NPCSubtitle{Name: char.Name, Text: resp.Reply})

	// 2. Mood verdict.
	if mc := resp.MoodChange; mc != nil {
		if m, ok := mood.ParseMood(mc.Mood); ok {
			c.moods.Set(char.ID,
				types.MoodState{Mood: m, RefuseService: mc.RefuseService},
				mood.Cause{DisplayName: char.Name, Reason: mc.Reason})
		} else {
			c.logger.Warn("unknown mood ignored", "character", char.ID, "mood", mc.Mood)
		}
	}

	// 3. Speech.
	if c.speaker != nil {
		c.speaker.Speak(resp.Reply)
	}

	// 4. Quest verdict.
	if id, ok := resp.CompletedQuestID(); ok {
		if c.ledger.Complete(id) {
			c.logger.Info("quest completed", "quest", id, "character", char.ID)
			c.publish(events.QuestCompleted{QuestID: id})
		} else if _, known := c.ledger.Status(id); !known {
			c.logger.Warn("completion for unknown quest ignored", "quest", id)
		}
	}

	// 5. Feedback.
	c.sessions.SetFeedback(turn.Token, resp.Feedback)
}

// Submit runs a whole turn synchronously. It returns false when the turn
// was not started.
func (c *Coordinator) Submit(ctx context.Context, text string) (Outcome, bool) {
	turn, ok := c.Begin(text)
	if !ok {
		return 0, false
	}
	resp, err := c.Exchange(ctx, turn)
	return c.Finish(turn, resp, err), true
}
