// Package engine owns the lifecycle of every store and wires the event bus,
// session manager, mood machine, quest ledger, and turn coordinator into a
// single room at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nathoo/kaiwa/engine/dialogue"
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/engine/mood"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/session"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/types"
)

var (
	ErrUnknownRoom      = errors.New("unknown room")
	ErrTierLocked       = errors.New("tier locked")
	ErrUnknownCharacter = errors.New("character not in room")
)

// Options configures an Engine.
type Options struct {
	Logger        *slog.Logger
	Speaker       dialogue.Speaker
	HistoryWindow int
	Clock         func() time.Time
}

// Engine holds the game definitions and every mutable store.
type Engine struct {
	Defs     *state.Defs
	Bus      *events.Bus
	Moods    *mood.Machine
	Ledger   *quest.Ledger
	Sessions *session.Manager
	Dialogue *dialogue.Coordinator

	logger *slog.Logger
	room   string
	tier   types.Tier
}

// New creates an engine from definitions. No room is entered yet.
func New(defs *state.Defs, client protocol.Client, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bus := events.NewBus(logger)
	ledger := quest.NewLedger()
	if opts.Clock != nil {
		ledger.SetClock(opts.Clock)
	}
	e := &Engine{
		Defs:     defs,
		Bus:      bus,
		Moods:    mood.New(bus),
		Ledger:   ledger,
		Sessions: session.NewManager(bus, logger),
		logger:   logger,
	}
	e.Dialogue = dialogue.New(e.Sessions, e.Moods, e.Ledger, bus, client, dialogue.Options{
		Logger:        logger,
		Speaker:       opts.Speaker,
		HistoryWindow: opts.HistoryWindow,
		Now:           opts.Clock,
	})

	events.On(bus, e.onPlayerLeft)
	events.On(bus, e.onQuestCompleted)
	return e
}

// RoomID returns the current room, or "" before EnterRoom.
func (e *Engine) RoomID() string { return e.room }

// Tier returns the current tier.
func (e *Engine) Tier() types.Tier { return e.tier }

// Room returns the current room definition.
func (e *Engine) Room() (types.RoomDef, bool) { return e.Defs.Room(e.room) }

// TierQuests returns the current tier's quests in display order.
func (e *Engine) TierQuests() []types.QuestDef {
	room, ok := e.Room()
	if !ok {
		return nil
	}
	return state.QuestsInTier(room, e.tier)
}

// EnterRoom ends any conversation, resets the tier's quests to active, and
// points the coordinator at the room.
func (e *Engine) EnterRoom(roomID string, tier types.Tier) error {
	if err := e.checkEnter(roomID, tier); err != nil {
		return err
	}
	room, _ := e.Defs.Room(roomID)
	e.Sessions.End()
	e.Ledger.InitTier(state.QuestIDs(state.QuestsInTier(room, tier)))
	e.enter(room, tier)
	return nil
}

// ResumeRoom enters a room without resetting quest statuses.
func (e *Engine) ResumeRoom(roomID string, tier types.Tier) error {
	if err := e.checkEnter(roomID, tier); err != nil {
		return err
	}
	room, _ := e.Defs.Room(roomID)
	e.Sessions.End()
	e.enter(room, tier)
	return nil
}

func (e *Engine) checkEnter(roomID string, tier types.Tier) error {
	if _, ok := e.Defs.Room(roomID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, roomID)
	}
	if !e.Ledger.IsTierUnlocked(roomID, tier) {
		return fmt.Errorf("%w: %s %s", ErrTierLocked, roomID, tier)
	}
	return nil
}

func (e *Engine) enter(room types.RoomDef, tier types.Tier) {
	e.Ledger.SelectTier(tier)
	e.Dialogue.SetScene(room, tier)
	e.room = room.ID
	e.tier = tier
	e.logger.Info("room entered", "room", room.ID, "tier", string(tier))
}

// Talk opens a conversation with a character in the current room.
// It returns false if a conversation is already open.
func (e *Engine) Talk(characterID string) (bool, error) {
	room, ok := e.Room()
	if !ok {
		return false, fmt.Errorf("%w: no room entered", ErrUnknownRoom)
	}
	if _, ok := state.Character(room, characterID); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCharacter, characterID)
	}
	return e.Sessions.Start(characterID), nil
}

// Leave ends the current conversation.
func (e *Engine) Leave() {
	e.Sessions.End()
}

// Submit runs one turn synchronously.
func (e *Engine) Submit(ctx context.Context, text string) (dialogue.Outcome, bool) {
	return e.Dialogue.Submit(ctx, text)
}

// Close ends any conversation and drops every bus registration.
func (e *Engine) Close() {
	e.Sessions.End()
	e.Bus.ClearAll()
}

func (e *Engine) onPlayerLeft(ev events.PlayerLeftCharacter) {
	if e.Sessions.CharacterID() == ev.CharacterID {
		e.Sessions.End()
	}
}

func (e *Engine) onQuestCompleted(events.QuestCompleted) {
	if e.room == "" || e.Ledger.IsTierRecorded(e.room, e.tier) {
		return
	}
	if !e.Ledger.IsTierCleared(state.QuestIDs(e.TierQuests())) {
		return
	}
	e.Ledger.RecordTierCleared(e.room, e.tier)
	e.logger.Info("tier cleared", "room", e.room, "tier", string(e.tier))
	e.Bus.Publish(events.TierCleared{RoomID: e.room, Tier: e.tier})
}
