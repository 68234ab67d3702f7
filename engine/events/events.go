// Package events defines the closed set of events exchanged between the
// engine and the rendering world.
package events

import "github.com/nathoo/kaiwa/types"

// Name identifies an event kind on the bus.
type Name string

// Event catalog.
const (
	NamePlayerSpoke         Name = "player-spoke"
	NameNPCThinkingStarted  Name = "npc-thinking-started"
	NameNPCThinkingEnded    Name = "npc-thinking-ended"
	NameNPCSubtitle         Name = "npc-subtitle"
	NameMoodChanged         Name = "mood-changed"
	NameQuestCompleted      Name = "quest-completed"
	NameSessionOpened       Name = "session-opened"
	NameSessionEnded        Name = "session-ended"
	NameRecordingStarted    Name = "recording-started"
	NameRecordingStopped    Name = "recording-stopped"
	NamePlayerNearCharacter Name = "player-near-character"
	NamePlayerLeftCharacter Name = "player-left-character"
	NameTierCleared         Name = "tier-cleared"
)

// Event is implemented only by the payload types in this package.
type Event interface {
	EventName() Name
	isEvent()
}

// PlayerSpoke carries the raw text of a player utterance.
type PlayerSpoke struct {
	Text string
}

// NPCThinkingStarted is published when a reply has been requested.
type NPCThinkingStarted struct {
	CharacterID string
}

// NPCThinkingEnded is published when a requested reply has resolved,
// whatever the outcome.
type NPCThinkingEnded struct {
	CharacterID string
}

// NPCSubtitle is the character line to show over the scene.
type NPCSubtitle struct {
	Name string
	Text string
}

// MoodChanged is published when a character's mood value changes.
type MoodChanged struct {
	CharacterID   string
	DisplayName   string
	Mood          types.Mood
	Reason        string
	RefuseService bool
}

// QuestCompleted is published when a quest transitions to completed.
type QuestCompleted struct {
	QuestID string
}

// SessionOpened is published when a conversation starts.
type SessionOpened struct {
	CharacterID string
}

// SessionEnded is published when a conversation ends.
type SessionEnded struct {
	CharacterID string
}

// RecordingStarted toggles the world's microphone indicator on.
type RecordingStarted struct{}

// RecordingStopped toggles the world's microphone indicator off.
type RecordingStopped struct{}

// PlayerNearCharacter is published by the world when a character comes
// within interaction range.
type PlayerNearCharacter struct {
	CharacterID string
}

// PlayerLeftCharacter is published by the world when the player walks
// away from the character they were talking to.
type PlayerLeftCharacter struct {
	CharacterID string
}

// TierCleared is published when every quest of the selected tier is completed.
type TierCleared struct {
	RoomID string
	Tier   types.Tier
}

func (PlayerSpoke) EventName() Name         { return NamePlayerSpoke }
func (NPCThinkingStarted) EventName() Name  { return NameNPCThinkingStarted }
func (NPCThinkingEnded) EventName() Name    { return NameNPCThinkingEnded }
func (NPCSubtitle) EventName() Name         { return NameNPCSubtitle }
func (MoodChanged) EventName() Name         { return NameMoodChanged }
func (QuestCompleted) EventName() Name      { return NameQuestCompleted }
func (SessionOpened) EventName() Name       { return NameSessionOpened }
func (SessionEnded) EventName() Name        { return NameSessionEnded }
func (RecordingStarted) EventName() Name    { return NameRecordingStarted }
func (RecordingStopped) EventName() Name    { return NameRecordingStopped }
func (PlayerNearCharacter) EventName() Name { return NamePlayerNearCharacter }
func (PlayerLeftCharacter) EventName() Name { return NamePlayerLeftCharacter }
func (TierCleared) EventName() Name         { return NameTierCleared }

func (PlayerSpoke) isEvent()         {}
func (NPCThinkingStarted) isEvent()  {}
func (NPCThinkingEnded) isEvent()    {}
func (NPCSubtitle) isEvent()         {}
func (MoodChanged) isEvent()         {}
func (QuestCompleted) isEvent()      {}
func (SessionOpened) isEvent()       {}
func (SessionEnded) isEvent()        {}
func (RecordingStarted) isEvent()    {}
func (RecordingStopped) isEvent()    {}
func (PlayerNearCharacter) isEvent() {}
func (PlayerLeftCharacter) isEvent() {}
func (TierCleared) isEvent()         {}
