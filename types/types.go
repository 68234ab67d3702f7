// Package types defines the shared data structures for the kaiwa engine.
// It holds data only; behaviour lives in the engine packages.
package types

import "time"

// Speaker IDs that are not character IDs.
const (
	SpeakerPlayer = "player"
	SpeakerSystem = "system"
)

// Mood is a character's emotional classification as judged by the model.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodAnnoyed Mood = "annoyed"
	MoodAngry   Mood = "angry"
	MoodSad     Mood = "sad"
)

// MoodState is the full affect record of one character.
type MoodState struct {
	Mood          Mood `json:"mood"`
	RefuseService bool `json:"refuse_service"`
}

// Tier is a quest difficulty level. Tiers unlock in a fixed order.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierNormal Tier = "normal"
	TierHard   Tier = "hard"
	TierHell   Tier = "hell"
)

// QuestStatus is the ledger status of a single quest.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
)

// Vocab is one vocabulary entry: the word, its reading, and its meaning
// in the learner's language.
type Vocab struct {
	Word    string `json:"word"`
	Reading string `json:"reading"`
	Meaning string `json:"meaning"`
}

// Feedback is the model's assessment of the player's last utterance.
type Feedback struct {
	IsNatural        bool     `json:"isNatural"`
	Corrections      []string `json:"corrections,omitempty"`
	BetterExpression string   `json:"betterExpression,omitempty"`
	NewVocab         []Vocab  `json:"newVocab,omitempty"`
}

// Message is one transcript line. Immutable once appended.
type Message struct {
	ID          string
	Speaker     string // SpeakerPlayer, SpeakerSystem, or a character ID
	DisplayName string
	Text        string
	Reading     string // optional
	Translation string // optional
	Timestamp   time.Time
}

// Point is a tile coordinate in a room grid.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned block of tiles.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// CharacterDef is the base definition of a non-player character.
type CharacterDef struct {
	ID          string
	RoomID      string
	Name        string // display name in the target language
	NameReading string
	Role        string
	Persona     string // personality description sent to the model
	Position    Point
}

// QuestDef is the base definition of a quest.
type QuestDef struct {
	ID                string
	RoomID            string
	Tier              Tier
	TargetCharacterID string
	Title             string
	Description       string
	ClearCondition    string // free text judged by the model
	Hints             []string
	GrammarPoint      string
	RewardVocab       []Vocab
	Order             int // display order within a tier
}

// RoomDef is the base definition of a room.
type RoomDef struct {
	ID          string
	Name        string
	Subtitle    string
	Description string
	Width       int
	Height      int
	Entrance    Point // where the player appears
	Obstacles   []Rect
	Characters  []CharacterDef
	Quests      []QuestDef
}

// GameDef holds game metadata from Lua.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string // starting room ID
	Intro   string
}

// LedgerEntry is the ledger record of one quest.
type LedgerEntry struct {
	Status      QuestStatus `json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
