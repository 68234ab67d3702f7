// Package protocol translates local turn state into the language-model
// request/response contract and back.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nathoo/kaiwa/types"
)

// Failure modes of an exchange. Every error returned by a Client wraps
// exactly one of these.
var (
	ErrTransport = errors.New("transport failure")
	ErrMalformed = errors.New("malformed reply")
)

// DefaultHistoryWindow is the number of prior transcript lines sent as context.
const DefaultHistoryWindow = 10

// History roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Quest is an active quest as the model sees it.
type Quest struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ClearCondition string     `json:"clearCondition"`
	DifficultyTier types.Tier `json:"difficultyTier"`
}

// Turn is one history line.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body posted for one exchange.
type Request struct {
	PlayerMessage    string     `json:"playerMessage"`
	CharacterName    string     `json:"characterName"`
	CharacterRole    string     `json:"characterRole"`
	CharacterPersona string     `json:"characterPersona"`
	RoomName         string     `json:"roomName"`
	CharacterMood    types.Mood `json:"characterMood"`
	RefuseService    bool       `json:"refuseService"`
	ActiveQuests     []Quest    `json:"activeQuests"`
	History          []Turn     `json:"history"`
}

// QuestProgress is the model's verdict on the active quests.
type QuestProgress struct {
	QuestID   *string `json:"questId"`
	Completed bool    `json:"completed"`
	Hint      string  `json:"hint,omitempty"`
}

// MoodChange is the model's classification of the character's new mood.
// Mood is left as a string; callers validate it.
type MoodChange struct {
	Mood          string `json:"mood"`
	Reason        string `json:"reason"`
	RefuseService bool   `json:"refuseService"`
}

// Response is a decoded model reply.
type Response struct {
	Reply         string          `json:"reply"`
	ReplyReading  string          `json:"replyReading"`
	Translation   string          `json:"translation"`
	QuestProgress *QuestProgress  `json:"questProgress"`
	MoodChange    *MoodChange     `json:"moodChange,omitempty"`
	Feedback      *types.Feedback `json:"feedback"`
}

// CompletedQuestID returns the quest the model marked completed, if any.
func (r *Response) CompletedQuestID() (string, bool) {
	if r.QuestProgress == nil || !r.QuestProgress.Completed || r.QuestProgress.QuestID == nil {
		return "", false
	}
	id := *r.QuestProgress.QuestID
	return id, id != ""
}

// Input is everything BuildRequest needs to shape one exchange.
type Input struct {
	Utterance  string
	Character  types.CharacterDef
	RoomName   string
	Mood       types.MoodState
	Quests     []types.QuestDef
	Transcript []types.Message // prior lines, not including Utterance
	Window     int             // 0 means DefaultHistoryWindow
}

// BuildRequest shapes the request for one exchange. History holds the most
// recent Window transcript lines, oldest first; system lines are skipped.
func BuildRequest(in Input) Request {
	window := in.Window
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	quests := make([]Quest, 0, len(in.Quests))
	for _, q := range in.Quests {
		quests = append(quests, Quest{
			ID:             q.ID,
			Title:          q.Title,
			ClearCondition: q.ClearCondition,
			DifficultyTier: q.Tier,
		})
	}

	var history []Turn
	for _, m := range in.Transcript {
		switch m.Speaker {
		case types.SpeakerSystem:
			continue
		case types.SpeakerPlayer:
			history = append(history, Turn{Role: RoleUser, Content: m.Text})
		default:
			history = append(history, Turn{Role: RoleAssistant, Content: m.Text})
		}
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if history == nil {
		history = []Turn{}
	}

	return Request{
		PlayerMessage:    in.Utterance,
		CharacterName:    in.Character.Name,
		CharacterRole:    in.Character.Role,
		CharacterPersona: in.Character.Persona,
		RoomName:         in.RoomName,
		CharacterMood:    in.Mood.Mood,
		RefuseService:    in.Mood.RefuseService,
		ActiveQuests:     quests,
		History:          history,
	}
}

// requiredKeys must be present and non-null in every reply.
var requiredKeys = []string{"reply", "replyReading", "translation", "questProgress", "feedback"}

// Decode parses a reply body. Anything that is not a JSON object carrying
// every required key is ErrMalformed.
func Decode(body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, key := range requiredKeys {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformed, key)
		}
	}

	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Reply == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformed)
	}
	return &r, nil
}
