// Package session manages the single active conversation between the
// player and one character.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/types"
)

type conversation struct {
	characterID string
	token       string
	ctx         context.Context
	cancel      context.CancelFunc
	transcript  []types.Message
	awaiting    bool
	recording   bool
	feedback    *types.Feedback
}

// Manager holds at most one active conversation. Transcript and feedback
// of the last conversation stay readable after End until the next Start.
type Manager struct {
	bus    *events.Bus
	logger *slog.Logger
	cur    *conversation
	last   []types.Message
	lastFb *types.Feedback
}

// NewManager creates an idle manager. A nil logger falls back to slog.Default().
func NewManager(bus *events.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{bus: bus, logger: logger}
}

func (m *Manager) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

// Start opens a conversation with characterID. A second Start while a
// conversation is active is ignored and returns false.
func (m *Manager) Start(characterID string) bool {
	if m.cur != nil {
		m.logger.Debug("session start ignored", "active", m.cur.characterID, "requested", characterID)
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cur = &conversation{
		characterID: characterID,
		token:       uuid.NewString(),
		ctx:         ctx,
		cancel:      cancel,
	}
	m.last = nil
	m.lastFb = nil
	m.logger.Info("session opened", "character", characterID)
	m.publish(events.SessionOpened{CharacterID: characterID})
	return true
}

// End closes the active conversation and cancels its pending exchange.
// Calling End while idle does nothing.
func (m *Manager) End() {
	c := m.cur
	if c == nil {
		return
	}
	m.cur = nil
	c.cancel()
	m.last = c.transcript
	m.lastFb = c.feedback
	if c.recording {
		m.publish(events.RecordingStopped{})
	}
	m.logger.Info("session ended", "character", c.characterID, "messages", len(c.transcript))
	m.publish(events.SessionEnded{CharacterID: c.characterID})
}

// SetRecording toggles the microphone flag of the active conversation.
// Returns true if the flag changed.
func (m *Manager) SetRecording(on bool) bool {
	if m.cur == nil || m.cur.recording == on {
		return false
	}
	m.cur.recording = on
	if on {
		m.publish(events.RecordingStarted{})
	} else {
		m.publish(events.RecordingStopped{})
	}
	return true
}

// IsActive reports whether a conversation is open.
func (m *Manager) IsActive() bool { return m.cur != nil }

// CharacterID returns the active character, or "".
func (m *Manager) CharacterID() string {
	if m.cur == nil {
		return ""
	}
	return m.cur.characterID
}

// Token returns the active conversation's token, or "".
func (m *Manager) Token() string {
	if m.cur == nil {
		return ""
	}
	return m.cur.token
}

// Context returns a context cancelled when the active conversation ends.
// While idle it returns an already cancelled context.
func (m *Manager) Context() context.Context {
	if m.cur == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return m.cur.ctx
}

// Valid reports whether token names the active conversation.
func (m *Manager) Valid(token string) bool {
	return m.cur != nil && token != "" && m.cur.token == token
}

// AwaitingReply reports whether a reply is outstanding.
func (m *Manager) AwaitingReply() bool {
	return m.cur != nil && m.cur.awaiting
}

// Recording reports whether the microphone flag is on.
func (m *Manager) Recording() bool {
	return m.cur != nil && m.cur.recording
}

// Transcript returns a copy of the active (or last ended) transcript.
func (m *Manager) Transcript() []types.Message {
	src := m.last
	if m.cur != nil {
		src = m.cur.transcript
	}
	out := make([]types.Message, len(src))
	copy(out, src)
	return out
}

// Feedback returns the latest feedback of the active (or last ended)
// conversation, or nil.
func (m *Manager) Feedback() *types.Feedback {
	if m.cur != nil {
		return m.cur.feedback
	}
	return m.lastFb
}

// Append adds msg to the transcript of the conversation named by token.
func (m *Manager) Append(token string, msg types.Message) bool {
	if !m.Valid(token) {
		return false
	}
	m.cur.transcript = append(m.cur.transcript, msg)
	return true
}

// SetAwaiting sets the outstanding-reply flag of the conversation named by token.
func (m *Manager) SetAwaiting(token string, on bool) bool {
	if !m.Valid(token) {
		return false
	}
	m.cur.awaiting = on
	return true
}

// SetFeedback stores fb on the conversation named by token.
func (m *Manager) SetFeedback(token string, fb *types.Feedback) bool {
	if !m.Valid(token) {
		return false
	}
	m.cur.feedback = fb
	return true
}
