// Package mood tracks per-character affect. State changes only through an
// explicit classification carried on a model reply; there are no timers
// and no autonomous transitions.
package mood

import (
	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/types"
)

// Default is the state of any character that was never classified.
var Default = types.MoodState{Mood: types.MoodNeutral}

// Cause describes why a mood was set, for the change notification.
type Cause struct {
	DisplayName string
	Reason      string
}

// Machine holds the mood of every character for the life of the process.
type Machine struct {
	states map[string]types.MoodState
	bus    *events.Bus
}

// New creates a machine publishing change notifications on bus.
// bus may be nil.
func New(bus *events.Bus) *Machine {
	return &Machine{
		states: map[string]types.MoodState{},
		bus:    bus,
	}
}

// ParseMood validates a model-supplied mood string.
func ParseMood(s string) (types.Mood, bool) {
	switch m := types.Mood(s); m {
	case types.MoodHappy, types.MoodNeutral, types.MoodAnnoyed, types.MoodAngry, types.MoodSad:
		return m, true
	default:
		return "", false
	}
}

// Get returns the stored state of a character, or Default.
func (m *Machine) Get(characterID string) types.MoodState {
	if s, ok := m.states[characterID]; ok {
		return s
	}
	return Default
}

// Set replaces the character's state wholesale. A MoodChanged event is
// published only when the mood value differs from the previous one.
// Returns true if the mood value changed.
func (m *Machine) Set(characterID string, next types.MoodState, cause Cause) bool {
	prev := m.Get(characterID)
	m.states[characterID] = next
	if prev.Mood == next.Mood {
		return false
	}
	if m.bus != nil {
		m.bus.Publish(events.MoodChanged{
			CharacterID:   characterID,
			DisplayName:   cause.DisplayName,
			Mood:          next.Mood,
			Reason:        cause.Reason,
			RefuseService: next.RefuseService,
		})
	}
	return true
}

// Reset forgets one character's state.
func (m *Machine) Reset(characterID string) {
	delete(m.states, characterID)
}

// ResetAll forgets every character's state.
func (m *Machine) ResetAll() {
	m.states = map[string]types.MoodState{}
}

// Snapshot returns a copy of all stored states.
func (m *Machine) Snapshot() map[string]types.MoodState {
	out := make(map[string]types.MoodState, len(m.states))
	for id, s := range m.states {
		out[id] = s
	}
	return out
}

// Restore replaces all stored states without publishing.
func (m *Machine) Restore(states map[string]types.MoodState) {
	m.states = make(map[string]types.MoodState, len(states))
	for id, s := range states {
		m.states[id] = s
	}
}
