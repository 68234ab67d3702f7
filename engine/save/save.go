// Package save implements JSON serialization and deserialization of
// learner progress.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/types"
)

// FormatVersion is written into every save.
const FormatVersion = 1

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format       int                          `json:"format"`
	Version      string                       `json:"version"`
	Game         string                       `json:"game"`
	Room         string                       `json:"room"`
	Tier         types.Tier                   `json:"tier"`
	Ledger       map[string]types.LedgerEntry `json:"ledger"`
	ClearedTiers []string                     `json:"cleared_tiers"`
	Moods        map[string]types.MoodState   `json:"moods"`
}

// Capture copies the engine's progress into a SaveData.
func Capture(e *engine.Engine) *SaveData {
	return &SaveData{
		Format:       FormatVersion,
		Version:      e.Defs.Game.Version,
		Game:         e.Defs.Game.Title,
		Room:         e.RoomID(),
		Tier:         e.Tier(),
		Ledger:       e.Ledger.Snapshot(),
		ClearedTiers: e.Ledger.ClearedTiers(),
		Moods:        e.Moods.Snapshot(),
	}
}

// Save serializes the engine's progress to JSON bytes.
func Save(e *engine.Engine) ([]byte, error) {
	return json.MarshalIndent(Capture(e), "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure maps are never nil after load.
	if sd.Ledger == nil {
		sd.Ledger = map[string]types.LedgerEntry{}
	}
	if sd.Moods == nil {
		sd.Moods = map[string]types.MoodState{}
	}
	if sd.ClearedTiers == nil {
		sd.ClearedTiers = []string{}
	}
	return &sd, nil
}

// Apply restores progress onto e and re-enters the saved room without
// resetting the restored quest statuses. Any open conversation ends. When
// the saved room cannot be entered, e is left exactly as it was.
func Apply(e *engine.Engine, sd *SaveData) error {
	if sd.Game != "" && sd.Game != e.Defs.Game.Title {
		return fmt.Errorf("save is for %q, not %q", sd.Game, e.Defs.Game.Title)
	}

	// The unlock check runs against the restored cleared set, so keep the
	// live progress until the room is entered.
	ledger, cleared := e.Ledger.Snapshot(), e.Ledger.ClearedTiers()
	moods := e.Moods.Snapshot()

	e.Ledger.Restore(sd.Ledger, sd.ClearedTiers)
	e.Moods.Restore(sd.Moods)
	if sd.Room == "" {
		e.Leave()
		return nil
	}
	if err := e.ResumeRoom(sd.Room, sd.Tier); err != nil {
		e.Ledger.Restore(ledger, cleared)
		e.Moods.Restore(moods)
		return fmt.Errorf("restore %s/%s: %w", sd.Room, sd.Tier, err)
	}
	return nil
}
