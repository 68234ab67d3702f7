// Package state holds the immutable content definitions and the lookups
// the engine runs against them.
package state

import (
	"sort"

	"github.com/nathoo/kaiwa/types"
)

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game  types.GameDef
	Rooms map[string]types.RoomDef
}

// Room returns the room definition for id.
func (d *Defs) Room(id string) (types.RoomDef, bool) {
	r, ok := d.Rooms[id]
	return r, ok
}

// RoomIDs returns every room ID, sorted.
func (d *Defs) RoomIDs() []string {
	ids := make([]string, 0, len(d.Rooms))
	for id := range d.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Character returns the definition of a character placed in room.
func Character(room types.RoomDef, id string) (types.CharacterDef, bool) {
	for _, c := range room.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return types.CharacterDef{}, false
}

// QuestsInTier returns the room's quests for tier, in display order.
func QuestsInTier(room types.RoomDef, tier types.Tier) []types.QuestDef {
	var out []types.QuestDef
	for _, q := range room.Quests {
		if q.Tier == tier {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// QuestIDs returns the IDs of quests, preserving order.
func QuestIDs(quests []types.QuestDef) []string {
	ids := make([]string, len(quests))
	for i, q := range quests {
		ids[i] = q.ID
	}
	return ids
}

// Quest returns the quest definition for id within room.
func Quest(room types.RoomDef, id string) (types.QuestDef, bool) {
	for _, q := range room.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return types.QuestDef{}, false
}
