// Package loader loads Lua room content into Go structs at startup.
// The Lua VM is discarded after loading; no Lua runs during play.
package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a constructor table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// arrayTables returns the table elements of a Lua array, in order.
func arrayTables(tbl *lua.LTable) []*lua.LTable {
	if tbl == nil {
		return nil
	}
	var out []*lua.LTable
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, t)
		}
	}
	return out
}

// stringList converts a Lua array of strings to a slice.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct. Characters
// and quests are attached to their rooms. Definitions naming a room that
// does not exist, and duplicate IDs, are dropped and returned as errors
// for validate to report alongside its own.
func compile(coll *collector) (*state.Defs, []string, error) {
	if coll.game == nil {
		return nil, nil, fmt.Errorf("no Game{} definition found")
	}
	var refErrs []string
	defs := &state.Defs{
		Game:  compileGame(coll.game),
		Rooms: map[string]types.RoomDef{},
	}

	for _, raw := range coll.rooms {
		if _, dup := defs.Rooms[raw.id]; dup {
			refErrs = append(refErrs, fmt.Sprintf("duplicate room ID %q", raw.id))
			continue
		}
		defs.Rooms[raw.id] = compileRoom(raw)
	}

	seen := map[string]bool{}
	for _, raw := range coll.characters {
		if seen[raw.id] {
			refErrs = append(refErrs, fmt.Sprintf("duplicate character ID %q", raw.id))
			continue
		}
		seen[raw.id] = true
		c := compileCharacter(raw)
		room, ok := defs.Rooms[c.RoomID]
		if !ok {
			refErrs = append(refErrs, fmt.Sprintf("character %q references undefined room %q", c.ID, c.RoomID))
			continue
		}
		room.Characters = append(room.Characters, c)
		defs.Rooms[c.RoomID] = room
	}

	seen = map[string]bool{}
	for _, raw := range coll.quests {
		if seen[raw.id] {
			refErrs = append(refErrs, fmt.Sprintf("duplicate quest ID %q", raw.id))
			continue
		}
		seen[raw.id] = true
		q := compileQuest(raw)
		room, ok := defs.Rooms[q.RoomID]
		if !ok {
			refErrs = append(refErrs, fmt.Sprintf("quest %q references undefined room %q", q.ID, q.RoomID))
			continue
		}
		room.Quests = append(room.Quests, q)
		defs.Rooms[q.RoomID] = room
	}

	for id, room := range defs.Rooms {
		sort.SliceStable(room.Quests, func(i, j int) bool {
			if room.Quests[i].Tier != room.Quests[j].Tier {
				return tierRank(room.Quests[i].Tier) < tierRank(room.Quests[j].Tier)
			}
			return room.Quests[i].Order < room.Quests[j].Order
		})
		defs.Rooms[id] = room
	}

	return defs, refErrs, nil
}

// tierRank orders unknown tiers last.
func tierRank(t types.Tier) int {
	if i := quest.TierIndex(t); i >= 0 {
		return i
	}
	return len(quest.Tiers)
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileRoom(raw rawDef) types.RoomDef {
	tbl := raw.table
	room := types.RoomDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Subtitle:    getString(tbl, "subtitle"),
		Description: getString(tbl, "description"),
		Width:       getInt(tbl, "width"),
		Height:      getInt(tbl, "height"),
	}
	for _, o := range arrayTables(getTable(tbl, "obstacles")) {
		room.Obstacles = append(room.Obstacles, types.Rect{
			X: getInt(o, "x"), Y: getInt(o, "y"),
			W: getInt(o, "w"), H: getInt(o, "h"),
		})
	}
	// Default entrance: bottom row, centre.
	if e := getTable(tbl, "entrance"); e != nil {
		room.Entrance = types.Point{X: getInt(e, "x"), Y: getInt(e, "y")}
	} else {
		room.Entrance = types.Point{X: room.Width / 2, Y: room.Height - 2}
	}
	return room
}

func compileCharacter(raw rawDef) types.CharacterDef {
	tbl := raw.table
	return types.CharacterDef{
		ID:          raw.id,
		RoomID:      getString(tbl, "room"),
		Name:        getString(tbl, "name"),
		NameReading: getString(tbl, "reading"),
		Role:        getString(tbl, "role"),
		Persona:     getString(tbl, "persona"),
		Position:    types.Point{X: getInt(tbl, "x"), Y: getInt(tbl, "y")},
	}
}

func compileQuest(raw rawDef) types.QuestDef {
	tbl := raw.table
	q := types.QuestDef{
		ID:                raw.id,
		RoomID:            getString(tbl, "room"),
		Tier:              types.Tier(getString(tbl, "tier")),
		TargetCharacterID: getString(tbl, "target"),
		Title:             getString(tbl, "title"),
		Description:       getString(tbl, "description"),
		ClearCondition:    getString(tbl, "clear_condition"),
		Hints:             stringList(getTable(tbl, "hints")),
		GrammarPoint:      getString(tbl, "grammar"),
		Order:             getInt(tbl, "order"),
	}
	for _, v := range arrayTables(getTable(tbl, "vocab")) {
		q.RewardVocab = append(q.RewardVocab, types.Vocab{
			Word:    getString(v, "word"),
			Reading: getString(v, "reading"),
			Meaning: getString(v, "meaning"),
		})
	}
	return q
}
