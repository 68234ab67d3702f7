package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerHelpers(L)
}

// curried returns a constructor used as `Name "id" { ... }`.
func curried(L *lua.LState, add func(rawDef)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			add(rawDef{id: id, table: tbl})
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Room "id" { name = "...", width = 16, height = 12, obstacles = {...} }
	L.SetGlobal("Room", curried(L, func(d rawDef) { coll.rooms = append(coll.rooms, d) }))

	// Character "id" { room = "...", name = "...", x = 1, y = 2, ... }
	L.SetGlobal("Character", curried(L, func(d rawDef) { coll.characters = append(coll.characters, d) }))

	// Quest "id" { room = "...", tier = "easy", target = "...", ... }
	L.SetGlobal("Quest", curried(L, func(d rawDef) { coll.quests = append(coll.quests, d) }))
}

func registerHelpers(L *lua.LState) {
	// Vocab("word", "reading", "meaning")
	L.SetGlobal("Vocab", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("word", lua.LString(L.CheckString(1)))
		tbl.RawSetString("reading", lua.LString(L.OptString(2, "")))
		tbl.RawSetString("meaning", lua.LString(L.OptString(3, "")))
		L.Push(tbl)
		return 1
	}))

	// Obstacle(x, y, w, h)
	L.SetGlobal("Obstacle", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("x", L.CheckNumber(1))
		tbl.RawSetString("y", L.CheckNumber(2))
		tbl.RawSetString("w", lua.LNumber(L.OptInt(3, 1)))
		tbl.RawSetString("h", lua.LNumber(L.OptInt(4, 1)))
		L.Push(tbl)
		return 1
	}))

	// At(x, y)
	L.SetGlobal("At", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("x", L.CheckNumber(1))
		tbl.RawSetString("y", L.CheckNumber(2))
		L.Push(tbl)
		return 1
	}))
}
