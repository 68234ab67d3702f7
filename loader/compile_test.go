package loader

import (
	"testing"

	"github.com/nathoo/kaiwa/types"
	lua "github.com/yuin/gopher-lua"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	coll := &collector{}
	return newSandbox(coll), coll
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			title = "Test Game",
			author = "Author",
			version = "1.0",
			start = "hall",
			intro = "Welcome!"
		}
	`); err != nil {
		t.Fatal(err)
	}

	game := compileGame(L.CheckTable(-1))

	if game.Title != "Test Game" {
		t.Errorf("Title = %q, want %q", game.Title, "Test Game")
	}
	if game.Author != "Author" {
		t.Errorf("Author = %q, want %q", game.Author, "Author")
	}
	if game.Version != "1.0" {
		t.Errorf("Version = %q, want %q", game.Version, "1.0")
	}
	if game.Start != "hall" {
		t.Errorf("Start = %q, want %q", game.Start, "hall")
	}
	if game.Intro != "Welcome!" {
		t.Errorf("Intro = %q, want %q", game.Intro, "Welcome!")
	}
}

func TestCompileRoom(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Room "shop" {
			name = "店",
			subtitle = "Shop",
			description = "A small shop.",
			width = 8, height = 6,
			entrance = At(3, 4),
			obstacles = { Obstacle(1, 1, 2, 1) },
		}
	`); err != nil {
		t.Fatal(err)
	}
	if len(coll.rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(coll.rooms))
	}
	room := compileRoom(coll.rooms[0])

	if room.ID != "shop" || room.Name != "店" || room.Subtitle != "Shop" {
		t.Errorf("room = %+v", room)
	}
	if room.Width != 8 || room.Height != 6 {
		t.Errorf("size = %dx%d", room.Width, room.Height)
	}
	if room.Entrance != (types.Point{X: 3, Y: 4}) {
		t.Errorf("Entrance = %+v", room.Entrance)
	}
	if len(room.Obstacles) != 1 || room.Obstacles[0] != (types.Rect{X: 1, Y: 1, W: 2, H: 1}) {
		t.Errorf("Obstacles = %+v", room.Obstacles)
	}
}

func TestCompileCharacter(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Character "clerk" {
			room = "shop", name = "田中さん", reading = "たなかさん",
			role = "clerk", persona = "Cheerful.", x = 5, y = 2,
		}
	`); err != nil {
		t.Fatal(err)
	}
	c := compileCharacter(coll.characters[0])

	if c.ID != "clerk" || c.RoomID != "shop" {
		t.Errorf("ID/RoomID = %q/%q", c.ID, c.RoomID)
	}
	if c.NameReading != "たなかさん" || c.Role != "clerk" || c.Persona != "Cheerful." {
		t.Errorf("character = %+v", c)
	}
	if c.Position != (types.Point{X: 5, Y: 2}) {
		t.Errorf("Position = %+v", c.Position)
	}
}

func TestCompileQuest(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Quest "q1" {
			room = "shop", tier = "normal", target = "clerk",
			title = "温めて", description = "Heat it.",
			clear_condition = "Asks for heating.",
			hints = { "a", "b", 3 },
			grammar = "〜てください",
			vocab = { Vocab("温める", "あたためる", "to heat") },
			order = 4,
		}
	`); err != nil {
		t.Fatal(err)
	}
	q := compileQuest(coll.quests[0])

	if q.Tier != types.TierNormal || q.TargetCharacterID != "clerk" || q.Order != 4 {
		t.Errorf("quest = %+v", q)
	}
	if q.ClearCondition != "Asks for heating." {
		t.Errorf("ClearCondition = %q", q.ClearCondition)
	}
	// Non-string hints are skipped.
	if len(q.Hints) != 2 {
		t.Errorf("Hints = %v", q.Hints)
	}
	if len(q.RewardVocab) != 1 || q.RewardVocab[0].Meaning != "to heat" {
		t.Errorf("RewardVocab = %+v", q.RewardVocab)
	}
}

func TestCompile_AttachesToRooms(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Game { title = "T", start = "a" }
		Room "a" { width = 5, height = 5 }
		Character "c" { room = "a", name = "C", x = 1, y = 1 }
		Character "lost" { room = "nowhere", name = "L", x = 1, y = 1 }
		Quest "q-hard" { room = "a", tier = "hard", target = "c", clear_condition = "x" }
		Quest "q-easy" { room = "a", tier = "easy", target = "c", clear_condition = "x" }
		Quest "q-odd" { room = "a", tier = "weird", target = "c", clear_condition = "x" }
	`); err != nil {
		t.Fatal(err)
	}
	defs, refErrs, err := compile(coll)
	if err != nil {
		t.Fatal(err)
	}

	room := defs.Rooms["a"]
	if len(room.Characters) != 1 || room.Characters[0].ID != "c" {
		t.Errorf("Characters = %+v", room.Characters)
	}
	assertContains(t, refErrs, `character "lost" references undefined room "nowhere"`)

	// Known tiers in unlock order, unknown tiers last.
	var got []string
	for _, q := range room.Quests {
		got = append(got, q.ID)
	}
	if len(got) != 3 || got[0] != "q-easy" || got[1] != "q-hard" || got[2] != "q-odd" {
		t.Errorf("quest order = %v", got)
	}
}

func TestCompile_NoGame(t *testing.T) {
	_, coll := newTestVM()
	if _, _, err := compile(coll); err == nil {
		t.Fatal("expected error without Game{}")
	}
}

func TestHelpers_Defaults(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`return Obstacle(2, 3)`); err != nil {
		t.Fatal(err)
	}
	o := L.CheckTable(-1)
	if getInt(o, "w") != 1 || getInt(o, "h") != 1 {
		t.Errorf("Obstacle default size = %dx%d", getInt(o, "w"), getInt(o, "h"))
	}

	if err := L.DoString(`return Vocab("水")`); err != nil {
		t.Fatal(err)
	}
	v := L.CheckTable(-1)
	if getString(v, "word") != "水" || getString(v, "meaning") != "" {
		t.Errorf("Vocab = %q/%q", getString(v, "word"), getString(v, "meaning"))
	}

	if err := L.DoString(`Obstacle("x")`); err == nil {
		t.Error("expected Obstacle to reject a non-number")
	}
}
