package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/types"
)

// validDefs returns a minimal valid Defs for testing.
func validDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title: "Test",
			Start: "shop",
		},
		Rooms: map[string]types.RoomDef{
			"shop": {
				ID:       "shop",
				Name:     "Shop",
				Width:    8,
				Height:   6,
				Entrance: types.Point{X: 4, Y: 4},
				Characters: []types.CharacterDef{
					{ID: "clerk", RoomID: "shop", Name: "Clerk", Persona: "Kind.", Position: types.Point{X: 6, Y: 1}},
				},
				Quests: []types.QuestDef{
					{ID: "q1", RoomID: "shop", Tier: types.TierEasy, TargetCharacterID: "clerk", Title: "Buy", ClearCondition: "Buys."},
				},
			},
		},
	}
}

// mutateRoom applies fn to the shop room of defs.
func mutateRoom(defs *state.Defs, fn func(*types.RoomDef)) {
	room := defs.Rooms["shop"]
	fn(&room)
	defs.Rooms["shop"] = room
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve
}

func TestValidate_ValidDefs(t *testing.T) {
	if err := validate(validDefs()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_MissingStartRoom(t *testing.T) {
	defs := validDefs()
	defs.Game.Start = "nonexistent"

	ve := validationErr(t, validate(defs))
	assertContains(t, ve.Errors, "nonexistent")
}

func TestValidate_EmptyTitle(t *testing.T) {
	defs := validDefs()
	defs.Game.Title = ""

	ve := validationErr(t, validate(defs))
	assertContains(t, ve.Errors, "Title")
}

func TestValidate_PreErrorsReported(t *testing.T) {
	ve := validationErr(t, validate(validDefs(), `duplicate quest ID "q1"`))
	assertContains(t, ve.Errors, "duplicate quest ID")
}

func TestValidate_RoomErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.RoomDef)
		want   string
	}{
		{"too small", func(r *types.RoomDef) { r.Width = 2 }, "at least 3"},
		{"empty obstacle", func(r *types.RoomDef) {
			r.Obstacles = []types.Rect{{X: 2, Y: 2, W: 0, H: 1}}
		}, "non-positive size"},
		{"entrance in wall", func(r *types.RoomDef) {
			r.Entrance = types.Point{X: 4, Y: 5}
		}, "entrance"},
		{"entrance under obstacle", func(r *types.RoomDef) {
			r.Obstacles = []types.Rect{{X: 3, Y: 3, W: 2, H: 2}}
		}, "entrance"},
		{"nameless character", func(r *types.RoomDef) {
			r.Characters[0].Name = ""
		}, "has no name"},
		{"character in wall", func(r *types.RoomDef) {
			r.Characters[0].Position = types.Point{X: 0, Y: 1}
		}, "inside an obstacle"},
		{"character on entrance", func(r *types.RoomDef) {
			r.Characters[0].Position = r.Entrance
		}, "stands on the entrance"},
		{"shared tile", func(r *types.RoomDef) {
			c := r.Characters[0]
			c.ID = "twin"
			r.Characters = append(r.Characters, c)
		}, "share a tile"},
		{"unknown tier", func(r *types.RoomDef) {
			r.Quests[0].Tier = "nightmare"
		}, "unknown tier"},
		{"no target", func(r *types.RoomDef) {
			r.Quests[0].TargetCharacterID = ""
		}, "has no target"},
		{"dangling target", func(r *types.RoomDef) {
			r.Quests[0].TargetCharacterID = "ghost"
		}, "not a character in room"},
		{"no clear condition", func(r *types.RoomDef) {
			r.Quests[0].ClearCondition = ""
		}, "no clear_condition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := validDefs()
			mutateRoom(defs, tt.mutate)
			ve := validationErr(t, validate(defs))
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	defs := validDefs()
	mutateRoom(defs, func(r *types.RoomDef) {
		r.Name = ""
		r.Characters = []types.CharacterDef{{ID: "clerk", Name: "Clerk", Position: types.Point{X: 6, Y: 1}}}
		r.Quests = []types.QuestDef{{ID: "q1", Tier: types.TierEasy, TargetCharacterID: "clerk", ClearCondition: "c"}}
	})

	// Warnings alone never fail validation.
	if err := validate(defs); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	ve := &ValidationError{}
	validateRoom(defs.Rooms["shop"], ve)
	assertContains(t, ve.Warnings, "has no name")
	assertContains(t, ve.Warnings, "has no persona")
	assertContains(t, ve.Warnings, "has no title")
	assertContains(t, ve.Warnings, "normal, hard, hell")
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"first", "second"}}
	msg := ve.Error()
	if !strings.Contains(msg, "2 error(s)") || !strings.Contains(msg, "second") {
		t.Errorf("Error() = %q", msg)
	}
}

// assertContains checks that at least one string in the slice contains substr.
func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
