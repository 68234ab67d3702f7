package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/types"
	"github.com/nathoo/kaiwa/world"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled defs for referential integrity and
// consistency. pre holds errors already found during compilation.
func validate(defs *state.Defs, pre ...string) error {
	ve := &ValidationError{Errors: append([]string(nil), pre...)}

	// Game title required.
	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}

	// Start room exists.
	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.Start is required")
	} else if _, ok := defs.Rooms[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start room %q not found in defined rooms", defs.Game.Start))
	}

	for _, id := range defs.RoomIDs() {
		validateRoom(defs.Rooms[id], ve)
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateRoom(room types.RoomDef, ve *ValidationError) {
	if room.Width < 3 || room.Height < 3 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"room %q needs width and height of at least 3, got %dx%d", room.ID, room.Width, room.Height))
		return
	}
	if room.Name == "" {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("room %q has no name", room.ID))
	}

	for i, o := range room.Obstacles {
		if o.W <= 0 || o.H <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"room %q obstacle %d has non-positive size", room.ID, i+1))
		}
	}

	if !world.Walkable(room, room.Entrance) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"room %q entrance (%d,%d) is not a walkable tile", room.ID, room.Entrance.X, room.Entrance.Y))
	}

	chars := map[string]bool{}
	occupied := map[types.Point]string{}
	for _, c := range room.Characters {
		chars[c.ID] = true
		if c.Name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("character %q has no name", c.ID))
		}
		if c.Persona == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("character %q has no persona", c.ID))
		}
		if !world.Walkable(room, c.Position) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"character %q position (%d,%d) is outside room %q or inside an obstacle",
				c.ID, c.Position.X, c.Position.Y, room.ID))
		}
		if other, ok := occupied[c.Position]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"characters %q and %q share a tile", other, c.ID))
		}
		occupied[c.Position] = c.ID
		if c.Position == room.Entrance {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"character %q stands on the entrance of room %q", c.ID, room.ID))
		}
	}

	perTier := map[types.Tier]int{}
	for _, q := range room.Quests {
		if !quest.ValidTier(q.Tier) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"quest %q has unknown tier %q", q.ID, q.Tier))
			continue
		}
		perTier[q.Tier]++
		if q.TargetCharacterID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("quest %q has no target", q.ID))
		} else if !chars[q.TargetCharacterID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"quest %q targets %q, which is not a character in room %q",
				q.ID, q.TargetCharacterID, room.ID))
		}
		if q.ClearCondition == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("quest %q has no clear_condition", q.ID))
		}
		if q.Title == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("quest %q has no title", q.ID))
		}
	}

	// Warnings: tiers with nothing to clear block every later tier.
	var empty []string
	for _, t := range quest.Tiers {
		if perTier[t] == 0 {
			empty = append(empty, string(t))
		}
	}
	if len(empty) > 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"room %q has no quests in tier(s) %s", room.ID, strings.Join(empty, ", ")))
	}
}
