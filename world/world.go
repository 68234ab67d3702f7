// Package world is the grid scene the player walks around in. It owns the
// player position and proximity detection and talks to the engine only
// through the event bus.
package world

import (
	"math"

	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/types"
)

// InteractDistance is the reach, in tiles, within which a character can be
// talked to.
const InteractDistance = 2.0

// Direction is a movement step.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) delta() types.Point {
	switch d {
	case Up:
		return types.Point{Y: -1}
	case Down:
		return types.Point{Y: 1}
	case Left:
		return types.Point{X: -1}
	case Right:
		return types.Point{X: 1}
	}
	return types.Point{}
}

// Tile classifies one grid cell for rendering.
type Tile int

const (
	Floor Tile = iota
	Wall
	Obstacle
	Door
	Character
	Player
)

// Walkable reports whether p is an interior tile not covered by an obstacle.
// Border tiles are walls.
func Walkable(room types.RoomDef, p types.Point) bool {
	if p.X <= 0 || p.Y <= 0 || p.X >= room.Width-1 || p.Y >= room.Height-1 {
		return false
	}
	for _, o := range room.Obstacles {
		if p.X >= o.X && p.X < o.X+o.W && p.Y >= o.Y && p.Y < o.Y+o.H {
			return false
		}
	}
	return true
}

// Scene is one room with the player in it.
type Scene struct {
	room       types.RoomDef
	bus        *events.Bus
	player     types.Point
	near       string
	conversing string
	subs       []subscription
}

type subscription struct {
	name events.Name
	id   events.SubscriptionID
}

// New places the player at the room's entrance. When bus is non-nil the
// scene follows session events and publishes proximity events on it.
func New(room types.RoomDef, bus *events.Bus) *Scene {
	s := &Scene{room: room, bus: bus, player: room.Entrance}
	if bus != nil {
		s.subs = append(s.subs,
			subscription{events.NameSessionOpened, events.On(bus, func(e events.SessionOpened) {
				s.conversing = e.CharacterID
			})},
			subscription{events.NameSessionEnded, events.On(bus, func(events.SessionEnded) {
				s.conversing = ""
			})},
		)
	}
	return s
}

// Close removes the scene's bus registrations.
func (s *Scene) Close() {
	if s.bus == nil {
		return
	}
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub.name, sub.id)
	}
	s.subs = nil
}

// Room returns the room definition.
func (s *Scene) Room() types.RoomDef { return s.room }

// Player returns the player's tile.
func (s *Scene) Player() types.Point { return s.player }

// Near returns the character in reach after the last Poll, or "".
func (s *Scene) Near() string { return s.near }

// Conversing returns the character the player is talking to, or "".
func (s *Scene) Conversing() string { return s.conversing }

// SetConversing overrides the tracked conversation partner.
func (s *Scene) SetConversing(id string) { s.conversing = id }

// CharacterAt returns the character standing on p.
func (s *Scene) CharacterAt(p types.Point) (types.CharacterDef, bool) {
	for _, c := range s.room.Characters {
		if c.Position == p {
			return c, true
		}
	}
	return types.CharacterDef{}, false
}

// Blocked reports whether the player cannot stand on p.
func (s *Scene) Blocked(p types.Point) bool {
	if !Walkable(s.room, p) {
		return true
	}
	_, occupied := s.CharacterAt(p)
	return occupied
}

// Move steps the player one tile. Returns false if the step is blocked.
func (s *Scene) Move(d Direction) bool {
	delta := d.delta()
	next := types.Point{X: s.player.X + delta.X, Y: s.player.Y + delta.Y}
	if s.Blocked(next) {
		return false
	}
	s.player = next
	return true
}

func distance(a, b types.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// Nearest returns the closest character within InteractDistance. Ties go
// to the character defined first.
func (s *Scene) Nearest() (types.CharacterDef, bool) {
	var best types.CharacterDef
	bestDist := math.Inf(1)
	for _, c := range s.room.Characters {
		d := distance(s.player, c.Position)
		if d <= InteractDistance && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= InteractDistance
}

// InReach reports whether the character is within InteractDistance.
func (s *Scene) InReach(characterID string) bool {
	for _, c := range s.room.Characters {
		if c.ID == characterID {
			return distance(s.player, c.Position) <= InteractDistance
		}
	}
	return false
}

// Poll runs one proximity tick. It publishes PlayerNearCharacter when a
// different character comes into reach, and PlayerLeftCharacter when the
// player is out of reach of the character they are talking to.
func (s *Scene) Poll() {
	near := ""
	if c, ok := s.Nearest(); ok {
		near = c.ID
	}
	if near != s.near {
		s.near = near
		if near != "" {
			s.publish(events.PlayerNearCharacter{CharacterID: near})
		}
	}

	if s.conversing != "" && !s.InReach(s.conversing) {
		left := s.conversing
		s.conversing = ""
		s.publish(events.PlayerLeftCharacter{CharacterID: left})
	}
}

func (s *Scene) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// TileAt classifies p for rendering.
func (s *Scene) TileAt(p types.Point) Tile {
	switch {
	case p == s.player:
		return Player
	case p.Y == s.room.Height-1 && p.X == s.room.Entrance.X:
		return Door
	}
	if _, ok := s.CharacterAt(p); ok {
		return Character
	}
	if p.X <= 0 || p.Y <= 0 || p.X >= s.room.Width-1 || p.Y >= s.room.Height-1 {
		return Wall
	}
	if !Walkable(s.room, p) {
		return Obstacle
	}
	return Floor
}
