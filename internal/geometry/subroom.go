package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutsideBuilding is returned when a position lies in no subroom.
var ErrOutsideBuilding = errors.New("position outside building")

// SubroomType classifies a walkable region.
type SubroomType string

const (
	SubroomFloor         SubroomType = "floor"
	SubroomCorridor      SubroomType = "corridor"
	SubroomEntrance      SubroomType = "entrance"
	SubroomLobby         SubroomType = "lobby"
	SubroomStair         SubroomType = "stair"
	SubroomEscalatorUp   SubroomType = "escalator_up"
	SubroomEscalatorDown SubroomType = "escalator_down"
	SubroomOpenArea      SubroomType = "open_area"
	SubroomUnknown       SubroomType = "unknown"
)

// Valid reports whether t is one of the known subroom types.
func (t SubroomType) Valid() bool {
	switch t {
	case SubroomFloor, SubroomCorridor, SubroomEntrance, SubroomLobby, SubroomStair,
		SubroomEscalatorUp, SubroomEscalatorDown, SubroomOpenArea, SubroomUnknown:
		return true
	}
	return false
}

// Query is the geometry/elevation contract consumed by agents.
type Query interface {
	// SubroomAt returns the subroom containing p, or an error wrapping
	// ErrOutsideBuilding.
	SubroomAt(p Vec) (*Subroom, error)
}

// Subroom is an axis-aligned walkable region with a planar elevation profile
// z = A*x + B*y + C.
type Subroom struct {
	RoomID    int         `json:"room_id"`
	SubroomID int         `json:"subroom_id"`
	Type      SubroomType `json:"type"`
	Min       Vec         `json:"min"` // lower-left corner
	Max       Vec         `json:"max"` // upper-right corner
	A         float64     `json:"a"`
	B         float64     `json:"b"`
	C         float64     `json:"c"`
	// EscalatorSpeed is the belt speed in m/s; only meaningful for escalators.
	EscalatorSpeed float64 `json:"escalator_speed,omitempty"`
}

// UniqueID returns the building-wide subroom identifier room*1000 + subroom.
func (s *Subroom) UniqueID() int {
	return UniqueSubroomID(s.RoomID, s.SubroomID)
}

// UniqueSubroomID combines a room and subroom id into one identifier.
func UniqueSubroomID(roomID, subroomID int) int {
	return roomID*1000 + subroomID
}

// Contains reports whether p lies inside or on the border of the subroom.
func (s *Subroom) Contains(p Vec) bool {
	return p[0] >= s.Min[0] && p[0] <= s.Max[0] && p[1] >= s.Min[1] && p[1] <= s.Max[1]
}

// Centroid returns the centre of the subroom rectangle.
func (s *Subroom) Centroid() Vec {
	return s.Min.Add(s.Max).Mul(0.5)
}

// Elevation returns the height of the elevation plane at p.
func (s *Subroom) Elevation(p Vec) float64 {
	return s.A*p[0] + s.B*p[1] + s.C
}

// MinElevation returns the lowest elevation over the subroom.
func (s *Subroom) MinElevation() float64 {
	lowest := math.Inf(1)
	for _, c := range s.corners() {
		lowest = min(lowest, s.Elevation(c))
	}
	return lowest
}

// MaxElevation returns the highest elevation over the subroom.
func (s *Subroom) MaxElevation() float64 {
	highest := math.Inf(-1)
	for _, c := range s.corners() {
		highest = max(highest, s.Elevation(c))
	}
	return highest
}

// CosAngleWithHorizontal returns the cosine of the angle between the elevation
// plane and the horizontal.
func (s *Subroom) CosAngleWithHorizontal() float64 {
	return 1 / math.Sqrt(s.A*s.A+s.B*s.B+1)
}

func (s *Subroom) corners() [4]Vec {
	return [4]Vec{
		s.Min,
		{s.Max[0], s.Min[1]},
		s.Max,
		{s.Min[0], s.Max[1]},
	}
}

func (s *Subroom) validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("subroom %d/%d: unknown type %q", s.RoomID, s.SubroomID, s.Type)
	}
	if s.Max[0] <= s.Min[0] || s.Max[1] <= s.Min[1] {
		return fmt.Errorf("subroom %d/%d: empty extent %v..%v", s.RoomID, s.SubroomID, s.Min, s.Max)
	}
	if s.SubroomID < 0 || s.SubroomID >= 1000 {
		return fmt.Errorf("subroom %d/%d: subroom id must be in [0, 1000)", s.RoomID, s.SubroomID)
	}
	return nil
}
