package kinematics

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/cxd309/ped-engine/internal/geometry"
)

// CollisionFreeSpeedModelName is the JSON discriminator string for the
// collision-free speed model.
const CollisionFreeSpeedModelName = "collision_free_speed"

// CollisionFreeSpeedModel implements Model. The walking direction is the desired
// direction bent by neighbour and wall repulsion; the walking speed is limited by
// the free space ahead divided by the time gap.
//
// Repulsion uses a quadratic taper on the gap s between bodies:
//
//	strength * (1 - s/range)²   for s < range
//	0                           for s ≥ range
//
// which is monotonically decreasing and vanishes at the range.
//
// JSON discriminator: "model": "collision_free_speed"
type CollisionFreeSpeedModel struct {
	StrengthNeighborRepulsion float64 `json:"strength_neighbor_repulsion"`
	RangeNeighborRepulsion    float64 `json:"range_neighbor_repulsion"` // metres
	StrengthGeometryRepulsion float64 `json:"strength_geometry_repulsion"`
	RangeGeometryRepulsion    float64 `json:"range_geometry_repulsion"` // metres
	TimeGap                   float64 `json:"time_gap"`                 // seconds
	V0                        float64 `json:"v0"`                       // default desired speed, m/s
	Radius                    float64 `json:"radius"`                   // default body radius, metres
	Neighborhood              float64 `json:"neighborhood_radius"`      // neighbour lookup radius, metres
	// MaxOvershoot is the fraction by which a velocity may exceed the
	// effective desired speed before it is clamped.
	MaxOvershoot float64 `json:"max_overshoot"`
}

// DefaultCollisionFreeSpeedModel returns the model with its default parameters.
func DefaultCollisionFreeSpeedModel() CollisionFreeSpeedModel {
	return CollisionFreeSpeedModel{
		StrengthNeighborRepulsion: 8.0,
		RangeNeighborRepulsion:    0.1,
		StrengthGeometryRepulsion: 5.0,
		RangeGeometryRepulsion:    0.02,
		TimeGap:                   1,
		V0:                        1.2,
		Radius:                    0.15,
		Neighborhood:              4.0,
		MaxOvershoot:              0,
	}
}

// Validate checks that the parameters describe a usable force law.
func (m CollisionFreeSpeedModel) Validate() error {
	switch {
	case m.StrengthNeighborRepulsion < 0:
		return fmt.Errorf("strength_neighbor_repulsion must be >= 0, got %g", m.StrengthNeighborRepulsion)
	case m.RangeNeighborRepulsion <= 0:
		return fmt.Errorf("range_neighbor_repulsion must be > 0, got %g", m.RangeNeighborRepulsion)
	case m.StrengthGeometryRepulsion < 0:
		return fmt.Errorf("strength_geometry_repulsion must be >= 0, got %g", m.StrengthGeometryRepulsion)
	case m.RangeGeometryRepulsion <= 0:
		return fmt.Errorf("range_geometry_repulsion must be > 0, got %g", m.RangeGeometryRepulsion)
	case m.TimeGap <= 0:
		return fmt.Errorf("time_gap must be > 0, got %g", m.TimeGap)
	case m.V0 < 0:
		return fmt.Errorf("v0 must be >= 0, got %g", m.V0)
	case m.Radius <= 0:
		return fmt.Errorf("radius must be > 0, got %g", m.Radius)
	case m.Neighborhood <= 0:
		return fmt.Errorf("neighborhood_radius must be > 0, got %g", m.Neighborhood)
	case m.MaxOvershoot < 0:
		return fmt.Errorf("max_overshoot must be >= 0, got %g", m.MaxOvershoot)
	}
	return nil
}

func (m CollisionFreeSpeedModel) String() string {
	return fmt.Sprintf("CollisionFreeSpeedModel[strengthNeighborRepulsion=%g, rangeNeighborRepulsion=%g, "+
		"strengthGeometryRepulsion=%g, rangeGeometryRepulsion=%g, timeGap=%g, v0=%g, radius=%g]",
		m.StrengthNeighborRepulsion, m.RangeNeighborRepulsion,
		m.StrengthGeometryRepulsion, m.RangeGeometryRepulsion,
		m.TimeGap, m.V0, m.Radius)
}

func (m CollisionFreeSpeedModel) NeighborhoodRadius() float64 { return m.Neighborhood }

func (m CollisionFreeSpeedModel) GeometryRadius() float64 { return m.RangeGeometryRepulsion }

func (m CollisionFreeSpeedModel) DefaultRadius() float64 { return m.Radius }

func (m CollisionFreeSpeedModel) ComputeUpdate(self State, neighbors []State, walls []geometry.Line, dt float64) Update {
	radius := m.radiusOf(self)

	push := geometry.Vec{}
	for _, n := range neighbors {
		if n.ID == self.ID {
			continue
		}
		push = push.Add(m.neighborRepulsion(self, radius, n))
	}
	for _, w := range walls {
		push = push.Add(m.geometryRepulsion(self.Position, radius, w))
	}

	direction := geometry.Normalized(self.Direction.Add(push))
	if direction.LenSqr() == 0 {
		direction = geometry.Normalized(self.Direction)
	}

	v0 := math.Max(0, self.DesiredSpeed)
	spacing := m.spacing(self, radius, direction, neighbors)
	speed := lo.Clamp(spacing/m.TimeGap, 0, v0)
	velocity := geometry.Limit(direction.Mul(speed), v0*(1+m.MaxOvershoot))

	// A momentarily stationary agent keeps its heading.
	orientation := self.Orientation
	if velocity.Len() > geometry.Eps {
		orientation = geometry.Normalized(velocity)
	}

	return Update{
		Position:    self.Position.Add(velocity.Mul(dt)),
		Orientation: orientation,
		Velocity:    velocity,
	}
}

// Repulsion returns the magnitude of the taper law for a gap s.
func Repulsion(strength, rng, s float64) float64 {
	s = math.Max(0, s)
	if s >= rng {
		return 0
	}
	r := 1 - s/rng
	return strength * r * r
}

func (m CollisionFreeSpeedModel) radiusOf(s State) float64 {
	if s.Radius > 0 {
		return s.Radius
	}
	return m.Radius
}

func (m CollisionFreeSpeedModel) neighborRepulsion(self State, radius float64, other State) geometry.Vec {
	away := self.Position.Sub(other.Position)
	dist := away.Len()
	contact := radius + m.radiusOf(other)
	magnitude := Repulsion(m.StrengthNeighborRepulsion, m.RangeNeighborRepulsion, dist-contact)
	if magnitude == 0 {
		return geometry.Vec{}
	}
	if dist < 1e-12 {
		// Coincident centres: split sideways, lower id to the left.
		side := geometry.Vec{-self.Direction[1], self.Direction[0]}
		if self.ID > other.ID {
			side = side.Mul(-1)
		}
		return geometry.Normalized(side).Mul(magnitude)
	}
	return away.Mul(magnitude / dist)
}

func (m CollisionFreeSpeedModel) geometryRepulsion(pos geometry.Vec, radius float64, wall geometry.Line) geometry.Vec {
	away := pos.Sub(wall.ShortestPoint(pos))
	dist := away.Len()
	magnitude := Repulsion(m.StrengthGeometryRepulsion, m.RangeGeometryRepulsion, dist-radius)
	if magnitude == 0 || dist < 1e-12 {
		return geometry.Vec{}
	}
	return away.Mul(magnitude / dist)
}

// spacing returns the free distance to the closest neighbour in the corridor
// swept by the agent along direction, or +Inf if the corridor is empty.
func (m CollisionFreeSpeedModel) spacing(self State, radius float64, direction geometry.Vec, neighbors []State) float64 {
	free := math.Inf(1)
	for _, n := range neighbors {
		if n.ID == self.ID {
			continue
		}
		rel := n.Position.Sub(self.Position)
		along := rel.Dot(direction)
		if along <= 0 {
			continue
		}
		contact := radius + m.radiusOf(n)
		if math.Abs(geometry.Cross(direction, rel)) > contact {
			continue
		}
		free = math.Min(free, along-contact)
	}
	return free
}
