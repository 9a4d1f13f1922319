package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/ped-engine/internal/geometry"
)

func walker(id int, pos geometry.Vec) State {
	return State{
		ID:           id,
		Position:     pos,
		Orientation:  geometry.Vec{1, 0},
		Direction:    geometry.Vec{1, 0},
		DesiredSpeed: 1.2,
	}
}

func TestFreeWalk(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	u := m.ComputeUpdate(walker(1, geometry.Vec{0, 0}), nil, nil, 0.1)

	assert.InDelta(t, 1.2, u.Velocity.Len(), 1e-9)
	assert.InDelta(t, 0.12, u.Position[0], 1e-9)
	assert.InDelta(t, 0, u.Position[1], 1e-9)
	assert.InDelta(t, 1, u.Orientation[0], 1e-9)
}

func TestNeighborAheadSlowsDown(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0})
	ahead := walker(2, geometry.Vec{0.8, 0})

	u := m.ComputeUpdate(self, []State{ahead}, nil, 0.1)
	// spacing 0.8 - 0.3 = 0.5 over a time gap of 1 s
	assert.InDelta(t, 0.5, u.Velocity.Len(), 1e-9)

	behind := walker(3, geometry.Vec{-0.8, 0})
	u = m.ComputeUpdate(self, []State{behind}, nil, 0.1)
	assert.InDelta(t, 1.2, u.Velocity.Len(), 1e-9)
}

func TestIgnoresSelfInNeighbors(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0})
	u := m.ComputeUpdate(self, []State{self}, nil, 0.1)
	assert.InDelta(t, 1.2, u.Velocity.Len(), 1e-9)
}

func TestStationaryKeepsOrientation(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0})
	self.Orientation = geometry.Vec{0, 1}
	self.DesiredSpeed = 0

	u := m.ComputeUpdate(self, nil, nil, 0.1)
	assert.Equal(t, geometry.Vec{}, u.Velocity)
	assert.Equal(t, geometry.Vec{0, 1}, u.Orientation)
	assert.Equal(t, self.Position, u.Position)
}

func TestTouchingNeighborPushesBack(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0})
	touching := walker(2, geometry.Vec{0.3, 0})

	u := m.ComputeUpdate(self, []State{touching}, nil, 0.1)
	assert.Less(t, u.Velocity[0], 0.0)
	assert.LessOrEqual(t, u.Velocity.Len(), 1.2+1e-9)
}

func TestCoincidentNeighborsSplit(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	a := walker(1, geometry.Vec{0, 0})
	b := walker(2, geometry.Vec{0, 0})

	ua := m.ComputeUpdate(a, []State{b}, nil, 0.1)
	ub := m.ComputeUpdate(b, []State{a}, nil, 0.1)
	assert.Greater(t, ua.Velocity[1], 0.0)
	assert.Less(t, ub.Velocity[1], 0.0)
}

func TestVelocityNeverExceedsDesiredSpeed(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0})
	self.DesiredSpeed = 0.7
	side := walker(2, geometry.Vec{0, 0.35})

	u := m.ComputeUpdate(self, []State{side}, nil, 0.1)
	assert.LessOrEqual(t, u.Velocity.Len(), 0.7+1e-9)
}

func TestWallPushesAway(t *testing.T) {
	m := DefaultCollisionFreeSpeedModel()
	self := walker(1, geometry.Vec{0, 0.16})
	wall := geometry.Line{P1: geometry.Vec{-5, 0}, P2: geometry.Vec{5, 0}}

	u := m.ComputeUpdate(self, nil, []geometry.Line{wall}, 0.1)
	assert.Greater(t, u.Velocity[1], 0.0)
	assert.InDelta(t, 1.2, u.Velocity.Len(), 1e-9)
}

func TestRepulsion(t *testing.T) {
	assert.Equal(t, 8.0, Repulsion(8, 0.1, 0))
	assert.Equal(t, 8.0, Repulsion(8, 0.1, -0.05))
	assert.Equal(t, 0.0, Repulsion(8, 0.1, 0.1))
	assert.Equal(t, 0.0, Repulsion(8, 0.1, 3))

	prev := Repulsion(8, 0.1, 0)
	for s := 0.005; s <= 0.1; s += 0.005 {
		cur := Repulsion(8, 0.1, s)
		assert.LessOrEqual(t, cur, prev, "s=%g", s)
		prev = cur
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultCollisionFreeSpeedModel().Validate())

	tests := []struct {
		name   string
		mutate func(*CollisionFreeSpeedModel)
	}{
		{"negative strength", func(m *CollisionFreeSpeedModel) { m.StrengthNeighborRepulsion = -1 }},
		{"zero neighbour range", func(m *CollisionFreeSpeedModel) { m.RangeNeighborRepulsion = 0 }},
		{"zero geometry range", func(m *CollisionFreeSpeedModel) { m.RangeGeometryRepulsion = 0 }},
		{"zero time gap", func(m *CollisionFreeSpeedModel) { m.TimeGap = 0 }},
		{"zero radius", func(m *CollisionFreeSpeedModel) { m.Radius = 0 }},
		{"zero neighbourhood", func(m *CollisionFreeSpeedModel) { m.Neighborhood = 0 }},
		{"negative overshoot", func(m *CollisionFreeSpeedModel) { m.MaxOvershoot = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultCollisionFreeSpeedModel()
			tt.mutate(&m)
			assert.Error(t, m.Validate())
		})
	}
}
