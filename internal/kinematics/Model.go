// Package kinematics defines the operational Model interface that turns an agent's
// desired motion into a collision-free position update, along with the built-in
// model and the speed-profile blending used across level transitions.
//
// Adding a new operational model requires only implementing Model and registering it
// in the JSON discriminator in the engine package; agents and the engine loop never
// need to change.
package kinematics

import "github.com/cxd309/ped-engine/internal/geometry"

// State is the read-only snapshot of one agent an operational model works on.
// Models must not retain or mutate it.
type State struct {
	ID          int
	Position    geometry.Vec
	Orientation geometry.Vec // unit heading from the previous step
	// Direction is the desired direction e0. It is not necessarily of unit
	// length while the agent is still turning towards a new target.
	Direction    geometry.Vec
	DesiredSpeed float64 // effective desired speed, m/s
	Radius       float64 // metres; zero selects the model default
}

// Update is the result of one model evaluation for one agent.
type Update struct {
	Position    geometry.Vec
	Orientation geometry.Vec
	Velocity    geometry.Vec
}

// Model is the contract every operational model must satisfy.
// Implementations are pure: ComputeUpdate depends only on its arguments and the
// model's immutable parameters, so it may run concurrently for different agents.
type Model interface {
	// NeighborhoodRadius is the centre distance beyond which other agents are
	// never passed to ComputeUpdate.
	NeighborhoodRadius() float64

	// GeometryRadius is the distance from an agent's body beyond which walls
	// are never passed to ComputeUpdate.
	GeometryRadius() float64

	// DefaultRadius is the body radius used for agents that do not set one.
	DefaultRadius() float64

	// ComputeUpdate advances self over dt seconds given its neighbours and
	// nearby walls.
	ComputeUpdate(self State, neighbors []State, walls []geometry.Line, dt float64) Update
}
