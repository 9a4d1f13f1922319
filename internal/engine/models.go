package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/goal"
	"github.com/cxd309/ped-engine/internal/graph"
	"github.com/cxd309/ped-engine/internal/kinematics"
	"github.com/cxd309/ped-engine/internal/router"
	"github.com/cxd309/ped-engine/internal/sensor"
)

// defaultRouterID is the id agents use when they do not name a router.
const defaultRouterID = 1

// defaultArrivalDistance is how close to its exit line an agent counts as arrived, metres.
const defaultArrivalDistance = 0.3

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID    string  `json:"simulation_id"` // generated if empty
	RunTime         float64 `json:"run_time"`      // seconds
	TimeStep        float64 `json:"time_step"`     // seconds
	ArrivalDistance float64 `json:"arrival_distance,omitempty"`
	// RerouteInterval re-arms every agent's rerouting timer after each
	// rerouting; zero disables periodic rerouting.
	RerouteInterval float64 `json:"reroute_interval,omitempty"`
}

// AgentInput is the JSON description of one agent to spawn.
type AgentInput struct {
	// ID replaces the generated id; it must be positive and unique.
	ID               *int         `json:"id,omitempty"`
	Position         geometry.Vec `json:"position"`
	FinalDestination *int         `json:"final_destination,omitempty"` // omitted: leave the building
	Group            *int         `json:"group,omitempty"`
	RouterID         int          `json:"router_id,omitempty"`
	Premovement      float64      `json:"premovement,omitempty"` // seconds
	// Parameters is decoded on top of the defaults, so omitted fields keep
	// their default values.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// SimulationInput is the JSON-serialisable input to the engine.
type SimulationInput struct {
	Meta     SimulationMeta        `json:"simulation_meta"`
	Building geometry.BuildingData `json:"building"`
	Graph    graph.GraphData       `json:"navigation_graph"`
	Goals    []goal.Goal           `json:"goals"`
	Model    ModelConfig           `json:"model"`
	Sensors  []string              `json:"sensors"` // defaults to [subroom_type]
	Agents   []AgentInput          `json:"agents"`
}

// AgentLog is the state of one agent at one timestep.
type AgentLog struct {
	AgentID          int          `json:"agent_id"`
	Position         geometry.Vec `json:"position"`
	Velocity         geometry.Vec `json:"velocity"`
	Orientation      geometry.Vec `json:"orientation"`
	Elevation        float64      `json:"elevation"`
	ExitIndex        int          `json:"exit_index"`
	FinalDestination int          `json:"final_destination"`
	Waiting          bool         `json:"waiting"`
}

// SimulationLogRow is the state of all agents at a single simulation timestep.
type SimulationLogRow struct {
	Timestamp float64    `json:"timestamp"` // seconds
	AgentLogs []AgentLog `json:"agent_logs"`
}

// AgentExit records an agent leaving the simulation.
type AgentExit struct {
	AgentID int     `json:"agent_id"`
	Time    float64 `json:"time"`    // seconds
	GoalID  int     `json:"goal_id"` // agent.FinalDestinationOut when it left the building
	Path    string  `json:"path"`
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta   SimulationMeta     `json:"simulation_meta"`
	Output []SimulationLogRow `json:"output"`
	Exits  []AgentExit        `json:"exits"`
}

// ModelConfig wraps the operational model selected by the "model" discriminator.
type ModelConfig struct {
	Model kinematics.Model
}

// modelDisc is the minimum JSON structure needed to read the model discriminator.
type modelDisc struct {
	Model string `json:"model"`
}

// UnmarshalJSON implements json.Unmarshaler for ModelConfig. The "model" key
// selects the implementation; the remaining keys override its defaults. A null
// model leaves the choice to the engine default.
//
// Supported models:
//   - "collision_free_speed": kinematics.CollisionFreeSpeedModel.
func (c *ModelConfig) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.Model = nil
		return nil
	}
	var disc modelDisc
	if err := json.Unmarshal(data, &disc); err != nil {
		return fmt.Errorf("reading model discriminator: %w", err)
	}

	switch disc.Model {
	case kinematics.CollisionFreeSpeedModelName:
		m := kinematics.DefaultCollisionFreeSpeedModel()
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("model %q: %w", disc.Model, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("model %q: %w", disc.Model, err)
		}
		c.Model = m
	case "":
		return fmt.Errorf("missing \"model\" discriminator")
	default:
		return fmt.Errorf("unknown model %q", disc.Model)
	}
	return nil
}

// MarshalJSON writes the model back with its discriminator.
func (c ModelConfig) MarshalJSON() ([]byte, error) {
	switch m := c.Model.(type) {
	case kinematics.CollisionFreeSpeedModel:
		return json.Marshal(struct {
			Model string `json:"model"`
			kinematics.CollisionFreeSpeedModel
		}{kinematics.CollisionFreeSpeedModelName, m})
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unsupported model %T", m)
	}
}

// Simulation is the pedestrian engine state for one run.
type Simulation struct {
	meta     SimulationMeta
	building *geometry.Building
	graph    *graph.Graph
	goals    *goal.Registry
	model    kinematics.Model
	router   *router.CognitiveMapRouter
	factory  *agent.Factory
	agents   []*agent.Agent
	exits    []AgentExit
	curTime  float64

	// OnStep, if set, is called with every log row as it is produced.
	OnStep func(SimulationLogRow)
}

var _ agent.Router = (*router.CognitiveMapRouter)(nil)

// defaultSensors are executed when the input names none.
var defaultSensors = []string{sensor.SubroomTypeSensorName}
