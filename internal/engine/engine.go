// Package engine implements the pedestrian simulation loop.
//
// The simulation advances in fixed timesteps. Each step has three passes:
//
//  1. Decision pass - sequentially, every active agent runs its sensors and
//     router when it needs a new exit, then turns towards that exit and picks
//     its effective desired speed for the subroom it stands in.
//
//  2. Motion pass - an immutable snapshot of all agents is taken and the
//     operational model is evaluated for every moving agent in parallel.
//
//  3. Commit pass - updates are applied, arrivals at goals and exits are
//     resolved and rerouting timers advance.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/goal"
	"github.com/cxd309/ped-engine/internal/graph"
	"github.com/cxd309/ped-engine/internal/kinematics"
	"github.com/cxd309/ped-engine/internal/router"
	"github.com/cxd309/ped-engine/internal/sensor"
)

// NewSimulation constructs a Simulation from a SimulationInput, building the
// geometry, the navigation graph and the router, and spawning every agent.
func NewSimulation(input SimulationInput) (*Simulation, error) {
	meta := input.Meta
	if meta.TimeStep <= 0 {
		return nil, fmt.Errorf("time_step must be > 0, got %g", meta.TimeStep)
	}
	if meta.ArrivalDistance <= 0 {
		meta.ArrivalDistance = defaultArrivalDistance
	}
	if meta.SimulationID == "" {
		meta.SimulationID = uuid.NewString()
	}

	building, err := geometry.NewBuilding(input.Building)
	if err != nil {
		return nil, fmt.Errorf("building geometry: %w", err)
	}
	g, err := graph.NewGraph(building.Subrooms(), input.Graph)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	goals, err := goal.NewRegistry(input.Goals)
	if err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}
	for _, id := range goals.IDs() {
		gl, _ := goals.Get(id)
		if _, err := g.GetEdgeByID(gl.Door); err != nil {
			return nil, fmt.Errorf("goal %d door: %w", id, err)
		}
	}

	sensorNames := input.Sensors
	if len(sensorNames) == 0 {
		sensorNames = defaultSensors
	}
	sensors, err := sensor.NewManager(sensorNames)
	if err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}

	model := input.Model.Model
	if model == nil {
		model = kinematics.DefaultCollisionFreeSpeedModel()
	}

	r := router.NewCognitiveMapRouter(g, goals, sensors)
	s := &Simulation{
		meta:     meta,
		building: building,
		graph:    g,
		goals:    goals,
		model:    model,
		router:   r,
		factory:  agent.NewFactory(building, map[int]agent.Router{defaultRouterID: r}),
	}

	ids := make(map[int]bool, len(input.Agents))
	for i, in := range input.Agents {
		a, err := s.spawn(in)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if ids[a.ID()] {
			return nil, fmt.Errorf("agent %d: id %d already in use", i, a.ID())
		}
		ids[a.ID()] = true
		s.agents = append(s.agents, a)
	}
	log.Infof("simulation %s: %d agents, %d subrooms, %d edges, sensors %v, model %v",
		meta.SimulationID, len(s.agents), len(building.Subrooms()), len(g.Edges()), sensors.Names(), model)
	return s, nil
}

func (s *Simulation) spawn(in AgentInput) (*agent.Agent, error) {
	if _, err := s.building.SubroomAt(in.Position); err != nil {
		return nil, err
	}
	spec := agent.Spec{
		Position:         in.Position,
		FinalDestination: agent.FinalDestinationOut,
		Group:            agent.NoGroup,
		RouterID:         in.RouterID,
		Premovement:      in.Premovement,
		Parameters:       s.defaultParameters(),
	}
	if in.FinalDestination != nil {
		if _, ok := s.goals.Get(*in.FinalDestination); !ok && *in.FinalDestination != agent.FinalDestinationOut {
			return nil, fmt.Errorf("goal %d: %w", *in.FinalDestination, router.ErrUnknownGoal)
		}
		spec.FinalDestination = *in.FinalDestination
	}
	if in.Group != nil {
		spec.Group = *in.Group
	}
	if spec.RouterID == 0 {
		spec.RouterID = defaultRouterID
	}
	if len(in.Parameters) > 0 {
		if err := json.Unmarshal(in.Parameters, &spec.Parameters); err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
	}
	spec.Parameters.DeltaT = s.meta.TimeStep
	if err := spec.Parameters.Validate(); err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}

	a := s.factory.New(spec)
	if in.ID != nil {
		if err := a.SetID(*in.ID); err != nil {
			return nil, err
		}
	}
	if a.FindRoute() != agent.NoExit {
		if target, ok := s.target(a); ok {
			a.InitDesiredDirection(target)
		}
	}
	if s.meta.RerouteInterval > 0 {
		a.RerouteIn(s.meta.RerouteInterval)
	}
	return a, nil
}

// defaultParameters are the agent defaults with the body and speed of the model.
func (s *Simulation) defaultParameters() agent.Parameters {
	p := agent.DefaultParameters()
	p.EA = s.model.DefaultRadius()
	p.EB = s.model.DefaultRadius()
	if m, ok := s.model.(kinematics.CollisionFreeSpeedModel); ok {
		p.V0 = m.V0
	}
	return p
}

// ID returns the simulation id.
func (s *Simulation) ID() string { return s.meta.SimulationID }

// Agents returns the agents still in the simulation.
func (s *Simulation) Agents() []*agent.Agent { return s.agents }

// Exits returns the agents that left so far, in order.
func (s *Simulation) Exits() []AgentExit { return s.exits }

// Time returns the current simulation time in seconds.
func (s *Simulation) Time() float64 { return s.curTime }

// Steps returns the number of timesteps Run performs at most.
func (s *Simulation) Steps() int {
	return int(math.Floor(s.meta.RunTime/s.meta.TimeStep)) + 1
}

// Run executes the simulation until run_time elapses or every agent left, and
// returns the log.
func (s *Simulation) Run() (SimulationLog, error) {
	simLog := SimulationLog{Meta: s.meta}
	for s.curTime <= s.meta.RunTime {
		row, err := s.step()
		if err != nil {
			return SimulationLog{}, fmt.Errorf("at t=%.2f: %w", s.curTime, err)
		}
		simLog.Output = append(simLog.Output, row)
		if s.OnStep != nil {
			s.OnStep(row)
		}
		s.curTime += s.meta.TimeStep
		if len(s.agents) == 0 {
			break
		}
	}
	simLog.Exits = s.exits
	log.Infof("simulation %s finished at t=%.2f: %d of %d agents left",
		s.meta.SimulationID, s.curTime, len(s.exits), s.factory.AgentsCreated())
	return simLog, nil
}

// step advances the simulation by one timestep and returns the resulting log row.
func (s *Simulation) step() (SimulationLogRow, error) {
	now, dt := s.curTime, s.meta.TimeStep

	// Pass 1: decisions, sequential since routers and goals are shared.
	movers := make([]*agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if a.InPremovement(now) {
			continue
		}
		if a.IsWaiting() {
			s.updateWaiting(a, now)
			continue
		}
		if s.needsRoute(a) {
			if a.IsReadyForRerouting() {
				a.ResetRerouting()
				if s.meta.RerouteInterval > 0 {
					a.RerouteIn(s.meta.RerouteInterval)
				}
			}
			a.FindRoute()
		}
		target, ok := s.target(a)
		if !ok {
			continue
		}
		a.SetLastE0(a.DesiredDirection())
		a.UpdateDesiredDirection(target)
		movers = append(movers, a)
	}

	// Pass 2: snapshot and parallel model evaluation.
	updates, err := s.computeUpdates(movers, dt)
	if err != nil {
		return SimulationLogRow{}, err
	}

	// Pass 3: commit.
	for i, a := range movers {
		u := updates[i]
		if !geometry.IsFinite(u.Position) || !geometry.IsFinite(u.Velocity) {
			log.Warnf("agent %d: discarding non-finite update at t=%.2f", a.ID(), now)
			a.SetV(geometry.Vec{})
			continue
		}
		a.SetPos(u.Position)
		a.SetV(u.Velocity)
		a.SetOrientation(u.Orientation)
	}
	for _, a := range movers {
		s.resolveArrival(a, now)
	}
	for _, a := range s.agents {
		a.UpdateReroutingTime()
	}
	s.removeFinished()

	log.Debugf("t=%.2f: %d moving, %d active, %d left", now, len(movers), len(s.agents), len(s.exits))
	return s.logRow(now), nil
}

// target returns the point a walks towards: its closest point on the exit line
// moved ArrivalDistance past the line, so agents cross doors instead of
// stopping on them.
func (s *Simulation) target(a *agent.Agent) (geometry.Vec, bool) {
	line, ok := a.ExitLine()
	if !ok {
		return geometry.Vec{}, false
	}
	p := line.ShortestPoint(a.Pos())
	edge, err := s.graph.GetEdgeByID(a.ExitIndex())
	if err != nil {
		return p, true
	}
	src := s.graph.Vertex(edge.U)
	if src == nil {
		return p, true
	}
	d := line.P2.Sub(line.P1)
	n := geometry.Normalized(geometry.Vec{-d[1], d[0]})
	if n.Dot(line.Centre().Sub(src.Subroom.Centroid())) < 0 {
		n = n.Mul(-1)
	}
	return p.Add(n.Mul(s.meta.ArrivalDistance)), true
}

// needsRoute reports whether a must consult its router before moving.
func (s *Simulation) needsRoute(a *agent.Agent) bool {
	return !a.HasExitLine() || a.NextDestination() == agent.NoDecision || a.IsReadyForRerouting()
}

type indexedState struct {
	idx  int
	rect rtreego.Rect
}

func (p *indexedState) Bounds() rtreego.Rect { return p.rect }

// computeUpdates evaluates the model for every mover against a snapshot of all
// active agents. Each goroutine writes only its own slot of the result.
func (s *Simulation) computeUpdates(movers []*agent.Agent, dt float64) ([]kinematics.Update, error) {
	moverIdx := make(map[int]int, len(movers))
	for i, a := range movers {
		moverIdx[a.ID()] = i
	}

	states := make([]kinematics.State, len(s.agents))
	spatials := make([]rtreego.Spatial, len(s.agents))
	for i, a := range s.agents {
		states[i] = kinematics.State{
			ID:          a.ID(),
			Position:    a.Pos(),
			Orientation: a.Orientation(),
			Direction:   a.DesiredDirection(),
			Radius:      a.Ellipse().Radius(),
		}
		if _, moving := moverIdx[a.ID()]; moving {
			states[i].DesiredSpeed = a.EffectiveV0()
		}
		rect, err := geometry.BoundingRect(a.Pos(), a.Pos())
		if err != nil {
			return nil, fmt.Errorf("agent %d position: %w", a.ID(), err)
		}
		spatials[i] = &indexedState{idx: i, rect: rect}
	}
	tree := rtreego.NewTree(2, 25, 50, spatials...)

	updates := make([]kinematics.Update, len(movers))
	reach := s.model.NeighborhoodRadius()

	var wg sync.WaitGroup
	for idx, a := range s.agents {
		i, moving := moverIdx[a.ID()]
		if !moving {
			continue
		}
		wg.Add(1)
		go func(i int, self kinematics.State) {
			defer wg.Done()
			neighbors := s.neighbors(tree, states, self, reach)
			walls := s.building.WallsWithin(self.Position, self.Radius+s.model.GeometryRadius())
			updates[i] = s.model.ComputeUpdate(self, neighbors, walls, dt)
		}(i, states[idx])
	}
	wg.Wait()
	return updates, nil
}

func (s *Simulation) neighbors(tree *rtreego.Rtree, states []kinematics.State, self kinematics.State, reach float64) []kinematics.State {
	lower := self.Position.Sub(geometry.Vec{reach, reach})
	upper := self.Position.Add(geometry.Vec{reach, reach})
	rect, err := geometry.BoundingRect(lower, upper)
	if err != nil {
		return nil
	}
	var out []kinematics.State
	for _, sp := range tree.SearchIntersect(rect) {
		other := states[sp.(*indexedState).idx]
		if other.ID == self.ID || other.Position.Sub(self.Position).Len() > reach {
			continue
		}
		out = append(out, other)
	}
	return out
}

// resolveArrival handles an agent that came within arrival distance of its
// exit line: leaving the building, reaching its goal or starting to wait.
func (s *Simulation) resolveArrival(a *agent.Agent, now float64) {
	if !a.HasExitLine() {
		return
	}
	if d := a.DistanceToNextTarget(); math.IsNaN(d) || d > s.meta.ArrivalDistance {
		return
	}
	edge, err := s.graph.GetEdgeByID(a.ExitIndex())
	if err != nil {
		return
	}

	if a.FinalDestination() == agent.FinalDestinationOut {
		if edge.V == graph.Outside {
			s.markExit(a, now, agent.FinalDestinationOut)
		}
		return
	}
	gl, ok := s.goals.ByDoor(edge.ID)
	if !ok || gl.ID != a.FinalDestination() {
		return
	}
	a.EnterGoal()
	gl.Enter(now)
	if !gl.IsWaitingArea() {
		s.markExit(a, now, gl.ID)
		return
	}
	a.StartWaiting()
	a.SetWaitingPos(a.Pos())
	a.SetV(geometry.Vec{})
	log.Debugf("agent %d: waiting in goal %d %q", a.ID(), gl.ID, gl.Caption)
}

// updateWaiting releases a from its waiting area once the area stops holding agents.
func (s *Simulation) updateWaiting(a *agent.Agent, now float64) {
	if a.IsInsideWaitingAreaWaiting(s.goals, now) {
		return
	}
	a.EndWaiting()
	a.LeaveGoal()
	if gl, ok := s.goals.Get(a.LastGoalID()); ok {
		gl.Leave()
	}
	s.markExit(a, now, a.LastGoalID())
}

// markExit records that a left the simulation; it is removed at the end of the step.
func (s *Simulation) markExit(a *agent.Agent, now float64, goalID int) {
	s.exits = append(s.exits, AgentExit{AgentID: a.ID(), Time: now, GoalID: goalID, Path: a.Path()})
	log.Debugf("agent %d left at t=%.2f (goal %d)\n%s", a.ID(), now, goalID, a)
}

func (s *Simulation) removeFinished() {
	gone := lo.SliceToMap(s.exits, func(e AgentExit) (int, bool) { return e.AgentID, true })
	s.agents = lo.Reject(s.agents, func(a *agent.Agent, _ int) bool {
		if gone[a.ID()] {
			s.router.Forget(a.ID())
			return true
		}
		return false
	})
}

func (s *Simulation) logRow(now float64) SimulationLogRow {
	logs := make([]AgentLog, len(s.agents))
	for i, a := range s.agents {
		logs[i] = AgentLog{
			AgentID:          a.ID(),
			Position:         a.Pos(),
			Velocity:         a.V(),
			Orientation:      a.Orientation(),
			Elevation:        a.Elevation(),
			ExitIndex:        a.ExitIndex(),
			FinalDestination: a.FinalDestination(),
			Waiting:          a.IsWaiting(),
		}
	}
	return SimulationLogRow{Timestamp: now, AgentLogs: logs}
}

// RunJSON is the primary entry point for the CLI and WASM targets.
// It accepts a JSON-encoded SimulationInput, runs the simulation, and returns a
// JSON-encoded SimulationLog.
func RunJSON(jsonInput string) (string, error) {
	var input SimulationInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	sim, err := NewSimulation(input)
	if err != nil {
		return "", err
	}

	simLog, err := sim.Run()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
