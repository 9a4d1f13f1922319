// Package router implements the routing strategy agents use to pick their next
// exit. Each agent routes over a private copy of the navigation graph (its
// cognitive map) whose costs are adjusted by sensors before every decision.
package router

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/goal"
	"github.com/cxd309/ped-engine/internal/graph"
	"github.com/cxd309/ped-engine/internal/sensor"
)

// ErrUnknownGoal is returned when an agent's final destination is not registered.
var ErrUnknownGoal = errors.New("unknown goal")

// CognitiveMapRouter routes agents over per-agent clones of a shared graph.
// It is called from the sequential part of a step and is not safe for
// concurrent use.
type CognitiveMapRouter struct {
	base    *graph.Graph
	goals   *goal.Registry
	sensors *sensor.Manager
	maps    map[int]*graph.Graph
}

// NewCognitiveMapRouter returns a router over base. sensors may be nil.
func NewCognitiveMapRouter(base *graph.Graph, goals *goal.Registry, sensors *sensor.Manager) *CognitiveMapRouter {
	return &CognitiveMapRouter{
		base:    base,
		goals:   goals,
		sensors: sensors,
		maps:    make(map[int]*graph.Graph),
	}
}

// CognitiveMap returns the graph owned by agent id, creating it on first use.
func (r *CognitiveMapRouter) CognitiveMap(id int) *graph.Graph {
	g, ok := r.maps[id]
	if !ok {
		g = r.base.Clone()
		r.maps[id] = g
	}
	return g
}

// Forget drops the cognitive map of agent id, e.g. once it left the simulation.
func (r *CognitiveMapRouter) Forget(id int) {
	delete(r.maps, id)
}

// FindExit runs the sensors on a's cognitive map, picks the first crossing of
// the cheapest route to its final destination and records it on the agent.
// Failures are logged and reported as agent.NoExit.
func (r *CognitiveMapRouter) FindExit(a *agent.Agent) int {
	edge, err := r.nextEdge(a)
	if err != nil {
		log.Warnf("agent %d: no route: %v", a.ID(), err)
		return agent.NoExit
	}
	if edge.ID != a.ExitIndex() {
		a.ResetSmoothing()
	}
	a.SetExitIndex(edge.ID)
	a.SetExitLine(&edge.Line)
	log.Debugf("agent %d: next exit %d", a.ID(), edge.ID)
	return edge.ID
}

func (r *CognitiveMapRouter) nextEdge(a *agent.Agent) (*graph.Edge, error) {
	src, ok := a.UniqueSubroomID()
	if !ok {
		return nil, fmt.Errorf("position (%.2f, %.2f) is in no subroom", a.Pos()[0], a.Pos()[1])
	}
	g := r.CognitiveMap(a.ID())
	r.sensors.Execute(a, g)

	if a.FinalDestination() == agent.FinalDestinationOut {
		return g.GetNextEdge(src, graph.Outside)
	}
	gl, found := r.goals.Get(a.FinalDestination())
	if !found {
		return nil, fmt.Errorf("goal %d: %w", a.FinalDestination(), ErrUnknownGoal)
	}
	path, err := g.GetPathToEdge(src, gl.Door)
	if err != nil {
		return nil, err
	}
	if len(path.Edges) == 0 {
		return nil, fmt.Errorf("from %d: %w", src, graph.ErrNoPath)
	}
	return g.GetEdgeByID(path.Edges[0])
}
