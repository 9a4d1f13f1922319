// Package agent defines the simulated pedestrian: its body and kinematic
// parameters, the desired-speed blending across level transitions, the
// reorientation smoother, the rerouting controller and the mental map of
// routing decisions.
//
// An Agent is exclusively owned by the driver that steps it; none of its
// methods are safe for concurrent use.
package agent

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/geometry"
)

const (
	// NoExit is returned by routing operations that could not find an exit.
	NoExit = -1
	// NoDecision is returned by NextDestination for subrooms without a decision.
	NoDecision = -1
	// FinalDestinationOut is the final destination meaning "leave the building".
	FinalDestinationOut = -1
	// NoGroup is the group of agents created without one.
	NoGroup = -1
)

// ErrInvalidIdentity is returned when assigning a non-positive agent id.
var ErrInvalidIdentity = errors.New("invalid agent id: id must be > 0")

// Router computes the next exit of an agent. It returns the exit id, or NoExit
// on failure, and is expected to record its decision with SetExitIndex and
// SetExitLine.
type Router interface {
	FindExit(a *Agent) int
}

// Agent is one simulated pedestrian.
type Agent struct {
	id      int
	ellipse geometry.Ellipse

	mass   float64
	tau    float64
	t      float64
	deltaT float64

	v0UpStairs                float64
	v0DownStairs              float64
	v0EscalatorUp             float64
	v0EscalatorDown           float64
	smoothFactorUpStairs      float64
	smoothFactorDownStairs    float64
	smoothFactorEscalatorUp   float64
	smoothFactorEscalatorDown float64

	exitIndex        int
	exitLine         *geometry.Line
	mentalMap        map[int]int
	finalDestination int
	group            int
	routerID         int
	router           Router
	building         geometry.Query
	factory          *Factory

	reroutingEnabled    bool
	timeBeforeRerouting float64

	insideGoal bool
	waiting    bool
	lastGoalID int
	waitingPos geometry.Vec

	premovement         float64
	lastPosition        geometry.Vec
	lastE0              geometry.Vec
	e0                  geometry.Vec
	newOrientationDelay int
}

// ID returns the agent id.
func (a *Agent) ID() int { return a.id }

// SetID assigns a new id. Non-positive ids are rejected with ErrInvalidIdentity
// and leave the current id unchanged.
func (a *Agent) SetID(id int) error {
	if id <= 0 {
		return fmt.Errorf("agent %d: %w (got %d)", a.id, ErrInvalidIdentity, id)
	}
	a.id = id
	return nil
}

// Ellipse returns the body shape.
func (a *Agent) Ellipse() geometry.Ellipse { return a.ellipse }

// Pos returns the current position.
func (a *Agent) Pos() geometry.Vec { return a.ellipse.Center }

// SetPos moves the agent, remembering the previous position.
func (a *Agent) SetPos(p geometry.Vec) {
	a.lastPosition = a.ellipse.Center
	a.ellipse.Center = p
}

// LastPosition returns the position before the last SetPos.
func (a *Agent) LastPosition() geometry.Vec { return a.lastPosition }

// V returns the current velocity.
func (a *Agent) V() geometry.Vec { return a.ellipse.V }

// SetV sets the current velocity.
func (a *Agent) SetV(v geometry.Vec) { a.ellipse.V = v }

// V0 returns the base desired speed.
func (a *Agent) V0() float64 { return a.ellipse.V0 }

// SetV0Norm sets the base desired speed and the four transition speeds.
func (a *Agent) SetV0Norm(v0, upStairs, downStairs, escalatorUp, escalatorDown float64) {
	a.ellipse.V0 = v0
	a.v0UpStairs = upStairs
	a.v0DownStairs = downStairs
	a.v0EscalatorUp = escalatorUp
	a.v0EscalatorDown = escalatorDown
}

// SetSmoothFactors sets the four smoothing-sharpness constants.
func (a *Agent) SetSmoothFactors(upStairs, downStairs, escalatorUp, escalatorDown float64) {
	a.smoothFactorUpStairs = upStairs
	a.smoothFactorDownStairs = downStairs
	a.smoothFactorEscalatorUp = escalatorUp
	a.smoothFactorEscalatorDown = escalatorDown
}

// Mass returns the agent mass.
func (a *Agent) Mass() float64 { return a.mass }

// Tau returns the reaction time constant, seconds.
func (a *Agent) Tau() float64 { return a.tau }

// T returns the turning time constant, seconds.
func (a *Agent) T() float64 { return a.t }

// DeltaT returns the timestep the agent's timers advance by.
func (a *Agent) DeltaT() float64 { return a.deltaT }

// SetDeltaT sets the timestep.
func (a *Agent) SetDeltaT(dt float64) { a.deltaT = dt }

// Group returns the group id.
func (a *Agent) Group() int { return a.group }

// SetGroup sets the group id.
func (a *Agent) SetGroup(g int) { a.group = g }

// FinalDestination returns the id of the goal the agent is heading to.
func (a *Agent) FinalDestination() int { return a.finalDestination }

// SetFinalDestination sets the final goal.
func (a *Agent) SetFinalDestination(goalID int) { a.finalDestination = goalID }

// RouterID returns the id of the router requested for this agent.
func (a *Agent) RouterID() int { return a.routerID }

// SetRouter attaches a router.
func (a *Agent) SetRouter(r Router) { a.router = r }

// Building returns the geometry the agent queries.
func (a *Agent) Building() geometry.Query { return a.building }

// ExitIndex returns the id of the exit currently targeted.
func (a *Agent) ExitIndex() int { return a.exitIndex }

// SetExitIndex records exit as the current target and as the decision for the
// subroom the agent is standing in.
func (a *Agent) SetExitIndex(exit int) {
	a.exitIndex = exit
	if uid, ok := a.UniqueSubroomID(); ok {
		a.mentalMap[uid] = exit
	}
}

// ExitLine returns a copy of the targeted crossing and whether one is set.
func (a *Agent) ExitLine() (geometry.Line, bool) {
	if a.exitLine == nil {
		return geometry.Line{}, false
	}
	return *a.exitLine, true
}

// HasExitLine reports whether a target crossing is assigned.
func (a *Agent) HasExitLine() bool { return a.exitLine != nil }

// SetExitLine replaces the targeted crossing with a copy of l; nil clears it.
func (a *Agent) SetExitLine(l *geometry.Line) {
	if l == nil {
		a.exitLine = nil
		return
	}
	line := *l
	a.exitLine = &line
}

// DistanceToNextTarget returns the distance to the exit line. The caller must
// check HasExitLine first; there is no target to measure against otherwise.
func (a *Agent) DistanceToNextTarget() float64 {
	return a.exitLine.DistTo(a.Pos())
}

// UniqueSubroomID returns room*1000+subroom of the subroom at the agent's position.
func (a *Agent) UniqueSubroomID() (int, bool) {
	if a.building == nil {
		return 0, false
	}
	sub, err := a.building.SubroomAt(a.Pos())
	if err != nil {
		return 0, false
	}
	return sub.UniqueID(), true
}

// NextDestination returns the exit recorded for the current subroom, or
// NoDecision if the agent has not decided there yet.
func (a *Agent) NextDestination() int {
	uid, ok := a.UniqueSubroomID()
	if !ok {
		return NoDecision
	}
	exit, ok := a.mentalMap[uid]
	if !ok {
		return NoDecision
	}
	return exit
}

// HasVisited reports whether the mental map holds a decision for the subroom uid.
func (a *Agent) HasVisited(uid int) bool {
	_, ok := a.mentalMap[uid]
	return ok
}

// Path renders the mental map as "room:subroom:exit>" entries in subroom order.
func (a *Agent) Path() string {
	keys := lo.Keys(a.mentalMap)
	sort.Ints(keys)
	var b strings.Builder
	for _, uid := range keys {
		fmt.Fprintf(&b, "%d:%d:%d>", uid/1000, uid%1000, a.mentalMap[uid])
	}
	return b.String()
}

// FindRoute asks the agent's router for the next exit. Without a router the
// failure is logged and NoExit returned; other agents are unaffected.
func (a *Agent) FindRoute() int {
	if a.router == nil {
		log.Errorf("agent %d: router %d does not exist, check the router ids", a.id, a.routerID)
		return NoExit
	}
	return a.router.FindExit(a)
}

// Elevation returns the elevation at the agent's position, or 0 outside the building.
func (a *Agent) Elevation() float64 {
	if a.building == nil {
		return 0
	}
	sub, err := a.building.SubroomAt(a.Pos())
	if err != nil {
		return 0
	}
	return sub.Elevation(a.Pos())
}

// PremovementTime returns the time before which the agent does not move.
func (a *Agent) PremovementTime() float64 { return a.premovement }

// SetPremovementTime sets the premovement time and updates the factory minimum.
func (a *Agent) SetPremovementTime(t float64) {
	if a.factory != nil {
		a.factory.notePremovement(t)
	}
	a.premovement = t
}

// InPremovement reports whether the agent is still reacting at time now.
func (a *Agent) InPremovement(now float64) bool {
	return a.premovement >= now
}

// String is a human-readable snapshot for logs.
func (a *Agent) String() string {
	p, v := a.Pos(), a.V()
	return fmt.Sprintf("------> ped %d <-------\n"+
		">> Destination [ %d ]\n"+
		">> Final Destination [ %d ]\n"+
		">> Position [%.2f, %.2f]\n"+
		">> Velocity [%.2f, %.2f]  Norm = [%.2f]\n",
		a.id, a.exitIndex, a.finalDestination, p[0], p[1], v[0], v[1], v.Len())
}
