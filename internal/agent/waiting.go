package agent

import (
	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/goal"
)

// EnterGoal marks the agent as inside its final destination.
func (a *Agent) EnterGoal() {
	a.insideGoal = true
	a.lastGoalID = a.finalDestination
}

// LeaveGoal marks the agent as outside any goal.
func (a *Agent) LeaveGoal() { a.insideGoal = false }

// InsideGoal reports whether the agent is inside its final destination.
func (a *Agent) InsideGoal() bool { return a.insideGoal }

// LastGoalID returns the last goal the agent entered, or -1.
func (a *Agent) LastGoalID() int { return a.lastGoalID }

// IsWaiting reports whether the agent is held in place.
func (a *Agent) IsWaiting() bool { return a.waiting }

// StartWaiting holds the agent in place.
func (a *Agent) StartWaiting() { a.waiting = true }

// EndWaiting releases the agent and clears its waiting position.
func (a *Agent) EndWaiting() {
	a.waiting = false
	a.waitingPos = geometry.Unset
}

// WaitingPos returns the waiting position, geometry.Unset if none.
func (a *Agent) WaitingPos() geometry.Vec { return a.waitingPos }

// SetWaitingPos sets the waiting position.
func (a *Agent) SetWaitingPos(p geometry.Vec) { a.waitingPos = p }

// IsInsideWaitingAreaWaiting reports whether the agent is inside its final
// destination and that destination is a waiting area still holding agents at now.
func (a *Agent) IsInsideWaitingAreaWaiting(goals *goal.Registry, now float64) bool {
	if !a.insideGoal {
		return false
	}
	g, ok := goals.Get(a.finalDestination)
	if !ok || !g.IsWaitingArea() {
		return false
	}
	return g.IsWaiting(now)
}
