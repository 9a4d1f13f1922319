// Package goal defines the final destinations agents can be routed to.
//
// Goals are a tagged variant over Kind; behaviour that only some kinds support
// (waiting) is exposed as capability queries on Goal instead of type assertions.
package goal

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Kind classifies a goal.
type Kind string

const (
	KindStandard    Kind = "standard"
	KindWaitingArea Kind = "waiting_area"
)

// Goal is a destination reached by crossing Door, the id of a navigation-graph
// edge; the door line gives the goal its geometry. Waiting fields are only used
// by KindWaitingArea.
type Goal struct {
	ID      int    `json:"goal_id"`
	Kind    Kind   `json:"kind"`
	Caption string `json:"caption,omitempty"`
	Door    int    `json:"door"`

	// WaitingTime is how long agents are held once the area is full enough, seconds.
	WaitingTime float64 `json:"waiting_time,omitempty"`
	// MinPeds is the occupancy at which the waiting timer starts.
	MinPeds int `json:"min_peds,omitempty"`

	occupants  int
	startTime  float64
	timerStart bool
}

// IsWaitingArea reports whether agents may be held inside the goal.
func (g *Goal) IsWaitingArea() bool {
	return g.Kind == KindWaitingArea
}

// IsWaiting reports whether agents inside the goal must keep waiting at time now.
// It is always false for goals that are not waiting areas.
func (g *Goal) IsWaiting(now float64) bool {
	switch g.Kind {
	case KindWaitingArea:
		if !g.timerStart {
			return true
		}
		return now < g.startTime+g.WaitingTime
	case KindStandard:
		return false
	}
	return false
}

// Enter registers an agent entering the goal at time now and starts the waiting
// timer once MinPeds agents are inside.
func (g *Goal) Enter(now float64) {
	g.occupants++
	if g.IsWaitingArea() && !g.timerStart && g.occupants >= g.MinPeds {
		g.timerStart = true
		g.startTime = now
	}
}

// Leave registers an agent leaving the goal.
func (g *Goal) Leave() {
	if g.occupants > 0 {
		g.occupants--
	}
}

// Occupants returns the number of agents currently inside.
func (g *Goal) Occupants() int {
	return g.occupants
}

func (g *Goal) validate() error {
	switch g.Kind {
	case KindStandard:
	case KindWaitingArea:
		if g.WaitingTime < 0 {
			return fmt.Errorf("goal %d: waiting_time must be >= 0", g.ID)
		}
	default:
		return fmt.Errorf("goal %d: unknown kind %q", g.ID, g.Kind)
	}
	return nil
}

// Registry holds the goals of one simulation, keyed by id.
type Registry struct {
	goals map[int]*Goal
}

// NewRegistry validates goals and indexes them by id.
func NewRegistry(goals []Goal) (*Registry, error) {
	r := &Registry{goals: make(map[int]*Goal, len(goals))}
	for i := range goals {
		g := goals[i]
		if g.Kind == "" {
			g.Kind = KindStandard
		}
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.goals[g.ID]; exists {
			return nil, fmt.Errorf("goal %d already exists", g.ID)
		}
		if other, taken := r.ByDoor(g.Door); taken {
			return nil, fmt.Errorf("goal %d: door %d already belongs to goal %d", g.ID, g.Door, other.ID)
		}
		r.goals[g.ID] = &g
	}
	return r, nil
}

// Get looks up a goal by id.
func (r *Registry) Get(id int) (*Goal, bool) {
	if r == nil {
		return nil, false
	}
	g, ok := r.goals[id]
	return g, ok
}

// ByDoor returns the goal reached through the given edge id.
func (r *Registry) ByDoor(door int) (*Goal, bool) {
	if r == nil {
		return nil, false
	}
	for _, id := range r.IDs() {
		if g := r.goals[id]; g.Door == door {
			return g, true
		}
	}
	return nil, false
}

// IDs returns the goal ids in ascending order.
func (r *Registry) IDs() []int {
	ids := lo.Keys(r.goals)
	sort.Ints(ids)
	return ids
}
