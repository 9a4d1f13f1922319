package agent

import (
	"fmt"
	"math"

	"github.com/cxd309/ped-engine/internal/geometry"
)

// Parameters holds the per-agent kinematic constants.
type Parameters struct {
	Mass   float64 `json:"mass"`
	Tau    float64 `json:"tau"`     // reaction time, seconds
	T      float64 `json:"t"`       // turning time, seconds
	DeltaT float64 `json:"delta_t"` // timestep, seconds

	V0              float64 `json:"v0"` // base desired speed, m/s
	V0UpStairs      float64 `json:"v0_up_stairs"`
	V0DownStairs    float64 `json:"v0_down_stairs"`
	V0EscalatorUp   float64 `json:"v0_escalator_up"`
	V0EscalatorDown float64 `json:"v0_escalator_down"`

	SmoothFactorUpStairs      float64 `json:"smooth_factor_up_stairs"`
	SmoothFactorDownStairs    float64 `json:"smooth_factor_down_stairs"`
	SmoothFactorEscalatorUp   float64 `json:"smooth_factor_escalator_up"`
	SmoothFactorEscalatorDown float64 `json:"smooth_factor_escalator_down"`

	EA float64 `json:"ea"` // semi-axis in walking direction, metres
	EB float64 `json:"eb"` // semi-axis in shoulder direction, metres
}

// DefaultParameters returns the constants agents are created with unless
// overridden.
func DefaultParameters() Parameters {
	return Parameters{
		Mass:                      1,
		Tau:                       0.5,
		T:                         1.0,
		DeltaT:                    0.01,
		V0:                        1.2,
		V0UpStairs:                0.6,
		V0DownStairs:              0.6,
		V0EscalatorUp:             0.8,
		V0EscalatorDown:           0.8,
		SmoothFactorUpStairs:      15,
		SmoothFactorDownStairs:    15,
		SmoothFactorEscalatorUp:   15,
		SmoothFactorEscalatorDown: 15,
		EA:                        0.15,
		EB:                        0.15,
	}
}

// Validate rejects parameters the kinematics cannot work with: the time
// constants divide, so they must be positive, and every speed must be finite.
func (p Parameters) Validate() error {
	finite := map[string]float64{
		"v0":                           p.V0,
		"v0_up_stairs":                 p.V0UpStairs,
		"v0_down_stairs":               p.V0DownStairs,
		"v0_escalator_up":              p.V0EscalatorUp,
		"v0_escalator_down":            p.V0EscalatorDown,
		"smooth_factor_up_stairs":      p.SmoothFactorUpStairs,
		"smooth_factor_down_stairs":    p.SmoothFactorDownStairs,
		"smooth_factor_escalator_up":   p.SmoothFactorEscalatorUp,
		"smooth_factor_escalator_down": p.SmoothFactorEscalatorDown,
		"mass":                         p.Mass,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite, got %g", name, v)
		}
	}
	switch {
	case !(p.Tau > 0) || math.IsInf(p.Tau, 1):
		return fmt.Errorf("tau must be > 0, got %g", p.Tau)
	case !(p.DeltaT > 0) || math.IsInf(p.DeltaT, 1):
		return fmt.Errorf("delta_t must be > 0, got %g", p.DeltaT)
	case !(p.T >= 0) || math.IsInf(p.T, 1):
		return fmt.Errorf("t must be >= 0, got %g", p.T)
	case !(p.EA >= 0) || math.IsInf(p.EA, 1):
		return fmt.Errorf("ea must be >= 0, got %g", p.EA)
	case !(p.EB >= 0) || math.IsInf(p.EB, 1):
		return fmt.Errorf("eb must be >= 0, got %g", p.EB)
	}
	return nil
}

// Spec describes an agent to create.
type Spec struct {
	Position         geometry.Vec
	FinalDestination int
	Group            int
	RouterID         int
	Premovement      float64
	Parameters       Parameters
}

// Factory creates agents for one simulation. It owns the id counter and the
// minimum premovement time over all agents it created, so independent
// simulations never share either.
type Factory struct {
	building       geometry.Query
	routers        map[int]Router
	nextID         int
	minPremovement float64
}

// NewFactory returns a factory whose agents query building and look up their
// router in routers by router id.
func NewFactory(building geometry.Query, routers map[int]Router) *Factory {
	return &Factory{
		building:       building,
		routers:        routers,
		nextID:         1,
		minPremovement: math.MaxFloat64,
	}
}

// New creates an agent with the next free id. An unknown router id is not an
// error here: the agent is created without a router and FindRoute reports it.
func (f *Factory) New(spec Spec) *Agent {
	p := spec.Parameters
	a := &Agent{
		id: f.nextID,
		ellipse: geometry.Ellipse{
			Center: spec.Position,
			V0:     p.V0,
			EA:     p.EA,
			EB:     p.EB,
			CosPhi: 1,
		},
		mass:                      p.Mass,
		tau:                       p.Tau,
		t:                         p.T,
		deltaT:                    p.DeltaT,
		v0UpStairs:                p.V0UpStairs,
		v0DownStairs:              p.V0DownStairs,
		v0EscalatorUp:             p.V0EscalatorUp,
		v0EscalatorDown:           p.V0EscalatorDown,
		smoothFactorUpStairs:      p.SmoothFactorUpStairs,
		smoothFactorDownStairs:    p.SmoothFactorDownStairs,
		smoothFactorEscalatorUp:   p.SmoothFactorEscalatorUp,
		smoothFactorEscalatorDown: p.SmoothFactorEscalatorDown,
		exitIndex:                 NoExit,
		mentalMap:                 make(map[int]int),
		finalDestination:          spec.FinalDestination,
		group:                     spec.Group,
		routerID:                  spec.RouterID,
		router:                    f.routers[spec.RouterID],
		building:                  f.building,
		factory:                   f,
		timeBeforeRerouting:       0,
		lastGoalID:                -1,
		waitingPos:                geometry.Unset,
		lastPosition:              spec.Position,
	}
	f.nextID++
	a.SetPremovementTime(spec.Premovement)
	return a
}

// AgentsCreated returns how many agents the factory has created.
func (f *Factory) AgentsCreated() int {
	return f.nextID - 1
}

// MinPremovementTime returns the smallest premovement time set on any agent of
// this factory, or math.MaxFloat64 if none was set.
func (f *Factory) MinPremovementTime() float64 {
	return f.minPremovement
}

func (f *Factory) notePremovement(t float64) {
	if t < f.minPremovement {
		f.minPremovement = t
	}
}
